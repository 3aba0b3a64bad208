package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/palletflow/internal/core"
)

// withRequestMetadata copies the client address into ctx for the import
// log. RemoteAddr has already been resolved by TrustedRealIP.
func withRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithIPAddress(ctx, r.RemoteAddr)
}

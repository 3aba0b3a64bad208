package core

import "context"

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyPrincipal contextKey = "principal"
)

// Principal is the authenticated caller of an import.
type Principal struct {
	Subject string
	Roles   []string
}

// ContextWithPrincipal attaches the caller to the context.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFromContext returns the caller, or the zero Principal.
func PrincipalFromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(ctxKeyPrincipal).(Principal); ok {
		return p
	}
	return Principal{}
}

// ContextWithIPAddress adds the client IP to context for import logging.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// GetIPAddressFromContext extracts the client IP from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

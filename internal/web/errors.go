package web

// errors.go turns request-level failures into HTTP responses. The technical
// error is logged with the request ID; the client gets the coded user
// message from core.MapError.
//
// Batch-level outcomes never come through here: they are Results and go out
// in the import response shape.

import (
	"context"
	"errors"
	"net/http"

	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/logging"
	"github.com/JonMunkholm/palletflow/internal/web/middleware"
)

// errNoFile is returned when the multipart form lacks the file field.
var errNoFile = errors.New("no file provided")

// respondError logs err and writes its user message with status.
func respondError(w http.ResponseWriter, r *http.Request, err error, status int) {
	msg := core.MapError(err)
	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)
	middleware.WriteError(w, status, err)
}

// statusFor picks the HTTP status of a request-level error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownImport):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrEmptyFile), errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// resultStatus is the HTTP status of an import Result.
func resultStatus(res *core.Result) int {
	switch {
	case res.Success:
		return http.StatusOK
	case res.Kind == core.KindFileFormat:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

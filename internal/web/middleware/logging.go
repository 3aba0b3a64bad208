// Package middleware holds palletflow's HTTP middleware: bearer-token
// authentication, per-IP rate limiting, trusted proxy handling and the
// structured access log.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/logging"
)

// Logger writes one structured line per request once it completes: method,
// path, status, duration_ms, ip, user_agent and, for authenticated requests,
// the caller's subject. The request ID comes from logging.FromContext.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		// Handlers further down attach the principal to their own request
		// copy; a holder in the context lets it surface here.
		holder := &principalHolder{}
		next.ServeHTTP(rec, r.WithContext(withPrincipalHolder(r.Context(), holder)))

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}
		if holder.p.Subject != "" {
			args = append(args, "user", holder.p.Subject)
		}

		log := logging.FromContext(r.Context())
		if rec.status >= http.StatusInternalServerError {
			log.Error("request", args...)
			return
		}
		log.Info("request", args...)
	})
}

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

type principalHolder struct {
	p core.Principal
}

type holderKey struct{}

func withPrincipalHolder(ctx context.Context, h *principalHolder) context.Context {
	return context.WithValue(ctx, holderKey{}, h)
}

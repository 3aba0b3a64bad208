package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/JonMunkholm/palletflow/internal/config"
	"github.com/JonMunkholm/palletflow/internal/core"
)

var (
	ErrMissingToken = errors.New("unauthorized: missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the token payload: registered claims plus the caller's roles.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// Auth returns middleware that authenticates the caller and stores the
// resulting principal in the request context.
//
// With auth enabled every request needs an HS256 bearer token signed with
// the configured secret, carrying an expiry and, if configured, the issuer.
// With auth disabled every request runs as a "dev" principal holding the
// configured dev roles.
func Auth(cfg config.AuthConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		dev := core.Principal{Subject: "dev", Roles: cfg.DevRoles}
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, authenticated(r, dev))
			})
		}
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	secret := []byte(cfg.JWTSecret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, ErrMissingToken)
				return
			}

			claims := &Claims{}
			_, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
				return secret, nil
			})
			if err != nil || claims.Subject == "" {
				slog.Warn("auth: rejected token",
					"path", r.URL.Path,
					"method", r.Method,
					"remote_addr", r.RemoteAddr,
					"error", err,
				)
				WriteError(w, http.StatusUnauthorized, ErrInvalidToken)
				return
			}

			p := core.Principal{Subject: claims.Subject, Roles: claims.Roles}
			next.ServeHTTP(w, authenticated(r, p))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// authenticated attaches p to the request and reports it to the access log.
func authenticated(r *http.Request, p core.Principal) *http.Request {
	if h, ok := r.Context().Value(holderKey{}).(*principalHolder); ok {
		h.p = p
	}
	return r.WithContext(core.ContextWithPrincipal(r.Context(), p))
}

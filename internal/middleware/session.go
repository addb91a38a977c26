package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"veriscan/internal/model"

	"github.com/rs/zerolog"
)

// Identity headers set by the upstream gateway.
const (
	HeaderCallerAddress = "X-Caller-Address"
	HeaderCallerRole    = "X-Caller-Role"
)

type sessionKey struct{}

// Identity parses the caller headers into a model.Session on the request context.
// Requests without an address carry an anonymous session. An invalid address
// is rejected except on public paths, where it is dropped.
func Identity(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := model.Session{Role: model.ParseRole(r.Header.Get(HeaderCallerRole))}

			if raw := r.Header.Get(HeaderCallerAddress); raw != "" {
				addr, err := model.ParseAddress(raw)
				switch {
				case err == nil:
					session.Address = addr
				case publicPath(r.URL.Path):
					logger.Debug().Str("path", r.URL.Path).Str("address", raw).Msg("ignoring invalid caller address")
				default:
					logger.Warn().Str("path", r.URL.Path).Str("address", raw).Msg("invalid caller address")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusBadRequest)
					json.NewEncoder(w).Encode(model.ErrorResponse{
						Error:   model.ErrCodeInvalidAddress,
						Message: "invalid caller address header",
					})
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}

// WithSession returns a copy of ctx carrying session.
func WithSession(ctx context.Context, session model.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFrom returns the session stored on ctx, or an anonymous one.
func SessionFrom(ctx context.Context) model.Session {
	if s, ok := ctx.Value(sessionKey{}).(model.Session); ok {
		return s
	}
	return model.Session{Role: model.RoleUnknown}
}

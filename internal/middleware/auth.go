package middleware

import (
	"context"
	"net/http"
	"strings"

	"connexa-backend/internal/apperrors"
	"connexa-backend/internal/token"

	"github.com/rs/zerolog/log"
)

type contextKey string

const identityKey contextKey = "identity"

// ExtractBearer pulls the token out of an Authorization header value.
// The scheme comparison is case-insensitive.
func ExtractBearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// Auth verifies the bearer token and stores the identity in the request
// context. Missing and invalid tokens produce the same 401 but are
// logged distinctly.
func Auth(codec *token.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearer := ExtractBearer(r.Header.Get("Authorization"))
			if bearer == "" {
				log.Debug().Str("path", r.URL.Path).Msg("Missing bearer token")
				respondError(w, apperrors.CodeUnauthorized, "Missing bearer token", http.StatusUnauthorized)
				return
			}

			identity, err := codec.Verify(bearer)
			if err != nil {
				log.Warn().Str("path", r.URL.Path).Msg("Invalid bearer token")
				respondError(w, apperrors.CodeUnauthorized, "Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFrom extracts the verified identity from the context.
func IdentityFrom(ctx context.Context) (token.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(token.Identity)
	return identity, ok
}

// WithIdentity returns a context carrying the identity. Used by tests
// that exercise handlers without the full middleware chain.
func WithIdentity(ctx context.Context, identity token.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// respondError sends an error response envelope
func respondError(w http.ResponseWriter, code apperrors.Code, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write([]byte(`{"success":false,"error":{"code":"` + string(code) + `","message":"` + message + `"}}`))
}

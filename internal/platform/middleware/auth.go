package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"custodia/pkg/domain"
)

// CallerValidator validates a bearer token and resolves the caller address it
// is bound to.
type CallerValidator interface {
	ValidateToken(tokenString string) (domain.Address, error)
}

type contextKeyCaller struct{}

var ContextKeyCaller = contextKeyCaller{}

// GetCaller retrieves the authenticated caller address from the context.
func GetCaller(ctx context.Context) domain.Address {
	caller, ok := ctx.Value(ContextKeyCaller).(domain.Address)
	if !ok {
		return ""
	}
	return caller
}

// RequireAuth validates the Authorization bearer token and stores the caller
// address in the request context. Every owner-gated vault route sits behind
// it.
func RequireAuth(validator CallerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			caller, err := validator.ValidateToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed",
					"request_id", GetRequestID(r.Context()),
					"error", err.Error(),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyCaller, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeJSONError writes a JSON error response with the given status code and
// error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errCode,
		"error_description": errDesc,
	})
}

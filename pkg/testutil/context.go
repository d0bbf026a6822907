package testutil

import (
	"context"
	"net/http"

	"custodia/internal/platform/middleware"
	"custodia/pkg/domain"
)

// WithCaller binds an authenticated caller address to the request context,
// simulating what the auth middleware does for a valid bearer token.
func WithCaller(req *http.Request, caller domain.Address) *http.Request {
	ctx := context.WithValue(req.Context(), middleware.ContextKeyCaller, caller)
	return req.WithContext(ctx)
}

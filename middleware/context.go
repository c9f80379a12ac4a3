package middleware

import (
	"context"

	"github.com/adplane/ads-control-plane/auth"
	"github.com/adplane/ads-control-plane/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	// claimsKey is the context key for validated token claims
	claimsKey contextKey = "claims"

	// requestContextKey is the context key for the per-call RequestContext
	requestContextKey contextKey = "request_context"
)

// WithClaims adds validated token claims to the context
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaimsFromContext retrieves validated token claims from context
func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if claims, ok := ctx.Value(claimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// WithRequestContext adds the caller's RequestContext to the context.
// Handlers complete it with path-derived resource ids before calling the
// gateway.
func WithRequestContext(ctx context.Context, rc models.RequestContext) context.Context {
	return context.WithValue(ctx, requestContextKey, rc)
}

// GetRequestContext retrieves the caller's RequestContext. The second
// return is false when the auth middleware has not run.
func GetRequestContext(ctx context.Context) (models.RequestContext, bool) {
	rc, ok := ctx.Value(requestContextKey).(models.RequestContext)
	return rc, ok
}

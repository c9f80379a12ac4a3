package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/adplane/ads-control-plane/auth"
	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/utils"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// TokenValidator defines the interface for validating service tokens
type TokenValidator interface {
	// ValidateToken validates a service token and returns its claims
	ValidateToken(ctx context.Context, token string) (*auth.Claims, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(validator TokenValidator, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		validator: validator,
		logger:    logger,
	}
}

// RequireAuth is a middleware that requires a valid service token
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)

		token := extractBearerToken(r)
		if token == "" {
			m.logger.Warn("missing bearer token",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			_ = utils.WriteUnauthorized(w, "missing or invalid authorization")
			return
		}

		claims, err := m.validator.ValidateToken(ctx, token)
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "invalid or expired token")
			return
		}

		ctx = WithClaims(ctx, claims)

		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("tenant_id", claims.TenantID),
			zap.String("actor", claims.Subject))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ExtractTenant builds the per-call RequestContext from validated claims.
// Must run after RequireAuth.
func (m *AuthMiddleware) ExtractTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := chimiddleware.GetReqID(ctx)

		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			m.logger.Error("claims not found in context",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "authentication required")
			return
		}

		rc := models.RequestContext{
			TenantID:        claims.TenantID,
			ActorUserID:     claims.Subject,
			IsPlatformAdmin: claims.PlatformAdmin,
		}
		ctx = WithRequestContext(ctx, rc)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects callers without the platform_admin claim. Must run
// after RequireAuth.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		claims := GetClaimsFromContext(ctx)
		if claims == nil {
			_ = utils.WriteUnauthorized(w, "authentication required")
			return
		}
		if !claims.PlatformAdmin {
			m.logger.Warn("platform admin required",
				zap.String("request_id", chimiddleware.GetReqID(ctx)),
				zap.String("tenant_id", claims.TenantID),
				zap.String("actor", claims.Subject))
			_ = utils.WriteForbidden(w, "platform admin required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

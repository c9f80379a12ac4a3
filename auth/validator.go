package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")

	// ErrMissingTenant is returned when the tenant claim is absent
	ErrMissingTenant = errors.New("missing tenant_id claim")
)

// Claims are the service-token claims. The gateway is called by trusted
// services (the dashboard backend, the command interpreter), so tokens are
// HS256-signed with a shared secret rather than fetched from an identity
// provider.
type Claims struct {
	jwt.RegisteredClaims

	// TenantID is the tenant the caller acts for. Required.
	TenantID string `json:"tenant_id"`

	// PlatformAdmin marks operator tokens that bypass tenant isolation
	PlatformAdmin bool `json:"platform_admin,omitempty"`
}

// Validator validates HS256 service tokens
type Validator struct {
	secret []byte
	issuer string
}

// Config holds configuration for the Validator
type Config struct {
	Secret string
	Issuer string
}

// NewValidator creates a new service-token validator
func NewValidator(cfg Config) *Validator {
	return &Validator{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
	}
}

// ValidateToken verifies the signature, expiry, and issuer of a service
// token and returns its claims
func (v *Validator) ValidateToken(_ context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrInvalidIssuer, v.issuer, claims.Issuer)
	}
	if claims.TenantID == "" {
		return nil, ErrMissingTenant
	}

	return claims, nil
}

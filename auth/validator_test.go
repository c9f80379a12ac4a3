package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func baseClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "ads-control-plane",
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		TenantID: "acme",
	}
}

func TestValidator_ValidateToken(t *testing.T) {
	v := NewValidator(Config{Secret: testSecret, Issuer: "ads-control-plane"})

	t.Run("valid token", func(t *testing.T) {
		claims, err := v.ValidateToken(context.Background(), signToken(t, testSecret, baseClaims()))
		require.NoError(t, err)
		assert.Equal(t, "acme", claims.TenantID)
		assert.Equal(t, "user-1", claims.Subject)
		assert.False(t, claims.PlatformAdmin)
	})

	t.Run("platform admin claim", func(t *testing.T) {
		c := baseClaims()
		c.PlatformAdmin = true
		claims, err := v.ValidateToken(context.Background(), signToken(t, testSecret, c))
		require.NoError(t, err)
		assert.True(t, claims.PlatformAdmin)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := v.ValidateToken(context.Background(), signToken(t, "other-secret", baseClaims()))
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		c := baseClaims()
		c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
		_, err := v.ValidateToken(context.Background(), signToken(t, testSecret, c))
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		c := baseClaims()
		c.Issuer = "someone-else"
		_, err := v.ValidateToken(context.Background(), signToken(t, testSecret, c))
		assert.ErrorIs(t, err, ErrInvalidIssuer)
	})

	t.Run("missing tenant", func(t *testing.T) {
		c := baseClaims()
		c.TenantID = ""
		_, err := v.ValidateToken(context.Background(), signToken(t, testSecret, c))
		assert.ErrorIs(t, err, ErrMissingTenant)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := v.ValidateToken(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("issuer not enforced when unconfigured", func(t *testing.T) {
		lax := NewValidator(Config{Secret: testSecret})
		c := baseClaims()
		c.Issuer = "anything"
		_, err := lax.ValidateToken(context.Background(), signToken(t, testSecret, c))
		assert.NoError(t, err)
	})
}

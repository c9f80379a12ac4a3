package app

import (
	"context"
	"testing"

	"github.com/adplane/ads-control-plane/config"
	"github.com/adplane/ads-control-plane/services/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestInitAuth(t *testing.T) {
	t.Run("missing secret rejects all tokens", func(t *testing.T) {
		d := &Dependencies{Logger: zaptest.NewLogger(t)}
		d.initAuth(&config.Config{})

		require.NotNil(t, d.AuthMiddleware)

		v := &rejectAllValidator{}
		claims, err := v.ValidateToken(context.Background(), "any-token")
		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("configured secret wires the validator", func(t *testing.T) {
		d := &Dependencies{Logger: zaptest.NewLogger(t)}
		d.initAuth(&config.Config{
			Auth: config.AuthConfig{JWTSecret: "test-secret", Issuer: "adplane"},
		})

		require.NotNil(t, d.AuthMiddleware)
	})
}

func TestNewWindowStore(t *testing.T) {
	t.Run("in-memory store by default", func(t *testing.T) {
		d := &Dependencies{Logger: zaptest.NewLogger(t)}
		store := d.newWindowStore(&config.Config{
			Policy: config.PolicyConfig{MaxTrackedTenants: 100},
		})

		_, ok := store.(*policy.MemoryStore)
		assert.True(t, ok, "expected the in-memory window store")
		assert.Nil(t, d.redisClient)
	})

	t.Run("redis store when enabled", func(t *testing.T) {
		d := &Dependencies{Logger: zaptest.NewLogger(t)}
		store := d.newWindowStore(&config.Config{
			Redis: config.RedisConfig{Enabled: true, Addr: "localhost:6379"},
		})

		_, ok := store.(*policy.RedisStore)
		assert.True(t, ok, "expected the redis window store")
		require.NotNil(t, d.redisClient)
		require.NoError(t, d.redisClient.Close())
	})
}

func TestClose(t *testing.T) {
	t.Run("tolerates partially initialized dependencies", func(t *testing.T) {
		d := &Dependencies{Logger: zaptest.NewLogger(t)}
		assert.NoError(t, d.Close(context.Background()))
	})
}

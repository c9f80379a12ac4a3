package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) HealthCheck(context.Context) error { return f.err }

func TestHealthHandler_HandleHealth(t *testing.T) {
	h := NewHealthHandler(nil, zaptest.NewLogger(t))

	rec := httptest.NewRecorder()
	h.HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data HealthResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Data.Status)
	assert.NotEmpty(t, resp.Data.Timestamp)
}

func TestHealthHandler_HandleReadiness(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		h := NewHealthHandler(&fakePinger{}, zaptest.NewLogger(t))

		rec := httptest.NewRecorder()
		h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "healthy", resp.Data.Checks["database"])
	})

	t.Run("unreachable database", func(t *testing.T) {
		h := NewHealthHandler(&fakePinger{err: errors.New("connection refused")}, zaptest.NewLogger(t))

		rec := httptest.NewRecorder()
		h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

		var resp struct {
			Data HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "unhealthy", resp.Data.Status)
		assert.Equal(t, "unhealthy", resp.Data.Checks["database"])
	})

	t.Run("no database configured", func(t *testing.T) {
		h := NewHealthHandler(nil, zaptest.NewLogger(t))

		rec := httptest.NewRecorder()
		h.HandleReadiness(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

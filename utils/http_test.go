package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestWriteJSON(t *testing.T) {
	t.Run("writes status and content type", func(t *testing.T) {
		rec := httptest.NewRecorder()
		err := WriteJSON(rec, 200, map[string]string{"hello": "world"})
		require.NoError(t, err)

		assert.Equal(t, 200, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "world", decodeBody(t, rec)["hello"])
	})

	t.Run("nil data writes empty body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		require.NoError(t, WriteJSON(rec, 204, nil))
		assert.Empty(t, rec.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteOK(rec, []string{"a", "b"}))

	assert.Equal(t, 200, rec.Code)
	body := decodeBody(t, rec)
	assert.Len(t, body["data"], 2)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteError(rec, 422, "COMPLIANCE_REQUIRED",
		"COMPLIANCE_REQUIRED: EU disclosure settings required",
		map[string]interface{}{"ad_account_id": "act_1"},
		[]string{"set beneficiary and payor", "retry the write"})
	require.NoError(t, err)

	assert.Equal(t, 422, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "COMPLIANCE_REQUIRED", body["error"])
	assert.Contains(t, body["message"], "COMPLIANCE_REQUIRED", "code must appear inside the message")
	assert.Len(t, body["remediation"], 2)

	details, ok := body["details"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "act_1", details["ad_account_id"])
}

func TestStatusWrappers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(rec *httptest.ResponseRecorder) error
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(r *httptest.ResponseRecorder) error { return WriteBadRequest(r, "nope", nil) }, 400, "VALIDATION_FAILED"},
		{"unauthorized", func(r *httptest.ResponseRecorder) error { return WriteUnauthorized(r, "") }, 401, "UNAUTHORIZED"},
		{"forbidden", func(r *httptest.ResponseRecorder) error { return WriteForbidden(r, "") }, 403, "FORBIDDEN"},
		{"not found", func(r *httptest.ResponseRecorder) error { return WriteNotFound(r, "") }, 404, "NOT_FOUND"},
		{"internal", func(r *httptest.ResponseRecorder) error { return WriteInternalServerError(r, "") }, 500, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			require.NoError(t, tt.write(rec))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, rec)["error"])
		})
	}
}

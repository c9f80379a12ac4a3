package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services/gateway"
	"github.com/adplane/ads-control-plane/services/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePreflightService struct {
	result   *gateway.PreflightResult
	err      error
	gotInput gateway.PreflightInput
}

func (f *fakePreflightService) Preflight(_ context.Context, _ models.RequestContext, input gateway.PreflightInput) (*gateway.PreflightResult, error) {
	f.gotInput = input
	return f.result, f.err
}

func TestPreflightHandler(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("returns would-be warnings", func(t *testing.T) {
		svc := &fakePreflightService{result: &gateway.PreflightResult{
			Operation: "adset.create",
			Warnings:  []policy.Warning{{Code: policy.WarningBudgetIncrease, Message: "budget increases"}},
		}}
		h := NewPreflightHandler(svc, logger)

		payload := map[string]interface{}{
			"operation":     "adset.create",
			"ad_account_id": "act_123",
			"body":          map[string]interface{}{"daily_budget": "2000"},
		}
		body, _ := json.Marshal(payload)
		req := authed(httptest.NewRequest(http.MethodPost, "/preflight", bytes.NewReader(body)), "acme")
		rec := httptest.NewRecorder()
		h.HandlePreflight(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "adset.create", svc.gotInput.Operation)
		assert.Equal(t, "act_123", svc.gotInput.AdAccountID)

		var resp struct {
			Data gateway.PreflightResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data.Warnings, 1)
		assert.Equal(t, policy.WarningBudgetIncrease, resp.Data.Warnings[0].Code)
	})

	t.Run("compliance failure surfaces as 422 with remediation", func(t *testing.T) {
		svc := &fakePreflightService{
			err: services.NewDomainError(services.ErrorTypeCompliance, services.CodeComplianceRequired,
				"EU disclosure settings required", nil).
				WithRemediation("set beneficiary and payor for the ad account"),
		}
		h := NewPreflightHandler(svc, logger)

		body, _ := json.Marshal(map[string]interface{}{"operation": "adset.create", "ad_account_id": "act_123"})
		req := authed(httptest.NewRequest(http.MethodPost, "/preflight", bytes.NewReader(body)), "acme")
		rec := httptest.NewRecorder()
		h.HandlePreflight(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "COMPLIANCE_REQUIRED", resp["error"])
		assert.NotEmpty(t, resp["remediation"])
	})

	t.Run("operation is required", func(t *testing.T) {
		svc := &fakePreflightService{}
		h := NewPreflightHandler(svc, logger)

		req := authed(httptest.NewRequest(http.MethodPost, "/preflight", bytes.NewReader([]byte(`{}`))), "acme")
		rec := httptest.NewRecorder()
		h.HandlePreflight(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

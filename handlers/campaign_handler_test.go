package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adplane/ads-control-plane/middleware"
	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/gateway"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeCampaignService records calls and returns canned results
type fakeCampaignService struct {
	listed    []models.Campaign
	created   *gateway.CampaignResult
	err       error
	gotRC     models.RequestContext
	gotParams gateway.ListParams
	gotInput  gateway.CreateCampaignInput
	calls     int
}

func (f *fakeCampaignService) ListCampaigns(_ context.Context, rc models.RequestContext, _ string, params gateway.ListParams) ([]models.Campaign, error) {
	f.calls++
	f.gotRC = rc
	f.gotParams = params
	return f.listed, f.err
}

func (f *fakeCampaignService) GetCampaign(_ context.Context, rc models.RequestContext, _ string) (*models.Campaign, error) {
	f.calls++
	f.gotRC = rc
	if f.err != nil {
		return nil, f.err
	}
	if len(f.listed) == 0 {
		return nil, services.ErrCampaignNotFound
	}
	return &f.listed[0], nil
}

func (f *fakeCampaignService) CreateCampaign(_ context.Context, rc models.RequestContext, _ string, input gateway.CreateCampaignInput) (*gateway.CampaignResult, error) {
	f.calls++
	f.gotRC = rc
	f.gotInput = input
	return f.created, f.err
}

func (f *fakeCampaignService) UpdateCampaign(_ context.Context, rc models.RequestContext, _ string, _ gateway.UpdateCampaignInput) (*gateway.CampaignResult, error) {
	f.calls++
	f.gotRC = rc
	return f.created, f.err
}

func (f *fakeCampaignService) DuplicateCampaign(_ context.Context, rc models.RequestContext, _ string, _ gateway.DuplicateInput) (*gateway.DuplicateResult, error) {
	f.calls++
	f.gotRC = rc
	return &gateway.DuplicateResult{CopiedID: "777"}, f.err
}

func campaignRouter(svc CampaignService, t *testing.T) chi.Router {
	h := NewCampaignHandler(svc, zaptest.NewLogger(t))
	r := chi.NewRouter()
	r.Get("/accounts/{accountID}/campaigns", h.HandleList)
	r.Post("/accounts/{accountID}/campaigns", h.HandleCreate)
	r.Get("/campaigns/{campaignID}", h.HandleGet)
	r.Put("/campaigns/{campaignID}", h.HandleUpdate)
	r.Post("/campaigns/{campaignID}/duplicate", h.HandleDuplicate)
	return r
}

func authed(req *http.Request, tenantID string) *http.Request {
	rc := models.RequestContext{TenantID: tenantID, ActorUserID: "user-1"}
	return req.WithContext(middleware.WithRequestContext(req.Context(), rc))
}

func TestCampaignHandler_List(t *testing.T) {
	t.Run("returns campaigns with account id on context", func(t *testing.T) {
		svc := &fakeCampaignService{listed: []models.Campaign{{ID: "1", Name: "Spring"}}}
		r := campaignRouter(svc, t)

		req := authed(httptest.NewRequest(http.MethodGet, "/accounts/act_123/campaigns?status=ACTIVE,PAUSED&limit=25", nil), "acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "act_123", svc.gotRC.AdAccountID)
		assert.Equal(t, "acme", svc.gotRC.TenantID)
		assert.Equal(t, 25, svc.gotParams.Limit)
		assert.Equal(t, []string{"ACTIVE", "PAUSED"}, []string(svc.gotParams.StatusFilter))
	})

	t.Run("invalid status filter is a 400", func(t *testing.T) {
		svc := &fakeCampaignService{}
		r := campaignRouter(svc, t)

		req := authed(httptest.NewRequest(http.MethodGet, "/accounts/act_123/campaigns?status=RUNNING", nil), "acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, svc.calls, "service must not run on invalid input")
	})

	t.Run("missing request context is a 401", func(t *testing.T) {
		svc := &fakeCampaignService{}
		r := campaignRouter(svc, t)

		req := httptest.NewRequest(http.MethodGet, "/accounts/act_123/campaigns", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, svc.calls)
	})
}

func TestCampaignHandler_Create(t *testing.T) {
	t.Run("valid payload creates", func(t *testing.T) {
		svc := &fakeCampaignService{created: &gateway.CampaignResult{Campaign: models.Campaign{ID: "42", Name: "Spring"}}}
		r := campaignRouter(svc, t)

		payload := map[string]interface{}{"name": "Spring", "objective": "OUTCOME_TRAFFIC", "daily_budget": 1000}
		body, _ := json.Marshal(payload)
		req := authed(httptest.NewRequest(http.MethodPost, "/accounts/act_123/campaigns", bytes.NewReader(body)), "acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "Spring", svc.gotInput.Name)
		require.NotNil(t, svc.gotInput.DailyBudget)
		assert.EqualValues(t, 1000, *svc.gotInput.DailyBudget)
	})

	t.Run("missing required fields is a 400", func(t *testing.T) {
		svc := &fakeCampaignService{}
		r := campaignRouter(svc, t)

		req := authed(httptest.NewRequest(http.MethodPost, "/accounts/act_123/campaigns", bytes.NewReader([]byte(`{"name":"x"}`))), "acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, svc.calls)
	})

	t.Run("isolation rejection surfaces as 403", func(t *testing.T) {
		svc := &fakeCampaignService{
			err: services.NewDomainError(services.ErrorTypeIsolation, services.CodeTenantIsolation,
				"resource belongs to another tenant", nil),
		}
		r := campaignRouter(svc, t)

		req := authed(httptest.NewRequest(http.MethodPost, "/accounts/act_999/campaigns",
			bytes.NewReader([]byte(`{"name":"x","objective":"OUTCOME_TRAFFIC"}`))), "acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "TENANT_ISOLATION", resp["error"])
	})
}

func TestCampaignHandler_Get(t *testing.T) {
	t.Run("campaign id rides the request context", func(t *testing.T) {
		svc := &fakeCampaignService{listed: []models.Campaign{{ID: "42"}}}
		r := campaignRouter(svc, t)

		req := authed(httptest.NewRequest(http.MethodGet, "/campaigns/42", nil), "acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "42", svc.gotRC.CampaignID)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		svc := &fakeCampaignService{}
		r := campaignRouter(svc, t)

		req := authed(httptest.NewRequest(http.MethodGet, "/campaigns/42", nil), "acme")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

package handlers

import (
	"context"
	"net/http"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services/gateway"
	"github.com/adplane/ads-control-plane/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReadService is the slice of the gateway serving account, page, and
// insights reads
type ReadService interface {
	ListAccounts(ctx context.Context, rc models.RequestContext) ([]models.AdAccount, error)
	ListPages(ctx context.Context, rc models.RequestContext) ([]models.Page, error)
	AccountInsights(ctx context.Context, rc models.RequestContext, adAccountID string, params gateway.InsightsParams) ([]models.InsightsRow, error)
	CampaignInsights(ctx context.Context, rc models.RequestContext, campaignID string, params gateway.InsightsParams) ([]models.InsightsRow, error)
	AdSetInsights(ctx context.Context, rc models.RequestContext, adSetID string, params gateway.InsightsParams) ([]models.InsightsRow, error)
	AdInsights(ctx context.Context, rc models.RequestContext, adID string, params gateway.InsightsParams) ([]models.InsightsRow, error)
}

// AccountHandler handles account, page, and insights reads
type AccountHandler struct {
	service ReadService
	logger  *zap.Logger
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service ReadService, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{service: service, logger: logger}
}

// HandleListAccounts handles GET /accounts
func (h *AccountHandler) HandleListAccounts(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), rc)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, accounts)
}

// HandleListPages handles GET /pages
func (h *AccountHandler) HandleListPages(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}

	pages, err := h.service.ListPages(r.Context(), rc)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, pages)
}

// HandleAccountInsights handles GET /accounts/{accountID}/insights
func (h *AccountHandler) HandleAccountInsights(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	params, ok := insightsParams(w, r)
	if !ok {
		return
	}

	rows, err := h.service.AccountInsights(r.Context(), rc.WithAdAccount(accountID), accountID, params)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, rows)
}

// HandleCampaignInsights handles GET /campaigns/{campaignID}/insights
func (h *AccountHandler) HandleCampaignInsights(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	campaignID := chi.URLParam(r, "campaignID")

	params, ok := insightsParams(w, r)
	if !ok {
		return
	}

	rows, err := h.service.CampaignInsights(r.Context(), rc.WithCampaign(campaignID), campaignID, params)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, rows)
}

// HandleAdSetInsights handles GET /adsets/{adSetID}/insights
func (h *AccountHandler) HandleAdSetInsights(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adSetID := chi.URLParam(r, "adSetID")

	params, ok := insightsParams(w, r)
	if !ok {
		return
	}

	rows, err := h.service.AdSetInsights(r.Context(), rc.WithAdSet(adSetID), adSetID, params)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, rows)
}

// HandleAdInsights handles GET /ads/{adID}/insights
func (h *AccountHandler) HandleAdInsights(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adID := chi.URLParam(r, "adID")

	params, ok := insightsParams(w, r)
	if !ok {
		return
	}

	rows, err := h.service.AdInsights(r.Context(), rc.WithAd(adID), adID, params)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, rows)
}

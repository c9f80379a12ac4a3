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

// CampaignService is the slice of the gateway the campaign handler drives
type CampaignService interface {
	ListCampaigns(ctx context.Context, rc models.RequestContext, adAccountID string, params gateway.ListParams) ([]models.Campaign, error)
	GetCampaign(ctx context.Context, rc models.RequestContext, campaignID string) (*models.Campaign, error)
	CreateCampaign(ctx context.Context, rc models.RequestContext, adAccountID string, input gateway.CreateCampaignInput) (*gateway.CampaignResult, error)
	UpdateCampaign(ctx context.Context, rc models.RequestContext, campaignID string, input gateway.UpdateCampaignInput) (*gateway.CampaignResult, error)
	DuplicateCampaign(ctx context.Context, rc models.RequestContext, campaignID string, input gateway.DuplicateInput) (*gateway.DuplicateResult, error)
}

// CampaignHandler handles campaign HTTP requests
type CampaignHandler struct {
	service CampaignService
	logger  *zap.Logger
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(service CampaignService, logger *zap.Logger) *CampaignHandler {
	return &CampaignHandler{service: service, logger: logger}
}

// HandleList handles GET /accounts/{accountID}/campaigns
func (h *CampaignHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	params, ok := listParams(w, r)
	if !ok {
		return
	}

	campaigns, err := h.service.ListCampaigns(r.Context(), rc.WithAdAccount(accountID), accountID, params)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, campaigns)
}

// HandleGet handles GET /campaigns/{campaignID}
func (h *CampaignHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	campaignID := chi.URLParam(r, "campaignID")

	campaign, err := h.service.GetCampaign(r.Context(), rc.WithCampaign(campaignID), campaignID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, campaign)
}

// HandleCreate handles POST /accounts/{accountID}/campaigns
func (h *CampaignHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	var input gateway.CreateCampaignInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.CreateCampaign(r.Context(), rc.WithAdAccount(accountID), accountID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, result)
}

// HandleUpdate handles PUT /campaigns/{campaignID}
func (h *CampaignHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	campaignID := chi.URLParam(r, "campaignID")

	var input gateway.UpdateCampaignInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.UpdateCampaign(r.Context(), rc.WithCampaign(campaignID), campaignID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

// HandleDuplicate handles POST /campaigns/{campaignID}/duplicate
func (h *CampaignHandler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	campaignID := chi.URLParam(r, "campaignID")

	var input gateway.DuplicateInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.DuplicateCampaign(r.Context(), rc.WithCampaign(campaignID), campaignID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, result)
}

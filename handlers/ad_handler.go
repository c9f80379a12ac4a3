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

// AdService is the slice of the gateway the ad handler drives
type AdService interface {
	ListAds(ctx context.Context, rc models.RequestContext, adAccountID string, params gateway.ListParams) ([]models.Ad, error)
	GetAd(ctx context.Context, rc models.RequestContext, adID string) (*models.Ad, error)
	CreateAd(ctx context.Context, rc models.RequestContext, adAccountID string, input gateway.CreateAdInput) (*gateway.AdResult, error)
	UpdateAd(ctx context.Context, rc models.RequestContext, adID string, input gateway.UpdateAdInput) (*gateway.AdResult, error)
	DuplicateAd(ctx context.Context, rc models.RequestContext, adID string, input gateway.DuplicateInput) (*gateway.DuplicateResult, error)
}

// AdHandler handles ad HTTP requests
type AdHandler struct {
	service AdService
	logger  *zap.Logger
}

// NewAdHandler creates a new AdHandler
func NewAdHandler(service AdService, logger *zap.Logger) *AdHandler {
	return &AdHandler{service: service, logger: logger}
}

// HandleList handles GET /accounts/{accountID}/ads
func (h *AdHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	params, ok := listParams(w, r)
	if !ok {
		return
	}

	ads, err := h.service.ListAds(r.Context(), rc.WithAdAccount(accountID), accountID, params)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, ads)
}

// HandleGet handles GET /ads/{adID}
func (h *AdHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adID := chi.URLParam(r, "adID")

	ad, err := h.service.GetAd(r.Context(), rc.WithAd(adID), adID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, ad)
}

// HandleCreate handles POST /accounts/{accountID}/ads
func (h *AdHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	var input gateway.CreateAdInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.CreateAd(r.Context(), rc.WithAdAccount(accountID), accountID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, result)
}

// HandleUpdate handles PUT /ads/{adID}
func (h *AdHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adID := chi.URLParam(r, "adID")

	var input gateway.UpdateAdInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.UpdateAd(r.Context(), rc.WithAd(adID), adID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

// HandleDuplicate handles POST /ads/{adID}/duplicate
func (h *AdHandler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adID := chi.URLParam(r, "adID")

	var input gateway.DuplicateInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.DuplicateAd(r.Context(), rc.WithAd(adID), adID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, result)
}

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

// AdSetService is the slice of the gateway the ad set handler drives
type AdSetService interface {
	ListAdSets(ctx context.Context, rc models.RequestContext, adAccountID string, params gateway.ListParams) ([]models.AdSet, error)
	GetAdSet(ctx context.Context, rc models.RequestContext, adSetID string) (*models.AdSet, error)
	CreateAdSet(ctx context.Context, rc models.RequestContext, adAccountID string, input gateway.CreateAdSetInput) (*gateway.AdSetResult, error)
	UpdateAdSet(ctx context.Context, rc models.RequestContext, adSetID string, input gateway.UpdateAdSetInput) (*gateway.AdSetResult, error)
	DuplicateAdSet(ctx context.Context, rc models.RequestContext, adSetID string, input gateway.DuplicateInput) (*gateway.DuplicateResult, error)
}

// AdSetHandler handles ad set HTTP requests
type AdSetHandler struct {
	service AdSetService
	logger  *zap.Logger
}

// NewAdSetHandler creates a new AdSetHandler
func NewAdSetHandler(service AdSetService, logger *zap.Logger) *AdSetHandler {
	return &AdSetHandler{service: service, logger: logger}
}

// HandleList handles GET /accounts/{accountID}/adsets
func (h *AdSetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	params, ok := listParams(w, r)
	if !ok {
		return
	}

	adsets, err := h.service.ListAdSets(r.Context(), rc.WithAdAccount(accountID), accountID, params)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, adsets)
}

// HandleGet handles GET /adsets/{adSetID}
func (h *AdSetHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adSetID := chi.URLParam(r, "adSetID")

	adset, err := h.service.GetAdSet(r.Context(), rc.WithAdSet(adSetID), adSetID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, adset)
}

// HandleCreate handles POST /accounts/{accountID}/adsets
func (h *AdSetHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	var input gateway.CreateAdSetInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.CreateAdSet(r.Context(), rc.WithAdAccount(accountID), accountID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, result)
}

// HandleUpdate handles PUT /adsets/{adSetID}
func (h *AdSetHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adSetID := chi.URLParam(r, "adSetID")

	var input gateway.UpdateAdSetInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.UpdateAdSet(r.Context(), rc.WithAdSet(adSetID), adSetID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

// HandleDuplicate handles POST /adsets/{adSetID}/duplicate
func (h *AdSetHandler) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	adSetID := chi.URLParam(r, "adSetID")

	var input gateway.DuplicateInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.DuplicateAdSet(r.Context(), rc.WithAdSet(adSetID), adSetID, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, result)
}

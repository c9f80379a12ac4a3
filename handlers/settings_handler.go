package handlers

import (
	"context"
	"net/http"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services/compliance"
	"github.com/adplane/ads-control-plane/services/gateway"
	"github.com/adplane/ads-control-plane/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SettingsService is the slice of the gateway serving sync, default-page,
// and compliance settings operations
type SettingsService interface {
	SyncAssets(ctx context.Context, rc models.RequestContext) (*gateway.SyncResult, error)
	SetDefaultPage(ctx context.Context, rc models.RequestContext, adAccountID, pageID string) (*models.PageSelection, error)
	GetDsa(ctx context.Context, rc models.RequestContext, adAccountID string) (*models.DsaSettings, error)
	SetDsa(ctx context.Context, rc models.RequestContext, adAccountID, beneficiary, payor string) (*models.DsaSettings, error)
	DsaSuggestions(ctx context.Context, rc models.RequestContext, adAccountID, pageID string) (*compliance.AutofillResult, error)
}

// SettingsHandler handles sync, default-page, and DSA settings requests
type SettingsHandler struct {
	service SettingsService
	logger  *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(service SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{service: service, logger: logger}
}

// HandleSync handles POST /sync
func (h *SettingsHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}

	result, err := h.service.SyncAssets(r.Context(), rc)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

// SetDefaultPageRequest is the payload for choosing a default page
type SetDefaultPageRequest struct {
	PageID string `json:"page_id" validate:"required"`
}

// HandleSetDefaultPage handles PUT /accounts/{accountID}/default-page
func (h *SettingsHandler) HandleSetDefaultPage(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	var req SetDefaultPageRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	selection, err := h.service.SetDefaultPage(r.Context(), rc.WithAdAccount(accountID).WithPage(req.PageID), accountID, req.PageID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, selection)
}

// HandleGetDsa handles GET /accounts/{accountID}/dsa
func (h *SettingsHandler) HandleGetDsa(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	settings, err := h.service.GetDsa(r.Context(), rc.WithAdAccount(accountID), accountID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, settings)
}

// SetDsaRequest is the payload for manually setting disclosure values
type SetDsaRequest struct {
	Beneficiary string `json:"beneficiary" validate:"required"`
	Payor       string `json:"payor" validate:"required"`
}

// HandleSetDsa handles PUT /accounts/{accountID}/dsa
func (h *SettingsHandler) HandleSetDsa(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")

	var req SetDsaRequest
	if !decodeAndValidate(w, r, h.logger, &req) {
		return
	}

	settings, err := h.service.SetDsa(r.Context(), rc.WithAdAccount(accountID), accountID, req.Beneficiary, req.Payor)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, settings)
}

// HandleDsaSuggestions handles GET /accounts/{accountID}/dsa/suggestions
func (h *SettingsHandler) HandleDsaSuggestions(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}
	accountID := chi.URLParam(r, "accountID")
	pageID := r.URL.Query().Get("page_id")

	result, err := h.service.DsaSuggestions(r.Context(), rc.WithAdAccount(accountID), accountID, pageID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

package handlers

import (
	"context"
	"net/http"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services/gateway"
	"github.com/adplane/ads-control-plane/utils"
	"go.uber.org/zap"
)

// PreflightService is the slice of the gateway running validation-only
// checks for a planned mutation
type PreflightService interface {
	Preflight(ctx context.Context, rc models.RequestContext, input gateway.PreflightInput) (*gateway.PreflightResult, error)
}

// PreflightHandler handles POST /preflight
type PreflightHandler struct {
	service PreflightService
	logger  *zap.Logger
}

// NewPreflightHandler creates a new PreflightHandler
func NewPreflightHandler(service PreflightService, logger *zap.Logger) *PreflightHandler {
	return &PreflightHandler{service: service, logger: logger}
}

// HandlePreflight runs isolation, policy, and compliance checks for a
// planned mutation without performing the write. A 200 with warnings means
// the mutation would be accepted; the checks that would reject it surface
// as the same error payloads the real write would produce.
func (h *PreflightHandler) HandlePreflight(w http.ResponseWriter, r *http.Request) {
	rc, ok := requestContext(w, r)
	if !ok {
		return
	}

	var input gateway.PreflightInput
	if !decodeAndValidate(w, r, h.logger, &input) {
		return
	}

	result, err := h.service.Preflight(r.Context(), rc, input)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, result)
}

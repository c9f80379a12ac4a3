package handlers

import (
	"fmt"
	"net/http"

	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses in one place so
// handlers stay thin. The payload always carries the machine-readable code,
// and the code also appears verbatim inside the message.
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	code := services.GetErrorCode(err)
	details := services.GetErrorDetails(err)
	remediation := services.GetRemediation(err)

	status := http.StatusInternalServerError
	switch {
	case services.IsNotFoundError(err):
		status = http.StatusNotFound

	case services.IsValidationError(err):
		status = http.StatusBadRequest

	case services.IsUnauthorizedError(err):
		status = http.StatusUnauthorized

	// Cross-tenant access and platform permission denials are both 403:
	// the caller holds a valid token but may not touch the resource.
	case services.IsForbiddenError(err), services.IsIsolationError(err), services.IsPermissionError(err):
		status = http.StatusForbidden

	// Hard policy rules and missing operator configuration are 422: the
	// request was understood but cannot be performed as-is.
	case services.IsPolicyViolationError(err), services.IsComplianceError(err), services.IsPageResolutionError(err):
		status = http.StatusUnprocessableEntity

	case services.IsRateLimitError(err):
		status = http.StatusTooManyRequests

	case services.IsCooldownError(err):
		status = http.StatusTooManyRequests
		if secs, ok := details["retry_after_seconds"]; ok {
			w.Header().Set("Retry-After", fmt.Sprintf("%v", secs))
		}

	case services.IsConflictError(err):
		status = http.StatusConflict

	// The platform rejected or failed the proxied call
	case services.IsExternalError(err):
		status = http.StatusBadGateway

	// Credential configuration faults and anything internal are on us
	case services.IsCredentialError(err), services.IsInternalError(err):
		status = http.StatusInternalServerError
		logger.Error("internal error", zap.String("code", code), zap.Error(err))
	}

	if code == "" {
		code = services.CodeInternal
	}

	if status >= 500 && !services.IsCredentialError(err) && !services.IsInternalError(err) && !services.IsExternalError(err) {
		logger.Error("unmapped domain error", zap.String("code", code), zap.Error(err))
	}

	if writeErr := utils.WriteError(w, status, code, err.Error(), details, remediation); writeErr != nil {
		logger.Error("failed to write error response",
			zap.String("code", code),
			zap.Error(writeErr))
	}
}

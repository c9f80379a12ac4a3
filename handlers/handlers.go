package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/adplane/ads-control-plane/middleware"
	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services/gateway"
	"github.com/adplane/ads-control-plane/services/graph"
	"github.com/adplane/ads-control-plane/utils"
	"go.uber.org/zap"
)

// maxBodyBytes caps inbound payload size
const maxBodyBytes = 1 << 20

// requestContext pulls the caller's RequestContext out of the request. The
// bool is false (and a 401 has been written) when auth middleware did not
// run.
func requestContext(w http.ResponseWriter, r *http.Request) (models.RequestContext, bool) {
	rc, ok := middleware.GetRequestContext(r.Context())
	if !ok {
		_ = utils.WriteUnauthorized(w, "missing tenant context")
		return models.RequestContext{}, false
	}
	return rc, true
}

// decodeAndValidate decodes the JSON body into v and runs struct
// validation. Writes the 400 itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			_ = utils.WriteBadRequest(w, "request body is required", nil)
			return false
		}
		logger.Debug("undecodable request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, "invalid JSON body", map[string]interface{}{
			"decode_error": err.Error(),
		})
		return false
	}

	if err := utils.ValidateStruct(v); err != nil {
		details := map[string]interface{}{}
		for field, msg := range utils.GetValidationFields(err) {
			details[field] = msg
		}
		_ = utils.WriteBadRequest(w, "validation failed", details)
		return false
	}
	return true
}

// listParams reads the shared list query parameters (status filter, limit)
func listParams(w http.ResponseWriter, r *http.Request) (gateway.ListParams, bool) {
	var params gateway.ListParams

	filter, err := graph.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return params, false
	}
	params.StatusFilter = filter

	limit, ok := limitParam(w, r)
	if !ok {
		return params, false
	}
	params.Limit = limit

	return params, true
}

// insightsParams reads the insights query parameters (date preset, limit)
func insightsParams(w http.ResponseWriter, r *http.Request) (gateway.InsightsParams, bool) {
	var params gateway.InsightsParams

	params.DatePreset = models.DatePreset(r.URL.Query().Get("date_preset"))

	limit, ok := limitParam(w, r)
	if !ok {
		return params, false
	}
	params.Limit = limit

	return params, true
}

func limitParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > 500 {
		_ = utils.WriteBadRequest(w, "limit must be an integer between 1 and 500", nil)
		return 0, false
	}
	return limit, true
}

package gateway

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/compliance"
	"github.com/adplane/ads-control-plane/services/policy"
	"go.uber.org/zap"
)

// preflightOps maps each mutating operation to the resource kind its checks
// run against
var preflightOps = map[string]models.ResourceKind{
	"campaign.create":    models.ResourceKindCampaign,
	"campaign.update":    models.ResourceKindCampaign,
	"campaign.duplicate": models.ResourceKindCampaign,
	"adset.create":       models.ResourceKindAdSet,
	"adset.update":       models.ResourceKindAdSet,
	"adset.duplicate":    models.ResourceKindAdSet,
	"ad.create":          models.ResourceKindAd,
	"ad.update":          models.ResourceKindAd,
	"ad.duplicate":       models.ResourceKindAd,
}

// Preflight runs the isolation, policy and compliance checks of a planned
// mutation without performing the write. Nothing is recorded against the
// mutation window, so a preflight never consumes quota; a caller can probe a
// multi-step sequence before its first real write.
func (s *Service) Preflight(ctx context.Context, rc models.RequestContext, input PreflightInput) (*PreflightResult, error) {
	kind, ok := preflightOps[input.Operation]
	if !ok {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.CodeValidation,
			"unknown preflight operation", nil).
			WithDetail("operation", input.Operation)
	}

	rc = preflightContext(rc, input)

	if err := s.authorize(ctx, rc, kind, nil, input.Body); err != nil {
		return nil, err
	}

	mutation := policy.MutationInput{
		TenantID:  rc.TenantID,
		Operation: input.Operation,
		Kind:      kind,
		Budget: models.MutationBudget{
			DailyBudget:    int64FromBody(input.Body, "daily_budget"),
			LifetimeBudget: int64FromBody(input.Body, "lifetime_budget"),
		},
		Status:    models.ObjectStatus(stringFromBody(input.Body, "status")),
		Targeting: targetingFromBody(input.Body),
		DeepCopy:  boolFromBody(input.Body, "deep_copy"),
	}

	targeting := mutation.Targeting
	if targetID := preflightTarget(kind, input); targetID != "" && isUpdateOp(input.Operation) {
		current, err := s.preflightCurrent(ctx, rc, kind, targetID)
		if err != nil {
			return nil, err
		}
		if current != nil {
			mutation.CurrentBudget = current.Budget
			mutation.CurrentStatus = current.Status
			if targeting == nil {
				targeting = current.Targeting
			}
		}
	}

	warnings, err := s.evaluateMutation(ctx, rc, mutation)
	if err != nil {
		return nil, err
	}

	result := &PreflightResult{Operation: input.Operation, Warnings: warnings}

	if kind == models.ResourceKindAdSet && compliance.IsEUTargeted(targeting) {
		adAccountID := input.AdAccountID
		if adAccountID == "" {
			adAccountID = s.owningAccount(ctx, rc, kind, preflightTarget(kind, input))
		}
		disclosure, err := s.compliance.EnsureForAdAccount(ctx, rc, adAccountID)
		if err != nil {
			return nil, err
		}
		result.Disclosure = disclosure
	}

	s.logger.Debug("preflight passed",
		zap.String("tenant_id", rc.TenantID),
		zap.String("operation", input.Operation),
		zap.Int("warnings", len(result.Warnings)))

	return result, nil
}

// preflightContext folds the explicit target ids of the planned mutation
// into the request context so the isolation gate sees them
func preflightContext(rc models.RequestContext, input PreflightInput) models.RequestContext {
	if input.AdAccountID != "" {
		rc = rc.WithAdAccount(input.AdAccountID)
	}
	if input.CampaignID != "" {
		rc = rc.WithCampaign(input.CampaignID)
	}
	if input.AdSetID != "" {
		rc = rc.WithAdSet(input.AdSetID)
	}
	if input.AdID != "" {
		rc = rc.WithAd(input.AdID)
	}
	return rc
}

// preflightTarget picks the object the operation would modify
func preflightTarget(kind models.ResourceKind, input PreflightInput) string {
	switch kind {
	case models.ResourceKindCampaign:
		return input.CampaignID
	case models.ResourceKindAdSet:
		return input.AdSetID
	case models.ResourceKindAd:
		return input.AdID
	}
	return ""
}

func isUpdateOp(operation string) bool {
	switch operation {
	case "campaign.update", "adset.update", "ad.update":
		return true
	}
	return false
}

// preflightState is the slice of current object state the checks compare
// against
type preflightState struct {
	Budget    models.MutationBudget
	Status    models.ObjectStatus
	Targeting *models.TargetingSpec
}

// preflightCurrent reads the target object so update checks judge the
// planned change against its present budget and status. Reads do not count
// as writes, so this stays within the no-write guarantee.
func (s *Service) preflightCurrent(ctx context.Context, rc models.RequestContext, kind models.ResourceKind, targetID string) (*preflightState, error) {
	switch kind {
	case models.ResourceKindCampaign:
		current, err := s.fetchCampaign(ctx, rc, targetID, "id,status,daily_budget,lifetime_budget")
		if err != nil {
			return nil, err
		}
		return &preflightState{Budget: current.Budget(), Status: current.Status}, nil
	case models.ResourceKindAdSet:
		current, err := s.fetchAdSet(ctx, rc, targetID, "id,status,daily_budget,lifetime_budget,targeting")
		if err != nil {
			return nil, err
		}
		return &preflightState{Budget: current.Budget(), Status: current.Status, Targeting: current.Targeting}, nil
	case models.ResourceKindAd:
		current, err := s.fetchAd(ctx, rc, targetID, "id,status")
		if err != nil {
			return nil, err
		}
		return &preflightState{Status: current.Status}, nil
	}
	return nil, nil
}

// int64FromBody reads a budget bound from a raw payload. The platform's
// wire form quotes numbers, so strings parse too.
func int64FromBody(body map[string]interface{}, key string) *int64 {
	raw, ok := body[key]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		n := int64(v)
		return &n
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil
		}
		return &n
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return nil
		}
		return &n
	}
	return nil
}

func stringFromBody(body map[string]interface{}, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func boolFromBody(body map[string]interface{}, key string) bool {
	if v, ok := body[key].(bool); ok {
		return v
	}
	return false
}

// targetingFromBody decodes a raw targeting payload through a JSON
// round-trip, tolerating absence and malformed shapes
func targetingFromBody(body map[string]interface{}) *models.TargetingSpec {
	raw, ok := body["targeting"]
	if !ok {
		return nil
	}
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var spec models.TargetingSpec
	if err := json.Unmarshal(encoded, &spec); err != nil {
		return nil
	}
	return &spec
}

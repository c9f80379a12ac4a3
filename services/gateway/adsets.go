package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/policy"
	"go.uber.org/zap"
)

// ListAdSets lists the ad sets of an ad account, optionally filtered by
// effective status
func (s *Service) ListAdSets(ctx context.Context, rc models.RequestContext, adAccountID string, params ListParams) ([]models.AdSet, error) {
	rc = rc.WithAdAccount(adAccountID)
	q := listQuery(adsetFields, params)

	if err := s.authorize(ctx, rc, models.ResourceKindAdSet, q, nil); err != nil {
		return nil, err
	}

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID)+"/adsets", adAccountID, q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.AdSet `json:"data"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, services.WrapExternal("unreadable ad set list response", err)
	}
	return envelope.Data, nil
}

// GetAdSet reads a single ad set
func (s *Service) GetAdSet(ctx context.Context, rc models.RequestContext, adSetID string) (*models.AdSet, error) {
	rc = rc.WithAdSet(adSetID)
	if err := s.authorize(ctx, rc, models.ResourceKindAdSet, nil, nil); err != nil {
		return nil, err
	}
	return s.fetchAdSet(ctx, rc, adSetID, adsetFields)
}

// CreateAdSet creates an ad set on the ad account. EU-targeted creations
// are blocked until a disclosure exists; the resolved beneficiary/payor are
// injected into the outgoing write.
func (s *Service) CreateAdSet(ctx context.Context, rc models.RequestContext, adAccountID string, input CreateAdSetInput) (*AdSetResult, error) {
	rc = rc.WithAdAccount(adAccountID)
	body := input.body()

	if err := s.authorize(ctx, rc, models.ResourceKindAdSet, nil, body); err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:  rc.TenantID,
		Operation: "adset.create",
		Kind:      models.ResourceKindAdSet,
		Budget:    models.MutationBudget{DailyBudget: input.DailyBudget, LifetimeBudget: input.LifetimeBudget},
		Status:    input.Status,
		Targeting: input.Targeting,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.ensureDisclosure(ctx, rc, adAccountID, input.Targeting, body); err != nil {
		return nil, err
	}

	s.recordMutation(ctx, rc.TenantID)
	resp, err := s.protocol.Post(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID)+"/adsets", adAccountID, body)
	if err != nil {
		return nil, err
	}

	id, err := decodeCreated(resp, "ad set")
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionAdSetCreated, models.ResourceKindAdSet, id, map[string]interface{}{
		"name":        input.Name,
		"campaign_id": input.CampaignID,
	})
	s.logger.Info("ad set created",
		zap.String("tenant_id", rc.TenantID),
		zap.String("adset_id", id))

	adset := models.AdSet{
		ID:               id,
		Name:             input.Name,
		CampaignID:       input.CampaignID,
		Status:           input.Status,
		DailyBudget:      input.DailyBudget,
		LifetimeBudget:   input.LifetimeBudget,
		OptimizationGoal: input.OptimizationGoal,
		BillingEvent:     input.BillingEvent,
		Targeting:        input.Targeting,
		StartTime:        input.StartTime,
		EndTime:          input.EndTime,
	}
	if beneficiary, ok := body["dsa_beneficiary"].(string); ok {
		adset.DsaBeneficiary = beneficiary
	}
	if payor, ok := body["dsa_payor"].(string); ok {
		adset.DsaPayor = payor
	}

	return &AdSetResult{AdSet: adset, Warnings: warnings}, nil
}

// UpdateAdSet updates an ad set. The current state is fetched first so the
// policy engine can judge budget changes and so EU targeting on the stored
// spec still forces a disclosure even when the update leaves it untouched.
func (s *Service) UpdateAdSet(ctx context.Context, rc models.RequestContext, adSetID string, input UpdateAdSetInput) (*AdSetResult, error) {
	if input.isEmpty() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.CodeValidation,
			"ad set update carries no changes", nil)
	}

	rc = rc.WithAdSet(adSetID)
	body := input.body()

	if err := s.authorize(ctx, rc, models.ResourceKindAdSet, nil, body); err != nil {
		return nil, err
	}

	accountID := s.owningAccount(ctx, rc, models.ResourceKindAdSet, adSetID)
	current, err := s.fetchAdSet(ctx, rc.WithAdAccount(accountID), adSetID, "id,status,daily_budget,lifetime_budget,targeting")
	if err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:      rc.TenantID,
		Operation:     "adset.update",
		Kind:          models.ResourceKindAdSet,
		Budget:        models.MutationBudget{DailyBudget: input.DailyBudget, LifetimeBudget: input.LifetimeBudget},
		CurrentBudget: current.Budget(),
		Status:        input.Status,
		CurrentStatus: current.Status,
		Targeting:     input.Targeting,
	})
	if err != nil {
		return nil, err
	}

	targeting := input.Targeting
	if targeting == nil {
		targeting = current.Targeting
	}
	if _, err := s.ensureDisclosure(ctx, rc, accountID, targeting, body); err != nil {
		return nil, err
	}

	s.recordMutation(ctx, rc.TenantID)
	if _, err := s.protocol.Post(ctx, rc.TenantID, "/"+adSetID, accountID, body); err != nil {
		return nil, err
	}

	updated, err := s.fetchAdSet(ctx, rc.WithAdAccount(accountID), adSetID, adsetFields)
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionAdSetUpdated, models.ResourceKindAdSet, adSetID, body)

	return &AdSetResult{AdSet: *updated, Warnings: warnings}, nil
}

// DuplicateAdSet copies an ad set through the platform's copy edge
func (s *Service) DuplicateAdSet(ctx context.Context, rc models.RequestContext, adSetID string, input DuplicateInput) (*DuplicateResult, error) {
	rc = rc.WithAdSet(adSetID)

	if err := s.authorize(ctx, rc, models.ResourceKindAdSet, nil, nil); err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:  rc.TenantID,
		Operation: "adset.duplicate",
		Kind:      models.ResourceKindAdSet,
		DeepCopy:  input.DeepCopy,
	})
	if err != nil {
		return nil, err
	}

	accountID := s.owningAccount(ctx, rc, models.ResourceKindAdSet, adSetID)

	s.recordMutation(ctx, rc.TenantID)
	resp, err := s.protocol.Post(ctx, rc.TenantID, "/"+adSetID+"/copies", accountID, input.body())
	if err != nil {
		return nil, err
	}

	copiedID, err := decodeCopied(resp, "ad set")
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionAdSetDuplicated, models.ResourceKindAdSet, copiedID, map[string]interface{}{
		"source_adset_id": adSetID,
		"deep_copy":       input.DeepCopy,
	})

	return &DuplicateResult{CopiedID: copiedID, Warnings: warnings}, nil
}

func (s *Service) fetchAdSet(ctx context.Context, rc models.RequestContext, adSetID, fields string) (*models.AdSet, error) {
	q := url.Values{}
	q.Set("fields", fields)

	accountID := s.owningAccount(ctx, rc, models.ResourceKindAdSet, adSetID)
	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+adSetID, accountID, q)
	if err != nil {
		return nil, err
	}

	var adset models.AdSet
	if err := resp.Decode(&adset); err != nil {
		return nil, services.WrapExternal(fmt.Sprintf("unreadable ad set %s response", adSetID), err)
	}
	return &adset, nil
}

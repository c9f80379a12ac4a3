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

// ListCampaigns lists the campaigns of an ad account, optionally filtered
// by effective status
func (s *Service) ListCampaigns(ctx context.Context, rc models.RequestContext, adAccountID string, params ListParams) ([]models.Campaign, error) {
	rc = rc.WithAdAccount(adAccountID)
	q := listQuery(campaignFields, params)

	if err := s.authorize(ctx, rc, models.ResourceKindCampaign, q, nil); err != nil {
		return nil, err
	}

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID)+"/campaigns", adAccountID, q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.Campaign `json:"data"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, services.WrapExternal("unreadable campaign list response", err)
	}
	return envelope.Data, nil
}

// GetCampaign reads a single campaign
func (s *Service) GetCampaign(ctx context.Context, rc models.RequestContext, campaignID string) (*models.Campaign, error) {
	rc = rc.WithCampaign(campaignID)
	if err := s.authorize(ctx, rc, models.ResourceKindCampaign, nil, nil); err != nil {
		return nil, err
	}
	return s.fetchCampaign(ctx, rc, campaignID, campaignFields)
}

// CreateCampaign creates a campaign on the ad account
func (s *Service) CreateCampaign(ctx context.Context, rc models.RequestContext, adAccountID string, input CreateCampaignInput) (*CampaignResult, error) {
	rc = rc.WithAdAccount(adAccountID)
	body := input.body()

	if err := s.authorize(ctx, rc, models.ResourceKindCampaign, nil, body); err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:  rc.TenantID,
		Operation: "campaign.create",
		Kind:      models.ResourceKindCampaign,
		Budget:    models.MutationBudget{DailyBudget: input.DailyBudget, LifetimeBudget: input.LifetimeBudget},
		Status:    input.Status,
	})
	if err != nil {
		return nil, err
	}

	s.recordMutation(ctx, rc.TenantID)
	resp, err := s.protocol.Post(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID)+"/campaigns", adAccountID, body)
	if err != nil {
		return nil, err
	}

	id, err := decodeCreated(resp, "campaign")
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionCampaignCreated, models.ResourceKindCampaign, id, map[string]interface{}{
		"name":      input.Name,
		"objective": input.Objective,
	})
	s.logger.Info("campaign created",
		zap.String("tenant_id", rc.TenantID),
		zap.String("campaign_id", id))

	return &CampaignResult{
		Campaign: models.Campaign{
			ID:                  id,
			Name:                input.Name,
			Status:              input.Status,
			Objective:           input.Objective,
			DailyBudget:         input.DailyBudget,
			LifetimeBudget:      input.LifetimeBudget,
			SpecialAdCategories: input.SpecialAdCategories,
		},
		Warnings: warnings,
	}, nil
}

// UpdateCampaign updates a campaign. The current budget and status are
// fetched first so the policy engine can judge the change.
func (s *Service) UpdateCampaign(ctx context.Context, rc models.RequestContext, campaignID string, input UpdateCampaignInput) (*CampaignResult, error) {
	if input.isEmpty() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.CodeValidation,
			"campaign update carries no changes", nil)
	}

	rc = rc.WithCampaign(campaignID)
	body := input.body()

	if err := s.authorize(ctx, rc, models.ResourceKindCampaign, nil, body); err != nil {
		return nil, err
	}

	accountID := s.owningAccount(ctx, rc, models.ResourceKindCampaign, campaignID)
	current, err := s.fetchCampaign(ctx, rc.WithAdAccount(accountID), campaignID, "id,status,daily_budget,lifetime_budget")
	if err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:      rc.TenantID,
		Operation:     "campaign.update",
		Kind:          models.ResourceKindCampaign,
		Budget:        models.MutationBudget{DailyBudget: input.DailyBudget, LifetimeBudget: input.LifetimeBudget},
		CurrentBudget: current.Budget(),
		Status:        input.Status,
		CurrentStatus: current.Status,
	})
	if err != nil {
		return nil, err
	}

	s.recordMutation(ctx, rc.TenantID)
	if _, err := s.protocol.Post(ctx, rc.TenantID, "/"+campaignID, accountID, body); err != nil {
		return nil, err
	}

	updated, err := s.fetchCampaign(ctx, rc.WithAdAccount(accountID), campaignID, campaignFields)
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionCampaignUpdated, models.ResourceKindCampaign, campaignID, body)

	return &CampaignResult{Campaign: *updated, Warnings: warnings}, nil
}

// DuplicateCampaign copies a campaign through the platform's copy edge
func (s *Service) DuplicateCampaign(ctx context.Context, rc models.RequestContext, campaignID string, input DuplicateInput) (*DuplicateResult, error) {
	rc = rc.WithCampaign(campaignID)

	if err := s.authorize(ctx, rc, models.ResourceKindCampaign, nil, nil); err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:  rc.TenantID,
		Operation: "campaign.duplicate",
		Kind:      models.ResourceKindCampaign,
		DeepCopy:  input.DeepCopy,
	})
	if err != nil {
		return nil, err
	}

	accountID := s.owningAccount(ctx, rc, models.ResourceKindCampaign, campaignID)

	s.recordMutation(ctx, rc.TenantID)
	resp, err := s.protocol.Post(ctx, rc.TenantID, "/"+campaignID+"/copies", accountID, input.body())
	if err != nil {
		return nil, err
	}

	copiedID, err := decodeCopied(resp, "campaign")
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionCampaignDuplicated, models.ResourceKindCampaign, copiedID, map[string]interface{}{
		"source_campaign_id": campaignID,
		"deep_copy":          input.DeepCopy,
	})

	return &DuplicateResult{CopiedID: copiedID, Warnings: warnings}, nil
}

// fetchCampaign reads a campaign directly from the platform. Authorization
// has already run when this is called.
func (s *Service) fetchCampaign(ctx context.Context, rc models.RequestContext, campaignID, fields string) (*models.Campaign, error) {
	q := url.Values{}
	q.Set("fields", fields)

	accountID := s.owningAccount(ctx, rc, models.ResourceKindCampaign, campaignID)
	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+campaignID, accountID, q)
	if err != nil {
		return nil, err
	}

	var campaign models.Campaign
	if err := resp.Decode(&campaign); err != nil {
		return nil, services.WrapExternal(fmt.Sprintf("unreadable campaign %s response", campaignID), err)
	}
	return &campaign, nil
}

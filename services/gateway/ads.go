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

// ListAds lists the ads of an ad account, optionally filtered by effective
// status
func (s *Service) ListAds(ctx context.Context, rc models.RequestContext, adAccountID string, params ListParams) ([]models.Ad, error) {
	rc = rc.WithAdAccount(adAccountID)
	q := listQuery(adFields, params)

	if err := s.authorize(ctx, rc, models.ResourceKindAd, q, nil); err != nil {
		return nil, err
	}

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID)+"/ads", adAccountID, q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.Ad `json:"data"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, services.WrapExternal("unreadable ad list response", err)
	}
	return envelope.Data, nil
}

// GetAd reads a single ad
func (s *Service) GetAd(ctx context.Context, rc models.RequestContext, adID string) (*models.Ad, error) {
	rc = rc.WithAd(adID)
	if err := s.authorize(ctx, rc, models.ResourceKindAd, nil, nil); err != nil {
		return nil, err
	}
	return s.fetchAd(ctx, rc, adID, adFields)
}

// CreateAd creates an ad under an ad set. The creative's page identity is
// resolved before the write goes out: an explicit page wins, then the
// tenant's persisted default, then its sole confirmed page.
func (s *Service) CreateAd(ctx context.Context, rc models.RequestContext, adAccountID string, input CreateAdInput) (*AdResult, error) {
	rc = rc.WithAdAccount(adAccountID)
	body := input.body()

	if err := s.authorize(ctx, rc, models.ResourceKindAd, nil, body); err != nil {
		return nil, err
	}

	explicitPageID := ""
	if input.Creative != nil {
		explicitPageID = input.Creative.PageID
	}
	pageID, err := s.pages.Resolve(ctx, rc, adAccountID, explicitPageID)
	if err != nil {
		return nil, err
	}
	injectCreativePage(body, pageID)

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:  rc.TenantID,
		Operation: "ad.create",
		Kind:      models.ResourceKindAd,
		Status:    input.Status,
	})
	if err != nil {
		return nil, err
	}

	s.recordMutation(ctx, rc.TenantID)
	resp, err := s.protocol.Post(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID)+"/ads", adAccountID, body)
	if err != nil {
		return nil, err
	}

	id, err := decodeCreated(resp, "ad")
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionAdCreated, models.ResourceKindAd, id, map[string]interface{}{
		"name":     input.Name,
		"adset_id": input.AdSetID,
		"page_id":  pageID,
	})
	s.logger.Info("ad created",
		zap.String("tenant_id", rc.TenantID),
		zap.String("ad_id", id),
		zap.String("page_id", pageID))

	ad := models.Ad{
		ID:      id,
		Name:    input.Name,
		AdSetID: input.AdSetID,
		Status:  input.Status,
	}
	if input.Creative != nil {
		creative := *input.Creative
		creative.PageID = pageID
		ad.Creative = &creative
	} else {
		ad.Creative = &models.AdCreative{PageID: pageID}
	}

	return &AdResult{Ad: ad, Warnings: warnings}, nil
}

// UpdateAd updates an ad. A creative carrying a new page identity goes
// through the same resolution as a create.
func (s *Service) UpdateAd(ctx context.Context, rc models.RequestContext, adID string, input UpdateAdInput) (*AdResult, error) {
	if input.isEmpty() {
		return nil, services.NewDomainError(services.ErrorTypeValidation, services.CodeValidation,
			"ad update carries no changes", nil)
	}

	rc = rc.WithAd(adID)
	body := input.body()

	if err := s.authorize(ctx, rc, models.ResourceKindAd, nil, body); err != nil {
		return nil, err
	}

	accountID := s.owningAccount(ctx, rc, models.ResourceKindAd, adID)

	if input.Creative != nil {
		pageID, err := s.pages.Resolve(ctx, rc, accountID, input.Creative.PageID)
		if err != nil {
			return nil, err
		}
		injectCreativePage(body, pageID)
	}

	current, err := s.fetchAd(ctx, rc.WithAdAccount(accountID), adID, "id,status")
	if err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:      rc.TenantID,
		Operation:     "ad.update",
		Kind:          models.ResourceKindAd,
		Status:        input.Status,
		CurrentStatus: current.Status,
	})
	if err != nil {
		return nil, err
	}

	s.recordMutation(ctx, rc.TenantID)
	if _, err := s.protocol.Post(ctx, rc.TenantID, "/"+adID, accountID, body); err != nil {
		return nil, err
	}

	updated, err := s.fetchAd(ctx, rc.WithAdAccount(accountID), adID, adFields)
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionAdUpdated, models.ResourceKindAd, adID, body)

	return &AdResult{Ad: *updated, Warnings: warnings}, nil
}

// DuplicateAd copies an ad through the platform's copy edge
func (s *Service) DuplicateAd(ctx context.Context, rc models.RequestContext, adID string, input DuplicateInput) (*DuplicateResult, error) {
	rc = rc.WithAd(adID)

	if err := s.authorize(ctx, rc, models.ResourceKindAd, nil, nil); err != nil {
		return nil, err
	}

	warnings, err := s.evaluateMutation(ctx, rc, policy.MutationInput{
		TenantID:  rc.TenantID,
		Operation: "ad.duplicate",
		Kind:      models.ResourceKindAd,
		DeepCopy:  input.DeepCopy,
	})
	if err != nil {
		return nil, err
	}

	accountID := s.owningAccount(ctx, rc, models.ResourceKindAd, adID)

	s.recordMutation(ctx, rc.TenantID)
	resp, err := s.protocol.Post(ctx, rc.TenantID, "/"+adID+"/copies", accountID, input.body())
	if err != nil {
		return nil, err
	}

	copiedID, err := decodeCopied(resp, "ad")
	if err != nil {
		return nil, err
	}

	s.auditMutation(ctx, rc, models.AuditActionAdDuplicated, models.ResourceKindAd, copiedID, map[string]interface{}{
		"source_ad_id": adID,
		"deep_copy":    input.DeepCopy,
	})

	return &DuplicateResult{CopiedID: copiedID, Warnings: warnings}, nil
}

func (s *Service) fetchAd(ctx context.Context, rc models.RequestContext, adID, fields string) (*models.Ad, error) {
	q := url.Values{}
	q.Set("fields", fields)

	accountID := s.owningAccount(ctx, rc, models.ResourceKindAd, adID)
	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+adID, accountID, q)
	if err != nil {
		return nil, err
	}

	var ad models.Ad
	if err := resp.Decode(&ad); err != nil {
		return nil, services.WrapExternal(fmt.Sprintf("unreadable ad %s response", adID), err)
	}
	return &ad, nil
}

// injectCreativePage writes the resolved page identity into the outgoing
// creative body, creating the creative map when the caller sent none
func injectCreativePage(body map[string]interface{}, pageID string) {
	if pageID == "" {
		return
	}
	creative, ok := body["creative"].(map[string]interface{})
	if !ok {
		creative = map[string]interface{}{}
		body["creative"] = creative
	}
	creative["page_id"] = pageID
}

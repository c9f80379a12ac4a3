package gateway

import (
	"context"
	"net/url"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"go.uber.org/zap"
)

// ListAccounts reads the credential's ad accounts from the platform and
// returns only those on the tenant's allow-list. Accounts the credential can
// see but the tenant does not own are filtered out, never an error.
func (s *Service) ListAccounts(ctx context.Context, rc models.RequestContext) ([]models.AdAccount, error) {
	if err := s.authorize(ctx, rc, models.ResourceKindAccount, nil, nil); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("fields", accountFields)

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/me/adaccounts", "", q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.AdAccount `json:"data"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, services.WrapExternal("unreadable ad account list response", err)
	}

	accounts := make([]models.AdAccount, 0, len(envelope.Data))
	for _, account := range envelope.Data {
		if s.registry.AccountAllowed(rc.TenantID, account.ID) {
			accounts = append(accounts, account)
		}
	}
	s.logger.Debug("ad accounts listed",
		zap.String("tenant_id", rc.TenantID),
		zap.Int("visible", len(envelope.Data)),
		zap.Int("allowed", len(accounts)))
	return accounts, nil
}

// ListPages reads the credential's pages from the platform and returns only
// those on the tenant's allow-list
func (s *Service) ListPages(ctx context.Context, rc models.RequestContext) ([]models.Page, error) {
	if err := s.authorize(ctx, rc, models.ResourceKindPage, nil, nil); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("fields", pageFields)

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/me/accounts", "", q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.Page `json:"data"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, services.WrapExternal("unreadable page list response", err)
	}

	pages := make([]models.Page, 0, len(envelope.Data))
	for _, page := range envelope.Data {
		if s.registry.PageAllowed(rc.TenantID, page.ID) {
			pages = append(pages, page)
		}
	}
	return pages, nil
}

// AccountInsights reads performance metrics for an ad account
func (s *Service) AccountInsights(ctx context.Context, rc models.RequestContext, adAccountID string, params InsightsParams) ([]models.InsightsRow, error) {
	rc = rc.WithAdAccount(adAccountID)
	return s.insightsFor(ctx, rc, models.ResourceKindAccount, models.AccountPathID(adAccountID), adAccountID, params)
}

// CampaignInsights reads performance metrics for a campaign
func (s *Service) CampaignInsights(ctx context.Context, rc models.RequestContext, campaignID string, params InsightsParams) ([]models.InsightsRow, error) {
	rc = rc.WithCampaign(campaignID)
	return s.insightsFor(ctx, rc, models.ResourceKindCampaign, campaignID, "", params)
}

// AdSetInsights reads performance metrics for an ad set
func (s *Service) AdSetInsights(ctx context.Context, rc models.RequestContext, adSetID string, params InsightsParams) ([]models.InsightsRow, error) {
	rc = rc.WithAdSet(adSetID)
	return s.insightsFor(ctx, rc, models.ResourceKindAdSet, adSetID, "", params)
}

// AdInsights reads performance metrics for an ad
func (s *Service) AdInsights(ctx context.Context, rc models.RequestContext, adID string, params InsightsParams) ([]models.InsightsRow, error) {
	rc = rc.WithAd(adID)
	return s.insightsFor(ctx, rc, models.ResourceKindAd, adID, "", params)
}

// insightsFor runs the shared insights read. pathID is the node the edge
// hangs off; accountID keys the per-account queue and is resolved from the
// gate's ownership cache when the caller did not supply one.
func (s *Service) insightsFor(ctx context.Context, rc models.RequestContext, kind models.ResourceKind, pathID, accountID string, params InsightsParams) ([]models.InsightsRow, error) {
	if err := s.authorize(ctx, rc, kind, nil, nil); err != nil {
		return nil, err
	}

	q, err := insightsQuery(params)
	if err != nil {
		return nil, err
	}

	if accountID == "" {
		accountID = s.owningAccount(ctx, rc, kind, pathID)
	}

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+pathID+"/insights", accountID, q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.InsightsRow `json:"data"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, services.WrapExternal("unreadable insights response", err)
	}
	return envelope.Data, nil
}

package gateway

import (
	"context"
	"net/url"
	"time"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/repositories"
	"github.com/adplane/ads-control-plane/services"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SyncAssets pulls the tenant-visible ad accounts and pages from the
// platform's business graph, intersects them with the tenant allow-list
// and replaces the persisted snapshot. Pages reached through verified
// ownership edges come back confirmed; pages from the best-effort personal
// edge stay unconfirmed until chosen once.
func (s *Service) SyncAssets(ctx context.Context, rc models.RequestContext) (*SyncResult, error) {
	if err := s.authorize(ctx, rc, models.ResourceKindAccount, nil, nil); err != nil {
		return nil, err
	}

	accounts, err := s.syncAccounts(ctx, rc.TenantID)
	if err != nil {
		return nil, err
	}

	verified := s.syncVerifiedPages(ctx, rc.TenantID)
	pages := s.appendPersonalPages(ctx, rc.TenantID, verified)

	confirmed := 0
	for _, page := range pages {
		if page.Confirmed {
			confirmed++
		}
	}

	err = s.txManager.InTransaction(ctx, func(ctx context.Context, tx repositories.Transaction) error {
		assets := s.assets.WithTx(tx)
		if err := assets.ReplaceForTenant(ctx, rc.TenantID, models.AssetKindAccount, accounts); err != nil {
			return err
		}
		return assets.ReplaceForTenant(ctx, rc.TenantID, models.AssetKindPage, pages)
	})
	if err != nil {
		return nil, services.WrapInternal("persisting synced assets", err)
	}

	s.emitAudit(func() error {
		return s.audit.LogAssetsSynced(rc, chimiddleware.GetReqID(ctx), len(accounts), len(pages))
	})
	s.logger.Info("assets synced",
		zap.String("tenant_id", rc.TenantID),
		zap.Int("accounts", len(accounts)),
		zap.Int("pages", len(pages)),
		zap.Int("confirmed_pages", confirmed))

	return &SyncResult{
		Accounts:       len(accounts),
		Pages:          len(pages),
		ConfirmedPages: confirmed,
		SyncedAt:       time.Now().UTC(),
	}, nil
}

// syncAccounts reads the credential's ad accounts. This is the primary
// source, so a failure here fails the sync.
func (s *Service) syncAccounts(ctx context.Context, tenantID string) ([]*models.Asset, error) {
	q := url.Values{}
	q.Set("fields", accountFields)

	resp, err := s.protocol.Get(ctx, tenantID, "/me/adaccounts", "", q)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data []models.AdAccount `json:"data"`
	}
	if err := resp.Decode(&envelope); err != nil {
		return nil, services.WrapExternal("unreadable ad account list response", err)
	}

	assets := make([]*models.Asset, 0, len(envelope.Data))
	for _, account := range envelope.Data {
		if !s.registry.AccountAllowed(tenantID, account.ID) {
			continue
		}
		assets = append(assets, models.NewAsset(tenantID, models.AssetKindAccount, account.ID, account.Name, true))
	}
	return assets, nil
}

// syncVerifiedPages walks the credential's businesses and their owned-pages
// edges. The walk is best-effort: a credential without business permissions
// still syncs, it just gets no verified pages.
func (s *Service) syncVerifiedPages(ctx context.Context, tenantID string) map[string]string {
	verified := map[string]string{}

	q := url.Values{}
	q.Set("fields", "id,name")
	resp, err := s.protocol.Get(ctx, tenantID, "/me/businesses", "", q)
	if err != nil {
		s.logger.Warn("business listing unavailable, skipping verified page walk",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return verified
	}

	var businesses struct {
		Data []models.Business `json:"data"`
	}
	if err := resp.Decode(&businesses); err != nil {
		s.logger.Warn("unreadable business list response",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return verified
	}

	pq := url.Values{}
	pq.Set("fields", pageFields)
	for _, business := range businesses.Data {
		resp, err := s.protocol.Get(ctx, tenantID, "/"+business.ID+"/owned_pages", "", pq)
		if err != nil {
			s.logger.Warn("owned pages unavailable for business",
				zap.String("tenant_id", tenantID),
				zap.String("business_id", business.ID),
				zap.Error(err))
			continue
		}

		var pages struct {
			Data []models.Page `json:"data"`
		}
		if err := resp.Decode(&pages); err != nil {
			s.logger.Warn("unreadable owned pages response",
				zap.String("tenant_id", tenantID),
				zap.String("business_id", business.ID),
				zap.Error(err))
			continue
		}
		for _, page := range pages.Data {
			if s.registry.PageAllowed(tenantID, page.ID) {
				verified[page.ID] = page.Name
			}
		}
	}
	return verified
}

// appendPersonalPages merges the best-effort personal-account page edge on
// top of the verified set and returns the full page snapshot
func (s *Service) appendPersonalPages(ctx context.Context, tenantID string, verified map[string]string) []*models.Asset {
	assets := make([]*models.Asset, 0, len(verified))
	for pageID, name := range verified {
		assets = append(assets, models.NewAsset(tenantID, models.AssetKindPage, pageID, name, true))
	}

	q := url.Values{}
	q.Set("fields", pageFields)
	resp, err := s.protocol.Get(ctx, tenantID, "/me/accounts", "", q)
	if err != nil {
		s.logger.Warn("personal page listing unavailable",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return assets
	}

	var pages struct {
		Data []models.Page `json:"data"`
	}
	if err := resp.Decode(&pages); err != nil {
		s.logger.Warn("unreadable personal page response",
			zap.String("tenant_id", tenantID),
			zap.Error(err))
		return assets
	}

	for _, page := range pages.Data {
		if !s.registry.PageAllowed(tenantID, page.ID) {
			continue
		}
		if _, ok := verified[page.ID]; ok {
			continue
		}
		assets = append(assets, models.NewAsset(tenantID, models.AssetKindPage, page.ID, page.Name, false))
	}
	return assets
}

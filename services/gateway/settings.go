package gateway

import (
	"context"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services/compliance"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// SetDefaultPage persists the tenant's default page choice for an ad
// account. Choosing a page also promotes it to confirmed.
func (s *Service) SetDefaultPage(ctx context.Context, rc models.RequestContext, adAccountID, pageID string) (*models.PageSelection, error) {
	rc = rc.WithAdAccount(adAccountID).WithPage(pageID)

	if err := s.authorize(ctx, rc, models.ResourceKindPage, nil, nil); err != nil {
		return nil, err
	}

	selection, err := s.pages.SetDefault(ctx, rc, adAccountID, pageID)
	if err != nil {
		return nil, err
	}

	s.emitAudit(func() error {
		return s.audit.LogDefaultPageSet(rc, chimiddleware.GetReqID(ctx), adAccountID, pageID)
	})
	s.logger.Info("default page set",
		zap.String("tenant_id", rc.TenantID),
		zap.String("ad_account_id", adAccountID),
		zap.String("page_id", pageID))

	return selection, nil
}

// GetDsa reads the persisted disclosure settings for an ad account,
// (nil on absence, not an error)
func (s *Service) GetDsa(ctx context.Context, rc models.RequestContext, adAccountID string) (*models.DsaSettings, error) {
	rc = rc.WithAdAccount(adAccountID)
	if err := s.authorize(ctx, rc, models.ResourceKindAccount, nil, nil); err != nil {
		return nil, err
	}
	return s.compliance.GetForAdAccount(ctx, rc, adAccountID)
}

// SetDsa stores operator-supplied disclosure values with MANUAL provenance
func (s *Service) SetDsa(ctx context.Context, rc models.RequestContext, adAccountID, beneficiary, payor string) (*models.DsaSettings, error) {
	rc = rc.WithAdAccount(adAccountID)

	if err := s.authorize(ctx, rc, models.ResourceKindAccount, nil, nil); err != nil {
		return nil, err
	}

	settings, err := s.compliance.SetForAdAccount(ctx, rc, adAccountID, beneficiary, payor)
	if err != nil {
		return nil, err
	}

	s.emitAudit(func() error {
		return s.audit.LogDsaUpdated(rc, chimiddleware.GetReqID(ctx), adAccountID, settings.Source)
	})
	s.logger.Info("dsa settings updated",
		zap.String("tenant_id", rc.TenantID),
		zap.String("ad_account_id", adAccountID),
		zap.String("source", string(settings.Source)))

	return settings, nil
}

// DsaSuggestions derives advisory beneficiary/payor candidates from platform
// metadata. Nothing is persisted.
func (s *Service) DsaSuggestions(ctx context.Context, rc models.RequestContext, adAccountID, pageID string) (*compliance.AutofillResult, error) {
	rc = rc.WithAdAccount(adAccountID)
	if pageID != "" {
		rc = rc.WithPage(pageID)
	}

	if err := s.authorize(ctx, rc, models.ResourceKindAccount, nil, nil); err != nil {
		return nil, err
	}

	return s.compliance.AutofillSuggestions(ctx, rc, compliance.AutofillInput{
		AdAccountID: adAccountID,
		PageID:      pageID,
	})
}

package pages

import (
	"context"
	"fmt"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/registry"
	"go.uber.org/zap"
)

// SelectionStore persists the default page choice per (tenant, ad account).
// Get returns (nil, nil) when no choice has been made.
type SelectionStore interface {
	GetPageSelection(ctx context.Context, tenantID, adAccountID string) (*models.PageSelection, error)
	PutPageSelection(ctx context.Context, selection *models.PageSelection) error
}

// PageDirectory exposes the tenant's synced page inventory. ConfirmPage
// marks a page as deliberately chosen, inserting the row if sync has not
// seen the page yet.
type PageDirectory interface {
	TenantPages(ctx context.Context, tenantID string) ([]models.PageInfo, error)
	ConfirmPage(ctx context.Context, tenantID, pageID string) error
}

// Service resolves which page identity an ad should run under when the
// caller did not name one.
type Service struct {
	registry  *registry.Service
	selection SelectionStore
	directory PageDirectory
	logger    *zap.Logger
}

// NewService creates a new page resolution service
func NewService(reg *registry.Service, selection SelectionStore, directory PageDirectory, logger *zap.Logger) *Service {
	return &Service{
		registry:  reg,
		selection: selection,
		directory: directory,
		logger:    logger,
	}
}

// Resolve picks the page for a write. Precedence: the explicit id, the
// persisted default, then the tenant's sole confirmed page. Using a page
// explicitly promotes it to confirmed.
func (s *Service) Resolve(ctx context.Context, rc models.RequestContext, adAccountID, explicitPageID string) (string, error) {
	if explicitPageID != "" {
		if !s.registry.PageAllowed(rc.TenantID, explicitPageID) {
			return "", services.NewDomainError(
				services.ErrorTypeIsolation,
				services.CodeTenantIsolation,
				fmt.Sprintf("page %s does not belong to tenant %q", explicitPageID, rc.TenantID),
				nil,
			).WithDetail("resource_kind", string(models.ResourceKindPage)).
				WithDetail("resource_id", explicitPageID)
		}
		if err := s.directory.ConfirmPage(ctx, rc.TenantID, explicitPageID); err != nil {
			s.logger.Warn("Failed to promote explicitly chosen page",
				zap.String("tenant_id", rc.TenantID),
				zap.String("page_id", explicitPageID),
				zap.Error(err))
		}
		return explicitPageID, nil
	}

	selection, err := s.selection.GetPageSelection(ctx, rc.TenantID, adAccountID)
	if err != nil {
		return "", services.WrapInternal("failed to load default page selection", err)
	}
	if selection != nil {
		if s.registry.PageAllowed(rc.TenantID, selection.PageID) {
			return selection.PageID, nil
		}
		s.logger.Warn("Persisted default page is no longer allowed, falling through",
			zap.String("tenant_id", rc.TenantID),
			zap.String("page_id", selection.PageID))
	}

	pageID, err := s.soleConfirmedPage(ctx, rc.TenantID)
	if err != nil {
		return "", err
	}
	if pageID != "" {
		return pageID, nil
	}

	return "", services.NewDomainError(
		services.ErrorTypePageResolution,
		services.CodeDefaultPageRequired,
		fmt.Sprintf("no page identity could be resolved for ad account %s", adAccountID),
		nil,
	).WithDetail("ad_account_id", models.NormalizeAccountID(adAccountID)).
		WithRemediation(
			"Choose a default page with PUT /accounts/{accountID}/default_page.",
			"Or pass page_id explicitly on the request.",
		)
}

// SetDefault persists an explicit default page choice and promotes the page
// to confirmed.
func (s *Service) SetDefault(ctx context.Context, rc models.RequestContext, adAccountID, pageID string) (*models.PageSelection, error) {
	if pageID == "" {
		return nil, services.NewDomainError(
			services.ErrorTypeValidation,
			services.CodeValidation,
			"page_id is required",
			nil,
		)
	}
	if !s.registry.PageAllowed(rc.TenantID, pageID) {
		return nil, services.NewDomainError(
			services.ErrorTypeIsolation,
			services.CodeTenantIsolation,
			fmt.Sprintf("page %s does not belong to tenant %q", pageID, rc.TenantID),
			nil,
		).WithDetail("resource_kind", string(models.ResourceKindPage)).
			WithDetail("resource_id", pageID)
	}

	selection := models.NewPageSelection(rc.TenantID, adAccountID, pageID)
	if err := s.selection.PutPageSelection(ctx, selection); err != nil {
		return nil, services.WrapInternal("failed to persist default page selection", err)
	}
	if err := s.directory.ConfirmPage(ctx, rc.TenantID, pageID); err != nil {
		s.logger.Warn("Failed to promote chosen default page",
			zap.String("tenant_id", rc.TenantID),
			zap.String("page_id", pageID),
			zap.Error(err))
	}

	s.logger.Info("Default page set",
		zap.String("tenant_id", rc.TenantID),
		zap.String("ad_account_id", adAccountID),
		zap.String("page_id", pageID))

	return selection, nil
}

// soleConfirmedPage returns the tenant's only confirmed page, or "" when
// zero or several exist. Unconfirmed pages never qualify: they came from
// best-effort discovery and have not been chosen by anyone.
func (s *Service) soleConfirmedPage(ctx context.Context, tenantID string) (string, error) {
	inventory, err := s.directory.TenantPages(ctx, tenantID)
	if err != nil {
		return "", services.WrapInternal("failed to load tenant pages", err)
	}

	sole := ""
	for _, page := range inventory {
		if !page.Confirmed || !s.registry.PageAllowed(tenantID, page.ID) {
			continue
		}
		if sole != "" {
			return "", nil
		}
		sole = page.ID
	}
	return sole, nil
}

package registry

import (
	"context"
	"fmt"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"go.uber.org/zap"
)

// Service answers tenant membership questions from the tenants file:
// which ad accounts and pages a tenant may touch, and the reverse, which
// tenant owns a given asset. Indices are built once at construction so
// every lookup is O(1) and allocation-free on the hot path.
type Service struct {
	tenants  map[string]models.TenantConfig
	accounts map[string]string // bare account id -> tenant id
	pages    map[string]string // page id -> tenant id
	logger   *zap.Logger
}

// NewService builds the registry from the loaded tenant configs. An ad
// account or page claimed by two tenants is a configuration error: the
// reverse lookup must be unambiguous.
func NewService(tenants []models.TenantConfig, logger *zap.Logger) (*Service, error) {
	s := &Service{
		tenants:  make(map[string]models.TenantConfig, len(tenants)),
		accounts: make(map[string]string),
		pages:    make(map[string]string),
		logger:   logger,
	}

	for _, tenant := range tenants {
		s.tenants[tenant.TenantID] = tenant

		for _, accountID := range tenant.AllowedAdAccountIDs {
			bare := models.NormalizeAccountID(accountID)
			if owner, taken := s.accounts[bare]; taken && owner != tenant.TenantID {
				return nil, fmt.Errorf("ad account %s is claimed by both tenant %q and tenant %q", bare, owner, tenant.TenantID)
			}
			s.accounts[bare] = tenant.TenantID
		}

		for _, pageID := range tenant.AllowedPageIDs {
			if owner, taken := s.pages[pageID]; taken && owner != tenant.TenantID {
				return nil, fmt.Errorf("page %s is claimed by both tenant %q and tenant %q", pageID, owner, tenant.TenantID)
			}
			s.pages[pageID] = tenant.TenantID
		}
	}

	logger.Info("tenant registry built",
		zap.Int("tenants", len(s.tenants)),
		zap.Int("ad_accounts", len(s.accounts)),
		zap.Int("pages", len(s.pages)))

	return s, nil
}

// Tenant returns the config for a tenant id
func (s *Service) Tenant(tenantID string) (models.TenantConfig, error) {
	tenant, ok := s.tenants[tenantID]
	if !ok {
		return models.TenantConfig{}, services.ErrTenantNotFound
	}
	return tenant, nil
}

// DisplayName returns the tenant's configured display name
func (s *Service) DisplayName(tenantID string) (string, error) {
	tenant, err := s.Tenant(tenantID)
	if err != nil {
		return "", err
	}
	return tenant.DisplayName, nil
}

// CredentialRef returns the tenant's shared-credential reference, empty
// when the tenant has none. Satisfies credentials.Directory.
func (s *Service) CredentialRef(_ context.Context, tenantID string) (string, error) {
	tenant, err := s.Tenant(tenantID)
	if err != nil {
		return "", err
	}
	return tenant.CredentialRef, nil
}

// AccountAllowed reports whether the tenant's allow-list contains the ad
// account. Accepts both bare and act_-prefixed ids.
func (s *Service) AccountAllowed(tenantID, accountID string) bool {
	return s.accounts[models.NormalizeAccountID(accountID)] == tenantID
}

// PageAllowed reports whether the tenant's allow-list contains the page
func (s *Service) PageAllowed(tenantID, pageID string) bool {
	return s.pages[pageID] == tenantID
}

// TenantForAccount resolves which tenant owns an ad account
func (s *Service) TenantForAccount(accountID string) (string, bool) {
	tenantID, ok := s.accounts[models.NormalizeAccountID(accountID)]
	return tenantID, ok
}

// TenantForPage resolves which tenant owns a page
func (s *Service) TenantForPage(pageID string) (string, bool) {
	tenantID, ok := s.pages[pageID]
	return tenantID, ok
}

// AllowedAccounts returns the tenant's ad account allow-list as bare ids
func (s *Service) AllowedAccounts(tenantID string) []string {
	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(tenant.AllowedAdAccountIDs))
	for _, accountID := range tenant.AllowedAdAccountIDs {
		out = append(out, models.NormalizeAccountID(accountID))
	}
	return out
}

// AllowedPages returns the tenant's page allow-list
func (s *Service) AllowedPages(tenantID string) []string {
	tenant, ok := s.tenants[tenantID]
	if !ok {
		return nil
	}
	out := make([]string, len(tenant.AllowedPageIDs))
	copy(out, tenant.AllowedPageIDs)
	return out
}

// TenantIDs returns every registered tenant id
func (s *Service) TenantIDs() []string {
	out := make([]string, 0, len(s.tenants))
	for tenantID := range s.tenants {
		out = append(out, tenantID)
	}
	return out
}

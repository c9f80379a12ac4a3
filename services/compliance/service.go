package compliance

import (
	"context"
	"fmt"
	"net/url"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services"
	"github.com/adplane/ads-control-plane/services/graph"
	"github.com/adplane/ads-control-plane/services/registry"
	"go.uber.org/zap"
)

// Remediation returned with every COMPLIANCE_REQUIRED error. The order is
// fixed; callers render the steps verbatim.
var remediationSteps = []string{
	"Set beneficiary and payor explicitly via PUT /accounts/{accountID}/dsa.",
	"Or configure a beneficiary/payor recommendation for the ad account on the platform.",
	"Or give the tenant a display name to be used as the disclosure fallback.",
}

// SettingsStore persists disclosure settings per (tenant, ad account).
// Get returns (nil, nil) when no row exists.
type SettingsStore interface {
	GetDsaSettings(ctx context.Context, tenantID, adAccountID string) (*models.DsaSettings, error)
	PutDsaSettings(ctx context.Context, settings *models.DsaSettings) error
}

// MetadataClient is the slice of the protocol client the compliance service
// uses for recommendation and metadata reads.
type MetadataClient interface {
	Get(ctx context.Context, tenantID, path, accountID string, query url.Values) (*graph.Response, error)
}

// Service ensures EU-targeted writes carry the mandatory beneficiary/payor
// disclosure and derives advisory autofill suggestions for operators.
type Service struct {
	registry *registry.Service
	store    SettingsStore
	protocol MetadataClient
	logger   *zap.Logger
}

// NewService creates a new compliance service
func NewService(reg *registry.Service, store SettingsStore, protocol MetadataClient, logger *zap.Logger) *Service {
	return &Service{
		registry: reg,
		store:    store,
		protocol: protocol,
		logger:   logger,
	}
}

// EnsureForAdAccount returns the disclosure settings an EU-targeted write
// must carry, resolving them in precedence order and persisting whatever
// source won. Persisted settings are sticky: once a row exists it is
// returned as-is and no lower-precedence source is consulted again.
func (s *Service) EnsureForAdAccount(ctx context.Context, rc models.RequestContext, adAccountID string) (*models.DsaSettings, error) {
	existing, err := s.store.GetDsaSettings(ctx, rc.TenantID, adAccountID)
	if err != nil {
		return nil, services.WrapInternal("failed to load disclosure settings", err)
	}
	if existing != nil {
		return existing, nil
	}

	if settings := s.recommendationSettings(ctx, rc, adAccountID); settings != nil {
		if err := s.store.PutDsaSettings(ctx, settings); err != nil {
			return nil, services.WrapInternal("failed to persist disclosure settings", err)
		}
		s.logger.Info("Disclosure settings adopted from platform recommendation",
			zap.String("tenant_id", rc.TenantID),
			zap.String("ad_account_id", adAccountID))
		return settings, nil
	}

	displayName, err := s.registry.DisplayName(rc.TenantID)
	if err != nil {
		return nil, err
	}
	if displayName != "" {
		settings := models.NewDsaSettings(rc.TenantID, adAccountID, displayName, displayName, models.DsaSourceManual)
		if err := s.store.PutDsaSettings(ctx, settings); err != nil {
			return nil, services.WrapInternal("failed to persist disclosure settings", err)
		}
		s.logger.Info("Disclosure settings fell back to tenant display name",
			zap.String("tenant_id", rc.TenantID),
			zap.String("ad_account_id", adAccountID))
		return settings, nil
	}

	return nil, services.NewDomainError(
		services.ErrorTypeCompliance,
		services.CodeComplianceRequired,
		fmt.Sprintf("ad account %s has no beneficiary/payor disclosure configured for EU-targeted delivery", adAccountID),
		nil,
	).WithDetail("ad_account_id", models.NormalizeAccountID(adAccountID)).
		WithRemediation(remediationSteps...)
}

// GetForAdAccount returns the persisted disclosure settings, or a not-found
// error when none are configured yet.
func (s *Service) GetForAdAccount(ctx context.Context, rc models.RequestContext, adAccountID string) (*models.DsaSettings, error) {
	settings, err := s.store.GetDsaSettings(ctx, rc.TenantID, adAccountID)
	if err != nil {
		return nil, services.WrapInternal("failed to load disclosure settings", err)
	}
	if settings == nil {
		return nil, services.NewDomainError(
			services.ErrorTypeNotFound,
			services.CodeNotFound,
			fmt.Sprintf("no disclosure settings configured for ad account %s", adAccountID),
			nil,
		).WithDetail("ad_account_id", models.NormalizeAccountID(adAccountID))
	}
	return settings, nil
}

// SetForAdAccount persists an explicit operator choice with MANUAL
// provenance, replacing whatever was derived before.
func (s *Service) SetForAdAccount(ctx context.Context, rc models.RequestContext, adAccountID, beneficiary, payor string) (*models.DsaSettings, error) {
	if beneficiary == "" || payor == "" {
		return nil, services.NewDomainError(
			services.ErrorTypeValidation,
			services.CodeValidation,
			"beneficiary and payor are both required",
			nil,
		)
	}

	settings := models.NewDsaSettings(rc.TenantID, adAccountID, beneficiary, payor, models.DsaSourceManual)
	if err := s.store.PutDsaSettings(ctx, settings); err != nil {
		return nil, services.WrapInternal("failed to persist disclosure settings", err)
	}

	s.logger.Info("Disclosure settings set manually",
		zap.String("tenant_id", rc.TenantID),
		zap.String("ad_account_id", adAccountID))

	return settings, nil
}

// recommendationSettings asks the platform for the account's configured
// beneficiary/payor defaults. Absence of a recommendation is not an error,
// any fetch failure is treated the same way: the ensure chain falls through
// to the next source.
func (s *Service) recommendationSettings(ctx context.Context, rc models.RequestContext, adAccountID string) *models.DsaSettings {
	query := url.Values{}
	query.Set("fields", "default_dsa_beneficiary,default_dsa_payor")

	resp, err := s.protocol.Get(ctx, rc.TenantID, "/"+models.AccountPathID(adAccountID), adAccountID, query)
	if err != nil {
		s.logger.Warn("DSA recommendation lookup failed, falling through",
			zap.String("tenant_id", rc.TenantID),
			zap.String("ad_account_id", adAccountID),
			zap.Error(err))
		return nil
	}

	var rec dsaRecommendation
	if err := resp.Decode(&rec); err != nil {
		s.logger.Warn("DSA recommendation response malformed, falling through",
			zap.String("ad_account_id", adAccountID),
			zap.Error(err))
		return nil
	}
	if rec.DefaultBeneficiary == "" {
		return nil
	}

	payor := rec.DefaultPayor
	if payor == "" {
		payor = rec.DefaultBeneficiary
	}
	return models.NewDsaSettings(rc.TenantID, adAccountID, rec.DefaultBeneficiary, payor, models.DsaSourceRecommendation)
}

// dsaRecommendation is the platform's account-level disclosure defaults
type dsaRecommendation struct {
	ID                 string `json:"id"`
	DefaultBeneficiary string `json:"default_dsa_beneficiary"`
	DefaultPayor       string `json:"default_dsa_payor"`
}

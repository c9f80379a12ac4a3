package credentials

import (
	"context"
	"fmt"

	"github.com/adplane/ads-control-plane/config"
	"github.com/adplane/ads-control-plane/services"
	"go.uber.org/zap"
)

// Directory is the tenant lookup the resolver depends on.
// Implemented by the tenant registry.
type Directory interface {
	CredentialRef(ctx context.Context, tenantID string) (string, error)
}

// Credential is a resolved platform access token together with where it
// came from. Source never contains the token itself so it is safe to log.
type Credential struct {
	Token  string
	Source string
}

// CredentialService resolves the platform access token for a tenant.
//
// Resolution order:
//  1. a token mapped directly to the tenant (PLATFORM_TENANT_TOKENS)
//  2. a shared token referenced by the tenant's credential_ref
//     (PLATFORM_SHARED_TOKENS)
//
// Results are never cached: callers re-resolve on every platform attempt
// so rotated tokens take effect without a restart.
type CredentialService struct {
	cfg       config.CredentialsConfig
	directory Directory
	logger    *zap.Logger
}

// NewCredentialService creates a new CredentialService instance
func NewCredentialService(cfg config.CredentialsConfig, directory Directory, logger *zap.Logger) *CredentialService {
	return &CredentialService{
		cfg:       cfg,
		directory: directory,
		logger:    logger,
	}
}

// Resolve returns the access token to use for the given tenant.
// A failed resolution names the missing configuration entry so operators
// can fix it without reading code.
func (s *CredentialService) Resolve(ctx context.Context, tenantID string) (*Credential, error) {
	if token, ok := s.cfg.TenantTokens[tenantID]; ok && token != "" {
		return &Credential{Token: token, Source: "tenant:" + tenantID}, nil
	}

	ref, err := s.directory.CredentialRef(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if ref != "" {
		if token, ok := s.cfg.SharedTokens[ref]; ok && token != "" {
			return &Credential{Token: token, Source: "shared:" + ref}, nil
		}
		return nil, services.NewDomainError(
			services.ErrorTypeCredential,
			services.CodeCredentialMissing,
			fmt.Sprintf("tenant %q references shared credential %q but PLATFORM_SHARED_TOKENS has no entry for it", tenantID, ref),
			nil,
		).WithDetail("tenant_id", tenantID).WithDetail("credential_ref", ref)
	}

	return nil, services.NewDomainError(
		services.ErrorTypeCredential,
		services.CodeCredentialMissing,
		fmt.Sprintf("no platform credential configured for tenant %q: add a PLATFORM_TENANT_TOKENS entry or set credential_ref in the tenants file", tenantID),
		nil,
	).WithDetail("tenant_id", tenantID)
}

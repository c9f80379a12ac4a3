package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/adplane/ads-control-plane/models"
)

// tenantsFile is the on-disk shape of the tenant definitions file
type tenantsFile struct {
	Tenants []models.TenantConfig `yaml:"tenants"`
}

// LoadTenants reads and validates the tenant definitions file. Tenant ids
// must be unique. The display name stays empty when unset: it doubles as
// the disclosure fallback, and a tenant id is not a legal entity name.
func LoadTenants(path string) ([]models.TenantConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tenants file: %w", err)
	}

	var file tenantsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tenants file: %w", err)
	}
	if len(file.Tenants) == 0 {
		return nil, fmt.Errorf("tenants file %q defines no tenants", path)
	}

	seen := make(map[string]bool, len(file.Tenants))
	for i := range file.Tenants {
		tc := &file.Tenants[i]
		if tc.TenantID == "" {
			return nil, fmt.Errorf("tenant at index %d has no tenant_id", i)
		}
		if seen[tc.TenantID] {
			return nil, fmt.Errorf("duplicate tenant id %q in tenants file", tc.TenantID)
		}
		seen[tc.TenantID] = true
	}

	return file.Tenants, nil
}

package models

import (
	"time"
)

// TenantConfig defines one tenant's isolation boundary: the external
// resources it may touch and the credential reference used on its behalf.
// Loaded at startup from the tenants file.
type TenantConfig struct {
	TenantID            string   `yaml:"tenant_id" json:"tenant_id"`
	DisplayName         string   `yaml:"display_name" json:"display_name"`
	AllowedAdAccountIDs []string `yaml:"allowed_ad_account_ids" json:"allowed_ad_account_ids"`
	AllowedPageIDs      []string `yaml:"allowed_page_ids" json:"allowed_page_ids"`
	CredentialRef       string   `yaml:"credential_ref" json:"credential_ref"`
}

// Tenant is the persisted tenant row, mirrored from startup configuration
type Tenant struct {
	ID            string    `json:"id" db:"id"`
	DisplayName   string    `json:"display_name" db:"display_name"`
	CredentialRef string    `json:"credential_ref" db:"credential_ref"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// NewTenant creates a new Tenant instance
func NewTenant(id, displayName, credentialRef string) *Tenant {
	now := time.Now()
	return &Tenant{
		ID:            id,
		DisplayName:   displayName,
		CredentialRef: credentialRef,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

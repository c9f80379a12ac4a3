package models

import "time"

// AssetKind distinguishes synced platform objects
type AssetKind string

const (
	AssetKindAccount AssetKind = "account"
	AssetKindPage    AssetKind = "page"
)

// IsValid checks if the asset kind is known
func (k AssetKind) IsValid() bool {
	return k == AssetKindAccount || k == AssetKindPage
}

// Asset is a tenant-visible platform object snapshot captured during sync.
// Pages discovered via verified ownership edges are confirmed; pages from
// best-effort personal edges stay unconfirmed until chosen once.
type Asset struct {
	TenantID   string    `json:"tenant_id" db:"tenant_id"`
	Kind       AssetKind `json:"kind" db:"kind"`
	ExternalID string    `json:"external_id" db:"external_id"`
	Name       string    `json:"name" db:"name"`
	Confirmed  bool      `json:"confirmed" db:"confirmed"`
	SyncedAt   time.Time `json:"synced_at" db:"synced_at"`
}

// TableName returns the table name for the Asset model
func (Asset) TableName() string {
	return "tenant_assets"
}

// NewAsset creates a new Asset instance
func NewAsset(tenantID string, kind AssetKind, externalID, name string, confirmed bool) *Asset {
	if kind == AssetKindAccount {
		externalID = NormalizeAccountID(externalID)
	}
	return &Asset{
		TenantID:   tenantID,
		Kind:       kind,
		ExternalID: externalID,
		Name:       name,
		Confirmed:  confirmed,
		SyncedAt:   time.Now(),
	}
}

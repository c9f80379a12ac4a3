package models

import "time"

// Page mirrors the platform's page object, reduced to the fields the gateway
// proxies
type Page struct {
	ID                 string `json:"id"`
	Name               string `json:"name,omitempty"`
	Category           string `json:"category,omitempty"`
	VerificationStatus string `json:"verification_status,omitempty"`
}

// PageInfo is the gateway's view of a tenant page candidate. Confirmed pages
// were discovered via verified ownership edges or were explicitly chosen
// once; pages from best-effort personal edges stay unconfirmed until then.
type PageInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name,omitempty"`
	Confirmed bool   `json:"confirmed"`
}

// PageSelection is the persisted default page choice per (tenant, ad account)
type PageSelection struct {
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	AdAccountID string    `json:"ad_account_id" db:"ad_account_id"`
	PageID      string    `json:"page_id" db:"page_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the PageSelection model
func (PageSelection) TableName() string {
	return "page_selections"
}

// NewPageSelection creates a new PageSelection instance
func NewPageSelection(tenantID, adAccountID, pageID string) *PageSelection {
	now := time.Now()
	return &PageSelection{
		TenantID:    tenantID,
		AdAccountID: NormalizeAccountID(adAccountID),
		PageID:      pageID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

package models

import "time"

// DsaSource records where persisted disclosure values came from. Provenance
// is sticky: persisted settings are never silently overwritten by a
// lower-confidence source.
type DsaSource string

const (
	DsaSourceManual         DsaSource = "MANUAL"
	DsaSourceRecommendation DsaSource = "RECOMMENDATION"
)

// IsValid checks if the source is a known provenance
func (s DsaSource) IsValid() bool {
	return s == DsaSourceManual || s == DsaSourceRecommendation
}

// DsaSettings are the EU disclosure fields persisted per (tenant, ad account)
type DsaSettings struct {
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	AdAccountID string    `json:"ad_account_id" db:"ad_account_id"`
	Beneficiary string    `json:"beneficiary" db:"beneficiary"`
	Payor       string    `json:"payor" db:"payor"`
	Source      DsaSource `json:"source" db:"source"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the DsaSettings model
func (DsaSettings) TableName() string {
	return "dsa_settings"
}

// NewDsaSettings creates a new DsaSettings instance
func NewDsaSettings(tenantID, adAccountID, beneficiary, payor string, source DsaSource) *DsaSettings {
	return &DsaSettings{
		TenantID:    tenantID,
		AdAccountID: NormalizeAccountID(adAccountID),
		Beneficiary: beneficiary,
		Payor:       payor,
		Source:      source,
		UpdatedAt:   time.Now(),
	}
}

// SuggestionConfidence grades how strongly an autofill value is supported
type SuggestionConfidence string

const (
	ConfidenceHigh   SuggestionConfidence = "HIGH"
	ConfidenceMedium SuggestionConfidence = "MEDIUM"
	ConfidenceLow    SuggestionConfidence = "LOW"
)

// BeneficiarySource identifies which metadata produced a beneficiary suggestion
type BeneficiarySource string

const (
	BeneficiarySourceBusiness          BeneficiarySource = "business"
	BeneficiarySourcePageOwnerBusiness BeneficiarySource = "page_owner_business"
	BeneficiarySourcePage              BeneficiarySource = "page"
	BeneficiarySourceTenant            BeneficiarySource = "tenant"
)

// PayorSource identifies which metadata produced a payor suggestion
type PayorSource string

const (
	PayorSourceAdAccount PayorSource = "ad_account"
	PayorSourceBusiness  PayorSource = "business"
	PayorSourceTenant    PayorSource = "tenant"
)

// BeneficiarySuggestion is a derived beneficiary candidate with provenance.
// Suggestions are computed fresh on every request and never persisted.
type BeneficiarySuggestion struct {
	Value      string               `json:"value"`
	Source     BeneficiarySource    `json:"source"`
	Confidence SuggestionConfidence `json:"confidence"`
	Reasons    []string             `json:"reasons"`
}

// PayorSuggestion is a derived payor candidate with provenance
type PayorSuggestion struct {
	Value      string               `json:"value"`
	Source     PayorSource          `json:"source"`
	Confidence SuggestionConfidence `json:"confidence"`
	Reasons    []string             `json:"reasons"`
}

package models

import "strings"

const accountPathPrefix = "act_"

// Business is the owning business of an ad account or page
type Business struct {
	ID                 string `json:"id"`
	Name               string `json:"name,omitempty"`
	VerificationStatus string `json:"verification_status,omitempty"`
}

// AdAccount mirrors the platform's ad account object, reduced to the fields
// the gateway proxies
type AdAccount struct {
	ID            string    `json:"id"`                   // path form, act_-prefixed
	AccountID     string    `json:"account_id,omitempty"` // bare numeric form
	Name          string    `json:"name,omitempty"`
	Currency      string    `json:"currency,omitempty"`
	TimezoneName  string    `json:"timezone_name,omitempty"`
	AccountStatus int       `json:"account_status,omitempty"`
	Business      *Business `json:"business,omitempty"`
}

// NormalizeAccountID strips the path prefix so account ids compare
// consistently regardless of which form the caller supplied.
func NormalizeAccountID(id string) string {
	return strings.TrimPrefix(strings.TrimSpace(id), accountPathPrefix)
}

// AccountPathID returns the id in the prefixed form the platform expects in
// request paths.
func AccountPathID(id string) string {
	id = strings.TrimSpace(id)
	if strings.HasPrefix(id, accountPathPrefix) {
		return id
	}
	return accountPathPrefix + id
}

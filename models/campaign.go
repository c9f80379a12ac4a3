package models

// ObjectStatus is the lifecycle status shared by campaigns, ad sets, and ads
type ObjectStatus string

const (
	StatusActive   ObjectStatus = "ACTIVE"
	StatusPaused   ObjectStatus = "PAUSED"
	StatusDeleted  ObjectStatus = "DELETED"
	StatusArchived ObjectStatus = "ARCHIVED"
)

// IsValid checks if the status is one of the platform's lifecycle statuses
func (s ObjectStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusPaused, StatusDeleted, StatusArchived:
		return true
	}
	return false
}

// Campaign mirrors the platform's campaign object, reduced to the fields the
// gateway proxies. Budgets are integer minor units; the platform serializes
// them as quoted numbers.
type Campaign struct {
	ID                  string       `json:"id"`
	Name                string       `json:"name,omitempty"`
	Status              ObjectStatus `json:"status,omitempty"`
	EffectiveStatus     string       `json:"effective_status,omitempty"`
	Objective           string       `json:"objective,omitempty"`
	DailyBudget         *int64       `json:"daily_budget,string,omitempty"`
	LifetimeBudget      *int64       `json:"lifetime_budget,string,omitempty"`
	SpecialAdCategories []string     `json:"special_ad_categories,omitempty"`
	CreatedTime         string       `json:"created_time,omitempty"`
	UpdatedTime         string       `json:"updated_time,omitempty"`
}

// Budget returns the campaign's budget pair
func (c *Campaign) Budget() MutationBudget {
	return MutationBudget{DailyBudget: c.DailyBudget, LifetimeBudget: c.LifetimeBudget}
}

package models

// MutationBudget captures the daily/lifetime budget pair around a change, in
// integer minor units. Nil means the bound is unset.
type MutationBudget struct {
	DailyBudget    *int64 `json:"daily_budget,omitempty"`
	LifetimeBudget *int64 `json:"lifetime_budget,omitempty"`
}

// IsZero reports whether neither bound is set
func (b MutationBudget) IsZero() bool {
	return b.DailyBudget == nil && b.LifetimeBudget == nil
}

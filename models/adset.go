package models

// AdSet mirrors the platform's ad set object, reduced to the fields the
// gateway proxies. Disclosure fields are injected by the compliance layer on
// EU-targeted writes.
type AdSet struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	CampaignID       string         `json:"campaign_id,omitempty"`
	Status           ObjectStatus   `json:"status,omitempty"`
	EffectiveStatus  string         `json:"effective_status,omitempty"`
	DailyBudget      *int64         `json:"daily_budget,string,omitempty"`
	LifetimeBudget   *int64         `json:"lifetime_budget,string,omitempty"`
	OptimizationGoal string         `json:"optimization_goal,omitempty"`
	BillingEvent     string         `json:"billing_event,omitempty"`
	Targeting        *TargetingSpec `json:"targeting,omitempty"`
	DsaBeneficiary   string         `json:"dsa_beneficiary,omitempty"`
	DsaPayor         string         `json:"dsa_payor,omitempty"`
	StartTime        string         `json:"start_time,omitempty"`
	EndTime          string         `json:"end_time,omitempty"`
}

// Budget returns the ad set's budget pair
func (a *AdSet) Budget() MutationBudget {
	return MutationBudget{DailyBudget: a.DailyBudget, LifetimeBudget: a.LifetimeBudget}
}

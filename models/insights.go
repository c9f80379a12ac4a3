package models

// DatePreset is a named reporting window accepted by the insights endpoints
type DatePreset string

const (
	DatePresetToday     DatePreset = "today"
	DatePresetYesterday DatePreset = "yesterday"
	DatePresetLast7d    DatePreset = "last_7d"
	DatePresetLast14d   DatePreset = "last_14d"
	DatePresetLast30d   DatePreset = "last_30d"
	DatePresetLast90d   DatePreset = "last_90d"
	DatePresetThisMonth DatePreset = "this_month"
	DatePresetLastMonth DatePreset = "last_month"
	DatePresetMaximum   DatePreset = "maximum"
)

// IsValid checks if the date preset is one the platform accepts
func (p DatePreset) IsValid() bool {
	switch p {
	case DatePresetToday, DatePresetYesterday, DatePresetLast7d, DatePresetLast14d,
		DatePresetLast30d, DatePresetLast90d, DatePresetThisMonth, DatePresetLastMonth,
		DatePresetMaximum:
		return true
	}
	return false
}

// InsightsRow is one reporting row. The platform serializes every metric as
// a string; rows pass through unconverted.
type InsightsRow struct {
	DateStart   string `json:"date_start,omitempty"`
	DateStop    string `json:"date_stop,omitempty"`
	Impressions string `json:"impressions,omitempty"`
	Clicks      string `json:"clicks,omitempty"`
	Spend       string `json:"spend,omitempty"`
	Reach       string `json:"reach,omitempty"`
	CTR         string `json:"ctr,omitempty"`
	CPC         string `json:"cpc,omitempty"`
}

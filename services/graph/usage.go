package graph

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/adplane/ads-control-plane/models"
)

const (
	headerAppUsage             = "X-App-Usage"
	headerAdAccountUsage       = "X-Ad-Account-Usage"
	headerBusinessUseCaseUsage = "X-Business-Use-Case-Usage"
)

// AppUsage mirrors the X-App-Usage header payload. Values are percentages
// of the app-level budget consumed.
type AppUsage struct {
	CallCount    int `json:"call_count"`
	TotalTime    int `json:"total_time"`
	TotalCPUTime int `json:"total_cputime"`
}

// AdAccountUsage mirrors the X-Ad-Account-Usage header payload
type AdAccountUsage struct {
	UtilPct           float64 `json:"acc_id_util_pct"`
	ResetTimeDuration int     `json:"reset_time_duration,omitempty"`
}

// BusinessUseCaseEntry is one entry of the X-Business-Use-Case-Usage
// header, keyed by ad account id. EstimatedTimeToRegainAccess is in
// minutes and is only present while the account is throttled.
type BusinessUseCaseEntry struct {
	Type                        string `json:"type"`
	CallCount                   int    `json:"call_count"`
	TotalCPUTime                int    `json:"total_cputime"`
	TotalTime                   int    `json:"total_time"`
	EstimatedTimeToRegainAccess int    `json:"estimated_time_to_regain_access"`
}

// UsageReport aggregates the three usage header families the platform
// attaches to every response. Any family the response omitted is nil.
type UsageReport struct {
	App             *AppUsage
	AdAccount       *AdAccountUsage
	BusinessUseCase map[string][]BusinessUseCaseEntry
}

// parseUsage extracts usage telemetry from response headers. Malformed
// headers are skipped rather than failing the call.
func parseUsage(h http.Header) *UsageReport {
	report := &UsageReport{}
	found := false

	if raw := h.Get(headerAppUsage); raw != "" {
		var app AppUsage
		if err := json.Unmarshal([]byte(raw), &app); err == nil {
			report.App = &app
			found = true
		}
	}

	if raw := h.Get(headerAdAccountUsage); raw != "" {
		var acct AdAccountUsage
		if err := json.Unmarshal([]byte(raw), &acct); err == nil {
			report.AdAccount = &acct
			found = true
		}
	}

	if raw := h.Get(headerBusinessUseCaseUsage); raw != "" {
		var buc map[string][]BusinessUseCaseEntry
		if err := json.Unmarshal([]byte(raw), &buc); err == nil {
			report.BusinessUseCase = buc
			found = true
		}
	}

	if !found {
		return nil
	}
	return report
}

// CooldownFor returns how long the given ad account should back off, or
// zero when the platform reported no pending throttle for it. The header
// keys accounts by bare numeric id.
func (u *UsageReport) CooldownFor(accountID string) time.Duration {
	if u == nil || len(u.BusinessUseCase) == 0 {
		return 0
	}

	bare := models.NormalizeAccountID(accountID)
	maxMinutes := 0
	for key, entries := range u.BusinessUseCase {
		if models.NormalizeAccountID(key) != bare {
			continue
		}
		for _, entry := range entries {
			if entry.EstimatedTimeToRegainAccess > maxMinutes {
				maxMinutes = entry.EstimatedTimeToRegainAccess
			}
		}
	}

	return time.Duration(maxMinutes) * time.Minute
}

// MaxUtilization returns the highest utilization percentage across all
// reported families, for logging
func (u *UsageReport) MaxUtilization() float64 {
	if u == nil {
		return 0
	}

	maxPct := 0.0
	if u.App != nil {
		for _, v := range []int{u.App.CallCount, u.App.TotalTime, u.App.TotalCPUTime} {
			if pct := float64(v); pct > maxPct {
				maxPct = pct
			}
		}
	}
	if u.AdAccount != nil && u.AdAccount.UtilPct > maxPct {
		maxPct = u.AdAccount.UtilPct
	}
	for _, entries := range u.BusinessUseCase {
		for _, entry := range entries {
			for _, v := range []int{entry.CallCount, entry.TotalTime, entry.TotalCPUTime} {
				if pct := float64(v); pct > maxPct {
					maxPct = pct
				}
			}
		}
	}

	return maxPct
}

// Throttled reports whether any family indicates the budget is exhausted
func (u *UsageReport) Throttled() bool {
	if u == nil {
		return false
	}
	if u.MaxUtilization() >= 100 {
		return true
	}
	for _, entries := range u.BusinessUseCase {
		for _, entry := range entries {
			if entry.EstimatedTimeToRegainAccess > 0 {
				return true
			}
		}
	}
	return false
}


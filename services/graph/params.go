package graph

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/adplane/ads-control-plane/services"
)

// Effective statuses the platform accepts in list filters. Broader than
// the configured status because the platform derives values like
// CAMPAIGN_PAUSED from the parent hierarchy.
var validEffectiveStatuses = map[string]bool{
	"ACTIVE":               true,
	"PAUSED":               true,
	"DELETED":              true,
	"ARCHIVED":             true,
	"PENDING_REVIEW":       true,
	"DISAPPROVED":          true,
	"PREAPPROVED":          true,
	"PENDING_BILLING_INFO": true,
	"CAMPAIGN_PAUSED":      true,
	"ADSET_PAUSED":         true,
	"IN_PROCESS":           true,
	"WITH_ISSUES":          true,
}

// StatusFilter is the ordered, deduplicated set of effective statuses a
// list call filters on. Empty means unfiltered.
type StatusFilter []string

// ParseStatusFilter accepts either a comma-separated list ("ACTIVE,PAUSED")
// or the platform's own JSON-array form and normalizes it. Unknown status
// values are rejected.
func ParseStatusFilter(raw string) (StatusFilter, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var tokens []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
			return nil, services.NewDomainError(services.ErrorTypeValidation, services.CodeValidation,
				fmt.Sprintf("status filter is not a valid JSON array: %s", raw), err)
		}
	} else {
		tokens = strings.Split(raw, ",")
	}

	seen := make(map[string]bool, len(tokens))
	filter := make(StatusFilter, 0, len(tokens))
	for _, token := range tokens {
		status := strings.ToUpper(strings.TrimSpace(token))
		if status == "" {
			continue
		}
		if !validEffectiveStatuses[status] {
			return nil, services.NewDomainError(services.ErrorTypeValidation, services.CodeValidation,
				fmt.Sprintf("unknown effective status %q in filter", status), nil).
				WithDetail("status", status)
		}
		if seen[status] {
			continue
		}
		seen[status] = true
		filter = append(filter, status)
	}

	if len(filter) == 0 {
		return nil, nil
	}
	return filter, nil
}

// Encode renders the filter in the platform's wire form, a JSON array of
// status strings. ok is false when the filter is empty and the parameter
// must be omitted entirely.
func (f StatusFilter) Encode() (value string, ok bool) {
	if len(f) == 0 {
		return "", false
	}
	encoded, err := json.Marshal([]string(f))
	if err != nil {
		return "", false
	}
	return string(encoded), true
}

// Apply sets the effective_status query parameter, or leaves the query
// untouched for an empty filter
func (f StatusFilter) Apply(q url.Values) {
	if encoded, ok := f.Encode(); ok {
		q.Set("effective_status", encoded)
	}
}

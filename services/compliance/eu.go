package compliance

import (
	"encoding/json"
	"strings"

	"github.com/adplane/ads-control-plane/models"
)

// EU and EEA member states, ISO 3166-1 alpha-2. Targeting any of these
// jurisdictions makes the disclosure fields mandatory.
var euMemberCodes = map[string]struct{}{
	"AT": {}, "BE": {}, "BG": {}, "HR": {}, "CY": {}, "CZ": {}, "DK": {},
	"EE": {}, "FI": {}, "FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {},
	"IT": {}, "LV": {}, "LT": {}, "LU": {}, "MT": {}, "NL": {}, "PL": {},
	"PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
	"IS": {}, "LI": {}, "NO": {},
}

// IsEUTargeted reports whether the targeting spec reaches an EU or EEA
// jurisdiction. Every "countries" list anywhere in the spec counts,
// including exclusions and flexible clauses; one EU code among any number
// of others is enough.
func IsEUTargeted(spec *models.TargetingSpec) bool {
	for _, code := range CollectCountries(spec) {
		if _, ok := euMemberCodes[code]; ok {
			return true
		}
	}
	return false
}

// CollectCountries gathers every country code from every "countries" list
// nested anywhere in the spec, uppercased, first occurrence wins.
func CollectCountries(spec *models.TargetingSpec) []string {
	if spec == nil {
		return nil
	}

	// The typed spec carries raw fragments (flexible_spec, regions) that can
	// nest their own geo clauses, so the walk runs over the JSON form.
	raw, err := json.Marshal(spec)
	if err != nil {
		return nil
	}
	var tree interface{}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil
	}

	var codes []string
	seen := make(map[string]struct{})
	collectCountries(tree, seen, &codes)
	return codes
}

func collectCountries(node interface{}, seen map[string]struct{}, out *[]string) {
	switch v := node.(type) {
	case map[string]interface{}:
		for key, child := range v {
			if strings.EqualFold(key, "countries") {
				appendCountryList(child, seen, out)
				continue
			}
			collectCountries(child, seen, out)
		}
	case []interface{}:
		for _, child := range v {
			collectCountries(child, seen, out)
		}
	}
}

func appendCountryList(node interface{}, seen map[string]struct{}, out *[]string) {
	list, ok := node.([]interface{})
	if !ok {
		return
	}
	for _, entry := range list {
		code, ok := entry.(string)
		if !ok {
			continue
		}
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		*out = append(*out, code)
	}
}

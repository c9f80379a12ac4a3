package models

import "encoding/json"

// Platform defaults applied when age bounds are unset.
const (
	defaultAgeMin = 18
	defaultAgeMax = 65
)

// TargetingEntity is an id/name pair used by interests and audiences
type TargetingEntity struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// GeoLocations holds the geographic slice of a targeting spec. Regions and
// cities pass through untyped; only countries drive gateway decisions.
type GeoLocations struct {
	Countries []string          `json:"countries,omitempty"`
	Regions   []json.RawMessage `json:"regions,omitempty"`
	Cities    []json.RawMessage `json:"cities,omitempty"`
}

// TargetingSpec mirrors the platform's targeting object, reduced to the
// fields the gateway reasons about. Callers may send richer specs; unknown
// fields pass through at the protocol layer.
type TargetingSpec struct {
	GeoLocations         *GeoLocations     `json:"geo_locations,omitempty"`
	ExcludedGeoLocations *GeoLocations     `json:"excluded_geo_locations,omitempty"`
	AgeMin               int               `json:"age_min,omitempty"`
	AgeMax               int               `json:"age_max,omitempty"`
	Genders              []int             `json:"genders,omitempty"`
	Interests            []TargetingEntity `json:"interests,omitempty"`
	CustomAudiences      []TargetingEntity `json:"custom_audiences,omitempty"`
	FlexibleSpec         []json.RawMessage `json:"flexible_spec,omitempty"`
}

// AgeSpan returns the targeted age range width, substituting the platform
// defaults for unset bounds.
func (t *TargetingSpec) AgeSpan() int {
	if t == nil {
		return 0
	}
	min := t.AgeMin
	if min == 0 {
		min = defaultAgeMin
	}
	max := t.AgeMax
	if max == 0 {
		max = defaultAgeMax
	}
	if max < min {
		return 0
	}
	return max - min
}

// HasNarrowingSignal reports whether any interest, audience, or flexible
// restriction narrows the spec beyond demographics.
func (t *TargetingSpec) HasNarrowingSignal() bool {
	if t == nil {
		return false
	}
	return len(t.Interests) > 0 || len(t.CustomAudiences) > 0 || len(t.FlexibleSpec) > 0
}

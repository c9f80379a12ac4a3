package models

import "encoding/json"

// AdCreative carries the slice of the creative the gateway reasons about:
// the page identity. The story spec passes through untouched.
type AdCreative struct {
	ID              string          `json:"id,omitempty"`
	Name            string          `json:"name,omitempty"`
	PageID          string          `json:"page_id,omitempty"`
	ObjectStorySpec json.RawMessage `json:"object_story_spec,omitempty"`
}

// Ad mirrors the platform's ad object, reduced to the fields the gateway
// proxies
type Ad struct {
	ID              string       `json:"id"`
	Name            string       `json:"name,omitempty"`
	AdSetID         string       `json:"adset_id,omitempty"`
	Status          ObjectStatus `json:"status,omitempty"`
	EffectiveStatus string       `json:"effective_status,omitempty"`
	Creative        *AdCreative  `json:"creative,omitempty"`
}

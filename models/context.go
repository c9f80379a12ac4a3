package models

// ResourceKind identifies a node in the platform's advertising hierarchy.
type ResourceKind string

const (
	ResourceKindAccount  ResourceKind = "account"
	ResourceKindCampaign ResourceKind = "campaign"
	ResourceKindAdSet    ResourceKind = "adset"
	ResourceKindAd       ResourceKind = "ad"
	ResourceKindPage     ResourceKind = "page"
)

// IsValid checks if the resource kind is one of the known kinds
func (k ResourceKind) IsValid() bool {
	switch k {
	case ResourceKindAccount, ResourceKindCampaign, ResourceKindAdSet, ResourceKindAd, ResourceKindPage:
		return true
	}
	return false
}

// RequestContext carries the caller identity and every resource id a call
// explicitly touches. Immutable per call and threaded through every layer;
// the With* helpers return copies.
type RequestContext struct {
	TenantID        string `json:"tenant_id"`
	ActorUserID     string `json:"actor_user_id,omitempty"`
	IsPlatformAdmin bool   `json:"is_platform_admin,omitempty"`
	AdAccountID     string `json:"ad_account_id,omitempty"`
	PageID          string `json:"page_id,omitempty"`
	CampaignID      string `json:"campaign_id,omitempty"`
	AdSetID         string `json:"ad_set_id,omitempty"`
	AdID            string `json:"ad_id,omitempty"`
}

// WithAdAccount returns a copy with the ad account id set
func (rc RequestContext) WithAdAccount(id string) RequestContext {
	rc.AdAccountID = id
	return rc
}

// WithPage returns a copy with the page id set
func (rc RequestContext) WithPage(id string) RequestContext {
	rc.PageID = id
	return rc
}

// WithCampaign returns a copy with the campaign id set
func (rc RequestContext) WithCampaign(id string) RequestContext {
	rc.CampaignID = id
	return rc
}

// WithAdSet returns a copy with the ad set id set
func (rc RequestContext) WithAdSet(id string) RequestContext {
	rc.AdSetID = id
	return rc
}

// WithAd returns a copy with the ad id set
func (rc RequestContext) WithAd(id string) RequestContext {
	rc.AdID = id
	return rc
}

// ExplicitIDs returns every populated resource field keyed by kind.
func (rc RequestContext) ExplicitIDs() map[ResourceKind]string {
	ids := make(map[ResourceKind]string)
	if rc.AdAccountID != "" {
		ids[ResourceKindAccount] = rc.AdAccountID
	}
	if rc.PageID != "" {
		ids[ResourceKindPage] = rc.PageID
	}
	if rc.CampaignID != "" {
		ids[ResourceKindCampaign] = rc.CampaignID
	}
	if rc.AdSetID != "" {
		ids[ResourceKindAdSet] = rc.AdSetID
	}
	if rc.AdID != "" {
		ids[ResourceKindAd] = rc.AdID
	}
	return ids
}

package gateway

import (
	"strconv"
	"time"

	"github.com/adplane/ads-control-plane/models"
	"github.com/adplane/ads-control-plane/services/graph"
	"github.com/adplane/ads-control-plane/services/policy"
)

// ListParams narrows a list call
type ListParams struct {
	StatusFilter graph.StatusFilter
	Limit        int
}

// InsightsParams selects the reporting window for an insights call
type InsightsParams struct {
	DatePreset models.DatePreset
	Limit      int
}

// CreateCampaignInput is the payload for creating a campaign
type CreateCampaignInput struct {
	Name                string              `json:"name" validate:"required"`
	Objective           string              `json:"objective" validate:"required"`
	Status              models.ObjectStatus `json:"status,omitempty"`
	DailyBudget         *int64              `json:"daily_budget,omitempty"`
	LifetimeBudget      *int64              `json:"lifetime_budget,omitempty"`
	SpecialAdCategories []string            `json:"special_ad_categories,omitempty"`
}

func (in CreateCampaignInput) body() map[string]interface{} {
	body := map[string]interface{}{
		"name":      in.Name,
		"objective": in.Objective,
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	putBudget(body, "daily_budget", in.DailyBudget)
	putBudget(body, "lifetime_budget", in.LifetimeBudget)
	categories := in.SpecialAdCategories
	if len(categories) == 0 {
		// The platform rejects campaign creation without a declaration
		categories = []string{"NONE"}
	}
	body["special_ad_categories"] = categories
	return body
}

// UpdateCampaignInput is the payload for updating a campaign. Zero-valued
// fields are left untouched.
type UpdateCampaignInput struct {
	Name           string              `json:"name,omitempty"`
	Status         models.ObjectStatus `json:"status,omitempty"`
	DailyBudget    *int64              `json:"daily_budget,omitempty"`
	LifetimeBudget *int64              `json:"lifetime_budget,omitempty"`
}

func (in UpdateCampaignInput) isEmpty() bool {
	return in.Name == "" && in.Status == "" && in.DailyBudget == nil && in.LifetimeBudget == nil
}

func (in UpdateCampaignInput) body() map[string]interface{} {
	body := map[string]interface{}{}
	if in.Name != "" {
		body["name"] = in.Name
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	putBudget(body, "daily_budget", in.DailyBudget)
	putBudget(body, "lifetime_budget", in.LifetimeBudget)
	return body
}

// CreateAdSetInput is the payload for creating an ad set
type CreateAdSetInput struct {
	Name             string                `json:"name" validate:"required"`
	CampaignID       string                `json:"campaign_id" validate:"required"`
	Status           models.ObjectStatus   `json:"status,omitempty"`
	DailyBudget      *int64                `json:"daily_budget,omitempty"`
	LifetimeBudget   *int64                `json:"lifetime_budget,omitempty"`
	OptimizationGoal string                `json:"optimization_goal,omitempty"`
	BillingEvent     string                `json:"billing_event,omitempty"`
	Targeting        *models.TargetingSpec `json:"targeting,omitempty"`
	DsaBeneficiary   string                `json:"dsa_beneficiary,omitempty"`
	DsaPayor         string                `json:"dsa_payor,omitempty"`
	StartTime        string                `json:"start_time,omitempty"`
	EndTime          string                `json:"end_time,omitempty"`
}

func (in CreateAdSetInput) body() map[string]interface{} {
	body := map[string]interface{}{
		"name":        in.Name,
		"campaign_id": in.CampaignID,
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	putBudget(body, "daily_budget", in.DailyBudget)
	putBudget(body, "lifetime_budget", in.LifetimeBudget)
	if in.OptimizationGoal != "" {
		body["optimization_goal"] = in.OptimizationGoal
	}
	if in.BillingEvent != "" {
		body["billing_event"] = in.BillingEvent
	}
	if in.Targeting != nil {
		body["targeting"] = in.Targeting
	}
	if in.DsaBeneficiary != "" {
		body["dsa_beneficiary"] = in.DsaBeneficiary
	}
	if in.DsaPayor != "" {
		body["dsa_payor"] = in.DsaPayor
	}
	if in.StartTime != "" {
		body["start_time"] = in.StartTime
	}
	if in.EndTime != "" {
		body["end_time"] = in.EndTime
	}
	return body
}

// UpdateAdSetInput is the payload for updating an ad set
type UpdateAdSetInput struct {
	Name           string                `json:"name,omitempty"`
	Status         models.ObjectStatus   `json:"status,omitempty"`
	DailyBudget    *int64                `json:"daily_budget,omitempty"`
	LifetimeBudget *int64                `json:"lifetime_budget,omitempty"`
	Targeting      *models.TargetingSpec `json:"targeting,omitempty"`
	DsaBeneficiary string                `json:"dsa_beneficiary,omitempty"`
	DsaPayor       string                `json:"dsa_payor,omitempty"`
	EndTime        string                `json:"end_time,omitempty"`
}

func (in UpdateAdSetInput) isEmpty() bool {
	return in.Name == "" && in.Status == "" && in.DailyBudget == nil && in.LifetimeBudget == nil &&
		in.Targeting == nil && in.DsaBeneficiary == "" && in.DsaPayor == "" && in.EndTime == ""
}

func (in UpdateAdSetInput) body() map[string]interface{} {
	body := map[string]interface{}{}
	if in.Name != "" {
		body["name"] = in.Name
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	putBudget(body, "daily_budget", in.DailyBudget)
	putBudget(body, "lifetime_budget", in.LifetimeBudget)
	if in.Targeting != nil {
		body["targeting"] = in.Targeting
	}
	if in.DsaBeneficiary != "" {
		body["dsa_beneficiary"] = in.DsaBeneficiary
	}
	if in.DsaPayor != "" {
		body["dsa_payor"] = in.DsaPayor
	}
	if in.EndTime != "" {
		body["end_time"] = in.EndTime
	}
	return body
}

// CreateAdInput is the payload for creating an ad. The creative's page id
// may be omitted; the gateway resolves the tenant's default page.
type CreateAdInput struct {
	Name     string              `json:"name" validate:"required"`
	AdSetID  string              `json:"adset_id" validate:"required"`
	Status   models.ObjectStatus `json:"status,omitempty"`
	Creative *models.AdCreative  `json:"creative,omitempty"`
}

func (in CreateAdInput) body() map[string]interface{} {
	body := map[string]interface{}{
		"name":     in.Name,
		"adset_id": in.AdSetID,
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	if in.Creative != nil {
		body["creative"] = creativeBody(in.Creative)
	}
	return body
}

// UpdateAdInput is the payload for updating an ad
type UpdateAdInput struct {
	Name     string              `json:"name,omitempty"`
	Status   models.ObjectStatus `json:"status,omitempty"`
	Creative *models.AdCreative  `json:"creative,omitempty"`
}

func (in UpdateAdInput) isEmpty() bool {
	return in.Name == "" && in.Status == "" && in.Creative == nil
}

func (in UpdateAdInput) body() map[string]interface{} {
	body := map[string]interface{}{}
	if in.Name != "" {
		body["name"] = in.Name
	}
	if in.Status != "" {
		body["status"] = string(in.Status)
	}
	if in.Creative != nil {
		body["creative"] = creativeBody(in.Creative)
	}
	return body
}

func creativeBody(creative *models.AdCreative) map[string]interface{} {
	body := map[string]interface{}{}
	if creative.ID != "" {
		body["id"] = creative.ID
	}
	if creative.Name != "" {
		body["name"] = creative.Name
	}
	if creative.PageID != "" {
		body["page_id"] = creative.PageID
	}
	if len(creative.ObjectStorySpec) > 0 {
		body["object_story_spec"] = creative.ObjectStorySpec
	}
	return body
}

// DuplicateInput is the payload for the platform's copy edge
type DuplicateInput struct {
	DeepCopy     bool   `json:"deep_copy,omitempty"`
	StatusOption string `json:"status_option,omitempty"`
	RenameSuffix string `json:"rename_suffix,omitempty"`
}

func (in DuplicateInput) body() map[string]interface{} {
	body := map[string]interface{}{
		"deep_copy": in.DeepCopy,
	}
	if in.StatusOption != "" {
		body["status_option"] = in.StatusOption
	}
	if in.RenameSuffix != "" {
		body["rename_options"] = map[string]interface{}{"rename_suffix": in.RenameSuffix}
	}
	return body
}

// CampaignResult is a campaign write outcome with any policy warnings
type CampaignResult struct {
	Campaign models.Campaign  `json:"campaign"`
	Warnings []policy.Warning `json:"warnings,omitempty"`
}

// AdSetResult is an ad set write outcome with any policy warnings
type AdSetResult struct {
	AdSet    models.AdSet     `json:"adset"`
	Warnings []policy.Warning `json:"warnings,omitempty"`
}

// AdResult is an ad write outcome with any policy warnings
type AdResult struct {
	Ad       models.Ad        `json:"ad"`
	Warnings []policy.Warning `json:"warnings,omitempty"`
}

// DuplicateResult carries the id of the platform-side copy
type DuplicateResult struct {
	CopiedID string           `json:"copied_id"`
	Warnings []policy.Warning `json:"warnings,omitempty"`
}

// SyncResult summarizes an asset sync run
type SyncResult struct {
	Accounts       int       `json:"accounts"`
	Pages          int       `json:"pages"`
	ConfirmedPages int       `json:"confirmed_pages"`
	SyncedAt       time.Time `json:"synced_at"`
}

// PreflightInput describes a planned mutation to validate without executing
type PreflightInput struct {
	Operation   string                 `json:"operation" validate:"required"`
	AdAccountID string                 `json:"ad_account_id,omitempty"`
	CampaignID  string                 `json:"campaign_id,omitempty"`
	AdSetID     string                 `json:"ad_set_id,omitempty"`
	AdID        string                 `json:"ad_id,omitempty"`
	Body        map[string]interface{} `json:"body,omitempty"`
}

// PreflightResult reports the would-be warnings of a planned mutation
type PreflightResult struct {
	Operation  string              `json:"operation"`
	Warnings   []policy.Warning    `json:"warnings"`
	Disclosure *models.DsaSettings `json:"disclosure,omitempty"`
}

// putBudget writes a budget bound in the quoted-number form the platform
// uses on the wire
func putBudget(body map[string]interface{}, key string, value *int64) {
	if value != nil {
		body[key] = strconv.FormatInt(*value, 10)
	}
}

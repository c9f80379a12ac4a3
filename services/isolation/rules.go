package isolation

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/adplane/ads-control-plane/models"
)

// keyKinds maps parameter and body key names to the resource kind their
// values carry. The table is fixed: a key missing from it is not treated
// as a resource id. Covers the snake_case, camelCase, and plural spellings
// the platform accepts.
var keyKinds = map[string]models.ResourceKind{
	"account_id":    models.ResourceKindAccount,
	"accountid":     models.ResourceKindAccount,
	"ad_account_id": models.ResourceKindAccount,
	"adaccountid":   models.ResourceKindAccount,
	"account":       models.ResourceKindAccount,

	"campaign_id":  models.ResourceKindCampaign,
	"campaignid":   models.ResourceKindCampaign,
	"campaign_ids": models.ResourceKindCampaign,
	"campaignids":  models.ResourceKindCampaign,

	"adset_id":   models.ResourceKindAdSet,
	"adsetid":    models.ResourceKindAdSet,
	"ad_set_id":  models.ResourceKindAdSet,
	"adset_ids":  models.ResourceKindAdSet,
	"adsetids":   models.ResourceKindAdSet,
	"ad_set_ids": models.ResourceKindAdSet,

	"ad_id":  models.ResourceKindAd,
	"adid":   models.ResourceKindAd,
	"ad_ids": models.ResourceKindAd,
	"adids":  models.ResourceKindAd,

	"page_id":  models.ResourceKindPage,
	"pageid":   models.ResourceKindPage,
	"page_ids": models.ResourceKindPage,
	"pageids":  models.ResourceKindPage,
	"actor_id": models.ResourceKindPage,
	"actorid":  models.ResourceKindPage,
}

// ExtractedID is a resource id found in a request, with where it was found
type ExtractedID struct {
	Kind   models.ResourceKind
	Value  string
	Origin string
}

// kindForKey resolves a key name against the rule table
func kindForKey(key string) (models.ResourceKind, bool) {
	kind, ok := keyKinds[strings.ToLower(key)]
	return kind, ok
}

// ExtractIDs walks query parameters and the request body and returns every
// resource id named by a key in the rule table. Nested objects and arrays
// are walked recursively, so ids inside structures like promoted_object or
// object_story_spec are found too.
func ExtractIDs(query url.Values, body map[string]interface{}) []ExtractedID {
	var found []ExtractedID
	seen := make(map[string]bool)

	add := func(kind models.ResourceKind, value, origin string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		dedup := string(kind) + ":" + value
		if seen[dedup] {
			return
		}
		seen[dedup] = true
		found = append(found, ExtractedID{Kind: kind, Value: value, Origin: origin})
	}

	for key, values := range query {
		kind, ok := kindForKey(key)
		if !ok {
			continue
		}
		for _, value := range values {
			add(kind, value, "query:"+key)
		}
	}

	for key, value := range body {
		walkValue(key, value, "body:"+key, add)
	}

	return found
}

// walkValue descends into a body value. When the key names a resource
// kind, scalar values (and scalars inside arrays) are collected; objects
// are walked further regardless so deeply nested ids are not missed.
func walkValue(key string, value interface{}, origin string, add func(models.ResourceKind, string, string)) {
	kind, keyed := kindForKey(key)

	switch v := value.(type) {
	case string:
		if keyed {
			add(kind, v, origin)
		}
	case json.Number:
		if keyed {
			add(kind, v.String(), origin)
		}
	case float64:
		if keyed {
			add(kind, strconv.FormatFloat(v, 'f', -1, 64), origin)
		}
	case int:
		if keyed {
			add(kind, strconv.Itoa(v), origin)
		}
	case int64:
		if keyed {
			add(kind, strconv.FormatInt(v, 10), origin)
		}
	case []interface{}:
		for i, element := range v {
			walkValue(key, element, origin+"["+strconv.Itoa(i)+"]", add)
		}
	case map[string]interface{}:
		for childKey, childValue := range v {
			walkValue(childKey, childValue, origin+"."+childKey, add)
		}
	}
}

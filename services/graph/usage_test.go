package graph

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUsage(t *testing.T) {
	h := http.Header{}
	h.Set("X-App-Usage", `{"call_count":28,"total_time":25,"total_cputime":24}`)
	h.Set("X-Ad-Account-Usage", `{"acc_id_util_pct":61.5,"reset_time_duration":300}`)
	h.Set("X-Business-Use-Case-Usage", `{"303112345":[{"type":"ads_management","call_count":100,"total_cputime":16,"total_time":20,"estimated_time_to_regain_access":10}]}`)

	usage := parseUsage(h)

	require.NotNil(t, usage)
	require.NotNil(t, usage.App)
	assert.Equal(t, 28, usage.App.CallCount)
	assert.Equal(t, 25, usage.App.TotalTime)
	assert.Equal(t, 24, usage.App.TotalCPUTime)

	require.NotNil(t, usage.AdAccount)
	assert.InDelta(t, 61.5, usage.AdAccount.UtilPct, 0.001)
	assert.Equal(t, 300, usage.AdAccount.ResetTimeDuration)

	entries := usage.BusinessUseCase["303112345"]
	require.Len(t, entries, 1)
	assert.Equal(t, "ads_management", entries[0].Type)
	assert.Equal(t, 10, entries[0].EstimatedTimeToRegainAccess)
}

func TestParseUsage_NoHeaders(t *testing.T) {
	assert.Nil(t, parseUsage(http.Header{}))
}

func TestParseUsage_MalformedHeaderSkipped(t *testing.T) {
	h := http.Header{}
	h.Set("X-App-Usage", `{{{`)
	h.Set("X-Ad-Account-Usage", `{"acc_id_util_pct":12}`)

	usage := parseUsage(h)

	require.NotNil(t, usage)
	assert.Nil(t, usage.App)
	require.NotNil(t, usage.AdAccount)
	assert.InDelta(t, 12.0, usage.AdAccount.UtilPct, 0.001)
}

func TestUsageReport_CooldownFor(t *testing.T) {
	usage := &UsageReport{
		BusinessUseCase: map[string][]BusinessUseCaseEntry{
			"123": {
				{Type: "ads_management", EstimatedTimeToRegainAccess: 5},
				{Type: "custom_audience", EstimatedTimeToRegainAccess: 12},
			},
			"999": {
				{Type: "ads_management", EstimatedTimeToRegainAccess: 60},
			},
		},
	}

	t.Run("max across entries for the account", func(t *testing.T) {
		assert.Equal(t, 12*time.Minute, usage.CooldownFor("123"))
	})

	t.Run("matches act_ prefixed ids", func(t *testing.T) {
		assert.Equal(t, 12*time.Minute, usage.CooldownFor("act_123"))
	})

	t.Run("other accounts unaffected", func(t *testing.T) {
		assert.Equal(t, time.Duration(0), usage.CooldownFor("555"))
	})

	t.Run("nil report", func(t *testing.T) {
		var nilUsage *UsageReport
		assert.Equal(t, time.Duration(0), nilUsage.CooldownFor("123"))
	})
}

func TestUsageReport_Throttled(t *testing.T) {
	assert.False(t, (&UsageReport{App: &AppUsage{CallCount: 50}}).Throttled())
	assert.True(t, (&UsageReport{App: &AppUsage{CallCount: 100}}).Throttled())
	assert.True(t, (&UsageReport{
		BusinessUseCase: map[string][]BusinessUseCaseEntry{
			"1": {{EstimatedTimeToRegainAccess: 3}},
		},
	}).Throttled())

	var nilUsage *UsageReport
	assert.False(t, nilUsage.Throttled())
}

func TestUsageReport_MaxUtilization(t *testing.T) {
	usage := &UsageReport{
		App:       &AppUsage{CallCount: 30, TotalTime: 45, TotalCPUTime: 10},
		AdAccount: &AdAccountUsage{UtilPct: 61.5},
		BusinessUseCase: map[string][]BusinessUseCaseEntry{
			"1": {{CallCount: 70, TotalTime: 20, TotalCPUTime: 15}},
		},
	}

	assert.InDelta(t, 70.0, usage.MaxUtilization(), 0.001)
}

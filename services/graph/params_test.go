package graph

import (
	"net/url"
	"testing"

	"github.com/adplane/ads-control-plane/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatusFilter(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    StatusFilter
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"single", "ACTIVE", StatusFilter{"ACTIVE"}, false},
		{"comma separated", "ACTIVE,PAUSED", StatusFilter{"ACTIVE", "PAUSED"}, false},
		{"lowercase and spaces", " active , paused ", StatusFilter{"ACTIVE", "PAUSED"}, false},
		{"duplicates collapse", "ACTIVE,PAUSED,ACTIVE", StatusFilter{"ACTIVE", "PAUSED"}, false},
		{"json array form", `["ACTIVE","WITH_ISSUES"]`, StatusFilter{"ACTIVE", "WITH_ISSUES"}, false},
		{"trailing comma", "ACTIVE,", StatusFilter{"ACTIVE"}, false},
		{"unknown status", "ACTIVE,BOGUS", nil, true},
		{"malformed json", `["ACTIVE"`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatusFilter(tt.raw)

			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, services.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusFilter_EncodeRoundTrip(t *testing.T) {
	filter, err := ParseStatusFilter("active,paused")
	require.NoError(t, err)

	encoded, ok := filter.Encode()
	require.True(t, ok)
	assert.Equal(t, `["ACTIVE","PAUSED"]`, encoded)

	// Parsing the wire form back yields the identical encoding.
	reparsed, err := ParseStatusFilter(encoded)
	require.NoError(t, err)
	reencoded, ok := reparsed.Encode()
	require.True(t, ok)
	assert.Equal(t, encoded, reencoded)
}

func TestStatusFilter_EmptyOmitted(t *testing.T) {
	var empty StatusFilter

	_, ok := empty.Encode()
	assert.False(t, ok)

	q := url.Values{}
	empty.Apply(q)
	_, present := q["effective_status"]
	assert.False(t, present, "empty filter must not send effective_status at all")
}

func TestStatusFilter_Apply(t *testing.T) {
	filter := StatusFilter{"ACTIVE", "CAMPAIGN_PAUSED"}

	q := url.Values{}
	q.Set("fields", "id,name")
	filter.Apply(q)

	assert.Equal(t, `["ACTIVE","CAMPAIGN_PAUSED"]`, q.Get("effective_status"))
	assert.Equal(t, "id,name", q.Get("fields"))
}

package compliance

import (
	"encoding/json"
	"testing"

	"github.com/adplane/ads-control-plane/models"
	"github.com/stretchr/testify/assert"
)

func TestIsEUTargeted(t *testing.T) {
	tests := []struct {
		name string
		spec *models.TargetingSpec
		want bool
	}{
		{
			"EU country",
			&models.TargetingSpec{GeoLocations: &models.GeoLocations{Countries: []string{"RO"}}},
			true,
		},
		{
			"non-EU country",
			&models.TargetingSpec{GeoLocations: &models.GeoLocations{Countries: []string{"US"}}},
			false,
		},
		{
			"mixed EU and non-EU",
			&models.TargetingSpec{GeoLocations: &models.GeoLocations{Countries: []string{"RO", "US"}}},
			true,
		},
		{
			"EEA country",
			&models.TargetingSpec{GeoLocations: &models.GeoLocations{Countries: []string{"NO"}}},
			true,
		},
		{
			"lowercase codes",
			&models.TargetingSpec{GeoLocations: &models.GeoLocations{Countries: []string{"de"}}},
			true,
		},
		{
			"excluded geo still counts",
			&models.TargetingSpec{ExcludedGeoLocations: &models.GeoLocations{Countries: []string{"FR"}}},
			true,
		},
		{
			"countries nested in flexible spec",
			&models.TargetingSpec{FlexibleSpec: []json.RawMessage{
				json.RawMessage(`{"geo_locations":{"countries":["IT"]}}`),
			}},
			true,
		},
		{"no geo at all", &models.TargetingSpec{AgeMin: 21}, false},
		{"nil spec", nil, false},
		{"UK is not EU", &models.TargetingSpec{GeoLocations: &models.GeoLocations{Countries: []string{"GB"}}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsEUTargeted(tt.spec))
		})
	}
}

func TestCollectCountries(t *testing.T) {
	spec := &models.TargetingSpec{
		GeoLocations:         &models.GeoLocations{Countries: []string{"us", "RO"}},
		ExcludedGeoLocations: &models.GeoLocations{Countries: []string{"FR", "RO"}},
		FlexibleSpec: []json.RawMessage{
			json.RawMessage(`{"geo_locations":{"countries":["JP"]}}`),
		},
	}

	codes := CollectCountries(spec)
	assert.ElementsMatch(t, []string{"US", "RO", "FR", "JP"}, codes)
}

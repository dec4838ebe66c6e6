package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/internmap/internal/errors"
	"github.com/hpungsan/internmap/internal/profile"
)

func phys(id, field string, tt *profile.TravelTime) profile.Profile {
	return profile.Profile{
		ID:          id,
		Field:       field,
		Coordinates: &profile.Coordinates{Lat: 47.6, Lng: -122.2},
		TravelTime:  tt,
	}
}

func rem(id, field string) profile.Profile {
	return profile.Profile{ID: id, Field: field, IsRemote: true}
}

func ids(ps []profile.Profile) []string {
	out := []string{}
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func fixture() []profile.Profile {
	return []profile.Profile{
		phys("p1", "Education", &profile.TravelTime{Driving: 10, Walking: 40, Bus: 20}),
		rem("r1", "Business"),
		phys("p2", "Healthcare", &profile.TravelTime{Driving: 30}),
		phys("p3", "Education", nil),
		rem("r2", "Education"),
		phys("p4", "Engineering", &profile.TravelTime{Driving: 45, Bus: 5}),
	}
}

func TestApply_AllPassesEverythingInOrder(t *testing.T) {
	res := Apply(fixture(), Options{LocationType: LocationAll, TravelMode: TravelAll, MaxMinutes: 30})
	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, ids(res.MapEligible))
	assert.Equal(t, []string{"r1", "r2"}, ids(res.ListEligible))
}

func TestApply_PhysicalOnly(t *testing.T) {
	in := fixture()
	res := Apply(in, Options{LocationType: LocationPhysical, TravelMode: TravelAll})

	assert.Equal(t, []string{"p1", "p2", "p3", "p4"}, ids(res.MapEligible))
	assert.Empty(t, res.ListEligible)
	assert.Equal(t, in[0], res.MapEligible[0])
}

func TestApply_RemoteOnly(t *testing.T) {
	res := Apply(fixture(), Options{LocationType: LocationRemote, TravelMode: TravelDriving, MaxMinutes: 1})
	assert.Empty(t, res.MapEligible)
	assert.Equal(t, []string{"r1", "r2"}, ids(res.ListEligible))

	res = Apply(fixture(), Options{LocationType: LocationRemote, Fields: []string{"Education"}})
	assert.Empty(t, res.MapEligible)
	assert.Equal(t, []string{"r2"}, ids(res.ListEligible))
}

func TestApply_TravelTimeBoundary(t *testing.T) {
	in := []profile.Profile{
		phys("at", "Other", &profile.TravelTime{Driving: 30}),
		phys("over", "Other", &profile.TravelTime{Driving: 31}),
		phys("zero", "Other", &profile.TravelTime{Driving: 0, Walking: 5}),
		phys("nil", "Other", nil),
	}
	res := Apply(in, Options{LocationType: LocationAll, TravelMode: TravelDriving, MaxMinutes: 30})
	assert.Equal(t, []string{"at"}, ids(res.MapEligible))

	res = Apply(in, Options{LocationType: LocationAll, TravelMode: TravelDriving, MaxMinutes: 10000})
	assert.NotContains(t, ids(res.MapEligible), "zero")
}

func TestApply_ModeSelectsComponent(t *testing.T) {
	res := Apply(fixture(), Options{TravelMode: TravelBus, MaxMinutes: 10})
	assert.Equal(t, []string{"p4"}, ids(res.MapEligible))
	assert.Equal(t, []string{"r1", "r2"}, ids(res.ListEligible), "remote records ignore travel time")

	res = Apply(fixture(), Options{TravelMode: TravelWalking, MaxMinutes: 40})
	assert.Equal(t, []string{"p1"}, ids(res.MapEligible))
}

func TestApply_Fields(t *testing.T) {
	res := Apply(fixture(), Options{Fields: []string{"Education", "Engineering"}})
	assert.Equal(t, []string{"p1", "p3", "p4"}, ids(res.MapEligible))
	assert.Equal(t, []string{"r2"}, ids(res.ListEligible))
}

func TestApply_Idempotent(t *testing.T) {
	opts := Options{LocationType: LocationAll, TravelMode: TravelDriving, MaxMinutes: 30, Fields: []string{"Education"}}
	assert.Equal(t, Apply(fixture(), opts), Apply(fixture(), opts))
}

func TestApply_EmptyInput(t *testing.T) {
	res := Apply(nil, Options{})
	assert.NotNil(t, res.MapEligible)
	assert.NotNil(t, res.ListEligible)
	assert.Empty(t, res.MapEligible)
}

func TestParseOptions_Defaults(t *testing.T) {
	opts, err := ParseOptions("", "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, Options{LocationType: LocationAll, TravelMode: TravelAll, MaxMinutes: DefaultMaxMinutes}, opts)
}

func TestParseOptions_Values(t *testing.T) {
	opts, err := ParseOptions("Physical", " driving ", "45", []string{"Education, Healthcare", "Other"})
	require.NoError(t, err)
	assert.Equal(t, LocationPhysical, opts.LocationType)
	assert.Equal(t, TravelDriving, opts.TravelMode)
	assert.Equal(t, 45, opts.MaxMinutes)
	assert.Equal(t, []string{"Education", "Healthcare", "Other"}, opts.Fields)
}

func TestParseOptions_Invalid(t *testing.T) {
	tests := []struct {
		name               string
		loc, mode, minutes string
		fields             []string
	}{
		{"location", "underwater", "", "", nil},
		{"mode", "", "teleport", "", nil},
		{"zero minutes", "", "", "0", nil},
		{"negative minutes", "", "", "-5", nil},
		{"non-numeric minutes", "", "", "soon", nil},
		{"unknown field", "", "", "", []string{"Astrology"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOptions(tt.loc, tt.mode, tt.minutes, tt.fields)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
		})
	}
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildingRisk_Highest(t *testing.T) {
	cases := []struct {
		name string
		risk BuildingRisk
		want HazardTier
	}{
		{"all dry", BuildingRisk{}, TierNone},
		{"medium only", BuildingRisk{Medium: true}, TierMedium},
		{"high beats medium", BuildingRisk{High: true, Medium: true}, TierHigh},
		{"extreme beats all", BuildingRisk{Extreme: true, High: true, Medium: true}, TierExtreme},
		{"extreme alone", BuildingRisk{Extreme: true}, TierExtreme},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.risk.Highest())
		})
	}
}

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers {
		got, ok := ParseTier(string(tier))
		require.True(t, ok)
		assert.Equal(t, tier, got)
	}

	_, ok := ParseTier("none")
	assert.False(t, ok)
	_, ok = ParseTier("EXTREME")
	assert.False(t, ok)
}

func TestRoadRisk(t *testing.T) {
	t.Run("affected length never exceeds total", func(t *testing.T) {
		r := RoadRisk{SampleCount: 4, AffectedSamples: 3, TotalLengthKm: 0.12}
		assert.LessOrEqual(t, r.AffectedLengthKm(), r.TotalLengthKm)
		assert.InDelta(t, 0.09, r.AffectedLengthKm(), 1e-9)
	})

	t.Run("majority implies partial", func(t *testing.T) {
		r := RoadRisk{SampleCount: 4, AffectedSamples: 3}
		assert.True(t, r.IsMajorityFlooded())
		assert.True(t, r.IsPartiallyFlooded())
	})

	t.Run("exactly half is not a majority", func(t *testing.T) {
		r := RoadRisk{SampleCount: 4, AffectedSamples: 2}
		assert.False(t, r.IsMajorityFlooded())
		assert.True(t, r.IsPartiallyFlooded())
	})

	t.Run("unsampled segment", func(t *testing.T) {
		r := RoadRisk{}
		assert.Equal(t, 0.0, r.AffectedFraction())
		assert.False(t, r.IsPartiallyFlooded())
	})
}

func TestResamplePolyline(t *testing.T) {
	// 0.00107918 degrees of latitude is 120 m of haversine distance.
	const dLat120m = 0.12 / (earthRadiusKm * 3.14159265358979 / 180)

	t.Run("120m segment yields samples at 0, 50, 100, 120", func(t *testing.T) {
		a := LatLng{Lat: 52.0, Lng: 13.0}
		b := LatLng{Lat: 52.0 + dLat120m, Lng: 13.0}
		require.InDelta(t, 0.12, Haversine(a, b), 1e-4)

		samples := ResamplePolyline([]LatLng{a, b})
		require.Len(t, samples, 4)
		assert.Equal(t, a, samples[0])
		assert.Equal(t, b, samples[3])
		assert.InDelta(t, 0.05, Haversine(a, samples[1]), 1e-4)
		assert.InDelta(t, 0.10, Haversine(a, samples[2]), 1e-4)
	})

	t.Run("every original vertex is kept", func(t *testing.T) {
		points := []LatLng{
			{Lat: 52.0, Lng: 13.0},
			{Lat: 52.0 + dLat120m, Lng: 13.0},
			{Lat: 52.0 + dLat120m, Lng: 13.001},
		}
		samples := ResamplePolyline(points)
		assert.GreaterOrEqual(t, len(samples), len(points))
		for _, p := range points {
			assert.Contains(t, samples, p)
		}
	})

	t.Run("short segment keeps only its endpoints", func(t *testing.T) {
		a := LatLng{Lat: 52.0, Lng: 13.0}
		b := LatLng{Lat: 52.00001, Lng: 13.0}
		assert.Equal(t, []LatLng{a, b}, ResamplePolyline([]LatLng{a, b}))
	})

	t.Run("degenerate input passes through", func(t *testing.T) {
		single := []LatLng{{Lat: 52.0, Lng: 13.0}}
		assert.Equal(t, single, ResamplePolyline(single))
		assert.Nil(t, ResamplePolyline(nil))
	})
}

func TestPolylineLengthKm(t *testing.T) {
	points := []LatLng{
		{Lat: 52.0, Lng: 13.0},
		{Lat: 52.0, Lng: 13.1},
		{Lat: 52.0, Lng: 13.2},
	}
	want := Haversine(points[0], points[1]) + Haversine(points[1], points[2])
	assert.InDelta(t, want, PolylineLengthKm(points), 1e-12)
	assert.Equal(t, 0.0, PolylineLengthKm(points[:1]))
}

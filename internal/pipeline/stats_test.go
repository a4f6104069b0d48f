package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodscope/flood-exposure-service/internal/domain"
)

func taggedBuildings() []domain.Building {
	return []domain.Building{
		{ID: 1, Type: "residential", Category: domain.CategoryResidential, Risk: domain.BuildingRisk{Extreme: true, High: true, Medium: true}},
		{ID: 2, Type: "residential", Category: domain.CategoryResidential, Risk: domain.BuildingRisk{Medium: true}},
		{ID: 3, Type: "retail", Category: domain.CategoryCommercial, Risk: domain.BuildingRisk{}},
		{ID: 4, Type: "yes", Category: domain.CategoryOther, Risk: domain.BuildingRisk{High: true, Medium: true}},
		{ID: 5, Type: "", Category: domain.CategoryOther, Risk: domain.BuildingRisk{}},
	}
}

func TestAggregateBuildings(t *testing.T) {
	stats := AggregateBuildings(taggedBuildings())

	t.Run("totals and per-tier counts", func(t *testing.T) {
		assert.Equal(t, 5, stats.Total)
		assert.Equal(t, 1, stats.Affected.Extreme)
		assert.Equal(t, 2, stats.Affected.High)
		assert.Equal(t, 3, stats.Affected.Medium)
		assert.Equal(t, 3, stats.Affected.Any)
	})

	t.Run("category breakdown sums to totals", func(t *testing.T) {
		var total, affected int
		for _, c := range stats.ByCategory {
			total += c.Total
			affected += c.Affected
		}
		assert.Equal(t, stats.Total, total)
		assert.Equal(t, stats.Affected.Any, affected)
	})

	t.Run("type sentinels", func(t *testing.T) {
		assert.Equal(t, Count{Total: 1, Affected: 1}, stats.ByType["yes"], "generic yes preserved verbatim")
		assert.Equal(t, Count{Total: 1, Affected: 0}, stats.ByType["unknown"], "absent type mapped to unknown")
		assert.Equal(t, Count{Total: 2, Affected: 2}, stats.ByType["residential"])
	})

	t.Run("empty input", func(t *testing.T) {
		empty := AggregateBuildings(nil)
		assert.Equal(t, 0, empty.Total)
		assert.Empty(t, empty.ByCategory)
	})
}

func TestAggregateRoads(t *testing.T) {
	roads := []domain.RoadSegment{
		{ID: 10, Class: "primary", Name: "Brückenstraße", IsBridge: true,
			Risk: domain.RoadRisk{Tier: domain.TierHigh, SampleCount: 4, AffectedSamples: 3, TotalLengthKm: 0.12}},
		{ID: 11, Class: "residential",
			Risk: domain.RoadRisk{Tier: domain.TierHigh, SampleCount: 10, AffectedSamples: 2, TotalLengthKm: 0.4}},
		{ID: 12, Class: "primary", IsTunnel: true,
			Risk: domain.RoadRisk{Tier: domain.TierHigh, SampleCount: 6, AffectedSamples: 0, TotalLengthKm: 0.25}},
	}

	stats := AggregateRoads(roads, domain.TierHigh)

	t.Run("rollup", func(t *testing.T) {
		assert.Equal(t, 3, stats.Total)
		assert.Equal(t, 2, stats.Affected)
		assert.Equal(t, 1, stats.MajorityFlooded)
		assert.InDelta(t, 0.77, stats.TotalLengthKm, 1e-9)
		assert.InDelta(t, 0.09+0.08, stats.AffectedLengthKm, 1e-9)
		assert.LessOrEqual(t, stats.AffectedLengthKm, stats.TotalLengthKm)
	})

	t.Run("class breakdown", func(t *testing.T) {
		assert.Equal(t, Count{Total: 2, Affected: 1}, stats.ByClass["primary"])
		assert.Equal(t, Count{Total: 1, Affected: 1}, stats.ByClass["residential"])
	})

	t.Run("critical infrastructure is majority-flooded bridges and tunnels only", func(t *testing.T) {
		require.Len(t, stats.Critical, 1)
		c := stats.Critical[0]
		assert.Equal(t, int64(10), c.ID)
		assert.Equal(t, "bridge", c.Kind)
		assert.Equal(t, "Brückenstraße", c.Name)
		assert.Equal(t, 75.0, c.AffectedPercent)
		assert.Equal(t, 0.1, c.AffectedLengthKm, "rounded to one decimal")
	})

	t.Run("dry tunnel is not critical", func(t *testing.T) {
		for _, c := range stats.Critical {
			assert.NotEqual(t, int64(12), c.ID)
		}
	})
}

func TestAggregateParcels(t *testing.T) {
	parcels := []domain.LandParcel{
		{ID: "p1", Category: "forest", Risk: domain.ParcelRisk{Tier: domain.TierHigh, Flooded: true}},
		{ID: "p2", Category: "forest", Risk: domain.ParcelRisk{Tier: domain.TierHigh}},
		{ID: "p3", Category: "urban", Risk: domain.ParcelRisk{Tier: domain.TierHigh, Flooded: true}},
	}

	stats := AggregateParcels(parcels, domain.TierHigh)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Affected)
	assert.Equal(t, Count{Total: 2, Affected: 1}, stats.ByCategory["forest"])
	assert.Equal(t, Count{Total: 1, Affected: 1}, stats.ByCategory["urban"])
}

package pipeline

import (
	"math"

	"github.com/floodscope/flood-exposure-service/internal/domain"
)

// unknownType is the sentinel for features with an absent type tag. The OSM
// generic "yes" value is preserved verbatim so operators can see it.
const unknownType = "unknown"

// Count is a (total, affected) pair within a breakdown map.
type Count struct {
	Total    int `json:"total"`
	Affected int `json:"affected"`
}

// TierCounts is the number of features affected per hazard tier, plus the
// count affected by any tier at all.
type TierCounts struct {
	Extreme int `json:"extreme"`
	High    int `json:"high"`
	Medium  int `json:"medium"`
	Any     int `json:"any"`
}

// ByTier returns the count for a single tier.
func (c TierCounts) ByTier(t domain.HazardTier) int {
	switch t {
	case domain.TierExtreme:
		return c.Extreme
	case domain.TierHigh:
		return c.High
	case domain.TierMedium:
		return c.Medium
	}
	return 0
}

// BuildingStats is the rollup over risk-tagged buildings.
type BuildingStats struct {
	Total      int              `json:"total"`
	Affected   TierCounts       `json:"affected"`
	ByCategory map[string]Count `json:"byCategory"`
	ByType     map[string]Count `json:"byType"`
}

// AggregateBuildings reduces tagged buildings to a BuildingStats. Pure:
// it never mutates its input.
func AggregateBuildings(buildings []domain.Building) BuildingStats {
	stats := BuildingStats{
		Total:      len(buildings),
		ByCategory: make(map[string]Count),
		ByType:     make(map[string]Count),
	}

	for _, b := range buildings {
		affected := b.Risk.Highest() != domain.TierNone
		if b.Risk.Extreme {
			stats.Affected.Extreme++
		}
		if b.Risk.High {
			stats.Affected.High++
		}
		if b.Risk.Medium {
			stats.Affected.Medium++
		}
		if affected {
			stats.Affected.Any++
		}

		typ := b.Type
		if typ == "" {
			typ = unknownType
		}
		bump(stats.ByCategory, string(b.Category), affected)
		bump(stats.ByType, typ, affected)
	}
	return stats
}

// CriticalSegment identifies a majority-flooded bridge or tunnel.
type CriticalSegment struct {
	ID               int64   `json:"id"`
	Name             string  `json:"name,omitempty"`
	Class            string  `json:"class"`
	Kind             string  `json:"kind"` // "bridge" or "tunnel"
	AffectedPercent  float64 `json:"affectedPercent"`
	AffectedLengthKm float64 `json:"affectedLengthKm"`
}

// RoadStats is the rollup over risk-tagged road segments for one tier.
type RoadStats struct {
	Tier             domain.HazardTier `json:"tier"`
	Total            int               `json:"total"`
	Affected         int               `json:"affected"` // partially flooded
	MajorityFlooded  int               `json:"majorityFlooded"`
	TotalLengthKm    float64           `json:"totalLengthKm"`
	AffectedLengthKm float64           `json:"affectedLengthKm"`
	ByClass          map[string]Count  `json:"byClass"`
	Critical         []CriticalSegment `json:"critical,omitempty"`
}

// AggregateRoads reduces tagged road segments to a RoadStats, collecting
// majority-flooded bridges and tunnels as critical infrastructure.
func AggregateRoads(roads []domain.RoadSegment, tier domain.HazardTier) RoadStats {
	stats := RoadStats{
		Tier:    tier,
		Total:   len(roads),
		ByClass: make(map[string]Count),
	}

	for _, r := range roads {
		affected := r.Risk.IsPartiallyFlooded()
		stats.TotalLengthKm += r.Risk.TotalLengthKm
		stats.AffectedLengthKm += r.Risk.AffectedLengthKm()
		if affected {
			stats.Affected++
		}
		if r.Risk.IsMajorityFlooded() {
			stats.MajorityFlooded++
		}

		class := r.Class
		if class == "" {
			class = unknownType
		}
		bump(stats.ByClass, class, affected)

		if (r.IsBridge || r.IsTunnel) && r.Risk.IsMajorityFlooded() {
			kind := "bridge"
			if r.IsTunnel {
				kind = "tunnel"
			}
			stats.Critical = append(stats.Critical, CriticalSegment{
				ID:               r.ID,
				Name:             r.Name,
				Class:            r.Class,
				Kind:             kind,
				AffectedPercent:  round1(r.Risk.AffectedFraction() * 100),
				AffectedLengthKm: round1(r.Risk.AffectedLengthKm()),
			})
		}
	}
	return stats
}

// ParcelStats is the rollup over risk-tagged land parcels for one tier.
type ParcelStats struct {
	Tier       domain.HazardTier `json:"tier"`
	Total      int               `json:"total"`
	Affected   int               `json:"affected"`
	ByCategory map[string]Count  `json:"byCategory"`
}

// AggregateParcels reduces tagged land parcels to a ParcelStats.
func AggregateParcels(parcels []domain.LandParcel, tier domain.HazardTier) ParcelStats {
	stats := ParcelStats{
		Tier:       tier,
		Total:      len(parcels),
		ByCategory: make(map[string]Count),
	}
	for _, p := range parcels {
		if p.Risk.Flooded {
			stats.Affected++
		}
		bump(stats.ByCategory, p.Category, p.Risk.Flooded)
	}
	return stats
}

func bump(m map[string]Count, key string, affected bool) {
	c := m[key]
	c.Total++
	if affected {
		c.Affected++
	}
	m[key] = c
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

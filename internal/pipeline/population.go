package pipeline

import (
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

// Commune is an administrative boundary polygon (Web-Mercator) carrying a
// census population count.
type Commune struct {
	Name       string
	Population int
	Polygon    orb.Polygon
}

// CommuneShare is a commune contributing to an area's population total.
type CommuneShare struct {
	Name        string `json:"name"`
	Population  int    `json:"population"`
	EstimatedIn int    `json:"estimatedInArea"`
}

// PopulationEstimate is the apportioned population exposure for one area.
type PopulationEstimate struct {
	TotalPopulation int                       `json:"totalPopulation"`
	DensityPerKm2   int                       `json:"densityPerKm2"`
	AffectedByTier  map[domain.HazardTier]int `json:"affectedByTier"`
	Communes        []CommuneShare            `json:"communes"`
}

// ComputeExposure tests the projected analysis area against every commune
// polygon. Any non-empty intersection counts the commune's entire census
// population toward the area total; there is no area-weighted clipping.
// This is a documented approximation, kept pending confirmation of the
// intended semantics. A commune whose geometry cannot be tested is skipped
// and logged, never fatal.
func ComputeExposure(area domain.AnalysisArea, communes []Commune, logger *slog.Logger, metrics *observability.Metrics) PopulationEstimate {
	ring := projectRing(area)

	est := PopulationEstimate{AffectedByTier: make(map[domain.HazardTier]int)}
	for _, c := range communes {
		intersects, err := communeIntersects(ring, c)
		if err != nil {
			logger.Warn("skipping commune with bad geometry", "commune", c.Name, "error", err)
			metrics.CommunesSkipped.Inc()
			continue
		}
		if !intersects {
			continue
		}

		est.TotalPopulation += c.Population
		est.Communes = append(est.Communes, CommuneShare{
			Name:        c.Name,
			Population:  c.Population,
			EstimatedIn: c.Population, // full-overlap apportionment
		})
	}

	est.DensityPerKm2 = Density(est.TotalPopulation, area.AreaKm2())
	return est
}

// communeIntersects reports whether the projected area ring and the commune
// polygon overlap: either contains a vertex of the other, or any pair of
// edges crosses.
func communeIntersects(areaRing orb.Ring, c Commune) (bool, error) {
	if len(c.Polygon) == 0 || len(c.Polygon[0]) < 4 {
		return false, &domain.GeometryError{Reason: "commune polygon is degenerate"}
	}
	if len(areaRing) < 4 {
		return false, &domain.GeometryError{Reason: "analysis ring is degenerate"}
	}

	for _, p := range areaRing {
		if planar.PolygonContains(c.Polygon, p) {
			return true, nil
		}
	}
	areaPoly := orb.Polygon{areaRing}
	for _, p := range c.Polygon[0] {
		if planar.PolygonContains(areaPoly, p) {
			return true, nil
		}
	}

	outer := c.Polygon[0]
	for i := 0; i < len(areaRing)-1; i++ {
		for j := 0; j < len(outer)-1; j++ {
			if segmentsCross(areaRing[i], areaRing[i+1], outer[j], outer[j+1]) {
				return true, nil
			}
		}
	}
	return false, nil
}

// segmentsCross reports proper intersection of segments ab and cd via
// orientation tests.
func segmentsCross(a, b, c, d orb.Point) bool {
	o1 := orientation(a, b, c)
	o2 := orientation(a, b, d)
	o3 := orientation(c, d, a)
	o4 := orientation(c, d, b)
	return o1*o2 < 0 && o3*o4 < 0
}

func orientation(a, b, c orb.Point) float64 {
	v := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// projectRing converts the analysis ring to Web-Mercator orb geometry.
func projectRing(area domain.AnalysisArea) orb.Ring {
	vertices := area.Ring()
	ring := make(orb.Ring, len(vertices))
	for i, v := range vertices {
		p := domain.Project(v.Lat, v.Lng)
		ring[i] = orb.Point{p.X, p.Y}
	}
	return ring
}

// ApportionByRisk estimates the affected population per tier in proportion
// to building-level risk ratios: round(total * affected/total buildings).
// Callers must guard against totalBuildings == 0; an empty building set
// makes the ratio undefined.
func ApportionByRisk(totalPopulation, totalBuildings int, affected TierCounts) map[domain.HazardTier]int {
	out := make(map[domain.HazardTier]int, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		ratio := float64(affected.ByTier(tier)) / float64(totalBuildings)
		out[tier] = int(math.Round(float64(totalPopulation) * ratio))
	}
	return out
}

// Density is population per square kilometer, rounded; a non-positive area
// yields 0 by definition rather than an error.
func Density(population int, areaKm2 float64) int {
	if areaKm2 <= 0 {
		return 0
	}
	return int(math.Round(float64(population) / areaKm2))
}

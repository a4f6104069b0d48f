package domain

// HazardTier identifies one of the three flood-hazard recurrence classes,
// ordered by descending severity: extreme > high > medium.
type HazardTier string

const (
	TierExtreme HazardTier = "extreme"
	TierHigh    HazardTier = "high"
	TierMedium  HazardTier = "medium"

	// TierNone marks a feature untouched by any evaluated tier.
	TierNone HazardTier = "none"
)

// Tiers lists the hazard tiers in severity order, most severe first.
var Tiers = []HazardTier{TierExtreme, TierHigh, TierMedium}

// ParseTier validates a tier name.
func ParseTier(s string) (HazardTier, bool) {
	switch HazardTier(s) {
	case TierExtreme, TierHigh, TierMedium:
		return HazardTier(s), true
	}
	return "", false
}

// BuildingRisk holds the per-tier classification of a building. All three
// tiers are always evaluated for buildings.
type BuildingRisk struct {
	Extreme bool `json:"extreme"`
	High    bool `json:"high"`
	Medium  bool `json:"medium"`
}

// Flooded reports the flag for one tier.
func (r BuildingRisk) Flooded(t HazardTier) bool {
	switch t {
	case TierExtreme:
		return r.Extreme
	case TierHigh:
		return r.High
	case TierMedium:
		return r.Medium
	}
	return false
}

// Highest returns the most severe tier whose flag is set, or TierNone.
func (r BuildingRisk) Highest() HazardTier {
	for _, t := range Tiers {
		if r.Flooded(t) {
			return t
		}
	}
	return TierNone
}

// ParcelRisk is the single-tier classification of a land parcel. Only the
// active tier is evaluated for parcels.
type ParcelRisk struct {
	Tier    HazardTier `json:"tier"`
	Flooded bool       `json:"flooded"`
}

// RoadRisk holds the sampled classification of a road segment against the
// active tier.
type RoadRisk struct {
	Tier            HazardTier `json:"tier"`
	SampleCount     int        `json:"sampleCount"`
	AffectedSamples int        `json:"affectedSamples"`
	TotalLengthKm   float64    `json:"totalLengthKm"`
}

// AffectedFraction is affected samples over total samples, 0 for an
// unsampled segment.
func (r RoadRisk) AffectedFraction() float64 {
	if r.SampleCount == 0 {
		return 0
	}
	return float64(r.AffectedSamples) / float64(r.SampleCount)
}

// AffectedLengthKm apportions the total length by the affected fraction.
func (r RoadRisk) AffectedLengthKm() float64 {
	return r.TotalLengthKm * r.AffectedFraction()
}

// IsPartiallyFlooded reports whether any sample point was flooded.
func (r RoadRisk) IsPartiallyFlooded() bool { return r.AffectedSamples > 0 }

// IsMajorityFlooded reports whether more than half the sample points were
// flooded.
func (r RoadRisk) IsMajorityFlooded() bool { return r.AffectedFraction() > 0.5 }

// roadSampleIntervalKm is the spacing of resampled classification points
// along a road polyline.
const roadSampleIntervalKm = 0.05

// ResamplePolyline walks the polyline and returns classification points
// spaced roadSampleIntervalKm apart along each segment, always including
// every original vertex regardless of interval alignment. A polyline of
// fewer than two points is returned as-is.
func ResamplePolyline(points []LatLng) []LatLng {
	if len(points) < 2 {
		return points
	}

	samples := make([]LatLng, 0, len(points)*2)
	for i := 0; i < len(points)-1; i++ {
		a, b := points[i], points[i+1]
		samples = append(samples, a)

		dist := Haversine(a, b)
		for d := roadSampleIntervalKm; d < dist; d += roadSampleIntervalKm {
			f := d / dist
			samples = append(samples, LatLng{
				Lat: a.Lat + (b.Lat-a.Lat)*f,
				Lng: a.Lng + (b.Lng-a.Lng)*f,
			})
		}
	}
	return append(samples, points[len(points)-1])
}

// PolylineLengthKm sums the haversine distances between consecutive original
// vertices.
func PolylineLengthKm(points []LatLng) float64 {
	var total float64
	for i := 0; i < len(points)-1; i++ {
		total += Haversine(points[i], points[i+1])
	}
	return total
}

package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

// TierSamples holds the loaded rasters for one analysis run, keyed by tier.
type TierSamples map[domain.HazardTier]domain.RasterSample

// Tagger classifies normalized features against loaded raster samples. A
// tagging pass is pure in-memory pixel math; every feature in a pass is
// classified against the same static raster capture.
type Tagger struct {
	logger   *slog.Logger
	metrics  *observability.Metrics
	progress *publisher
}

// TagBuildings evaluates all three hazard tiers for every building. The
// medium/high flags feed the statistics rollup even when the UI displays a
// single tier.
func (t *Tagger) TagBuildings(buildings []domain.Building, samples TierSamples) []domain.Building {
	tagged := make([]domain.Building, len(buildings))
	for i, b := range buildings {
		c := b.Centroid
		b.Risk = domain.BuildingRisk{
			Extreme: samples[domain.TierExtreme].IsFlooded(c.Lat, c.Lng),
			High:    samples[domain.TierHigh].IsFlooded(c.Lat, c.Lng),
			Medium:  samples[domain.TierMedium].IsFlooded(c.Lat, c.Lng),
		}
		tagged[i] = b

		if done := i + 1; done%buildingProgressEvery == 0 || done == len(buildings) {
			t.progress.emit(StageBuildings, done, len(buildings),
				fmt.Sprintf("classified %d of %d buildings", done, len(buildings)))
		}
	}

	t.metrics.FeaturesTagged.WithLabelValues("building").Add(float64(len(tagged)))
	t.metrics.FeatureCount.WithLabelValues("building").Observe(float64(len(tagged)))
	return tagged
}

// TagRoads resamples each segment at a fixed interval along its haversine
// length and classifies every sample point against the active tier.
func (t *Tagger) TagRoads(roads []domain.RoadSegment, sample domain.RasterSample) []domain.RoadSegment {
	tagged := make([]domain.RoadSegment, len(roads))
	for i, r := range roads {
		points := domain.ResamplePolyline(r.Points)

		affected := 0
		for _, p := range points {
			if sample.IsFlooded(p.Lat, p.Lng) {
				affected++
			}
		}

		r.Risk = domain.RoadRisk{
			Tier:            sample.Tier,
			SampleCount:     len(points),
			AffectedSamples: affected,
			TotalLengthKm:   domain.PolylineLengthKm(r.Points),
		}
		tagged[i] = r

		if done := i + 1; done%roadProgressEvery == 0 || done == len(roads) {
			t.progress.emit(StageRoads, done, len(roads),
				fmt.Sprintf("classified %d of %d road segments", done, len(roads)))
		}
	}

	t.metrics.FeaturesTagged.WithLabelValues("road").Add(float64(len(tagged)))
	t.metrics.FeatureCount.WithLabelValues("road").Observe(float64(len(tagged)))
	return tagged
}

// TagParcels classifies each parcel centroid against the active tier only;
// parcel volumes are much larger than building volumes and the remaining
// tiers are never displayed for land cover.
func (t *Tagger) TagParcels(parcels []domain.LandParcel, sample domain.RasterSample) []domain.LandParcel {
	tagged := make([]domain.LandParcel, len(parcels))
	for i, p := range parcels {
		p.Risk = domain.ParcelRisk{
			Tier:    sample.Tier,
			Flooded: sample.IsFlooded(p.Centroid.Lat, p.Centroid.Lng),
		}
		tagged[i] = p

		if done := i + 1; done%roadProgressEvery == 0 || done == len(parcels) {
			t.progress.emit(StageParcels, done, len(parcels),
				fmt.Sprintf("classified %d of %d parcels", done, len(parcels)))
		}
	}

	t.metrics.FeaturesTagged.WithLabelValues("parcel").Add(float64(len(tagged)))
	t.metrics.FeatureCount.WithLabelValues("parcel").Observe(float64(len(tagged)))
	return tagged
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

// LargePassThreshold is the feature count above which the pipeline offers
// the caller one chance to abort before committing to a tagging pass. Once
// a pass starts it runs to completion.
const LargePassThreshold = 1000

// ErrRunDeclined is returned when the caller's large-pass gate aborts the
// run before tagging begins.
var ErrRunDeclined = errors.New("analysis declined at large-pass gate")

// FeatureSource returns the element graph for an analysis area.
type FeatureSource interface {
	FetchElements(ctx context.Context, area domain.AnalysisArea) (domain.ElementGraph, error)
}

// RasterSource loads one hazard-tier raster for a bounding box.
type RasterSource interface {
	LoadTier(ctx context.Context, tier domain.HazardTier, bounds domain.BoundingBox) (domain.RasterSample, error)
}

// ParcelSource returns land parcels within a geographic bounding box.
type ParcelSource interface {
	FetchParcels(ctx context.Context, bounds domain.BoundingBox) ([]domain.LandParcel, error)
}

// CommuneSource returns the cached commune census collection.
type CommuneSource interface {
	Communes(ctx context.Context) ([]Commune, error)
}

// Result is the output of one analysis run. Buildings are mandatory; a nil
// Roads, Parcels, or Population section means that enrichment path was
// unavailable and the run degraded per the partial-success contract.
type Result struct {
	RunID      string            `json:"runId"`
	ActiveTier domain.HazardTier `json:"activeTier"`
	StartedAt  time.Time         `json:"startedAt"`
	FinishedAt time.Time         `json:"finishedAt"`
	AreaKm2    float64           `json:"areaKm2"`

	Buildings  BuildingStats       `json:"buildings"`
	Roads      *RoadStats          `json:"roads,omitempty"`
	Parcels    *ParcelStats        `json:"parcels,omitempty"`
	Population *PopulationEstimate `json:"population,omitempty"`

	// TaggedBuildings backs the exported CSV artifact.
	TaggedBuildings []domain.Building `json:"-"`
}

// Options tune one analysis run.
type Options struct {
	// ActiveTier is the tier used for road and parcel classification.
	// Buildings always evaluate all three tiers.
	ActiveTier domain.HazardTier

	// Progress, when non-nil, receives progress events. The channel is
	// closed when the run ends. Use a buffered channel; events that would
	// block are dropped.
	Progress chan<- Progress

	// ConfirmLargePass, when non-nil, is consulted once before a tagging
	// pass whose feature count exceeds LargePassThreshold. Returning false
	// aborts the run with ErrRunDeclined.
	ConfirmLargePass func(stage Stage, count int) bool
}

// Analyzer runs flood-exposure analyses. One Analyzer serves the whole
// process; each Run is independent and shares no mutable state with others.
type Analyzer struct {
	features FeatureSource
	rasters  RasterSource
	parcels  ParcelSource
	communes CommuneSource
	logger   *slog.Logger
	metrics  *observability.Metrics
	clock    clockwork.Clock

	ran atomic.Bool
}

// NewAnalyzer wires an Analyzer from its collaborators. parcels and communes
// may be nil; the corresponding enrichment sections then report unavailable.
func NewAnalyzer(features FeatureSource, rasters RasterSource, parcels ParcelSource, communes CommuneSource,
	logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Analyzer {
	return &Analyzer{
		features: features,
		rasters:  rasters,
		parcels:  parcels,
		communes: communes,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
	}
}

// CheckReadiness reports nil once the analyzer has completed at least one
// run, mirroring the /readyz contract.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	if !a.ran.Load() {
		return errors.New("no analysis completed yet")
	}
	return nil
}

// Run executes the full analysis for one area. A failure on the mandatory
// building path aborts and surfaces to the caller; optional enrichment
// failures degrade their section and the run proceeds.
func (a *Analyzer) Run(ctx context.Context, area domain.AnalysisArea, opts Options) (Result, error) {
	tier := opts.ActiveTier
	if _, ok := domain.ParseTier(string(tier)); !ok {
		tier = domain.TierHigh
	}

	result := Result{
		RunID:      uuid.NewString(),
		ActiveTier: tier,
		StartedAt:  a.clock.Now(),
		AreaKm2:    area.AreaKm2(),
	}

	pub := &publisher{runID: result.RunID, ch: opts.Progress}
	defer pub.close()

	logger := a.logger.With("run_id", result.RunID, "tier", tier)
	a.metrics.AnalysesStarted.Inc()
	a.metrics.AnalysesRunning.Inc()
	defer a.metrics.AnalysesRunning.Dec()

	tagger := &Tagger{logger: logger, metrics: a.metrics, progress: pub}
	bounds := area.Bounds()

	// Mandatory path: buildings.
	graph, err := a.features.FetchElements(ctx, area)
	if err != nil {
		a.metrics.AnalysesFailed.Inc()
		return Result{}, fmt.Errorf("fetch vector features: %w", err)
	}

	buildings := domain.NormalizeBuildings(graph)
	roads := domain.NormalizeRoads(graph)
	logger.Info("features normalized", "buildings", len(buildings), "roads", len(roads))

	samples, err := a.loadAllTiers(ctx, bounds)
	if err != nil {
		a.metrics.AnalysesFailed.Inc()
		return Result{}, fmt.Errorf("load hazard rasters: %w", err)
	}

	if err := gate(ctx, StageBuildings, len(buildings), opts.ConfirmLargePass); err != nil {
		a.metrics.AnalysesFailed.Inc()
		return Result{}, err
	}

	result.TaggedBuildings = tagger.TagBuildings(buildings, samples)
	result.Buildings = AggregateBuildings(result.TaggedBuildings)

	// Optional enrichment paths; each degrades independently.
	result.Roads = a.tagRoads(ctx, tagger, roads, samples[tier], opts, logger)
	result.Parcels = a.tagParcels(ctx, tagger, bounds, samples[tier], opts, logger)
	result.Population = a.estimatePopulation(ctx, area, result.Buildings, logger)

	result.FinishedAt = a.clock.Now()
	a.metrics.AnalysisDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())
	a.ran.Store(true)

	logger.Info("analysis complete",
		"buildings", result.Buildings.Total,
		"affected_any", result.Buildings.Affected.Any,
		"duration", result.FinishedAt.Sub(result.StartedAt),
	)
	return result, nil
}

// loadAllTiers fetches the three tier rasters concurrently and joins them
// before any classification begins, so a whole tagging pass sees one static
// capture per tier.
func (a *Analyzer) loadAllTiers(ctx context.Context, bounds domain.BoundingBox) (TierSamples, error) {
	results := make([]domain.RasterSample, len(domain.Tiers))
	g, ctx := errgroup.WithContext(ctx)

	for i, tier := range domain.Tiers {
		g.Go(func() error {
			sample, err := a.rasters.LoadTier(ctx, tier, bounds)
			if err != nil {
				a.metrics.RasterFetches.WithLabelValues(string(tier), "error").Inc()
				return fmt.Errorf("tier %s: %w", tier, err)
			}
			a.metrics.RasterFetches.WithLabelValues(string(tier), "success").Inc()
			results[i] = sample
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	samples := make(TierSamples, len(domain.Tiers))
	for i, tier := range domain.Tiers {
		samples[tier] = results[i]
	}
	return samples, nil
}

func (a *Analyzer) tagRoads(ctx context.Context, tagger *Tagger, roads []domain.RoadSegment,
	sample domain.RasterSample, opts Options, logger *slog.Logger) *RoadStats {
	if err := gate(ctx, StageRoads, len(roads), opts.ConfirmLargePass); err != nil {
		logger.Warn("transportation section unavailable", "error", err)
		a.metrics.SectionsUnavailable.WithLabelValues("transportation").Inc()
		return nil
	}

	tagged := tagger.TagRoads(roads, sample)
	stats := AggregateRoads(tagged, sample.Tier)
	return &stats
}

func (a *Analyzer) tagParcels(ctx context.Context, tagger *Tagger, bounds domain.BoundingBox,
	sample domain.RasterSample, opts Options, logger *slog.Logger) *ParcelStats {
	if a.parcels == nil {
		return nil
	}

	parcels, err := a.parcels.FetchParcels(ctx, bounds)
	if err != nil {
		logger.Warn("land-cover section unavailable", "error", err)
		a.metrics.SectionsUnavailable.WithLabelValues("landcover").Inc()
		return nil
	}
	if err := gate(ctx, StageParcels, len(parcels), opts.ConfirmLargePass); err != nil {
		logger.Warn("land-cover section unavailable", "error", err)
		a.metrics.SectionsUnavailable.WithLabelValues("landcover").Inc()
		return nil
	}

	tagged := tagger.TagParcels(parcels, sample)
	stats := AggregateParcels(tagged, sample.Tier)
	return &stats
}

func (a *Analyzer) estimatePopulation(ctx context.Context, area domain.AnalysisArea,
	buildings BuildingStats, logger *slog.Logger) *PopulationEstimate {
	if a.communes == nil {
		return nil
	}

	communes, err := a.communes.Communes(ctx)
	if err != nil {
		logger.Warn("population section unavailable", "error", err)
		a.metrics.SectionsUnavailable.WithLabelValues("population").Inc()
		return nil
	}

	est := ComputeExposure(area, communes, logger, a.metrics)
	if buildings.Total > 0 {
		est.AffectedByTier = ApportionByRisk(est.TotalPopulation, buildings.Total, buildings.Affected)
	}
	return &est
}

// gate is the single cooperative cancellation point: consulted once per
// pass, before tagging starts, and only when the feature count exceeds the
// threshold.
func gate(ctx context.Context, stage Stage, count int, confirm func(Stage, int) bool) error {
	if count <= LargePassThreshold {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if confirm != nil && !confirm(stage, count) {
		return ErrRunDeclined
	}
	return nil
}

// Command analyze runs one flood-exposure analysis from the command line:
// it reads an analysis area polygon from a GeoJSON file, runs the full
// pipeline against the configured upstream services, and writes the tagged
// building CSV plus a JSON statistics report.
//
// Usage:
//
//	go run ./cmd/analyze \
//	  -area data/dessau.geojson \
//	  -tier high \
//	  -csv-out out/buildings.csv \
//	  -json-out out/report.json
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/floodscope/flood-exposure-service/internal/adapter/census"
	"github.com/floodscope/flood-exposure-service/internal/adapter/overpass"
	"github.com/floodscope/flood-exposure-service/internal/adapter/wfs"
	"github.com/floodscope/flood-exposure-service/internal/adapter/wms"
	"github.com/floodscope/flood-exposure-service/internal/config"
	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/export"
	"github.com/floodscope/flood-exposure-service/internal/observability"
	"github.com/floodscope/flood-exposure-service/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	areaPath := flag.String("area", "", "path to GeoJSON file holding the analysis polygon")
	tier := flag.String("tier", "high", "active hazard tier: extreme, high, or medium")
	csvOut := flag.String("csv-out", "buildings.csv", "output path for the building CSV")
	jsonOut := flag.String("json-out", "report.json", "output path for the JSON statistics report")
	yes := flag.Bool("yes", false, "proceed without confirmation on large feature passes")
	flag.Parse()

	if *areaPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -area")
	}

	area, err := loadArea(*areaPath)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg.LogLevel, "text")
	metrics := observability.NewMetricsForTesting()
	clock := clockwork.NewRealClock()

	policy := overpass.DefaultPolicy(cfg.OverpassEndpoints)
	analyzer := pipeline.NewAnalyzer(
		overpass.NewClient(policy, cfg.OverpassTimeout, clock, logger, metrics),
		wms.NewClient(cfg.WMSBaseURL, cfg.WMSTimeout, clock, logger, metrics),
		wfs.NewClient(cfg.WFSBaseURL, cfg.WFSTypeName, cfg.WFSTimeout, clock, logger, metrics),
		census.NewCache(cfg.CensusPath, logger),
		logger, metrics, clock,
	)

	progress := make(chan pipeline.Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			fmt.Fprintf(os.Stderr, "  %s: %d/%d %s\n", p.Stage, p.Processed, p.Total, p.Message)
		}
	}()

	result, err := analyzer.Run(context.Background(), area, pipeline.Options{
		ActiveTier:       domain.HazardTier(*tier),
		Progress:         progress,
		ConfirmLargePass: confirmLargePass(*yes),
	})
	<-done
	if err != nil {
		return fmt.Errorf("analysis failed (%s): %w", domain.Classify(err), err)
	}

	if err := writeCSV(*csvOut, result.TaggedBuildings); err != nil {
		return err
	}
	fmt.Printf("wrote building CSV: %s (%d buildings)\n", *csvOut, len(result.TaggedBuildings))

	if err := writeReport(*jsonOut, result); err != nil {
		return err
	}
	fmt.Printf("wrote statistics report: %s\n", *jsonOut)

	printSummary(result)
	return nil
}

// loadArea reads a GeoJSON file holding either a bare Polygon geometry, a
// Feature, or a FeatureCollection whose first feature is the polygon.
func loadArea(path string) (domain.AnalysisArea, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.AnalysisArea{}, fmt.Errorf("read area file: %w", err)
	}

	polygon, err := polygonFromGeoJSON(data)
	if err != nil {
		return domain.AnalysisArea{}, fmt.Errorf("%s: %w", path, err)
	}

	ring := polygon[0]
	if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
		ring = ring[:len(ring)-1]
	}
	vertices := make([]domain.LatLng, 0, len(ring))
	for _, pt := range ring {
		vertices = append(vertices, domain.LatLng{Lat: pt.Y(), Lng: pt.X()})
	}
	return domain.NewAnalysisArea(vertices)
}

func polygonFromGeoJSON(data []byte) (orb.Polygon, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("not valid JSON: %w", err)
	}

	var geom orb.Geometry
	switch probe.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(data)
		if err != nil {
			return nil, err
		}
		if len(fc.Features) == 0 {
			return nil, fmt.Errorf("feature collection is empty")
		}
		geom = fc.Features[0].Geometry
	case "Feature":
		f, err := geojson.UnmarshalFeature(data)
		if err != nil {
			return nil, err
		}
		geom = f.Geometry
	default:
		g, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, err
		}
		geom = g.Geometry()
	}

	polygon, ok := geom.(orb.Polygon)
	if !ok || len(polygon) == 0 {
		return nil, fmt.Errorf("geometry is not a polygon")
	}
	return polygon, nil
}

// confirmLargePass prompts on the terminal before a pass over an unusually
// large feature set, unless -yes was given.
func confirmLargePass(auto bool) func(stage pipeline.Stage, count int) bool {
	return func(stage pipeline.Stage, count int) bool {
		if auto {
			return true
		}
		fmt.Fprintf(os.Stderr, "stage %s has %d features; continue? [y/N] ", stage, count)
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}

func writeCSV(path string, buildings []domain.Building) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.WriteBuildings(f, buildings); err != nil {
		return fmt.Errorf("write building CSV: %w", err)
	}
	return nil
}

func writeReport(path string, result pipeline.Result) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printSummary(result pipeline.Result) {
	fmt.Printf("\nrun %s (%s tier, %.1fs)\n", result.RunID, result.ActiveTier,
		result.FinishedAt.Sub(result.StartedAt).Seconds())
	fmt.Printf("buildings: %d total, %d affected (any tier)\n",
		result.Buildings.Total, result.Buildings.Affected.Any)

	if result.Roads != nil {
		fmt.Printf("roads: %d total, %d affected, %.1f km flooded\n",
			result.Roads.Total, result.Roads.Affected, result.Roads.AffectedLengthKm)
	} else {
		fmt.Println("roads: unavailable")
	}
	if result.Parcels != nil {
		fmt.Printf("parcels: %d total, %d affected\n",
			result.Parcels.Total, result.Parcels.Affected)
	} else {
		fmt.Println("parcels: unavailable")
	}
	if result.Population != nil {
		fmt.Printf("population: %d in intersecting communes, density %d/km2\n",
			result.Population.TotalPopulation, result.Population.DensityPerKm2)
	} else {
		fmt.Println("population: unavailable")
	}
}

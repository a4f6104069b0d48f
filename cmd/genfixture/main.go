// Command genfixture generates a deterministic fixture set for local
// development and tests: a synthetic Overpass-style element graph, one
// hazard raster PNG per tier, and a GeoJSON area polygon. It uses the real
// domain package so the fixtures exercise the same normalization and
// classification paths as production data.
//
// Usage:
//
//	go run ./cmd/genfixture -seed 42 -out data/fixtures \
//	  -buildings 200 -roads 40 -bbox 13.0,52.0,13.1,52.1
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/floodscope/flood-exposure-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	seed := flag.Int64("seed", 1, "random seed")
	outDir := flag.String("out", "data/fixtures", "output directory")
	buildings := flag.Int("buildings", 200, "number of synthetic buildings")
	roads := flag.Int("roads", 40, "number of synthetic road segments")
	bboxFlag := flag.String("bbox", "13.0,52.0,13.1,52.1", "west,south,east,north in degrees")
	flag.Parse()

	bounds, err := parseBBox(*bboxFlag)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))

	graph := generateGraph(rng, bounds, *buildings, *roads)
	if err := writeElements(filepath.Join(*outDir, "elements.json"), graph); err != nil {
		return fmt.Errorf("write element graph: %w", err)
	}
	log.Printf("elements.json: %d nodes, %d ways", len(graph.Nodes), len(graph.Ways))

	// Nested flood extents: every extreme pixel is also high, every high
	// pixel also medium.
	coverage := map[domain.HazardTier]float64{
		domain.TierMedium:  0.35,
		domain.TierHigh:    0.20,
		domain.TierExtreme: 0.08,
	}
	masks := generateMasks(rng, coverage)
	for tier, img := range masks {
		name := fmt.Sprintf("hazard_%s.png", tier)
		if err := writePNG(filepath.Join(*outDir, name), img); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	if err := writeAreaPolygon(filepath.Join(*outDir, "area.geojson"), bounds); err != nil {
		return fmt.Errorf("write area polygon: %w", err)
	}

	printFixtureStats(graph, masks, bounds)
	return nil
}

func parseBBox(s string) (domain.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BoundingBox{}, fmt.Errorf("bbox must be west,south,east,north")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("bbox component %d: %w", i, err)
		}
		vals[i] = v
	}
	b := domain.BoundingBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	if b.East <= b.West || b.North <= b.South {
		return domain.BoundingBox{}, fmt.Errorf("bbox is empty")
	}
	return b, nil
}

var buildingTypes = []string{
	"residential", "house", "apartments", "commercial", "retail",
	"industrial", "warehouse", "school", "hospital", "garage", "yes",
}

var roadClasses = []string{
	"primary", "secondary", "tertiary", "residential", "service", "track",
}

// generateGraph produces a flat node/way collection in the shape the
// element source returns: closed building outlines and open road polylines.
func generateGraph(rng *rand.Rand, b domain.BoundingBox, buildings, roads int) domain.ElementGraph {
	var graph domain.ElementGraph
	nextID := int64(1)

	addNode := func(lat, lon float64) int64 {
		id := nextID
		nextID++
		graph.Nodes = append(graph.Nodes, domain.Node{ID: id, Lat: lat, Lon: lon})
		return id
	}
	randLat := func() float64 { return b.South + rng.Float64()*(b.North-b.South) }
	randLon := func() float64 { return b.West + rng.Float64()*(b.East-b.West) }

	// Buildings: small quadrilateral outlines, first node repeated to close.
	const footprint = 0.0003 // roughly 20-30 m
	for range buildings {
		lat, lon := randLat(), randLon()
		corners := []int64{
			addNode(lat, lon),
			addNode(lat, lon+footprint),
			addNode(lat+footprint, lon+footprint),
			addNode(lat+footprint, lon),
		}
		way := domain.Way{
			ID:    nextID,
			Nodes: append(corners, corners[0]),
			Tags:  map[string]string{"building": buildingTypes[rng.Intn(len(buildingTypes))]},
		}
		nextID++
		if rng.Float64() < 0.3 {
			way.Tags["name"] = fmt.Sprintf("Gebäude %d", way.ID)
		}
		graph.Ways = append(graph.Ways, way)
	}

	// Roads: open polylines of 2-6 vertices, a few tagged as bridges or
	// tunnels so the critical-infrastructure rollup has material.
	for range roads {
		lat, lon := randLat(), randLon()
		n := 2 + rng.Intn(5)
		nodes := make([]int64, 0, n)
		for range n {
			nodes = append(nodes, addNode(lat, lon))
			lat += (rng.Float64() - 0.5) * 0.004
			lon += (rng.Float64() - 0.5) * 0.004
		}
		way := domain.Way{
			ID:    nextID,
			Nodes: nodes,
			Tags:  map[string]string{"highway": roadClasses[rng.Intn(len(roadClasses))]},
		}
		nextID++
		switch r := rng.Float64(); {
		case r < 0.1:
			way.Tags["bridge"] = "yes"
		case r < 0.15:
			way.Tags["tunnel"] = "yes"
		}
		graph.Ways = append(graph.Ways, way)
	}

	return graph
}

// element mirrors the Overpass JSON element shape.
type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat,omitempty"`
	Lon   float64           `json:"lon,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

func writeElements(path string, graph domain.ElementGraph) error {
	elements := make([]element, 0, len(graph.Nodes)+len(graph.Ways))
	for _, n := range graph.Nodes {
		elements = append(elements, element{Type: "node", ID: n.ID, Lat: n.Lat, Lon: n.Lon, Tags: n.Tags})
	}
	for _, w := range graph.Ways {
		elements = append(elements, element{Type: "way", ID: w.ID, Nodes: w.Nodes, Tags: w.Tags})
	}

	data, err := json.MarshalIndent(map[string]any{"elements": elements}, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// generateMasks builds one raster per tier from shared random blobs. Blobs
// are assigned inside-out so the extents nest like real hazard layers.
func generateMasks(rng *rand.Rand, coverage map[domain.HazardTier]float64) map[domain.HazardTier]*image.NRGBA {
	const size = domain.RasterSize
	masks := make(map[domain.HazardTier]*image.NRGBA, len(domain.Tiers))
	for _, tier := range domain.Tiers {
		masks[tier] = image.NewNRGBA(image.Rect(0, 0, size, size))
	}

	fills := map[domain.HazardTier]color.NRGBA{
		domain.TierExtreme: {R: 190, G: 30, B: 40, A: 220},
		domain.TierHigh:    {R: 60, G: 90, B: 200, A: 200},
		domain.TierMedium:  {R: 120, G: 180, B: 255, A: 180},
	}

	// One blob set per tier; lower tiers reuse the higher tiers' blobs so
	// containment holds by construction.
	blobs := map[domain.HazardTier][]image.Rectangle{}
	for _, tier := range []domain.HazardTier{domain.TierExtreme, domain.TierHigh, domain.TierMedium} {
		target := int(coverage[tier] * size * size)
		var area int
		for _, r := range blobs[tier] {
			area += r.Dx() * r.Dy()
		}
		for area < target {
			w := 40 + rng.Intn(160)
			h := 40 + rng.Intn(160)
			x := rng.Intn(size - w)
			y := rng.Intn(size - h)
			r := image.Rect(x, y, x+w, y+h)
			blobs[tier] = append(blobs[tier], r)
			area += w * h
		}
		// Propagate down the severity order.
		switch tier {
		case domain.TierExtreme:
			blobs[domain.TierHigh] = append([]image.Rectangle{}, blobs[tier]...)
		case domain.TierHigh:
			blobs[domain.TierMedium] = append([]image.Rectangle{}, blobs[tier]...)
		}
	}

	for tier, rects := range blobs {
		img := masks[tier]
		fill := fills[tier]
		for _, r := range rects {
			for y := r.Min.Y; y < r.Max.Y; y++ {
				for x := r.Min.X; x < r.Max.X; x++ {
					img.SetNRGBA(x, y, fill)
				}
			}
		}
	}
	return masks
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

func writeAreaPolygon(path string, b domain.BoundingBox) error {
	ring := [][]float64{
		{b.West, b.South},
		{b.East, b.South},
		{b.East, b.North},
		{b.West, b.North},
		{b.West, b.South},
	}
	doc := map[string]any{
		"type":        "Polygon",
		"coordinates": [][][]float64{ring},
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

// printFixtureStats classifies every generated building against the
// generated rasters, giving the numbers to assert on in tests.
func printFixtureStats(graph domain.ElementGraph, masks map[domain.HazardTier]*image.NRGBA, b domain.BoundingBox) {
	buildings := domain.NormalizeBuildings(graph)

	flooded := map[domain.HazardTier]int{}
	for _, tier := range domain.Tiers {
		sample := domain.NewRasterSample(tier, b, masks[tier])
		for _, bld := range buildings {
			if sample.IsFlooded(bld.Centroid.Lat, bld.Centroid.Lng) {
				flooded[tier]++
			}
		}
	}

	fmt.Println("\n=== Fixture stats for test assertions ===")
	fmt.Printf("Buildings: %d\n", len(buildings))
	fmt.Printf("Roads: %d\n", len(domain.NormalizeRoads(graph)))
	for _, tier := range domain.Tiers {
		fmt.Printf("Flooded (%s): %d\n", tier, flooded[tier])
	}
}

// Package census loads the static commune census dataset: administrative
// polygons in Web-Mercator, each carrying a population count. The dataset
// is read at most once per process and shared read-only across analysis
// runs.
package census

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/floodscope/flood-exposure-service/internal/pipeline"
)

// Cache owns the load-once/reuse contract for the commune collection. It
// replaces hidden module state with an explicit value: construction does
// not load; the first Communes call does, and every later call reuses the
// result. Invalidate exists for tests.
type Cache struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	loaded   bool
	communes []pipeline.Commune
	loadErr  error
}

// NewCache creates a cache over the GeoJSON dataset at path.
func NewCache(path string, logger *slog.Logger) *Cache {
	return &Cache{path: path, logger: logger}
}

// Communes returns the cached collection, loading the dataset on first use.
// A load failure is cached too: a missing dataset degrades the population
// section on every run rather than hammering the filesystem.
func (c *Cache) Communes(_ context.Context) ([]pipeline.Commune, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		c.communes, c.loadErr = load(c.path)
		c.loaded = true
		if c.loadErr != nil {
			c.logger.Warn("commune dataset unavailable", "path", c.path, "error", c.loadErr)
		} else {
			c.logger.Info("commune dataset loaded", "path", c.path, "communes", len(c.communes))
		}
	}
	return c.communes, c.loadErr
}

// Invalidate drops the cached collection so the next Communes call reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = false
	c.communes = nil
	c.loadErr = nil
}

func load(path string) ([]pipeline.Commune, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read commune dataset: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse commune dataset: %w", err)
	}

	communes := make([]pipeline.Commune, 0, len(fc.Features))
	for _, f := range fc.Features {
		polygon, ok := toPolygon(f.Geometry)
		if !ok {
			continue
		}
		communes = append(communes, pipeline.Commune{
			Name:       stringProp(f, "name"),
			Population: intProp(f, "population"),
			Polygon:    polygon,
		})
	}
	return communes, nil
}

func toPolygon(g orb.Geometry) (orb.Polygon, bool) {
	switch geom := g.(type) {
	case orb.Polygon:
		return geom, len(geom) > 0
	case orb.MultiPolygon:
		// Largest-ring member stands in for the commune; census shares
		// apply per commune, not per exclave.
		if len(geom) == 0 {
			return nil, false
		}
		best := geom[0]
		for _, p := range geom[1:] {
			if len(p) > 0 && len(best) > 0 && len(p[0]) > len(best[0]) {
				best = p
			}
		}
		return best, len(best) > 0
	}
	return nil, false
}

func stringProp(f *geojson.Feature, key string) string {
	if s, ok := f.Properties[key].(string); ok {
		return s
	}
	return ""
}

func intProp(f *geojson.Feature, key string) int {
	switch v := f.Properties[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return 0
}

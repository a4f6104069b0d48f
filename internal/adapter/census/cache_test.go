package census

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const communeGeoJSON = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "Dessau", "population": 4000},
			"geometry": {
				"type": "Polygon",
				"coordinates": [[[0, 0], [1000, 0], [1000, 1000], [0, 1000], [0, 0]]]
			}
		},
		{
			"type": "Feature",
			"properties": {"name": "Rosslau", "population": 1500},
			"geometry": {
				"type": "MultiPolygon",
				"coordinates": [
					[[[2000, 0], [2500, 0], [2500, 500], [2000, 0]]],
					[[[3000, 0], [4000, 0], [4000, 1000], [3000, 1000], [3000, 0]]]
				]
			}
		},
		{
			"type": "Feature",
			"properties": {"name": "no geometry"},
			"geometry": {"type": "Point", "coordinates": [0, 0]}
		}
	]
}`

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "communes.geojson")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCacheLoadsCommunes(t *testing.T) {
	cache := NewCache(writeDataset(t, communeGeoJSON), testLogger())

	communes, err := cache.Communes(context.Background())
	require.NoError(t, err)
	require.Len(t, communes, 2, "point features have no population polygon")

	assert.Equal(t, "Dessau", communes[0].Name)
	assert.Equal(t, 4000, communes[0].Population)
	require.Len(t, communes[0].Polygon, 1)
	assert.Len(t, communes[0].Polygon[0], 5)

	// Multi-part communes collapse to the largest member polygon.
	assert.Equal(t, "Rosslau", communes[1].Name)
	assert.Equal(t, 1500, communes[1].Population)
	require.Len(t, communes[1].Polygon, 1)
	assert.Len(t, communes[1].Polygon[0], 5)
}

func TestCacheLoadsOnce(t *testing.T) {
	path := writeDataset(t, communeGeoJSON)
	cache := NewCache(path, testLogger())

	first, err := cache.Communes(context.Background())
	require.NoError(t, err)

	// Rewriting the dataset must not change what an open cache serves.
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))

	second, err := cache.Communes(context.Background())
	require.NoError(t, err)
	assert.Len(t, second, len(first))
}

func TestCacheInvalidateReloads(t *testing.T) {
	path := writeDataset(t, communeGeoJSON)
	cache := NewCache(path, testLogger())

	_, err := cache.Communes(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{"type":"FeatureCollection","features":[]}`), 0o644))
	cache.Invalidate()

	reloaded, err := cache.Communes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reloaded)
}

func TestCacheMissingDataset(t *testing.T) {
	cache := NewCache(filepath.Join(t.TempDir(), "absent.geojson"), testLogger())

	_, err := cache.Communes(context.Background())
	require.Error(t, err)

	// The failure is cached alongside the data.
	_, again := cache.Communes(context.Background())
	assert.Equal(t, err.Error(), again.Error())
}

func TestCacheMalformedDataset(t *testing.T) {
	cache := NewCache(writeDataset(t, `{"type": "FeatureCollection", "features": [`), testLogger())

	_, err := cache.Communes(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse commune dataset")
}

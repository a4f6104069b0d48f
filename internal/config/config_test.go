package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, []string{
		"https://overpass-api.de/api/interpreter",
		"https://overpass.kumi.systems/api/interpreter",
	}, cfg.OverpassEndpoints)
	assert.Equal(t, 60*time.Second, cfg.OverpassTimeout)

	assert.NotEmpty(t, cfg.WMSBaseURL)
	assert.Equal(t, 30*time.Second, cfg.WMSTimeout)
	assert.NotEmpty(t, cfg.WFSBaseURL)
	assert.Equal(t, "biotope", cfg.WFSTypeName)
	assert.Equal(t, "data/communes.geojson", cfg.CensusPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("OVERPASS_ENDPOINTS", " https://a.example/api , https://b.example/api ,")
	t.Setenv("OVERPASS_TIMEOUT", "90s")
	t.Setenv("WMS_BASE_URL", "https://wms.example/hazard")
	t.Setenv("WFS_BASE_URL", "https://wfs.example/landcover")
	t.Setenv("WFS_TYPE_NAME", "parcels")
	t.Setenv("CENSUS_PATH", "/srv/communes.geojson")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, []string{"https://a.example/api", "https://b.example/api"}, cfg.OverpassEndpoints)
	assert.Equal(t, 90*time.Second, cfg.OverpassTimeout)
	assert.Equal(t, "https://wms.example/hazard", cfg.WMSBaseURL)
	assert.Equal(t, "https://wfs.example/landcover", cfg.WFSBaseURL)
	assert.Equal(t, "parcels", cfg.WFSTypeName)
	assert.Equal(t, "/srv/communes.geojson", cfg.CensusPath)
}

func TestLoad_InvalidDurations(t *testing.T) {
	cases := []string{"SHUTDOWN_TIMEOUT", "OVERPASS_TIMEOUT", "WMS_TIMEOUT", "WFS_TIMEOUT"}

	for _, key := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, "not-a-duration")

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestLoad_NegativeDurationRejected(t *testing.T) {
	t.Setenv("OVERPASS_TIMEOUT", "-5s")

	_, err := Load()
	require.Error(t, err)
}

func TestLoad_EmptyEndpointListRejected(t *testing.T) {
	t.Setenv("OVERPASS_ENDPOINTS", " , ")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVERPASS_ENDPOINTS")
}

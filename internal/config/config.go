package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Overpass element source.
	OverpassEndpoints []string
	OverpassTimeout   time.Duration

	// Hazard raster WMS.
	WMSBaseURL string
	WMSTimeout time.Duration

	// Land-cover WFS.
	WFSBaseURL  string
	WFSTypeName string
	WFSTimeout  time.Duration

	// Commune census dataset.
	CensusPath string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := envDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	overpassTimeout, err := envDuration("OVERPASS_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	wmsTimeout, err := envDuration("WMS_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	wfsTimeout, err := envDuration("WFS_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		OverpassEndpoints: splitList(envOrDefault("OVERPASS_ENDPOINTS",
			"https://overpass-api.de/api/interpreter,https://overpass.kumi.systems/api/interpreter")),
		OverpassTimeout: overpassTimeout,

		WMSBaseURL: envOrDefault("WMS_BASE_URL",
			"https://www.geodatenportal.sachsen-anhalt.de/wss/service/INSPIRE_LSA_NZ_HWRMRL/guest"),
		WMSTimeout: wmsTimeout,

		WFSBaseURL: envOrDefault("WFS_BASE_URL",
			"https://www.geodatenportal.sachsen-anhalt.de/wss/service/ST_LAU_OEKO_Biotoptypen/guest"),
		WFSTypeName: envOrDefault("WFS_TYPE_NAME", "biotope"),
		WFSTimeout:  wfsTimeout,

		CensusPath: envOrDefault("CENSUS_PATH", "data/communes.geojson"),
	}

	if len(cfg.OverpassEndpoints) == 0 {
		return nil, errors.New("OVERPASS_ENDPOINTS is required")
	}
	if cfg.WMSBaseURL == "" {
		return nil, errors.New("WMS_BASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Package wms loads hazard-tier rasters from a Web Map Service. One GetMap
// request per tier per analysis renders the hazard zone into a fixed-size
// transparent PNG over the requested WGS-84 bounding box.
package wms

import (
	"context"
	"fmt"
	"image/png"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

// tierLayers maps hazard tiers to the WMS layer names of the hydrology
// service (HQ-extrem / HQ-hoch / HQ-mittel recurrence classes).
var tierLayers = map[domain.HazardTier]string{
	domain.TierExtreme: "hq_extrem",
	domain.TierHigh:    "hq_hoch",
	domain.TierMedium:  "hq_mittel",
}

// Client implements pipeline.RasterSource against a WMS endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a WMS raster client.
func NewClient(baseURL string, timeout time.Duration, clock clockwork.Clock,
	logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// LoadTier fetches and decodes the hazard raster for one tier. A decode
// failure is a hard failure for that tier.
func (c *Client) LoadTier(ctx context.Context, tier domain.HazardTier, bounds domain.BoundingBox) (domain.RasterSample, error) {
	layer, ok := tierLayers[tier]
	if !ok {
		return domain.RasterSample{}, fmt.Errorf("unknown hazard tier %q", tier)
	}

	params := url.Values{
		"service":     {"WMS"},
		"version":     {"1.1.1"},
		"request":     {"GetMap"},
		"layers":      {layer},
		"styles":      {""},
		"srs":         {"EPSG:4326"},
		"bbox":        {fmt.Sprintf("%f,%f,%f,%f", bounds.West, bounds.South, bounds.East, bounds.North)},
		"width":       {fmt.Sprintf("%d", domain.RasterSize)},
		"height":      {fmt.Sprintf("%d", domain.RasterSize)},
		"format":      {"image/png"},
		"transparent": {"true"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.RasterSample{}, fmt.Errorf("create request: %w", err)
	}

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues("wms").Observe(c.clock.Since(start).Seconds())
	if err != nil {
		return domain.RasterSample{}, &domain.NetworkError{Endpoint: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.RasterSample{}, &domain.RateLimited{Endpoint: c.baseURL}
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.RasterSample{}, &domain.ServiceTimeout{Endpoint: c.baseURL, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return domain.RasterSample{}, fmt.Errorf("wms status %d for layer %s", resp.StatusCode, layer)
	}

	img, err := png.Decode(resp.Body)
	if err != nil {
		return domain.RasterSample{}, &domain.MalformedResponse{
			Endpoint: c.baseURL,
			Reason:   fmt.Sprintf("decode %s raster: %v", tier, err),
		}
	}

	c.logger.Debug("hazard raster loaded", "tier", tier, "layer", layer,
		"bounds", fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", bounds.West, bounds.South, bounds.East, bounds.North))
	return domain.NewRasterSample(tier, bounds, img), nil
}

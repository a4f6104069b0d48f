// Package wfs fetches classified land-cover (biotope) parcels from a Web
// Feature Service. The service takes a Web-Mercator bounding box and
// returns a GeoJSON feature collection with per-feature type-code and
// description properties.
package wfs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

// Client implements pipeline.ParcelSource against a WFS endpoint.
type Client struct {
	baseURL    string
	typeName   string
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a WFS parcel client for one feature type.
func NewClient(baseURL, typeName string, timeout time.Duration, clock clockwork.Clock,
	logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    baseURL,
		typeName:   typeName,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchParcels retrieves the parcels intersecting the geographic bounding
// box. The box is projected to Web-Mercator for the request; returned
// geometry is unprojected back to a WGS-84 centroid for raster sampling.
func (c *Client) FetchParcels(ctx context.Context, bounds domain.BoundingBox) ([]domain.LandParcel, error) {
	sw := domain.Project(bounds.South, bounds.West)
	ne := domain.Project(bounds.North, bounds.East)

	params := url.Values{
		"service":      {"WFS"},
		"version":      {"2.0.0"},
		"request":      {"GetFeature"},
		"typenames":    {c.typeName},
		"srsname":      {"EPSG:3857"},
		"bbox":         {fmt.Sprintf("%f,%f,%f,%f,EPSG:3857", sw.X, sw.Y, ne.X, ne.Y)},
		"outputFormat": {"application/json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := c.clock.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.FetchDuration.WithLabelValues("wfs").Observe(c.clock.Since(start).Seconds())
	if err != nil {
		return nil, &domain.NetworkError{Endpoint: c.baseURL, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &domain.RateLimited{Endpoint: c.baseURL}
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &domain.ServiceTimeout{Endpoint: c.baseURL, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("wfs status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Endpoint: c.baseURL, Err: err}
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, &domain.MalformedResponse{Endpoint: c.baseURL, Reason: err.Error()}
	}

	parcels := make([]domain.LandParcel, 0, len(fc.Features))
	for _, f := range fc.Features {
		parcel, ok := toParcel(f)
		if !ok {
			continue
		}
		parcels = append(parcels, parcel)
	}

	c.logger.Debug("parcels fetched", "count", len(parcels))
	return parcels, nil
}

// toParcel reduces one GeoJSON feature to a LandParcel. Features without
// usable geometry are dropped, matching the normalizer's tolerance policy.
func toParcel(f *geojson.Feature) (domain.LandParcel, bool) {
	centroid, ok := geometryCentroid(f.Geometry)
	if !ok {
		return domain.LandParcel{}, false
	}

	id := ""
	if f.ID != nil {
		id = fmt.Sprintf("%v", f.ID)
	}
	code := stringProp(f, "typecode")
	return domain.LandParcel{
		ID:          id,
		TypeCode:    code,
		Description: stringProp(f, "description"),
		Category:    domain.ClassifyBiotopeCode(code),
		Centroid:    domain.Unproject(domain.MercatorPoint{X: centroid[0], Y: centroid[1]}),
	}, true
}

// geometryCentroid is the mean of the outer-ring vertices in projected
// space, mirroring the building centroid rule.
func geometryCentroid(g orb.Geometry) (orb.Point, bool) {
	var ring orb.Ring
	switch geom := g.(type) {
	case orb.Polygon:
		if len(geom) == 0 {
			return orb.Point{}, false
		}
		ring = geom[0]
	case orb.MultiPolygon:
		if len(geom) == 0 || len(geom[0]) == 0 {
			return orb.Point{}, false
		}
		ring = geom[0][0]
	case orb.Point:
		return geom, true
	default:
		return orb.Point{}, false
	}

	if len(ring) == 0 {
		return orb.Point{}, false
	}
	var sx, sy float64
	for _, p := range ring {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(ring))
	return orb.Point{sx / n, sy / n}, true
}

func stringProp(f *geojson.Feature, key string) string {
	if f.Properties == nil {
		return ""
	}
	if s, ok := f.Properties[key].(string); ok {
		return s
	}
	return ""
}

// Package overpass fetches the OSM-style element graph for an analysis area
// from a prioritized list of interchangeable Overpass API endpoints.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

// Client implements pipeline.FeatureSource against the Overpass API.
type Client struct {
	policy     Policy
	httpClient *http.Client
	clock      clockwork.Clock
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an Overpass client with the given fallback policy.
func NewClient(policy Policy, timeout time.Duration, clock clockwork.Clock,
	logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		policy:     policy,
		httpClient: &http.Client{Timeout: timeout},
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// FetchElements retrieves all building and highway ways (with their nodes)
// inside the analysis polygon, trying endpoints per the fallback policy.
func (c *Client) FetchElements(ctx context.Context, area domain.AnalysisArea) (domain.ElementGraph, error) {
	query := buildQuery(area)

	var graph domain.ElementGraph
	err := c.policy.execute(ctx, c.clock, c.logger, c.metrics, func(ctx context.Context, endpoint string) error {
		start := c.clock.Now()
		g, err := c.fetchFrom(ctx, endpoint, query)
		c.metrics.FetchDuration.WithLabelValues("overpass").Observe(c.clock.Since(start).Seconds())
		if err != nil {
			return err
		}
		graph = g
		return nil
	})
	if err != nil {
		return domain.ElementGraph{}, err
	}
	return graph, nil
}

func (c *Client) fetchFrom(ctx context.Context, endpoint, query string) (domain.ElementGraph, error) {
	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return domain.ElementGraph{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ElementGraph{}, &domain.NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return domain.ElementGraph{}, &domain.RateLimited{Endpoint: endpoint}
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.ElementGraph{}, &domain.ServiceTimeout{Endpoint: endpoint, Status: resp.StatusCode}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.ElementGraph{}, fmt.Errorf("overpass status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		Elements *[]element `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.ElementGraph{}, &domain.MalformedResponse{Endpoint: endpoint, Reason: err.Error()}
	}
	if payload.Elements == nil {
		return domain.ElementGraph{}, &domain.MalformedResponse{Endpoint: endpoint, Reason: "missing elements array"}
	}

	var graph domain.ElementGraph
	for _, el := range *payload.Elements {
		switch el.Type {
		case "node":
			graph.Nodes = append(graph.Nodes, domain.Node{ID: el.ID, Lat: el.Lat, Lon: el.Lon, Tags: el.Tags})
		case "way":
			graph.Ways = append(graph.Ways, domain.Way{ID: el.ID, Nodes: el.Nodes, Tags: el.Tags})
		}
	}
	return graph, nil
}

// buildQuery renders the Overpass QL request: building and highway ways
// clipped to the analysis polygon, with their member nodes recursed in.
func buildQuery(area domain.AnalysisArea) string {
	var poly strings.Builder
	for i, v := range area.Vertices {
		if i > 0 {
			poly.WriteByte(' ')
		}
		fmt.Fprintf(&poly, "%.6f %.6f", v.Lat, v.Lng)
	}

	return fmt.Sprintf(`[out:json][timeout:60];
(
  way["building"](poly:"%s");
  way["highway"](poly:"%s");
);
(._;>;);
out body;`, poly.String(), poly.String())
}

// element is the Overpass JSON wire form shared by nodes and ways.
type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat,omitempty"`
	Lon   float64           `json:"lon,omitempty"`
	Nodes []int64           `json:"nodes,omitempty"`
	Tags  map[string]string `json:"tags,omitempty"`
}

package wms

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/floodscope/flood-exposure-service/internal/domain"
	"github.com/floodscope/flood-exposure-service/internal/observability"
)

var testBounds = domain.BoundingBox{West: 13.0, South: 52.0, East: 13.1, North: 52.1}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, clockwork.NewRealClock(),
		slog.New(slog.NewTextHandler(io.Discard, nil)), observability.NewMetricsForTesting())
}

func hazardPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, domain.RasterSize, domain.RasterSize))
	img.SetNRGBA(400, 400, color.NRGBA{R: 120, G: 180, B: 255, A: 200})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestClient_LoadTier(t *testing.T) {
	t.Run("request parameters and decode", func(t *testing.T) {
		var query map[string][]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query = r.URL.Query()
			w.Header().Set("Content-Type", "image/png")
			w.Write(hazardPNG(t))
		}))
		defer srv.Close()

		sample, err := testClient(srv.URL).LoadTier(context.Background(), domain.TierHigh, testBounds)
		require.NoError(t, err)

		assert.Equal(t, "hq_hoch", query["layers"][0])
		assert.Equal(t, "GetMap", query["request"][0])
		assert.Equal(t, "800", query["width"][0])
		assert.Equal(t, "800", query["height"][0])
		assert.Equal(t, "true", query["transparent"][0])
		assert.Equal(t, "13.000000,52.000000,13.100000,52.100000", query["bbox"][0])

		assert.Equal(t, domain.TierHigh, sample.Tier)
		assert.Equal(t, domain.RasterSize, sample.Width)
		assert.True(t, sample.IsFlooded(52.05, 13.05))
		assert.False(t, sample.IsFlooded(52.09, 13.01))
	})

	t.Run("tier to layer mapping", func(t *testing.T) {
		var layers []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			layers = append(layers, r.URL.Query().Get("layers"))
			w.Write(hazardPNG(t))
		}))
		defer srv.Close()

		c := testClient(srv.URL)
		for _, tier := range domain.Tiers {
			_, err := c.LoadTier(context.Background(), tier, testBounds)
			require.NoError(t, err)
		}
		assert.Equal(t, []string{"hq_extrem", "hq_hoch", "hq_mittel"}, layers)
	})

	t.Run("decode failure is a hard failure for the tier", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("not a png"))
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).LoadTier(context.Background(), domain.TierExtreme, testBounds)
		var malformed *domain.MalformedResponse
		require.ErrorAs(t, err, &malformed)
	})

	t.Run("5xx maps to ServiceTimeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusGatewayTimeout)
		}))
		defer srv.Close()

		_, err := testClient(srv.URL).LoadTier(context.Background(), domain.TierHigh, testBounds)
		var timeout *domain.ServiceTimeout
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, http.StatusGatewayTimeout, timeout.Status)
	})

	t.Run("unknown tier rejected before any request", func(t *testing.T) {
		_, err := testClient("http://unused.invalid").LoadTier(context.Background(), "bogus", testBounds)
		require.Error(t, err)
	})
}

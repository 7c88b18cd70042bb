// Package geocode turns free-text place names into best-guess coordinates.
// The gateway is a fallible, best-effort collaborator: every failure mode is
// mapped to "no result" and never surfaces as an error to the resolver.
package geocode

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"combiroute.fr/internal/logging"
	"combiroute.fr/internal/metrics"
)

// Point is a geocoded coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Gateway resolves a free-text place name to coordinates. The bool reports
// whether a result was found; network or service failure is "no result", not
// an error. Implementations make at most one outbound call per invocation.
type Gateway interface {
	Resolve(ctx context.Context, query string) (Point, bool)
}

// Static is a fixed-answer Gateway for tests and offline use.
type Static struct {
	Points map[string]Point
}

func (s Static) Resolve(_ context.Context, query string) (Point, bool) {
	p, ok := s.Points[query]
	return p, ok
}

// HTTPGateway resolves place names against a Nominatim-compatible search
// endpoint. It is safe for concurrent use.
type HTTPGateway struct {
	endpoint  string
	userAgent string
	client    *http.Client
	cache     *Cache
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// HTTPGatewayOptions configures an HTTPGateway. Cache and Metrics are
// optional; when Cache is nil every call goes to the network.
type HTTPGatewayOptions struct {
	Endpoint  string
	UserAgent string
	Timeout   time.Duration
	Cache     *Cache
	Metrics   *metrics.Metrics
}

// NewHTTPGateway creates a gateway with bounded request latency. A zero
// timeout defaults to 5 seconds; the gateway must never hang its caller.
func NewHTTPGateway(opts HTTPGatewayOptions, logger *slog.Logger) *HTTPGateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPGateway{
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		logger:    logger.With(slog.String("component", "geocode_gateway")),
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				TLSHandshakeTimeout:   5 * time.Second,
				ResponseHeaderTimeout: timeout,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Resolve performs a single geocoding request. There are no retries: a
// cancelled context, transport error, non-200 status, malformed body or empty
// result set all yield "no result".
func (g *HTTPGateway) Resolve(ctx context.Context, query string) (Point, bool) {
	start := time.Now()
	p, ok := g.lookup(ctx, query)

	outcome := "miss"
	if ok {
		outcome = "hit"
	}
	g.metrics.ObserveGeocodeLookup(outcome, time.Since(start).Seconds())

	return p, ok
}

func (g *HTTPGateway) lookup(ctx context.Context, query string) (Point, bool) {
	if query == "" {
		return Point{}, false
	}

	if g.cache != nil {
		if p, ok := g.cache.Get(query); ok {
			return p, true
		}
	}

	reqURL := g.endpoint + "?format=jsonv2&limit=1&q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		logging.LogError(g.logger, "error creating geocode request", err, slog.String("query", query))
		return Point{}, false
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		logging.LogError(g.logger, "geocode request failed", err, slog.String("query", query))
		return Point{}, false
	}
	defer logging.SafeCloseWithLogging(resp.Body, g.logger, "geocode_response_body")

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("geocode request returned non-200 status",
			slog.String("query", query), slog.Int("status", resp.StatusCode))
		return Point{}, false
	}

	const maxBodySize = 1 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		logging.LogError(g.logger, "error reading geocode response", err, slog.String("query", query))
		return Point{}, false
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		logging.LogError(g.logger, "error decoding geocode response", err, slog.String("query", query))
		return Point{}, false
	}
	if len(results) == 0 {
		return Point{}, false
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		g.logger.Warn("geocode response carried unparseable coordinates",
			slog.String("query", query), slog.String("lat", results[0].Lat), slog.String("lon", results[0].Lon))
		return Point{}, false
	}

	p := Point{Lat: lat, Lon: lon}
	if g.cache != nil {
		g.cache.Put(query, p)
	}
	return p, true
}

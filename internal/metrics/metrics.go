// Package metrics provides Prometheus metrics for the combiroute API.
package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Geocoder metrics
	GeocodeLookupsTotal  *prometheus.CounterVec
	GeocodeLookupSeconds prometheus.Histogram

	// Search metrics
	SearchesTotal  *prometheus.CounterVec
	RoutesPerQuery prometheus.Histogram

	// Dataset gauges, set once per load
	DatasetPlatforms prometheus.Gauge
	DatasetServices  prometheus.Gauge

	logger *slog.Logger
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combiroute_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "combiroute_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	geocodeLookupsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combiroute_geocode_lookups_total",
			Help: "Total geocoding gateway lookups by outcome (hit, miss)",
		},
		[]string{"outcome"},
	)

	geocodeLookupSeconds := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "combiroute_geocode_lookup_duration_seconds",
		Help:    "Geocoding gateway lookup latency distribution",
		Buckets: prometheus.DefBuckets,
	})

	searchesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "combiroute_searches_total",
			Help: "Total route searches by outcome (found, empty)",
		},
		[]string{"outcome"},
	)

	routesPerQuery := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "combiroute_routes_per_query",
		Help:    "Distribution of ranked routes returned per search",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
	})

	datasetPlatforms := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "combiroute_dataset_platforms",
		Help: "Number of platforms in the loaded dataset",
	})

	datasetServices := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "combiroute_dataset_services",
		Help: "Number of scheduled services in the loaded dataset",
	})

	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		geocodeLookupsTotal,
		geocodeLookupSeconds,
		searchesTotal,
		routesPerQuery,
		datasetPlatforms,
		datasetServices,
	)

	return &Metrics{
		Registry:             registry,
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		GeocodeLookupsTotal:  geocodeLookupsTotal,
		GeocodeLookupSeconds: geocodeLookupSeconds,
		SearchesTotal:        searchesTotal,
		RoutesPerQuery:       routesPerQuery,
		DatasetPlatforms:     datasetPlatforms,
		DatasetServices:      datasetServices,
		logger:               logger,
	}
}

// ObserveGeocodeLookup records one gateway lookup with its outcome
// ("hit" or "miss") and duration.
func (m *Metrics) ObserveGeocodeLookup(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.GeocodeLookupsTotal.WithLabelValues(outcome).Inc()
	m.GeocodeLookupSeconds.Observe(seconds)
}

// ObserveSearch records the outcome of one route search.
func (m *Metrics) ObserveSearch(routeCount int) {
	if m == nil {
		return
	}
	outcome := "found"
	if routeCount == 0 {
		outcome = "empty"
	}
	m.SearchesTotal.WithLabelValues(outcome).Inc()
	m.RoutesPerQuery.Observe(float64(routeCount))
}

// SetDatasetSize records the entity counts of the loaded dataset.
func (m *Metrics) SetDatasetSize(platforms, services int) {
	if m == nil {
		return
	}
	m.DatasetPlatforms.Set(float64(platforms))
	m.DatasetServices.Set(float64(services))
}

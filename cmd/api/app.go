package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"combiroute.fr/internal/app"
	"combiroute.fr/internal/appconf"
	"combiroute.fr/internal/clock"
	"combiroute.fr/internal/datastore"
	"combiroute.fr/internal/geocode"
	"combiroute.fr/internal/metrics"
	"combiroute.fr/internal/resolver"
	"combiroute.fr/internal/restapi"
	"combiroute.fr/internal/webui"
)

// ParseAPIKeys splits a comma-separated key list, trimming whitespace and
// dropping empty entries.
func ParseAPIKeys(raw string) []string {
	keys := []string{}
	for _, part := range strings.Split(raw, ",") {
		key := strings.TrimSpace(part)
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// BuildApplication assembles every dependency of the API server from its
// configuration: the logger, the network dataset, the geocoding gateway and
// the resolver over them.
func BuildApplication(cfg appconf.Config) (*app.Application, error) {
	logLevel := slog.LevelInfo
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataset, err := datastore.Load(loadCtx, cfg.DataPath, logger)
	if err != nil {
		return nil, fmt.Errorf("loading network dataset: %w", err)
	}

	m := metrics.NewWithLogger(logger)
	m.SetDatasetSize(len(dataset.Platforms()), len(dataset.Services()))

	gateway := buildGeocoder(cfg.Geocoder, m, logger)

	return &app.Application{
		Config:   cfg,
		Logger:   logger,
		Dataset:  dataset,
		Resolver: resolver.New(dataset, gateway, logger),
		Clock:    clock.RealClock{},
		Metrics:  m,
	}, nil
}

// buildGeocoder wires the Nominatim gateway with its cache. Without an
// endpoint the resolver runs text-only, which is a valid degraded mode.
func buildGeocoder(cfg appconf.GeocoderConfig, m *metrics.Metrics, logger *slog.Logger) geocode.Gateway {
	if cfg.Endpoint == "" {
		return nil
	}

	var cache *geocode.Cache
	if cfg.CacheTTLMinutes > 0 {
		cache = geocode.NewCache(
			time.Duration(cfg.CacheTTLMinutes)*time.Minute,
			cfg.CacheMaxEntries,
			clock.RealClock{},
		)
	}

	return geocode.NewHTTPGateway(geocode.HTTPGatewayOptions{
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
		Timeout:   time.Duration(cfg.TimeoutMS) * time.Millisecond,
		Cache:     cache,
		Metrics:   m,
	}, logger)
}

// CreateServer builds the HTTP server with the full route table and
// middleware chain. The returned rate limiter must be stopped on shutdown.
func CreateServer(coreApp *app.Application) (*http.Server, *restapi.RateLimitMiddleware) {
	api := restapi.NewRestAPI(coreApp)

	mux := http.NewServeMux()
	api.SetRoutes(mux)

	if coreApp.Config.Env != appconf.Production {
		webui.NewWebUI(coreApp).SetRoutes(mux)
	}

	var rateLimiter *restapi.RateLimitMiddleware
	if coreApp.Config.RateLimit > 0 {
		rateLimiter = restapi.NewRateLimitMiddleware(coreApp.Config.RateLimit, time.Minute, coreApp.Clock)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", coreApp.Config.Port),
		Handler:      api.Handler(mux, rateLimiter),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server, rateLimiter
}

// Package restapi exposes the planner over HTTP: city suggestions for
// autocomplete, ranked route search, health and metrics.
package restapi

import (
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"combiroute.fr/internal/app"
)

// RestAPI wires the application dependencies into HTTP handlers.
type RestAPI struct {
	*app.Application
}

// NewRestAPI creates the API surface over the given application.
func NewRestAPI(application *app.Application) *RestAPI {
	return &RestAPI{Application: application}
}

// SetRoutes registers every endpoint on the mux. Responses are gzipped when
// the client accepts it; suggestion responses are cacheable for a short
// window since the dataset only changes on reload.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	requireKey := api.requireValidAPIKey

	mux.Handle("GET /api/plan/suggestions",
		CacheControlMiddleware(60, requireKey(http.HandlerFunc(api.suggestionsHandler))))
	mux.Handle("GET /api/plan/routes",
		requireKey(http.HandlerFunc(api.routesHandler)))
	mux.Handle("GET /api/plan/health", http.HandlerFunc(api.healthHandler))

	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}
}

// Handler assembles the full middleware chain around the routed mux, in the
// same order requests traverse it: request id, logging, metrics, rate limit,
// compression.
func (api *RestAPI) Handler(mux *http.ServeMux, rateLimiter *RateLimitMiddleware) http.Handler {
	var handler http.Handler = mux
	handler = gzhttp.GzipHandler(handler)
	if rateLimiter != nil {
		handler = rateLimiter.Handler()(handler)
	}
	handler = MetricsHandler(api.Metrics)(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}

// requireValidAPIKey rejects requests whose key query parameter is not one of
// the configured API keys. An empty key list disables the check, which test
// and development environments rely on.
func (api *RestAPI) requireValidAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(api.Config.ApiKeys) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		key := r.URL.Query().Get("key")
		for _, allowed := range api.Config.ApiKeys {
			if key == allowed {
				next.ServeHTTP(w, r)
				return
			}
		}
		api.sendUnauthorized(w, r)
	})
}

package app

import (
	"log/slog"

	"combiroute.fr/internal/appconf"
	"combiroute.fr/internal/clock"
	"combiroute.fr/internal/metrics"
	"combiroute.fr/internal/network"
	"combiroute.fr/internal/resolver"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware: configuration, the loaded network dataset, the city
// resolver built over it, and the ambient clock and metrics.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Dataset  *network.Dataset
	Resolver *resolver.Resolver
	Clock    clock.Clock
	Metrics  *metrics.Metrics
}

package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"combiroute.fr/internal/appconf"
	"combiroute.fr/internal/logging"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		port       = flag.Int("port", 0, "API server port (overrides config)")
		env        = flag.String("env", "", "Environment (test|development|production)")
		dataPath   = flag.String("data", "", "Path to the network SQLite database")
		apiKeys    = flag.String("api-keys", "", "Comma-separated list of valid API keys")
		rateLimit  = flag.Int("rate-limit", -1, "Requests per minute per API key (0 blocks, <0 keeps config)")
		verbose    = flag.Bool("verbose", false, "Enable debug logging")
	)
	flag.Parse()

	cfg, err := resolveConfig(*configPath, *port, *env, *dataPath, *apiKeys, *rateLimit, *verbose)
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

// resolveConfig loads the optional config file and applies flag overrides on
// top of it.
func resolveConfig(configPath string, port int, env, dataPath, apiKeys string, rateLimit int, verbose bool) (appconf.Config, error) {
	cfg := appconf.Config{
		Port:      4000,
		Env:       appconf.Development,
		RateLimit: 100,
	}

	if configPath != "" {
		loaded, err := appconf.LoadFromFile(configPath)
		if err != nil {
			return appconf.Config{}, err
		}
		cfg = loaded
	}

	if port > 0 {
		cfg.Port = port
	}
	if env != "" {
		cfg.Env = appconf.EnvFlagToEnvironment(env)
	}
	if dataPath != "" {
		cfg.DataPath = dataPath
	}
	if apiKeys != "" {
		cfg.ApiKeys = ParseAPIKeys(apiKeys)
	}
	if rateLimit >= 0 {
		cfg.RateLimit = rateLimit
	}
	if verbose {
		cfg.Verbose = true
	}

	if cfg.DataPath == "" {
		return appconf.Config{}, errors.New("a network database is required: set -data or dataPath in the config file")
	}

	return cfg, nil
}

func run(cfg appconf.Config) error {
	coreApp, err := BuildApplication(cfg)
	if err != nil {
		return err
	}

	server, rateLimiter := CreateServer(coreApp)
	if rateLimiter != nil {
		defer rateLimiter.Stop()
	}

	shutdownErr := make(chan error, 1)
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		sig := <-quit

		logging.LogOperation(coreApp.Logger, "shutting down server", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		shutdownErr <- server.Shutdown(ctx)
	}()

	logging.LogOperation(coreApp.Logger, "starting server",
		slog.String("addr", server.Addr),
		slog.String("env", cfg.Env.String()),
		slog.Int("platforms", len(coreApp.Dataset.Platforms())),
		slog.Int("services", len(coreApp.Dataset.Services())))

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return <-shutdownErr
}

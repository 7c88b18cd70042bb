// Package appconf holds the application configuration and its file loader.
package appconf

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Environment describes the runtime environment of the application.
type Environment int

const (
	Test Environment = iota
	Development
	Production
)

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Development:
		return "development"
	case Production:
		return "production"
	}
	return "unknown"
}

// EnvFlagToEnvironment maps a command-line environment name to its
// Environment value. Unknown names default to Development.
func EnvFlagToEnvironment(flag string) Environment {
	switch flag {
	case "test":
		return Test
	case "production":
		return Production
	default:
		return Development
	}
}

// Config carries everything the API server needs to start.
type Config struct {
	Port      int         `yaml:"port" validate:"gt=0,lte=65535"`
	Env       Environment `yaml:"-"`
	EnvName   string      `yaml:"env" validate:"omitempty,oneof=test development production"`
	ApiKeys   []string    `yaml:"apiKeys"`
	RateLimit int         `yaml:"rateLimit" validate:"gte=0"`
	Verbose   bool        `yaml:"verbose"`

	// DataPath locates the SQLite file holding the canonical platform and
	// service lists produced by the ingestion pipeline.
	DataPath string `yaml:"dataPath" validate:"required"`

	Geocoder GeocoderConfig `yaml:"geocoder"`

	// MaxTransferCandidates caps per-query transfer expansion; zero keeps
	// the engine default.
	MaxTransferCandidates int `yaml:"maxTransferCandidates" validate:"gte=0"`
}

// GeocoderConfig configures the geocoding gateway and its cache policy.
type GeocoderConfig struct {
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	UserAgent       string `yaml:"userAgent"`
	TimeoutMS       int    `yaml:"timeoutMS" validate:"gte=0"`
	CacheTTLMinutes int    `yaml:"cacheTTLMinutes" validate:"gte=0"`
	CacheMaxEntries int    `yaml:"cacheMaxEntries" validate:"gte=0"`
}

// LoadFromFile reads and validates a YAML config file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config file: %w", err)
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	cfg.Env = EnvFlagToEnvironment(cfg.EnvName)
	return cfg, nil
}

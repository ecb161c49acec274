// Package config provides configuration management for the Memoria client.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment identifies the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the full configuration for the client and the dev server.
type Config struct {
	Environment Environment

	API      APIConfig
	Auth     AuthConfig
	Resolver ResolverConfig
	Breaker  BreakerConfig
	Tracing  TracingConfig
	Server   ServerConfig
}

// APIConfig configures the REST client transport.
type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// AuthConfig configures the token source. When SupabaseURL is empty a
// static token from MEMORIA_TOKEN is used.
type AuthConfig struct {
	SupabaseURL string
	SupabaseKey string
	StaticToken string
}

// ResolverConfig bounds the availability fan-out.
type ResolverConfig struct {
	Concurrency int
	ItemTimeout time.Duration
	Policy      string
}

// BreakerConfig configures the transport circuit breaker.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// TracingConfig configures the optional OTLP exporter.
type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

// ServerConfig configures the local dev server.
type ServerConfig struct {
	Addr      string
	JWTSecret string
}

// Default returns the built-in configuration before any overlay.
func Default() Config {
	return Config{
		Environment: Development,
		API: APIConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 30 * time.Second,
		},
		Resolver: ResolverConfig{
			Concurrency: 8,
			ItemTimeout: 5 * time.Second,
			Policy:      "exclusive",
		},
		Breaker: BreakerConfig{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		Server: ServerConfig{
			Addr:      ":8080",
			JWTSecret: "dev-secret",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file
// named by MEMORIA_CONFIG, and finally environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("MEMORIA_CONFIG"); path != "" {
		if err := loadFile(&cfg, path); err != nil {
			return cfg, fmt.Errorf("loading %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func applyEnv(cfg *Config) {
	if v := os.Getenv("MEMORIA_ENV"); v != "" {
		cfg.Environment = Environment(v)
	}
	if v := os.Getenv("MEMORIA_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("MEMORIA_TOKEN"); v != "" {
		cfg.Auth.StaticToken = v
	}
	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Auth.SupabaseURL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.Auth.SupabaseKey = v
	}
	if v := os.Getenv("MEMORIA_RESOLVER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Resolver.Concurrency = n
		}
	}
	if v := os.Getenv("MEMORIA_RESOLVER_ITEM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Resolver.ItemTimeout = d
		}
	}
	if v := os.Getenv("MEMORIA_RESOLVER_POLICY"); v != "" {
		cfg.Resolver.Policy = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.Tracing.Enabled = true
		cfg.Tracing.Endpoint = v
	}
	if v := os.Getenv("MEMORIA_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("MEMORIA_JWT_SECRET"); v != "" {
		cfg.Server.JWTSecret = v
	}
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base URL must not be empty")
	}
	if c.Resolver.Concurrency <= 0 {
		return fmt.Errorf("resolver concurrency must be positive, got %d", c.Resolver.Concurrency)
	}
	if c.Resolver.ItemTimeout <= 0 {
		return fmt.Errorf("resolver item timeout must be positive, got %s", c.Resolver.ItemTimeout)
	}
	switch c.Resolver.Policy {
	case "exclusive", "shared":
	default:
		return fmt.Errorf("resolver policy must be exclusive or shared, got %q", c.Resolver.Policy)
	}
	return nil
}

// IsDevelopment reports whether the environment is development.
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

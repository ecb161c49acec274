package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the YAML surface. Durations are strings in Go
// syntax ("5s", "1m30s"); pointers distinguish absent keys from zero
// values so the file only overrides what it names.
type fileConfig struct {
	Environment *string `yaml:"environment"`

	API struct {
		BaseURL        *string `yaml:"base_url"`
		RequestTimeout *string `yaml:"request_timeout"`
	} `yaml:"api"`

	Auth struct {
		SupabaseURL *string `yaml:"supabase_url"`
		SupabaseKey *string `yaml:"supabase_key"`
		StaticToken *string `yaml:"static_token"`
	} `yaml:"auth"`

	Resolver struct {
		Concurrency *int    `yaml:"concurrency"`
		ItemTimeout *string `yaml:"item_timeout"`
		Policy      *string `yaml:"policy"`
	} `yaml:"resolver"`

	Breaker struct {
		MaxRequests      *uint32  `yaml:"max_requests"`
		Interval         *string  `yaml:"interval"`
		Timeout          *string  `yaml:"timeout"`
		FailureThreshold *float64 `yaml:"failure_threshold"`
		MinRequests      *uint32  `yaml:"min_requests"`
	} `yaml:"breaker"`

	Tracing struct {
		Enabled  *bool   `yaml:"enabled"`
		Endpoint *string `yaml:"endpoint"`
	} `yaml:"tracing"`

	Server struct {
		Addr      *string `yaml:"addr"`
		JWTSecret *string `yaml:"jwt_secret"`
	} `yaml:"server"`
}

// loadFile overlays a YAML configuration file onto cfg.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if fc.Environment != nil {
		cfg.Environment = Environment(*fc.Environment)
	}
	setString(fc.API.BaseURL, &cfg.API.BaseURL)
	if err := setDuration(fc.API.RequestTimeout, &cfg.API.RequestTimeout); err != nil {
		return fmt.Errorf("api.request_timeout: %w", err)
	}
	setString(fc.Auth.SupabaseURL, &cfg.Auth.SupabaseURL)
	setString(fc.Auth.SupabaseKey, &cfg.Auth.SupabaseKey)
	setString(fc.Auth.StaticToken, &cfg.Auth.StaticToken)
	if fc.Resolver.Concurrency != nil {
		cfg.Resolver.Concurrency = *fc.Resolver.Concurrency
	}
	if err := setDuration(fc.Resolver.ItemTimeout, &cfg.Resolver.ItemTimeout); err != nil {
		return fmt.Errorf("resolver.item_timeout: %w", err)
	}
	setString(fc.Resolver.Policy, &cfg.Resolver.Policy)
	if fc.Breaker.MaxRequests != nil {
		cfg.Breaker.MaxRequests = *fc.Breaker.MaxRequests
	}
	if err := setDuration(fc.Breaker.Interval, &cfg.Breaker.Interval); err != nil {
		return fmt.Errorf("breaker.interval: %w", err)
	}
	if err := setDuration(fc.Breaker.Timeout, &cfg.Breaker.Timeout); err != nil {
		return fmt.Errorf("breaker.timeout: %w", err)
	}
	if fc.Breaker.FailureThreshold != nil {
		cfg.Breaker.FailureThreshold = *fc.Breaker.FailureThreshold
	}
	if fc.Breaker.MinRequests != nil {
		cfg.Breaker.MinRequests = *fc.Breaker.MinRequests
	}
	if fc.Tracing.Enabled != nil {
		cfg.Tracing.Enabled = *fc.Tracing.Enabled
	}
	setString(fc.Tracing.Endpoint, &cfg.Tracing.Endpoint)
	setString(fc.Server.Addr, &cfg.Server.Addr)
	setString(fc.Server.JWTSecret, &cfg.Server.JWTSecret)

	return nil
}

func setString(src *string, dst *string) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(src *string, dst *time.Duration) error {
	if src == nil {
		return nil
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

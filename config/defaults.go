package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: "development",
		Version:     "1.0.0",
		Server: ServerConfig{
			Addr:            "0.0.0.0:8000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Backend:  "memory",
			Capacity: 60,
			Window:   time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Batch: BatchConfig{
			Workers:         4,
			ProgressEvery:   1000,
			MaxRequestItems: 1000,
		},
		Metrics: MetricsConfig{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			Interval:     10 * time.Second,
			ServiceName:  "contract-features",
		},
	}
}

// Settings flattens cfg into the nested key layout used by the YAML file
// and by viper defaults. Durations are written in time.Duration notation.
func (c *Config) Settings() map[string]any {
	return map[string]any{
		"environment": c.Environment,
		"version":     c.Version,
		"server": map[string]any{
			"addr":             c.Server.Addr,
			"read_timeout":     c.Server.ReadTimeout.String(),
			"write_timeout":    c.Server.WriteTimeout.String(),
			"idle_timeout":     c.Server.IdleTimeout.String(),
			"shutdown_timeout": c.Server.ShutdownTimeout.String(),
		},
		"log": map[string]any{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"rate_limit": map[string]any{
			"enabled":  c.RateLimit.Enabled,
			"backend":  c.RateLimit.Backend,
			"capacity": c.RateLimit.Capacity,
			"window":   c.RateLimit.Window.String(),
		},
		"redis": map[string]any{
			"addr":     c.Redis.Addr,
			"password": c.Redis.Password,
			"db":       c.Redis.DB,
		},
		"batch": map[string]any{
			"workers":           c.Batch.Workers,
			"progress_every":    c.Batch.ProgressEvery,
			"max_request_items": c.Batch.MaxRequestItems,
		},
		"metrics": map[string]any{
			"enabled":       c.Metrics.Enabled,
			"otlp_endpoint": c.Metrics.OTLPEndpoint,
			"interval":      c.Metrics.Interval.String(),
			"service_name":  c.Metrics.ServiceName,
		},
	}
}

// WriteDefault writes the default configuration as YAML. An existing file
// is left untouched unless overwrite is set.
func WriteDefault(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}

	out, err := yaml.Marshal(Default().Settings())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}

	header := []byte("# contract-features configuration\n# Environment variables (FEATURES_SERVER_ADDR, FEATURES_LOG_LEVEL, ...) override these values.\n")
	return os.WriteFile(path, append(header, out...), 0644)
}

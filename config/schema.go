package config

import "time"

// Config is the full service configuration.
type Config struct {
	Environment string `mapstructure:"environment"`
	Version     string `mapstructure:"version"`

	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
}

type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Backend  string        `mapstructure:"backend"` // memory or redis
	Capacity int           `mapstructure:"capacity"`
	Window   time.Duration `mapstructure:"window"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type BatchConfig struct {
	Workers         int `mapstructure:"workers"`
	ProgressEvery   int `mapstructure:"progress_every"`
	MaxRequestItems int `mapstructure:"max_request_items"`
}

type MetricsConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	OTLPEndpoint string        `mapstructure:"otlp_endpoint"`
	Interval     time.Duration `mapstructure:"interval"`
	ServiceName  string        `mapstructure:"service_name"`
}

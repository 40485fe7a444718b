// Package config loads and validates the application configuration.
//
// Settings come from a YAML file; the upstream API key is taken from
// the environment only and never appears in the file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvAPIKey is the environment variable holding the upstream API key.
const EnvAPIKey = "SCOUT_API_KEY"

// Defaults applied when the file omits a field.
const (
	DefaultTimeoutMs          = 10000
	DefaultMaxPerSecond       = 5
	DefaultMaxPerMinute       = 100
	DefaultRetryAttempts      = 3
	DefaultIntervalSeconds    = 300
	DefaultMinDepositUSD      = 1000
	DefaultResolverTTLSeconds = 3600
	DefaultServerAddr         = ":8080"

	// MinIntervalSeconds is the shortest allowed scan period.
	MinIntervalSeconds = 60
)

// Config is the root configuration.
type Config struct {
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Scan      ScanConfig      `yaml:"scan"`
	Freshness FreshnessConfig `yaml:"freshness"`
	Notify    NotifyConfig    `yaml:"notifications"`
	Storage   StorageConfig   `yaml:"storage"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// UpstreamConfig configures the chain-data provider client.
type UpstreamConfig struct {
	BaseURL       string `yaml:"baseUrl"`
	TimeoutMs     int    `yaml:"timeoutMs"`
	MaxPerSecond  int    `yaml:"maxRequestsPerSecond"`
	MaxPerMinute  int    `yaml:"maxRequestsPerMinute"`
	RetryAttempts int    `yaml:"retryAttempts"`

	// APIKey is read from SCOUT_API_KEY, never from the file.
	APIKey string `yaml:"-"`
}

// Timeout returns the per-request timeout.
func (u UpstreamConfig) Timeout() time.Duration {
	return time.Duration(u.TimeoutMs) * time.Millisecond
}

// ScanConfig configures the detection loop.
type ScanConfig struct {
	Chains             []string `yaml:"chains"`
	Symbols            []string `yaml:"symbols"`
	MinDepositUSD      float64  `yaml:"minDepositUsd"`
	IntervalSeconds    int      `yaml:"intervalSeconds"`
	ScanTimeoutSeconds int      `yaml:"scanTimeoutSeconds"`
	ResolverTTLSeconds int      `yaml:"resolverTtlSeconds"`
}

// Interval returns the scan period.
func (s ScanConfig) Interval() time.Duration {
	return time.Duration(s.IntervalSeconds) * time.Second
}

// ScanTimeout returns the per-scan deadline. Zero disables it.
func (s ScanConfig) ScanTimeout() time.Duration {
	return time.Duration(s.ScanTimeoutSeconds) * time.Second
}

// ResolverTTL returns how long resolved token descriptors stay cached.
func (s ScanConfig) ResolverTTL() time.Duration {
	return time.Duration(s.ResolverTTLSeconds) * time.Second
}

// FreshnessConfig toggles the secondary freshness signals. Both are off
// unless enabled explicitly.
type FreshnessConfig struct {
	CheckBalances           bool `yaml:"checkBalances"`
	CheckHistoricalBalances bool `yaml:"checkHistoricalBalances"`
}

// NotifyConfig configures detection outputs.
type NotifyConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig configures the Kafka notifier.
type KafkaConfig struct {
	Enabled bool   `yaml:"enabled"`
	Brokers string `yaml:"brokers"`
	Topic   string `yaml:"topic"`
}

// StorageConfig selects the watchlist backend. An empty DSN keeps the
// watchlist in memory.
type StorageConfig struct {
	PostgresDSN string `yaml:"postgresDsn"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads, defaults and validates the configuration at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	cfg.Upstream.APIKey = os.Getenv(EnvAPIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Upstream.TimeoutMs == 0 {
		c.Upstream.TimeoutMs = DefaultTimeoutMs
	}
	if c.Upstream.MaxPerSecond == 0 {
		c.Upstream.MaxPerSecond = DefaultMaxPerSecond
	}
	if c.Upstream.MaxPerMinute == 0 {
		c.Upstream.MaxPerMinute = DefaultMaxPerMinute
	}
	if c.Upstream.RetryAttempts == 0 {
		c.Upstream.RetryAttempts = DefaultRetryAttempts
	}
	if c.Scan.IntervalSeconds == 0 {
		c.Scan.IntervalSeconds = DefaultIntervalSeconds
	}
	if c.Scan.MinDepositUSD == 0 {
		c.Scan.MinDepositUSD = DefaultMinDepositUSD
	}
	if c.Scan.ResolverTTLSeconds == 0 {
		c.Scan.ResolverTTLSeconds = DefaultResolverTTLSeconds
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
}

// Validate checks that the configuration can actually run.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.baseUrl is required")
	}
	if c.Upstream.APIKey == "" {
		return fmt.Errorf("%s environment variable is required", EnvAPIKey)
	}
	if c.Upstream.TimeoutMs <= 0 {
		return fmt.Errorf("upstream.timeoutMs must be positive, got %d", c.Upstream.TimeoutMs)
	}
	if c.Upstream.MaxPerSecond <= 0 {
		return fmt.Errorf("upstream.maxRequestsPerSecond must be positive, got %d", c.Upstream.MaxPerSecond)
	}
	if c.Upstream.MaxPerMinute <= 0 {
		return fmt.Errorf("upstream.maxRequestsPerMinute must be positive, got %d", c.Upstream.MaxPerMinute)
	}
	if c.Upstream.RetryAttempts < 0 {
		return fmt.Errorf("upstream.retryAttempts must not be negative, got %d", c.Upstream.RetryAttempts)
	}
	if len(c.Scan.Chains) == 0 {
		return fmt.Errorf("scan.chains must list at least one chain")
	}
	if c.Scan.MinDepositUSD <= 0 {
		return fmt.Errorf("scan.minDepositUsd must be positive, got %v", c.Scan.MinDepositUSD)
	}
	if c.Scan.IntervalSeconds < MinIntervalSeconds {
		return fmt.Errorf("scan.intervalSeconds must be at least %d, got %d", MinIntervalSeconds, c.Scan.IntervalSeconds)
	}
	if c.Scan.ScanTimeoutSeconds < 0 {
		return fmt.Errorf("scan.scanTimeoutSeconds must not be negative, got %d", c.Scan.ScanTimeoutSeconds)
	}
	if c.Notify.Kafka.Enabled {
		if c.Notify.Kafka.Brokers == "" {
			return fmt.Errorf("notifications.kafka.brokers is required when kafka is enabled")
		}
		if c.Notify.Kafka.Topic == "" {
			return fmt.Errorf("notifications.kafka.topic is required when kafka is enabled")
		}
	}
	return nil
}

package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for couponengine.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"    yaml:"engine"`
	Proxy     ProxyConfig     `mapstructure:"proxy"     yaml:"proxy"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
	Dedup     DedupConfig     `mapstructure:"dedup"     yaml:"dedup"`
	Storage   StorageConfig   `mapstructure:"storage"   yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"   yaml:"metrics"`
}

// EngineConfig controls the orchestrator and fetcher.
type EngineConfig struct {
	MaxConcurrentRequests int           `mapstructure:"max_concurrent_requests" yaml:"max_concurrent_requests"`
	RequestTimeout        time.Duration `mapstructure:"request_timeout_secs"    yaml:"request_timeout_secs"`
	RetryAttempts         int           `mapstructure:"retry_attempts"          yaml:"retry_attempts"`
	ProxyRotationEnabled  bool          `mapstructure:"proxy_rotation_enabled"  yaml:"proxy_rotation_enabled"`
	UserAgentRotation     bool          `mapstructure:"user_agent_rotation"     yaml:"user_agent_rotation"`
	CacheDurationSecs     time.Duration `mapstructure:"cache_duration_secs"     yaml:"cache_duration_secs"`
	UserAgents            []string      `mapstructure:"user_agents"             yaml:"user_agents"`
}

// ProxyConfig controls the proxy pool's rotation and quarantine behavior.
type ProxyConfig struct {
	Enabled          bool          `mapstructure:"enabled"           yaml:"enabled"`
	RequireProxy     bool          `mapstructure:"require_proxy"     yaml:"require_proxy"`
	ProxyFile        string        `mapstructure:"proxy_file"        yaml:"proxy_file"`
	RotationInterval time.Duration `mapstructure:"rotation_interval" yaml:"rotation_interval"`
	MaxFailures      int           `mapstructure:"max_failures"      yaml:"max_failures"`
	RetryAfter       time.Duration `mapstructure:"retry_after"       yaml:"retry_after"`
}

// RateLimitConfig selects and tunes the admission-control discipline
// applied per domain.
type RateLimitConfig struct {
	Discipline          string        `mapstructure:"discipline"             yaml:"discipline"` // sliding_window, token_bucket
	PerDomainLimit      int           `mapstructure:"rate_limit_per_domain"  yaml:"rate_limit_per_domain"`
	WindowSize          time.Duration `mapstructure:"window_size"            yaml:"window_size"`
	TokenBucketCapacity float64       `mapstructure:"token_bucket_capacity"  yaml:"token_bucket_capacity"`
	TokenRefillPerSec   float64       `mapstructure:"token_refill_per_sec"   yaml:"token_refill_per_sec"`
	Distributed         bool          `mapstructure:"distributed"            yaml:"distributed"`
}

// DedupConfig selects the deduplication strategy and its fuzzy threshold.
type DedupConfig struct {
	Strategy  string  `mapstructure:"strategy"  yaml:"strategy"` // code_merchant, hash, fuzzy, combined
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type       string `mapstructure:"type"        yaml:"type"`
	OutputPath string `mapstructure:"output_path" yaml:"output_path"`
	BatchSize  int    `mapstructure:"batch_size"  yaml:"batch_size"`
}

// LoggingConfig holds logging settings. They are validated, but the
// CLI's logger takes its level from the --verbose flag only.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig holds Prometheus metrics settings. They are validated,
// but no metrics server is started.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxConcurrentRequests: 10,
			RequestTimeout:        30 * time.Second,
			RetryAttempts:         3,
			ProxyRotationEnabled:  false,
			UserAgentRotation:     true,
			CacheDurationSecs:     300 * time.Second,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			},
		},
		Proxy: ProxyConfig{
			Enabled:          false,
			RequireProxy:     false,
			RotationInterval: 60 * time.Second,
			MaxFailures:      3,
			RetryAfter:       300 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Discipline:          "sliding_window",
			PerDomainLimit:      10,
			WindowSize:          time.Second,
			TokenBucketCapacity: 10,
			TokenRefillPerSec:   10,
			Distributed:         false,
		},
		Dedup: DedupConfig{
			Strategy:  "combined",
			Threshold: 0.85,
		},
		Storage: StorageConfig{
			Type:       "json",
			OutputPath: "./output",
			BatchSize:  100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

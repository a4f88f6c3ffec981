package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment over the defaults.
// Priority (highest to lowest): env vars > config file > defaults. CLI
// flags are not read here; callers apply them to the returned Config.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("COUPONENGINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("couponengine")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".couponengine"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified.
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("engine.max_concurrent_requests", cfg.Engine.MaxConcurrentRequests)
	v.SetDefault("engine.request_timeout_secs", cfg.Engine.RequestTimeout)
	v.SetDefault("engine.retry_attempts", cfg.Engine.RetryAttempts)
	v.SetDefault("engine.proxy_rotation_enabled", cfg.Engine.ProxyRotationEnabled)
	v.SetDefault("engine.user_agent_rotation", cfg.Engine.UserAgentRotation)
	v.SetDefault("engine.cache_duration_secs", cfg.Engine.CacheDurationSecs)
	v.SetDefault("engine.user_agents", cfg.Engine.UserAgents)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.require_proxy", cfg.Proxy.RequireProxy)
	v.SetDefault("proxy.proxy_file", cfg.Proxy.ProxyFile)
	v.SetDefault("proxy.rotation_interval", cfg.Proxy.RotationInterval)
	v.SetDefault("proxy.max_failures", cfg.Proxy.MaxFailures)
	v.SetDefault("proxy.retry_after", cfg.Proxy.RetryAfter)

	v.SetDefault("rate_limit.discipline", cfg.RateLimit.Discipline)
	v.SetDefault("rate_limit.rate_limit_per_domain", cfg.RateLimit.PerDomainLimit)
	v.SetDefault("rate_limit.window_size", cfg.RateLimit.WindowSize)
	v.SetDefault("rate_limit.token_bucket_capacity", cfg.RateLimit.TokenBucketCapacity)
	v.SetDefault("rate_limit.token_refill_per_sec", cfg.RateLimit.TokenRefillPerSec)
	v.SetDefault("rate_limit.distributed", cfg.RateLimit.Distributed)

	v.SetDefault("dedup.strategy", cfg.Dedup.Strategy)
	v.SetDefault("dedup.threshold", cfg.Dedup.Threshold)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.batch_size", cfg.Storage.BatchSize)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}

package config

import (
	"fmt"
	"net/url"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if cfg.Engine.MaxConcurrentRequests < 1 {
		return fmt.Errorf("engine.max_concurrent_requests must be >= 1, got %d", cfg.Engine.MaxConcurrentRequests)
	}
	if cfg.Engine.MaxConcurrentRequests > 1000 {
		return fmt.Errorf("engine.max_concurrent_requests must be <= 1000, got %d", cfg.Engine.MaxConcurrentRequests)
	}
	if cfg.Engine.RequestTimeout <= 0 {
		return fmt.Errorf("engine.request_timeout_secs must be > 0")
	}
	if cfg.Engine.RetryAttempts < 0 {
		return fmt.Errorf("engine.retry_attempts must be >= 0, got %d", cfg.Engine.RetryAttempts)
	}

	if cfg.Proxy.Enabled {
		if cfg.Proxy.RotationInterval <= 0 {
			return fmt.Errorf("proxy.rotation_interval must be > 0 when proxy is enabled")
		}
		if cfg.Proxy.MaxFailures < 1 {
			return fmt.Errorf("proxy.max_failures must be >= 1, got %d", cfg.Proxy.MaxFailures)
		}
	}

	validDisciplines := map[string]bool{"sliding_window": true, "token_bucket": true}
	if !validDisciplines[cfg.RateLimit.Discipline] {
		return fmt.Errorf("rate_limit.discipline must be 'sliding_window' or 'token_bucket', got %q", cfg.RateLimit.Discipline)
	}
	if cfg.RateLimit.PerDomainLimit < 1 {
		return fmt.Errorf("rate_limit.rate_limit_per_domain must be >= 1, got %d", cfg.RateLimit.PerDomainLimit)
	}

	validDedupStrategies := map[string]bool{"code_merchant": true, "hash": true, "fuzzy": true, "combined": true}
	if !validDedupStrategies[cfg.Dedup.Strategy] {
		return fmt.Errorf("dedup.strategy %q is not supported (valid: code_merchant, hash, fuzzy, combined)", cfg.Dedup.Strategy)
	}
	if cfg.Dedup.Strategy == "fuzzy" || cfg.Dedup.Strategy == "combined" {
		if cfg.Dedup.Threshold <= 0 || cfg.Dedup.Threshold > 1 {
			return fmt.Errorf("dedup.threshold must be in (0, 1], got %v", cfg.Dedup.Threshold)
		}
	}

	validStorageTypes := map[string]bool{"json": true, "jsonl": true, "csv": true}
	if !validStorageTypes[cfg.Storage.Type] {
		return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv)", cfg.Storage.Type)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid for ingestion.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

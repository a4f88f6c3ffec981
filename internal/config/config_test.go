package config

import "testing"

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestValidateRejectsZeroConcurrency(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Engine.MaxConcurrentRequests = 0
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for zero concurrency")
	}
}

func TestValidateRejectsUnknownDiscipline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.Discipline = "leaky_bucket"
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for unknown rate limit discipline")
	}
}

func TestValidateRejectsFuzzyThresholdOutOfRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dedup.Strategy = "fuzzy"
	cfg.Dedup.Threshold = 1.5
	if err := Validate(cfg); err == nil {
		t.Fatalf("expected error for out-of-range fuzzy threshold")
	}
}

func TestValidateURLRejectsNonHTTPScheme(t *testing.T) {
	if err := ValidateURL("ftp://example.com/file"); err == nil {
		t.Fatalf("expected error for non-http(s) scheme")
	}
}

func TestValidateURLAcceptsHTTPS(t *testing.T) {
	if err := ValidateURL("https://example.com/deals"); err != nil {
		t.Fatalf("expected valid URL, got %v", err)
	}
}

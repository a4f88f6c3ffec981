package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dealmate/couponengine/internal/config"
	"github.com/dealmate/couponengine/internal/dedup"
	"github.com/dealmate/couponengine/internal/engine"
	"github.com/dealmate/couponengine/internal/fetcher"
	"github.com/dealmate/couponengine/internal/parser"
	"github.com/dealmate/couponengine/internal/proxypool"
	"github.com/dealmate/couponengine/internal/ratelimit"
	"github.com/dealmate/couponengine/internal/storage"
	"github.com/dealmate/couponengine/internal/validator"
)

var (
	cfgFile    string
	verbose    bool
	outputPath string
	outputType string
	concurrent int
	urlsFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "couponengine",
		Short: "couponengine — concurrent coupon aggregation engine",
		Long: `couponengine ingests coupon listing pages and feeds from merchant and
affiliate sources, extracts candidate codes, validates them, and
collapses duplicates into a clean coupon set.

Features:
  • Per-domain rate limiting (sliding-window or token-bucket)
  • Self-healing proxy rotation with quarantine/recovery
  • HTML/JSON/CSV/text multi-tier extraction
  • Four-gate validation (code, discount, dates, merchant)
  • Exact, hash, and fuzzy-similarity deduplication
  • JSON, JSONL, CSV export`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func ingestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [url...]",
		Short: "Ingest one or more coupon source URLs",
		Long:  "Fetch, parse, validate, and deduplicate coupons from the given source URL(s).",
		RunE:  runIngest,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output directory (overrides config)")
	cmd.Flags().StringVarP(&outputType, "format", "f", "", "output format: json, jsonl, csv (overrides config)")
	cmd.Flags().IntVarP(&concurrent, "concurrency", "n", 0, "max concurrent requests (overrides config)")
	cmd.Flags().StringVar(&urlsFile, "urls-file", "", "file containing one source URL per line")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	urls, err := collectURLs(args)
	if err != nil {
		return err
	}
	for _, rawURL := range urls {
		if err := config.ValidateURL(rawURL); err != nil {
			return fmt.Errorf("invalid URL %q: %w", rawURL, err)
		}
	}
	if len(urls) == 0 {
		return fmt.Errorf("no source URLs given (pass them as arguments or via --urls-file)")
	}

	logger.Info("starting ingest",
		"urls", len(urls),
		"concurrency", cfg.Engine.MaxConcurrentRequests,
		"output", cfg.Storage.OutputPath,
		"format", cfg.Storage.Type,
	)

	eng, store, err := buildEngine(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	start := time.Now()
	coupons, err := eng.ProcessBatch(ctx, urls)
	if err != nil {
		return fmt.Errorf("process batch: %w", err)
	}

	if err := store.Store(coupons); err != nil {
		return fmt.Errorf("store coupons: %w", err)
	}
	if err := store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}

	elapsed := time.Since(start)
	logger.Info("ingest complete",
		"elapsed", elapsed,
		"urls", len(urls),
		"coupons", len(coupons),
		"output", cfg.Storage.OutputPath,
	)

	fmt.Printf("\nIngest complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  URLs:    %d processed\n", len(urls))
	fmt.Printf("  Coupons: %d after validation and dedup\n", len(coupons))
	fmt.Printf("  Output:  %s\n", cfg.Storage.OutputPath)

	return nil
}

func buildEngine(cfg *config.Config, logger *slog.Logger) (*engine.Engine, storage.Storage, error) {
	var proxies *proxypool.Pool
	if cfg.Proxy.Enabled {
		proxies = proxypool.New(proxypool.Config{
			RotationInterval: cfg.Proxy.RotationInterval,
			MaxFailures:      cfg.Proxy.MaxFailures,
			RetryAfter:       cfg.Proxy.RetryAfter,
		})
		if cfg.Proxy.ProxyFile != "" {
			loaded, err := proxypool.LoadFromFile(cfg.Proxy.ProxyFile, proxypool.Config{
				RotationInterval: cfg.Proxy.RotationInterval,
				MaxFailures:      cfg.Proxy.MaxFailures,
				RetryAfter:       cfg.Proxy.RetryAfter,
			})
			if err != nil {
				return nil, nil, fmt.Errorf("load proxy file: %w", err)
			}
			proxies = loaded
		}
	}

	f := fetcher.New(fetcher.Config{
		RequestTimeout:    cfg.Engine.RequestTimeout,
		RetryAttempts:     cfg.Engine.RetryAttempts,
		ProxyEnabled:      cfg.Proxy.Enabled,
		UserAgentRotation: cfg.Engine.UserAgentRotation,
		RequireProxy:      cfg.Proxy.RequireProxy,
		UserAgents:        cfg.Engine.UserAgents,
	}, proxies, logger)

	limiter := buildLimiter(cfg)
	p := parser.New(logger)
	v := validator.New()
	ds := buildDedupStrategy(cfg)

	eng := engine.New(engine.Config{MaxConcurrentRequests: cfg.Engine.MaxConcurrentRequests}, limiter, proxies, f, p, v, ds, logger)

	store, err := storage.NewFileStorage(cfg.Storage.Type, cfg.Storage.OutputPath, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create storage: %w", err)
	}

	return eng, store, nil
}

func buildLimiter(cfg *config.Config) ratelimit.Limiter {
	var local ratelimit.Limiter
	switch cfg.RateLimit.Discipline {
	case "token_bucket":
		local = ratelimit.NewTokenBucket(cfg.RateLimit.TokenBucketCapacity, cfg.RateLimit.TokenRefillPerSec)
	default:
		window := cfg.RateLimit.WindowSize
		if window <= 0 {
			window = time.Second
		}
		local = ratelimit.NewSlidingWindow(window, cfg.RateLimit.PerDomainLimit)
	}
	return local
}

func buildDedupStrategy(cfg *config.Config) dedup.Strategy {
	switch cfg.Dedup.Strategy {
	case "code_merchant":
		return dedup.CodeAndMerchant{}
	case "hash":
		return dedup.HashBased{}
	case "fuzzy":
		return dedup.Fuzzy{Threshold: cfg.Dedup.Threshold}
	default:
		return dedup.Combined{}
	}
}

func collectURLs(args []string) ([]string, error) {
	urls := append([]string{}, args...)

	if urlsFile != "" {
		f, err := os.Open(urlsFile)
		if err != nil {
			return nil, fmt.Errorf("open urls file: %w", err)
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				urls = append(urls, line)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read urls file: %w", err)
		}
	}

	return urls, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("couponengine %s\n", config.Version)
		},
	}
}

func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Engine:\n")
			fmt.Printf("  Max Concurrent Requests: %d\n", cfg.Engine.MaxConcurrentRequests)
			fmt.Printf("  Request Timeout:         %s\n", cfg.Engine.RequestTimeout)
			fmt.Printf("  Retry Attempts:          %d\n", cfg.Engine.RetryAttempts)
			fmt.Printf("  User Agent Rotation:     %v\n", cfg.Engine.UserAgentRotation)
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:   %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Require:   %v\n", cfg.Proxy.RequireProxy)
			fmt.Printf("\nRate Limit:\n")
			fmt.Printf("  Discipline: %s\n", cfg.RateLimit.Discipline)
			fmt.Printf("  Per Domain: %d\n", cfg.RateLimit.PerDomainLimit)
			fmt.Printf("\nDedup:\n")
			fmt.Printf("  Strategy:  %s\n", cfg.Dedup.Strategy)
			fmt.Printf("  Threshold: %v\n", cfg.Dedup.Threshold)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:       %s\n", cfg.Storage.Type)
			fmt.Printf("  Output Path: %s\n", cfg.Storage.OutputPath)
			return nil
		},
	}
}

func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func applyCLIOverrides(cfg *config.Config) {
	if concurrent > 0 {
		cfg.Engine.MaxConcurrentRequests = concurrent
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if outputType != "" {
		cfg.Storage.Type = strings.ToLower(outputType)
	}
}

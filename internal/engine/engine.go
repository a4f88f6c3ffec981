// Package engine orchestrates a batch of URLs through the fetch, parse,
// validate, and dedup stages, per spec §4.1/§5.
package engine

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/dealmate/couponengine/internal/dedup"
	"github.com/dealmate/couponengine/internal/fetcher"
	"github.com/dealmate/couponengine/internal/parser"
	"github.com/dealmate/couponengine/internal/proxypool"
	"github.com/dealmate/couponengine/internal/ratelimit"
	"github.com/dealmate/couponengine/internal/types"
	"github.com/dealmate/couponengine/internal/validator"
)

// Config bounds how many URLs the engine fetches concurrently.
type Config struct {
	MaxConcurrentRequests int
}

// Result records, inside ProcessBatch, the outcome for one input URL:
// either a set of coupons, or the error that stopped processing it.
// Individual URL failures never abort the batch.
type Result struct {
	URL     string
	Coupons []*types.RawCoupon
	Err     error
}

// Engine wires the per-stage components together into a single
// ProcessBatch entry point.
type Engine struct {
	cfg       Config
	limiter   ratelimit.Limiter
	proxies   *proxypool.Pool
	fetcher   *fetcher.Fetcher
	parser    *parser.Parser
	validator *validator.Validator
	dedup     dedup.Strategy
	logger    *slog.Logger
}

// New wires an Engine from its constituent stages. Any of limiter,
// proxies, or dedupStrategy may be nil: a nil limiter means no rate
// limiting is applied, and a nil dedupStrategy defaults to Combined.
func New(cfg Config, limiter ratelimit.Limiter, proxies *proxypool.Pool, f *fetcher.Fetcher, p *parser.Parser, v *validator.Validator, dedupStrategy dedup.Strategy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = 10
	}
	if dedupStrategy == nil {
		dedupStrategy = dedup.Combined{}
	}
	return &Engine{
		cfg:       cfg,
		limiter:   limiter,
		proxies:   proxies,
		fetcher:   f,
		parser:    p,
		validator: v,
		dedup:     dedupStrategy,
		logger:    logger.With("component", "engine"),
	}
}

// ProcessBatch fetches, parses, and validates every URL, absorbing
// per-URL failures, then runs a single dedup pass over the concatenated
// valid coupons. It honors ctx cancellation at each stage's suspension
// points (rate-limit wait, fetch) and always releases its concurrency
// permit.
func (e *Engine) ProcessBatch(ctx context.Context, urls []string) ([]*types.RawCoupon, error) {
	results := make([]Result, len(urls))

	sem := make(chan struct{}, e.cfg.MaxConcurrentRequests)
	var wg sync.WaitGroup

	for i, u := range urls {
		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = Result{URL: rawURL, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			coupons, err := e.processOne(ctx, rawURL)
			results[i] = Result{URL: rawURL, Coupons: coupons, Err: err}
		}(i, u)
	}

	wg.Wait()

	var all []*types.RawCoupon
	for _, r := range results {
		if r.Err != nil {
			e.logger.Warn("url processing failed", "url", r.URL, "error", r.Err)
			continue
		}
		all = append(all, r.Coupons...)
	}

	return e.dedup.Dedupe(all), nil
}

// processOne runs a single URL through rate limiting, fetch, classify,
// parse, and validate. It returns only valid coupons.
func (e *Engine) processOne(ctx context.Context, rawURL string) ([]*types.RawCoupon, error) {
	host := hostOf(rawURL)

	if e.limiter != nil {
		if err := e.waitForSlot(ctx, host); err != nil {
			return nil, err
		}
	}

	body, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	coupons, err := e.parser.Extract(body, rawURL)
	if err != nil {
		return nil, err
	}

	fillMerchant(coupons, host)

	valid := make([]*types.RawCoupon, 0, len(coupons))
	for _, c := range coupons {
		if ok, reasons := e.validator.Validate(c); ok {
			valid = append(valid, c)
		} else {
			e.logger.Debug("coupon rejected", "code", c.Code, "url", rawURL, "reasons", reasons)
		}
	}

	return valid, nil
}

// waitForSlot blocks on the limiter in a separate goroutine so ctx
// cancellation is observed immediately rather than only after the
// limiter itself unblocks.
func (e *Engine) waitForSlot(ctx context.Context, domain string) error {
	done := make(chan struct{})
	go func() {
		e.limiter.Wait(domain)
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func fillMerchant(coupons []*types.RawCoupon, host string) {
	for _, c := range coupons {
		if c.MerchantDomain == "" {
			c.MerchantDomain = host
		}
		if c.MerchantName == "" {
			c.MerchantName = merchantNameFromHost(host)
		}
	}
}

func merchantNameFromHost(host string) string {
	name := strings.TrimPrefix(host, "www.")
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	if name == "" {
		return ""
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

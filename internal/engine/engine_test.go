package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealmate/couponengine/internal/dedup"
	"github.com/dealmate/couponengine/internal/fetcher"
	"github.com/dealmate/couponengine/internal/parser"
	"github.com/dealmate/couponengine/internal/ratelimit"
	"github.com/dealmate/couponengine/internal/validator"
)

func TestProcessBatchFetchesParsesAndValidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><span class="coupon-code">SAVE25</span><p>25% off</p></body></html>`))
	}))
	defer srv.Close()

	e := New(
		Config{MaxConcurrentRequests: 2},
		ratelimit.NewTokenBucket(100, 100),
		nil,
		fetcher.New(fetcher.Config{RetryAttempts: 1}, nil, nil),
		parser.New(nil),
		validator.New(),
		dedup.Combined{},
		nil,
	)

	coupons, err := e.ProcessBatch(context.Background(), []string{srv.URL})
	if err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	found := false
	for _, c := range coupons {
		if c.Code == "SAVE25" {
			found = true
			if c.MerchantDomain == "" {
				t.Errorf("expected MerchantDomain to be filled from host")
			}
		}
	}
	if !found {
		t.Fatalf("expected SAVE25 coupon, got %+v", coupons)
	}
}

func TestProcessBatchAbsorbsPerURLFailures(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><span class="coupon-code">WORKS10</span></body></html>`))
	}))
	defer ok.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	e := New(
		Config{MaxConcurrentRequests: 4},
		nil,
		nil,
		fetcher.New(fetcher.Config{RetryAttempts: 1}, nil, nil),
		parser.New(nil),
		validator.New(),
		nil,
		nil,
	)

	coupons, err := e.ProcessBatch(context.Background(), []string{ok.URL, bad.URL})
	if err != nil {
		t.Fatalf("ProcessBatch should absorb per-URL failures, got %v", err)
	}

	found := false
	for _, c := range coupons {
		if c.Code == "WORKS10" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected WORKS10 to survive despite the other URL failing, got %+v", coupons)
	}
}

func TestProcessBatchRespectsContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`<html></html>`))
	}))
	defer srv.Close()

	e := New(
		Config{MaxConcurrentRequests: 1},
		nil,
		nil,
		fetcher.New(fetcher.Config{RetryAttempts: 1, RequestTimeout: time.Second}, nil, nil),
		parser.New(nil),
		validator.New(),
		nil,
		nil,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.ProcessBatch(ctx, []string{srv.URL})
	if err != nil {
		t.Fatalf("ProcessBatch itself should not error on a per-URL cancellation, got %v", err)
	}
	if time.Since(start) > 150*time.Millisecond {
		t.Errorf("expected ProcessBatch to return promptly after context cancellation")
	}
}

func TestProcessBatchDedupsAcrossURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><span class="coupon-code">DUP123</span></body></html>`))
	}))
	defer srv.Close()

	e := New(
		Config{MaxConcurrentRequests: 4},
		nil,
		nil,
		fetcher.New(fetcher.Config{RetryAttempts: 1}, nil, nil),
		parser.New(nil),
		validator.New(),
		dedup.Combined{},
		nil,
	)

	coupons, err := e.ProcessBatch(context.Background(), []string{srv.URL, srv.URL})
	if err != nil {
		t.Fatalf("ProcessBatch error: %v", err)
	}

	count := 0
	for _, c := range coupons {
		if c.Code == "DUP123" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected DUP123 deduplicated to 1 occurrence across identical URLs, got %d", count)
	}
}

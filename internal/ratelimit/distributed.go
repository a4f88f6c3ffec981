package ratelimit

import (
	"fmt"
	"log/slog"
	"time"
)

// SharedCounter is a minimal Redis-shaped key/counter store the
// distributed limiter uses to coordinate admission across processes. A
// real implementation binds this to INCR+EXPIRE against a shared Redis
// instance; the interface is kept narrow enough that the engine never
// needs to construct a Redis client itself (out of scope, spec §1).
type SharedCounter interface {
	// Increment atomically increments key by 1, setting its TTL to ttl
	// if this call created the key, and returns the post-increment
	// value.
	Increment(key string, ttl time.Duration) (int64, error)
}

// DistributedLimiter wraps a local Limiter with a shared counter. When
// the shared store is reachable, each admission also increments the
// shared per-domain counter (key "rate_limit:{domain}"); if the count
// exceeds maxInWindow, Wait sleeps a fixed backoff once and then admits.
// On shared-store failure it falls back to the local discipline alone,
// transparently to callers.
type DistributedLimiter struct {
	local       Limiter
	shared      SharedCounter
	window      time.Duration
	maxInWindow int
	backoff     time.Duration
	logger      *slog.Logger
}

// NewDistributed builds a DistributedLimiter over local, backed by
// shared. backoff is the fixed sleep applied when the shared counter
// reports the ceiling exceeded.
func NewDistributed(local Limiter, shared SharedCounter, window time.Duration, maxInWindow int, backoff time.Duration, logger *slog.Logger) *DistributedLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DistributedLimiter{
		local:       local,
		shared:      shared,
		window:      window,
		maxInWindow: maxInWindow,
		backoff:     backoff,
		logger:      logger.With("component", "distributed_rate_limiter"),
	}
}

// Wait admits domain under both the local discipline and the shared
// counter, falling back to local-only on shared-store error.
func (d *DistributedLimiter) Wait(domain string) {
	d.local.Wait(domain)

	key := fmt.Sprintf("rate_limit:%s", domain)
	count, err := d.shared.Increment(key, d.window)
	if err != nil {
		d.logger.Warn("shared rate-limit store unavailable, falling back to local", "domain", domain, "error", err)
		return
	}

	if int(count) > d.maxInWindow {
		time.Sleep(d.backoff)
	}
}

// CurrentRate delegates to the local limiter.
func (d *DistributedLimiter) CurrentRate(domain string) float64 { return d.local.CurrentRate(domain) }

// Reset delegates to the local limiter.
func (d *DistributedLimiter) Reset(domain string) { d.local.Reset(domain) }

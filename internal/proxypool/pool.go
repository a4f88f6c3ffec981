// Package proxypool implements the self-healing outbound proxy rotation
// described in spec §4.3: an active FIFO queue plus a quarantine list,
// with timed recovery and failure accounting.
package proxypool

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Kind identifies the proxy protocol.
type Kind string

const (
	KindHTTP   Kind = "http"
	KindHTTPS  Kind = "https"
	KindSocks5 Kind = "socks5"
)

// Entry is a single proxy's state. An entry is always in exactly one of
// the pool's active queue or quarantine list.
type Entry struct {
	URL      string
	Username string
	Password string
	Kind     Kind

	LastUsed     time.Time
	SuccessCount int
	FailureCount int

	FailedAt time.Time
	Reason   string
}

// Config tunes the pool's rotation and quarantine behavior.
type Config struct {
	RotationInterval time.Duration
	MaxFailures       int
	RetryAfter        time.Duration
}

// DefaultConfig mirrors the original engine's defaults.
func DefaultConfig() Config {
	return Config{
		RotationInterval: 60 * time.Second,
		MaxFailures:      3,
		RetryAfter:       300 * time.Second,
	}
}

// Pool holds the active and quarantined proxy entries and implements the
// next_proxy selection algorithm from spec §4.3. The queue never sleeps
// under its lock.
type Pool struct {
	cfg Config

	mu         sync.Mutex
	active     []*Entry
	quarantine []*Entry
}

// New constructs an empty Pool.
func New(cfg Config) *Pool {
	return &Pool{cfg: cfg}
}

// Add registers a proxy entry into the active queue.
func (p *Pool) Add(e *Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = append(p.active, e)
}

// proxyFileEntry mirrors the §6 JSON proxy-file schema.
type proxyFileEntry struct {
	URL      string `json:"url"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Type     string `json:"proxy_type"`
}

// LoadFromFile reads a JSON array of proxy entries from path and adds
// each to the pool's active queue.
func LoadFromFile(path string, cfg Config) (*Pool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read proxy file: %w", err)
	}

	var entries []proxyFileEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse proxy file: %w", err)
	}

	pool := New(cfg)
	for _, fe := range entries {
		pool.Add(&Entry{
			URL:      fe.URL,
			Username: fe.Username,
			Password: fe.Password,
			Kind:     Kind(fe.Type),
		})
	}
	return pool, nil
}

// recoverQuarantined moves any quarantined entries whose retry_after has
// elapsed back into the active queue, with counters zeroed. Caller must
// hold p.mu.
func (p *Pool) recoverQuarantined(now time.Time) {
	var stillQuarantined []*Entry
	for _, e := range p.quarantine {
		if now.Sub(e.FailedAt) >= p.cfg.RetryAfter {
			e.FailureCount = 0
			e.SuccessCount = 0
			e.FailedAt = time.Time{}
			e.Reason = ""
			p.active = append(p.active, e)
		} else {
			stillQuarantined = append(stillQuarantined, e)
		}
	}
	p.quarantine = stillQuarantined
}

// Next implements the five-step selection algorithm: recover expired
// quarantine entries, walk the active queue looking for a candidate past
// its rotation interval, falling back to the least-recently-used head if
// none qualifies.
func (p *Pool) Next() *Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	p.recoverQuarantined(now)

	if len(p.active) == 0 {
		return nil
	}

	n := len(p.active)
	for i := 0; i < n; i++ {
		candidate := p.active[0]
		if candidate.LastUsed.IsZero() || now.Sub(candidate.LastUsed) >= p.cfg.RotationInterval {
			p.active = append(p.active[1:], candidate)
			candidate.LastUsed = now
			return candidate
		}
		// Rotate to the tail and keep walking.
		p.active = append(p.active[1:], candidate)
	}

	// No candidate met the interval: select the head anyway (LRU).
	selected := p.active[0]
	p.active = append(p.active[1:], selected)
	selected.LastUsed = now
	return selected
}

// MarkSuccess records a successful use of the proxy at url.
func (p *Pool) MarkSuccess(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.active {
		if e.URL == url {
			e.SuccessCount++
			e.FailureCount = 0
			return
		}
	}
}

// MarkFailure records a failed use of the proxy at url. Once its
// consecutive failure count reaches MaxFailures, the entry is moved from
// active to quarantine.
func (p *Pool) MarkFailure(url, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, e := range p.active {
		if e.URL != url {
			continue
		}
		e.FailureCount++
		if e.FailureCount >= p.cfg.MaxFailures {
			e.FailedAt = time.Now()
			e.Reason = reason
			p.active = append(p.active[:i], p.active[i+1:]...)
			p.quarantine = append(p.quarantine, e)
		}
		return
	}
}

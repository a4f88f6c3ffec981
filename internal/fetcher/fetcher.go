// Package fetcher retrieves raw content from URLs: a small pool of HTTP
// clients, UA rotation, and an exponential backoff retry loop that binds
// a fresh proxy from the proxy pool on each attempt, per spec §4.4.
package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/dealmate/couponengine/internal/proxypool"
	"github.com/dealmate/couponengine/internal/types"
)

const numClients = 5

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
}

// Config tunes the fetcher's retry, timeout, and rotation behavior.
type Config struct {
	RequestTimeout    time.Duration
	RetryAttempts     int
	ProxyEnabled      bool
	UserAgentRotation bool
	RequireProxy      bool // if true, an empty pool degrades to TransientFetch instead of a direct connection
	UserAgents        []string
}

// Fetcher retrieves the textual content of a URL, retrying with
// exponential backoff and rotating clients, user agents, and proxies.
type Fetcher struct {
	cfg        Config
	clients    []*http.Client
	proxies    *proxypool.Pool
	userAgents []string
	logger     *slog.Logger
}

// New constructs a Fetcher with numClients preconfigured HTTP clients. A
// nil proxies pool, or cfg.ProxyEnabled=false, fetches directly.
func New(cfg Config, proxies *proxypool.Pool, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	userAgents := cfg.UserAgents
	if len(userAgents) == 0 {
		userAgents = defaultUserAgents
	}

	f := &Fetcher{
		cfg:        cfg,
		proxies:    proxies,
		userAgents: userAgents,
		logger:     logger.With("component", "fetcher"),
	}

	for i := 0; i < numClients; i++ {
		f.clients = append(f.clients, &http.Client{
			Transport: baseTransport(),
			Timeout:   f.cfg.RequestTimeout,
		})
	}
	return f
}

func baseTransport() *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig:     &tls.Config{},
		DisableCompression:  true, // decompression handled manually (gzip/deflate/brotli)
	}
}

// nextUserAgent picks a user agent for this attempt at random, per
// spec §4.4's per-request choice rather than a fixed rotation order.
func (f *Fetcher) nextUserAgent() string {
	if !f.cfg.UserAgentRotation {
		return f.userAgents[0]
	}
	return f.userAgents[rand.Intn(len(f.userAgents))]
}

// boundClient returns a client to issue this attempt's request with, and
// the proxy entry (if any) it is bound to, for success/failure
// accounting. Each attempt gets its own transport when a proxy is bound,
// since http.Transport.Proxy is not safe to mutate concurrently across
// in-flight requests sharing one client.
func (f *Fetcher) boundClient() (*http.Client, *proxypool.Entry, error) {
	base := f.clients[rand.Intn(len(f.clients))]

	if !f.cfg.ProxyEnabled || f.proxies == nil {
		return base, nil, nil
	}

	entry := f.proxies.Next()
	if entry == nil {
		if f.cfg.RequireProxy {
			return nil, nil, types.ErrProxyExhausted
		}
		return base, nil, nil // direct connection, per §9's open-question resolution
	}
	if entry.Kind == proxypool.KindSocks5 {
		return nil, entry, &types.ProxyError{URL: entry.URL, Err: types.ErrSocks5Unsupported}
	}

	proxyURL, err := url.Parse(entry.URL)
	if err != nil {
		return nil, entry, &types.ProxyError{URL: entry.URL, Err: err}
	}
	if entry.Username != "" {
		proxyURL.User = url.UserPassword(entry.Username, entry.Password)
	}

	transport := baseTransport()
	transport.Proxy = http.ProxyURL(proxyURL)
	return &http.Client{Transport: transport, Timeout: f.cfg.RequestTimeout}, entry, nil
}

// Fetch retrieves the content at url, making at most cfg.RetryAttempts
// attempts with 1000ms·2^attempt backoff before each attempt after the
// first.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1000*(1<<uint(attempt))) * time.Millisecond):
			}
		}

		client, proxy, err := f.boundClient()
		if err != nil {
			lastErr = err
			continue
		}

		ua := f.nextUserAgent()
		body, err := f.fetchOnce(ctx, client, rawURL, ua)
		if err == nil {
			if proxy != nil {
				f.proxies.MarkSuccess(proxy.URL)
			}
			return body, nil
		}
		if proxy != nil {
			f.proxies.MarkFailure(proxy.URL, err.Error())
		}
		lastErr = err

		var fe *types.FetchError
		if errors.As(err, &fe) && !fe.Retryable {
			return nil, err
		}
		f.logger.Debug("fetch attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
	}

	return nil, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, client *http.Client, rawURL, ua string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: false}
	}

	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("DNT", "1")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: isRetryableError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP 429: rate limited: %s", strings.TrimSpace(string(body))),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	}

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)),
			Retryable:  true,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d", resp.StatusCode),
			Retryable:  false,
		}
	}

	reader, err := decompressReader(resp, resp.Body)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: false}
	}

	body, err := io.ReadAll(io.LimitReader(reader, 10*1024*1024))
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: true}
	}

	if len(body) == 0 {
		return nil, &types.FetchError{URL: rawURL, Err: types.ErrEmptyResponse, Retryable: true}
	}

	return body, nil
}

// Close releases idle connections held by the fetcher's client pool.
func (f *Fetcher) Close() {
	for _, c := range f.clients {
		c.CloseIdleConnections()
	}
}

func decompressReader(resp *http.Response, r io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(r)
	case "deflate":
		return flate.NewReader(r), nil
	case "br":
		return brotli.NewReader(r), nil
	default:
		return r, nil
	}
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) || errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 5 * time.Second
}

// RandomDelay returns a random delay around base (±25%), for callers
// wanting jitter between URLs rather than within one fetch's retry loop.
func RandomDelay(base time.Duration) time.Duration {
	jitter := float64(base) * 0.25
	return base + time.Duration(rand.Float64()*2*jitter-jitter)
}

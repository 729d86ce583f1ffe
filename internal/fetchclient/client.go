package fetchclient

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Options tune a single Fetch call. Zero fields fall back to the client's
// defaults.
type Options struct {
	// Per-domain delay window; the actual pause is drawn uniformly from it
	MinDelay time.Duration
	MaxDelay time.Duration
	// Retry budget shared by throttling responses and transport errors
	MaxRetries int
	// How long a cached response stays fresh
	CacheTTL  time.Duration
	SkipCache bool
	// Extra request headers
	Header http.Header
}

// Response is a fully drained HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// FetchError reports a URL that stayed unreachable after the whole retry
// budget. Callers treat it as "this URL produced nothing this run".
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch %s: %v", e.URL, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// Realistic browser identities, cycled per request to avoid trivial
// blocklisting.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.1 Safari/605.1.15",
}

type cacheEntry struct {
	resp         *Response
	etag         string
	lastModified string
	cachedAt     time.Time
}

// Client is a per-domain throttled HTTP client with conditional-request
// caching and retry/backoff. One instance is shared by all concurrent
// fetch tasks; the per-domain reservation map is its only mutable state
// and is only touched under mu.
type Client struct {
	defaults Options

	mu         sync.Mutex
	nextSlot   map[string]time.Time
	cache      map[string]*cacheEntry
	uaIndex    int
	rng        *rand.Rand
	httpClient *http.Client

	// backoff unit for 2^attempt waits, shrunk in tests
	backoffUnit time.Duration
}

// New builds a client. A nil httpc gets a 30s-timeout default. The given
// options become the per-call fallbacks.
func New(httpc *http.Client, defaults Options) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	if defaults.MinDelay <= 0 {
		defaults.MinDelay = 500 * time.Millisecond
	}
	if defaults.MaxDelay < defaults.MinDelay {
		defaults.MaxDelay = 3 * defaults.MinDelay
	}
	if defaults.MaxRetries <= 0 {
		defaults.MaxRetries = 3
	}
	if defaults.CacheTTL <= 0 {
		defaults.CacheTTL = 5 * time.Minute
	}
	return &Client{
		defaults:    defaults,
		nextSlot:    make(map[string]time.Time),
		cache:       make(map[string]*cacheEntry),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		httpClient:  httpc,
		backoffUnit: time.Second,
	}
}

// Fetch retrieves a URL honoring the per-domain rate limit, the response
// cache and the retry budget. Non-2xx responses that survive the retry
// budget are returned as-is for the caller to inspect.
func (c *Client) Fetch(ctx context.Context, rawURL string, opts Options) (*Response, error) {
	opts = c.merge(opts)
	domain := domainOf(rawURL)

	cached := c.lookup(rawURL)
	if !opts.SkipCache && cached != nil && time.Since(cached.cachedAt) < opts.CacheTTL {
		return cached.resp, nil
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if err := c.waitForTurn(ctx, domain, opts); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.nextUserAgent())
		for k, vs := range opts.Header {
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
		if cached != nil && !opts.SkipCache {
			if cached.etag != "" {
				req.Header.Set("If-None-Match", cached.etag)
			}
			if cached.lastModified != "" {
				req.Header.Set("If-Modified-Since", cached.lastModified)
			}
		}

		httpResp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if attempt < opts.MaxRetries {
				if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		body, err := io.ReadAll(httpResp.Body)
		httpResp.Body.Close()
		if err != nil {
			lastErr = err
			if attempt < opts.MaxRetries {
				if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
					return nil, err
				}
			}
			continue
		}

		if httpResp.StatusCode == http.StatusNotModified && cached != nil {
			c.refresh(rawURL)
			return cached.resp, nil
		}

		resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}

		if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode == http.StatusServiceUnavailable {
			if attempt < opts.MaxRetries {
				if err := c.sleep(ctx, retryDelay(httpResp.Header.Get("Retry-After"), c.backoff(attempt))); err != nil {
					return nil, err
				}
				continue
			}
			// budget spent; hand the throttling response to the caller
			return resp, nil
		}

		if httpResp.StatusCode >= 200 && httpResp.StatusCode < 300 && !opts.SkipCache {
			c.store(rawURL, resp, httpResp.Header.Get("ETag"), httpResp.Header.Get("Last-Modified"))
		}

		return resp, nil
	}

	return nil, &FetchError{URL: rawURL, Err: lastErr}
}

func (c *Client) merge(opts Options) Options {
	if opts.MinDelay <= 0 {
		opts.MinDelay = c.defaults.MinDelay
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = c.defaults.MaxDelay
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = c.defaults.MaxRetries
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = c.defaults.CacheTTL
	}
	return opts
}

// waitForTurn reserves the next request slot for a domain and sleeps until
// it. The reservation happens inside the critical section but the sleep
// outside of it, so requests to unrelated domains never wait on each other.
func (c *Client) waitForTurn(ctx context.Context, domain string, opts Options) error {
	c.mu.Lock()
	now := time.Now()
	jittered := opts.MinDelay + time.Duration(c.rng.Int63n(int64(opts.MaxDelay-opts.MinDelay)+1))
	at := c.nextSlot[domain]
	if at.Before(now) {
		// first request to this domain, or the window already elapsed
		at = now
	}
	c.nextSlot[domain] = at.Add(jittered)
	c.mu.Unlock()

	return c.sleep(ctx, time.Until(at))
}

func (c *Client) nextUserAgent() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ua := userAgents[c.uaIndex]
	c.uaIndex = (c.uaIndex + 1) % len(userAgents)
	return ua
}

func (c *Client) lookup(url string) *cacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache[url]
}

func (c *Client) store(url string, resp *Response, etag, lastModified string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[url] = &cacheEntry{resp: resp, etag: etag, lastModified: lastModified, cachedAt: time.Now()}
}

func (c *Client) refresh(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.cache[url]; ok {
		entry.cachedAt = time.Now()
	}
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cacheEntry)
}

func (c *Client) backoff(attempt int) time.Duration {
	return time.Duration(1<<uint(attempt)) * c.backoffUnit
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func retryDelay(retryAfter string, fallback time.Duration) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

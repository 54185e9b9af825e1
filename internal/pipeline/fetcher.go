package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/edgarflat/internal/cache"
	"github.com/ppiankov/edgarflat/internal/model"
	"github.com/ppiankov/edgarflat/internal/ratelimit"
	"github.com/ppiankov/edgarflat/internal/util"
)

// fetchSleepFunc is the backoff between retry attempts; replaced in tests
var fetchSleepFunc = time.Sleep

const (
	maxFetchAttempts = 3
	retryBaseDelay   = 500 * time.Millisecond
)

// ErrRobotsDisallowed is returned when robots.txt forbids a request
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Fetcher performs upstream GETs. Every request waits on the shared limiter
// first and takes the limiter's post-request pause afterwards.
type Fetcher struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	robots     *util.RobotsChecker
	cache      cache.Cache
	maxBytes   int64
	fallbackUA string
	sec        model.SECConfig
	cacheCfg   model.CacheConfig
	logger     *zap.Logger
}

// NewFetcher creates a Fetcher from configuration. c may be nil.
func NewFetcher(cfg *model.Config, limiter *ratelimit.Limiter, c cache.Cache, logger *zap.Logger) *Fetcher {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		limiter:    limiter,
		cache:      c,
		maxBytes:   cfg.HTTP.MaxBodyBytes,
		fallbackUA: cfg.HTTP.FallbackUserAgent,
		sec:        cfg.SEC,
		cacheCfg:   cfg.Cache,
		logger:     logger.Named("fetcher"),
	}
	if cfg.HTTP.RespectRobots {
		f.robots = util.NewRobotsChecker(10*time.Second, transport)
	}
	return f
}

// CompanyFactsURL is the companyfacts endpoint for a 10-digit CIK
func (f *Fetcher) CompanyFactsURL(cik string) string {
	return strings.TrimRight(f.sec.BaseURL, "/") + "/api/xbrl/companyfacts/CIK" + cik + ".json"
}

// CompanyFacts downloads the facts document for cik on behalf of user.
// A single attempt is made; callers decide what to show on failure.
func (f *Fetcher) CompanyFacts(ctx context.Context, cik string, user model.User) ([]byte, error) {
	rawURL := f.CompanyFactsURL(cik)
	ua := user.UserAgent()

	key := cache.Key(cache.NamespaceFacts, rawURL)
	if f.cacheCfg.FactsEnabled {
		if body, ok := f.cache.Get(key); ok {
			f.logger.Debug("companyfacts cache hit", zap.String("cik", cik))
			return body, nil
		}
	}

	body, err := f.Get(ctx, rawURL, ua)
	if err != nil {
		return nil, err
	}
	if f.cacheCfg.FactsEnabled {
		if err := f.cache.Set(key, body, f.cacheCfg.FactsTTL); err != nil {
			f.logger.Warn("cache companyfacts", zap.Error(err))
		}
	}
	return body, nil
}

// Get performs one rate-limited GET and returns the body of a 2xx response
func (f *Fetcher) Get(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	if userAgent == "" {
		userAgent = f.fallbackUA
	}
	if f.robots != nil {
		allowed, err := f.robots.Allowed(ctx, rawURL, userAgent)
		if err != nil {
			return nil, fmt.Errorf("robots: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrRobotsDisallowed)
		}
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	start := time.Now()
	body, err := f.do(ctx, rawURL, userAgent)
	f.logger.Debug("upstream request",
		zap.String("url", rawURL),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(body)),
		zap.Error(err),
	)

	if f.limiter != nil {
		if perr := f.limiter.Done(ctx); perr != nil && err == nil {
			err = perr
		}
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) do(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	// Read one byte past the limit to tell a full body from a truncated one
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("read body: response exceeds %d bytes", f.maxBytes)
	}
	return body, nil
}

// FetchWithRetry retries transient failures (5xx, 429, connection errors)
// with linear backoff. It is used for reference data only; companyfacts
// requests are never retried.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL, userAgent string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFetchAttempts; attempt++ {
		body, err := f.Get(ctx, rawURL, userAgent)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryableFetchError(err) || attempt == maxFetchAttempts {
			break
		}
		f.logger.Debug("retrying", zap.String("url", rawURL), zap.Int("attempt", attempt), zap.Error(err))
		fetchSleepFunc(time.Duration(attempt) * retryBaseDelay)
	}
	return nil, lastErr
}

func isRetryableFetchError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := err.Error()
	if strings.HasPrefix(msg, "unexpected status: ") {
		code := strings.TrimPrefix(msg, "unexpected status: ")
		return strings.HasPrefix(code, "5") || strings.HasPrefix(code, "429")
	}
	return strings.HasPrefix(msg, "fetch: ")
}

// Package ratelimit paces upstream requests per host.
package ratelimit

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/edgarflat/internal/model"
)

// sleepFunc is swapped out in tests
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Limiter is a set of token buckets keyed by host. One Limiter is shared by
// every pipeline run in a process so that concurrent runs together stay under
// the upstream request-rate policy.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
	after        time.Duration
}

// New creates a limiter. after is the fixed pause taken once each request
// completes; zero disables it.
func New(requestsPerSecond float64, burst int, after time.Duration) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
		after:        after,
	}
}

// FromConfig builds the shared limiter with its per-host overrides
func FromConfig(cfg model.RateLimitingConfig, after time.Duration) *Limiter {
	l := New(cfg.RequestsPerSecond, cfg.BurstSize, after)
	for _, h := range cfg.Hosts {
		if h.Host == "" || h.RequestsPerSecond <= 0 {
			continue
		}
		l.SetHostRate(h.Host, h.RequestsPerSecond, h.BurstSize)
	}
	return l
}

// Wait blocks until a request to rawURL's host may start
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	host, err := hostOf(rawURL)
	if err != nil {
		return err
	}
	return l.get(host).Wait(ctx)
}

// Done takes the post-request pause. It is called after every upstream round
// trip, successful or not.
func (l *Limiter) Done(ctx context.Context) error {
	if l.after <= 0 {
		return nil
	}
	return sleepFunc(ctx, l.after)
}

// SetHostRate overrides the rate for a single host
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.limiters[host] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

func (l *Limiter) get(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, ok := l.limiters[host]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter
	return limiter
}

func hostOf(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	return parsed.Host, nil
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/edgarflat/internal/cache"
	"github.com/ppiankov/edgarflat/internal/model"
	"github.com/ppiankov/edgarflat/internal/ratelimit"
)

var testUser = model.User{ID: "42", FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}

func newTestFetcher(t *testing.T, baseURL string, mutate ...func(*model.Config)) *Fetcher {
	t.Helper()
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.SEC.BaseURL = baseURL
	cfg.SEC.TickersURL = baseURL + "/include/ticker.txt"
	for _, m := range mutate {
		m(cfg)
	}
	return NewFetcher(cfg, ratelimit.New(0, 1, 0), cache.NewMemoryCache(time.Minute, time.Minute), nil)
}

func noSleep(t *testing.T) {
	t.Helper()
	orig := fetchSleepFunc
	fetchSleepFunc = func(time.Duration) {}
	t.Cleanup(func() { fetchSleepFunc = orig })
}

func TestCompanyFacts_RequestShape(t *testing.T) {
	var gotPath, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"facts":{"us-gaap":{}}}`)
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL)
	body, err := f.CompanyFacts(context.Background(), "0000320193", testUser)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(body) != `{"facts":{"us-gaap":{}}}` {
		t.Errorf("Unexpected body: %s", body)
	}
	if gotPath != "/api/xbrl/companyfacts/CIK0000320193.json" {
		t.Errorf("Unexpected path: %s", gotPath)
	}
	if gotUA != "JaneDoe (jane@example.com)" {
		t.Errorf("Unexpected User-Agent: %q", gotUA)
	}
}

func TestCompanyFacts_SingleAttempt(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()
	noSleep(t)

	_, err := newTestFetcher(t, server.URL).CompanyFacts(context.Background(), "0000000001", testUser)
	if err == nil {
		t.Fatal("Expected error for 429")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected exactly 1 attempt, got %d", attempts.Load())
	}
}

func TestCompanyFacts_Cache(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		_, _ = fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	off := newTestFetcher(t, server.URL)
	_, _ = off.CompanyFacts(context.Background(), "0000000001", testUser)
	_, _ = off.CompanyFacts(context.Background(), "0000000001", testUser)
	if attempts.Load() != 2 {
		t.Errorf("Expected no caching by default, got %d requests", attempts.Load())
	}

	attempts.Store(0)
	on := newTestFetcher(t, server.URL, func(c *model.Config) { c.Cache.FactsEnabled = true })
	_, _ = on.CompanyFacts(context.Background(), "0000000001", testUser)
	_, _ = on.CompanyFacts(context.Background(), "0000000001", testUser)
	if attempts.Load() != 1 {
		t.Errorf("Expected one request with facts caching, got %d", attempts.Load())
	}
}

func TestGet_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL, func(c *model.Config) { c.HTTP.MaxBodyBytes = 10 })
	if _, err := f.Get(context.Background(), server.URL, "ua"); err == nil {
		t.Error("Expected error for oversized body")
	}

	f = newTestFetcher(t, server.URL, func(c *model.Config) { c.HTTP.MaxBodyBytes = 100 })
	if body, err := f.Get(context.Background(), server.URL, "ua"); err != nil || len(body) != 100 {
		t.Errorf("Expected exact-size body to pass, got %d bytes, %v", len(body), err)
	}
}

func TestGet_FallbackUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL)
	if _, err := f.Get(context.Background(), server.URL, ""); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(gotUA, "edgarflat/") {
		t.Errorf("Expected fallback User-Agent, got %q", gotUA)
	}
}

func TestGet_PostFetchDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	cfg := model.DefaultConfig()
	f := NewFetcher(cfg, ratelimit.New(0, 1, 30*time.Millisecond), nil, nil)

	for _, path := range []string{"/ok", "/fail"} {
		start := time.Now()
		_, _ = f.Get(context.Background(), server.URL+path, "ua")
		if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
			t.Errorf("%s: expected post-fetch delay, took %v", path, elapsed)
		}
	}
}

func TestGet_RobotsDisallowed(t *testing.T) {
	var factsHits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /api/\n")
			return
		}
		factsHits.Add(1)
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL, func(c *model.Config) { c.HTTP.RespectRobots = true })
	_, err := f.CompanyFacts(context.Background(), "0000000001", testUser)
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Errorf("Expected ErrRobotsDisallowed, got %v", err)
	}
	if factsHits.Load() != 0 {
		t.Error("Expected disallowed URL not to be requested")
	}
}

func TestFetchWithRetry_TransientThenSuccess(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = fmt.Fprint(w, "OK")
	}))
	defer server.Close()
	noSleep(t)

	body, err := newTestFetcher(t, server.URL).FetchWithRetry(context.Background(), server.URL, "ua")
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(body) != "OK" {
		t.Errorf("Unexpected body: %s", body)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_PermanentFailure(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()
	noSleep(t)

	_, err := newTestFetcher(t, server.URL).FetchWithRetry(context.Background(), server.URL, "ua")
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if got := err.Error(); got != "unexpected status: 404 404 Not Found" {
		t.Errorf("Unexpected error: %s", got)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts.Load())
	}
}

func TestFetchWithRetry_AllRetriesExhausted(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()
	noSleep(t)

	if _, err := newTestFetcher(t, server.URL).FetchWithRetry(context.Background(), server.URL, "ua"); err == nil {
		t.Fatal("Expected error after all retries exhausted")
	}
	if attempts.Load() != maxFetchAttempts {
		t.Errorf("Expected %d attempts, got %d", maxFetchAttempts, attempts.Load())
	}
}

func TestIsRetryableFetchError(t *testing.T) {
	tests := []struct {
		err       string
		retryable bool
	}{
		{"unexpected status: 503 Service Unavailable", true},
		{"unexpected status: 500 Internal Server Error", true},
		{"unexpected status: 429 Too Many Requests", true},
		{"unexpected status: 404 Not Found", false},
		{"unexpected status: 403 Forbidden", false},
		{"fetch: connection refused", true},
		{"create request: invalid URL", false},
		{"read body: unexpected EOF", false},
	}
	for _, tt := range tests {
		t.Run(tt.err, func(t *testing.T) {
			if got := isRetryableFetchError(errors.New(tt.err)); got != tt.retryable {
				t.Errorf("isRetryableFetchError(%q) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
	if isRetryableFetchError(nil) {
		t.Error("Expected nil error to not be retryable")
	}
}

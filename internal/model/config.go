package model

import "time"

// Config is the complete edgarflat configuration.
// Field tags serve both viper (mapstructure) and `config show|init` (yaml).
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	SEC          SECConfig          `yaml:"sec" mapstructure:"sec"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Export       ExportConfig       `yaml:"export" mapstructure:"export"`
	Extract      ExtractConfig      `yaml:"extract" mapstructure:"extract"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls the upstream HTTP client
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"` // comma-separated hosts
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	// FallbackUserAgent is only used for requests made without a user (ticker list).
	FallbackUserAgent string `yaml:"fallback_user_agent" mapstructure:"fallback_user_agent"`
}

// SECConfig points at the filings API
type SECConfig struct {
	BaseURL        string        `yaml:"base_url" mapstructure:"base_url"`
	TickersURL     string        `yaml:"tickers_url" mapstructure:"tickers_url"`
	PostFetchDelay time.Duration `yaml:"post_fetch_delay" mapstructure:"post_fetch_delay"`
}

// RateLimitingConfig configures the shared per-host limiter
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	// Hosts overrides the default rate for individual upstream hosts
	Hosts []HostRate `yaml:"hosts" mapstructure:"hosts"`
}

// HostRate is a per-host limiter override
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// CacheConfig configures the layered response cache
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir          string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL    time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	TickerTTL    time.Duration `yaml:"ticker_ttl" mapstructure:"ticker_ttl"`
	FactsEnabled bool          `yaml:"facts_enabled" mapstructure:"facts_enabled"`
	FactsTTL     time.Duration `yaml:"facts_ttl" mapstructure:"facts_ttl"`
}

// StoreConfig selects the relational backend
type StoreConfig struct {
	Driver          string        `yaml:"driver" mapstructure:"driver"` // sqlite, postgres
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`       // file path for sqlite
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `yaml:"busy_timeout" mapstructure:"busy_timeout"`
}

// ExportConfig controls where CSV artifacts are written
type ExportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ExtractConfig controls concept discovery
type ExtractConfig struct {
	WalkMode string `yaml:"walk_mode" mapstructure:"walk_mode"` // full, last-branch
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr       string `yaml:"addr" mapstructure:"addr"`
	UserHeader string `yaml:"user_header" mapstructure:"user_header"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // console, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			MaxBodyBytes:      200 << 20, // large filers exceed 50MB
			FallbackUserAgent: "edgarflat/0.1 (+https://github.com/ppiankov/edgarflat)",
		},
		SEC: SECConfig{
			BaseURL:        "https://data.sec.gov",
			TickersURL:     "https://www.sec.gov/include/ticker.txt",
			PostFetchDelay: 100 * time.Millisecond,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 10,
			BurstSize:         1,
			Hosts: []HostRate{
				{Host: "data.sec.gov", RequestsPerSecond: 10, BurstSize: 1},
				{Host: "www.sec.gov", RequestsPerSecond: 5, BurstSize: 1},
			},
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".edgarflat-cache",
			MemoryTTL: 10 * time.Minute,
			TickerTTL: 24 * time.Hour,
			FactsTTL:  time.Hour,
		},
		Store: StoreConfig{
			Driver:          "sqlite",
			DSN:             "financials.db",
			MaxOpenConns:    4,
			MaxIdleConns:    4,
			ConnMaxLifetime: 15 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Export: ExportConfig{
			Dir: "csv_files",
		},
		Extract: ExtractConfig{
			WalkMode: "full",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr:       ":8080",
			UserHeader: "X-User-ID",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Package cache stores upstream response bodies in memory and on disk.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores raw response bodies
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Namespaces used by the fetcher
const (
	NamespaceTickers = "tickers"
	NamespaceFacts   = "companyfacts"
)

// Key builds a stable cache key from a namespace and the request's identifying
// parts (URL, user agent). Keys are safe to use as file names.
func Key(namespace string, parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "edgarflat-v1-" + namespace + "-" + hex.EncodeToString(hash[:])
}

// Nop never stores anything. It stands in when caching is disabled.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)                { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }

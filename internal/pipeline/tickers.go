package pipeline

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/edgarflat/internal/cache"
	"github.com/ppiankov/edgarflat/internal/model"
)

const cikDigits = 10

// NormalizeCIK validates a company identifier and zero-pads it to 10 digits.
// An optional "CIK" prefix is accepted.
func NormalizeCIK(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "CIK"), "cik")
	if s == "" {
		return "", model.ErrInputMissing
	}
	if len(s) > cikDigits {
		return "", fmt.Errorf("%w: %q is longer than %d digits", model.ErrInputMissing, raw, cikDigits)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q is not a numeric CIK", model.ErrInputMissing, raw)
		}
	}
	return strings.Repeat("0", cikDigits-len(s)) + s, nil
}

// ParseTickers reads "<ticker> <cik>" lines. Symbols are upper-cased, CIKs
// zero-padded, and the result is sorted by symbol. Lines that do not have
// exactly two fields or a numeric CIK are skipped.
func ParseTickers(data []byte) []model.Ticker {
	var tickers []model.Ticker
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		cik, err := NormalizeCIK(fields[1])
		if err != nil {
			continue
		}
		tickers = append(tickers, model.Ticker{Symbol: strings.ToUpper(fields[0]), CIK: cik})
	}
	sort.SliceStable(tickers, func(i, j int) bool {
		return tickers[i].Symbol < tickers[j].Symbol
	})
	return tickers
}

// FilterTickers keeps tickers whose symbol starts with prefix (case-insensitive)
// or whose CIK equals the zero-padded form of prefix.
func FilterTickers(tickers []model.Ticker, prefix string) []model.Ticker {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return tickers
	}
	upper := strings.ToUpper(prefix)
	padded := ""
	if _, err := strconv.ParseUint(prefix, 10, 64); err == nil {
		padded, _ = NormalizeCIK(prefix)
	}

	out := []model.Ticker{}
	for _, t := range tickers {
		if strings.HasPrefix(t.Symbol, upper) || (padded != "" && t.CIK == padded) {
			out = append(out, t)
		}
	}
	return out
}

// Tickers returns the SEC ticker list, served from cache when fresh
func (f *Fetcher) Tickers(ctx context.Context) ([]model.Ticker, error) {
	rawURL := f.sec.TickersURL
	key := cache.Key(cache.NamespaceTickers, rawURL)

	body, ok := f.cache.Get(key)
	if !ok {
		var err error
		body, err = f.FetchWithRetry(ctx, rawURL, f.fallbackUA)
		if err != nil {
			return nil, fmt.Errorf("%w: tickers: %v", model.ErrUpstreamUnavailable, err)
		}
		if err := f.cache.Set(key, body, f.cacheCfg.TickerTTL); err != nil {
			f.logger.Warn("cache tickers", zap.Error(err))
		}
	}
	return ParseTickers(body), nil
}

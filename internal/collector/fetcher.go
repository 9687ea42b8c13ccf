package collector

import (
	"errors"
	"time"

	"StockSentinel/internal/model"
)

// Sentinel errors for callers that need to distinguish retryable failures
// from symbols with no data.
var (
	// ErrDataUnavailable means the provider has no bars for the symbol/range.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrTransient marks failures worth retrying (timeouts, rate limits, 5xx).
	ErrTransient = errors.New("transient market data error")
)

// Fetcher defines the interface for fetching daily market data.
type Fetcher interface {
	// FetchDailyBars returns daily bars for [start, end], chronological.
	FetchDailyBars(symbol string, start, end time.Time) ([]model.Bar, error)
	Name() string
}

// LatestBars fetches roughly the last `days` trading days for a symbol.
// The request window is padded for weekends and holidays, then trimmed.
func LatestBars(f Fetcher, symbol string, days int) ([]model.Bar, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -(days*7/5 + 10))
	bars, err := f.FetchDailyBars(symbol, start, end)
	if err != nil {
		return nil, err
	}
	if len(bars) > days {
		bars = bars[len(bars)-days:]
	}
	return bars, nil
}

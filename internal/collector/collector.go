package collector

import (
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"StockSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	// Bars holds canned series keyed by symbol. Symbols not present fall
	// back to a deterministic generated walk.
	Bars  map[string][]model.Bar
	Price float64
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(symbol string, start, end time.Time) ([]model.Bar, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if series, ok := m.Bars[symbol]; ok {
		var out []model.Bar
		for _, b := range series {
			if b.Date.Before(start) || b.Date.After(end) {
				continue
			}
			out = append(out, b)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("mock: no bars for %s: %w", symbol, ErrDataUnavailable)
		}
		return out, nil
	}
	days := int(end.Sub(start).Hours()/24) + 1
	return GenerateBars(m.Price, days, end), nil
}

// GenerateBars builds a deterministic random walk ending at endDate,
// weekends skipped.
func GenerateBars(basePrice float64, count int, endDate time.Time) []model.Bar {
	if basePrice <= 0 {
		basePrice = 100
	}
	rng := rand.New(rand.NewSource(42))
	bars := make([]model.Bar, 0, count)
	day := endDate
	for len(bars) < count {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			bars = append(bars, model.Bar{Date: day})
		}
		day = day.AddDate(0, 0, -1)
	}
	// Reverse to chronological order, then walk prices forward.
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}
	price := basePrice
	for i := range bars {
		price *= 1 + (rng.Float64()-0.48)*0.02
		bars[i].Open = price * 0.999
		bars[i].High = price * (1 + 0.004*rng.Float64())
		bars[i].Low = price * (1 - 0.004*rng.Float64())
		bars[i].Close = price
		bars[i].Volume = math.Floor(1e6 * (0.5 + rng.Float64()))
	}
	return bars
}

// RetryingFetcher wraps a Fetcher and retries transient failures with
// exponential backoff. Non-transient errors are returned immediately.
type RetryingFetcher struct {
	Inner    Fetcher
	Attempts int
	Backoff  time.Duration
}

// NewRetryingFetcher wraps inner with 3 attempts and a 2s initial backoff.
func NewRetryingFetcher(inner Fetcher) *RetryingFetcher {
	return &RetryingFetcher{Inner: inner, Attempts: 3, Backoff: 2 * time.Second}
}

func (r *RetryingFetcher) Name() string { return r.Inner.Name() }

func (r *RetryingFetcher) FetchDailyBars(symbol string, start, end time.Time) ([]model.Bar, error) {
	var lastErr error
	backoff := r.Backoff
	for attempt := 1; attempt <= r.Attempts; attempt++ {
		bars, err := r.Inner.FetchDailyBars(symbol, start, end)
		if err == nil {
			return bars, nil
		}
		if !errors.Is(err, ErrTransient) {
			return nil, err
		}
		lastErr = err
		if attempt < r.Attempts {
			log.Printf("[WARN] %s fetch %s attempt %d/%d failed: %v, retrying in %v",
				r.Inner.Name(), symbol, attempt, r.Attempts, err, backoff)
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("fetch %s: all %d attempts failed: %w", symbol, r.Attempts, lastErr)
}

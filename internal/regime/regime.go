// Package regime classifies overall market sentiment and maps it to the
// entry thresholds used by the backtester and the live analyzer.
package regime

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// Regime is a coarse market sentiment bucket.
type Regime string

const (
	Bull    Regime = "bull"
	Neutral Regime = "neutral"
	Bear    Regime = "bear"
	Unknown Regime = "unknown"
)

// Thresholds are the minimum composite and confidence scores an entry
// candidate must reach under a given regime.
type Thresholds struct {
	Composite  float64 `yaml:"composite" json:"composite"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// ThresholdTable maps every regime to its entry thresholds. Unknown is
// stricter than Neutral because a missing sentiment read should not loosen
// entries.
type ThresholdTable struct {
	Bull    Thresholds `yaml:"bull" json:"bull"`
	Neutral Thresholds `yaml:"neutral" json:"neutral"`
	Bear    Thresholds `yaml:"bear" json:"bear"`
	Unknown Thresholds `yaml:"unknown" json:"unknown"`
}

// DefaultThresholds returns the canonical table.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		Bull:    Thresholds{Composite: 88, Confidence: 75},
		Neutral: Thresholds{Composite: 90, Confidence: 80},
		Bear:    Thresholds{Composite: 95, Confidence: 85},
		Unknown: Thresholds{Composite: 92, Confidence: 82},
	}
}

// For returns the thresholds for r, falling back to Unknown for
// unrecognized values.
func (t ThresholdTable) For(r Regime) Thresholds {
	switch r {
	case Bull:
		return t.Bull
	case Neutral:
		return t.Neutral
	case Bear:
		return t.Bear
	default:
		return t.Unknown
	}
}

// Classify buckets a fear/greed score (0-100) into a regime.
func Classify(score float64) Regime {
	switch {
	case score >= 55:
		return Bull
	case score < 45:
		return Bear
	default:
		return Neutral
	}
}

// Sentiment is a point-in-time sentiment read.
type Sentiment struct {
	Score     float64   `json:"score"`
	Rating    string    `json:"rating"`
	Regime    Regime    `json:"regime"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Source produces the current market sentiment.
type Source interface {
	Current() (Sentiment, error)
}

// CNNSource reads the CNN fear & greed index.
type CNNSource struct {
	Client *http.Client
	URL    string
}

const cnnGraphDataURL = "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"

// NewCNNSource creates a sentiment source backed by CNN's public endpoint.
func NewCNNSource() *CNNSource {
	return &CNNSource{
		Client: &http.Client{Timeout: 10 * time.Second},
		URL:    cnnGraphDataURL,
	}
}

type fearGreedResponse struct {
	FearAndGreed struct {
		Score  float64 `json:"score"`
		Rating string  `json:"rating"`
	} `json:"fear_and_greed"`
}

func (s *CNNSource) Current() (Sentiment, error) {
	req, err := http.NewRequest("GET", s.URL, nil)
	if err != nil {
		return Sentiment{}, err
	}
	// CNN rejects requests without a browser-like user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://www.cnn.com/")

	resp, err := s.Client.Do(req)
	if err != nil {
		return Sentiment{}, fmt.Errorf("fear greed fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Sentiment{}, fmt.Errorf("fear greed read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Sentiment{}, fmt.Errorf("fear greed: status %d", resp.StatusCode)
	}

	var parsed fearGreedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Sentiment{}, fmt.Errorf("fear greed decode: %w", err)
	}
	if parsed.FearAndGreed.Score <= 0 {
		return Sentiment{}, fmt.Errorf("fear greed: empty score")
	}

	return Sentiment{
		Score:     parsed.FearAndGreed.Score,
		Rating:    parsed.FearAndGreed.Rating,
		Regime:    Classify(parsed.FearAndGreed.Score),
		FetchedAt: time.Now(),
	}, nil
}

// StaticSource pins a fixed regime, used by backtests that should not
// depend on live sentiment.
type StaticSource struct {
	Regime Regime
}

func (s StaticSource) Current() (Sentiment, error) {
	return Sentiment{Regime: s.Regime, FetchedAt: time.Now()}, nil
}

// CurrentOrUnknown reads src and degrades to the Unknown regime when the
// source fails, logging the failure instead of propagating it.
func CurrentOrUnknown(src Source) Sentiment {
	sent, err := src.Current()
	if err != nil {
		log.Printf("[WARN] regime: sentiment unavailable, using unknown: %v", err)
		return Sentiment{Regime: Unknown, FetchedAt: time.Now()}
	}
	return sent
}

// Package analyzer orchestrates the per-symbol pipeline: bars, indicator
// frame, signal scan, support estimate, entry assessment, composite score.
package analyzer

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/indicator"
	"StockSentinel/internal/model"
	"StockSentinel/internal/regime"
	"StockSentinel/internal/signal"
	"StockSentinel/internal/strategy"
)

// Config tunes the analysis pipeline.
type Config struct {
	// PeriodDays is how many daily bars are fetched per symbol.
	PeriodDays int
	// SupportPeriod is the window for the support price estimate.
	SupportPeriod int
	Detector      signal.DetectorConfig
}

// DefaultConfig returns the canonical analyzer configuration.
func DefaultConfig() Config {
	return Config{
		PeriodDays:    180,
		SupportPeriod: 60,
		Detector:      signal.DefaultDetectorConfig(),
	}
}

func (c *Config) applyDefaults() {
	if c.PeriodDays == 0 {
		c.PeriodDays = 180
	}
	if c.SupportPeriod == 0 {
		c.SupportPeriod = 60
	}
}

// Analyzer runs the analysis pipeline against a market data fetcher.
type Analyzer struct {
	fetcher  collector.Fetcher
	detector *signal.Detector
	cfg      Config
}

// New creates an Analyzer.
func New(fetcher collector.Fetcher, cfg Config) *Analyzer {
	cfg.applyDefaults()
	return &Analyzer{
		fetcher:  fetcher,
		detector: signal.NewDetector(cfg.Detector),
		cfg:      cfg,
	}
}

// AnalyzeSymbol fetches bars for one symbol and runs the full pipeline.
func (a *Analyzer) AnalyzeSymbol(symbol string) (model.AnalysisRecord, error) {
	bars, err := collector.LatestBars(a.fetcher, symbol, a.cfg.PeriodDays)
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	frame, err := indicator.Compute(bars)
	if err != nil {
		return model.AnalysisRecord{}, fmt.Errorf("analyze %s: %w", symbol, err)
	}
	rec := a.Record(symbol, frame)

	mtf := AssessTimeframes(bars)
	rec.MultiTimeframeScore = mtf.Score
	rec.MultiTimeframeRating = mtf.Rating
	rec.TrendConsistency = mtf.Consistency
	return rec, nil
}

// Record builds an AnalysisRecord from an already computed frame. The
// backtester uses this entry point directly with its own frames.
func (a *Analyzer) Record(symbol string, f *model.IndicatorFrame) model.AnalysisRecord {
	i := f.Len() - 1
	events := a.detector.Detect(f)
	support := signal.EstimateSupport(f, a.cfg.SupportPeriod)
	assess := strategy.AssessEntry(f)

	rec := model.AnalysisRecord{
		Symbol:            symbol,
		Name:              symbol,
		Market:            "US",
		CurrentPrice:      f.Close(i),
		RSI:               f.RSI[i],
		MACD:              f.MACD[i],
		VolumeRatio:       f.VolumeRatio[i],
		SupportPrice:      support.Price,
		SupportConfidence: support.Confidence,
		EntryAdvice:       assess.Advice,
		ConfidenceScore:   assess.Confidence,
		ConfidenceLevel:   assess.Level,
		Factors:           assess.Factors,
	}
	if support.Price > 0 && rec.CurrentPrice > 0 {
		rec.DistanceToSupport = (rec.CurrentPrice - support.Price) / support.Price * 100
	}

	if len(events) > 0 {
		latest := events[len(events)-1]
		days := int(f.Date(i).Sub(latest.Date).Hours() / 24)
		rec.LongDays = &days
		rec.LatestSignalDate = latest.Date.Format("2006-01-02")
		rec.LatestSignalPrice = latest.Price
		rec.SignalConditions = latest.Conditions
		rec.TrendReversalConfirm = latest.Snapshot.TrendReversalConfirm
		rec.ReversalStrength = latest.Snapshot.ReversalStrength
		rec.ReversalReliability = latest.Snapshot.ReversalReliability
		rec.MomentumTurn = latest.Snapshot.MomentumTurn
		rec.StructureReversal = latest.Snapshot.StructureReversal
	}

	rec.CompositeScore = CompositeScore(rec.LongDays, rec.DistanceToSupport, assess.Advice, assess.Confidence)
	return rec
}

// CompositeScore blends signal recency, distance to support, advice level
// and confidence into one 0-100-ish ranking score. Symbols with no signal
// in the window score 0.
func CompositeScore(longDays *int, distancePct float64, advice model.Advice, confidence float64) float64 {
	if longDays == nil {
		return 0
	}
	const maxDays = 30
	longScore := math.Max(0, float64(maxDays-*longDays)/maxDays*100)
	distScore := math.Max(0, 100-distancePct)
	return longScore*0.3 + distScore*0.3 + advice.Score()*0.2 + confidence*0.2
}

// AnalyzeWatchlist runs every symbol, reporting progress after each one.
// Per-symbol failures are logged and skipped, never fatal to the run.
func (a *Analyzer) AnalyzeWatchlist(symbols []string, progress func(done, total int)) model.AnalysisReport {
	report := model.AnalysisReport{
		Timestamp:   time.Now(),
		TotalStocks: len(symbols),
	}
	for n, symbol := range symbols {
		rec, err := a.AnalyzeSymbol(symbol)
		if err != nil {
			log.Printf("[WARN] analyzer: %v", err)
		} else {
			report.Result = append(report.Result, rec)
			report.AnalyzedStocks++
		}
		if progress != nil {
			progress(n+1, len(symbols))
		}
	}
	sort.SliceStable(report.Result, func(i, j int) bool {
		return report.Result[i].CompositeScore > report.Result[j].CompositeScore
	})
	return report
}

// Promote turns qualifying analysis records into open positions: composite
// and confidence clear the regime thresholds and the symbol is not already
// held. Shares are sized from a fixed trade amount.
func Promote(report model.AnalysisReport, th regime.Thresholds, held func(string) bool, tradeAmount decimal.Decimal) []model.Position {
	var out []model.Position
	for _, rec := range report.Result {
		if rec.CompositeScore < th.Composite || rec.ConfidenceScore < th.Confidence {
			continue
		}
		if held(rec.Symbol) || rec.CurrentPrice <= 0 {
			continue
		}
		price := decimal.NewFromFloat(rec.CurrentPrice)
		out = append(out, model.Position{
			Symbol:               rec.Symbol,
			EntryDate:            report.Timestamp,
			EntryPrice:           price,
			Shares:               tradeAmount.Div(price),
			EntryFactors:         rec.Factors,
			EntryCompositeScore:  rec.CompositeScore,
			EntryConfidenceScore: rec.ConfidenceScore,
			SupportPriceAtEntry:  rec.SupportPrice,
		})
		log.Printf("[INFO] analyzer: %s qualifies for entry (composite %.2f, confidence %.2f)",
			rec.Symbol, rec.CompositeScore, rec.ConfidenceScore)
	}
	return out
}

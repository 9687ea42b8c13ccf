// Package backtest drives the day-by-day FLAT/LONG state machine over
// historical bars and aggregates the resulting trades.
package backtest

import (
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/indicator"
	"StockSentinel/internal/model"
	"StockSentinel/internal/portfolio"
	"StockSentinel/internal/regime"
	"StockSentinel/internal/signal"
	"StockSentinel/internal/strategy"
)

// Config tunes a backtest run.
type Config struct {
	Symbols []string
	Start   time.Time
	End     time.Time

	// ReferenceSymbol supplies the trading calendar.
	ReferenceSymbol string
	// TradeAmount is the fixed dollar amount per entry; shares may be
	// fractional.
	TradeAmount decimal.Decimal
	// MinBars is the minimum per-symbol history before entries are
	// considered.
	MinBars int
	// Regime pins the sentiment regime for the whole run.
	Regime        regime.Regime
	Thresholds    regime.ThresholdTable
	SupportPeriod int
	Detector      signal.DetectorConfig
	Exit          strategy.ExitConfig
}

func (c *Config) applyDefaults() {
	if c.ReferenceSymbol == "" {
		c.ReferenceSymbol = "SPY"
	}
	if c.TradeAmount.IsZero() {
		c.TradeAmount = decimal.NewFromInt(100)
	}
	if c.MinBars == 0 {
		c.MinBars = 60
	}
	if c.Regime == "" {
		c.Regime = regime.Unknown
	}
	if c.Thresholds == (regime.ThresholdTable{}) {
		c.Thresholds = regime.DefaultThresholds()
	}
	if c.SupportPeriod == 0 {
		c.SupportPeriod = 60
	}
}

// Result is the output of one backtest run.
type Result struct {
	Report Report               `json:"report"`
	Trades []model.TradeRecord  `json:"trades"`
	Open   []model.Position     `json:"open_positions"`
}

// Simulator owns one run's components.
type Simulator struct {
	fetcher  collector.Fetcher
	detector *signal.Detector
	exit     *strategy.ExitEvaluator
	cfg      Config
}

// New creates a Simulator.
func New(fetcher collector.Fetcher, cfg Config) *Simulator {
	cfg.applyDefaults()
	return &Simulator{
		fetcher:  fetcher,
		detector: signal.NewDetector(cfg.Detector),
		exit:     strategy.NewExitEvaluator(cfg.Exit),
		cfg:      cfg,
	}
}

// series holds one symbol's bars with a date index for open-price lookups.
type series struct {
	bars   []model.Bar
	byDate map[string]model.Bar
}

func newSeries(bars []model.Bar) *series {
	s := &series{bars: bars, byDate: make(map[string]model.Bar, len(bars))}
	for _, b := range bars {
		s.byDate[dayKey(b.Date)] = b
	}
	return s
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

// upTo returns the bars at or before day, preserving chronology.
func (s *series) upTo(day time.Time) []model.Bar {
	n := sort.Search(len(s.bars), func(i int) bool { return s.bars[i].Date.After(day) })
	return s.bars[:n]
}

func (s *series) on(day time.Time) (model.Bar, bool) {
	b, ok := s.byDate[dayKey(day)]
	return b, ok
}

// pendingFill carries an order waiting for a tradable day.
type pendingFill struct {
	reasons []string         // exit fills
	rec     model.AnalysisRecord // entry fills
}

// Run executes the backtest over the reference calendar.
func (s *Simulator) Run() (*Result, error) {
	refBars, err := s.fetcher.FetchDailyBars(s.cfg.ReferenceSymbol, s.cfg.Start, s.cfg.End)
	if err != nil {
		return nil, fmt.Errorf("reference calendar %s: %w", s.cfg.ReferenceSymbol, err)
	}
	calendar := make([]time.Time, len(refBars))
	for i, b := range refBars {
		calendar[i] = b.Date
	}

	// Warmup padding so day one already has MinBars of history.
	warmupStart := s.cfg.Start.AddDate(0, 0, -(s.cfg.MinBars*7/5 + 30))
	data := make(map[string]*series, len(s.cfg.Symbols))
	for _, symbol := range s.cfg.Symbols {
		bars, err := s.fetcher.FetchDailyBars(symbol, warmupStart, s.cfg.End)
		if err != nil {
			log.Printf("[WARN] backtest: skipping %s: %v", symbol, err)
			continue
		}
		data[symbol] = newSeries(bars)
	}

	book := portfolio.New()
	trades := portfolio.NewTradeLog(nil)
	pendingExits := map[string]*pendingFill{}
	pendingEntries := map[string]*pendingFill{}
	th := s.cfg.Thresholds.For(s.cfg.Regime)

	for t := 0; t+1 < len(calendar); t++ {
		day, next := calendar[t], calendar[t+1]

		s.exitPass(book, data, day, pendingExits)
		s.fillExits(book, trades, data, next, pendingExits)
		s.entryPass(book, data, day, th, pendingExits, pendingEntries)
		s.fillEntries(book, data, next, pendingEntries)
	}

	result := &Result{
		Report: BuildReport(trades.Records()),
		Trades: trades.Records(),
		Open:   book.Positions(),
	}
	return result, nil
}

// exitPass evaluates every open position on day's close and queues exits.
func (s *Simulator) exitPass(book *portfolio.Portfolio, data map[string]*series, day time.Time, pendingExits map[string]*pendingFill) {
	for _, pos := range book.Positions() {
		if _, queued := pendingExits[pos.Symbol]; queued {
			continue
		}
		sr, ok := data[pos.Symbol]
		if !ok {
			continue
		}
		bars := sr.upTo(day)
		if len(bars) < indicator.MinBars {
			continue
		}
		frame, err := indicator.Compute(bars)
		if err != nil {
			continue
		}
		decision := s.exit.Evaluate(&pos, frame)
		if decision.ShouldExit {
			pendingExits[pos.Symbol] = &pendingFill{reasons: decision.Reasons}
		}
	}
}

// fillExits closes queued positions at next's open. A symbol without a bar
// on next stays queued; a zero or NaN open abandons the fill and drops the
// position without a trade record.
func (s *Simulator) fillExits(book *portfolio.Portfolio, trades *portfolio.TradeLog, data map[string]*series, next time.Time, pendingExits map[string]*pendingFill) {
	for symbol, fill := range pendingExits {
		sr, ok := data[symbol]
		if !ok {
			book.Drop(symbol)
			delete(pendingExits, symbol)
			continue
		}
		bar, ok := sr.on(next)
		if !ok {
			continue // deferred until a tradable day
		}
		if bar.Open <= 0 || math.IsNaN(bar.Open) {
			log.Printf("[WARN] backtest: abandoning exit fill for %s, bad open on %s", symbol, dayKey(next))
			book.Drop(symbol)
			delete(pendingExits, symbol)
			continue
		}
		rec, err := book.Close(symbol, bar.Date, decimal.NewFromFloat(bar.Open), fill.reasons)
		if err == nil {
			trades.Append(rec)
		}
		delete(pendingExits, symbol)
	}
}

// entryPass scans FLAT symbols with enough history and queues entries whose
// composite and confidence clear the regime thresholds.
func (s *Simulator) entryPass(book *portfolio.Portfolio, data map[string]*series, day time.Time, th regime.Thresholds, pendingExits, pendingEntries map[string]*pendingFill) {
	for symbol, sr := range data {
		if book.Held(symbol) {
			continue
		}
		if _, queued := pendingEntries[symbol]; queued {
			continue
		}
		if _, exiting := pendingExits[symbol]; exiting {
			continue
		}
		bars := sr.upTo(day)
		if len(bars) < s.cfg.MinBars {
			continue
		}
		frame, err := indicator.Compute(bars)
		if err != nil {
			continue
		}
		rec := s.analyze(symbol, frame)
		if rec.CompositeScore >= th.Composite && rec.ConfidenceScore >= th.Confidence {
			pendingEntries[symbol] = &pendingFill{rec: rec}
		}
	}
}

func (s *Simulator) analyze(symbol string, frame *model.IndicatorFrame) model.AnalysisRecord {
	i := frame.Len() - 1
	events := s.detector.Detect(frame)
	support := signal.EstimateSupport(frame, s.cfg.SupportPeriod)
	assess := strategy.AssessEntry(frame)

	rec := model.AnalysisRecord{
		Symbol:          symbol,
		CurrentPrice:    frame.Close(i),
		SupportPrice:    support.Price,
		EntryAdvice:     assess.Advice,
		ConfidenceScore: assess.Confidence,
		Factors:         assess.Factors,
	}
	if support.Price > 0 && rec.CurrentPrice > 0 {
		rec.DistanceToSupport = (rec.CurrentPrice - support.Price) / support.Price * 100
	}
	if len(events) > 0 {
		latest := events[len(events)-1]
		days := int(frame.Date(i).Sub(latest.Date).Hours() / 24)
		rec.LongDays = &days
	}
	rec.CompositeScore = analyzer.CompositeScore(rec.LongDays, rec.DistanceToSupport, assess.Advice, assess.Confidence)
	return rec
}

// fillEntries opens queued positions at next's open.
func (s *Simulator) fillEntries(book *portfolio.Portfolio, data map[string]*series, next time.Time, pendingEntries map[string]*pendingFill) {
	for symbol, fill := range pendingEntries {
		bar, ok := data[symbol].on(next)
		if !ok {
			continue // deferred until a tradable day
		}
		if bar.Open <= 0 || math.IsNaN(bar.Open) {
			log.Printf("[WARN] backtest: abandoning entry fill for %s, bad open on %s", symbol, dayKey(next))
			delete(pendingEntries, symbol)
			continue
		}
		price := decimal.NewFromFloat(bar.Open)
		pos := model.Position{
			Symbol:               symbol,
			EntryDate:            bar.Date,
			EntryPrice:           price,
			Shares:               s.cfg.TradeAmount.Div(price),
			EntryFactors:         fill.rec.Factors,
			EntryCompositeScore:  fill.rec.CompositeScore,
			EntryConfidenceScore: fill.rec.ConfidenceScore,
			SupportPriceAtEntry:  fill.rec.SupportPrice,
		}
		if err := book.Open(pos); err != nil {
			log.Printf("[WARN] backtest: open %s: %v", symbol, err)
		}
		delete(pendingEntries, symbol)
	}
}

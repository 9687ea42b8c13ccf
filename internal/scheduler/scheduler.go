// Package scheduler wires the cron jobs: the daily watchlist analysis and
// the daily portfolio exit check. Both run through the job controller so
// scheduled and manually triggered runs share single-flight semantics.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/indicator"
	"StockSentinel/internal/job"
	"StockSentinel/internal/model"
	"StockSentinel/internal/notifier"
	"StockSentinel/internal/portfolio"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/regime"
	"StockSentinel/internal/store"
	"StockSentinel/internal/strategy"
)

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron       *cron.Cron
	Analyzer   *analyzer.Analyzer
	Exit       *strategy.ExitEvaluator
	Fetcher    collector.Fetcher
	Controller *job.Controller
	Recorder   recorder.Recorder
	Sentiment  regime.Source
	Thresholds regime.ThresholdTable
	// Notifier is optional; nil disables alerts.
	Notifier notifier.Notifier

	AnalysisStore  *store.Repository[model.AnalysisReport]
	PositionsStore *store.Repository[[]model.Position]
	HistoryStore   *store.Repository[[]model.TradeRecord]
	WatchlistStore *store.Repository[model.Watchlist]

	TradeAmount decimal.Decimal
	PeriodDays  int
}

// RegisterAll registers the analysis and exit-check tasks.
func (s *Scheduler) RegisterAll(analysisCron, exitCheckCron string) error {
	if _, err := s.Cron.AddFunc(analysisCron, func() {
		if err := s.TriggerAnalysis(); err != nil {
			log.Printf("[WARN] scheduled analysis skipped: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register analysis task: %w", err)
	}
	if _, err := s.Cron.AddFunc(exitCheckCron, func() {
		if err := s.TriggerExitCheck(); err != nil {
			log.Printf("[WARN] scheduled exit check skipped: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register exit check task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// TriggerAnalysis starts a watchlist analysis run unless one is active.
func (s *Scheduler) TriggerAnalysis() error {
	return s.Controller.TryStart(s.analysisRun)
}

// TriggerExitCheck starts a portfolio exit check unless a run is active.
func (s *Scheduler) TriggerExitCheck() error {
	return s.Controller.TryStart(s.exitCheckRun)
}

func (s *Scheduler) analysisRun(progress func(done, total int)) error {
	watchlist := s.WatchlistStore.Load()
	if len(watchlist.Stocks) == 0 {
		log.Println("[WARN] analysis run: watchlist is empty")
		return nil
	}
	log.Printf("[INFO] analysis run started, %d symbols", len(watchlist.Stocks))

	report := s.Analyzer.AnalyzeWatchlist(watchlist.Stocks, progress)
	if err := s.AnalysisStore.Save(report); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}

	sentiment := regime.CurrentOrUnknown(s.Sentiment)
	th := s.Thresholds.For(sentiment.Regime)
	log.Printf("[INFO] market regime %s (score %.1f), entry thresholds %.0f/%.0f",
		sentiment.Regime, sentiment.Score, th.Composite, th.Confidence)

	book := portfolio.Restore(s.PositionsStore.Load())
	promoted := analyzer.Promote(report, th, book.Held, s.TradeAmount)
	for _, pos := range promoted {
		if err := book.Open(pos); err != nil {
			log.Printf("[WARN] promote %s: %v", pos.Symbol, err)
		}
	}
	if len(promoted) > 0 {
		if err := s.PositionsStore.Save(book.Positions()); err != nil {
			return fmt.Errorf("save positions: %w", err)
		}
	}

	if err := s.Recorder.RecordAnalysisRun(&report); err != nil {
		log.Printf("[ERROR] record analysis run: %v", err)
	}
	s.recordSignals(report)

	s.notify(notifier.FormatAnalysisReport(&report, sentiment, 5))
	for _, pos := range promoted {
		s.notify(notifier.FormatEntryAlert(&pos))
	}

	log.Printf("[INFO] analysis run finished, %d/%d analyzed, %d promoted",
		report.AnalyzedStocks, report.TotalStocks, len(promoted))
	return nil
}

func (s *Scheduler) notify(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.Send(text); err != nil {
		log.Printf("[WARN] notify: %v", err)
	}
}

func (s *Scheduler) recordSignals(report model.AnalysisReport) {
	for _, rec := range report.Result {
		if rec.LongDays == nil {
			continue
		}
		date, err := time.Parse("2006-01-02", rec.LatestSignalDate)
		if err != nil {
			continue
		}
		evt := model.SignalEvent{
			Date:       date,
			Price:      rec.LatestSignalPrice,
			Conditions: rec.SignalConditions,
			Snapshot: model.SignalSnapshot{
				RSI:                  rec.RSI,
				MACD:                 rec.MACD,
				VolumeRatio:          rec.VolumeRatio,
				TrendReversalConfirm: rec.TrendReversalConfirm,
				ReversalStrength:     rec.ReversalStrength,
				ReversalReliability:  rec.ReversalReliability,
				MomentumTurn:         rec.MomentumTurn,
				StructureReversal:    rec.StructureReversal,
			},
		}
		if err := s.Recorder.RecordSignal(rec.Symbol, &evt); err != nil {
			log.Printf("[ERROR] record signal %s: %v", rec.Symbol, err)
		}
	}
}

// exitCheckRun evaluates every open position against fresh bars and closes
// the ones whose exit decision fires, at the latest close.
func (s *Scheduler) exitCheckRun(progress func(done, total int)) error {
	positions := s.PositionsStore.Load()
	if len(positions) == 0 {
		log.Println("[INFO] exit check: no open positions")
		return nil
	}
	book := portfolio.Restore(positions)
	closed := 0

	for n, pos := range book.Positions() {
		if progress != nil {
			progress(n+1, len(positions))
		}
		bars, err := collector.LatestBars(s.Fetcher, pos.Symbol, s.PeriodDays)
		if err != nil {
			log.Printf("[WARN] exit check %s: %v", pos.Symbol, err)
			continue
		}
		frame, err := indicator.Compute(bars)
		if err != nil {
			log.Printf("[WARN] exit check %s: %v", pos.Symbol, err)
			continue
		}
		decision := s.Exit.Evaluate(&pos, frame)
		if !decision.ShouldExit {
			if decision.Advice != "hold" {
				log.Printf("[INFO] exit check %s: %s (score %.2f)", pos.Symbol, decision.Advice, decision.Score)
			}
			continue
		}

		last := frame.Len() - 1
		rec, err := book.Close(pos.Symbol, frame.Date(last), decimal.NewFromFloat(frame.Close(last)), decision.Reasons)
		if err != nil {
			log.Printf("[ERROR] close %s: %v", pos.Symbol, err)
			continue
		}
		closed++
		log.Printf("[INFO] closed %s: pnl %s (%.2f%%), reasons: %v",
			rec.Symbol, rec.PnL.StringFixed(2), rec.PnLPercent, rec.ExitReasons)
		if err := s.Recorder.RecordTrade(&rec); err != nil {
			log.Printf("[ERROR] record trade: %v", err)
		}
		s.notify(notifier.FormatExitAlert(&rec))
		history := append(s.HistoryStore.Load(), rec)
		if err := s.HistoryStore.Save(history); err != nil {
			log.Printf("[ERROR] save history: %v", err)
		}
	}

	if closed > 0 {
		if err := s.PositionsStore.Save(book.Positions()); err != nil {
			return fmt.Errorf("save positions: %w", err)
		}
	}
	log.Printf("[INFO] exit check finished, %d closed of %d", closed, len(positions))
	return nil
}

package scheduler

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/analyzer"
	"StockSentinel/internal/collector"
	"StockSentinel/internal/job"
	"StockSentinel/internal/model"
	"StockSentinel/internal/recorder"
	"StockSentinel/internal/regime"
	"StockSentinel/internal/store"
	"StockSentinel/internal/strategy"
)

func testScheduler(t *testing.T, fetcher collector.Fetcher) *Scheduler {
	t.Helper()
	dir := t.TempDir()
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Analyzer:   analyzer.New(fetcher, analyzer.DefaultConfig()),
		Exit:       strategy.NewExitEvaluator(strategy.DefaultExitConfig()),
		Fetcher:    fetcher,
		Controller: job.NewController(),
		Recorder:   recorder.NewNoopRecorder(),
		Sentiment:  regime.StaticSource{Regime: regime.Neutral},
		Thresholds: regime.DefaultThresholds(),
		AnalysisStore: store.NewRepository(filepath.Join(dir, "analysis.json"),
			func() model.AnalysisReport { return model.AnalysisReport{} }),
		PositionsStore: store.NewRepository(filepath.Join(dir, "positions.json"),
			func() []model.Position { return nil }),
		HistoryStore: store.NewRepository(filepath.Join(dir, "history.json"),
			func() []model.TradeRecord { return nil }),
		WatchlistStore: store.NewRepository(filepath.Join(dir, "watchlist.json"),
			func() model.Watchlist { return model.Watchlist{} }),
		TradeAmount: decimal.NewFromInt(100),
		PeriodDays:  180,
	}
}

func waitDone(t *testing.T, c *job.Controller) job.Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := c.Status()
		if st.State == job.StateCompleted || st.State == job.StateFailed {
			return st
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("run never finished, state %v", c.Status().State)
	return job.Status{}
}

func TestAnalysisRunSavesReport(t *testing.T) {
	s := testScheduler(t, &collector.MockFetcher{Price: 100})
	if err := s.WatchlistStore.Save(model.Watchlist{Stocks: []string{"AAPL", "MSFT"}}); err != nil {
		t.Fatal(err)
	}

	if err := s.TriggerAnalysis(); err != nil {
		t.Fatal(err)
	}
	st := waitDone(t, s.Controller)
	if st.State != job.StateCompleted {
		t.Fatalf("run state = %v (%s)", st.State, st.Error)
	}
	if st.Analyzed != 2 || st.Total != 2 {
		t.Errorf("progress = %d/%d, want 2/2", st.Analyzed, st.Total)
	}

	report := s.AnalysisStore.Load()
	if report.AnalyzedStocks != 2 || len(report.Result) != 2 {
		t.Errorf("saved report = %d analyzed, %d results; want 2/2",
			report.AnalyzedStocks, len(report.Result))
	}
}

func TestAnalysisRunEmptyWatchlist(t *testing.T) {
	s := testScheduler(t, &collector.MockFetcher{Price: 100})
	if err := s.TriggerAnalysis(); err != nil {
		t.Fatal(err)
	}
	st := waitDone(t, s.Controller)
	if st.State != job.StateCompleted {
		t.Fatalf("empty watchlist should complete cleanly, got %v (%s)", st.State, st.Error)
	}
}

func TestExitCheckClosesStopLoss(t *testing.T) {
	// Generated bars walk around 100; a 500 entry is far below its stop.
	s := testScheduler(t, &collector.MockFetcher{Price: 100})
	if err := s.PositionsStore.Save([]model.Position{{
		Symbol:     "AAPL",
		EntryDate:  time.Now().AddDate(0, 0, -15),
		EntryPrice: decimal.NewFromInt(500),
		Shares:     decimal.NewFromInt(1),
	}}); err != nil {
		t.Fatal(err)
	}

	if err := s.TriggerExitCheck(); err != nil {
		t.Fatal(err)
	}
	st := waitDone(t, s.Controller)
	if st.State != job.StateCompleted {
		t.Fatalf("run state = %v (%s)", st.State, st.Error)
	}

	if got := s.PositionsStore.Load(); len(got) != 0 {
		t.Errorf("positions after stop loss = %d, want 0", len(got))
	}
	history := s.HistoryStore.Load()
	if len(history) != 1 {
		t.Fatalf("history = %d records, want 1", len(history))
	}
	if !history[0].PnL.IsNegative() {
		t.Errorf("pnl = %s, want a loss", history[0].PnL)
	}
}

func TestTriggerDuringRunIsRejected(t *testing.T) {
	s := testScheduler(t, &collector.MockFetcher{Price: 100})
	if err := s.WatchlistStore.Save(model.Watchlist{Stocks: []string{"A", "B", "C", "D"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.TriggerAnalysis(); err != nil {
		t.Fatal(err)
	}
	// The run analyzes four symbols; a second trigger racing it must either
	// be rejected or start fresh after completion, never corrupt state.
	err := s.TriggerExitCheck()
	if err != nil && !errors.Is(err, job.ErrRunInProgress) {
		t.Fatalf("unexpected trigger error: %v", err)
	}
	waitDone(t, s.Controller)
}

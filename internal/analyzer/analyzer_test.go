package analyzer

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/collector"
	"StockSentinel/internal/model"
	"StockSentinel/internal/regime"
)

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// quietFrame has real bars but every indicator column undefined, so no
// signal can fire and no entry rule can match.
func quietFrame(n int) *model.IndicatorFrame {
	base := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	f := &model.IndicatorFrame{Bars: make([]model.Bar, n)}
	for i := range f.Bars {
		p := 100 + float64(i)*0.1
		f.Bars[i] = model.Bar{
			Date: base.AddDate(0, 0, i), Open: p, High: p * 1.01, Low: p * 0.99,
			Close: p, Volume: 1e6,
		}
	}
	f.MA5, f.MA10, f.MA20, f.MA30, f.MA60 = nans(n), nans(n), nans(n), nans(n), nans(n)
	f.RSI, f.MACD, f.MACDSignal, f.MACDHist = nans(n), nans(n), nans(n), nans(n)
	f.BBUpper, f.BBMiddle, f.BBLower = nans(n), nans(n), nans(n)
	f.K, f.D, f.SAR, f.OBV, f.OBVMA, f.ADX = nans(n), nans(n), nans(n), nans(n), nans(n), nans(n)
	f.VolumeMA, f.VolumeRatio = nans(n), nans(n)
	f.Momentum, f.Volatility, f.VolatilityRatio = nans(n), nans(n), nans(n)
	f.RSISlope, f.MACDSlope, f.KSlope = nans(n), nans(n), nans(n)
	f.MABullStrength, f.ChannelSlope, f.VolumeTrendAlign = nans(n), nans(n), nans(n)
	f.MomentumAccel, f.RelativeStrength, f.UptrendContinuity = nans(n), nans(n), nans(n)
	f.SupportReliability, f.DynamicStopLoss = nans(n), nans(n)
	f.TrendReversalConfirm, f.ReversalStrength = nans(n), nans(n)
	f.ReversalReliability, f.MomentumTurn, f.StructureReversal = nans(n), nans(n), nans(n)
	return f
}

func TestCompositeScore(t *testing.T) {
	days := func(d int) *int { return &d }
	tests := []struct {
		name       string
		longDays   *int
		distance   float64
		advice     model.Advice
		confidence float64
		want       float64
	}{
		{"no signal", nil, 0, model.AdviceStrongBuy, 100, 0},
		{"fresh perfect", days(0), 0, model.AdviceStrongBuy, 100, 100},
		{"stale signal", days(30), 0, model.AdviceStrongBuy, 100, 70},
		{"mid", days(15), 40, model.AdviceWatch, 60, 55},
	}
	for _, tt := range tests {
		got := CompositeScore(tt.longDays, tt.distance, tt.advice, tt.confidence)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s: composite = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestCompositeScoreBelowSupportUncapped(t *testing.T) {
	d := 0
	// Price 10% below the support level pushes the distance score past 100.
	got := CompositeScore(&d, -10, model.AdviceStrongBuy, 100)
	if got != 103 {
		t.Errorf("composite = %v, want 103", got)
	}
}

func TestRecordWithoutSignals(t *testing.T) {
	a := New(&collector.MockFetcher{}, DefaultConfig())
	f := quietFrame(90)
	rec := a.Record("AAPL", f)

	if rec.LongDays != nil {
		t.Fatalf("LongDays = %v, want nil on a quiet frame", *rec.LongDays)
	}
	if rec.CompositeScore != 0 {
		t.Errorf("composite = %v, want 0 without a signal", rec.CompositeScore)
	}
	if rec.EntryAdvice != model.AdviceAvoid {
		t.Errorf("advice = %v, want avoid", rec.EntryAdvice)
	}
	if rec.SupportPrice <= 0 || rec.SupportPrice >= rec.CurrentPrice {
		t.Errorf("support = %v, want 0 < support < close %v", rec.SupportPrice, rec.CurrentPrice)
	}
	if rec.DistanceToSupport <= 0 {
		t.Errorf("distance = %v, want positive", rec.DistanceToSupport)
	}
}

type errFetcher struct {
	good *collector.MockFetcher
}

func (e *errFetcher) Name() string { return "err" }

func (e *errFetcher) FetchDailyBars(symbol string, start, end time.Time) ([]model.Bar, error) {
	if symbol == "BAD" {
		return nil, fmt.Errorf("no data: %w", collector.ErrDataUnavailable)
	}
	return e.good.FetchDailyBars(symbol, start, end)
}

func TestAnalyzeWatchlistSkipsFailedSymbols(t *testing.T) {
	a := New(&errFetcher{good: &collector.MockFetcher{Price: 100}}, DefaultConfig())

	var calls int
	report := a.AnalyzeWatchlist([]string{"GOOD", "BAD"}, func(done, total int) {
		calls++
		if total != 2 {
			t.Errorf("progress total = %d, want 2", total)
		}
	})
	if calls != 2 {
		t.Errorf("progress called %d times, want 2", calls)
	}
	if report.TotalStocks != 2 || report.AnalyzedStocks != 1 {
		t.Errorf("totals = %d/%d, want 1 analyzed of 2", report.AnalyzedStocks, report.TotalStocks)
	}
	if len(report.Result) != 1 || report.Result[0].Symbol != "GOOD" {
		t.Fatalf("result = %+v, want only GOOD", report.Result)
	}
}

func TestPromoteRespectsThresholdsAndHoldings(t *testing.T) {
	report := model.AnalysisReport{
		Timestamp: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Result: []model.AnalysisRecord{
			{Symbol: "WIN", CompositeScore: 93, ConfidenceScore: 85, CurrentPrice: 50},
			{Symbol: "HELD", CompositeScore: 95, ConfidenceScore: 90, CurrentPrice: 40},
			{Symbol: "WEAK", CompositeScore: 80, ConfidenceScore: 90, CurrentPrice: 30},
			{Symbol: "SHAKY", CompositeScore: 95, ConfidenceScore: 70, CurrentPrice: 20},
		},
	}
	held := func(s string) bool { return s == "HELD" }
	th := regime.DefaultThresholds().For(regime.Unknown) // 92/82

	got := Promote(report, th, held, decimal.NewFromInt(100))
	if len(got) != 1 || got[0].Symbol != "WIN" {
		t.Fatalf("promoted = %+v, want only WIN", got)
	}
	if !got[0].Shares.Equal(decimal.NewFromInt(2)) {
		t.Errorf("shares = %s, want 2 ($100 at $50)", got[0].Shares)
	}
	if !got[0].EntryDate.Equal(report.Timestamp) {
		t.Errorf("entry date = %v, want report timestamp", got[0].EntryDate)
	}
}

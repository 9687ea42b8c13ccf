package backtest

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

func trade(pnl float64, pct float64, days int) model.TradeRecord {
	return model.TradeRecord{
		PnL:         decimal.NewFromFloat(pnl),
		PnLPercent:  pct,
		HoldingDays: days,
	}
}

func TestBuildReportEmpty(t *testing.T) {
	r := BuildReport(nil)
	if r.TotalTrades != 0 || r.WinRate != 0 || r.ProfitFactor != 0 {
		t.Errorf("empty report = %+v, want all zero", r)
	}
	if !r.TotalPnL.IsZero() {
		t.Errorf("total pnl = %s, want 0", r.TotalPnL)
	}
}

func TestBuildReportMixed(t *testing.T) {
	trades := []model.TradeRecord{
		trade(10, 10, 5),
		trade(20, 20, 10),
		trade(-10, -10, 3),
		trade(0, 0, 2), // breakeven counts as neither win nor loss
	}
	r := BuildReport(trades)

	if r.TotalTrades != 4 || r.Winners != 2 || r.Losers != 1 {
		t.Fatalf("counts = %d/%d/%d, want 4 trades, 2 winners, 1 loser", r.TotalTrades, r.Winners, r.Losers)
	}
	if r.WinRate != 50 {
		t.Errorf("win rate = %v, want 50", r.WinRate)
	}
	if !r.TotalPnL.Equal(decimal.NewFromInt(20)) {
		t.Errorf("total pnl = %s, want 20", r.TotalPnL)
	}
	if r.AvgWinPct != 15 {
		t.Errorf("avg win = %v, want 15", r.AvgWinPct)
	}
	if r.AvgLossPct != -10 {
		t.Errorf("avg loss = %v, want -10", r.AvgLossPct)
	}
	if r.ProfitFactor != 3 {
		t.Errorf("profit factor = %v, want 3 (30 gross win / 10 gross loss)", r.ProfitFactor)
	}
	if r.AvgHoldingDays != 5 {
		t.Errorf("avg holding = %v, want 5", r.AvgHoldingDays)
	}
}

func TestBuildReportWinnersOnly(t *testing.T) {
	r := BuildReport([]model.TradeRecord{trade(5, 5, 1), trade(7, 7, 2)})
	if !math.IsInf(r.ProfitFactor, 1) {
		t.Errorf("profit factor = %v, want +Inf with no losers", r.ProfitFactor)
	}
	if r.WinRate != 100 {
		t.Errorf("win rate = %v, want 100", r.WinRate)
	}
}

func TestReportFormatInfinity(t *testing.T) {
	r := BuildReport([]model.TradeRecord{trade(5, 5, 1)})
	s := r.Format()
	if want := "profit_factor=inf"; !strings.Contains(s, want) {
		t.Errorf("Format() = %q, want it to contain %q", s, want)
	}
}

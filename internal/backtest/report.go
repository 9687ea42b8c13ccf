package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

// Report summarizes a trade log.
type Report struct {
	TotalTrades    int             `json:"total_trades"`
	Winners        int             `json:"winners"`
	Losers         int             `json:"losers"`
	WinRate        float64         `json:"win_rate"` // percent
	TotalPnL       decimal.Decimal `json:"total_pnl"`
	AvgWinPct      float64         `json:"avg_win_percent"`
	AvgLossPct     float64         `json:"avg_loss_percent"`
	ProfitFactor   float64         `json:"profit_factor"`
	AvgHoldingDays float64         `json:"avg_holding_days"`
}

// BuildReport aggregates trade statistics. An empty log yields a zero
// report with profit factor 0; a log with winners and no losers reports a
// profit factor of +Inf.
func BuildReport(trades []model.TradeRecord) Report {
	r := Report{TotalTrades: len(trades), TotalPnL: decimal.Zero}
	if len(trades) == 0 {
		return r
	}

	wins := lo.Filter(trades, func(t model.TradeRecord, _ int) bool { return t.PnL.IsPositive() })
	losses := lo.Filter(trades, func(t model.TradeRecord, _ int) bool { return t.PnL.IsNegative() })
	r.Winners = len(wins)
	r.Losers = len(losses)
	r.WinRate = float64(r.Winners) / float64(r.TotalTrades) * 100

	for _, t := range trades {
		r.TotalPnL = r.TotalPnL.Add(t.PnL)
	}
	if len(wins) > 0 {
		r.AvgWinPct = lo.SumBy(wins, func(t model.TradeRecord) float64 { return t.PnLPercent }) / float64(len(wins))
	}
	if len(losses) > 0 {
		r.AvgLossPct = lo.SumBy(losses, func(t model.TradeRecord) float64 { return t.PnLPercent }) / float64(len(losses))
	}

	grossWin := lo.Reduce(wins, func(acc decimal.Decimal, t model.TradeRecord, _ int) decimal.Decimal {
		return acc.Add(t.PnL)
	}, decimal.Zero)
	grossLoss := lo.Reduce(losses, func(acc decimal.Decimal, t model.TradeRecord, _ int) decimal.Decimal {
		return acc.Add(t.PnL.Abs())
	}, decimal.Zero)
	switch {
	case grossLoss.IsPositive():
		pf, _ := grossWin.Div(grossLoss).Float64()
		r.ProfitFactor = pf
	case grossWin.IsPositive():
		r.ProfitFactor = math.Inf(1)
	}

	r.AvgHoldingDays = lo.SumBy(trades, func(t model.TradeRecord) float64 { return float64(t.HoldingDays) }) / float64(len(trades))
	return r
}

// Format renders the report for log output.
func (r Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "trades=%d win_rate=%.1f%% total_pnl=%s", r.TotalTrades, r.WinRate, r.TotalPnL.StringFixed(2))
	fmt.Fprintf(&b, " avg_win=%.2f%% avg_loss=%.2f%%", r.AvgWinPct, r.AvgLossPct)
	if math.IsInf(r.ProfitFactor, 1) {
		b.WriteString(" profit_factor=inf")
	} else {
		fmt.Fprintf(&b, " profit_factor=%.2f", r.ProfitFactor)
	}
	fmt.Fprintf(&b, " avg_holding=%.1fd", r.AvgHoldingDays)
	return b.String()
}

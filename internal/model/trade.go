package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is an open long trade. It is owned exclusively by the Portfolio
// while open; closing it converts it into a TradeRecord.
type Position struct {
	Symbol               string          `json:"symbol"`
	EntryDate            time.Time       `json:"entry_date"`
	EntryPrice           decimal.Decimal `json:"entry_price"`
	Shares               decimal.Decimal `json:"shares"`
	EntryFactors         []string        `json:"entry_confidence_factors"`
	EntryCompositeScore  float64         `json:"entry_composite_score"`
	EntryConfidenceScore float64         `json:"entry_confidence_score"`
	SupportPriceAtEntry  float64         `json:"support_price_at_entry"`
}

// TradeRecord is a closed trade. Appended to the trade log once, never mutated.
type TradeRecord struct {
	Symbol               string          `json:"symbol"`
	EntryDate            time.Time       `json:"entry_date"`
	EntryPrice           decimal.Decimal `json:"entry_price"`
	Shares               decimal.Decimal `json:"shares"`
	EntryFactors         []string        `json:"entry_confidence_factors"`
	EntryCompositeScore  float64         `json:"entry_composite_score"`
	EntryConfidenceScore float64         `json:"entry_confidence_score"`

	ExitDate    time.Time       `json:"exit_date"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	HoldingDays int             `json:"holding_days"`
	PnL         decimal.Decimal `json:"pnl_absolute"`
	PnLPercent  float64         `json:"pnl_percent"`
	ExitReasons []string        `json:"exit_reasons"`
}

// CloseOut converts an open position into a trade record at the given fill.
func (p Position) CloseOut(exitDate time.Time, exitPrice decimal.Decimal, reasons []string) TradeRecord {
	pnl := exitPrice.Sub(p.EntryPrice).Mul(p.Shares)
	pct := 0.0
	if !p.EntryPrice.IsZero() {
		pct = exitPrice.Sub(p.EntryPrice).Div(p.EntryPrice).InexactFloat64() * 100
	}
	return TradeRecord{
		Symbol:               p.Symbol,
		EntryDate:            p.EntryDate,
		EntryPrice:           p.EntryPrice,
		Shares:               p.Shares,
		EntryFactors:         p.EntryFactors,
		EntryCompositeScore:  p.EntryCompositeScore,
		EntryConfidenceScore: p.EntryConfidenceScore,
		ExitDate:             exitDate,
		ExitPrice:            exitPrice,
		HoldingDays:          int(exitDate.Sub(p.EntryDate).Hours() / 24),
		PnL:                  pnl,
		PnLPercent:           pct,
		ExitReasons:          reasons,
	}
}

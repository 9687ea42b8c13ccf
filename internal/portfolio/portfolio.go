// Package portfolio tracks open positions and the closed-trade log.
package portfolio

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

// ErrAlreadyHeld is returned when opening a symbol that has an open position.
var ErrAlreadyHeld = errors.New("portfolio: symbol already held")

// ErrNotHeld is returned when closing a symbol with no open position.
var ErrNotHeld = errors.New("portfolio: symbol not held")

// Portfolio maps each symbol to at most one open position.
type Portfolio struct {
	mu        sync.Mutex
	positions map[string]model.Position
}

// New returns an empty portfolio.
func New() *Portfolio {
	return &Portfolio{positions: make(map[string]model.Position)}
}

// Restore seeds the portfolio from persisted positions. Duplicate symbols
// keep the first occurrence.
func Restore(positions []model.Position) *Portfolio {
	p := New()
	for _, pos := range positions {
		if _, ok := p.positions[pos.Symbol]; !ok {
			p.positions[pos.Symbol] = pos
		}
	}
	return p
}

// Open records a new position. A symbol with an open position is rejected.
func (p *Portfolio) Open(pos model.Position) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, held := p.positions[pos.Symbol]; held {
		return fmt.Errorf("%w: %s", ErrAlreadyHeld, pos.Symbol)
	}
	p.positions[pos.Symbol] = pos
	return nil
}

// Close removes the symbol's position and converts it into a trade record at
// the given fill.
func (p *Portfolio) Close(symbol string, exitDate time.Time, exitPrice decimal.Decimal, reasons []string) (model.TradeRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, held := p.positions[symbol]
	if !held {
		return model.TradeRecord{}, fmt.Errorf("%w: %s", ErrNotHeld, symbol)
	}
	delete(p.positions, symbol)
	return pos.CloseOut(exitDate, exitPrice, reasons), nil
}

// Drop removes the symbol's position without producing a trade record. Used
// when a fill cannot be priced and the economics would be corrupt.
func (p *Portfolio) Drop(symbol string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.positions, symbol)
}

// Get returns the open position for a symbol.
func (p *Portfolio) Get(symbol string) (model.Position, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pos, ok := p.positions[symbol]
	return pos, ok
}

// Held reports whether the symbol has an open position.
func (p *Portfolio) Held(symbol string) bool {
	_, ok := p.Get(symbol)
	return ok
}

// Len returns the number of open positions.
func (p *Portfolio) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.positions)
}

// Positions returns the open positions sorted by symbol.
func (p *Portfolio) Positions() []model.Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.Position, 0, len(p.positions))
	for _, pos := range p.positions {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// TradeLog is an append-only sequence of closed trades.
type TradeLog struct {
	mu      sync.Mutex
	records []model.TradeRecord
}

// NewTradeLog seeds a log with persisted records.
func NewTradeLog(records []model.TradeRecord) *TradeLog {
	return &TradeLog{records: append([]model.TradeRecord(nil), records...)}
}

// Append adds a closed trade to the log.
func (l *TradeLog) Append(rec model.TradeRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Records returns a copy of the log in append order.
func (l *TradeLog) Records() []model.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.TradeRecord(nil), l.records...)
}

// Len returns the number of closed trades.
func (l *TradeLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

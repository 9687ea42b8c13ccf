package store

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	r := NewRepository(filepath.Join(t.TempDir(), "absent.json"), func() []int { return []int{1, 2} })
	if got := r.Load(); !reflect.DeepEqual(got, []int{1, 2}) {
		t.Fatalf("got %v, want default", got)
	}
}

func TestLoadCorruptFileReturnsDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	r := NewRepository(path, func() map[string]int { return map[string]int{"ok": 1} })
	if got := r.Load(); got["ok"] != 1 {
		t.Fatalf("got %v, want default", got)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	r := NewRepository(path, func() []model.Position { return nil })

	want := []model.Position{{
		Symbol:               "AAPL",
		EntryDate:            time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC),
		EntryPrice:           decimal.NewFromFloat(187.23),
		Shares:               decimal.RequireFromString("0.534"),
		EntryFactors:         []string{"macd positive", "volume surge"},
		EntryCompositeScore:  91.5,
		EntryConfidenceScore: 84,
		SupportPriceAtEntry:  179.8,
	}}
	if err := r.Save(want); err != nil {
		t.Fatal(err)
	}

	got := r.Load()
	if len(got) != 1 {
		t.Fatalf("got %d positions, want 1", len(got))
	}
	if got[0].Symbol != want[0].Symbol ||
		!got[0].EntryDate.Equal(want[0].EntryDate) ||
		!got[0].EntryPrice.Equal(want[0].EntryPrice) ||
		!got[0].Shares.Equal(want[0].Shares) ||
		!reflect.DeepEqual(got[0].EntryFactors, want[0].EntryFactors) ||
		got[0].EntryCompositeScore != want[0].EntryCompositeScore {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got[0], want[0])
	}
}

func TestTradeHistoryRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	r := NewRepository(path, func() []model.TradeRecord { return nil })

	rec := model.TradeRecord{
		Symbol:      "MSFT",
		EntryDate:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EntryPrice:  decimal.NewFromInt(400),
		Shares:      decimal.RequireFromString("0.25"),
		ExitDate:    time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
		ExitPrice:   decimal.NewFromInt(420),
		HoldingDays: 19,
		PnL:         decimal.NewFromInt(5),
		PnLPercent:  5,
		ExitReasons: []string{"take profit: target reached"},
	}
	if err := r.Save([]model.TradeRecord{rec}); err != nil {
		t.Fatal(err)
	}
	got := r.Load()
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	g := got[0]
	if g.Symbol != rec.Symbol || !g.PnL.Equal(rec.PnL) || g.HoldingDays != 19 ||
		!g.ExitDate.Equal(rec.ExitDate) || !reflect.DeepEqual(g.ExitReasons, rec.ExitReasons) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", g, rec)
	}
}

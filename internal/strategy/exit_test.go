package strategy

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"StockSentinel/internal/model"
)

func openPosition(f *model.IndicatorFrame, entryPrice float64, daysHeld int, factors []string) *model.Position {
	last := f.Len() - 1
	return &model.Position{
		Symbol:       "TEST",
		EntryDate:    f.Date(last).AddDate(0, 0, -daysHeld),
		EntryPrice:   decimal.NewFromFloat(entryPrice),
		Shares:       decimal.NewFromInt(1),
		EntryFactors: factors,
	}
}

func TestStopLossOverrideAlwaysFires(t *testing.T) {
	f := flatFrame(70)
	last := f.Len() - 1
	f.Bars[last].Close = 94.9
	// A bullish indicator state must not save the position from the floor.
	f.SAR[last] = 90
	f.RSI[last] = 42

	ev := NewExitEvaluator(ExitConfig{StopLossPct: 0.05})
	dec := ev.Evaluate(openPosition(f, 100, 10, []string{FactorRSIRecovering}), f)
	if !dec.ShouldExit {
		t.Fatal("stop loss at -5.1% did not trigger an exit")
	}
	if len(dec.Reasons) == 0 || !strings.HasPrefix(dec.Reasons[0], "stop loss") {
		t.Errorf("reasons = %v, want a stop loss reason first", dec.Reasons)
	}
}

func TestTakeProfitOverride(t *testing.T) {
	f := flatFrame(70)
	last := f.Len() - 1
	f.Bars[last].Close = 121
	f.SAR[last] = 110

	ev := NewExitEvaluator(ExitConfig{StopLossPct: 0.05, TakeProfitPct: 0.20})
	dec := ev.Evaluate(openPosition(f, 100, 10, nil), f)
	if !dec.ShouldExit {
		t.Fatal("take profit at +21% did not trigger an exit")
	}
	if !strings.HasPrefix(dec.Reasons[0], "take profit") {
		t.Errorf("reasons = %v, want a take profit reason first", dec.Reasons)
	}
}

func TestSARTrailingStopWithConfirmations(t *testing.T) {
	f := flatFrame(70)
	last := f.Len() - 1
	// Close under the SAR with broad bearish confirmation.
	f.SAR[last] = 103
	f.RSI[last] = 72
	f.VolumeRatio[last] = 1.6

	ev := NewExitEvaluator(ExitConfig{StopLossPct: 0.05})
	dec := ev.Evaluate(openPosition(f, 100, 40, nil), f)
	if !dec.ShouldExit {
		t.Fatalf("sar stop with heavy confirmation did not exit: %+v", dec)
	}
	if !strings.HasPrefix(dec.Reasons[0], "sar trailing stop") {
		t.Errorf("reasons = %v, want sar trailing stop first", dec.Reasons)
	}
}

func TestSARTrailingStopDemandsMoreWhenInProfit(t *testing.T) {
	f := flatFrame(70)
	last := f.Len() - 1
	// 25% unrealized profit, shallow penetration, mild state: 6 required,
	// few points available.
	f.Bars[last].Close = 125
	f.SAR[last] = 125.5
	f.RSI[last] = 55
	f.MACD[last] = 0.5
	f.MACDHist[last] = 0.5
	f.MA5[last] = 120
	f.MA20[last] = 118

	ev := NewExitEvaluator(ExitConfig{StopLossPct: 0.05})
	dec := ev.Evaluate(openPosition(f, 100, 10, []string{FactorMACDPositive}), f)
	if dec.ShouldExit {
		t.Fatalf("shallow sar touch exited a profitable position: %+v", dec)
	}
}

func TestCompositeExitOnFullErosion(t *testing.T) {
	f := flatFrame(70)
	last := f.Len() - 1
	f.SAR[last] = 95 // keep stage 1 quiet

	ev := NewExitEvaluator(ExitConfig{StopLossPct: 0.05})
	pos := openPosition(f, 100, 10, []string{FactorVolumeSurge, FactorADXStrong})
	dec := ev.Evaluate(pos, f)
	if !dec.ShouldExit {
		t.Fatalf("full thesis erosion should exit, got %+v", dec)
	}
	if dec.Score < 0.8 {
		t.Errorf("score = %v, want >= 0.8", dec.Score)
	}
}

func TestCompositeAdvisoryTier(t *testing.T) {
	f := flatFrame(70)
	last := f.Len() - 1
	f.SAR[last] = 95
	f.RSI[last] = 42 // keeps the recovering factor alive

	ev := NewExitEvaluator(ExitConfig{StopLossPct: 0.05})
	pos := openPosition(f, 100, 10, []string{FactorRSIRecovering, FactorVolumeSurge})
	dec := ev.Evaluate(pos, f)
	if dec.ShouldExit {
		t.Fatalf("half-eroded thesis should not exit outright: %+v", dec)
	}
	if dec.Advice != "reduce position" {
		t.Errorf("advice = %q (score %v), want reduce position", dec.Advice, dec.Score)
	}
}

func TestHoldWhenThesisIntact(t *testing.T) {
	f := flatFrame(70)
	last := f.Len() - 1
	f.SAR[last] = 95
	f.RSI[last] = 42
	f.MACD[last] = 0.3
	f.MACDHist[last] = 0.2
	f.MA5[last] = 99
	f.MA20[last] = 98
	f.TrendReversalConfirm[last] = 65

	ev := NewExitEvaluator(ExitConfig{StopLossPct: 0.05})
	pos := openPosition(f, 100, 10, []string{FactorRSIRecovering, FactorMACDPositive})
	dec := ev.Evaluate(pos, f)
	if dec.ShouldExit || dec.Advice != "hold" {
		t.Fatalf("intact thesis should hold, got %+v", dec)
	}
}

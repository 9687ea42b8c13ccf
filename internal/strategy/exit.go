package strategy

import (
	"fmt"
	"math"

	"github.com/samber/lo"

	"StockSentinel/internal/model"
)

// ExitConfig tunes the exit evaluator. A percentage of 0 disables the
// corresponding override.
type ExitConfig struct {
	StopLossPct    float64 `yaml:"stop_loss_pct"`
	TakeProfitPct  float64 `yaml:"take_profit_pct"`
	ExitThreshold  float64 `yaml:"exit_threshold"`
	ReduceAdvisory float64 `yaml:"reduce_threshold"`
	WatchAdvisory  float64 `yaml:"watch_threshold"`
}

// DefaultExitConfig returns the standard exit parameters.
func DefaultExitConfig() ExitConfig {
	return ExitConfig{
		StopLossPct:    0.05,
		TakeProfitPct:  0.20,
		ExitThreshold:  0.8,
		ReduceAdvisory: 0.6,
		WatchAdvisory:  0.5,
	}
}

func (c *ExitConfig) applyDefaults() {
	d := DefaultExitConfig()
	if c.ExitThreshold <= 0 {
		c.ExitThreshold = d.ExitThreshold
	}
	if c.ReduceAdvisory <= 0 {
		c.ReduceAdvisory = d.ReduceAdvisory
	}
	if c.WatchAdvisory <= 0 {
		c.WatchAdvisory = d.WatchAdvisory
	}
}

// ExitDecision is the output of one daily evaluation of an open position.
type ExitDecision struct {
	ShouldExit bool     `json:"should_exit"`
	Score      float64  `json:"score"`  // composite exit confidence, 0-1
	Advice     string   `json:"advice"` // hold, watch closely, reduce position, exit
	Reasons    []string `json:"reasons"`
}

// exitPenalties maps currently-firing rule labels to exit pressure.
// Positive weights argue for leaving; negative weights are live bullish
// reversal evidence that argues against it.
var exitPenalties = map[string]float64{
	FactorRSIOverbought:    0.6,
	FactorRSIElevated:      0.3,
	FactorNearUpperBand:    0.5,
	FactorUpperBandRisk:    0.25,
	FactorVolumeDrying:     0.3,
	FactorMomentumNegative: 0.4,
	FactorSlopesFalling:    0.3,
	FactorChannelFalling:   0.3,
	FactorMAWeak:           0.25,
	FactorADXTrendless:     0.2,
	FactorHighVolatility:   0.3,
	FactorSupportThin:      0.25,

	FactorRSIDeepOversold:   -0.4,
	FactorRSIRecovering:     -0.3,
	FactorKDOversoldCross:   -0.2,
	FactorNearLowerBand:     -0.3,
	FactorReversalVeryHigh:  -0.6,
	FactorReversalConfirmed: -0.4,
	FactorRevStrengthVeryHi: -0.4,
	FactorRevStrengthHigh:   -0.25,
	FactorRevReliableVeryHi: -0.4,
	FactorRevReliableHigh:   -0.25,
	FactorTurnStrong:        -0.3,
	FactorStructureReversed: -0.3,
}

// ExitEvaluator decides daily whether an open position should be closed.
type ExitEvaluator struct {
	cfg ExitConfig
}

// NewExitEvaluator builds an evaluator, filling unset thresholds with
// defaults.
func NewExitEvaluator(cfg ExitConfig) *ExitEvaluator {
	cfg.applyDefaults()
	return &ExitEvaluator{cfg: cfg}
}

// Evaluate runs the fixed stop overrides, the adaptive SAR trailing stop and
// the composite confidence check against the last row of the frame.
func (e *ExitEvaluator) Evaluate(pos *model.Position, f *model.IndicatorFrame) ExitDecision {
	i := f.Len() - 1
	close := f.Close(i)
	entry, _ := pos.EntryPrice.Float64()
	holdingDays := int(f.Date(i).Sub(pos.EntryDate).Hours() / 24)

	// Fixed percentage overrides apply regardless of everything else.
	if e.cfg.StopLossPct > 0 && entry > 0 && close <= entry*(1-e.cfg.StopLossPct) {
		return ExitDecision{
			ShouldExit: true,
			Score:      1,
			Advice:     "exit",
			Reasons: []string{fmt.Sprintf("stop loss: close %.2f below %.0f%% floor from entry %.2f",
				close, e.cfg.StopLossPct*100, entry)},
		}
	}
	if e.cfg.TakeProfitPct > 0 && entry > 0 && close >= entry*(1+e.cfg.TakeProfitPct) {
		return ExitDecision{
			ShouldExit: true,
			Score:      1,
			Advice:     "exit",
			Reasons: []string{fmt.Sprintf("take profit: close %.2f above %.0f%% target from entry %.2f",
				close, e.cfg.TakeProfitPct*100, entry)},
		}
	}

	current := AssessEntryAt(f, i)

	if reasons, ok := e.sarTrailingStop(pos, f, i, current.Factors, holdingDays); ok {
		return ExitDecision{ShouldExit: true, Score: 1, Advice: "exit", Reasons: reasons}
	}

	score, reasons := e.compositeExitScore(pos, f, i, current.Factors)
	switch {
	case score >= e.cfg.ExitThreshold:
		return ExitDecision{ShouldExit: true, Score: score, Advice: "exit", Reasons: reasons}
	case score >= e.cfg.ReduceAdvisory:
		return ExitDecision{Score: score, Advice: "reduce position", Reasons: reasons}
	case score >= e.cfg.WatchAdvisory:
		return ExitDecision{Score: score, Advice: "watch closely", Reasons: reasons}
	}
	return ExitDecision{Score: score, Advice: "hold"}
}

// sarTrailingStop implements the adaptive confirmation-counted SAR stop.
// Deep in profit the stop demands more confirmations before it lets go of
// the position; fresh positions get one extra to avoid premature stop-outs.
func (e *ExitEvaluator) sarTrailingStop(pos *model.Position, f *model.IndicatorFrame, i int, currentFactors []string, holdingDays int) ([]string, bool) {
	close := f.Close(i)
	sar := f.SAR[i]
	if model.IsMissing(sar) || close >= sar {
		return nil, false
	}

	entry, _ := pos.EntryPrice.Float64()
	profitPct := 0.0
	if entry > 0 {
		profitPct = (close/entry - 1) * 100
	}

	required := 2
	switch {
	case profitPct > 20:
		required = 6
	case profitPct > 10:
		required = 4
	case profitPct > 0:
		required = 3
	}
	if holdingDays < 3 {
		required++
	} else if holdingDays > 30 {
		required--
		if required < 2 {
			required = 2
		}
	}

	points := 0
	var reasons []string
	note := func(n int, r string) {
		points += n
		reasons = append(reasons, r)
	}

	switch {
	case f.RSI[i] > 70:
		note(2, "rsi overbought")
	case f.RSI[i] > 60:
		note(1, "rsi elevated")
	}
	if f.MACD[i] < 0 {
		note(2, "macd negative")
	}
	if f.VolumeRatio[i] > 1.5 {
		note(1, "heavy volume on breakdown")
	}
	penetration := (sar - close) / close * 100
	switch {
	case penetration > 2:
		note(2, "deep sar penetration")
	case penetration > 1:
		note(1, "sar penetration")
	}
	negatives := lo.CountBy(currentFactors, func(l string) bool { return ruleWeight(l) < 0 })
	switch {
	case negatives >= 3:
		note(2, "multiple negative factors")
	case negatives >= 2:
		note(1, "negative factors present")
	}

	if points < required {
		return nil, false
	}
	reasons = append([]string{fmt.Sprintf("sar trailing stop: %d/%d confirmations", points, required)}, reasons...)
	return reasons, true
}

// compositeExitScore blends thesis erosion with live bearish pressure.
func (e *ExitEvaluator) compositeExitScore(pos *model.Position, f *model.IndicatorFrame, i int, currentFactors []string) (float64, []string) {
	var reasons []string

	erosion := 0.0
	if len(pos.EntryFactors) > 0 {
		gone := lo.Without(pos.EntryFactors, currentFactors...)
		erosion = float64(len(gone)) / float64(len(pos.EntryFactors))
		if len(gone) > 0 {
			reasons = append(reasons, fmt.Sprintf("entry thesis eroded: %d of %d factors gone", len(gone), len(pos.EntryFactors)))
		}
	}

	penalty := 0.0
	for _, label := range currentFactors {
		if w, ok := exitPenalties[label]; ok {
			penalty += w
			if w >= 0.3 {
				reasons = append(reasons, label)
			}
		}
	}
	score := erosion + math.Min(penalty, 1)

	adjust := func(delta float64, r string) {
		score += delta
		if delta > 0 {
			reasons = append(reasons, r)
		}
	}

	close := f.Close(i)
	switch {
	case f.RSI[i] > 70:
		adjust(0.2, "rsi overbought zone")
	case f.RSI[i] < 40:
		adjust(-0.1, "")
	}
	switch {
	case f.MACD[i] < 0 && f.MACDHist[i] < 0:
		adjust(0.2, "macd fully negative")
	case f.MACD[i] > 0 && f.MACDHist[i] > 0:
		adjust(-0.1, "")
	}
	switch {
	case close < f.MA5[i] && close < f.MA20[i]:
		adjust(0.2, "price below ma5 and ma20")
	case close > f.MA5[i] && close > f.MA20[i]:
		adjust(-0.1, "")
	}
	if i >= 1 && close < f.Close(i-1) && f.VolumeRatio[i] > 1.5 {
		adjust(0.2, "heavy selling volume")
	}
	if !model.IsMissing(f.TrendReversalConfirm[i]) && f.TrendReversalConfirm[i] < 40 {
		adjust(0.1, "reversal confirmation fading")
	}
	if !model.IsMissing(f.ReversalReliability[i]) && f.ReversalReliability[i] < 40 {
		adjust(0.1, "reversal reliability fading")
	}
	if !model.IsMissing(f.MomentumTurn[i]) && f.MomentumTurn[i] < 30 {
		adjust(0.1, "momentum turn fading")
	}
	if !model.IsMissing(f.StructureReversal[i]) && f.StructureReversal[i] < 20 {
		adjust(0.1, "structure reversal fading")
	}

	return math.Max(0, math.Min(1, score)), reasons
}

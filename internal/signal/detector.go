// Package signal scans indicator frames for long entry setups and estimates
// the support price a pullback is unlikely to break.
package signal

import (
	"StockSentinel/internal/model"
)

// Condition labels attached to detected signals. The exit evaluator matches
// on these strings to measure how much of the entry thesis still holds, so
// they must stay stable.
const (
	CondGoldenCrossVolume  = "golden cross with volume surge"
	CondMACDHistFlip       = "macd histogram turned positive"
	CondKDOversoldCross    = "kd oversold cross"
	CondSARFlip            = "sar flipped bullish"
	CondOBVBreakout        = "obv crossed above its average"
	CondRSIOversoldRebound = "rsi rebounded from oversold"
	CondBBLowerReclaim     = "reclaimed lower bollinger band"
	CondMomentumFlip       = "momentum turned positive"
	CondADXTrend           = "adx trend strength"
	CondMAAlignment        = "bullish ma alignment"
	CondChannelRising      = "price channel rising"
	CondVolumeAligned      = "volume trend aligned"
	CondMomentumAccel      = "momentum accelerating"
	CondSlopesRising       = "indicator slopes rising"
	CondRelativeStrength   = "relative strength positive"
	CondUptrendContinuity  = "uptrend momentum persists"
	CondReversalConfirmed  = "trend reversal confirmed"
	CondReversalStrong     = "reversal strength high"
	CondReversalReliable   = "reversal reliability high"
	CondMomentumTurn       = "short term momentum turn"
	CondStructureReversal  = "price structure reversal"
)

// reversalConditions are the subset a signal must draw on before it fires.
var reversalConditions = map[string]bool{
	CondReversalConfirmed: true,
	CondReversalStrong:    true,
	CondReversalReliable:  true,
	CondMomentumTurn:      true,
	CondStructureReversal: true,
}

// DetectorConfig tunes the signal scan. Zero values fall back to defaults.
type DetectorConfig struct {
	Lookback      int     `yaml:"lookback"`
	MinConditions int     `yaml:"min_conditions"`
	MinReversal   int     `yaml:"min_reversal_conditions"`
	DebounceDays  int     `yaml:"debounce_days"`
	MaxRSI        float64 `yaml:"max_rsi"`
	MaxBBPosition float64 `yaml:"max_bb_position"`
	DeclineFilter float64 `yaml:"decline_filter"`
}

// DefaultDetectorConfig returns the standard scan parameters.
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		Lookback:      60,
		MinConditions: 5,
		MinReversal:   2,
		DebounceDays:  3,
		MaxRSI:        75,
		MaxBBPosition: 0.85,
		DeclineFilter: -0.02,
	}
}

func (c *DetectorConfig) applyDefaults() {
	d := DefaultDetectorConfig()
	if c.Lookback <= 0 {
		c.Lookback = d.Lookback
	}
	if c.MinConditions <= 0 {
		c.MinConditions = d.MinConditions
	}
	if c.MinReversal <= 0 {
		c.MinReversal = d.MinReversal
	}
	if c.DebounceDays <= 0 {
		c.DebounceDays = d.DebounceDays
	}
	if c.MaxRSI <= 0 {
		c.MaxRSI = d.MaxRSI
	}
	if c.MaxBBPosition <= 0 {
		c.MaxBBPosition = d.MaxBBPosition
	}
	if c.DeclineFilter == 0 {
		c.DeclineFilter = d.DeclineFilter
	}
}

// Detector finds long setups in an indicator frame.
type Detector struct {
	cfg DetectorConfig
}

// NewDetector builds a detector, filling unset config fields with defaults.
func NewDetector(cfg DetectorConfig) *Detector {
	cfg.applyDefaults()
	return &Detector{cfg: cfg}
}

// Detect scans the frame chronologically and returns every signal that
// clears the filters. A row fires only when enough conditions line up and at
// least MinReversal of them come from the reversal family; rows inside the
// debounce window of the previous signal are skipped.
func (d *Detector) Detect(f *model.IndicatorFrame) []model.SignalEvent {
	var events []model.SignalEvent
	var lastFired *model.SignalEvent

	for i := d.cfg.Lookback; i < f.Len(); i++ {
		if d.recentDecline(f, i) {
			continue
		}
		if lastFired != nil {
			days := int(f.Date(i).Sub(lastFired.Date).Hours() / 24)
			if days < d.cfg.DebounceDays {
				continue
			}
		}
		if !model.IsMissing(f.RSI[i]) && f.RSI[i] > d.cfg.MaxRSI {
			continue
		}
		if pos := f.BollingerPosition(i); !model.IsMissing(pos) && pos > d.cfg.MaxBBPosition {
			continue
		}

		conds := d.conditions(f, i)
		if len(conds) < d.cfg.MinConditions {
			continue
		}
		reversals := 0
		for _, c := range conds {
			if reversalConditions[c] {
				reversals++
			}
		}
		if reversals < d.cfg.MinReversal {
			continue
		}

		ev := model.SignalEvent{
			Date:       f.Date(i),
			Price:      f.Close(i),
			Conditions: conds,
			Snapshot:   snapshot(f, i),
		}
		events = append(events, ev)
		lastFired = &events[len(events)-1]
	}
	return events
}

// recentDecline reports whether the mean daily return over the five rows
// before i is below the decline filter.
func (d *Detector) recentDecline(f *model.IndicatorFrame, i int) bool {
	if i < 5 {
		return false
	}
	sum, n := 0.0, 0
	for j := i - 4; j < i; j++ {
		prev := f.Close(j - 1)
		if prev == 0 {
			continue
		}
		sum += f.Close(j)/prev - 1
		n++
	}
	return n > 0 && sum/float64(n) < d.cfg.DeclineFilter
}

func (d *Detector) conditions(f *model.IndicatorFrame, i int) []string {
	var conds []string
	add := func(ok bool, label string) {
		if ok {
			conds = append(conds, label)
		}
	}
	gt := func(a, b float64) bool {
		return !model.IsMissing(a) && !model.IsMissing(b) && a > b
	}

	add(gt(f.MA5[i], f.MA20[i]) && !gt(f.MA5[i-1], f.MA20[i-1]) &&
		!model.IsMissing(f.MA5[i-1]) && !model.IsMissing(f.MA20[i-1]) &&
		gt(f.VolumeRatio[i], 1.5), CondGoldenCrossVolume)

	add(gt(f.MACDHist[i], 0) && !model.IsMissing(f.MACDHist[i-1]) &&
		f.MACDHist[i-1] <= 0 && !gt(f.RSI[i], 70) && !model.IsMissing(f.RSI[i]),
		CondMACDHistFlip)

	add(gt(f.K[i], f.D[i]) && !model.IsMissing(f.K[i-1]) && !model.IsMissing(f.D[i-1]) &&
		f.K[i-1] <= f.D[i-1] && f.K[i] < 20 && f.D[i] < 25, CondKDOversoldCross)

	add(i >= 2 &&
		f.Close(i) > f.SAR[i] && f.Close(i-1) > f.SAR[i-1] &&
		f.Close(i-2) <= f.SAR[i-2], CondSARFlip)

	add(gt(f.OBV[i], f.OBVMA[i]) && !model.IsMissing(f.OBVMA[i-1]) &&
		f.OBV[i-1] <= f.OBVMA[i-1], CondOBVBreakout)

	add(gt(f.RSI[i], 30) && !model.IsMissing(f.RSI[i-1]) && f.RSI[i-1] <= 30,
		CondRSIOversoldRebound)

	add(gt(f.Close(i), f.BBLower[i]) && !model.IsMissing(f.BBLower[i-1]) &&
		f.Close(i-1) <= f.BBLower[i-1], CondBBLowerReclaim)

	add(gt(f.Momentum[i], 0) && !model.IsMissing(f.Momentum[i-1]) &&
		f.Momentum[i-1] <= 0, CondMomentumFlip)

	add(gt(f.ADX[i], 25), CondADXTrend)
	add(gt(f.MABullStrength[i], 80), CondMAAlignment)
	add(gt(f.ChannelSlope[i], 0), CondChannelRising)
	add(gt(f.VolumeTrendAlign[i], 70), CondVolumeAligned)
	add(gt(f.MomentumAccel[i], 0), CondMomentumAccel)
	add(gt(f.RSISlope[i], 0) && gt(f.MACDSlope[i], 0), CondSlopesRising)
	add(gt(f.RelativeStrength[i], 0), CondRelativeStrength)
	add(gt(f.UptrendContinuity[i], 50), CondUptrendContinuity)

	add(gt(f.TrendReversalConfirm[i], 60), CondReversalConfirmed)
	add(gt(f.ReversalStrength[i], 70), CondReversalStrong)
	add(gt(f.ReversalReliability[i], 70), CondReversalReliable)
	add(gt(f.MomentumTurn[i], 60), CondMomentumTurn)
	add(gt(f.StructureReversal[i], 50), CondStructureReversal)

	return conds
}

func snapshot(f *model.IndicatorFrame, i int) model.SignalSnapshot {
	return model.SignalSnapshot{
		RSI:                  f.RSI[i],
		MACD:                 f.MACD[i],
		VolumeRatio:          f.VolumeRatio[i],
		K:                    f.K[i],
		D:                    f.D[i],
		SAR:                  f.SAR[i],
		OBV:                  f.OBV[i],
		ADX:                  f.ADX[i],
		TrendReversalConfirm: f.TrendReversalConfirm[i],
		ReversalStrength:     f.ReversalStrength[i],
		ReversalReliability:  f.ReversalReliability[i],
		MomentumTurn:         f.MomentumTurn[i],
		StructureReversal:    f.StructureReversal[i],
	}
}


package model

import (
	"math"
	"time"
)

// IndicatorFrame is a bar series extended with computed indicator columns.
// All columns are aligned with Bars; rows whose indicators cannot be computed
// yet (insufficient history) hold NaN rather than a fabricated value, so
// consumers can tell "unknown" from "bearish".
type IndicatorFrame struct {
	Bars []Bar

	MA5  []float64
	MA10 []float64
	MA20 []float64
	MA30 []float64
	MA60 []float64

	RSI        []float64
	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	BBUpper  []float64
	BBMiddle []float64
	BBLower  []float64

	K []float64
	D []float64

	SAR   []float64
	OBV   []float64
	OBVMA []float64
	ADX   []float64

	VolumeMA    []float64
	VolumeRatio []float64

	Momentum        []float64 // 5-day rate of change
	Volatility      []float64 // 20-day close stddev
	VolatilityRatio []float64

	RSISlope  []float64 // 3-period differences
	MACDSlope []float64
	KSlope    []float64

	MABullStrength     []float64
	ChannelSlope       []float64
	VolumeTrendAlign   []float64
	MomentumAccel      []float64
	RelativeStrength   []float64
	UptrendContinuity  []float64
	SupportReliability []float64
	DynamicStopLoss    []float64

	TrendReversalConfirm []float64
	ReversalStrength     []float64
	ReversalReliability  []float64
	MomentumTurn         []float64
	StructureReversal    []float64
}

// Len returns the number of rows in the frame.
func (f *IndicatorFrame) Len() int { return len(f.Bars) }

// Date returns the trading date of row i.
func (f *IndicatorFrame) Date(i int) time.Time { return f.Bars[i].Date }

// Close returns the closing price of row i.
func (f *IndicatorFrame) Close(i int) float64 { return f.Bars[i].Close }

// LastClose returns the closing price of the final row.
func (f *IndicatorFrame) LastClose() float64 { return f.Bars[len(f.Bars)-1].Close }

// BollingerPosition returns where the close of row i sits inside the
// Bollinger envelope, 0 at the lower band and 1 at the upper. NaN when the
// bands are undefined or degenerate.
func (f *IndicatorFrame) BollingerPosition(i int) float64 {
	upper, lower := f.BBUpper[i], f.BBLower[i]
	if IsMissing(upper) || IsMissing(lower) || upper == lower {
		return math.NaN()
	}
	return (f.Bars[i].Close - lower) / (upper - lower)
}

// IsMissing reports whether an indicator value is undefined.
func IsMissing(v float64) bool { return math.IsNaN(v) }

package indicator

import (
	"math"

	"StockSentinel/internal/model"
)

// Context columns grade the trend environment of each row on a 0-100 scale
// (MomentumAccel and ChannelSlope are unbounded raw readings). Every column
// is computed strictly from rows at or before its own index.

func computeContextColumns(f *model.IndicatorFrame) {
	n := f.Len()
	closes := model.Closes(f.Bars)
	highs := model.Highs(f.Bars)
	lows := model.Lows(f.Bars)
	volumes := model.Volumes(f.Bars)

	f.MABullStrength = nanSlice(n)
	f.ChannelSlope = nanSlice(n)
	f.VolumeTrendAlign = nanSlice(n)
	f.MomentumAccel = nanSlice(n)
	f.RelativeStrength = nanSlice(n)
	f.UptrendContinuity = nanSlice(n)
	f.SupportReliability = nanSlice(n)

	high20 := rollingMax(highs, 20)
	low20 := rollingMin(lows, 20)
	volPct5 := pctChange(volumes, 5)
	pct10 := pctChange(closes, 10)

	for i := 0; i < n; i++ {
		// MA alignment: four ordering checks plus two slope checks.
		if i >= 4 && !anyNaN(f.MA5[i], f.MA10[i], f.MA20[i], f.MA30[i], f.MA60[i], f.MA5[i-4], f.MA20[i-4]) {
			checks := 0
			if f.MA5[i] > f.MA10[i] {
				checks++
			}
			if f.MA10[i] > f.MA20[i] {
				checks++
			}
			if f.MA20[i] > f.MA30[i] {
				checks++
			}
			if f.MA30[i] > f.MA60[i] {
				checks++
			}
			if f.MA5[i] > f.MA5[i-4] {
				checks++
			}
			if f.MA20[i] > f.MA20[i-4] {
				checks++
			}
			f.MABullStrength[i] = float64(checks) / 6 * 100
		}

		// Slope of the 20-bar high/low channel midpoint over four rows.
		if i >= 4 && !anyNaN(high20[i], low20[i], high20[i-4], low20[i-4]) {
			mid := (high20[i] + low20[i]) / 2
			prevMid := (high20[i-4] + low20[i-4]) / 2
			if prevMid != 0 {
				f.ChannelSlope[i] = (mid - prevMid) / prevMid * 100
			}
		}

		if i >= 4 && !anyNaN(f.Momentum[i], volPct5[i], f.VolumeMA[i], f.VolumeMA[i-4]) {
			score := 0.0
			if f.Momentum[i] > 0 && volPct5[i] > 0 {
				score += 50
			}
			if f.Momentum[i] < 0 && volPct5[i] < 0 {
				score += 30
			}
			if f.VolumeMA[i] > f.VolumeMA[i-4] {
				score += 20
			}
			f.VolumeTrendAlign[i] = score
		}

		if !anyNaN(f.Momentum[i], pct10[i]) {
			f.MomentumAccel[i] = f.Momentum[i] - pct10[i]
		}

		if i >= 19 && closes[i-19] != 0 {
			f.RelativeStrength[i] = (closes[i]/closes[i-19] - 1) * 100
		}

		if i >= 4 && !anyNaN(f.RSI[i], f.RSI[i-4], f.MACD[i], f.MACD[i-4], f.K[i], f.K[i-4]) {
			upDays := 0
			for j := 0; j < 10 && i-j-1 >= 0; j++ {
				if closes[i-j] > closes[i-j-1] {
					upDays++
				} else {
					break
				}
			}
			score := float64(upDays) * 10
			if f.RSI[i] > f.RSI[i-4] {
				score += 20
			}
			if f.MACD[i] > f.MACD[i-4] {
				score += 20
			}
			if f.K[i] > f.K[i-4] {
				score += 20
			}
			f.UptrendContinuity[i] = clampScore(score)
		}

		if !anyNaN(f.MA20[i], f.MA30[i], f.BBLower[i], f.SAR[i]) {
			count := 0
			for _, s := range []float64{f.MA20[i], f.MA30[i], f.BBLower[i], f.SAR[i]} {
				if closes[i] > s*0.95 && closes[i] < s*1.05 {
					count++
				}
			}
			f.SupportReliability[i] = float64(count) * 25
		}
	}
}

// Reversal columns score how convincingly a downtrend is turning over.
// Each is capped at 100.

func computeReversalColumns(f *model.IndicatorFrame) {
	n := f.Len()
	closes := model.Closes(f.Bars)
	highs := model.Highs(f.Bars)
	lows := model.Lows(f.Bars)

	f.TrendReversalConfirm = nanSlice(n)
	f.ReversalStrength = nanSlice(n)
	f.ReversalReliability = nanSlice(n)
	f.MomentumTurn = nanSlice(n)
	f.StructureReversal = nanSlice(n)

	pct3 := pctChange(closes, 3)
	pct7 := pctChange(closes, 7)
	pct10 := pctChange(closes, 10)

	for i := 0; i < n; i++ {
		bbPos := f.BollingerPosition(i)

		if !anyNaN(f.MA5[i], f.MA20[i], f.RSI[i], f.MACD[i], f.MACDHist[i], f.K[i], f.D[i], f.VolumeRatio[i], f.Momentum[i], bbPos) {
			f.TrendReversalConfirm[i] = trendReversalScore(f, i, closes[i], bbPos)
		}

		if !anyNaN(f.Momentum[i], pct10[i], f.RSISlope[i], f.MACDSlope[i], f.KSlope[i], f.VolumeRatio[i], f.MABullStrength[i], f.ChannelSlope[i]) {
			f.ReversalStrength[i] = reversalStrengthScore(f, i, pct10[i])
		}

		if !anyNaN(f.RSI[i], f.MACD[i], f.MACDHist[i], f.K[i], f.D[i], f.SAR[i], f.OBVMA[i], f.VolumeRatio[i], bbPos, f.ADX[i], f.SupportReliability[i]) {
			f.ReversalReliability[i] = reversalReliabilityScore(f, i, closes[i], bbPos)
		}

		if i >= 7 && !anyNaN(pct3[i], pct7[i], f.RSI[i], f.RSI[i-3], f.MACDHist[i], f.MACDHist[i-3]) {
			f.MomentumTurn[i] = momentumTurnScore(f, i, lows, pct3[i], pct7[i])
		}

		if i >= 9 && !anyNaN(f.MA20[i], f.BBLower[i], f.SAR[i]) {
			f.StructureReversal[i] = structureReversalScore(f, i, closes, highs, lows)
		}
	}
}

func trendReversalScore(f *model.IndicatorFrame, i int, close, bbPos float64) float64 {
	score := 0.0

	switch {
	case close > f.MA20[i] && close > f.MA5[i]:
		score += 20
	case close > f.MA20[i]:
		score += 10
	}

	switch {
	case f.RSI[i] > 30 && f.RSI[i] < 60:
		score += 15
	case f.RSI[i] < 30:
		score += 10
	}

	switch {
	case f.MACD[i] > 0 && f.MACDHist[i] > 0:
		score += 15
	case f.MACD[i] > 0:
		score += 10
	}

	if f.K[i] > f.D[i] && f.K[i] < 40 {
		score += 10
	}

	switch {
	case f.VolumeRatio[i] > 1.2:
		score += 10
	case f.VolumeRatio[i] > 1.0:
		score += 5
	}

	if f.Momentum[i] > 0 {
		score += 10
	}

	switch {
	case bbPos < 0.5:
		score += 10
	case bbPos < 0.7:
		score += 5
	}

	return clampScore(score)
}

func reversalStrengthScore(f *model.IndicatorFrame, i int, mom10 float64) float64 {
	score := 0.0

	switch {
	case f.Momentum[i] > 0.02:
		score += 20
	case f.Momentum[i] > 0:
		score += 10
	}

	switch {
	case mom10 > 0.05:
		score += 15
	case mom10 > 0:
		score += 10
	}

	positive := 0
	for _, s := range []float64{f.RSISlope[i], f.MACDSlope[i], f.KSlope[i]} {
		if s > 0 {
			positive++
		}
	}
	switch positive {
	case 3:
		score += 20
	case 2:
		score += 15
	case 1:
		score += 10
	}

	switch {
	case f.VolumeRatio[i] > 1.5:
		score += 15
	case f.VolumeRatio[i] > 1.2:
		score += 10
	case f.VolumeRatio[i] > 1.0:
		score += 5
	}

	switch {
	case f.MABullStrength[i] > 80:
		score += 15
	case f.MABullStrength[i] > 60:
		score += 10
	}

	switch {
	case f.ChannelSlope[i] > 1:
		score += 10
	case f.ChannelSlope[i] > 0:
		score += 5
	}

	return clampScore(score)
}

func reversalReliabilityScore(f *model.IndicatorFrame, i int, close, bbPos float64) float64 {
	score := 0.0

	bullish := 0.0
	if f.RSI[i] > 30 && f.RSI[i] < 70 {
		bullish++
	}
	switch {
	case f.MACD[i] > 0 && f.MACDHist[i] > 0:
		bullish++
	case f.MACD[i] > 0:
		bullish += 0.5
	}
	if f.K[i] > f.D[i] && f.K[i] < 40 {
		bullish++
	}
	if close > f.SAR[i] {
		bullish++
	}
	if f.OBV[i] > f.OBVMA[i] {
		bullish++
	}
	switch {
	case bullish >= 4:
		score += 30
	case bullish >= 3:
		score += 20
	case bullish >= 2:
		score += 15
	}

	switch {
	case f.VolumeRatio[i] >= 0.8 && f.VolumeRatio[i] <= 2.0:
		score += 20
	case f.VolumeRatio[i] > 2.0:
		score += 10
	}

	switch {
	case bbPos >= 0.2 && bbPos <= 0.7:
		score += 20
	case bbPos < 0.2:
		score += 15
	case bbPos > 0.8:
		score += 5
	}

	switch {
	case f.ADX[i] >= 20 && f.ADX[i] <= 40:
		score += 15
	case f.ADX[i] > 40:
		score += 10
	default:
		score += 5
	}

	switch {
	case f.SupportReliability[i] > 60:
		score += 15
	case f.SupportReliability[i] > 40:
		score += 10
	}

	return clampScore(score)
}

func momentumTurnScore(f *model.IndicatorFrame, i int, lows []float64, mom3, mom7 float64) float64 {
	score := 0.0

	if mom3 > 0 && mom3 > mom7 {
		score += 30
	}
	if f.RSI[i-3] < 40 && f.RSI[i] > 45 {
		score += 25
	}
	if f.MACDHist[i-3] < 0 && f.MACDHist[i] > 0 {
		score += 25
	}
	if i >= 4 {
		// Higher low: most recent two bars bottom above the prior three.
		earlier := math.Min(lows[i-4], math.Min(lows[i-3], lows[i-2]))
		recent := math.Min(lows[i-1], lows[i])
		if recent > earlier {
			score += 20
		}
	}

	return clampScore(score)
}

func structureReversalScore(f *model.IndicatorFrame, i int, closes, highs, lows []float64) float64 {
	score := 0.0

	// Double-bottom scan over the last ten lows.
	window := lows[i-9 : i+1]
	var pivots []float64
	for j := 1; j < len(window)-1; j++ {
		if window[j] < window[j-1] && window[j] < window[j+1] {
			pivots = append(pivots, window[j])
		}
	}
	if len(pivots) >= 2 && pivots[len(pivots)-1] > pivots[len(pivots)-2] {
		score += 40
	}

	neckline := highs[i]
	for j := i - 4; j < i; j++ {
		if highs[j] > neckline {
			neckline = highs[j]
		}
	}
	if closes[i] > neckline*0.98 {
		score += 30
	}

	for _, s := range []float64{f.MA20[i], f.BBLower[i], f.SAR[i]} {
		if s != 0 && closes[i]/s > 0.98 && closes[i]/s < 1.02 {
			score += 15
			break
		}
	}

	return clampScore(score)
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(100, v))
}

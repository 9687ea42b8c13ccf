// Package strategy turns indicator state into entry and exit decisions.
// Both sides are data-driven: the entry scorer walks a table of weighted
// rules, and the exit evaluator reuses the fired rule labels to measure how
// much of the entry thesis has eroded.
package strategy

import (
	"math"

	"StockSentinel/internal/model"
)

// Rule labels. The exit evaluator keys its penalty dictionary on these, so
// they must stay stable across releases.
const (
	FactorRSIDeepOversold   = "rsi deeply oversold"
	FactorRSIRecovering     = "rsi recovering from oversold"
	FactorRSIOverbought     = "rsi overbought risk"
	FactorRSIElevated       = "rsi elevated"
	FactorMACDPositive      = "macd positive"
	FactorMACDHistPositive  = "macd histogram positive"
	FactorKDOversoldCross   = "kd oversold cross"
	FactorSARBullishRising  = "sar bullish and rising"
	FactorSARBullish        = "sar bullish"
	FactorOBVBreakoutRising = "obv breakout with rising slope"
	FactorOBVAboveAverage   = "obv above its average"
	FactorVolumeSurge       = "volume surge"
	FactorVolumeExpanding   = "volume expanding"
	FactorVolumeDrying      = "volume drying up"
	FactorAboveMA20         = "price above ma20"
	FactorAboveMA5          = "price above ma5"
	FactorNearLowerBand     = "near lower bollinger band"
	FactorNearUpperBand     = "near upper bollinger band"
	FactorUpperBandRisk     = "approaching upper bollinger band"
	FactorMomentumAligned   = "short and medium momentum positive"
	FactorMomentumNegative  = "short and medium momentum negative"
	FactorADXStrong         = "adx trend strong"
	FactorADXForming        = "adx trend forming"
	FactorADXTrendless      = "adx trendless"
	FactorMAPerfect         = "perfect ma alignment"
	FactorMABullish         = "bullish ma alignment"
	FactorMAWeak            = "weak ma alignment"
	FactorChannelStrong     = "channel strongly rising"
	FactorChannelRising     = "channel rising"
	FactorChannelFalling    = "channel falling"
	FactorVolumeAligned     = "volume trend well aligned"
	FactorVolumeAlignedOK   = "volume trend aligned"
	FactorVolumeMisaligned  = "volume trend misaligned"
	FactorAccelStrong       = "momentum accelerating strongly"
	FactorAccelPositive     = "momentum accelerating"
	FactorDecelerating      = "momentum decelerating"
	FactorAllSlopesRising   = "all indicator slopes rising"
	FactorCoreSlopesRising  = "core indicator slopes rising"
	FactorSlopesFalling     = "indicator slopes falling"
	FactorRelStrengthHigh   = "relative strength strong"
	FactorRelStrengthPos    = "relative strength positive"
	FactorRelStrengthNeg    = "relative strength negative"
	FactorContinuityVeryHi  = "uptrend continuity very strong"
	FactorContinuityHigh    = "uptrend continuity strong"
	FactorContinuityGood    = "uptrend continuity fair"
	FactorContinuityWeak    = "uptrend continuity weak"
	FactorLowVolatility     = "volatility low"
	FactorHighVolatility    = "volatility too high"
	FactorSupportSolid      = "support levels solid"
	FactorSupportGood       = "support levels good"
	FactorSupportThin       = "support levels thin"
	FactorReversalVeryHigh  = "trend reversal highly confirmed"
	FactorReversalConfirmed = "trend reversal confirmed"
	FactorReversalEarly     = "trend reversal forming"
	FactorReversalAbsent    = "no trend reversal evidence"
	FactorRevStrengthVeryHi = "reversal strength very high"
	FactorRevStrengthHigh   = "reversal strength high"
	FactorRevStrengthLow    = "reversal strength low"
	FactorRevReliableVeryHi = "reversal reliability very high"
	FactorRevReliableHigh   = "reversal reliability high"
	FactorRevReliableLow    = "reversal reliability low"
	FactorTurnStrong        = "momentum turn strong"
	FactorTurnPresent       = "momentum turn present"
	FactorTurnAbsent        = "momentum turn absent"
	FactorStructurePerfect  = "price structure fully reversed"
	FactorStructureReversed = "price structure reversed"
	FactorStructureIntact   = "price structure not reversed"
)

// entryState is the last-row indicator snapshot the rule table reads.
type entryState struct {
	close, prevClose   float64
	rsi                float64
	macd, hist         float64
	k, d               float64
	sar, prevSAR       float64
	obv, prevOBV       float64
	obvMA              float64
	volumeRatio        float64
	ma5, ma20          float64
	bbPos              float64
	mom5, mom10        float64
	adx                float64
	maStrength         float64
	channelSlope       float64
	volumeAlign        float64
	momAccel           float64
	rsiSlope           float64
	macdSlope          float64
	kSlope             float64
	relStrength        float64
	continuity         float64
	volatilityRatio    float64
	supportReliability float64
	reversalConfirm    float64
	reversalStrength   float64
	reversalReliable   float64
	momentumTurn       float64
	structureReversal  float64
}

type entryRule struct {
	label  string
	weight float64
	match  func(s *entryState) bool
}

// entryRules is the full scoring table. Tiers of the same metric carry both
// bounds so exactly one rule of a family can fire. NaN inputs fail every
// comparison, so undefined indicators simply contribute nothing.
var entryRules = []entryRule{
	{FactorRSIDeepOversold, 3, func(s *entryState) bool { return s.rsi < 30 }},
	{FactorRSIRecovering, 2, func(s *entryState) bool { return s.rsi >= 30 && s.rsi <= 50 }},
	{FactorRSIOverbought, -5, func(s *entryState) bool { return s.rsi > 70 }},
	{FactorRSIElevated, -2, func(s *entryState) bool { return s.rsi > 60 && s.rsi <= 70 }},

	{FactorMACDPositive, 1, func(s *entryState) bool { return s.macd > 0 }},
	{FactorMACDHistPositive, 1, func(s *entryState) bool { return s.hist > 0 }},

	{FactorKDOversoldCross, 1, func(s *entryState) bool { return s.k > s.d && s.k < 30 && s.d < 35 }},

	{FactorSARBullishRising, 1, func(s *entryState) bool { return s.close > s.sar && s.sar > s.prevSAR }},
	{FactorSARBullish, 0.5, func(s *entryState) bool { return s.close > s.sar && !(s.sar > s.prevSAR) }},

	{FactorOBVBreakoutRising, 1, func(s *entryState) bool { return s.obv > s.obvMA && s.obv > s.prevOBV }},
	{FactorOBVAboveAverage, 0.5, func(s *entryState) bool { return s.obv > s.obvMA && !(s.obv > s.prevOBV) }},

	{FactorVolumeSurge, 1, func(s *entryState) bool { return s.volumeRatio > 1.5 }},
	{FactorVolumeExpanding, 0.5, func(s *entryState) bool { return s.volumeRatio > 1.2 && s.volumeRatio <= 1.5 }},
	{FactorVolumeDrying, -1, func(s *entryState) bool { return s.volumeRatio < 0.8 }},

	{FactorAboveMA20, 1, func(s *entryState) bool { return s.close > s.ma20 }},
	{FactorAboveMA5, 1, func(s *entryState) bool { return s.close > s.ma5 }},

	{FactorNearLowerBand, 1, func(s *entryState) bool { return s.bbPos < 0.3 }},
	{FactorNearUpperBand, -3, func(s *entryState) bool { return s.bbPos > 0.8 }},
	{FactorUpperBandRisk, -1, func(s *entryState) bool { return s.bbPos > 0.7 && s.bbPos <= 0.8 }},

	{FactorMomentumAligned, 1, func(s *entryState) bool { return s.mom5 > 0 && s.mom10 > 0 }},
	{FactorMomentumNegative, -1, func(s *entryState) bool { return s.mom5 < 0 && s.mom10 < 0 }},

	{FactorADXStrong, 2, func(s *entryState) bool { return s.adx > 30 }},
	{FactorADXForming, 1, func(s *entryState) bool { return s.adx > 20 && s.adx <= 30 }},
	{FactorADXTrendless, -1, func(s *entryState) bool { return s.adx < 15 }},

	{FactorMAPerfect, 2, func(s *entryState) bool { return s.maStrength > 90 }},
	{FactorMABullish, 1, func(s *entryState) bool { return s.maStrength > 80 && s.maStrength <= 90 }},
	{FactorMAWeak, -1, func(s *entryState) bool { return s.maStrength < 50 }},

	{FactorChannelStrong, 1, func(s *entryState) bool { return s.channelSlope > 2 }},
	{FactorChannelRising, 0.5, func(s *entryState) bool { return s.channelSlope > 0 && s.channelSlope <= 2 }},
	{FactorChannelFalling, -1, func(s *entryState) bool { return s.channelSlope < -2 }},

	{FactorVolumeAligned, 1, func(s *entryState) bool { return s.volumeAlign > 80 }},
	{FactorVolumeAlignedOK, 0.5, func(s *entryState) bool { return s.volumeAlign > 60 && s.volumeAlign <= 80 }},
	{FactorVolumeMisaligned, -1, func(s *entryState) bool { return s.volumeAlign < 30 }},

	{FactorAccelStrong, 1, func(s *entryState) bool { return s.momAccel > 0.02 }},
	{FactorAccelPositive, 0.5, func(s *entryState) bool { return s.momAccel > 0 && s.momAccel <= 0.02 }},
	{FactorDecelerating, -1, func(s *entryState) bool { return s.momAccel < -0.02 }},

	{FactorAllSlopesRising, 1, func(s *entryState) bool { return s.rsiSlope > 0 && s.macdSlope > 0 && s.kSlope > 0 }},
	{FactorCoreSlopesRising, 0.5, func(s *entryState) bool { return s.rsiSlope > 0 && s.macdSlope > 0 && !(s.kSlope > 0) }},
	{FactorSlopesFalling, -1, func(s *entryState) bool { return s.rsiSlope < 0 && s.macdSlope < 0 }},

	{FactorRelStrengthHigh, 1, func(s *entryState) bool { return s.relStrength > 5 }},
	{FactorRelStrengthPos, 0.5, func(s *entryState) bool { return s.relStrength > 0 && s.relStrength <= 5 }},
	{FactorRelStrengthNeg, -1, func(s *entryState) bool { return s.relStrength < -5 }},

	{FactorContinuityVeryHi, 2, func(s *entryState) bool { return s.continuity > 80 }},
	{FactorContinuityHigh, 1, func(s *entryState) bool { return s.continuity > 60 && s.continuity <= 80 }},
	{FactorContinuityGood, 0.5, func(s *entryState) bool { return s.continuity > 40 && s.continuity <= 60 }},
	{FactorContinuityWeak, -1, func(s *entryState) bool { return s.continuity < 20 }},

	{FactorLowVolatility, 1, func(s *entryState) bool { return s.volatilityRatio < 0.02 }},
	{FactorHighVolatility, -1, func(s *entryState) bool { return s.volatilityRatio > 0.05 }},

	{FactorSupportSolid, 1, func(s *entryState) bool { return s.supportReliability > 75 }},
	{FactorSupportGood, 0.5, func(s *entryState) bool { return s.supportReliability > 50 && s.supportReliability <= 75 }},
	{FactorSupportThin, -1, func(s *entryState) bool { return s.supportReliability < 25 }},

	{FactorReversalVeryHigh, 3, func(s *entryState) bool { return s.reversalConfirm > 80 }},
	{FactorReversalConfirmed, 2, func(s *entryState) bool { return s.reversalConfirm > 60 && s.reversalConfirm <= 80 }},
	{FactorReversalEarly, 1, func(s *entryState) bool { return s.reversalConfirm > 40 && s.reversalConfirm <= 60 }},
	{FactorReversalAbsent, -1, func(s *entryState) bool { return s.reversalConfirm < 20 }},

	{FactorRevStrengthVeryHi, 2, func(s *entryState) bool { return s.reversalStrength > 80 }},
	{FactorRevStrengthHigh, 1, func(s *entryState) bool { return s.reversalStrength > 60 && s.reversalStrength <= 80 }},
	{FactorRevStrengthLow, -1, func(s *entryState) bool { return s.reversalStrength < 30 }},

	{FactorRevReliableVeryHi, 2, func(s *entryState) bool { return s.reversalReliable > 80 }},
	{FactorRevReliableHigh, 1, func(s *entryState) bool { return s.reversalReliable > 60 && s.reversalReliable <= 80 }},
	{FactorRevReliableLow, -1, func(s *entryState) bool { return s.reversalReliable < 40 }},

	{FactorTurnStrong, 2, func(s *entryState) bool { return s.momentumTurn > 80 }},
	{FactorTurnPresent, 1, func(s *entryState) bool { return s.momentumTurn > 60 && s.momentumTurn <= 80 }},
	{FactorTurnAbsent, -1, func(s *entryState) bool { return s.momentumTurn < 30 }},

	{FactorStructurePerfect, 2, func(s *entryState) bool { return s.structureReversal > 70 }},
	{FactorStructureReversed, 1, func(s *entryState) bool { return s.structureReversal > 50 && s.structureReversal <= 70 }},
	{FactorStructureIntact, -1, func(s *entryState) bool { return s.structureReversal < 20 }},
}

// stateAt extracts the rule inputs for row i of the frame.
func stateAt(f *model.IndicatorFrame, i int) *entryState {
	s := &entryState{
		close:              f.Close(i),
		prevClose:          math.NaN(),
		rsi:                f.RSI[i],
		macd:               f.MACD[i],
		hist:               f.MACDHist[i],
		k:                  f.K[i],
		d:                  f.D[i],
		sar:                f.SAR[i],
		prevSAR:            math.NaN(),
		obv:                f.OBV[i],
		prevOBV:            math.NaN(),
		obvMA:              f.OBVMA[i],
		volumeRatio:        f.VolumeRatio[i],
		ma5:                f.MA5[i],
		ma20:               f.MA20[i],
		bbPos:              f.BollingerPosition(i),
		mom5:               f.Momentum[i],
		mom10:              math.NaN(),
		adx:                f.ADX[i],
		maStrength:         f.MABullStrength[i],
		channelSlope:       f.ChannelSlope[i],
		volumeAlign:        f.VolumeTrendAlign[i],
		momAccel:           f.MomentumAccel[i],
		rsiSlope:           f.RSISlope[i],
		macdSlope:          f.MACDSlope[i],
		kSlope:             f.KSlope[i],
		relStrength:        f.RelativeStrength[i],
		continuity:         f.UptrendContinuity[i],
		volatilityRatio:    f.VolatilityRatio[i],
		supportReliability: f.SupportReliability[i],
		reversalConfirm:    f.TrendReversalConfirm[i],
		reversalStrength:   f.ReversalStrength[i],
		reversalReliable:   f.ReversalReliability[i],
		momentumTurn:       f.MomentumTurn[i],
		structureReversal:  f.StructureReversal[i],
	}
	if i >= 1 {
		s.prevClose = f.Close(i - 1)
		s.prevSAR = f.SAR[i-1]
		s.prevOBV = f.OBV[i-1]
	}
	if i >= 10 && f.Close(i-10) != 0 {
		s.mom10 = f.Close(i)/f.Close(i-10) - 1
	}
	return s
}

// AssessEntry scores the last row of the frame.
func AssessEntry(f *model.IndicatorFrame) model.EntryAssessment {
	return AssessEntryAt(f, f.Len()-1)
}

// AssessEntryAt scores row i: it walks the rule table, dampens the result
// near overbought extremes and gates the final advice on RSI and Bollinger
// position so a high raw score alone cannot produce a buy call.
func AssessEntryAt(f *model.IndicatorFrame, i int) model.EntryAssessment {
	s := stateAt(f, i)

	score := 0.0
	var factors []string
	for _, r := range entryRules {
		if r.match(s) {
			score += r.weight
			factors = append(factors, r.label)
		}
	}

	base := score + 15
	switch {
	case s.rsi > 70:
		base *= 0.6
	case s.rsi > 60:
		base *= 0.8
	}
	switch {
	case s.bbPos > 0.8:
		base *= 0.7
	case s.bbPos > 0.7:
		base *= 0.9
	}
	confidence := math.Max(0, math.Min(100, base*3))

	var advice model.Advice
	switch {
	case score >= 12 && s.rsi < 65 && s.bbPos < 0.7:
		advice = model.AdviceStrongBuy
	case score >= 8 && s.rsi < 70 && s.bbPos < 0.8:
		advice = model.AdviceBuy
	case score >= 4:
		advice = model.AdviceWatch
	default:
		advice = model.AdviceAvoid
	}

	return model.EntryAssessment{
		Score:      score,
		Confidence: confidence,
		Level:      confidenceLevel(confidence),
		Advice:     advice,
		Factors:    factors,
	}
}

func confidenceLevel(c float64) string {
	switch {
	case c >= 80:
		return "very high"
	case c >= 60:
		return "high"
	case c >= 40:
		return "moderate"
	case c >= 20:
		return "low"
	default:
		return "very low"
	}
}

// ruleWeight reports the table weight for a label, 0 when unknown.
func ruleWeight(label string) float64 {
	for _, r := range entryRules {
		if r.label == label {
			return r.weight
		}
	}
	return 0
}

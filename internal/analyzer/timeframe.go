package analyzer

import (
	"math"

	"StockSentinel/internal/indicator"
	"StockSentinel/internal/model"
)

// Timeframe weights: the monthly trend dominates, the daily trend only
// times the entry.
const (
	weightMonthly = 0.4
	weightWeekly  = 0.35
	weightDaily   = 0.25
)

// TimeframeTrend is one timeframe's contribution to the multi-timeframe view.
type TimeframeTrend struct {
	Timeframe string  `json:"timeframe"`
	Score     float64 `json:"score"`
	Direction int     `json:"direction"` // 1 bull, -1 bear, 0 neutral
}

// MultiTimeframe is the weighted cross-timeframe trend assessment.
type MultiTimeframe struct {
	Score       float64          `json:"score"`
	Rating      string           `json:"rating"`
	Consistency float64          `json:"consistency"`
	Trends      []TimeframeTrend `json:"trends"`
}

// AssessTimeframes resamples daily bars to weekly and monthly, scores the
// trend of each timeframe that has enough history, and blends them into one
// weighted score. Timeframes too short to compute indicators are skipped,
// so early in a symbol's history only the daily view contributes.
func AssessTimeframes(bars []model.Bar) MultiTimeframe {
	type tf struct {
		name   string
		weight float64
		bars   []model.Bar
	}
	frames := []tf{
		{"monthly", weightMonthly, indicator.ResampleMonthly(bars)},
		{"weekly", weightWeekly, indicator.ResampleWeekly(bars)},
		{"daily", weightDaily, bars},
	}

	var out MultiTimeframe
	weighted, totalWeight := 0.0, 0.0
	for _, t := range frames {
		f, err := indicator.Compute(t.bars)
		if err != nil {
			continue
		}
		score := timeframeTrendScore(f)
		out.Trends = append(out.Trends, TimeframeTrend{
			Timeframe: t.name,
			Score:     score,
			Direction: trendDirection(score),
		})
		weighted += score * t.weight
		totalWeight += t.weight
	}
	if totalWeight > 0 {
		out.Score = weighted / totalWeight
	}
	out.Consistency = trendConsistency(out.Trends)
	out.Rating = timeframeRating(out.Score, out.Consistency)
	return out
}

// timeframeTrendScore grades one timeframe's latest row on MA alignment,
// price momentum, RSI zone and MACD state. Range roughly -110..105.
func timeframeTrendScore(f *model.IndicatorFrame) float64 {
	i := f.Len() - 1
	gt := func(a, b float64) bool {
		return !model.IsMissing(a) && !model.IsMissing(b) && a > b
	}

	price := f.Close(i)
	ma5, ma20, ma30 := f.MA5[i], f.MA20[i], f.MA30[i]
	if model.IsMissing(ma30) {
		ma30 = ma20
	}

	score := 0.0
	switch {
	case gt(price, ma5) && gt(ma5, ma20) && gt(ma20, ma30):
		score += 40
	case gt(price, ma5) && gt(ma5, ma20):
		score += 30
	case gt(ma5, ma20):
		score += 20
	case gt(ma5, price) && gt(ma20, ma5) && gt(ma30, ma20):
		score -= 40
	case gt(ma5, price) && gt(ma20, ma5):
		score -= 30
	}

	if i >= 5 && f.Close(i-5) > 0 {
		m5 := (price - f.Close(i-5)) / f.Close(i-5) * 100
		switch {
		case m5 > 5:
			score += 20
		case m5 > 2:
			score += 10
		case m5 < -5:
			score -= 20
		}
	}
	if i >= 20 && f.Close(i-20) > 0 {
		m20 := (price - f.Close(i-20)) / f.Close(i-20) * 100
		switch {
		case m20 > 10:
			score += 20
		case m20 > 5:
			score += 10
		case m20 < -10:
			score -= 20
		}
	}

	if rsi := f.RSI[i]; !model.IsMissing(rsi) {
		switch {
		case rsi >= 40 && rsi <= 70:
			score += 10
		case rsi < 30:
			score += 5 // oversold, rebound possible
		case rsi > 80:
			score -= 15
		}
	}

	macd, sig, hist := f.MACD[i], f.MACDSignal[i], f.MACDHist[i]
	switch {
	case gt(macd, sig) && gt(hist, 0):
		score += 15
	case gt(macd, sig):
		score += 10
	case gt(sig, macd) && gt(0, hist):
		score -= 15
	}

	return score
}

func trendDirection(score float64) int {
	switch {
	case score >= 10:
		return 1
	case score < -10:
		return -1
	default:
		return 0
	}
}

// trendConsistency measures how well the timeframe directions agree:
// 1 when identical, otherwise damped by the spread of directions.
func trendConsistency(trends []TimeframeTrend) float64 {
	if len(trends) == 0 {
		return 0
	}
	dirs := make([]float64, len(trends))
	same := true
	for i, t := range trends {
		dirs[i] = float64(t.Direction)
		if t.Direction != trends[0].Direction {
			same = false
		}
	}
	if same {
		return 1.0
	}
	mean, absMean := 0.0, 0.0
	for _, d := range dirs {
		mean += d
		absMean += math.Abs(d)
	}
	mean /= float64(len(dirs))
	absMean /= float64(len(dirs))
	if absMean == 0 {
		return 0.5
	}
	variance := 0.0
	for _, d := range dirs {
		variance += (d - mean) * (d - mean)
	}
	std := math.Sqrt(variance / float64(len(dirs)))
	return math.Max(0, 1-std/(absMean+1))
}

func timeframeRating(score, consistency float64) string {
	switch {
	case score >= 50 && consistency >= 0.7:
		return "strong bullish alignment"
	case score >= 30 && consistency >= 0.6:
		return "bullish"
	case score >= 10 && consistency >= 0.5:
		return "weak bullish"
	case score >= -10 && consistency >= 0.4:
		return "unclear"
	case score >= -30:
		return "weak bearish"
	case score >= -50:
		return "bearish"
	default:
		return "strong bearish"
	}
}

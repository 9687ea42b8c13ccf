package indicator

import (
	"errors"
	"math"

	"StockSentinel/internal/model"
)

// MinBars is the minimum series length the engine accepts. Frames built from
// fewer than RecommendedBars rows may leave late composite columns undefined.
const (
	MinBars         = 30
	RecommendedBars = 60
)

// ErrInsufficientData is returned when a series is too short to analyze.
var ErrInsufficientData = errors.New("indicator: insufficient bars")

// Compute builds a full indicator frame from a chronological bar series.
// It is a pure function of its input; columns that cannot be computed for a
// row are left NaN.
func Compute(bars []model.Bar) (*model.IndicatorFrame, error) {
	if len(bars) < MinBars {
		return nil, ErrInsufficientData
	}

	closes := model.Closes(bars)
	highs := model.Highs(bars)
	lows := model.Lows(bars)
	volumes := model.Volumes(bars)

	f := &model.IndicatorFrame{Bars: bars}

	f.MA5 = rollingMean(closes, 5)
	f.MA10 = rollingMean(closes, 10)
	f.MA20 = rollingMean(closes, 20)
	f.MA30 = rollingMean(closes, 30)
	f.MA60 = rollingMean(closes, 60)

	f.RSI = wilderRSI(closes, 14)

	fast := ewmSpan(closes, 12)
	slow := ewmSpan(closes, 26)
	f.MACD = make([]float64, len(closes))
	for i := range closes {
		f.MACD[i] = fast[i] - slow[i]
	}
	f.MACDSignal = ewmSpan(f.MACD, 9)
	f.MACDHist = make([]float64, len(closes))
	for i := range closes {
		f.MACDHist[i] = f.MACD[i] - f.MACDSignal[i]
	}

	f.BBMiddle = rollingMean(closes, 20)
	bbStd := rollingStd(closes, 20)
	f.BBUpper = make([]float64, len(closes))
	f.BBLower = make([]float64, len(closes))
	for i := range closes {
		f.BBUpper[i] = f.BBMiddle[i] + 2*bbStd[i]
		f.BBLower[i] = f.BBMiddle[i] - 2*bbStd[i]
	}

	// Stochastic %K/%D: RSV over a 9-day high/low range, double exponential
	// smoothing with com=2.
	low9 := rollingMin(lows, 9)
	high9 := rollingMax(highs, 9)
	rsv := nanSlice(len(closes))
	for i := range closes {
		if math.IsNaN(low9[i]) || math.IsNaN(high9[i]) || high9[i] == low9[i] {
			continue
		}
		rsv[i] = (closes[i] - low9[i]) / (high9[i] - low9[i]) * 100
	}
	f.K = ewmCom(rsv, 2)
	f.D = ewmCom(f.K, 2)

	f.SAR = parabolicSAR(highs, lows, 0.02, 0.02, 0.2)

	f.OBV = onBalanceVolume(closes, volumes)
	f.OBVMA = rollingMean(f.OBV, 10)

	f.ADX = adx(highs, lows, closes, 14)

	f.VolumeMA = rollingMean(volumes, 20)
	f.VolumeRatio = nanSlice(len(volumes))
	for i := range volumes {
		if !math.IsNaN(f.VolumeMA[i]) && f.VolumeMA[i] != 0 {
			f.VolumeRatio[i] = volumes[i] / f.VolumeMA[i]
		}
	}

	f.Momentum = pctChange(closes, 5)
	f.Volatility = rollingStd(closes, 20)
	f.VolatilityRatio = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(f.Volatility[i]) && !math.IsNaN(f.BBMiddle[i]) && f.BBMiddle[i] != 0 {
			f.VolatilityRatio[i] = f.Volatility[i] / f.BBMiddle[i]
		}
	}

	f.RSISlope = diffN(f.RSI, 3)
	f.MACDSlope = diffN(f.MACD, 3)
	f.KSlope = diffN(f.K, 3)

	f.DynamicStopLoss = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(f.Volatility[i]) {
			// close minus twice a volatility-proxy ATR
			f.DynamicStopLoss[i] = closes[i] - 4*f.Volatility[i]
		}
	}

	computeContextColumns(f)
	computeReversalColumns(f)

	return f, nil
}

// wilderRSI computes RSI with Wilder's smoothed average gain/loss.
// The first `period` rows are undefined.
func wilderRSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// onBalanceVolume accumulates signed volume, starting from zero.
func onBalanceVolume(closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			out[i] = out[i-1] + volumes[i]
		case closes[i] < closes[i-1]:
			out[i] = out[i-1] - volumes[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

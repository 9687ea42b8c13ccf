package signal

import (
	"StockSentinel/internal/model"
)

// EstimateSupport derives a dip-buy price from the last period rows of the
// frame: the highest of several support candidates that still sits below the
// current close. When every candidate is at or above the close, it falls
// back to 90% of the period low. Confidence grows with the number of
// candidates clustered within 3% of the chosen price.
func EstimateSupport(f *model.IndicatorFrame, period int) model.SupportEstimate {
	n := f.Len()
	if n == 0 {
		return model.SupportEstimate{}
	}
	if period <= 0 || period > n {
		period = n
	}
	start := n - period
	last := n - 1
	current := f.Close(last)

	minLow := f.Bars[start].Low
	maxVolLow := f.Bars[start].Low
	maxVol := f.Bars[start].Volume
	for i := start; i < n; i++ {
		if f.Bars[i].Low < minLow {
			minLow = f.Bars[i].Low
		}
		if f.Bars[i].Volume > maxVol {
			maxVol = f.Bars[i].Volume
			maxVolLow = f.Bars[i].Low
		}
	}

	signalPrice := minLow
	if p, ok := minSignalClose(f, start); ok {
		signalPrice = p
	}

	oversoldLow := minLow
	found := false
	for i := start; i < n; i++ {
		if !model.IsMissing(f.RSI[i]) && f.RSI[i] < 30 {
			if !found || f.Bars[i].Low < oversoldLow {
				oversoldLow = f.Bars[i].Low
				found = true
			}
		}
	}

	candidates := []float64{minLow, f.BBLower[last], f.MA30[last], signalPrice, maxVolLow, oversoldLow}

	price := 0.0
	ok := false
	for _, c := range candidates {
		if model.IsMissing(c) || c >= current {
			continue
		}
		if !ok || c > price {
			price = c
			ok = true
		}
	}
	if !ok {
		price = minLow * 0.9
	}

	near := 0
	for _, c := range candidates {
		if model.IsMissing(c) || price == 0 {
			continue
		}
		if abs(price-c)/price < 0.03 {
			near++
		}
	}
	confidence := 40 + float64(near)*15
	if confidence > 100 {
		confidence = 100
	}
	return model.SupportEstimate{Price: price, Confidence: confidence}
}

// minSignalClose returns the lowest close among rows in [start, len) where a
// bullish crossover fired: a golden cross, an RSI climb out of oversold, or
// a MACD histogram flip.
func minSignalClose(f *model.IndicatorFrame, start int) (float64, bool) {
	best := 0.0
	found := false
	record := func(c float64) {
		if !found || c < best {
			best = c
			found = true
		}
	}
	for i := max(start, 1); i < f.Len(); i++ {
		if !model.IsMissing(f.MA5[i]) && !model.IsMissing(f.MA20[i]) &&
			!model.IsMissing(f.MA5[i-1]) && !model.IsMissing(f.MA20[i-1]) &&
			f.MA5[i] > f.MA20[i] && f.MA5[i-1] <= f.MA20[i-1] {
			record(f.Close(i))
		}
		if !model.IsMissing(f.RSI[i]) && !model.IsMissing(f.RSI[i-1]) &&
			f.RSI[i] > 30 && f.RSI[i-1] <= 30 {
			record(f.Close(i))
		}
		if !model.IsMissing(f.MACDHist[i]) && !model.IsMissing(f.MACDHist[i-1]) &&
			f.MACDHist[i] > 0 && f.MACDHist[i-1] <= 0 {
			record(f.Close(i))
		}
	}
	return best, found
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

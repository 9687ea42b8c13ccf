package indicator

import "math"

// adx computes the average directional index from rolling means of the
// directional movements and the true range. Divergences where the DI sum is
// zero leave the row undefined.
func adx(highs, lows, closes []float64, period int) []float64 {
	n := len(highs)
	plusDM := nanSlice(n)
	minusDM := nanSlice(n)
	tr := nanSlice(n)

	for i := 1; i < n; i++ {
		highDiff := highs[i] - highs[i-1]
		lowDiff := lows[i] - lows[i-1]

		plusDM[i] = 0
		if highDiff > lowDiff && highDiff > 0 {
			plusDM[i] = highDiff
		}
		minusDM[i] = 0
		if lowDiff > highDiff && lowDiff > 0 {
			minusDM[i] = lowDiff
		}

		tr[i] = math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
	}

	atr := rollingMean(tr, period)
	plusSmooth := rollingMean(plusDM, period)
	minusSmooth := rollingMean(minusDM, period)

	dx := nanSlice(n)
	for i := 0; i < n; i++ {
		if math.IsNaN(atr[i]) || atr[i] == 0 || math.IsNaN(plusSmooth[i]) || math.IsNaN(minusSmooth[i]) {
			continue
		}
		plusDI := 100 * plusSmooth[i] / atr[i]
		minusDI := 100 * minusSmooth[i] / atr[i]
		if plusDI+minusDI == 0 {
			continue
		}
		dx[i] = 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
	}

	return rollingMean(dx, period)
}

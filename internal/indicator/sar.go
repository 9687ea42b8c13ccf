package indicator

// parabolicSAR runs a simplified SAR recursion seeded at the first bar's low
// with an uptrend assumption. A close crossing the SAR flips the trend,
// resetting the extreme point and acceleration factor.
func parabolicSAR(highs, lows []float64, start, step, cap_ float64) []float64 {
	n := len(highs)
	out := make([]float64, n)
	if n == 0 {
		return out
	}

	sar := lows[0]
	ep := highs[0]
	af := start
	uptrend := true
	out[0] = sar

	for i := 1; i < n; i++ {
		sar += af * (ep - sar)

		if uptrend {
			if lows[i] < sar {
				uptrend = false
				sar = ep
				ep = lows[i]
				af = start
			} else if highs[i] > ep {
				ep = highs[i]
				af = min(af+step, cap_)
			}
		} else {
			if highs[i] > sar {
				uptrend = true
				sar = ep
				ep = highs[i]
				af = start
			} else if lows[i] < ep {
				ep = lows[i]
				af = min(af+step, cap_)
			}
		}
		out[i] = sar
	}
	return out
}

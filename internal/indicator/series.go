package indicator

import "math"

// Series helpers used by the engine. All of them propagate NaN for rows with
// insufficient history instead of defaulting to zero.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// rollingMean computes a simple moving average over a fixed window.
func rollingMean(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if ok {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// rollingStd computes the sample standard deviation over a fixed window.
func rollingStd(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	if window < 2 {
		return out
	}
	for i := window - 1; i < len(xs); i++ {
		sum := 0.0
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			sum += xs[j]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		ss := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := xs[j] - mean
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// rollingMin computes the minimum over a fixed window.
func rollingMin(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	for i := window - 1; i < len(xs); i++ {
		m := math.Inf(1)
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			if xs[j] < m {
				m = xs[j]
			}
		}
		if ok {
			out[i] = m
		}
	}
	return out
}

// rollingMax computes the maximum over a fixed window.
func rollingMax(xs []float64, window int) []float64 {
	out := nanSlice(len(xs))
	for i := window - 1; i < len(xs); i++ {
		m := math.Inf(-1)
		ok := true
		for j := i - window + 1; j <= i; j++ {
			if math.IsNaN(xs[j]) {
				ok = false
				break
			}
			if xs[j] > m {
				m = xs[j]
			}
		}
		if ok {
			out[i] = m
		}
	}
	return out
}

// diffN computes xs[i] - xs[i-n].
func diffN(xs []float64, n int) []float64 {
	out := nanSlice(len(xs))
	for i := n; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-n]
	}
	return out
}

// pctChange computes the n-period rate of change.
func pctChange(xs []float64, n int) []float64 {
	out := nanSlice(len(xs))
	for i := n; i < len(xs); i++ {
		if xs[i-n] == 0 || math.IsNaN(xs[i-n]) || math.IsNaN(xs[i]) {
			continue
		}
		out[i] = xs[i]/xs[i-n] - 1
	}
	return out
}

// ewmSpan computes an exponential moving average with alpha = 2/(span+1),
// seeded at the first value (pandas ewm(span=n, adjust=False)).
func ewmSpan(xs []float64, span int) []float64 {
	out := nanSlice(len(xs))
	alpha := 2.0 / (float64(span) + 1.0)
	started := false
	prev := 0.0
	for i, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if !started {
			prev = x
			started = true
		} else {
			prev = (1-alpha)*prev + alpha*x
		}
		out[i] = prev
	}
	return out
}

// ewmCom computes an adjusted exponential mean with alpha = 1/(1+com)
// (pandas ewm(com=c).mean() with the default adjust=True weighting).
func ewmCom(xs []float64, com float64) []float64 {
	out := nanSlice(len(xs))
	alpha := 1.0 / (1.0 + com)
	decay := 1.0 - alpha
	num, den := 0.0, 0.0
	started := false
	for i, x := range xs {
		if math.IsNaN(x) {
			if started {
				num *= decay
				den *= decay
			}
			continue
		}
		num = x + decay*num
		den = 1 + decay*den
		started = true
		out[i] = num / den
	}
	return out
}

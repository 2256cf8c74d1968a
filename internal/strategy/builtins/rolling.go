package builtins

import "math"

// rollingMean computes a trailing-window mean over xs with an expanding
// warmup: position i averages the last min(i+1, window) values, so every
// position has a defined value from the first sample on.
func rollingMean(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		sum += x
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= xs[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}

// rollingStd computes a trailing-window sample standard deviation with the
// same expanding warmup as rollingMean. Positions with fewer than two
// samples are NaN, since the sample deviation is undefined there.
func rollingStd(xs []float64, window int) []float64 {
	out := make([]float64, len(xs))
	for i := range xs {
		lo := i + 1 - window
		if lo < 0 {
			lo = 0
		}
		n := i + 1 - lo
		if n < 2 {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for _, x := range xs[lo : i+1] {
			sum += x
		}
		m := sum / float64(n)
		var ss float64
		for _, x := range xs[lo : i+1] {
			d := x - m
			ss += d * d
		}
		out[i] = math.Sqrt(ss / float64(n-1))
	}
	return out
}

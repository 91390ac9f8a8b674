package factors

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// GaussianWindow returns n symmetric Gaussian weights with the given
// standard deviation, centered on (n-1)/2.
func GaussianWindow(n int, std float64) []float64 {
	w := make([]float64, n)
	center := float64(n-1) / 2
	for k := range w {
		z := (float64(k) - center) / std
		w[k] = math.Exp(-0.5 * z * z)
	}
	return w
}

// RollingGaussian computes a trailing weighted moving average. The value at
// i combines values[i-window+1..i], the most recent observation taking the
// last weight. Near the start the available observations use the trailing
// part of the window. NaN inputs are ignored; rows with fewer than
// minPeriods observations are NaN.
func RollingGaussian(values []float64, window int, std float64, minPeriods int) []float64 {
	weights := GaussianWindow(window, std)
	out := make([]float64, len(values))

	for i := range values {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		xs := values[lo : i+1]
		ws := weights[window-len(xs):]

		if !floats.HasNaN(xs) {
			if len(xs) < minPeriods {
				out[i] = math.NaN()
				continue
			}
			out[i] = floats.Dot(ws, xs) / floats.Sum(ws)
			continue
		}

		var sum, total float64
		var count int
		for k, x := range xs {
			if math.IsNaN(x) {
				continue
			}
			sum += ws[k] * x
			total += ws[k]
			count++
		}
		if count < minPeriods || count == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / total
	}
	return out
}

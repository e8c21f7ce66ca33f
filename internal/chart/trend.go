package chart

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// degenerateThreshold bounds the normal-equation denominator below which a
// regression line is undefined (all x effectively equal).
const degenerateThreshold = 1e-10

// Trend is a fitted least-squares line.
type Trend struct {
	Slope     float64
	Intercept float64
	R2        float64
}

// LinearRegression fits an ordinary least-squares line through the points.
// It reports ok=false when fewer than 2 points are given, the slices differ
// in length, or the fit is degenerate.
func LinearRegression(xs, ys []float64) (Trend, bool) {
	if len(xs) < 2 || len(xs) != len(ys) {
		return Trend{}, false
	}

	n := float64(len(xs))
	var sumX, sumXX float64
	for _, x := range xs {
		sumX += x
		sumXX += x * x
	}
	if math.Abs(n*sumXX-sumX*sumX) < degenerateThreshold {
		return Trend{}, false
	}

	intercept, slope := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, intercept, slope)

	// total variance near zero makes R² meaningless; a flat series is a
	// perfect fit
	if math.IsNaN(r2) || math.IsInf(r2, 0) {
		r2 = 1
	}
	r2 = math.Max(0, math.Min(1, r2))

	return Trend{Slope: slope, Intercept: intercept, R2: r2}, true
}

// ZeroCrossings returns the x positions where the series crosses zero.
// Exact zero samples are recorded as-is; sign changes between consecutive
// samples are linearly interpolated. Duplicate x values are coalesced.
func ZeroCrossings(xs, ys []float64) []float64 {
	if len(xs) != len(ys) {
		return nil
	}

	var crossings []float64
	add := func(x float64) {
		if len(crossings) > 0 && crossings[len(crossings)-1] == x {
			return
		}
		crossings = append(crossings, x)
	}

	for i := 0; i < len(ys); i++ {
		if ys[i] == 0 {
			add(xs[i])
			continue
		}
		if i+1 < len(ys) && ys[i]*ys[i+1] < 0 {
			t := ys[i] / (ys[i] - ys[i+1])
			add(xs[i] + t*(xs[i+1]-xs[i]))
		}
	}

	return crossings
}

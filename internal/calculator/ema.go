package calculator

import (
	"errors"
	"math"
)

// EMASeries computes the exponential moving average with smoothing factor 2/(span+1).
// The average is seeded with the first defined value; leading NaN inputs stay NaN.
func EMASeries(values []float64, span int) ([]float64, error) {
	if span <= 0 {
		return nil, errors.New("span must be positive")
	}
	return ewm(values, 2.0/float64(span+1)), nil
}

// SMMASeries computes the modified moving average with center of mass com,
// i.e. smoothing factor 1/(1+com). KDJ uses com=2.
func SMMASeries(values []float64, com float64) ([]float64, error) {
	if com < 0 {
		return nil, errors.New("center of mass must be non-negative")
	}
	return ewm(values, 1.0/(1.0+com)), nil
}

// ewm is a recursive (non-adjusted) exponentially weighted mean.
// An undefined input after the seed carries the previous mean forward.
func ewm(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	mean := math.NaN()
	for i, v := range values {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(mean):
			mean = v
		default:
			mean = (1-alpha)*mean + alpha*v
		}
		out[i] = mean
	}
	return out
}

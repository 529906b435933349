package calculator

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"
)

// RollingMin returns the minimum over the trailing window at every index (NaN before the window fills).
func RollingMin(values []float64, period int) ([]float64, error) {
	return rolling(values, period, func(w stats.Float64Data) (float64, error) { return w.Min() })
}

// RollingMax returns the maximum over the trailing window at every index.
func RollingMax(values []float64, period int) ([]float64, error) {
	return rolling(values, period, func(w stats.Float64Data) (float64, error) { return w.Max() })
}

// RollingStd returns the sample standard deviation (n-1) over the trailing window.
func RollingStd(values []float64, period int) ([]float64, error) {
	if period < 2 {
		return nil, errors.New("period must be at least 2 for standard deviation")
	}
	return rolling(values, period, stats.StandardDeviationSample)
}

func rolling(values []float64, period int, fn func(stats.Float64Data) (float64, error)) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	out := make([]float64, len(values))
	for i := range values {
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		v, err := fn(stats.Float64Data(values[i-period+1 : i+1]))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

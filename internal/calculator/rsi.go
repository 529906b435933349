package calculator

import (
	"errors"
	"math"
)

// RSISeries computes the RSI at every index using simple rolling means of
// gains and losses over period day-over-day deltas. The first delta counts
// as zero. A window with neither gains nor losses is NaN; a window with gains
// and no losses is 100.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, errors.New("period must be positive")
	}
	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else if change < 0 {
			losses[i] = -change
		}
	}
	avgGain, _ := SMASeries(gains, period)
	avgLoss, _ := SMASeries(losses, period)

	out := make([]float64, len(closes))
	for i := range closes {
		g, l := avgGain[i], avgLoss[i]
		switch {
		case math.IsNaN(g) || math.IsNaN(l):
			out[i] = math.NaN()
		case l == 0 && g == 0:
			out[i] = math.NaN()
		case l == 0:
			out[i] = 100
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out, nil
}

// CalculateRSI returns the RSI of the last close. Requires at least period+1 closes.
func CalculateRSI(closes []float64, period int) (float64, error) {
	if len(closes) < period+1 {
		return 0, errors.New("not enough data for RSI calculation")
	}
	series, err := RSISeries(closes, period)
	if err != nil {
		return 0, err
	}
	return series[len(series)-1], nil
}

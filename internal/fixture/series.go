// Package fixture builds deterministic daily series with known indicator
// events. The mock data source serves them and the tests assert against them.
package fixture

import (
	"time"

	"SignalSentinel/internal/model"
)

// Start is the date of the first bar of every fixture series.
var Start = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

// MACDCrossIndex is the only bar in [30, 54] of MACDCross where MACD golden-crosses.
const MACDCrossIndex = 40

// TradingDays returns n consecutive weekdays beginning at from.
func TradingDays(from time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	d := from
	for len(days) < n {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days = append(days, d)
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}

// FromCloses wraps closes into bars with a ±1% high/low range and constant volume.
func FromCloses(closes []float64) []model.OHLCV {
	days := TradingDays(Start, len(closes))
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{
			Time:   days[i],
			Open:   c,
			High:   c * 1.01,
			Low:    c * 0.99,
			Close:  c,
			Volume: 1e6,
			Amount: c * 1e6,
		}
	}
	return bars
}

// Zigzag walks a price down by `down` per bar up to and including bar turn,
// then up by `up` per bar, alternating ±swing around the walk.
func Zigzag(n int, base, down, up float64, turn int, swing float64) []float64 {
	closes := make([]float64, n)
	p := base
	for i := 0; i < n; i++ {
		if i > 0 {
			if i <= turn {
				p -= down
			} else {
				p += up
			}
		}
		if i%2 == 0 {
			closes[i] = p + swing
		} else {
			closes[i] = p - swing
		}
	}
	return closes
}

// MACDCross is a 60-bar series with a single MACD golden cross at bar 40
// within bars 30..54 and no other bullish reading at that bar. An MA5/MA20
// golden cross follows at bar 43; upper-band pullbacks and RSI overbought
// readings appear from bar 45 on.
func MACDCross() []model.OHLCV {
	return FromCloses(Zigzag(60, 20, 0.05, 0.15, 38, 0.15))
}

// Trend is a 40-bar zigzag trend moving by step per bar (negative for a decline).
func Trend(base, step float64) []float64 {
	closes := make([]float64, 40)
	p := base
	for i := range closes {
		if i > 0 {
			p += step
		}
		if i%2 == 0 {
			closes[i] = p + 0.05
		} else {
			closes[i] = p - 0.05
		}
	}
	return closes
}

// OversoldBounce is a steady decline ending with an up bar: KDJ golden-crosses
// in the oversold zone and RSI reads oversold.
func OversoldBounce() []model.OHLCV {
	closes := Trend(30, -0.3)
	closes[len(closes)-1] = closes[len(closes)-2] + 0.4
	return FromCloses(closes)
}

// OverboughtDrop is a steady rise with a final spike and a dip: KDJ
// death-crosses in the overbought zone and RSI reads overbought.
func OverboughtDrop() []model.OHLCV {
	closes := Trend(10, 0.3)
	n := len(closes)
	closes[n-2] = closes[n-3] + 1.5
	closes[n-1] = closes[n-2] - 0.5
	return FromCloses(closes)
}

// LowerBandRebound is a flat series that drops below the lower Bollinger band
// and recovers on doubled volume.
func LowerBandRebound() []model.OHLCV {
	closes := make([]float64, 40)
	for i := 0; i < 38; i++ {
		if i%2 == 0 {
			closes[i] = 10.1
		} else {
			closes[i] = 9.9
		}
	}
	closes[38], closes[39] = 9.0, 9.3
	bars := FromCloses(closes)
	bars[39].Volume = 2e6
	return bars
}

// Package indicator turns a daily OHLCV series into per-indicator signals.
// Every reading describes the last bar of the series and depends only on the
// trailing window, so the same call works on any prefix during a backtest.
package indicator

import (
	"fmt"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// Engine computes indicator snapshots with a fixed parameter set.
type Engine struct {
	Params Params
}

// NewEngine creates an Engine. Zero fields of p are filled from DefaultParams.
func NewEngine(p Params) *Engine {
	return &Engine{Params: p.WithDefaults()}
}

// Compute evaluates all indicators at the last bar of bars.
func (e *Engine) Compute(bars []model.OHLCV) (*model.Snapshot, error) {
	return Compute(bars, e.Params)
}

// Compute evaluates all indicators at the last bar of bars using p.
// It returns model.ErrInsufficientData when the series is shorter than p.MinBars.
func Compute(bars []model.OHLCV, p Params) (*model.Snapshot, error) {
	if len(bars) < p.MinBars || len(bars) < 2 {
		return nil, fmt.Errorf("%w: have %d bars, need %d", model.ErrInsufficientData, len(bars), p.MinBars)
	}

	closes := model.Closes(bars)
	n := len(bars)
	snap := &model.Snapshot{
		Date:         bars[n-1].Time,
		CurrentPrice: closes[n-1],
	}
	if prev := closes[n-2]; prev != 0 {
		snap.ChangePct = (closes[n-1] - prev) / prev * 100
	}

	var err error
	if snap.MACD, err = macd(closes, p); err != nil {
		return nil, fmt.Errorf("macd: %w", err)
	}
	if snap.KDJ, err = kdj(bars, closes, p); err != nil {
		return nil, fmt.Errorf("kdj: %w", err)
	}
	if snap.RSI, err = rsi(closes, p); err != nil {
		return nil, fmt.Errorf("rsi: %w", err)
	}
	if snap.MA, err = movingAverages(closes, p); err != nil {
		return nil, fmt.Errorf("ma: %w", err)
	}
	if snap.Volume, err = volume(bars, p); err != nil {
		return nil, fmt.Errorf("volume: %w", err)
	}
	if snap.Boll, err = bollinger(closes, p); err != nil {
		return nil, fmt.Errorf("boll: %w", err)
	}
	return snap, nil
}

func last(s []float64) float64 { return s[len(s)-1] }

func crossSignal(c calculator.Cross) model.Signal {
	switch c {
	case calculator.CrossUp:
		return model.SignalGoldenCross
	case calculator.CrossDown:
		return model.SignalDeathCross
	case calculator.CrossUndefined:
		return model.SignalUndefined
	}
	return model.SignalNeutral
}

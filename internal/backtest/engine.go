// Package backtest replays the indicator engine walk-forward over history and
// scores fixed-horizon trades entered on buy votes.
package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"SignalSentinel/internal/indicator"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

const (
	// extraBars is fetched on top of the requested history to warm up indicators.
	extraBars = 50
	// minHistoryBars is the least history a run accepts.
	minHistoryBars = 50
	// firstEntryBar is the first bar an entry may be taken on.
	firstEntryBar = 30
)

// Source provides daily bars for a symbol.
type Source interface {
	Series(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
}

// Engine runs backtests. It holds no mutable state, so concurrent runs are safe.
type Engine struct {
	source  Source
	params  indicator.Params
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewEngine(src Source, p indicator.Params, logger *zap.Logger, m *metrics.Metrics) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		source:  src,
		params:  p.WithDefaults(),
		logger:  logger.With(zap.String("component", "backtest")),
		metrics: m,
	}
}

// Run validates req, fetches history and simulates it.
func (e *Engine) Run(ctx context.Context, req Request) (*model.BacktestSummary, error) {
	start := time.Now()
	summary, err := e.run(ctx, req.WithDefaults())
	outcome := "ok"
	if err != nil {
		outcome = "error"
		e.logger.Error("backtest failed", zap.String("symbol", req.Symbol), zap.Error(err))
	} else {
		e.logger.Info("backtest finished",
			zap.String("symbol", req.Symbol),
			zap.Int("trades", summary.TotalSignals),
			zap.Float64("win_rate", summary.WinRate),
			zap.Duration("took", time.Since(start)))
	}
	e.metrics.ObserveBacktest(outcome, time.Since(start))
	return summary, err
}

func (e *Engine) run(ctx context.Context, req Request) (*model.BacktestSummary, error) {
	keys, err := req.Validate()
	if err != nil {
		return nil, err
	}
	bars, err := e.source.Series(ctx, req.Symbol, req.HistoryDays+extraBars)
	if err != nil {
		return nil, err
	}
	if len(bars) < minHistoryBars {
		return nil, fmt.Errorf("%w: got %d bars for %s, need %d", model.ErrInsufficientHistory, len(bars), req.Symbol, minHistoryBars)
	}

	minBuy := req.minBuy(keys)
	trades := Simulate(bars, keys, req.HoldDays, minBuy, e.params)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := Summarize(trades)
	s.Symbol = req.Symbol
	s.Indicators = make([]string, len(keys))
	for i, k := range keys {
		s.Indicators[i] = string(k)
	}
	s.HoldDays = req.HoldDays
	s.HistoryDays = req.HistoryDays
	s.MinBuySignals = minBuy
	return s, nil
}

// Simulate walks bars from firstEntryBar, computing each snapshot from the
// prefix ending at that bar only. A bar with at least minBuy buy votes opens a
// trade closed hold bars later. Trades may overlap.
func Simulate(bars []model.OHLCV, keys []strategy.Key, hold, minBuy int, p indicator.Params) []model.Trade {
	trades := []model.Trade{}
	for i := firstEntryBar; i < len(bars)-hold; i++ {
		snap, err := indicator.Compute(bars[:i+1], p)
		if err != nil {
			continue
		}
		votes := strategy.CountBuy(snap, keys)
		if votes < minBuy {
			continue
		}
		entry, exit := bars[i], bars[i+hold]
		trades = append(trades, model.Trade{
			EntryDate:   entry.Time,
			ExitDate:    exit.Time,
			EntryPrice:  round2(entry.Close),
			ExitPrice:   round2(exit.Close),
			ReturnPct:   round2((exit.Close - entry.Close) / entry.Close * 100),
			SignalCount: votes,
		})
	}
	return trades
}

// Summarize computes win/loss statistics over the rounded trade returns.
// A trade wins when its return is strictly positive.
func Summarize(trades []model.Trade) *model.BacktestSummary {
	s := &model.BacktestSummary{Trades: trades}
	if s.Trades == nil {
		s.Trades = []model.Trade{}
	}
	if len(trades) == 0 {
		return s
	}

	returns := make(stats.Float64Data, len(trades))
	for i, t := range trades {
		returns[i] = t.ReturnPct
		if t.ReturnPct > 0 {
			s.WinCount++
		}
	}
	s.TotalSignals = len(trades)
	s.LossCount = s.TotalSignals - s.WinCount
	s.WinRate = round2(float64(s.WinCount) / float64(s.TotalSignals) * 100)

	// Errors are only returned for empty input.
	mean, _ := returns.Mean()
	best, _ := returns.Max()
	worst, _ := returns.Min()
	s.AvgReturn = round2(mean)
	s.MaxReturn = round2(best)
	s.MinReturn = round2(worst)
	return s
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Package monitor runs the evaluation cycle for the watched symbol: fetch the
// series, compute indicators, aggregate votes, persist, and alert subscribers
// when the call changes.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"SignalSentinel/internal/indicator"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/strategy"
)

// DefaultAlertLimit is the number of alerts RecentAlerts returns for limit <= 0.
const DefaultAlertLimit = 20

// persistTimeout bounds persistence and alert delivery for a computed result.
// Both ignore cancellation of the caller's context: a claimed call is always
// recorded and dispatched.
const persistTimeout = 30 * time.Second

// Source provides daily bars for a symbol.
type Source interface {
	Series(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
}

// State is a copy of the monitor's mutable state.
type State struct {
	Symbol      string      `json:"stock_code"`
	Name        string      `json:"stock_name"`
	LastCall    *model.Call `json:"last_signal"`
	Subscribers int         `json:"subscribers"`
}

// Config holds the monitor settings.
type Config struct {
	Symbol    string
	Name      string
	Threshold int
	FetchDays int
	Params    indicator.Params
}

// Monitor owns the watched symbol and the last emitted call. Only one
// evaluation runs at a time.
type Monitor struct {
	source     Source
	recorder   recorder.Recorder
	engine     *indicator.Engine
	dispatcher *Dispatcher
	observers  []EvaluationObserver
	threshold  int
	fetchDays  int
	logger     *zap.Logger
	metrics    *metrics.Metrics
	now        func() time.Time

	cycleMu sync.Mutex

	mu         sync.RWMutex
	symbol     string
	name       string
	lastCall   *model.Call
	generation uint64
}

// New creates a Monitor. A nil recorder disables persistence.
func New(cfg Config, src Source, rec recorder.Recorder, d *Dispatcher, logger *zap.Logger, m *metrics.Metrics) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if d == nil {
		d = NewDispatcher(logger, m)
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = strategy.LiveThreshold
	}
	if cfg.FetchDays <= 0 {
		cfg.FetchDays = 100
	}
	return &Monitor{
		source:     src,
		recorder:   rec,
		engine:     indicator.NewEngine(cfg.Params),
		dispatcher: d,
		threshold:  cfg.Threshold,
		fetchDays:  cfg.FetchDays,
		logger:     logger.With(zap.String("component", "monitor")),
		metrics:    m,
		now:        time.Now,
		symbol:     cfg.Symbol,
		name:       cfg.Name,
	}
}

// Dispatcher returns the subscriber registry.
func (m *Monitor) Dispatcher() *Dispatcher { return m.dispatcher }

// AddObserver registers o for every completed evaluation. Call before Start.
func (m *Monitor) AddObserver(o EvaluationObserver) {
	m.observers = append(m.observers, o)
}

// State returns a copy of the current state.
func (m *Monitor) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := State{Symbol: m.symbol, Name: m.name, Subscribers: m.dispatcher.Len()}
	if m.lastCall != nil {
		c := *m.lastCall
		s.LastCall = &c
	}
	return s
}

// SwitchSymbol changes the watched symbol and forgets the last call.
func (m *Monitor) SwitchSymbol(code, name string) {
	m.mu.Lock()
	m.symbol, m.name = code, name
	m.lastCall = nil
	m.generation++
	m.mu.Unlock()
	m.logger.Info("switched symbol", zap.String("symbol", code), zap.String("name", name))
}

// EvaluateNow runs one cycle, waiting for an in-flight cycle to finish first.
func (m *Monitor) EvaluateNow(ctx context.Context) (*model.AggregateResult, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	return m.cycle(ctx)
}

// Tick runs one cycle unless another is in flight, in which case it is skipped.
func (m *Monitor) Tick(ctx context.Context) {
	if !m.cycleMu.TryLock() {
		m.logger.Warn("cycle still running, skipping tick")
		return
	}
	defer m.cycleMu.Unlock()
	if _, err := m.cycle(ctx); err != nil {
		m.logger.Error("cycle failed", zap.Error(err))
	}
}

func (m *Monitor) cycle(ctx context.Context) (*model.AggregateResult, error) {
	start := time.Now()
	m.mu.RLock()
	symbol, name, gen := m.symbol, m.name, m.generation
	m.mu.RUnlock()

	bars, err := m.source.Series(ctx, symbol, m.fetchDays)
	if err != nil {
		m.metrics.ObserveCycle("data_unavailable", time.Since(start))
		if !errors.Is(err, model.ErrDataUnavailable) {
			err = fmt.Errorf("%w: %v", model.ErrDataUnavailable, err)
		}
		return nil, err
	}
	snap, err := m.engine.Compute(bars)
	if err != nil {
		m.metrics.ObserveCycle("insufficient_data", time.Since(start))
		return nil, err
	}

	tally := strategy.Aggregate(snap, strategy.AllKeys(), m.threshold)
	res := &model.AggregateResult{
		Symbol:      symbol,
		Name:        name,
		Timestamp:   m.now(),
		Price:       snap.CurrentPrice,
		ChangePct:   snap.ChangePct,
		Indicators:  snap,
		BuySignals:  tally.Buy,
		SellSignals: tally.Sell,
		FinalCall:   tally.Call,
		SignalCount: tally.Triggering,
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := m.recorder.RecordEvaluation(pctx, res); err != nil {
		m.logger.Warn("persist evaluation failed", zap.String("symbol", symbol), zap.Error(err))
	}
	for _, o := range m.observers {
		m.observe(pctx, o, res)
	}
	if res.FinalCall.Directional() && m.claimAlert(gen, res.FinalCall) {
		m.alert(pctx, res)
	}

	m.metrics.ObserveCycle("ok", time.Since(start))
	m.logger.Debug("cycle complete",
		zap.String("symbol", symbol),
		zap.String("call", string(res.FinalCall)),
		zap.Int("buy", res.BuySignals),
		zap.Int("sell", res.SellSignals))
	return res, nil
}

// claimAlert records call as the last call and reports whether it differs
// from the previous one. A cycle started before a symbol switch never claims.
func (m *Monitor) claimAlert(gen uint64, call model.Call) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation {
		return false
	}
	if m.lastCall != nil && *m.lastCall == call {
		return false
	}
	m.lastCall = &call
	return true
}

func (m *Monitor) alert(ctx context.Context, res *model.AggregateResult) {
	m.metrics.Alert(string(res.FinalCall))
	m.logger.Info("signal alert",
		zap.String("symbol", res.Symbol),
		zap.String("call", string(res.FinalCall)),
		zap.Int("signals", res.SignalCount),
		zap.Float64("price", res.Price))

	if err := m.recorder.RecordAlert(ctx, recorder.NewAlert(res)); err != nil {
		m.logger.Warn("persist alert failed", zap.String("symbol", res.Symbol), zap.Error(err))
	}
	m.dispatcher.Dispatch(ctx, res)
}

func (m *Monitor) observe(ctx context.Context, o EvaluationObserver, res *model.AggregateResult) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("observer panicked", zap.Any("panic", r))
		}
	}()
	o.Observe(ctx, res)
}

// RecentAlerts returns the latest alerts of the watched symbol.
func (m *Monitor) RecentAlerts(ctx context.Context, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = DefaultAlertLimit
	}
	m.mu.RLock()
	symbol := m.symbol
	m.mu.RUnlock()
	return m.recorder.RecentAlerts(ctx, symbol, limit)
}

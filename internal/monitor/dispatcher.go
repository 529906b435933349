package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/model"
)

// DefaultSubscriberTimeout bounds a single Notify call.
const DefaultSubscriberTimeout = 15 * time.Second

// Subscriber receives directional results. Subscribers are notified
// concurrently and each call is cut off after the dispatcher's timeout.
type Subscriber interface {
	Name() string
	Notify(ctx context.Context, res *model.AggregateResult) error
}

// EvaluationObserver sees every completed evaluation regardless of call.
type EvaluationObserver interface {
	Observe(ctx context.Context, res *model.AggregateResult)
}

// Dispatcher fans a result out to registered subscribers. A failing or
// panicking subscriber is logged and does not affect the others.
type Dispatcher struct {
	mu      sync.RWMutex
	subs    []Subscriber
	logger  *zap.Logger
	metrics *metrics.Metrics

	// Timeout is the per-subscriber deadline; zero means DefaultSubscriberTimeout.
	Timeout time.Duration
}

func NewDispatcher(logger *zap.Logger, m *metrics.Metrics) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		logger:  logger.With(zap.String("component", "dispatcher")),
		metrics: m,
		Timeout: DefaultSubscriberTimeout,
	}
}

// Register adds s. Registering a second subscriber with the same name replaces the first.
func (d *Dispatcher) Register(s Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, existing := range d.subs {
		if existing.Name() == s.Name() {
			d.subs[i] = s
			return
		}
	}
	d.subs = append(d.subs, s)
}

// Unregister removes the subscriber called name.
func (d *Dispatcher) Unregister(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, s := range d.subs {
		if s.Name() == name {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}

// Dispatch notifies every subscriber in parallel, each under its own
// deadline, and returns how many succeeded once all calls have returned.
func (d *Dispatcher) Dispatch(ctx context.Context, res *model.AggregateResult) int {
	d.mu.RLock()
	subs := make([]Subscriber, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultSubscriberTimeout
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, s := range subs {
		wg.Add(1)
		go func(s Subscriber) {
			defer wg.Done()
			sctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			start := time.Now()
			if err := d.notify(sctx, s, res); err != nil {
				d.metrics.SubscriberFailed(s.Name())
				d.logger.Warn("subscriber failed",
					zap.String("subscriber", s.Name()),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err))
				return
			}
			mu.Lock()
			ok++
			mu.Unlock()
		}(s)
	}
	wg.Wait()
	return ok
}

func (d *Dispatcher) notify(ctx context.Context, s Subscriber, res *model.AggregateResult) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return s.Notify(ctx, res)
}

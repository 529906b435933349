package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"SignalSentinel/internal/cache"
	"SignalSentinel/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error
	Now       func() time.Time
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	return generateMockBars(m.Price, startDate(now(), days), now()), nil
}

// FetchQuote derives a quote from the last two mock bars.
func (m *MockFetcher) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	bars, err := m.FetchDailyBars(ctx, symbol, 30)
	if err != nil {
		return nil, err
	}
	return QuoteFromBars(symbol, bars)
}

// generateMockBars produces a weekday series oscillating around basePrice so
// that crossovers occur regularly.
func generateMockBars(basePrice float64, from, to time.Time) []model.OHLCV {
	if basePrice <= 0 {
		basePrice = 20
	}
	var bars []model.OHLCV
	i := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + 0.08*math.Sin(float64(i)/6) + 0.01*math.Sin(float64(i)*1.7))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.998,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1e6 * (1 + 0.6*math.Sin(float64(i)/2.3)),
			Amount: p * 1e6,
		})
		i++
	}
	return bars
}

// QuoteFromBars builds a quote out of the latest daily bar.
func QuoteFromBars(symbol string, bars []model.OHLCV) (*model.Quote, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", model.ErrDataUnavailable, symbol)
	}
	last := bars[len(bars)-1]
	q := &model.Quote{
		Code:      symbol,
		Price:     last.Close,
		Volume:    last.Volume,
		Amount:    last.Amount,
		High:      last.High,
		Low:       last.Low,
		Open:      last.Open,
		Timestamp: last.Time,
	}
	if len(bars) > 1 {
		q.PreClose = bars[len(bars)-2].Close
		if q.PreClose != 0 {
			q.ChangePct = (q.Price - q.PreClose) / q.PreClose * 100
		}
	}
	return q, nil
}

// Collector fetches daily series through a Fetcher, caching each
// (symbol, days) result for a TTL and bounding every fetch with a timeout.
type Collector struct {
	fetcher Fetcher
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	logger  *zap.Logger
}

// NewCollector creates a new Collector. A nil cache disables caching.
func NewCollector(fetcher Fetcher, c cache.Cache, ttl, timeout time.Duration, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		fetcher: fetcher,
		cache:   c,
		ttl:     ttl,
		timeout: timeout,
		logger:  logger.With(zap.String("component", "collector"), zap.String("provider", fetcher.Name())),
	}
}

// Provider names the underlying data source.
func (c *Collector) Provider() string { return c.fetcher.Name() }

func cacheKey(symbol string, days int) string {
	return fmt.Sprintf("%s_%d", symbol, days)
}

// Series returns the daily bars of symbol covering the last days calendar
// days, ascending by date. Failures and empty results are reported as
// model.ErrDataUnavailable.
func (c *Collector) Series(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	key := cacheKey(symbol, days)
	if c.cache != nil {
		raw, ok, err := c.cache.Get(ctx, key)
		switch {
		case err != nil:
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		case ok:
			var bars []model.OHLCV
			if err := json.Unmarshal(raw, &bars); err == nil {
				return bars, nil
			}
			c.logger.Warn("discarding corrupt cache entry", zap.String("key", key))
		}
	}

	fctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	bars, err := c.fetcher.FetchDailyBars(fctx, symbol, days)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrDataUnavailable, symbol, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no bars for %s", model.ErrDataUnavailable, symbol)
	}
	sorted := make([]model.OHLCV, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	if c.cache != nil {
		if raw, err := json.Marshal(sorted); err == nil {
			if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
				c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return sorted, nil
}

// Quote returns the live quote when the fetcher supports it, otherwise one
// derived from the latest daily bars.
func (c *Collector) Quote(ctx context.Context, symbol string) (*model.Quote, error) {
	fctx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	if q, ok := c.fetcher.(Quoter); ok {
		quote, err := q.FetchQuote(fctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("%w: quote %s: %v", model.ErrDataUnavailable, symbol, err)
		}
		return quote, nil
	}
	bars, err := c.Series(ctx, symbol, 30)
	if err != nil {
		return nil, err
	}
	return QuoteFromBars(symbol, bars)
}

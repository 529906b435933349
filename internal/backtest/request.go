package backtest

import (
	"fmt"

	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

const (
	DefaultHoldDays    = 5
	DefaultHistoryDays = 365

	minHoldDays, maxHoldDays       = 1, 30
	minHistoryDays, maxHistoryDays = 30, 1095
)

// Request selects the indicators and horizon of one backtest.
type Request struct {
	Symbol      string   `json:"stock_code"`
	Indicators  []string `json:"indicators"`
	HoldDays    int      `json:"hold_days"`
	HistoryDays int      `json:"days_history"`
	// MinBuySignals defaults to the number of selected indicators.
	MinBuySignals *int `json:"min_buy_signals,omitempty"`
}

// WithDefaults fills a zero HoldDays or HistoryDays.
func (r Request) WithDefaults() Request {
	if r.HoldDays == 0 {
		r.HoldDays = DefaultHoldDays
	}
	if r.HistoryDays == 0 {
		r.HistoryDays = DefaultHistoryDays
	}
	return r
}

// Validate checks ranges and indicator keys and returns the parsed keys.
func (r Request) Validate() ([]strategy.Key, error) {
	if r.Symbol == "" {
		return nil, fmt.Errorf("%w: stock_code is required", model.ErrInvalidParameter)
	}
	if r.HoldDays < minHoldDays || r.HoldDays > maxHoldDays {
		return nil, fmt.Errorf("%w: hold_days %d not in [%d, %d]", model.ErrInvalidParameter, r.HoldDays, minHoldDays, maxHoldDays)
	}
	if r.HistoryDays < minHistoryDays || r.HistoryDays > maxHistoryDays {
		return nil, fmt.Errorf("%w: days_history %d not in [%d, %d]", model.ErrInvalidParameter, r.HistoryDays, minHistoryDays, maxHistoryDays)
	}
	keys, err := strategy.ParseKeys(r.Indicators)
	if err != nil {
		return nil, err
	}
	if r.MinBuySignals != nil && *r.MinBuySignals < 1 {
		return nil, fmt.Errorf("%w: min_buy_signals must be at least 1", model.ErrInvalidParameter)
	}
	return keys, nil
}

// minBuy resolves the buy-vote threshold against the parsed keys.
func (r Request) minBuy(keys []strategy.Key) int {
	if r.MinBuySignals != nil {
		return *r.MinBuySignals
	}
	return len(keys)
}

// ExampleRequest is the sample returned by the example endpoint.
type ExampleRequest struct {
	Description string  `json:"description"`
	Request     Request `json:"request"`
}

// Example tests MACD+KDJ+RSI together over the last year.
func Example() ExampleRequest {
	minBuy := 3
	return ExampleRequest{
		Description: "回测示例：测试MACD+KDJ+RSI组合在过去1年中的表现",
		Request: Request{
			Symbol:        "600489",
			Indicators:    []string{"macd", "kdj", "rsi"},
			HoldDays:      DefaultHoldDays,
			HistoryDays:   DefaultHistoryDays,
			MinBuySignals: &minBuy,
		},
	}
}

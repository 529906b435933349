package recorder

import (
	"context"
	"errors"
	"fmt"

	"SignalSentinel/internal/model"
)

var (
	ErrStockExists   = errors.New("stock already exists")
	ErrStockNotFound = errors.New("stock not found")
)

// Recorder persists evaluation history, alerts and the watch list.
type Recorder interface {
	RecordEvaluation(ctx context.Context, res *model.AggregateResult) error
	RecordAlert(ctx context.Context, alert *model.Alert) error
	// RecentAlerts returns up to limit alerts for symbol, newest first.
	RecentAlerts(ctx context.Context, symbol string, limit int) ([]model.Alert, error)

	AddStock(ctx context.Context, code, name string) (*model.Stock, error)
	ListStocks(ctx context.Context) ([]model.Stock, error)
	DeleteStock(ctx context.Context, code string) error

	Close() error
}

// AlertDetails is the human-readable vote summary stored with an alert.
func AlertDetails(buy, sell int) string {
	return fmt.Sprintf("%d个买入信号, %d个卖出信号", buy, sell)
}

// NewAlert builds the alert record for a directional result.
func NewAlert(res *model.AggregateResult) *model.Alert {
	return &model.Alert{
		Symbol:      res.Symbol,
		Call:        res.FinalCall,
		SignalCount: res.SignalCount,
		Price:       res.Price,
		Details:     AlertDetails(res.BuySignals, res.SellSignals),
		Timestamp:   res.Timestamp,
	}
}

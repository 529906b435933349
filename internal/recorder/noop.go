package recorder

import (
	"context"

	"SignalSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordEvaluation(context.Context, *model.AggregateResult) error { return nil }
func (n *NoopRecorder) RecordAlert(context.Context, *model.Alert) error               { return nil }
func (n *NoopRecorder) RecentAlerts(context.Context, string, int) ([]model.Alert, error) {
	return []model.Alert{}, nil
}
func (n *NoopRecorder) AddStock(_ context.Context, code, name string) (*model.Stock, error) {
	return &model.Stock{Code: code, Name: name}, nil
}
func (n *NoopRecorder) ListStocks(context.Context) ([]model.Stock, error) { return []model.Stock{}, nil }
func (n *NoopRecorder) DeleteStock(context.Context, string) error         { return ErrStockNotFound }
func (n *NoopRecorder) Close() error                                      { return nil }

package model

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// Trade is one simulated entry and its exit after the holding period.
type Trade struct {
	EntryDate   time.Time
	ExitDate    time.Time
	EntryPrice  float64
	ExitPrice   float64
	ReturnPct   float64
	SignalCount int
}

type tradeJSON struct {
	EntryDate   string  `json:"buy_date"`
	ExitDate    string  `json:"sell_date"`
	EntryPrice  float64 `json:"buy_price"`
	ExitPrice   float64 `json:"sell_price"`
	ReturnPct   float64 `json:"return_pct"`
	SignalCount int     `json:"signals"`
}

func (t Trade) MarshalJSON() ([]byte, error) {
	return json.Marshal(tradeJSON{
		EntryDate:   t.EntryDate.Format(dateLayout),
		ExitDate:    t.ExitDate.Format(dateLayout),
		EntryPrice:  t.EntryPrice,
		ExitPrice:   t.ExitPrice,
		ReturnPct:   t.ReturnPct,
		SignalCount: t.SignalCount,
	})
}

func (t *Trade) UnmarshalJSON(b []byte) error {
	var raw tradeJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	entry, err := time.Parse(dateLayout, raw.EntryDate)
	if err != nil {
		return err
	}
	exit, err := time.Parse(dateLayout, raw.ExitDate)
	if err != nil {
		return err
	}
	*t = Trade{
		EntryDate:   entry,
		ExitDate:    exit,
		EntryPrice:  raw.EntryPrice,
		ExitPrice:   raw.ExitPrice,
		ReturnPct:   raw.ReturnPct,
		SignalCount: raw.SignalCount,
	}
	return nil
}

// BacktestSummary aggregates the trades of one backtest run.
type BacktestSummary struct {
	Symbol        string   `json:"stock_code"`
	Indicators    []string `json:"indicators"`
	HoldDays      int      `json:"hold_days"`
	HistoryDays   int      `json:"days_history"`
	MinBuySignals int      `json:"min_buy_signals"`
	TotalSignals  int      `json:"total_signals"`
	WinCount      int      `json:"win_count"`
	LossCount     int      `json:"loss_count"`
	WinRate       float64  `json:"win_rate"`
	AvgReturn     float64  `json:"avg_return"`
	MaxReturn     float64  `json:"max_return"`
	MinReturn     float64  `json:"min_return"`
	Trades        []Trade  `json:"trades"`
}

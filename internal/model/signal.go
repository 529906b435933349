package model

import (
	"encoding/json"
	"math"
	"time"
)

// Signal is the directional reading of a single indicator.
type Signal string

const (
	SignalGoldenCross   Signal = "金叉"
	SignalDeathCross    Signal = "死叉"
	SignalNeutral       Signal = "中性"
	SignalOversold      Signal = "超卖"
	SignalOverbought    Signal = "超买"
	SignalSurge         Signal = "放量"
	SignalShrink        Signal = "缩量"
	SignalLowerRebound  Signal = "下轨反弹"
	SignalUpperPullback Signal = "上轨回落"
	SignalLowerBand     Signal = "下轨"
	SignalUpperBand     Signal = "上轨"
	SignalMiddleBand    Signal = "中轨"
	// SignalUndefined is reported when the window needed by the indicator has no value yet.
	SignalUndefined Signal = "无数据"
)

// Bullish reports whether s counts towards a BUY call.
func (s Signal) Bullish() bool {
	switch s {
	case SignalGoldenCross, SignalOversold, SignalSurge, SignalLowerRebound:
		return true
	}
	return false
}

// Bearish reports whether s counts towards a SELL call.
func (s Signal) Bearish() bool {
	switch s {
	case SignalDeathCross, SignalOverbought, SignalShrink, SignalUpperPullback:
		return true
	}
	return false
}

// Value is an indicator reading that may be undefined for a short window.
type Value struct {
	V  float64
	OK bool
}

// Defined wraps v, treating NaN and infinities as undefined.
func Defined(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}
	}
	return Value{V: v, OK: true}
}

// Undefined is the zero Value.
var Undefined = Value{}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.OK {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Defined(f)
	return nil
}

// MACDReading holds DIF/DEA and the MACD histogram (2×(DIF−DEA)).
type MACDReading struct {
	DIF    Value  `json:"dif"`
	DEA    Value  `json:"dea"`
	Hist   Value  `json:"macd"`
	Signal Signal `json:"signal"`
}

type KDJReading struct {
	K      Value  `json:"k"`
	D      Value  `json:"d"`
	J      Value  `json:"j"`
	Signal Signal `json:"signal"`
}

type RSIReading struct {
	Value  Value  `json:"value"`
	Signal Signal `json:"signal"`
}

// MAReading holds the short, middle and long simple moving averages.
type MAReading struct {
	MA5    Value  `json:"ma5"`
	MA10   Value  `json:"ma10"`
	MA20   Value  `json:"ma20"`
	Signal Signal `json:"signal"`
}

type VolumeReading struct {
	Current float64 `json:"current"`
	MA5     Value   `json:"ma5"`
	Signal  Signal  `json:"signal"`
}

type BollReading struct {
	Upper  Value  `json:"upper"`
	Middle Value  `json:"middle"`
	Lower  Value  `json:"lower"`
	Signal Signal `json:"signal"`
}

// Snapshot is the full indicator state evaluated at the last bar of a series.
type Snapshot struct {
	Date         time.Time     `json:"date"`
	MACD         MACDReading   `json:"macd"`
	KDJ          KDJReading    `json:"kdj"`
	RSI          RSIReading    `json:"rsi"`
	MA           MAReading     `json:"ma"`
	Volume       VolumeReading `json:"volume"`
	Boll         BollReading   `json:"boll"`
	CurrentPrice float64       `json:"current_price"`
	ChangePct    float64       `json:"change_pct"`
}

// Call is the aggregated trade recommendation.
type Call string

const (
	CallBuy  Call = "BUY"
	CallSell Call = "SELL"
	CallHold Call = "HOLD"
)

// Directional reports whether c is BUY or SELL.
func (c Call) Directional() bool {
	return c == CallBuy || c == CallSell
}

// AggregateResult is the output of one evaluation cycle. It is never mutated after creation.
type AggregateResult struct {
	Symbol      string    `json:"stock_code"`
	Name        string    `json:"stock_name"`
	Timestamp   time.Time `json:"timestamp"`
	Price       float64   `json:"price"`
	ChangePct   float64   `json:"change_pct"`
	Indicators  *Snapshot `json:"indicators"`
	BuySignals  int       `json:"buy_signals"`
	SellSignals int       `json:"sell_signals"`
	FinalCall   Call      `json:"final_signal"`
	SignalCount int       `json:"signal_count"`
}

// Alert is a persisted record of a directional call that was broadcast.
type Alert struct {
	ID          int64     `json:"id"`
	Symbol      string    `json:"stock_code"`
	Call        Call      `json:"signal_type"`
	SignalCount int       `json:"signal_count"`
	Price       float64   `json:"price"`
	Details     string    `json:"details"`
	Timestamp   time.Time `json:"timestamp"`
}

// Stock is an entry of the watch list.
type Stock struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

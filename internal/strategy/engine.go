// Package strategy counts indicator votes and turns them into a BUY/SELL/HOLD call.
package strategy

import "SignalSentinel/internal/model"

// LiveThreshold is the number of agreeing indicators the monitor needs for a call.
const LiveThreshold = 4

// Tally is the outcome of one aggregation.
type Tally struct {
	Buy  int
	Sell int
	Call model.Call
	// Triggering is Buy for a BUY call, Sell for a SELL call and 0 for HOLD.
	Triggering int
}

// Aggregate counts bullish and bearish readings among keys. BUY wins when
// buy votes reach threshold, SELL is only checked afterwards.
func Aggregate(snap *model.Snapshot, keys []Key, threshold int) Tally {
	var t Tally
	for _, k := range keys {
		s := signalOf(snap, k)
		switch {
		case s.Bullish():
			t.Buy++
		case s.Bearish():
			t.Sell++
		}
	}
	switch {
	case t.Buy >= threshold:
		t.Call, t.Triggering = model.CallBuy, t.Buy
	case t.Sell >= threshold:
		t.Call, t.Triggering = model.CallSell, t.Sell
	default:
		t.Call = model.CallHold
	}
	return t
}

// CountBuy counts bullish readings among keys.
func CountBuy(snap *model.Snapshot, keys []Key) int {
	n := 0
	for _, k := range keys {
		if signalOf(snap, k).Bullish() {
			n++
		}
	}
	return n
}

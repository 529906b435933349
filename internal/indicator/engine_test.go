package indicator

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"SignalSentinel/internal/fixture"
	"SignalSentinel/internal/model"
)

func TestCompute_InsufficientData(t *testing.T) {
	bars := fixture.MACDCross()
	for _, n := range []int{0, 1, 2, 15, 29} {
		snap, err := Compute(bars[:n], DefaultParams())
		if !errors.Is(err, model.ErrInsufficientData) {
			t.Errorf("%d bars: expected ErrInsufficientData, got %v", n, err)
		}
		if snap != nil {
			t.Errorf("%d bars: expected nil snapshot", n)
		}
	}
	if _, err := Compute(bars[:30], DefaultParams()); err != nil {
		t.Errorf("30 bars: unexpected error %v", err)
	}
}

func TestCompute_MACDGoldenCrossAtBar40(t *testing.T) {
	bars := fixture.MACDCross()
	eng := NewEngine(Params{})
	for i := 30; i <= 54; i++ {
		snap, err := eng.Compute(bars[:i+1])
		if err != nil {
			t.Fatalf("bar %d: %v", i, err)
		}
		golden := snap.MACD.Signal == model.SignalGoldenCross
		if golden != (i == fixture.MACDCrossIndex) {
			t.Errorf("bar %d: macd signal %s", i, snap.MACD.Signal)
		}
	}

	snap, _ := eng.Compute(bars[:fixture.MACDCrossIndex+1])
	if snap.KDJ.Signal.Bullish() || snap.RSI.Signal.Bullish() || snap.MA.Signal.Bullish() ||
		snap.Volume.Signal.Bullish() || snap.Boll.Signal.Bullish() {
		t.Errorf("expected only MACD to be bullish, got %+v", snap)
	}
	if !snap.Date.Equal(bars[fixture.MACDCrossIndex].Time) {
		t.Errorf("snapshot date %v, expected %v", snap.Date, bars[fixture.MACDCrossIndex].Time)
	}
	if snap.MACD.DIF.V <= snap.MACD.DEA.V {
		t.Errorf("expected DIF above DEA after golden cross")
	}
	if math.Abs(snap.MACD.Hist.V-2*(snap.MACD.DIF.V-snap.MACD.DEA.V)) > 1e-12 {
		t.Errorf("macd histogram should be 2×(DIF−DEA)")
	}
}

func TestCompute_CrossoverNeverRefires(t *testing.T) {
	bars := fixture.MACDCross()
	snap, _ := Compute(bars[:fixture.MACDCrossIndex+2], DefaultParams())
	if snap.MACD.Signal == model.SignalGoldenCross {
		t.Error("golden cross must not fire again while DIF stays above DEA")
	}
}

func TestCompute_MAGoldenCross(t *testing.T) {
	snap, _ := Compute(fixture.MACDCross()[:44], DefaultParams())
	if snap.MA.Signal != model.SignalGoldenCross {
		t.Errorf("expected MA golden cross at bar 43, got %s", snap.MA.Signal)
	}
	if !snap.MA.MA5.OK || !snap.MA.MA10.OK || !snap.MA.MA20.OK {
		t.Error("expected all moving averages to be defined")
	}
}

func TestCompute_KDJZoneGating(t *testing.T) {
	bars := fixture.MACDCross()
	// K and D cross back and forth on the zigzag here, with K between 20 and 80.
	for i := 30; i <= 38; i++ {
		snap, _ := Compute(bars[:i+1], DefaultParams())
		if snap.KDJ.Signal != model.SignalNeutral {
			t.Errorf("bar %d: expected neutral KDJ out of zone (K=%.2f), got %s", i, snap.KDJ.K.V, snap.KDJ.Signal)
		}
	}

	snap, _ := Compute(fixture.OversoldBounce(), DefaultParams())
	if snap.KDJ.Signal != model.SignalGoldenCross {
		t.Errorf("expected KDJ golden cross in oversold zone, got %s (K=%.2f)", snap.KDJ.Signal, snap.KDJ.K.V)
	}
	if snap.KDJ.K.V >= 20 {
		t.Errorf("golden cross fired with K=%.2f", snap.KDJ.K.V)
	}

	snap, _ = Compute(fixture.OverboughtDrop(), DefaultParams())
	if snap.KDJ.Signal != model.SignalDeathCross {
		t.Errorf("expected KDJ death cross in overbought zone, got %s (K=%.2f)", snap.KDJ.Signal, snap.KDJ.K.V)
	}
	if snap.KDJ.K.V <= 80 {
		t.Errorf("death cross fired with K=%.2f", snap.KDJ.K.V)
	}
	if math.Abs(snap.KDJ.J.V-(3*snap.KDJ.K.V-2*snap.KDJ.D.V)) > 1e-9 {
		t.Error("J must equal 3K-2D")
	}
}

func TestCompute_RSIZones(t *testing.T) {
	tests := []struct {
		name string
		bars []model.OHLCV
		want model.Signal
	}{
		{"decline", fixture.OversoldBounce(), model.SignalOversold},
		{"rise", fixture.OverboughtDrop(), model.SignalOverbought},
		{"zigzag", fixture.MACDCross()[:41], model.SignalNeutral},
	}
	for _, tt := range tests {
		snap, err := Compute(tt.bars, DefaultParams())
		if err != nil {
			t.Fatal(err)
		}
		if snap.RSI.Signal != tt.want {
			t.Errorf("%s: expected %s, got %s (RSI=%.2f)", tt.name, tt.want, snap.RSI.Signal, snap.RSI.Value.V)
		}
	}
}

func TestCompute_FlatSeriesIsUndefinedNotSignal(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10
	}
	bars := fixture.FromCloses(closes)
	snap, err := Compute(bars, DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if snap.RSI.Signal != model.SignalUndefined || snap.RSI.Value.OK {
		t.Errorf("flat closes should leave RSI undefined, got %s", snap.RSI.Signal)
	}
	if snap.MACD.Signal != model.SignalNeutral {
		t.Errorf("flat closes should give neutral MACD, got %s", snap.MACD.Signal)
	}
	if snap.ChangePct != 0 {
		t.Errorf("expected zero change, got %f", snap.ChangePct)
	}

	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if !strings.Contains(string(b), `"rsi":{"value":null`) {
		t.Errorf("undefined RSI should serialise as null: %s", b)
	}
}

func TestCompute_BollingerReboundAndVolumeSurge(t *testing.T) {
	snap, err := Compute(fixture.LowerBandRebound(), DefaultParams())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Boll.Signal != model.SignalLowerRebound {
		t.Errorf("expected lower band rebound, got %s", snap.Boll.Signal)
	}
	if snap.Volume.Signal != model.SignalSurge {
		t.Errorf("expected volume surge, got %s", snap.Volume.Signal)
	}
	if !(snap.Boll.Lower.V < snap.Boll.Middle.V && snap.Boll.Middle.V < snap.Boll.Upper.V) {
		t.Errorf("bands out of order: %+v", snap.Boll)
	}
}

func TestCompute_VolumeShrink(t *testing.T) {
	bars := fixture.MACDCross()[:41]
	bars[40].Volume = 1e5
	snap, _ := Compute(bars, DefaultParams())
	if snap.Volume.Signal != model.SignalShrink {
		t.Errorf("expected shrink, got %s", snap.Volume.Signal)
	}
}

func TestCompute_ChangePct(t *testing.T) {
	bars := fixture.MACDCross()[:41]
	snap, _ := Compute(bars, DefaultParams())
	prev, cur := bars[39].Close, bars[40].Close
	if math.Abs(snap.ChangePct-(cur-prev)/prev*100) > 1e-9 {
		t.Errorf("unexpected change pct %f", snap.ChangePct)
	}
	if snap.CurrentPrice != cur {
		t.Errorf("expected current price %f, got %f", cur, snap.CurrentPrice)
	}
}

func TestParams_Validate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	bad := DefaultParams()
	bad.MACDFast = 30
	if err := bad.Validate(); err == nil {
		t.Error("expected error when fast >= slow")
	}
	bad = DefaultParams()
	bad.VolumeShrink = 2
	if err := bad.Validate(); err == nil {
		t.Error("expected error when shrink >= surge")
	}
	if p := (Params{RSIPeriod: 7}).WithDefaults(); p.RSIPeriod != 7 || p.MACDSlow != 26 {
		t.Errorf("WithDefaults should keep set fields and fill the rest: %+v", p)
	}
}

package calculator

import (
	"math"
	"testing"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCalculateSMA(t *testing.T) {
	got, err := CalculateSMA([]float64{1, 2, 3, 4, 5}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !approx(got, 4) {
		t.Errorf("expected 4, got %f", got)
	}
	if _, err := CalculateSMA([]float64{1, 2}, 3); err == nil {
		t.Error("expected error for short input")
	}
}

func TestSMASeries_Warmup(t *testing.T) {
	s, err := SMASeries([]float64{2, 4, 6, 8}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(s[0]) {
		t.Errorf("expected NaN at index 0, got %f", s[0])
	}
	want := []float64{3, 5, 7}
	for i, w := range want {
		if !approx(s[i+1], w) {
			t.Errorf("index %d: expected %f, got %f", i+1, w, s[i+1])
		}
	}
}

func TestEMASeries_SeedAndSmoothing(t *testing.T) {
	s, _ := EMASeries([]float64{10, 20}, 3) // alpha = 0.5
	if !approx(s[0], 10) || !approx(s[1], 15) {
		t.Errorf("unexpected ema %v", s)
	}
}

func TestSMMASeries_SkipsLeadingNaN(t *testing.T) {
	s, _ := SMMASeries([]float64{math.NaN(), 30, 60, math.NaN()}, 2) // alpha = 1/3
	if !math.IsNaN(s[0]) {
		t.Error("expected leading NaN to stay NaN")
	}
	if !approx(s[1], 30) || !approx(s[2], 40) || !approx(s[3], 40) {
		t.Errorf("unexpected smma %v", s)
	}
}

func TestRSISeries(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   float64
		nan    bool
	}{
		{"all gains", []float64{1, 2, 3, 4, 5}, 100, false},
		{"flat", []float64{5, 5, 5, 5, 5}, 0, true},
		{"balanced", []float64{10, 11, 10, 11, 10}, 50, false},
		{"all losses", []float64{5, 4, 3, 2, 1}, 0, false},
	}
	for _, tt := range tests {
		s, err := RSISeries(tt.closes, 4)
		if err != nil {
			t.Fatal(err)
		}
		got := s[len(s)-1]
		if tt.nan {
			if !math.IsNaN(got) {
				t.Errorf("%s: expected NaN, got %f", tt.name, got)
			}
			continue
		}
		if !approx(got, tt.want) {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.want, got)
		}
	}
}

func TestRSISeries_FirstDeltaCountsAsZero(t *testing.T) {
	// Window of 3 at index 2 covers deltas [0, +1, -1].
	s, _ := RSISeries([]float64{10, 11, 10}, 3)
	if !approx(s[2], 50) {
		t.Errorf("expected 50, got %f", s[2])
	}
	if !math.IsNaN(s[1]) {
		t.Errorf("expected NaN before window fills, got %f", s[1])
	}
}

func TestRollingWindows(t *testing.T) {
	v := []float64{3, 1, 4, 1, 5}
	mins, _ := RollingMin(v, 3)
	maxs, _ := RollingMax(v, 3)
	if !approx(mins[4], 1) || !approx(maxs[4], 5) {
		t.Errorf("unexpected min/max %f/%f", mins[4], maxs[4])
	}
	std, err := RollingStd([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8)
	if err != nil {
		t.Fatal(err)
	}
	// sample std of the classic example: sqrt(32/7)
	if !approx(std[7], math.Sqrt(32.0/7.0)) {
		t.Errorf("unexpected std %f", std[7])
	}
}

func TestCrossover(t *testing.T) {
	tests := []struct {
		name                      string
		prevFast, prevSlow, f, s  float64
		want                      Cross
	}{
		{"up from equal", 1, 1, 2, 1, CrossUp},
		{"up from below", 0, 1, 2, 1, CrossUp},
		{"down from equal", 1, 1, 0, 1, CrossDown},
		{"stay above", 2, 1, 3, 1, CrossNone},
		{"stay below", 0, 1, 0, 1, CrossNone},
		{"touch from above", 2, 1, 1, 1, CrossNone},
		{"undefined", math.NaN(), 1, 2, 1, CrossUndefined},
	}
	for _, tt := range tests {
		if got := Crossover(tt.prevFast, tt.prevSlow, tt.f, tt.s); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.want, got)
		}
	}
}

func TestLastCross_LengthMismatch(t *testing.T) {
	if got := LastCross([]float64{1}, []float64{1}); got != CrossUndefined {
		t.Errorf("expected undefined for single bar, got %d", got)
	}
}

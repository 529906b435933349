package indicator

import "fmt"

// Params holds every lookback period, multiplier and threshold used by the
// engine. Live monitoring and backtesting must share the same Params per run.
type Params struct {
	MinBars int `yaml:"min_bars"`

	MACDFast   int `yaml:"macd_fast"`
	MACDSlow   int `yaml:"macd_slow"`
	MACDSignal int `yaml:"macd_signal"`

	KDJPeriod     int     `yaml:"kdj_period"`
	KDJSmoothing  float64 `yaml:"kdj_smoothing"` // center of mass of the K/D smoothing
	KDJOversold   float64 `yaml:"kdj_oversold"`
	KDJOverbought float64 `yaml:"kdj_overbought"`

	RSIPeriod     int     `yaml:"rsi_period"`
	RSIOversold   float64 `yaml:"rsi_oversold"`
	RSIOverbought float64 `yaml:"rsi_overbought"`

	MAShort int `yaml:"ma_short"`
	MAMid   int `yaml:"ma_mid"`
	MALong  int `yaml:"ma_long"`

	VolumePeriod int     `yaml:"volume_period"`
	VolumeSurge  float64 `yaml:"volume_surge"`
	VolumeShrink float64 `yaml:"volume_shrink"`

	BollPeriod int     `yaml:"boll_period"`
	BollStdDev float64 `yaml:"boll_std_dev"`
}

// DefaultParams returns the standard A-share settings.
func DefaultParams() Params {
	return Params{
		MinBars:       30,
		MACDFast:      12,
		MACDSlow:      26,
		MACDSignal:    9,
		KDJPeriod:     9,
		KDJSmoothing:  2,
		KDJOversold:   20,
		KDJOverbought: 80,
		RSIPeriod:     14,
		RSIOversold:   30,
		RSIOverbought: 70,
		MAShort:       5,
		MAMid:         10,
		MALong:        20,
		VolumePeriod:  5,
		VolumeSurge:   1.5,
		VolumeShrink:  0.5,
		BollPeriod:    20,
		BollStdDev:    2,
	}
}

// WithDefaults fills zero fields from DefaultParams.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	setInt := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	setFloat := func(v *float64, def float64) {
		if *v == 0 {
			*v = def
		}
	}
	setInt(&p.MinBars, d.MinBars)
	setInt(&p.MACDFast, d.MACDFast)
	setInt(&p.MACDSlow, d.MACDSlow)
	setInt(&p.MACDSignal, d.MACDSignal)
	setInt(&p.KDJPeriod, d.KDJPeriod)
	setFloat(&p.KDJSmoothing, d.KDJSmoothing)
	setFloat(&p.KDJOversold, d.KDJOversold)
	setFloat(&p.KDJOverbought, d.KDJOverbought)
	setInt(&p.RSIPeriod, d.RSIPeriod)
	setFloat(&p.RSIOversold, d.RSIOversold)
	setFloat(&p.RSIOverbought, d.RSIOverbought)
	setInt(&p.MAShort, d.MAShort)
	setInt(&p.MAMid, d.MAMid)
	setInt(&p.MALong, d.MALong)
	setInt(&p.VolumePeriod, d.VolumePeriod)
	setFloat(&p.VolumeSurge, d.VolumeSurge)
	setFloat(&p.VolumeShrink, d.VolumeShrink)
	setInt(&p.BollPeriod, d.BollPeriod)
	setFloat(&p.BollStdDev, d.BollStdDev)
	return p
}

// Validate checks that periods are positive and thresholds are ordered.
func (p Params) Validate() error {
	periods := map[string]int{
		"min_bars":      p.MinBars,
		"macd_fast":     p.MACDFast,
		"macd_slow":     p.MACDSlow,
		"macd_signal":   p.MACDSignal,
		"kdj_period":    p.KDJPeriod,
		"rsi_period":    p.RSIPeriod,
		"ma_short":      p.MAShort,
		"ma_mid":        p.MAMid,
		"ma_long":       p.MALong,
		"volume_period": p.VolumePeriod,
	}
	for name, v := range periods {
		if v <= 0 {
			return fmt.Errorf("indicators.%s must be positive", name)
		}
	}
	if p.MinBars < 2 {
		return fmt.Errorf("indicators.min_bars must be at least 2")
	}
	if p.BollPeriod < 2 {
		return fmt.Errorf("indicators.boll_period must be at least 2")
	}
	if p.MACDFast >= p.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be less than macd_slow")
	}
	if p.MAShort >= p.MALong {
		return fmt.Errorf("indicators.ma_short must be less than ma_long")
	}
	if p.KDJOversold >= p.KDJOverbought {
		return fmt.Errorf("indicators.kdj_oversold must be less than kdj_overbought")
	}
	if p.RSIOversold >= p.RSIOverbought {
		return fmt.Errorf("indicators.rsi_oversold must be less than rsi_overbought")
	}
	if p.VolumeShrink >= p.VolumeSurge {
		return fmt.Errorf("indicators.volume_shrink must be less than volume_surge")
	}
	if p.BollStdDev <= 0 || p.KDJSmoothing < 0 {
		return fmt.Errorf("indicators.boll_std_dev must be positive and kdj_smoothing non-negative")
	}
	return nil
}

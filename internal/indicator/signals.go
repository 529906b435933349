package indicator

import (
	"math"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

// macd: DIF = EMA(fast) − EMA(slow), DEA = EMA(DIF, signal); crosses of DIF over DEA.
func macd(closes []float64, p Params) (model.MACDReading, error) {
	fast, err := calculator.EMASeries(closes, p.MACDFast)
	if err != nil {
		return model.MACDReading{}, err
	}
	slow, err := calculator.EMASeries(closes, p.MACDSlow)
	if err != nil {
		return model.MACDReading{}, err
	}
	dif := make([]float64, len(closes))
	for i := range closes {
		dif[i] = fast[i] - slow[i]
	}
	dea, err := calculator.EMASeries(dif, p.MACDSignal)
	if err != nil {
		return model.MACDReading{}, err
	}
	d, e := last(dif), last(dea)
	return model.MACDReading{
		DIF:    model.Defined(d),
		DEA:    model.Defined(e),
		Hist:   model.Defined((d - e) * 2),
		Signal: crossSignal(calculator.LastCross(dif, dea)),
	}, nil
}

// kdj: RSV over the high/low range, K and D smoothed, J = 3K − 2D.
// Crosses only count inside the oversold (golden) or overbought (death) zone.
func kdj(bars []model.OHLCV, closes []float64, p Params) (model.KDJReading, error) {
	lows, err := calculator.RollingMin(model.Lows(bars), p.KDJPeriod)
	if err != nil {
		return model.KDJReading{}, err
	}
	highs, err := calculator.RollingMax(model.Highs(bars), p.KDJPeriod)
	if err != nil {
		return model.KDJReading{}, err
	}
	rsv := make([]float64, len(closes))
	for i, c := range closes {
		span := highs[i] - lows[i]
		if math.IsNaN(span) || span == 0 {
			rsv[i] = math.NaN()
			continue
		}
		rsv[i] = (c - lows[i]) / span * 100
	}
	k, err := calculator.SMMASeries(rsv, p.KDJSmoothing)
	if err != nil {
		return model.KDJReading{}, err
	}
	d, err := calculator.SMMASeries(k, p.KDJSmoothing)
	if err != nil {
		return model.KDJReading{}, err
	}
	curK, curD := last(k), last(d)

	signal := model.SignalNeutral
	switch calculator.LastCross(k, d) {
	case calculator.CrossUndefined:
		signal = model.SignalUndefined
	case calculator.CrossUp:
		if curK < p.KDJOversold {
			signal = model.SignalGoldenCross
		}
	case calculator.CrossDown:
		if curK > p.KDJOverbought {
			signal = model.SignalDeathCross
		}
	}
	return model.KDJReading{
		K:      model.Defined(curK),
		D:      model.Defined(curD),
		J:      model.Defined(3*curK - 2*curD),
		Signal: signal,
	}, nil
}

func rsi(closes []float64, p Params) (model.RSIReading, error) {
	series, err := calculator.RSISeries(closes, p.RSIPeriod)
	if err != nil {
		return model.RSIReading{}, err
	}
	v := last(series)
	r := model.RSIReading{Value: model.Defined(v), Signal: model.SignalNeutral}
	switch {
	case math.IsNaN(v):
		r.Signal = model.SignalUndefined
	case v < p.RSIOversold:
		r.Signal = model.SignalOversold
	case v > p.RSIOverbought:
		r.Signal = model.SignalOverbought
	}
	return r, nil
}

// movingAverages reports the short/mid/long SMAs and the short-over-long cross.
func movingAverages(closes []float64, p Params) (model.MAReading, error) {
	short, err := calculator.SMASeries(closes, p.MAShort)
	if err != nil {
		return model.MAReading{}, err
	}
	mid, err := calculator.SMASeries(closes, p.MAMid)
	if err != nil {
		return model.MAReading{}, err
	}
	long, err := calculator.SMASeries(closes, p.MALong)
	if err != nil {
		return model.MAReading{}, err
	}
	return model.MAReading{
		MA5:    model.Defined(last(short)),
		MA10:   model.Defined(last(mid)),
		MA20:   model.Defined(last(long)),
		Signal: crossSignal(calculator.LastCross(short, long)),
	}, nil
}

func volume(bars []model.OHLCV, p Params) (model.VolumeReading, error) {
	vols := model.Volumes(bars)
	avg, err := calculator.SMASeries(vols, p.VolumePeriod)
	if err != nil {
		return model.VolumeReading{}, err
	}
	cur, ma := last(vols), last(avg)
	r := model.VolumeReading{Current: cur, MA5: model.Defined(ma), Signal: model.SignalNeutral}
	switch {
	case math.IsNaN(ma):
		r.Signal = model.SignalUndefined
	case cur > ma*p.VolumeSurge:
		r.Signal = model.SignalSurge
	case cur < ma*p.VolumeShrink:
		r.Signal = model.SignalShrink
	}
	return r, nil
}

// bollinger classifies the close against mean ± k·std bands. A previous close
// at or beyond the current band followed by a move back towards the middle is
// reported as a rebound (lower) or pullback (upper).
func bollinger(closes []float64, p Params) (model.BollReading, error) {
	middle, err := calculator.SMASeries(closes, p.BollPeriod)
	if err != nil {
		return model.BollReading{}, err
	}
	std, err := calculator.RollingStd(closes, p.BollPeriod)
	if err != nil {
		return model.BollReading{}, err
	}
	mid, sd := last(middle), last(std)
	upper, lower := mid+p.BollStdDev*sd, mid-p.BollStdDev*sd
	r := model.BollReading{
		Upper:  model.Defined(upper),
		Middle: model.Defined(mid),
		Lower:  model.Defined(lower),
	}
	if math.IsNaN(mid) || math.IsNaN(sd) {
		r.Signal = model.SignalUndefined
		return r, nil
	}

	n := len(closes)
	cur, prev := closes[n-1], closes[n-2]
	switch {
	case cur <= lower:
		r.Signal = model.SignalLowerBand
	case cur >= upper:
		r.Signal = model.SignalUpperBand
	default:
		r.Signal = model.SignalMiddleBand
	}
	switch {
	case prev <= lower && cur > prev:
		r.Signal = model.SignalLowerRebound
	case prev >= upper && cur < prev:
		r.Signal = model.SignalUpperPullback
	}
	return r, nil
}

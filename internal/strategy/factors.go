package strategy

import (
	"fmt"
	"strings"

	"SignalSentinel/internal/model"
)

// Key names one indicator that can vote in an aggregation.
type Key string

const (
	KeyMACD   Key = "macd"
	KeyKDJ    Key = "kdj"
	KeyRSI    Key = "rsi"
	KeyMA     Key = "ma"
	KeyVolume Key = "volume"
	KeyBoll   Key = "boll"
)

// IndicatorInfo describes a selectable indicator.
type IndicatorInfo struct {
	Key         Key    `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var catalog = []IndicatorInfo{
	{KeyMACD, "MACD金叉", "MACD指标出现金叉信号"},
	{KeyKDJ, "KDJ金叉", "KDJ指标出现金叉信号"},
	{KeyRSI, "RSI超卖", "RSI指标低于30，超卖状态"},
	{KeyMA, "均线金叉", "5日均线金叉20日均线"},
	{KeyVolume, "成交量放量", "成交量大于5日均量1.5倍"},
	{KeyBoll, "布林带下轨反弹", "股价触及布林带下轨后反弹"},
}

// Catalog lists the indicators a backtest can select, in display order.
func Catalog() []IndicatorInfo {
	out := make([]IndicatorInfo, len(catalog))
	copy(out, catalog)
	return out
}

// AllKeys returns every indicator key; live monitoring votes with all of them.
func AllKeys() []Key {
	keys := make([]Key, len(catalog))
	for i, c := range catalog {
		keys[i] = c.Key
	}
	return keys
}

// ParseKeys normalises names to keys. Unknown names fail with
// model.ErrInvalidIndicator; repeated names are kept once.
func ParseKeys(names []string) ([]Key, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no indicators selected", model.ErrInvalidIndicator)
	}
	seen := make(map[Key]bool, len(names))
	keys := make([]Key, 0, len(names))
	for _, n := range names {
		k := Key(strings.ToLower(strings.TrimSpace(n)))
		if !known(k) {
			return nil, fmt.Errorf("%w: %q", model.ErrInvalidIndicator, n)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys, nil
}

func known(k Key) bool {
	for _, c := range catalog {
		if c.Key == k {
			return true
		}
	}
	return false
}

// signalOf picks the reading of key k out of a snapshot.
func signalOf(snap *model.Snapshot, k Key) model.Signal {
	switch k {
	case KeyMACD:
		return snap.MACD.Signal
	case KeyKDJ:
		return snap.KDJ.Signal
	case KeyRSI:
		return snap.RSI.Signal
	case KeyMA:
		return snap.MA.Signal
	case KeyVolume:
		return snap.Volume.Signal
	case KeyBoll:
		return snap.Boll.Signal
	}
	return model.SignalUndefined
}

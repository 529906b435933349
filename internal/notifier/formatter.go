package notifier

import (
	"fmt"
	"html"
	"strings"

	"SignalSentinel/internal/model"
)

var callLabel = map[model.Call]string{
	model.CallBuy:  "🟢 <b>买入信号</b>",
	model.CallSell: "🔴 <b>卖出信号</b>",
	model.CallHold: "⚪ <b>观望</b>",
}

// FormatAlert formats a directional result into a Telegram message.
func FormatAlert(res *model.AggregateResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s | %s %s\n", callLabel[res.FinalCall], res.Symbol, html.EscapeString(res.Name)))
	b.WriteString(fmt.Sprintf("时间: %s\n\n", res.Timestamp.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("当前价格: %.2f (%+.2f%%)\n", res.Price, res.ChangePct))
	b.WriteString(fmt.Sprintf("%d个买入信号, %d个卖出信号\n", res.BuySignals, res.SellSignals))
	if res.Indicators != nil {
		b.WriteString("\n")
		writeIndicators(&b, res.Indicators)
	}
	return b.String()
}

// FormatEvaluation formats any result, including HOLD, as the reply to /signal.
func FormatEvaluation(res *model.AggregateResult) string {
	return FormatAlert(res)
}

func writeIndicators(b *strings.Builder, s *model.Snapshot) {
	b.WriteString(fmt.Sprintf("MACD: %s (DIF %s, DEA %s)\n", s.MACD.Signal, num(s.MACD.DIF), num(s.MACD.DEA)))
	b.WriteString(fmt.Sprintf("KDJ: %s (K %s, D %s, J %s)\n", s.KDJ.Signal, num(s.KDJ.K), num(s.KDJ.D), num(s.KDJ.J)))
	b.WriteString(fmt.Sprintf("RSI: %s (%s)\n", s.RSI.Signal, num(s.RSI.Value)))
	b.WriteString(fmt.Sprintf("均线: %s (MA5 %s, MA20 %s)\n", s.MA.Signal, num(s.MA.MA5), num(s.MA.MA20)))
	b.WriteString(fmt.Sprintf("成交量: %s\n", s.Volume.Signal))
	b.WriteString(fmt.Sprintf("布林带: %s (%s / %s / %s)\n", s.Boll.Signal, num(s.Boll.Upper), num(s.Boll.Middle), num(s.Boll.Lower)))
}

func num(v model.Value) string {
	if !v.OK {
		return "-"
	}
	return fmt.Sprintf("%.2f", v.V)
}

// FormatAlerts lists recent alerts, newest first.
func FormatAlerts(symbol string, alerts []model.Alert) string {
	if len(alerts) == 0 {
		return fmt.Sprintf("%s 暂无信号记录", symbol)
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>最近信号</b> | %s\n\n", symbol))
	for _, a := range alerts {
		b.WriteString(fmt.Sprintf("%s %s ×%d @ %.2f\n", a.Timestamp.Format("01-02 15:04"), a.Call, a.SignalCount, a.Price))
	}
	return b.String()
}

// FormatBacktest summarises a backtest result.
func FormatBacktest(s *model.BacktestSummary) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>回测结果</b> | %s\n\n", s.Symbol))
	b.WriteString(fmt.Sprintf("指标: %s\n", strings.Join(s.Indicators, "+")))
	b.WriteString(fmt.Sprintf("持有: %d天 | 历史: %d天 | 最少信号: %d\n", s.HoldDays, s.HistoryDays, s.MinBuySignals))
	b.WriteString(fmt.Sprintf("交易次数: %d (盈 %d / 亏 %d)\n", s.TotalSignals, s.WinCount, s.LossCount))
	b.WriteString(fmt.Sprintf("胜率: %.2f%%\n", s.WinRate))
	b.WriteString(fmt.Sprintf("平均收益: %+.2f%% | 最大: %+.2f%% | 最小: %+.2f%%\n", s.AvgReturn, s.MaxReturn, s.MinReturn))
	return b.String()
}

package notifier

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"SignalSentinel/internal/backtest"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/monitor"
)

// Watcher is the part of the monitor the command router drives.
type Watcher interface {
	EvaluateNow(ctx context.Context) (*model.AggregateResult, error)
	RecentAlerts(ctx context.Context, limit int) ([]model.Alert, error)
	SwitchSymbol(code, name string)
	State() monitor.State
}

// Backtester runs a backtest request.
type Backtester interface {
	Run(ctx context.Context, req backtest.Request) (*model.BacktestSummary, error)
}

// CommandRouter answers chat commands.
type CommandRouter struct {
	watcher    Watcher
	backtester Backtester
	logger     *zap.Logger
}

func NewCommandRouter(w Watcher, b Backtester, logger *zap.Logger) *CommandRouter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommandRouter{watcher: w, backtester: b, logger: logger.With(zap.String("component", "commands"))}
}

const helpText = "可用命令:\n" +
	"• /signal 立即计算当前信号\n" +
	"• /alerts 最近信号记录\n" +
	"• /switch &lt;代码&gt; [名称] 切换监控股票\n" +
	"• /backtest &lt;指标,逗号分隔&gt; [持有天数] 回测当前股票"

// Handle processes a command and returns the reply. It satisfies CommandHandler.
func (r *CommandRouter) Handle(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Telegram appends @botname in groups.
	name, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch name {
	case "/signal", "查看信号":
		res, err := r.watcher.EvaluateNow(ctx)
		if err != nil {
			r.logger.Warn("evaluate on command", zap.Error(err))
			return fmt.Sprintf("❌ 计算失败: %v", err)
		}
		return FormatEvaluation(res)
	case "/alerts", "最近信号":
		alerts, err := r.watcher.RecentAlerts(ctx, 10)
		if err != nil {
			return fmt.Sprintf("❌ 查询失败: %v", err)
		}
		return FormatAlerts(r.watcher.State().Symbol, alerts)
	case "/switch":
		if len(args) == 0 {
			return "用法: /switch &lt;代码&gt; [名称]"
		}
		stockName := strings.Join(args[1:], " ")
		r.watcher.SwitchSymbol(args[0], stockName)
		return fmt.Sprintf("✅ 已切换监控: %s %s", args[0], stockName)
	case "/backtest":
		return r.backtest(ctx, args)
	default:
		return helpText
	}
}

func (r *CommandRouter) backtest(ctx context.Context, args []string) string {
	if r.backtester == nil {
		return "回测不可用"
	}
	if len(args) == 0 {
		return "用法: /backtest macd,kdj [持有天数]"
	}
	req := backtest.Request{
		Symbol:     r.watcher.State().Symbol,
		Indicators: strings.Split(args[0], ","),
	}
	if len(args) > 1 {
		hold, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Sprintf("❌ 持有天数无效: %s", args[1])
		}
		req.HoldDays = hold
	}
	summary, err := r.backtester.Run(ctx, req)
	if err != nil {
		return fmt.Sprintf("❌ 回测失败: %v", err)
	}
	return FormatBacktest(summary)
}

// Command backtest runs one backtest against live history and prints the summary.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"SignalSentinel/internal/backtest"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/logging"
	"SignalSentinel/internal/notifier"
)

func main() {
	var (
		cfgPath    = flag.String("config", "configs/config.yaml", "config file")
		symbol     = flag.String("stock", "", "stock code (default: config stock.code)")
		indicators = flag.String("indicators", "macd,kdj,rsi", "comma-separated indicator keys")
		hold       = flag.Int("hold", backtest.DefaultHoldDays, "holding period in trading days")
		history    = flag.Int("days", backtest.DefaultHistoryDays, "history window in calendar days")
		minBuy     = flag.Int("min-buy", 0, "minimum buy votes (default: number of indicators)")
		asJSON     = flag.Bool("json", false, "print the summary as JSON")
	)
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New("warn", cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.Proxy, logger)
	if err != nil {
		logger.Fatal("init fetcher", zap.Error(err))
	}
	col := collector.NewCollector(fetcher, nil, 0, cfg.Monitor.FetchTimeout, logger)
	eng := backtest.NewEngine(col, cfg.Indicators, logger, nil)

	req := backtest.Request{
		Symbol:      *symbol,
		Indicators:  strings.Split(*indicators, ","),
		HoldDays:    *hold,
		HistoryDays: *history,
	}
	if req.Symbol == "" {
		req.Symbol = cfg.Stock.Code
	}
	if *minBuy > 0 {
		req.MinBuySignals = minBuy
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	summary, err := eng.Run(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "backtest: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(summary)
		return
	}
	fmt.Print(strings.NewReplacer("<b>", "", "</b>", "").Replace(notifier.FormatBacktest(summary)))
	for _, t := range summary.Trades {
		fmt.Printf("%s → %s  %.2f → %.2f  %+.2f%%  (%d)\n",
			t.EntryDate.Format("2006-01-02"), t.ExitDate.Format("2006-01-02"),
			t.EntryPrice, t.ExitPrice, t.ReturnPct, t.SignalCount)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"SignalSentinel/internal/api"
	"SignalSentinel/internal/backtest"
	"SignalSentinel/internal/cache"
	"SignalSentinel/internal/collector"
	"SignalSentinel/internal/config"
	"SignalSentinel/internal/gateway"
	"SignalSentinel/internal/logging"
	"SignalSentinel/internal/metrics"
	"SignalSentinel/internal/monitor"
	"SignalSentinel/internal/notifier"
	"SignalSentinel/internal/recorder"
	"SignalSentinel/internal/scheduler"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "signal-sentinel: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("SignalSentinel starting",
		zap.String("stock", cfg.Stock.Code),
		zap.String("name", cfg.Stock.Name),
		zap.Duration("interval", cfg.Monitor.Interval))

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.NewMetrics(nil)

	// Init fetcher and cache
	fetcher, err := collector.NewFetcher(cfg.DataSource.Provider, cfg.DataSource.Proxy, logger)
	if err != nil {
		return err
	}
	logger.Info("data source", zap.String("provider", fetcher.Name()))

	var c cache.Cache = cache.NewMemory()
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn("init redis cache failed, using memory", zap.Error(err))
		} else {
			c = rc
		}
	}
	defer c.Close()
	col := collector.NewCollector(fetcher, c, cfg.DataSource.CacheTTL, cfg.Monitor.FetchTimeout, logger)

	// Init recorder
	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
		} else {
			rec = sr
		}
	}
	defer rec.Close()

	mon := monitor.New(monitor.Config{
		Symbol:    cfg.Stock.Code,
		Name:      cfg.Stock.Name,
		Threshold: cfg.Monitor.SignalThreshold,
		FetchDays: cfg.Monitor.FetchDays,
		Params:    cfg.Indicators,
	}, col, rec, nil, logger, m)
	bt := backtest.NewEngine(col, cfg.Indicators, logger, m)

	// Subscribers
	hub := gateway.NewHub(logger, m)
	mon.Dispatcher().Register(hub)
	mon.AddObserver(hub)

	if cfg.Telegram.BotToken != "" {
		tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.DataSource.Proxy, logger)
		mon.Dispatcher().Register(tn)
		router := notifier.NewCommandRouter(mon, bt, logger)
		go tn.StartPolling(ctx, router.Handle)
		logger.Info("telegram polling started")
	}
	if cfg.Webhook.URL != "" {
		mon.Dispatcher().Register(notifier.NewWebhookNotifier(cfg.Webhook.URL))
	}
	if cfg.NATS.URL != "" {
		nc, err := notifier.ConnectNATS(cfg.NATS.URL, logger)
		if err != nil {
			logger.Warn("nats unavailable, alerts will not be published", zap.Error(err))
		} else {
			defer nc.Drain()
			mon.Dispatcher().Register(notifier.NewNATSNotifier(nc, cfg.NATS.Subject))
		}
	}

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, mon, logger)
	if err := sched.Register(cfg.Monitor.Interval); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Monitor.RunOnStart {
		logger.Info("run_on_start enabled, evaluating now")
		go sched.RunNow()
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr,
		Handler: api.NewServer(api.Deps{
			Watcher:    mon,
			Backtester: bt,
			Quoter:     col,
			Stocks:     rec,
			WS:         hub,
			Metrics:    m.Handler(),
			Logger:     logger,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping...")
	case err := <-errCh:
		logger.Error("http server failed", zap.Error(err))
		cancel()
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	logger.Info("SignalSentinel stopped")
	return nil
}

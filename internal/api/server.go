// Package api exposes the monitor, backtester and watch list over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SignalSentinel/internal/backtest"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/monitor"
	"SignalSentinel/internal/recorder"
)

// Watcher is the monitor surface used by the API.
type Watcher interface {
	EvaluateNow(ctx context.Context) (*model.AggregateResult, error)
	RecentAlerts(ctx context.Context, limit int) ([]model.Alert, error)
	SwitchSymbol(code, name string)
	State() monitor.State
}

type Backtester interface {
	Run(ctx context.Context, req backtest.Request) (*model.BacktestSummary, error)
}

type Quoter interface {
	Quote(ctx context.Context, symbol string) (*model.Quote, error)
}

// WatchList stores the user's stocks.
type WatchList interface {
	AddStock(ctx context.Context, code, name string) (*model.Stock, error)
	ListStocks(ctx context.Context) ([]model.Stock, error)
	DeleteStock(ctx context.Context, code string) error
}

// Deps wires the server. WS and Metrics are optional.
type Deps struct {
	Watcher    Watcher
	Backtester Backtester
	Quoter     Quoter
	Stocks     WatchList
	WS         http.Handler
	Metrics    http.Handler
	Logger     *zap.Logger
}

type Server struct {
	deps   Deps
	logger *zap.Logger
	now    func() time.Time
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{deps: d, logger: logger.With(zap.String("component", "api")), now: time.Now}
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog(), cors())

	r.GET("/", s.root)
	r.GET("/health", s.health)

	ind := r.Group("/api/indicators")
	{
		ind.GET("/current", s.current)
		ind.GET("/alerts", s.alerts)
		ind.GET("/state", s.state)
		ind.GET("/quote", s.quote)
		ind.POST("/switch", s.switchStock)
	}

	bt := r.Group("/api/backtest")
	{
		bt.POST("/run", s.runBacktest)
		bt.GET("/indicators", s.backtestIndicators)
		bt.GET("/example", s.backtestExample)
	}

	st := r.Group("/api/stocks")
	{
		st.GET("", s.listStocks)
		st.POST("", s.addStock)
		st.DELETE("/:code", s.deleteStock)
	}

	if s.deps.WS != nil {
		r.GET("/ws", gin.WrapH(s.deps.WS))
	}
	if s.deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.deps.Metrics))
	}
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			return
		}
		s.logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// statusOf maps domain errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidIndicator), errors.Is(err, model.ErrInvalidParameter),
		errors.Is(err, recorder.ErrStockExists):
		return http.StatusBadRequest
	case errors.Is(err, recorder.ErrStockNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDataUnavailable), errors.Is(err, model.ErrInsufficientData),
		errors.Is(err, model.ErrInsufficientHistory):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(c *gin.Context, err error) {
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(code, gin.H{"detail": err.Error()})
}

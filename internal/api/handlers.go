package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SignalSentinel/internal/backtest"
	"SignalSentinel/internal/model"
	"SignalSentinel/internal/strategy"
)

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":       "股票监控系统API",
		"status":        "running",
		"current_stock": s.deps.Watcher.State().Symbol,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": s.now()})
}

func (s *Server) current(c *gin.Context) {
	res, err := s.deps.Watcher.EvaluateNow(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) alerts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "limit must be a positive integer"})
		return
	}
	alerts, err := s.deps.Watcher.RecentAlerts(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	c.JSON(http.StatusOK, alerts)
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Watcher.State())
}

func (s *Server) quote(c *gin.Context) {
	if s.deps.Quoter == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"detail": "quote provider not configured"})
		return
	}
	code := c.Query("code")
	if code == "" {
		code = s.deps.Watcher.State().Symbol
	}
	q, err := s.deps.Quoter.Quote(c.Request.Context(), code)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

type switchRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name"`
}

func (s *Server) switchStock(c *gin.Context) {
	var req switchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	s.deps.Watcher.SwitchSymbol(req.Code, req.Name)
	s.logger.Info("watched symbol switched", zap.String("code", req.Code), zap.String("name", req.Name))
	c.JSON(http.StatusOK, gin.H{"message": "切换成功", "code": req.Code, "name": req.Name})
}

func (s *Server) runBacktest(c *gin.Context) {
	var req backtest.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	summary, err := s.deps.Backtester.Run(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) backtestIndicators(c *gin.Context) {
	c.JSON(http.StatusOK, strategy.Catalog())
}

func (s *Server) backtestExample(c *gin.Context) {
	c.JSON(http.StatusOK, backtest.Example())
}

type stockRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

func (s *Server) listStocks(c *gin.Context) {
	stocks, err := s.deps.Stocks.ListStocks(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	if stocks == nil {
		stocks = []model.Stock{}
	}
	c.JSON(http.StatusOK, stocks)
}

func (s *Server) addStock(c *gin.Context) {
	var req stockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	stock, err := s.deps.Stocks.AddStock(c.Request.Context(), strings.TrimSpace(req.Code), req.Name)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stock)
}

func (s *Server) deleteStock(c *gin.Context) {
	if err := s.deps.Stocks.DeleteStock(c.Request.Context(), c.Param("code")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

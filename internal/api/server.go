// Package api exposes the advisor state over HTTP for the dashboard.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"CryptoAdvisor/internal/model"
	"CryptoAdvisor/internal/notifier"
	"CryptoAdvisor/internal/portfolio"
)

// SignalReader is the read side of the scheduler.
type SignalReader interface {
	Latest() ([]model.TradeSignal, time.Time)
	Market() ([]model.PriceTick, *model.FearGreed)
	Summary(ctx context.Context) (model.NotificationSummary, error)
}

// Portfolio is the holdings and settings store behind the API.
type Portfolio interface {
	Holdings() []model.Holding
	Alerts() []model.TradeSignal
	Settings() model.NotificationSettings
	UpdateSettings(s model.NotificationSettings) error
}

// SignalHistory is the recorded signal log.
type SignalHistory interface {
	RecentSignals(limit int) ([]model.TradeSignal, error)
}

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Deliverer posts an alert to an arbitrary webhook.
type Deliverer interface {
	Deliver(ctx context.Context, a notifier.Alert, destination string) error
}

// Server serves the dashboard API.
type Server struct {
	signals   SignalReader
	portfolio Portfolio
	history   SignalHistory
	webhook   Deliverer
	now       func() time.Time

	mu   sync.RWMutex
	data map[string]any

	engine *gin.Engine
	http   *http.Server
	logger zerolog.Logger
}

// NewServer builds the router. An empty origins list allows any origin.
func NewServer(addr string, origins []string, signals SignalReader, portfolio Portfolio, history SignalHistory, webhook Deliverer) *Server {
	s := &Server{
		signals:   signals,
		portfolio: portfolio,
		history:   history,
		webhook:   webhook,
		now:       time.Now,
		data:      make(map[string]any),
		logger:    log.With().Str("component", "api").Logger(),
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())
	if len(origins) == 0 {
		r.Use(cors.Default())
	} else {
		cfg := cors.DefaultConfig()
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
		r.Use(cors.New(cfg))
	}

	g := r.Group("/api")
	{
		g.GET("/health", s.health)
		g.GET("/signals", s.listSignals)
		g.GET("/signals/history", s.signalHistory)
		g.GET("/holdings", s.listHoldings)
		g.GET("/alerts", s.listAlerts)
		g.GET("/notifications/summary", s.summary)
		g.GET("/settings", s.getSettings)
		g.PUT("/settings", s.putSettings)
		g.GET("/data/:key", s.getData)
		g.POST("/data/:key", s.putData)
		g.POST("/test-webhook", s.testWebhook)
		g.POST("/send-webhook", s.sendWebhook)
	}

	s.engine = r
	s.http = &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.http.Addr).Msg("API listening")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) health(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": s.now()})
}

type signalsResponse struct {
	Signals   []model.TradeSignal `json:"signals"`
	Prices    []model.PriceTick   `json:"prices"`
	FearGreed *model.FearGreed    `json:"fearGreed"`
	LastRun   *time.Time          `json:"lastRun"`
}

func (s *Server) listSignals(c *gin.Context) {
	signals, at := s.signals.Latest()
	ticks, fg := s.signals.Market()
	resp := signalsResponse{
		Signals:   nonNil(signals),
		Prices:    nonNil(ticks),
		FearGreed: fg,
	}
	if !at.IsZero() {
		resp.LastRun = &at
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) signalHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}
	signals, err := s.history.RecentSignals(limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("signal history failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"signals": nonNil(signals)})
}

func (s *Server) listHoldings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"holdings": nonNil(s.portfolio.Holdings())})
}

func (s *Server) listAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"alerts": nonNil(s.portfolio.Alerts())})
}

func (s *Server) summary(c *gin.Context) {
	sum, err := s.signals.Summary(c.Request.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("notification summary failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.portfolio.Settings())
}

func (s *Server) putSettings(c *gin.Context) {
	var body model.NotificationSettings
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if err := s.portfolio.UpdateSettings(body); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, portfolio.ErrInvalidSettings) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s.portfolio.Settings())
}

func (s *Server) getData(c *gin.Context) {
	s.mu.RLock()
	v := s.data[c.Param("key")]
	s.mu.RUnlock()
	c.JSON(http.StatusOK, gin.H{"data": v})
}

func (s *Server) putData(c *gin.Context) {
	var body struct {
		Data any `json:"data"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	s.mu.Lock()
	s.data[c.Param("key")] = body.Data
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) testWebhook(c *gin.Context) {
	var body struct {
		WebhookURL string `json:"webhookUrl"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.WebhookURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhookUrl is required"})
		return
	}
	id := uuid.NewString()[:8]
	s.deliver(c, notifier.TestAlert(id, s.now()), body.WebhookURL)
}

func (s *Server) sendWebhook(c *gin.Context) {
	var body struct {
		WebhookURL string `json:"webhookUrl"`
		Message    string `json:"message"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.WebhookURL == "" || body.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "webhookUrl and message are required"})
		return
	}
	s.deliver(c, notifier.MessageAlert(body.Message, s.now()), body.WebhookURL)
}

func (s *Server) deliver(c *gin.Context, a notifier.Alert, destination string) {
	if err := s.webhook.Deliver(c.Request.Context(), a, destination); err != nil {
		s.logger.Error().Err(err).Msg("webhook delivery failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "webhook delivery failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

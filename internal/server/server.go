// Package server exposes the pipeline over a small REST API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ppiankov/edgarflat/internal/model"
	"github.com/ppiankov/edgarflat/internal/pipeline"
)

// Runner is the part of the pipeline the API drives
type Runner interface {
	Process(ctx context.Context, cik string, user model.User) (*pipeline.RunSummary, error)
	Financials(ctx context.Context, user model.User, all bool) ([]model.ViewRow, error)
	ExportPath(user model.User) string
}

// TickerSource lists known companies
type TickerSource interface {
	Tickers(ctx context.Context) ([]model.Ticker, error)
}

// UserStore resolves the request identity. Ping backs /health.
type UserStore interface {
	User(ctx context.Context, id string) (model.User, error)
	Ping(ctx context.Context) error
}

// Server holds the state for the REST API server.
type Server struct {
	runner     Runner
	tickers    TickerSource
	users      UserStore
	userHeader string
	router     *gin.Engine
	logger     *zap.Logger
}

// NewServer creates a new Server instance.
func NewServer(cfg model.ServerConfig, runner Runner, tickers TickerSource, users UserStore, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	header := cfg.UserHeader
	if header == "" {
		header = "X-User-ID"
	}

	r := gin.New()
	s := &Server{
		runner:     runner,
		tickers:    tickers,
		users:      users,
		userHeader: header,
		router:     r,
		logger:     logger.Named("server"),
	}
	r.Use(gin.Recovery(), s.requestLogger())
	s.setupRoutes()
	return s
}

// Handler returns the routed engine
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	s.logger.Info("listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/tickers", s.handleTickers)

	authed := s.router.Group("/v1", s.identify())
	authed.POST("/process", s.handleProcess)
	authed.GET("/financials", s.handleFinancials)
	authed.GET("/export", s.handleExport)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	if err := s.users.Ping(c.Request.Context()); err != nil {
		s.logger.Warn("store ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	c.Status(http.StatusOK)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
		)
	}
}

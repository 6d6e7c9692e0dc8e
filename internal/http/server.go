// Package http exposes the trade lifecycle and leaderboard operations over
// a JSON API. Wire shapes follow the public contract: tradeId/returnPct
// style field names, 400 for missing required fields, 404 for unknown trades.
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tradeboard/internal/app"
	"tradeboard/internal/leaderboard"
	"tradeboard/internal/ports"
)

// Server wires the router, middleware and handlers around the trade service.
type Server struct {
	R            *gin.Engine
	Service      *app.TradeService
	Logger       ports.Logger
	DefaultLimit int
}

// Config holds the HTTP server settings.
type Config struct {
	Service      *app.TradeService
	Logger       ports.Logger
	CORSOrigin   string
	DefaultLimit int
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewServer wires the router, service and middleware.
func NewServer(cfg Config) *Server {
	g := gin.New()

	// Request logging
	g.Use(func(cn *gin.Context) {
		start := time.Now()
		cn.Next()
		cfg.Logger.Info(cn.Request.Context(), "http_request", map[string]interface{}{
			"method":  cn.Request.Method,
			"path":    cn.Request.URL.Path,
			"status":  cn.Writer.Status(),
			"ip":      cn.ClientIP(),
			"latency": time.Since(start),
		})
	})

	g.Use(gin.Recovery())

	// CORS
	corsOrigin := cfg.CORSOrigin
	g.Use(func(cn *gin.Context) {
		origin := cn.GetHeader("Origin")
		cn.Writer.Header().Set("Vary", "Origin")
		cn.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		cn.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		cn.Writer.Header().Set("Access-Control-Max-Age", "86400")
		if corsOrigin == "*" {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if origin != "" && origin == corsOrigin {
			cn.Writer.Header().Set("Access-Control-Allow-Origin", corsOrigin)
		}
		if cn.Request.Method == http.MethodOptions {
			cn.AbortWithStatus(http.StatusNoContent)
			return
		}
		cn.Next()
	})

	defaultLimit := cfg.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = leaderboard.DefaultLimit
	}

	s := &Server{
		R:            g,
		Service:      cfg.Service,
		Logger:       cfg.Logger,
		DefaultLimit: defaultLimit,
	}

	g.GET("/health", func(cn *gin.Context) { cn.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	g.POST("/trades/open", s.openTrade)
	g.POST("/trades/close", s.closeTrade)
	g.GET("/leaderboard", s.getLeaderboard)

	return s
}

// Run starts the HTTP listener; blocks until the listener fails.
func (s *Server) Run(addr string) error {
	return s.R.Run(addr)
}

func (s *Server) abortWithError(cn *gin.Context, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidRequest):
		cn.JSON(http.StatusBadRequest, apiError{Code: "invalid_request", Message: err.Error()})
	case errors.Is(err, ports.ErrNotFound):
		cn.JSON(http.StatusNotFound, apiError{Code: "not_found", Message: err.Error()})
	default:
		s.Logger.Error(cn.Request.Context(), err, "request failed", map[string]interface{}{"path": cn.Request.URL.Path})
		cn.JSON(http.StatusInternalServerError, apiError{Code: "internal", Message: "internal error"})
	}
}

func (s *Server) getLeaderboard(cn *gin.Context) {
	window, err := leaderboard.ParseWindow(cn.Query("window"))
	if err != nil {
		cn.JSON(http.StatusBadRequest, apiError{Code: "invalid_request", Message: err.Error()})
		return
	}
	metric, err := leaderboard.ParseMetric(cn.Query("metric"))
	if err != nil {
		cn.JSON(http.StatusBadRequest, apiError{Code: "invalid_request", Message: err.Error()})
		return
	}

	limit := s.DefaultLimit
	if raw := cn.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			cn.JSON(http.StatusBadRequest, apiError{Code: "invalid_request", Message: "limit must be an integer"})
			return
		}
		if limit <= 0 {
			limit = s.DefaultLimit
		}
	}

	board, err := s.Service.Leaderboard(cn.Request.Context(), app.LeaderboardQuery{
		Window: window,
		Metric: metric,
		Limit:  limit,
	})
	if err != nil {
		s.abortWithError(cn, err)
		return
	}
	cn.JSON(http.StatusOK, board)
}

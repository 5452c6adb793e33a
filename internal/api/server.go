package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/battlelens/battlelens/internal/config"
	"github.com/battlelens/battlelens/internal/db"
	"github.com/battlelens/battlelens/internal/insights"
	"github.com/battlelens/battlelens/internal/logger"
	"github.com/battlelens/battlelens/internal/quota"
	"github.com/battlelens/battlelens/internal/vision"
)

// Server wraps the HTTP API
type Server struct {
	config    *config.Config
	governor  quota.Governor
	proxy     *vision.Proxy
	generator *insights.Generator
	store     db.HistoryStore
	router    *gin.Engine
	http      *http.Server
}

// APIResponse is the envelope used by the history, stats and insight
// endpoints. The analyze and usage endpoints speak their own fixed shapes.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// NewServer creates the API server and registers all routes
func NewServer(cfg *config.Config, governor quota.Governor, proxy *vision.Proxy, generator *insights.Generator, store db.HistoryStore) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		config:    cfg,
		governor:  governor,
		proxy:     proxy,
		generator: generator,
		store:     store,
		router:    gin.New(),
	}

	s.router.Use(gin.Recovery())
	s.router.Use(s.corsMiddleware())
	s.registerRoutes()

	return s
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	{
		api.POST("/analyze", s.analyze)
		api.GET("/usage", s.getUsage)
		api.GET("/health", s.getHealth)

		api.GET("/history", s.listHistory)
		api.GET("/history/:id", s.getHistory)
		api.POST("/history", s.saveHistory)
		api.DELETE("/history", s.clearHistory)
		api.DELETE("/history/:id", s.deleteHistory)
		api.GET("/history/stats", s.getHistoryStats)

		api.POST("/stats", s.computeStats)
		api.POST("/insights", s.getInsights)
	}
}

// Router exposes the underlying engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the HTTP server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port)
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("API server listening on %s", addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	origin := s.config.Server.CORSOrigin
	if origin == "" {
		origin = "*"
	}

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

func (s *Server) successResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func (s *Server) errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   message,
	})
}

// getHealth handles GET /api/health
func (s *Server) getHealth(c *gin.Context) {
	health := gin.H{"status": "ok"}

	if s.store != nil {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			health["status"] = "degraded"
			health["history"] = err.Error()
		} else {
			health["history"] = "ok"
		}
	}

	s.successResponse(c, health)
}

// Package httpapi exposes the dashboard state over a small REST API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edsradar/edsradar/internal/board"
	"github.com/edsradar/edsradar/internal/config"
	"github.com/edsradar/edsradar/internal/storage"
)

// Server bundles router and dependencies for the REST API.
type Server struct {
	cfg    *config.Config
	board  *board.Board
	store  *storage.Storage
	engine *gin.Engine
}

// New constructs a server with routes and middleware.
func New(cfg *config.Config, b *board.Board, store *storage.Storage) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())
	engine.Use(corsMiddleware())

	if cfg.Server.BearerToken != "" {
		engine.Use(bearerAuthMiddleware(cfg.Server.BearerToken))
	}

	server := &Server{cfg: cfg, board: b, store: store, engine: engine}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests).
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run starts the HTTP server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/stations", s.handleStations)
	api.GET("/stations/:id/history", s.handleHistory)
	api.GET("/competitors/:pbl", s.handleCompetitors)
	api.GET("/stats", s.handleStats)
	api.GET("/volatility", s.handleVolatility)
	api.GET("/alerts", s.handleAlerts)
	api.GET("/alerts/log", s.handleAlertLog)
	api.GET("/war", s.handleWarStations)
	api.GET("/corrections", s.handleListCorrections)
	api.POST("/corrections", s.handleSaveCorrection)
	api.DELETE("/corrections/:pbl", s.handleDeleteCorrection)
}

func bearerAuthMiddleware(expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		if token != expected {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

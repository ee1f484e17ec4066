// Package httpapi exposes the import pipeline and the persisted schema over
// a JSON REST API. It is a thin boundary: no parsing logic lives here.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/meterflow/d0010-ingest/internal/config"
	"github.com/meterflow/d0010-ingest/internal/importer"
	"github.com/meterflow/d0010-ingest/internal/repository"
)

// Server bundles router and dependencies for the REST API
type Server struct {
	cfg      *config.Config
	repo     *repository.Repository
	importer *importer.Importer
	logger   *zap.Logger
	engine   *gin.Engine
	srv      *http.Server
}

// New constructs a server with routes and middleware
func New(cfg *config.Config, repo *repository.Repository, imp *importer.Importer, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(corsMiddleware())

	server := &Server{
		cfg:      cfg,
		repo:     repo,
		importer: imp,
		logger:   logger,
		engine:   engine,
	}
	server.registerRoutes()
	return server
}

// Engine exposes the underlying gin engine (for tests)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start begins serving in the background
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler: s.engine,
	}

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server failed", zap.Error(err))
		}
	}()

	s.logger.Info("http server started", zap.Int("port", s.cfg.HTTP.Port))
	return nil
}

// Stop shuts the server down gracefully
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/api/v1")
	if s.cfg.HTTP.BearerToken != "" {
		v1.Use(bearerAuthMiddleware(s.cfg.HTTP.BearerToken))
	}

	v1.POST("/imports", s.handleImport)
	v1.GET("/files", s.handleListFiles)
	v1.GET("/files/:id", s.handleGetFile)
	v1.DELETE("/files/:id", s.handleDeleteFile)
	v1.GET("/meter-points", s.handleListMeterPoints)
	v1.GET("/meter-points/:mpan", s.handleGetMeterPoint)
	v1.GET("/meter-points/:mpan/readings", s.handleListReadings)
	v1.GET("/stats/summary", s.handleStatsSummary)
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

const handlerTimeout = 30 * time.Second

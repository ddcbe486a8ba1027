// Package server assembles the HTTP API server
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/alchemorsel/planner/internal/infrastructure/config"
	"github.com/alchemorsel/planner/internal/infrastructure/http/handlers"
	"github.com/alchemorsel/planner/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/planner/internal/infrastructure/monitoring"
	"github.com/alchemorsel/planner/internal/ports/inbound"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

// NewServer creates a new HTTP server instance
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	planning inbound.PlanningService,
	grocery inbound.GroceryService,
	metrics *monitoring.MetricsCollector,
) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("configure trusted proxies: %w", err)
	}

	mw := middleware.New(logger, 600, 30)
	router.Use(mw.RequestID())
	router.Use(mw.Recovery())
	router.Use(mw.Logger())
	router.Use(mw.RateLimit())
	if metrics != nil && cfg.Monitoring.EnableMetrics {
		router.Use(metrics.HTTPMiddleware())
	}

	healthPath := cfg.Monitoring.HealthCheckPath
	if healthPath == "" {
		healthPath = "/health"
	}
	router.GET(healthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
		})
	})

	if metrics != nil && cfg.Monitoring.EnableMetrics {
		metricsPath := cfg.Monitoring.MetricsPath
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		router.GET(metricsPath, gin.WrapH(metrics.Handler()))
	}

	api := router.Group("/api/v1")
	handlers.NewPlanningHandler(planning, logger).RegisterRoutes(api)
	handlers.NewGroceryHandler(grocery, logger).RegisterRoutes(api)

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}, nil
}

// Router exposes the underlying handler, used by tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving requests and blocks until the listener fails
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

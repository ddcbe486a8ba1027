// Package main provides the entry point for the meal planner API server
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	grocerysvc "github.com/alchemorsel/planner/internal/application/grocery"
	"github.com/alchemorsel/planner/internal/application/planning"
	"github.com/alchemorsel/planner/internal/application/retrieval"
	"github.com/alchemorsel/planner/internal/infrastructure/ai/mock"
	"github.com/alchemorsel/planner/internal/infrastructure/ai/ollama"
	"github.com/alchemorsel/planner/internal/infrastructure/ai/openai"
	"github.com/alchemorsel/planner/internal/infrastructure/cache"
	"github.com/alchemorsel/planner/internal/infrastructure/config"
	"github.com/alchemorsel/planner/internal/infrastructure/http/server"
	"github.com/alchemorsel/planner/internal/infrastructure/monitoring"
	gormpersistence "github.com/alchemorsel/planner/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/planner/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/planner/internal/infrastructure/recipes"
	"github.com/alchemorsel/planner/internal/infrastructure/vector"
	"github.com/alchemorsel/planner/internal/ports/outbound"
	"github.com/alchemorsel/planner/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting meal planner",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	db, err := gormpersistence.Open(cfg.Database)
	if err != nil {
		appLogger.Fatal("Failed to open database", zap.Error(err))
	}

	planRepo := gormpersistence.NewPlanRepository(db)
	conversationRepo := gormpersistence.NewConversationRepository(db)
	groceryRepo := gormpersistence.NewGroceryListRepository(db)

	var cacheRepo outbound.CacheRepository
	redisCache, err := cache.NewRedisCache(cfg.Redis, appLogger)
	if err != nil {
		appLogger.Warn("Redis unavailable, using in-process cache", zap.Error(err))
		cacheRepo = memory.NewCacheRepository()
	} else {
		cacheRepo = redisCache
		defer redisCache.Close()
	}

	var llm outbound.LLMService
	switch cfg.AI.Provider {
	case "ollama":
		llm = ollama.NewClient(cfg.AI, appLogger)
	case "openai":
		llm = openai.NewClient(cfg.AI, appLogger)
	default:
		appLogger.Info("Using offline mock AI provider")
		llm = mock.NewClient()
	}

	vectorClient := vector.NewClient(cfg.Vector, appLogger)
	recipeClient := recipes.NewClient(cfg.Recipes, appLogger)
	aggregator := retrieval.NewAggregator(vectorClient, retrieval.Options{
		PerCollectionLimit: cfg.Retrieval.PerCollectionLimit,
		MaxCandidates:      cfg.Retrieval.MaxCandidates,
		SearchTimeout:      cfg.Retrieval.SearchTimeout,
	}, appLogger)
	orchestrator := planning.NewOrchestrator(llm, cfg.AI.RequestTimeout, appLogger)

	metrics := monitoring.NewMetricsCollector(appLogger)

	planningService := planning.NewService(
		planRepo, conversationRepo, aggregator, orchestrator, recipeClient, metrics, appLogger)
	groceryService := grocerysvc.NewService(
		planRepo, groceryRepo, cacheRepo, appLogger)

	httpServer, err := server.NewServer(cfg, appLogger, planningService, groceryService, metrics)
	if err != nil {
		appLogger.Fatal("Failed to build HTTP server", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpServer.Start(); err != nil {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-quit
	appLogger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Graceful shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/opencouncil/councilsearch/internal/agent"
	"github.com/opencouncil/councilsearch/internal/api"
	"github.com/opencouncil/councilsearch/internal/config"
	"github.com/opencouncil/councilsearch/internal/llm"
	"github.com/opencouncil/councilsearch/internal/ratelimit"
	"github.com/opencouncil/councilsearch/internal/repository"
	"github.com/opencouncil/councilsearch/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

func main() {
	flag.Parse()

	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Initialize database
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize repositories
	indexRepo := repository.NewIndexRepository(db)
	resultRepo := repository.NewResultRepository(db)

	// Initialize generative model; without a key the server still serves
	// keyword search and summarized answers
	var gen llm.TextGenerator
	if cfg.LLM.APIKey != "" {
		gemini, err := llm.NewGemini(context.Background(), cfg.LLM.APIKey, cfg.LLM.Model)
		if err != nil {
			logger.Warn("Failed to initialize Gemini, answers degrade to summaries", zap.Error(err))
		} else {
			gen = gemini
		}
	} else {
		logger.Info("No LLM API key configured, answers degrade to summaries")
	}

	// Initialize services
	retrievalAgent := agent.NewRetrievalAgent(indexRepo, gen, logger)
	searchService := service.NewSearchService(nil, indexRepo, cfg.Search.MaxResults, logger)
	followupService := service.NewFollowupService(gen, logger)
	streamService := service.NewStreamService(retrievalAgent, followupService, resultRepo, cfg.Tenant.Name, logger)
	ingestService := service.NewIngestService(indexRepo, resultRepo, logger)

	limiter := ratelimit.NewSlidingWindow(cfg.RateLimit.Window(), cfg.RateLimit.MaxRequests)

	// Setup router
	router := api.SetupRouter(searchService, streamService, ingestService, resultRepo, limiter, logger, api.RouterConfig{
		APIKey:       cfg.Admin.APIKey,
		BaseURL:      cfg.Server.BaseURL,
		AllowOrigins: []string{"*"},
	})

	// Create HTTP server. WriteTimeout stays zero: a non-zero value would
	// sever long-lived answer streams mid-flight.
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting CouncilSearch server",
			zap.String("address", cfg.Address()),
			zap.String("tenant", cfg.Tenant.Name),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"github.com/urfave/negroni"

	"github.com/lcabral/docqa/config"
	"github.com/lcabral/docqa/conversation"
	"github.com/lcabral/docqa/db"
	"github.com/lcabral/docqa/logging"
	"github.com/lcabral/docqa/plugin_registry"
	"github.com/lcabral/docqa/scheduler"
	"github.com/lcabral/docqa/server"
	"github.com/lcabral/docqa/services/llm_service"
	"github.com/lcabral/docqa/services/observability_service"
	"github.com/lcabral/docqa/services/rag_service"
)

func main() {
	cfg := config.Load()

	logger, err := initLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx, pool, cfg.EmbeddingDimensions); err != nil {
		logger.Error("Failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize PluginRegistry
	registry := plugin_registry.NewPluginRegistry()
	registerServices(registry, logger, cfg)

	llmService, ok := registry.GetLLMService(cfg.LLMProvider)
	if !ok {
		logger.Error("Unknown LLM provider", slog.String("provider", cfg.LLMProvider))
		os.Exit(1)
	}
	embedder, ok := registry.GetEmbeddingService("openai")
	if !ok {
		logger.Error("No embedding service registered")
		os.Exit(1)
	}

	recorder := observability_service.NewRecorder(pool, logger)
	promptRegistry := observability_service.NewPromptRegistry(pool, logger)
	if err := promptRegistry.EnsureDefault(ctx, rag_service.DefaultQATemplateKey,
		rag_service.DefaultQATemplate, "Built-in QA instruction template"); err != nil {
		logger.Error("Failed to seed default prompt template", slog.String("error", err.Error()))
		os.Exit(1)
	}

	gateway := llm_service.NewGateway(llmService, recorder, logger,
		cfg.LLMTimeout, cfg.InputTokenCostPer1K, cfg.OutputTokenCostPer1K)

	conversations := conversation.NewStore(cfg.ConversationTTL, logger)
	conversations.StartCleanup(10 * time.Minute)

	chunkStore := rag_service.NewPgChunkStore(pool, logger, cfg.EmbeddingDimensions)
	chunker := rag_service.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	engine := rag_service.NewEngine(chunkStore, embedder, gateway, promptRegistry,
		conversations, chunker, logger, rag_service.EngineConfig{
			Model:            cfg.LLMModel,
			TopK:             cfg.TopKResults,
			MaxFileSizeBytes: int64(cfg.MaxFileSizeMB) << 20,
			MaxContextChars:  cfg.MaxContextChars,
		})

	// Keep the ivfflat index sized to the corpus as it grows.
	indexManager := rag_service.NewIndexManager(pool, logger)
	s := scheduler.New(cfg.ReindexInterval, indexManager, logger)
	go s.Start()

	r := server.SetupRoutes(server.Dependencies{
		DB:            pool,
		Engine:        engine,
		Embedder:      embedder,
		Recorder:      recorder,
		Registry:      promptRegistry,
		Conversations: conversations,
		Model:         cfg.LLMModel,
		MaxUploadMB:   cfg.MaxFileSizeMB,
		Logger:        logger,
	})
	n := setupNegroni(r)

	if cfg.Environment == "production" {
		server.ServeProduction(n, server.Config{
			Domains:      cfg.Domains,
			CertCacheDir: cfg.CertCacheDir,
			HTTPPort:     "80",
			HTTPSPort:    cfg.HTTPSPort,
		})
	} else {
		srv := &http.Server{
			Addr:         ":" + cfg.HTTPPort,
			Handler:      n,
			IdleTimeout:  time.Minute,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 60 * time.Second,
		}
		logger.Info("Starting server", slog.String("port", cfg.HTTPPort))
		server.ServeDevelopment(srv)
	}
}

func setupNegroni(r *mux.Router) *negroni.Negroni {
	n := negroni.New()

	n.Use(negroni.NewRecovery())
	n.Use(negroni.NewLogger())

	n.UseHandler(r)
	return n
}

func registerServices(registry *plugin_registry.PluginRegistry, logger *slog.Logger, cfg config.Config) {
	registry.RegisterLLMService("groq", llm_service.NewGroqService(logger, cfg.LLMTimeout))
	registry.RegisterLLMService("openai", llm_service.NewOpenAIService(logger, cfg.LLMTimeout))

	registry.RegisterEmbeddingService("openai",
		rag_service.NewOpenAIEmbeddingService(logger, cfg.EmbeddingModel, cfg.EmbeddingDimensions))
}

func initLogger(logDir string) (*slog.Logger, error) {
	fileHandler, err := logging.NewDailyFileHandler(logDir, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	if err != nil {
		return nil, err
	}

	logger := slog.New(fileHandler)
	slog.SetDefault(logger)

	return logger, nil
}

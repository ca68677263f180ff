package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/ragdex/internal/chunker"
	"github.com/kailas-cloud/ragdex/internal/config"
	"github.com/kailas-cloud/ragdex/internal/db"
	dbRedis "github.com/kailas-cloud/ragdex/internal/db/redis"
	"github.com/kailas-cloud/ragdex/internal/domain"
	"github.com/kailas-cloud/ragdex/internal/index"
	"github.com/kailas-cloud/ragdex/internal/loader"
	logpkg "github.com/kailas-cloud/ragdex/internal/logger"
	"github.com/kailas-cloud/ragdex/internal/metrics"
	"github.com/kailas-cloud/ragdex/internal/repository/embcache"
	sessionrepo "github.com/kailas-cloud/ragdex/internal/repository/session"
	chiTransport "github.com/kailas-cloud/ragdex/internal/transport/chi"
	"github.com/kailas-cloud/ragdex/internal/transport/ollama"
	openaiTransport "github.com/kailas-cloud/ragdex/internal/transport/openai"
	answeruc "github.com/kailas-cloud/ragdex/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/ragdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/ragdex/internal/usecase/ingest"
	retrieveuc "github.com/kailas-cloud/ragdex/internal/usecase/retrieve"
	sessionuc "github.com/kailas-cloud/ragdex/internal/usecase/session"
	"github.com/kailas-cloud/ragdex/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("provider", cfg.Provider.Kind),
		zap.String("embed_model", cfg.Provider.EmbedModel),
		zap.String("chat_model", cfg.Provider.ChatModel),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterProviderMetrics()

	// Redis is optional: it backs the session store and the embedding
	// cache when configured.
	var store db.Store
	if len(cfg.Redis.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Redis.Addrs,
			Password: cfg.Redis.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()

		ctx := context.Background()
		if err := store.WaitForReady(ctx, time.Duration(cfg.Redis.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		logger.Info("Connected to redis", zap.Strings("addrs", cfg.Redis.Addrs))
	}

	embedder, generator, unloader, providerHealth := buildProvider(cfg, logger)

	// Embedding cache sits between the usecases and the provider.
	if store != nil && cfg.Redis.CacheEmbeddings {
		embedder = embcache.New(embedder, store, metrics.EmbeddingCacheTotal, logger)
		logger.Info("Embedding cache enabled")
	}

	// The vector index owns its directory; opening with no snapshot
	// yields an empty, queryable index.
	ix, err := index.Open(cfg.Storage.IndexDir, logger)
	if err != nil {
		logger.Fatal("Failed to open vector index", zap.Error(err))
	}
	metrics.IndexChunks.Set(float64(ix.Len()))
	logger.Info("Vector index opened",
		zap.String("dir", cfg.Storage.IndexDir),
		zap.Int("chunks", ix.Len()),
	)

	docs := loader.NewFS(cfg.Storage.DocsDir, logger)
	splitter := chunker.New(
		chunker.WithSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	if !cfg.Provider.UnloadAfterUse {
		unloader = nil
	}

	// Session backend
	var sessions *sessionuc.Service
	switch cfg.Sessions.Backend {
	case "redis":
		sessions = sessionuc.New(sessionrepo.NewRedisStore(store, logger), logger)
	default:
		fileStore, err := sessionrepo.NewFileStore(cfg.Sessions.Dir, logger)
		if err != nil {
			logger.Fatal("Failed to create session store", zap.Error(err))
		}
		sessions = sessionuc.New(fileStore, logger)
	}

	// Use case services
	ingestSvc := ingestuc.New(docs, splitter, embedder, ix, unloader, logger)
	retrieveSvc := retrieveuc.New(embedder, ix, cfg.Retrieval.TopK, logger)
	answerSvc := answeruc.New(retrieveSvc, generator, logger)

	var pinger healthuc.DBPinger
	if store != nil {
		pinger = store
	}
	healthSvc := healthuc.New(providerHealth, pinger, ix)

	server := chiTransport.NewServer(answerSvc, ingestSvc, sessions, ix, healthSvc, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildProvider assembles the embedder/generator pair for the
// configured provider kind. Ollama serves both from one client so
// Unload can evict both models.
func buildProvider(cfg config.Config, logger *zap.Logger) (
	domain.Embedder, domain.Generator, domain.ModelUnloader, healthuc.ProviderChecker,
) {
	switch cfg.Provider.Kind {
	case "openai":
		provCfg := &openaiTransport.Config{
			APIKey:      cfg.Provider.APIKey,
			BaseURL:     cfg.Provider.BaseURL,
			EmbedModel:  cfg.Provider.EmbedModel,
			ChatModel:   cfg.Provider.ChatModel,
			Temperature: cfg.Provider.Temperature,
			TopP:        cfg.Provider.TopP,
			MaxTokens:   cfg.Provider.MaxTokens,
			Logger:      logger,
		}
		emb := openaiTransport.NewEmbedder(provCfg)
		gen := openaiTransport.NewGenerator(provCfg)
		return emb, gen, emb, emb

	default: // "ollama", enforced by config validation
		client := ollama.New(ollama.Config{
			BaseURL:     cfg.Provider.BaseURL,
			EmbedModel:  cfg.Provider.EmbedModel,
			ChatModel:   cfg.Provider.ChatModel,
			Temperature: cfg.Provider.Temperature,
			TopP:        cfg.Provider.TopP,
			MaxTokens:   cfg.Provider.MaxTokens,
			Timeout:     time.Duration(cfg.Provider.TimeoutSec) * time.Second,
			Logger:      logger,
		})
		return client, client, client, client
	}
}

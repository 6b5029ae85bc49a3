package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/campusconnect/chatbot-service/internal/configs"
	"github.com/campusconnect/chatbot-service/internal/domain/chat"
	"github.com/campusconnect/chatbot-service/internal/domain/dedup"
	"github.com/campusconnect/chatbot-service/internal/domain/document"
	"github.com/campusconnect/chatbot-service/internal/domain/embedding"
	"github.com/campusconnect/chatbot-service/internal/domain/memory"
	"github.com/campusconnect/chatbot-service/internal/domain/runlog"
	"github.com/campusconnect/chatbot-service/internal/domain/stats"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/cache"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/crontab"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/database/repository/chatbotrepo"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/llm"
	"github.com/campusconnect/chatbot-service/internal/infrastructure/postgres"
	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/handlers"
	"github.com/campusconnect/chatbot-service/internal/interfaces/httpserver/middleware"
	"github.com/campusconnect/chatbot-service/internal/metrics"
)

const chatPath = "/v1/chatbot/chat"

type Application struct {
	server *http.Server
	cron   *crontab.Crontab
	db     *gorm.DB
	sqlDB  *sql.DB
	pgPool *pgxpool.Pool
	redis  *cache.RedisCache
}

func newApplication(cfg *configs.Config) (*Application, error) {
	ctx := context.Background()

	db, err := gorm.Open(gormpostgres.Open(cfg.GetDatabaseWriteDSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("database handle: %w", err)
	}

	if err := db.WithContext(ctx).Raw("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("Database connection established")

	if err := runMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		return nil, err
	}
	log.Info().Msg("Database migrations applied")

	// Vector searches go to the read DSN; everything else writes.
	pgPool, err := pgxpool.New(ctx, cfg.GetDatabaseReadDSN())
	if err != nil {
		return nil, fmt.Errorf("connect search pool: %w", err)
	}
	if err := pgPool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping search pool: %w", err)
	}

	// Redis backs the embedding cache and the dedup lock when configured.
	var redisCache *cache.RedisCache
	var locker dedup.Locker = dedup.NoopLocker{}

	cacheConfig := embedding.CacheConfig{
		Type:    cfg.EmbeddingCacheType,
		MaxSize: cfg.EmbeddingCacheMaxSize,
		TTL:     cfg.EmbeddingCacheTTL,
	}
	if cfg.EmbeddingCacheType == "redis" {
		redisCache, err = cache.NewRedisCache(cfg.EmbeddingCacheRedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		locker = redisCache
		cacheConfig.RedisOpen = func() (embedding.Cache, error) {
			return cache.NewEmbeddingCache(redisCache, cfg.EmbeddingCacheKeyPrefix, cfg.EmbeddingCacheTTL), nil
		}
	}

	embeddingClient, err := embedding.NewHTTPClient(cfg.EmbeddingServiceURL, cfg.EmbeddingDimension, cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}

	if cfg.ValidateEmbedding {
		validateCtx, cancel := context.WithTimeout(ctx, cfg.ValidateEmbeddingTimeout)
		defer cancel()

		if err := embeddingClient.ValidateServer(validateCtx); err != nil {
			return nil, fmt.Errorf("validate embedding server: %w", err)
		}
		log.Info().Msg("Embedding server validated successfully")
	}

	repo := chatbotrepo.NewRepository(db)
	searcher := postgres.NewVectorSearcher(pgPool)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxTokens, cfg.LLMTimeout)

	tracker := runlog.NewTracker(repo, cfg.RunTrackingEnabled)
	distiller := memory.NewDistiller(repo, llmClient, embeddingClient, cfg.MemoryMinAnswerLength)

	chatService := chat.NewService(embeddingClient, searcher, searcher, llmClient, repo, distiller, tracker, chat.Config{
		RetrievalK:          cfg.RetrievalK,
		RetrievalCandidates: cfg.RetrievalCandidates,
		RetrievalMinScore:   cfg.RetrievalMinScore,
		ContextBudget:       cfg.ContextBudget,
	})

	dedupService := dedup.NewService(repo, embeddingClient, locker, dedup.Config{
		MergeThreshold: cfg.DedupThreshold,
		TopN:           cfg.DedupTopN,
		BatchSize:      cfg.DedupBatchLimit,
		LockName:       cfg.DedupLockName,
	})

	documentService := document.NewService(repo, embeddingClient, searcher, document.Config{
		ChunkSize:     cfg.DocumentChunkSize,
		ChunkOverlap:  cfg.DocumentChunkOverlap,
		SearchK:       cfg.RetrievalK,
		NumCandidates: cfg.RetrievalCandidates,
		MinScore:      cfg.RetrievalMinScore,
	})

	statsService := stats.NewService(repo, dedupService, cfg.DedupTopN)

	chatHandler := handlers.NewChatHandler(chatService)
	statsHandler := handlers.NewStatsHandler(statsService)
	documentHandler := handlers.NewDocumentHandler(documentService)
	historyHandler := handlers.NewHistoryHandler(repo)
	dedupHandler := handlers.NewDedupHandler(dedupService)
	healthHandler := handlers.NewHealthHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthHandler.HandleHealth)
	mux.HandleFunc(chatPath, chatHandler.HandleChat)
	mux.HandleFunc("/v1/chatbot/stats", statsHandler.HandleStats)
	mux.HandleFunc("/v1/chatbot/search", documentHandler.HandleSearch)
	mux.HandleFunc("/v1/chatbot/documents", documentHandler.HandleIngest)
	mux.HandleFunc("/v1/chatbot/history", historyHandler.HandleHistory)
	mux.HandleFunc("/v1/chatbot/dedup/run", dedupHandler.HandleRun)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", metrics.Handler())

	handler := middleware.TimeoutMiddleware(cfg.RequestTimeout, chatPath)(mux)
	handler = middleware.MetricsMiddleware()(handler)
	handler = middleware.AuthMiddleware(cfg.APIKey)(handler)
	handler = middleware.RequestIDMiddleware()(handler)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:     handler,
		ReadTimeout: cfg.RequestTimeout,
		// The write budget covers the streaming endpoint, not just JSON calls.
		WriteTimeout: cfg.StreamTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var cron *crontab.Crontab
	if cfg.DedupEnabled {
		cron = crontab.NewCrontab(dedupService, cfg.DedupCronSpec)
	}

	return &Application{
		server: server,
		cron:   cron,
		db:     db,
		sqlDB:  sqlDB,
		pgPool: pgPool,
		redis:  redisCache,
	}, nil
}

func (a *Application) Start(ctx context.Context) error {
	log.Info().Msg("Starting Campus Chatbot Service")

	if a.cron != nil {
		go func() {
			if err := a.cron.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Cron scheduler stopped")
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.server.Addr).Msg("Campus Chatbot Service listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}

	a.pgPool.Close()
	if a.sqlDB != nil {
		_ = a.sqlDB.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}

	log.Info().Msg("Server exited")
	return nil
}

func runMigrations(ctx context.Context, db *gorm.DB, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		sqlBytes, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		log.Info().Str("migration", entry.Name()).Msg("Applying migration")
		if err := db.WithContext(ctx).Exec(string(sqlBytes)).Error; err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ragsearch/internal/config"
	dbRedis "github.com/kailas-cloud/ragsearch/internal/db/redis"
	logpkg "github.com/kailas-cloud/ragsearch/internal/logger"
	"github.com/kailas-cloud/ragsearch/internal/metrics"
	chunkrepo "github.com/kailas-cloud/ragsearch/internal/repository/chunk"
	chiTransport "github.com/kailas-cloud/ragsearch/internal/transport/chi"
	openaiEmb "github.com/kailas-cloud/ragsearch/internal/transport/openai"
	"github.com/kailas-cloud/ragsearch/internal/transport/serper"
	"github.com/kailas-cloud/ragsearch/internal/transport/web"
	fetchuc "github.com/kailas-cloud/ragsearch/internal/usecase/fetch"
	filteruc "github.com/kailas-cloud/ragsearch/internal/usecase/filter"
	healthuc "github.com/kailas-cloud/ragsearch/internal/usecase/health"
	raguc "github.com/kailas-cloud/ragsearch/internal/usecase/rag"
	rerankuc "github.com/kailas-cloud/ragsearch/internal/usecase/rerank"
	retrieveuc "github.com/kailas-cloud/ragsearch/internal/usecase/retrieve"
	"github.com/kailas-cloud/ragsearch/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting ragsearch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register metrics explicitly (no init())
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterPipelineMetrics()

	embedder := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	logger.Info("Embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	chunkRepo := chunkrepo.New(store, cfg.Filter.KeyPrefix).WithHNSW(chunkrepo.HNSWConfig{
		M:           cfg.Filter.HNSWM,
		EFConstruct: cfg.Filter.HNSWEFConstruct,
	})
	if err := chunkRepo.EnsureIndex(ctx, cfg.Embedding.Dimensions); err != nil {
		logger.Fatal("Failed to create chunk index", zap.Error(err))
	}

	searchClient := serper.NewClient(&serper.Config{
		APIKey:  cfg.Search.APIKey,
		BaseURL: cfg.Search.BaseURL,
		Logger:  logger,
	})
	fetcher := web.NewFetcher(&web.Config{
		Timeout:      time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		UserAgent:    cfg.Fetch.UserAgent,
		MaxIdleConns: cfg.Fetch.MaxIdleConns,
		Logger:       logger,
	})

	// Create use case services
	retrieveSvc := retrieveuc.NewService(map[string]retrieveuc.SearchProvider{
		"google": searchClient,
	}, logger)
	rerankSvc := rerankuc.NewService(embedder, logger)
	fetchSvc := fetchuc.NewService(fetcher, logger)
	filterSvc := filteruc.NewService(
		chunkRepo, embedder,
		filteruc.NewChunker(cfg.Filter.ChunkSize, cfg.Filter.ChunkOverlap),
		logger,
	)
	ragSvc := raguc.NewService(retrieveSvc, rerankSvc, fetchSvc, filterSvc)

	// Health service
	healthSvc := healthuc.New(store, embedder)

	// Create chi server
	server := chiTransport.NewServer(ragSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
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

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}

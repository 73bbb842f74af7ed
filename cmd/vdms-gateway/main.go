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

	"github.com/cwlacewe/vdms-go/internal/config"
	"github.com/cwlacewe/vdms-go/internal/db"
	dbRedis "github.com/cwlacewe/vdms-go/internal/db/redis"
	"github.com/cwlacewe/vdms-go/internal/domain"
	logpkg "github.com/cwlacewe/vdms-go/internal/logger"
	"github.com/cwlacewe/vdms-go/internal/metrics"
	descriptorrepo "github.com/cwlacewe/vdms-go/internal/repository/descriptor"
	descriptorsetrepo "github.com/cwlacewe/vdms-go/internal/repository/descriptorset"
	"github.com/cwlacewe/vdms-go/internal/repository/embcache"
	chiTransport "github.com/cwlacewe/vdms-go/internal/transport/chi"
	openaiEmb "github.com/cwlacewe/vdms-go/internal/transport/openai"
	"github.com/cwlacewe/vdms-go/internal/transport/vdmsconn"
	collectionuc "github.com/cwlacewe/vdms-go/internal/usecase/collection"
	documentuc "github.com/cwlacewe/vdms-go/internal/usecase/document"
	healthuc "github.com/cwlacewe/vdms-go/internal/usecase/health"
	searchuc "github.com/cwlacewe/vdms-go/internal/usecase/search"
	"github.com/cwlacewe/vdms-go/internal/version"
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

	logger.Info("Starting vdms gateway",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vdms_host", cfg.VDMS.Host),
		zap.Int("vdms_port", cfg.VDMS.Port),
		zap.String("collection", cfg.Collection.Name),
	)

	// Register metrics explicitly (no init())
	metrics.Register()

	ctx := context.Background()

	conn, err := vdmsconn.Dial(vdmsconn.Config{
		Host:        cfg.VDMS.Host,
		Port:        cfg.VDMS.Port,
		DialTimeout: time.Duration(cfg.VDMS.DialTimeoutSec) * time.Second,
		Logger:      logger,
	})
	if err != nil {
		logger.Fatal("Failed to connect to VDMS", zap.Error(err))
	}
	defer func() { _ = conn.Close() }()
	logger.Info("Connected to VDMS", zap.String("addr", conn.Addr()))

	// Embedding cache store (optional)
	var cacheStore db.Store
	if cfg.Cache.Enabled {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		cacheStore = store
		logger.Info("Connected to embedding cache")
	}

	embedder, embHealth := buildEmbedder(cfg, cacheStore, logger)

	dims := cfg.Collection.Dimensions
	if dims == 0 {
		dims, err = domain.ProbeDimensions(ctx, embedder)
		if err != nil {
			logger.Fatal("Failed to probe embedding dimensions", zap.Error(err))
		}
		logger.Info("Probed embedding dimensions", zap.Int("dimensions", dims))
	}

	col := domain.Collection{
		Name:       cfg.Collection.Name,
		Engine:     domain.Engine(cfg.Collection.Engine),
		Metric:     domain.Metric(cfg.Collection.Metric),
		Dimensions: dims,
	}

	setRepo := descriptorsetrepo.New(conn)
	docRepo := descriptorrepo.New(conn).WithBatchSize(cfg.Collection.BatchSize)

	colSvc := collectionuc.New(setRepo, col, logger)
	if err := colSvc.Ensure(ctx); err != nil {
		logger.Fatal("Failed to ensure collection", zap.Error(err))
	}

	docSvc := documentuc.New(docRepo, colSvc, embedder, logger)
	searchSvc := searchuc.New(docRepo, colSvc, embedder, logger)

	var cachePinger healthuc.CachePinger
	if cacheStore != nil {
		cachePinger = cacheStore
	}
	healthSvc := healthuc.New(
		&storePinger{sets: setRepo, collection: col.Name},
		embHealth,
		cachePinger,
	)

	server := chiTransport.NewServer(docSvc, searchSvc, healthSvc, logger)

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

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
func buildEmbedder(
	cfg config.Config, cacheStore db.Store, logger *zap.Logger,
) (domain.Embedder, healthuc.EmbeddingChecker) {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cacheStore != nil {
		embedder = embcache.New(base, cacheStore, metrics.EmbeddingCacheTotal, logger)
	}

	// Instruction prefix is outermost so cache keys include it
	if cfg.Embedding.DocumentInstruction != "" || cfg.Embedding.QueryInstruction != "" {
		embedder = domain.NewInstructionEmbedder(
			embedder, cfg.Embedding.DocumentInstruction, cfg.Embedding.QueryInstruction,
		)
	}

	return embedder, base
}

// storePinger checks VDMS availability with a cheap registry read.
type storePinger struct {
	sets       *descriptorsetrepo.Repo
	collection string
}

func (p *storePinger) Ping(ctx context.Context) error {
	if _, err := p.sets.Properties(ctx, p.collection); err != nil {
		return fmt.Errorf("vdms ping: %w", err)
	}
	return nil
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

			// Set X-Request-ID in response header
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

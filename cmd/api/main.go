package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/physique/internal/api"
	"example.com/physique/internal/assets"
	"example.com/physique/internal/auth"
	"example.com/physique/internal/cache"
	"example.com/physique/internal/config"
	"example.com/physique/internal/domain"
	"example.com/physique/internal/freshness"
	"example.com/physique/internal/observability"
	"example.com/physique/internal/persistence/memory"
	persistence "example.com/physique/internal/persistence/postgres"
	"example.com/physique/internal/publish"
	"example.com/physique/internal/refresh"
	"example.com/physique/internal/stream"
	httptransport "example.com/physique/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger("physique-api", cfg.LogLevel)
	slog.SetDefault(logger)

	if err := observability.InitSentry(observability.SentryConfig{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
	}, logger); err != nil {
		logger.Warn("sentry disabled", "error", err)
	}
	defer observability.FlushSentry(2 * time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		store   freshness.Store
		history domain.HistoryRepository
	)
	if cfg.PostgresURL != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		repo := persistence.NewRepository(pool)
		store, history = repo, repo
	} else {
		logger.Warn("POSTGRES_URL not set, using in-memory storage")
		repo := memory.NewRepository()
		store, history = repo, repo
	}

	producer := publish.NewKafkaPublisher(cfg.KafkaBrokers, cfg.ScoresTopic)
	defer producer.Close()

	var invalidator cache.Invalidator = cache.NoopInvalidator{}
	if cfg.CacheInvalidationURL != "" {
		invalidator = cache.NewHTTPInvalidator(cfg.CacheInvalidationURL, cfg.CacheInvalidationToken, cfg.HTTPTimeout)
	}

	service := domain.NewService(store,
		domain.WithHistory(history),
		domain.WithPublisher(producer),
		domain.WithInvalidator(invalidator),
		domain.WithLogger(logger),
	)

	scheduler := refresh.NewScheduler(service, refresh.WithSchedule(cfg.RefreshSchedule), refresh.WithLogger(logger))
	if err := scheduler.Start(ctx); err != nil {
		logger.Error("failed to start refresh scheduler", "error", err)
		os.Exit(1)
	}

	handler := api.NewHandler(service,
		api.WithLogger(logger),
		api.WithModels(assets.NewDirectory(cfg.ModelDir), cfg.DefaultModelKey),
		api.WithOriginPatterns(originHost(cfg.CORSOrigin)),
		api.WithHostOptions(
			stream.WithPreloadDelay(cfg.PreloadDelay),
			stream.WithSenderOptions(stream.WithChunkSize(cfg.ChunkSize), stream.WithChunkDelay(cfg.ChunkDelay)),
		),
	)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	// WriteTimeout stays zero: the body-map stream holds its connection open.
	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:     cfg.HTTPAddress,
		ReadTimeout: 5 * time.Second,
		IdleTimeout: 60 * time.Second,
	}, httptransport.Chain(mux,
		httptransport.Recover(logger),
		httptransport.RequestLogger(logger),
		httptransport.CORS(cfg.CORSOrigin),
		authMiddleware.Wrap,
	))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("physique-api listening", "address", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			observability.CaptureError(err, nil)
			os.Exit(1)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}
	scheduler.Stop(shutdownCtx)
}

// originHost turns a CORS origin into the host pattern the websocket origin
// check matches against.
func originHost(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return u.Host
	}
	return origin
}

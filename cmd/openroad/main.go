package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/openroad-dev/openroad/internal/adapter/failover"
	"github.com/openroad-dev/openroad/internal/adapter/gemini"
	"github.com/openroad-dev/openroad/internal/adapter/github"
	orhttp "github.com/openroad-dev/openroad/internal/adapter/http"
	"github.com/openroad-dev/openroad/internal/adapter/memory"
	ornats "github.com/openroad-dev/openroad/internal/adapter/nats"
	orotel "github.com/openroad-dev/openroad/internal/adapter/otel"
	"github.com/openroad-dev/openroad/internal/adapter/postgres"
	"github.com/openroad-dev/openroad/internal/adapter/ristretto"
	"github.com/openroad-dev/openroad/internal/adapter/snowflake"
	"github.com/openroad-dev/openroad/internal/adapter/synthetic"
	"github.com/openroad-dev/openroad/internal/config"
	"github.com/openroad-dev/openroad/internal/logger"
	"github.com/openroad-dev/openroad/internal/port/analytics"
	"github.com/openroad-dev/openroad/internal/port/database"
	"github.com/openroad-dev/openroad/internal/port/notifier"
	"github.com/openroad-dev/openroad/internal/resilience"
	"github.com/openroad-dev/openroad/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"models", len(cfg.Gemini.Models),
		"tree_depth", cfg.GitHub.MaxTreeDepth,
	)

	ctx := context.Background()

	// --- Telemetry ---
	if cfg.Telemetry.Enabled {
		shutdown, err := orotel.Init(ctx, cfg.Logging.Service, cfg.Telemetry.Endpoint)
		if err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
		slog.Info("telemetry initialized", "endpoint", cfg.Telemetry.Endpoint)
	}

	var instr *orotel.Metrics
	if cfg.Telemetry.Enabled {
		instr, err = orotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	// --- Storage ---
	var connect failover.ConnectFunc
	if cfg.Postgres.DSN != "" {
		pgCfg := cfg.Postgres
		connect = func(ctx context.Context) (database.Store, error) {
			pool, err := postgres.NewPool(ctx, pgCfg)
			if err != nil {
				return nil, err
			}
			if err := postgres.RunMigrations(ctx, pgCfg.DSN); err != nil {
				pool.Close()
				return nil, err
			}
			return postgres.NewStore(pool), nil
		}
	} else {
		slog.Warn("no database configured, roadmaps are held in memory only")
	}
	store := failover.NewStore(connect, memory.NewStore(), log)

	// --- Cache ---
	l1, err := ristretto.New(int64(cfg.Cache.L1MaxSizeMB) << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer l1.Close()

	// --- Analysis providers ---
	providers := gemini.NewProviders(cfg.Gemini)
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		if gp, ok := p.(*gemini.Provider); ok {
			gp.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Cooldown))
		}
		names = append(names, p.Name())
	}

	// --- Analytics ---
	var live analytics.Source
	if cfg.Snowflake.Account != "" && cfg.Snowflake.User != "" && cfg.Snowflake.Password != "" {
		live = snowflake.New(cfg.Snowflake)
		slog.Info("snowflake analytics enabled", "account", cfg.Snowflake.Account)
	} else {
		slog.Info("snowflake not configured, serving synthetic metrics")
	}

	// --- Notifier ---
	var events notifier.Notifier
	if cfg.NATS.URL != "" {
		pub, err := ornats.Connect(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			slog.Warn("nats unavailable, completion events disabled", "error", err)
		} else {
			defer func() { _ = pub.Close() }()
			events = pub
		}
	}

	// --- Services ---
	roadmapSvc := service.NewRoadmapService(store, l1, cfg.Cache.MaxAge, log)
	analysisSvc := service.NewAnalysisService(providers, service.GenerationParams{
		Temperature:     cfg.Gemini.Temperature,
		TopK:            cfg.Gemini.TopK,
		TopP:            cfg.Gemini.TopP,
		MaxOutputTokens: cfg.Gemini.MaxOutputTokens,
	}, log)
	metricsSvc := service.NewMetricsService(live, synthetic.New(), log)
	pipelineSvc := service.NewPipelineService(
		github.NewFetcher(cfg.GitHub),
		analysisSvc,
		metricsSvc,
		roadmapSvc,
		events,
		instr,
		log,
	)

	// --- HTTP ---
	handlers := &orhttp.Handlers{
		Pipeline:       pipelineSvc,
		Roadmaps:       roadmapSvc,
		Metrics:        metricsSvc,
		StorageDurable: store.Durable,
		ProviderNames:  names,
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(orhttp.RequestID)
	r.Use(orhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(orhttp.Logger)
	r.Use(orhttp.SecurityHeaders)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(120 * time.Second))
	if cfg.Telemetry.Enabled {
		r.Use(orotel.HTTPMiddleware(cfg.Logging.Service))
	}

	orhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

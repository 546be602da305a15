package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"staticfund-api/internal/advice"
	"staticfund-api/internal/auth"
	"staticfund-api/internal/backup"
	"staticfund-api/internal/cache"
	"staticfund-api/internal/config"
	"staticfund-api/internal/handlers"
	"staticfund-api/internal/httpserver"
	"staticfund-api/internal/llm"
	"staticfund-api/internal/metrics"
	"staticfund-api/internal/middleware"
	"staticfund-api/internal/ratelimit"
	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

type loadFunc func() (*config.Config, error)

func newServeCmd(load loadFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	// ----- Logger -----
	logger := logging.DefaultLogger()
	defer logger.Sync()

	// ----- Metrics -----
	metrics.Register()

	logger.Info("loaded config",
		zap.String("port", cfg.Server.Port),
		zap.String("db_path", cfg.Database.Path),
		zap.String("gemini_model", cfg.Gemini.Model),
		zap.String("rate_limit_backend", cfg.RateLimit.Backend),
		zap.Strings("allowed_origins", cfg.CORS.AllowedOrigins),
		zap.String("backup_schedule", cfg.Backup.Schedule),
	)

	if cfg.Gemini.APIKey == "" {
		return errors.New("GOOGLE_API_KEY is required")
	}

	// ----- Auth -----
	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	passwords, err := auth.NewPasswords(cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}

	// ----- Store -----
	db, err := store.Open(ctx, cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	// ----- LLM client -----
	llmClient, err := llm.NewClient(cfg.Gemini.LLM(), logger)
	if err != nil {
		return err
	}
	defer llmClient.Close()

	// ----- Advice caches, one per category -----
	advisor := advice.NewService(llmClient, advice.Caches{
		Tips:         cache.New(string(advice.CategoryTips), cfg.Cache.Tips),
		Habits:       cache.New(string(advice.CategoryHabits), cfg.Cache.Habits),
		Completeness: cache.New(string(advice.CategoryCompleteness), cfg.Cache.Completeness),
		SolarQuotes:  cache.New(string(advice.CategorySolarQuotes), cfg.Cache.SolarQuotes),
	})

	// ----- Rate limits -----
	limits, err := ratelimit.NewSet(ctx, cfg.RateLimit)
	if err != nil {
		logger.Error("rate limiter setup failed", zap.Error(err))
		return err
	}
	defer limits.Close()

	// ----- Router -----
	stats := middleware.NewRequestStats(time.Now())
	r := chi.NewRouter()
	httpserver.SetupRouter(r, logger, httpserver.Handlers{
		System:     handlers.NewSystemHandler(db, advisor, stats),
		Auth:       handlers.NewAuthHandler(db, passwords, tokens),
		Users:      handlers.NewUserHandler(db),
		Devices:    handlers.NewDeviceHandler(db),
		Habits:     handlers.NewHabitHandler(db, advisor),
		Advice:     handlers.NewAdviceHandler(advisor),
		Quotations: handlers.NewQuotationHandler(db),
		Reports:    handlers.NewReportHandler(db),
	}, httpserver.Options{
		RequestTimeout: cfg.Server.RequestTimeout,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Stats:          stats,
		Tokens:         tokens,
		Limits:         limits,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
			return err
		}
		logger.Info("server shutdown complete")
		return nil
	})

	g.Go(func() error {
		limits.Janitor(gctx, time.Minute)
		return nil
	})

	if cfg.Backup.Schedule != "" {
		scheduler, err := backup.NewScheduler(db, backup.Config{
			Dir:      cfg.Backup.Dir,
			Keep:     cfg.Backup.Keep,
			Schedule: cfg.Backup.Schedule,
		}, logger)
		if err != nil {
			return err
		}
		g.Go(func() error { return scheduler.Run(gctx) })
	}

	return g.Wait()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/cache"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/config"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/events"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/httpapi"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/logger"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/metrics"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/service"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/store"
	"github.com/bahodirshoh90/savdo-programmasi-sub001/internal/store/memory"
	pgstore "github.com/bahodirshoh90/savdo-programmasi-sub001/internal/store/postgres"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(loggerConfig(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatal("invalid security configuration", zap.Error(err))
	}

	if err := run(cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func loggerConfig(cfg config.Config) logger.Config {
	lc := logger.ConfigFor(cfg.AppEnv)
	if cfg.LogLevel != "" {
		lc.Level = cfg.LogLevel
	}
	if cfg.LogEncoding != "" {
		lc.Encoding = cfg.LogEncoding
	}
	return lc
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)
	defer func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				log.Warn("close error", zap.Error(err))
			}
		}
	}()

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("postgres unavailable and DATABASE_URL is set, refusing in-memory fallback: %w", err)
		}
		closers = append(closers, pg.Close)
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migrations applied")
		}
		repo = pg
		log.Info("repository ready", zap.String("kind", "postgres"))
	} else {
		repo = memory.NewSeeded()
		log.Info("repository ready", zap.String("kind", "memory"))
	}

	var (
		productCache cache.ProductCache = cache.NoopProductCache{}
		publisher    events.Publisher   = events.NoopPublisher{}
	)
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Warn("redis unavailable, using noop cache and publisher", zap.Error(err))
		} else {
			productCache = cache.NewRedisProductCache(client)
			publisher = events.NewRedisPublisher(client, cfg.EventsChannel)
			closers = append(closers, client.Close)
			log.Info("redis ready", zap.String("addr", cfg.RedisAddr), zap.String("events_channel", cfg.EventsChannel))
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	saleMetrics := metrics.NewSaleMetrics(registry)

	svc := service.New(repo, productCache, publisher, saleMetrics, log.Named("service"))
	svc.SetProductCacheTTL(cfg.ProductCacheTTL())
	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL(), repo, log.Named("auth"))
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, log.Named("http"), promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	api.SetPendingPageSize(cfg.PendingSalesDefaultPage)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("savdo backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sig:
		log.Info("shutting down", zap.String("signal", s.String()))
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown error", zap.Error(err))
	}

	log.Info("server stopped")
	return nil
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.AllowedOrigin == "*" && !cfg.IsDev() {
		return fmt.Errorf("ALLOWED_ORIGIN must not be * outside development")
	}
	return nil
}

package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/nightglass/storefront/internal/api/router"
	"github.com/nightglass/storefront/internal/availability"
	"github.com/nightglass/storefront/internal/booking"
	"github.com/nightglass/storefront/internal/business"
	"github.com/nightglass/storefront/internal/catalog"
	appconfig "github.com/nightglass/storefront/internal/config"
	"github.com/nightglass/storefront/internal/http/handlers"
	"github.com/nightglass/storefront/internal/observability/metrics"
	"github.com/nightglass/storefront/internal/theme"
	"github.com/nightglass/storefront/internal/wizard"
	"github.com/nightglass/storefront/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithOptions(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger.Info("starting storefront API server", "env", cfg.Env, "port", cfg.Port)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	storefrontMetrics := metrics.NewStorefrontMetrics(registry)

	repo := catalog.NewRepository(pool, logger)
	settingsStore := business.NewStore(redisClient)
	sessionStore := wizard.NewSessionStore(redisClient, cfg.WizardSessionTTL)
	availabilityClient := availability.NewClient(cfg.AvailabilityBaseURL, cfg.UpstreamTimeout, logger, storefrontMetrics)
	bookingClient := booking.NewClient(cfg.BookingBaseURL, cfg.UpstreamTimeout, logger, storefrontMetrics)

	routerCfg := &router.Config{
		Logger:              logger,
		StorefrontHandler:   handlers.NewStorefrontHandler(repo, settingsStore, theme.NewDeriver(logger), logger),
		AvailabilityHandler: handlers.NewAvailabilityHandler(availabilityClient, settingsStore, cfg.OverviewLookaheadMonths, logger),
		WizardHandler:       handlers.NewWizardHandler(sessionStore, repo, bookingClient, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

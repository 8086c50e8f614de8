package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/Jeet-12/pashupatinath-storefront/config"
	database "github.com/Jeet-12/pashupatinath-storefront/internal/core"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/cache"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/commerce"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/domain"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/oauth"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/payment"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/repository"
	"github.com/Jeet-12/pashupatinath-storefront/internal/core/token"
	logicv1 "github.com/Jeet-12/pashupatinath-storefront/internal/logic/v1"
	"github.com/Jeet-12/pashupatinath-storefront/internal/logger"
	webv1 "github.com/Jeet-12/pashupatinath-storefront/internal/web/v1"
	"github.com/Jeet-12/pashupatinath-storefront/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger.Setup(cfg.Logging.Level, cfg.Service.Env)

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("env", cfg.Service.Env).
		Str("port", cfg.Service.Port).
		Msg("Service starting")

	// Initialize OpenTelemetry tracing
	var tp interface{ Shutdown(context.Context) error }
	var err error
	if cfg.Tracing.Enabled {
		tp, err = middleware.InitTracing(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize tracing")
		} else {
			log.Info().
				Str("endpoint", cfg.Tracing.Endpoint).
				Float64("sample_rate", cfg.Tracing.SampleRate).
				Msg("Tracing initialized")
		}
	} else {
		log.Info().Msg("Tracing disabled (TRACING_ENABLED=false)")
	}

	// Initialize Pyroscope profiling
	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg); err != nil {
			log.Warn().Err(err).Msg("Failed to initialize profiling")
		} else {
			log.Info().
				Str("endpoint", cfg.Profiling.Endpoint).
				Msg("Profiling initialized")
			defer middleware.StopProfiling()
		}
	} else {
		log.Info().Msg("Profiling disabled (PROFILING_ENABLED=false)")
	}

	// Guest session store, per configured driver
	var (
		sessionRepo domain.GuestSessionRepository
		closeStore  = func() {}
		startupCtx  = context.Background()
	)
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := database.Connect(startupCtx, cfg.Store.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		sessionRepo = repository.NewGuestSessionRepository(pool)
		closeStore = pool.Close
		log.Info().Msg("Database connection pool established")
	case "redis":
		client, err := database.ConnectRedis(startupCtx, cfg.Store.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		sessionRepo = repository.NewRedisGuestSessionRepository(client)
		closeStore = func() { _ = client.Close() }
		log.Info().Msg("Redis connection established")
	default:
		sessionRepo = repository.NewMemoryGuestSessionRepository()
		log.Warn().Msg("Using in-memory session store; sessions will not survive a restart")
	}

	// Core services
	codec := token.NewCodec(cfg.Session.TokenSecret)
	commerceClient := commerce.New(cfg.Commerce.BaseURL, time.Duration(cfg.Commerce.TimeoutSeconds)*time.Second)
	catalogCache := cache.New[json.RawMessage]()
	gateway := payment.NewRazorpayGateway(cfg.Payment.RazorpayKeyID, cfg.Payment.RazorpayKeySecret)
	google := oauth.NewGoogle(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, cfg.OAuth.AppOrigin)

	sessions := logicv1.NewSessionService(sessionRepo, codec, cfg.SessionTTL())
	catalog := logicv1.NewCatalogService(commerceClient, catalogCache, time.Duration(cfg.Commerce.CacheTTLMs)*time.Millisecond)
	payments := logicv1.NewPaymentService(gateway, commerceClient, cfg.Payment.RazorpayKeySecret)
	tracking := logicv1.NewTrackingService(commerceClient, cfg.Tracking.Site)

	handler := webv1.NewHandler(sessions, catalog, payments, tracking, google, commerceClient, cfg.OAuth.AppOrigin, cfg.IsProduction())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	var isShuttingDown atomic.Bool

	// Tracing middleware
	r.Use(middleware.TracingMiddleware())

	// Logging middleware
	r.Use(middleware.LoggingMiddleware())

	// Prometheus middleware
	r.Use(middleware.PrometheusMiddleware())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Readiness check
	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (canonical API - frontend-aligned)
	handler.RegisterRoutes(r.Group("/api/v1"))

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Service.Port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Service.Port).Msg("Starting storefront service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info().Msg("Shutdown signal received")

	// Fail readiness first and wait for propagation so load balancers
	// stop routing before the listener closes.
	isShuttingDown.Store(true)
	drainDelay := cfg.GetReadinessDrainDelayDuration()
	if drainDelay > 0 {
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay started")
		time.Sleep(drainDelay)
		log.Info().Dur("delay", drainDelay).Msg("Readiness drain delay completed")
	}

	// Shutdown context with configurable timeout
	shutdownTimeout := cfg.GetShutdownTimeoutDuration()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	log.Info().Dur("timeout", shutdownTimeout).Msg("Shutting down server...")

	// 1. Shutdown HTTP server
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		log.Info().Msg("HTTP server shutdown complete")
	}

	// 2. Close the session store
	closeStore()
	log.Info().Msg("Session store closed")

	// 3. Shutdown tracer
	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Tracer shutdown error")
		} else {
			log.Info().Msg("Tracer shutdown complete")
		}
	}

	log.Info().Msg("Graceful shutdown complete")
}

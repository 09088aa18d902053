package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tripsense/tripsense/internal/adapters/google"
	"github.com/tripsense/tripsense/internal/adapters/http"
	natsadapter "github.com/tripsense/tripsense/internal/adapters/nats"
	"github.com/tripsense/tripsense/internal/adapters/openweather"
	"github.com/tripsense/tripsense/internal/adapters/overpass"
	"github.com/tripsense/tripsense/internal/adapters/valkey"
	"github.com/tripsense/tripsense/internal/core/ports"
	"github.com/tripsense/tripsense/internal/core/usecases"
	"github.com/tripsense/tripsense/internal/pkg/config"
	"github.com/tripsense/tripsense/internal/pkg/logging"
	"github.com/tripsense/tripsense/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("tripsense-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup("tripsense-api", logLevel, "json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.CollectorAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Cache (optional)
	var cache *valkey.Cache
	if cfg.Valkey.Addr != "" {
		cache, err = valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	// NATS (optional)
	var events *natsadapter.Publisher
	if cfg.NATS.URL != "" {
		events, err = natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
			events = nil
		} else {
			defer events.Close()
		}
	}

	// Shared HTTP client for all upstream providers.
	upstream := &nethttp.Client{Timeout: 15 * time.Second}

	directions := google.NewDirectionsClient(upstream, cfg.Google.DirectionsURL, cfg.Google.APIKey)
	elevation := google.NewElevationClient(upstream, cfg.Google.ElevationURL, cfg.Google.APIKey)
	roads := overpass.NewClient(upstream, cfg.Overpass.URL)
	weather := openweather.NewClient(upstream, cfg.Weather.ForecastURL, cfg.Weather.APIKey, slog.Default())

	classifier := usecases.NewRoadClassifier(roads, usecases.ClassifierOptions{
		MaxSamplePoints: cfg.Classifier.MaxSamplePoints,
		CoarseStride:    cfg.Classifier.CoarseStride,
		Workers:         cfg.Classifier.Workers,
		CacheGridScale:  cfg.Classifier.CacheGridScale,
		RetryAttempts:   cfg.Classifier.RetryMaxAttempts,
		RetryInitial:    time.Duration(cfg.Classifier.RetryInitialMs) * time.Millisecond,
		RetryMaxDelay:   time.Duration(cfg.Classifier.RetryMaxDelayMs) * time.Millisecond,
	}, slog.Default())

	var cacheSvc ports.CacheService
	if cache != nil {
		cacheSvc = cache
	}
	var publisher ports.EventPublisher
	if events != nil {
		publisher = events
	}

	insights := usecases.NewRouteInsightsService(directions, elevation, classifier, weather, cacheSvc, slog.Default())
	recommendations := usecases.NewRecommendationService(
		insights,
		usecases.NewRouteAnalysisService(),
		usecases.NewRecommendationEngine(),
		publisher,
		slog.Default(),
	)

	deps := &http.Dependencies{
		Recommendations: recommendations,
		Events:          events,
		Cache:           cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "TripSense API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

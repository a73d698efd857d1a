package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/weather-forecast/internal/api/http"
	"github.com/i474232898/weather-forecast/internal/config"
	"github.com/i474232898/weather-forecast/internal/forecast"
	"github.com/i474232898/weather-forecast/internal/observations"
	"github.com/i474232898/weather-forecast/internal/predictor"
	"github.com/i474232898/weather-forecast/internal/scheduler"
	"github.com/i474232898/weather-forecast/internal/station"
	"github.com/i474232898/weather-forecast/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Station registry.
	registry := station.Default()
	if cfg.StationsFile != "" {
		registry, err = station.LoadFile(cfg.StationsFile)
		if err != nil {
			log.Fatalf("failed to load stations: %v", err)
		}
	}

	// Cache backend, owned here and closed on exit.
	backend, err := newBackend(cfg)
	if err != nil {
		log.Fatalf("failed to open history cache: %v", err)
	}
	defer backend.Close()
	cache := store.NewHistoryCache(backend)

	// Shared HTTP client for outbound source and model calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var source forecast.ObservationSource
	switch cfg.ObservationSource {
	case "openmeteo":
		source = observations.NewOpenMeteoSource(httpClient)
	case "merged":
		source = observations.NewMergedSource(
			observations.NewMeteostatSource(httpClient, cfg.MeteostatAPIKey),
			observations.NewOpenMeteoSource(httpClient),
		)
	default:
		source = observations.NewMeteostatSource(httpClient, cfg.MeteostatAPIKey)
	}

	pred, historySteps, err := newPredictor(cfg, httpClient)
	if err != nil {
		log.Fatalf("failed to set up predictor: %v", err)
	}

	orchestrator := forecast.NewOrchestrator(registry, cache, source, pred, forecast.Options{
		HistorySteps:  historySteps,
		LookbackHours: cfg.LookbackFor(historySteps),
		CacheTTL:      cfg.CacheTTL,
	})

	// Scheduler that keeps the cache warm for busy stations.
	sched := scheduler.New(cfg.WarmStations, cfg.WarmInterval, registry, orchestrator)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "weather-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "weather-forecast",
			"source":  source.Name(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, orchestrator, registry, httpapi.Limits{
		DefaultHours: cfg.DefaultForecastHours,
		MaxHours:     cfg.MaxForecastHours,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

func newBackend(cfg *config.AppConfig) (store.Backend, error) {
	if cfg.CacheBackend != "redis" {
		return store.NewMemoryStore(cfg.CacheMaxEntries), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return store.NewRedisStore(ctx, store.RedisConfig{
		Addr:        cfg.Redis.Addr,
		Username:    cfg.Redis.Username,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		PoolTimeout: cfg.Redis.PoolTimeout,
	})
}

// newPredictor builds the served models from the manifest, or the baseline
// models when none is configured. The window length follows the manifest.
func newPredictor(cfg *config.AppConfig, client *http.Client) (forecast.Predictor, int, error) {
	if cfg.ModelManifest == "" {
		log.Printf("INFO: no MODEL_MANIFEST set; using %s baseline predictor", cfg.Strategy)
		p, err := predictor.Baseline(cfg.Strategy, cfg.HistorySteps, cfg.BlockSize)
		return p, cfg.HistorySteps, err
	}

	manifest, err := predictor.LoadManifest(cfg.ModelManifest)
	if err != nil {
		return nil, 0, err
	}
	if manifest.HistorySteps != cfg.HistorySteps {
		log.Printf("INFO: model manifest expects %d history steps; overriding HISTORY_STEPS=%d", manifest.HistorySteps, cfg.HistorySteps)
	}
	if manifest.Strategy != cfg.Strategy {
		log.Printf("INFO: model manifest uses %s strategy; overriding STRATEGY=%s", manifest.Strategy, cfg.Strategy)
	}
	return manifest.Build(client), manifest.HistorySteps, nil
}

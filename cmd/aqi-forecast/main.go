package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/airsentry/aqi-forecast/internal/api/http"
	"github.com/airsentry/aqi-forecast/internal/config"
	"github.com/airsentry/aqi-forecast/internal/forecast"
	"github.com/airsentry/aqi-forecast/internal/model"
	"github.com/airsentry/aqi-forecast/internal/monitor"
	"github.com/airsentry/aqi-forecast/internal/stations"
	"github.com/airsentry/aqi-forecast/internal/store"
	"github.com/airsentry/aqi-forecast/internal/upstream"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound upstream calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// Upstream clients.
	geocoder, err := upstream.NewCachingGeocoder(
		upstream.NewOpenWeatherGeocoder(httpClient, cfg.OpenWeatherAPIKey),
		cfg.GeocodeCacheSize,
	)
	if err != nil {
		log.Fatalf("failed to create geocode cache: %v", err)
	}
	airQuality := upstream.NewAirQualityClient(httpClient, cfg.LocalTZ)
	weather := upstream.NewWeatherClient(httpClient)
	envAlert := upstream.NewTelemetryClient(httpClient)
	telemetry := upstream.NewRateLimitedTelemetry(envAlert, cfg.TelemetryRPS, cfg.TelemetryBurst)

	// Core pipeline: reconciler, lazy model registry, forecast engine.
	reconciler := stations.NewReconciler(telemetry)
	registry := model.NewRegistry(cfg.ModelDir)
	engine := forecast.NewEngine(registry, cfg.LocalTZ)
	service := forecast.NewService(geocoder, airQuality, weather, reconciler, engine)

	// Telemetry monitor recording snapshots for the configured cities.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	mon := monitor.New(cfg.MonitorCities, cfg.MonitorInterval, reconciler, memStore)
	if err := mon.Start(); err != nil {
		log.Fatalf("failed to start telemetry monitor: %v", err)
	}
	defer mon.Stop()

	// Basic app configuration.
	app := fiber.New(fiber.Config{
		AppName:               "aqi-forecast",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response.
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

	// Global middleware. The mobile client sends no browser origin, so
	// CORS stays permissive.
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Basic health endpoint.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "aqi-forecast",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Forecaster: service,
		Geocoder:   geocoder,
		Weather:    weather,
		Stations:   envAlert,
		Telemetry:  memStore,
	})

	// Start server with graceful shutdown.
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}

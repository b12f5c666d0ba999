package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all runtime configuration.
type AppConfig struct {
	Port string

	// OpenWeatherAPIKey authorizes the geocoding API.
	OpenWeatherAPIKey string

	// HTTPTimeout bounds every outbound upstream call.
	HTTPTimeout time.Duration

	// ModelDir is where the per-pollutant weight files live.
	ModelDir string

	// LocalTZ anchors hourly series alignment and the previous-day
	// smoothing window.
	LocalTZ *time.Location

	// GeocodeCacheSize bounds the city-coordinates LRU.
	GeocodeCacheSize int

	// Telemetry rate limiting.
	TelemetryRPS   float64
	TelemetryBurst int

	// Telemetry monitor job.
	MonitorCities   []string
	MonitorInterval time.Duration

	// Telemetry store retention.
	StoreMaxHistory int
	StoreMaxAge     time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.ModelDir = getenvDefault("MODEL_DIR", "models")

	timeoutStr := getenvDefault("HTTP_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}
	cfg.HTTPTimeout = timeout

	tzName := getenvDefault("LOCAL_TZ", "Asia/Kolkata")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid LOCAL_TZ: %w", err)
	}
	cfg.LocalTZ = loc

	cfg.GeocodeCacheSize = getenvInt("GEOCODE_CACHE_SIZE", 100)

	cfg.TelemetryRPS = getenvFloat("TELEMETRY_RPS", 10)
	cfg.TelemetryBurst = getenvInt("TELEMETRY_BURST", 5)

	if cities := os.Getenv("MONITOR_CITIES"); cities != "" {
		for _, c := range strings.Split(cities, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cfg.MonitorCities = append(cfg.MonitorCities, c)
			}
		}
	}

	intervalStr := getenvDefault("MONITOR_INTERVAL", "15m")
	interval, err := time.ParseDuration(intervalStr)
	if err != nil {
		return nil, fmt.Errorf("invalid MONITOR_INTERVAL: %w", err)
	}
	cfg.MonitorInterval = interval

	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 96)

	maxAgeStr := getenvDefault("STORE_MAX_AGE", "24h")
	maxAge, err := time.ParseDuration(maxAgeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_MAX_AGE: %w", err)
	}
	cfg.StoreMaxAge = maxAge

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

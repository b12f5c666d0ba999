package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/airsentry/aqi-forecast/internal/forecast"
	"github.com/airsentry/aqi-forecast/internal/store"
	"github.com/airsentry/aqi-forecast/internal/upstream"
)

var validate = validator.New()

// Forecaster runs the AQI prediction pipeline.
type Forecaster interface {
	Predict(ctx context.Context, city string) (*forecast.Prediction, error)
}

// WeatherForecaster serves the daily weather forecast endpoint.
type WeatherForecaster interface {
	FetchDailyForecast(ctx context.Context, lat, lon float64) ([]upstream.DailyWeather, error)
}

// StationProxy passes one station's raw telemetry through.
type StationProxy interface {
	FetchStationRaw(ctx context.Context, stationID int) (json.RawMessage, error)
}

// TelemetryStore reads recorded telemetry snapshots.
type TelemetryStore interface {
	GetLatest(city string) (store.TelemetrySnapshot, error)
	GetRange(city string, from, to time.Time) ([]store.TelemetrySnapshot, error)
}

// Deps bundles the handlers' collaborators.
type Deps struct {
	Forecaster Forecaster
	Geocoder   forecast.Geocoder
	Weather    WeatherForecaster
	Stations   StationProxy
	Telemetry  TelemetryStore
}

// cityRequest is the JSON body of the predict and weather endpoints.
type cityRequest struct {
	City string `json:"city" validate:"required"`
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Post("/predict", func(c *fiber.Ctx) error {
		req, err := parseCityBody(c)
		if err != nil {
			return err
		}

		prediction, err := deps.Forecaster.Predict(c.Context(), req.City)
		if err != nil {
			if errors.Is(err, forecast.ErrCityNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "Invalid city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "Internal Server Error")
		}
		return c.JSON(prediction)
	})

	app.Post("/weather", func(c *fiber.Ctx) error {
		req, err := parseCityBody(c)
		if err != nil {
			return err
		}

		lat, lon, err := deps.Geocoder.Geocode(c.Context(), req.City)
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, "City not found")
		}

		fc, err := deps.Weather.FetchDailyForecast(c.Context(), lat, lon)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Internal server error")
		}
		return c.JSON(fiber.Map{
			"city":     req.City,
			"forecast": fc,
		})
	})

	app.Get("/api/station/:id", func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid station id")
		}
		raw, err := deps.Stations.FetchStationRaw(c.Context(), id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Failed to fetch station data")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Send(raw)
	})

	v1 := app.Group("/api/v1")

	v1.Get("/stations/:city/latest", func(c *fiber.Ctx) error {
		snapshot, err := deps.Telemetry.GetLatest(c.Params("city"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no telemetry for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch telemetry")
		}
		return c.JSON(snapshot)
	})

	v1.Get("/stations/:city/history", func(c *fiber.Ctx) error {
		city := c.Params("city")

		fromStr := c.Query("from")
		toStr := c.Query("to")
		if fromStr == "" || toStr == "" {
			return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
		}
		from, err := parseTime(fromStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		to, err := parseTime(toStr)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if to.Before(from) {
			return fiber.NewError(fiber.StatusBadRequest, "to must not precede from")
		}

		snapshots, err := deps.Telemetry.GetRange(city, from, to)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no telemetry for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch telemetry history")
		}
		return c.JSON(fiber.Map{
			"city":      city,
			"from":      from,
			"to":        to,
			"snapshots": snapshots,
		})
	})
}

func parseCityBody(c *fiber.Ctx) (cityRequest, error) {
	var req cityRequest
	if err := c.BodyParser(&req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "No JSON data provided")
	}
	if err := validate.Struct(req); err != nil {
		return req, fiber.NewError(fiber.StatusBadRequest, "City name required")
	}
	return req, nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/forecast"
	"github.com/airsentry/aqi-forecast/internal/stations"
	"github.com/airsentry/aqi-forecast/internal/store"
	"github.com/airsentry/aqi-forecast/internal/upstream"
)

type stubForecaster struct {
	prediction *forecast.Prediction
	err        error
}

func (s *stubForecaster) Predict(_ context.Context, _ string) (*forecast.Prediction, error) {
	return s.prediction, s.err
}

type stubGeocoder struct{ err error }

func (s *stubGeocoder) Geocode(_ context.Context, _ string) (float64, float64, error) {
	return 23.25, 77.41, s.err
}

type stubWeather struct{}

func (stubWeather) FetchDailyForecast(_ context.Context, _, _ float64) ([]upstream.DailyWeather, error) {
	return []upstream.DailyWeather{{Date: "2025-03-15", Day: "Today", MaxTemp: 31}}, nil
}

type stubStations struct{}

func (stubStations) FetchStationRaw(_ context.Context, id int) (json.RawMessage, error) {
	if id == 99 {
		return nil, errors.New("unreachable")
	}
	return json.RawMessage(fmt.Sprintf(`[{"station_id": %d}]`, id)), nil
}

func newTestApp(f Forecaster, geoErr error) (*fiber.App, *store.MemoryStore) {
	app := fiber.New()
	st := store.NewMemoryStore(10, 0)
	RegisterRoutes(app, Deps{
		Forecaster: f,
		Geocoder:   &stubGeocoder{err: geoErr},
		Weather:    stubWeather{},
		Stations:   stubStations{},
		Telemetry:  st,
	})
	return app, st
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestPredictValidation(t *testing.T) {
	app, _ := newTestApp(&stubForecaster{}, nil)

	resp := postJSON(t, app, "/predict", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing city: status = %d, want 400", resp.StatusCode)
	}

	resp = postJSON(t, app, "/predict", `not json`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("malformed body: status = %d, want 400", resp.StatusCode)
	}
}

func TestPredictUnknownCity(t *testing.T) {
	app, _ := newTestApp(&stubForecaster{err: fmt.Errorf("%w: bhopal", forecast.ErrCityNotFound)}, nil)

	resp := postJSON(t, app, "/predict", `{"city": "Nowhere"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestPredictSuccess(t *testing.T) {
	pred := &forecast.Prediction{
		City:        "Bhopal",
		Lat:         23.25,
		Lon:         77.41,
		Predictions: map[aqi.Pollutant][]forecast.Day{aqi.PM25: {{Day: "Today", AQI: 90}}},
		DataSource:  map[aqi.Pollutant]forecast.Source{aqi.PM25: forecast.SourceLive},
	}
	app, _ := newTestApp(&stubForecaster{prediction: pred}, nil)

	resp := postJSON(t, app, "/predict", `{"city": "Bhopal"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"city", "predictions", "data_source", "lat", "lon"} {
		if _, ok := got[key]; !ok {
			t.Errorf("response missing %q", key)
		}
	}
}

func TestPredictInternalError(t *testing.T) {
	app, _ := newTestApp(&stubForecaster{err: errors.New("upstream exploded")}, nil)

	resp := postJSON(t, app, "/predict", `{"city": "Bhopal"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestWeatherEndpoint(t *testing.T) {
	app, _ := newTestApp(&stubForecaster{}, nil)

	resp := postJSON(t, app, "/weather", `{"city": "Bhopal"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	appNotFound, _ := newTestApp(&stubForecaster{}, errors.New("no match"))
	resp = postJSON(t, appNotFound, "/weather", `{"city": "Bhopal"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unresolvable city: status = %d, want 404", resp.StatusCode)
	}
}

func TestStationProxy(t *testing.T) {
	app, _ := newTestApp(&stubForecaster{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/station/27", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/station/99", nil)
	resp, _ = app.Test(req)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("failing station: status = %d, want 500", resp.StatusCode)
	}
}

func TestStationTelemetryEndpoints(t *testing.T) {
	app, st := newTestApp(&stubForecaster{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stations/Bhopal/latest", nil)
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("empty store: status = %d, want 404", resp.StatusCode)
	}

	ts := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	st.SaveSnapshot("Bhopal", store.TelemetrySnapshot{
		City:       "Bhopal",
		Timestamp:  ts,
		Pollutants: map[aqi.Pollutant]stations.Mean{aqi.PM25: {Value: 42, AQI: 70}},
	})

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/stations/bhopal/latest", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("latest: status = %d, want 200", resp.StatusCode)
	}

	// History requires both bounds.
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/stations/bhopal/history?from=2025-03-15T00:00:00Z", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing to: status = %d, want 400", resp.StatusCode)
	}

	resp, _ = app.Test(httptest.NewRequest(http.MethodGet,
		"/api/v1/stations/bhopal/history?from=2025-03-15T00:00:00Z&to=2025-03-15T23:00:00Z", nil))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history: status = %d, want 200", resp.StatusCode)
	}
}

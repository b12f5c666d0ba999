package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// weatherFields are the 9 hourly meteorological features fed into the
// inference models, in the order the models were trained on.
var weatherFields = []string{
	"temperature_2m", "dew_point_2m", "precipitation", "wind_speed_10m",
	"cloud_cover", "surface_pressure", "vapour_pressure_deficit",
	"boundary_layer_height", "sunshine_duration",
}

// DailyWeather is one day of the city weather forecast endpoint.
type DailyWeather struct {
	Date            string  `json:"date"`
	Day             string  `json:"day"`
	MaxTemp         float64 `json:"max_temp"`
	MinTemp         float64 `json:"min_temp"`
	PrecipitationMM float64 `json:"precipitation_mm"`
	MaxWindSpeedKmh float64 `json:"max_wind_speed_kmh"`
}

// WeatherClient fetches meteorological data from the Open-Meteo forecast
// API: hourly feature vectors for the inference models and a short daily
// forecast for the weather endpoint.
type WeatherClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

// NewWeatherClient creates a client.
func NewWeatherClient(client *http.Client) *WeatherClient {
	return &WeatherClient{
		baseURL: "https://api.open-meteo.com/v1/forecast",
		client:  client,
		circuit: newBreaker("weather"),
		now:     time.Now,
	}
}

// FetchWeatherSeries returns hourly 9-feature vectors over the trailing
// four days ending yesterday. Callers use only the most recent vector.
func (c *WeatherClient) FetchWeatherSeries(ctx context.Context, lat, lon float64) ([][]float64, error) {
	end := c.now().UTC().AddDate(0, 0, -1)
	start := end.AddDate(0, 0, -4)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("start_date", start.Format("2006-01-02"))
		values.Set("end_date", end.Format("2006-01-02"))
		values.Set("hourly", strings.Join(weatherFields, ","))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.circuit, defaultBackoff, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	var times []string
	if raw, ok := payload.Hourly["time"]; ok {
		if err := json.Unmarshal(raw, &times); err != nil {
			return nil, fmt.Errorf("decode time series: %w", err)
		}
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("empty weather series")
	}

	columns := make([][]*float64, len(weatherFields))
	for i, field := range weatherFields {
		raw, ok := payload.Hourly[field]
		if !ok {
			return nil, fmt.Errorf("missing weather field %s", field)
		}
		if err := json.Unmarshal(raw, &columns[i]); err != nil {
			return nil, fmt.Errorf("decode %s: %w", field, err)
		}
		if len(columns[i]) != len(times) {
			return nil, fmt.Errorf("misaligned weather field %s", field)
		}
	}

	series := make([][]float64, len(times))
	for row := range times {
		vec := make([]float64, len(weatherFields))
		for col := range weatherFields {
			if v := columns[col][row]; v != nil {
				vec[col] = *v
			}
		}
		series[row] = vec
	}
	return series, nil
}

// FetchDailyForecast returns a 4-day daily weather forecast for a city.
func (c *WeatherClient) FetchDailyForecast(ctx context.Context, lat, lon float64) ([]DailyWeather, error) {
	today := c.now().UTC()
	end := today.AddDate(0, 0, 3)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,windspeed_10m_max")
		values.Set("timezone", "auto")
		values.Set("start_date", today.Format("2006-01-02"))
		values.Set("end_date", end.Format("2006-01-02"))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.circuit, defaultBackoff, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Daily struct {
			Time             []string  `json:"time"`
			TemperatureMax   []float64 `json:"temperature_2m_max"`
			TemperatureMin   []float64 `json:"temperature_2m_min"`
			PrecipitationSum []float64 `json:"precipitation_sum"`
			WindSpeedMax     []float64 `json:"windspeed_10m_max"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	d := payload.Daily
	forecast := make([]DailyWeather, 0, len(d.Time))
	for i, dateStr := range d.Time {
		if i >= len(d.TemperatureMax) || i >= len(d.TemperatureMin) || i >= len(d.PrecipitationSum) || i >= len(d.WindSpeedMax) {
			break
		}
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse daily date %q: %w", dateStr, err)
		}
		var label string
		switch i {
		case 0:
			label = "Today"
		case 1:
			label = "Tomorrow"
		default:
			label = date.Format("Monday")
		}
		forecast = append(forecast, DailyWeather{
			Date:            dateStr,
			Day:             label,
			MaxTemp:         d.TemperatureMax[i],
			MinTemp:         d.TemperatureMin[i],
			PrecipitationMM: d.PrecipitationSum[i],
			MaxWindSpeedKmh: d.WindSpeedMax[i],
		})
	}
	return forecast, nil
}

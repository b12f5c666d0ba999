package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/sony/gobreaker"
)

// pollutantFields maps pollutant ids to the Open-Meteo hourly field names.
var pollutantFields = map[aqi.Pollutant]string{
	aqi.PM25: "pm2_5",
	aqi.PM10: "pm10",
	aqi.NO2:  "nitrogen_dioxide",
	aqi.SO2:  "sulphur_dioxide",
	aqi.O3:   "ozone",
	aqi.CO:   "carbon_monoxide",
}

const hourlyTimeLayout = "2006-01-02T15:04"

// AirQualityClient fetches trailing hourly pollutant series from the
// Open-Meteo air-quality API.
type AirQualityClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
	loc     *time.Location
	now     func() time.Time
}

// NewAirQualityClient creates a client. loc is the timezone the hourly
// series is requested and aligned in.
func NewAirQualityClient(client *http.Client, loc *time.Location) *AirQualityClient {
	if loc == nil {
		loc = time.UTC
	}
	return &AirQualityClient{
		baseURL: "https://air-quality-api.open-meteo.com/v1/air-quality",
		client:  client,
		circuit: newBreaker("air-quality"),
		loc:     loc,
		now:     time.Now,
	}
}

// FetchPollutantSeries returns up to the 72 hourly concentrations ending
// at the current hour, with their aligned timestamps.
func (c *AirQualityClient) FetchPollutantSeries(ctx context.Context, lat, lon float64, p aqi.Pollutant) ([]float64, []time.Time, error) {
	field, ok := pollutantFields[p]
	if !ok {
		return nil, nil, fmt.Errorf("unknown pollutant %q", p)
	}

	currentHour := c.now().In(c.loc).Truncate(time.Hour)
	start := currentHour.Add(-71 * time.Hour)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", lat))
		values.Set("longitude", fmt.Sprintf("%f", lon))
		values.Set("start_date", start.Format("2006-01-02"))
		values.Set("end_date", currentHour.Format("2006-01-02"))
		values.Set("hourly", field)
		values.Set("timezone", c.loc.String())
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", c.baseURL, values.Encode()), nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.circuit, defaultBackoff, buildRequest)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly map[string]json.RawMessage `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, nil, err
	}

	var rawValues []*float64
	if raw, ok := payload.Hourly[field]; ok {
		if err := json.Unmarshal(raw, &rawValues); err != nil {
			return nil, nil, fmt.Errorf("decode %s series: %w", field, err)
		}
	}
	var rawTimes []string
	if raw, ok := payload.Hourly["time"]; ok {
		if err := json.Unmarshal(raw, &rawTimes); err != nil {
			return nil, nil, fmt.Errorf("decode time series: %w", err)
		}
	}
	if len(rawValues) != len(rawTimes) || len(rawTimes) == 0 {
		return nil, nil, fmt.Errorf("misaligned hourly series for %s", field)
	}

	timestamps := make([]time.Time, len(rawTimes))
	for i, s := range rawTimes {
		ts, err := time.ParseInLocation(hourlyTimeLayout, s, c.loc)
		if err != nil {
			return nil, nil, fmt.Errorf("parse timestamp %q: %w", s, err)
		}
		timestamps[i] = ts
	}

	// Align the trailing 72 hours ending at the current hour.
	currentIndex := len(timestamps) - 1
	for i, ts := range timestamps {
		if !ts.Before(currentHour) {
			currentIndex = i
			break
		}
	}
	lo := currentIndex - 71
	if lo < 0 {
		lo = 0
	}

	values := make([]float64, 0, currentIndex+1-lo)
	for i := lo; i <= currentIndex; i++ {
		if rawValues[i] == nil {
			return nil, nil, fmt.Errorf("incomplete %s series at %s", field, rawTimes[i])
		}
		values = append(values, *rawValues[i])
	}
	return values, timestamps[lo : currentIndex+1], nil
}

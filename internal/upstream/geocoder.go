package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/sony/gobreaker"
)

// ErrNoMatch is returned when geocoding yields no usable coordinates.
var ErrNoMatch = errors.New("no geocoding match")

// OpenWeatherGeocoder resolves city names through the OpenWeather direct
// geocoding API.
type OpenWeatherGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherGeocoder creates a geocoder client.
func NewOpenWeatherGeocoder(client *http.Client, apiKey string) *OpenWeatherGeocoder {
	return &OpenWeatherGeocoder{
		apiKey:  apiKey,
		baseURL: "http://api.openweathermap.org/geo/1.0/direct",
		client:  client,
		circuit: newBreaker("geocoder"),
	}
}

// Geocode resolves a city name to coordinates.
func (g *OpenWeatherGeocoder) Geocode(ctx context.Context, city string) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, fmt.Errorf("openweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("limit", "1")
		values.Set("appid", g.apiKey)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, values.Encode()), nil)
	}

	resp, err := doWithResilience(ctx, g.client, g.circuit, defaultBackoff, buildRequest)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	var payload []struct {
		Lat *float64 `json:"lat"`
		Lon *float64 `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, 0, err
	}
	if len(payload) == 0 || payload[0].Lat == nil || payload[0].Lon == nil {
		return 0, 0, fmt.Errorf("%w for %q", ErrNoMatch, city)
	}
	return *payload[0].Lat, *payload[0].Lon, nil
}

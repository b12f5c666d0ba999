package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/stations"
	"github.com/sony/gobreaker"
)

// telemetryFields maps pollutant ids to the EnvAlert response keys for the
// concentration and the station-computed sub-index. NOx stands in for NO2.
var telemetryFields = map[aqi.Pollutant][2]string{
	aqi.PM25: {"pm25", "pm25_subindex"},
	aqi.PM10: {"pm10", "pm10_subindex"},
	aqi.NO2:  {"nox", "nox_subindex"},
	aqi.SO2:  {"so2", "so2_subindex"},
	aqi.O3:   {"ozone", "ozone_subindex"},
	aqi.CO:   {"co", "co_subindex"},
}

// TelemetryClient fetches per-station current readings from the EnvAlert
// network.
type TelemetryClient struct {
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewTelemetryClient creates a client.
func NewTelemetryClient(client *http.Client) *TelemetryClient {
	return &TelemetryClient{
		baseURL: "https://erc.mp.gov.in/EnvAlert/Wa-CityAQI",
		client:  client,
		circuit: newBreaker("envalert"),
	}
}

// FetchStationReading retrieves and parses one station's current report.
// Individual malformed fields are skipped without discarding the rest of
// the reading.
func (c *TelemetryClient) FetchStationReading(ctx context.Context, stationID int) (stations.Reading, error) {
	raw, err := c.FetchStationRaw(ctx, stationID)
	if err != nil {
		return stations.Reading{}, err
	}

	record, err := firstRecord(raw)
	if err != nil {
		return stations.Reading{}, fmt.Errorf("station %d: %w", stationID, err)
	}

	reading := stations.Reading{Samples: make(map[aqi.Pollutant]stations.Sample)}
	if name, ok := record["station_name"].(string); ok {
		reading.StationName = name
	}
	for p, keys := range telemetryFields {
		sample := stations.Sample{
			Value:    coerceNumber(record[keys[0]]),
			SubIndex: coerceNumber(record[keys[1]]),
		}
		if sample.Value != nil || sample.SubIndex != nil {
			reading.Samples[p] = sample
		}
	}
	return reading, nil
}

// FetchStationRaw returns the station's report as raw JSON for the proxy
// endpoint.
func (c *TelemetryClient) FetchStationRaw(ctx context.Context, stationID int) (json.RawMessage, error) {
	buildRequest := func() (*http.Request, error) {
		// The EnvAlert endpoint expects a bodyless POST with the station id
		// as a query parameter.
		return http.NewRequest(http.MethodPost, fmt.Sprintf("%s?id=%d", c.baseURL, stationID), nil)
	}

	resp, err := doWithResilience(ctx, c.client, c.circuit, defaultBackoff, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// firstRecord unwraps the EnvAlert payload, which is either a single
// object or a list holding one station object.
func firstRecord(raw json.RawMessage) (map[string]interface{}, error) {
	var list []map[string]interface{}
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil, fmt.Errorf("empty station payload")
		}
		return list[0], nil
	}
	var record map[string]interface{}
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("unparseable station payload: %w", err)
	}
	return record, nil
}

// coerceNumber extracts a numeric field that may arrive as a JSON number,
// a numeric string, or one of the null-ish sentinels the API emits.
func coerceNumber(v interface{}) *float64 {
	switch t := v.(type) {
	case float64:
		return &t
	case string:
		s := strings.TrimSpace(t)
		if s == "" || strings.EqualFold(s, "null") {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

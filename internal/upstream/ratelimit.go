package upstream

import (
	"context"
	"fmt"

	"github.com/airsentry/aqi-forecast/internal/stations"
	"golang.org/x/time/rate"
)

// RateLimitedTelemetry wraps the telemetry client with a token-bucket
// limiter so station fan-out cannot hammer the EnvAlert endpoint.
type RateLimitedTelemetry struct {
	client  *TelemetryClient
	limiter *rate.Limiter
}

// NewRateLimitedTelemetry wraps client with a limit of rps requests per
// second and the given burst.
func NewRateLimitedTelemetry(client *TelemetryClient, rps float64, burst int) *RateLimitedTelemetry {
	return &RateLimitedTelemetry{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchStationReading waits for limiter permission, then delegates.
func (r *RateLimitedTelemetry) FetchStationReading(ctx context.Context, stationID int) (stations.Reading, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return stations.Reading{}, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return r.client.FetchStationReading(ctx, stationID)
}

var _ stations.Fetcher = (*RateLimitedTelemetry)(nil)

package stations

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/airsentry/aqi-forecast/internal/aqi"
)

// Sample is one station's report for a single pollutant. Either field may
// be absent independently of the other.
type Sample struct {
	Value    *float64
	SubIndex *float64
}

// Reading is one station's current report across pollutants.
type Reading struct {
	StationName string
	Samples     map[aqi.Pollutant]Sample
}

// Mean is the reconciled city-level value for one pollutant.
type Mean struct {
	Value float64
	AQI   int
}

// Fetcher retrieves the current reading of a single station.
type Fetcher interface {
	FetchStationReading(ctx context.Context, stationID int) (Reading, error)
}

// Reconciler aggregates per-station telemetry into city means.
type Reconciler struct {
	fetcher Fetcher
}

// NewReconciler creates a Reconciler on top of a telemetry fetcher.
func NewReconciler(f Fetcher) *Reconciler {
	return &Reconciler{fetcher: f}
}

// TodayMeans fetches every registered station of the city concurrently and
// returns, per pollutant, the arithmetic mean concentration and rounded mean
// sub-index over the stations that reported each. A pollutant is included
// only when at least one station supplied both fields. A nil result means
// the city is unknown or no station produced usable data; callers fall back
// to model-only output.
func (r *Reconciler) TodayMeans(ctx context.Context, city string) map[aqi.Pollutant]Mean {
	ids, ok := StationsFor(city)
	if !ok {
		log.Printf("stations: city %q has no registered stations", city)
		return nil
	}

	// Bounded fan-out; results land in submission order so reconciliation
	// is deterministic regardless of completion timing.
	readings := make([]*Reading, len(ids))
	sem := make(chan struct{}, min(len(ids), 5))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rd, err := r.fetcher.FetchStationReading(ctx, id)
			if err != nil {
				log.Printf("stations: fetch failed for station %d: %v", id, err)
				return
			}
			readings[i] = &rd
		}(i, id)
	}
	wg.Wait()

	means := make(map[aqi.Pollutant]Mean)
	for _, p := range aqi.Pollutants {
		var values, subs []float64
		for _, rd := range readings {
			if rd == nil {
				continue
			}
			s, ok := rd.Samples[p]
			if !ok {
				continue
			}
			if s.Value != nil {
				values = append(values, *s.Value)
			}
			if s.SubIndex != nil {
				subs = append(subs, *s.SubIndex)
			}
		}
		if len(values) > 0 && len(subs) > 0 {
			means[p] = Mean{
				Value: mean(values),
				AQI:   int(math.Round(mean(subs))),
			}
		}
	}

	if len(means) == 0 {
		log.Printf("stations: no valid pollutant data for %q", city)
		return nil
	}
	return means
}

func mean(vs []float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}

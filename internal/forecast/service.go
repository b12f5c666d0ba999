package forecast

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/stations"
)

// ErrCityNotFound is returned when the city cannot be geocoded. It is the
// only upstream failure surfaced to the caller; everything else degrades
// to partial output.
var ErrCityNotFound = errors.New("city not found")

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (lat, lon float64, err error)
}

// SeriesSource fetches the trailing hourly concentration series for one
// pollutant, aligned with its timestamps.
type SeriesSource interface {
	FetchPollutantSeries(ctx context.Context, lat, lon float64, p aqi.Pollutant) ([]float64, []time.Time, error)
}

// WeatherSource fetches the trailing hourly meteorological feature vectors.
type WeatherSource interface {
	FetchWeatherSeries(ctx context.Context, lat, lon float64) ([][]float64, error)
}

// LiveSource reconciles live station telemetry into city means.
type LiveSource interface {
	TodayMeans(ctx context.Context, city string) map[aqi.Pollutant]stations.Mean
}

// Service runs the full forecast pipeline for one city per call. Requests
// are independent; the only cross-request state lives behind the Geocoder
// (memoized coordinates) and the engine's model registry.
type Service struct {
	geocoder Geocoder
	series   SeriesSource
	weather  WeatherSource
	live     LiveSource
	engine   *Engine
	now      func() time.Time
}

// NewService wires the pipeline's collaborators together.
func NewService(geocoder Geocoder, series SeriesSource, weather WeatherSource, live LiveSource, engine *Engine) *Service {
	return &Service{
		geocoder: geocoder,
		series:   series,
		weather:  weather,
		live:     live,
		engine:   engine,
		now:      time.Now,
	}
}

// Predict computes the 7-day per-pollutant forecast, bias corrections,
// composition adjustment and daily headlines for a city.
func (s *Service) Predict(ctx context.Context, city string) (*Prediction, error) {
	lat, lon, err := s.geocoder.Geocode(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrCityNotFound, city)
	}

	// Weather failures degrade to a zero feature vector.
	var latestWeather []float64
	weatherSeries, err := s.weather.FetchWeatherSeries(ctx, lat, lon)
	if err != nil {
		log.Printf("forecast: weather fetch failed for %s: %v", city, err)
	} else if len(weatherSeries) > 0 {
		latestWeather = weatherSeries[len(weatherSeries)-1]
	}

	live := s.live.TodayMeans(ctx, city)

	// Scatter-gather the six pollutant series, one worker each; results
	// are indexed by pollutant so completion order does not matter.
	type seriesResult struct {
		values     []float64
		timestamps []time.Time
	}
	results := make([]seriesResult, len(aqi.Pollutants))
	var wg sync.WaitGroup
	for i, p := range aqi.Pollutants {
		wg.Add(1)
		go func(i int, p aqi.Pollutant) {
			defer wg.Done()
			values, timestamps, err := s.series.FetchPollutantSeries(ctx, lat, lon, p)
			if err != nil {
				log.Printf("forecast: %s series fetch failed: %v", p, err)
				return
			}
			results[i] = seriesResult{values: values, timestamps: timestamps}
		}(i, p)
	}
	wg.Wait()

	now := s.now()
	preds := make(map[aqi.Pollutant][]Day)
	modelToday := make(map[aqi.Pollutant]Day)
	dataSource := make(map[aqi.Pollutant]Source)

	for i, p := range aqi.Pollutants {
		sr := results[i]
		dataSource[p] = SourceModel

		lv, isLive := live[p]
		if isLive && isCorrected(p) {
			// Keep the model's own today prediction aside for the bias
			// error, then seed day 0 from telemetry.
			if mt := s.engine.Forecast(p, sr.values, sr.timestamps, latestWeather, 0); len(mt) > 0 {
				modelToday[p] = mt[0]
			}
			today := liveDay(lv, now)
			future := s.engine.Forecast(p, sr.values, sr.timestamps, latestWeather, 1)
			preds[p] = append([]Day{today}, future...)
			dataSource[p] = SourceLive
		} else {
			if days := s.engine.Forecast(p, sr.values, sr.timestamps, latestWeather, 0); len(days) > 0 {
				preds[p] = days
			}
		}
	}

	errs := ComputeBiasErrors(live, modelToday)
	ApplyBiasCorrections(preds, errs)
	AdjustComposition(preds)

	var today []TodayEntry
	for _, p := range aqi.Pollutants {
		if days := preds[p]; len(days) > 0 {
			today = append(today, TodayEntry{Day: days[0], Pollutant: p})
		}
	}

	return &Prediction{
		City:            city,
		Lat:             lat,
		Lon:             lon,
		Predictions:     preds,
		TodayPollutants: today,
		OverallDailyAQI: DailyHeadlines(preds),
		Errors:          errs,
		DataSource:      dataSource,
	}, nil
}

func isCorrected(p aqi.Pollutant) bool {
	for _, c := range correctedPollutants {
		if p == c {
			return true
		}
	}
	return false
}

// liveDay builds the day-0 entry from reconciled telemetry. The station
// network reports its own sub-index, so the AQI is taken as-is and only
// the descriptive fields are derived from it.
func liveDay(lv stations.Mean, now time.Time) Day {
	d := Day{
		Day:    "Today",
		Date:   now.UTC().Format("2006-01-02"),
		Value:  round2(lv.Value),
		AQI:    lv.AQI,
		Source: SourceLive,
	}
	d.Category, d.Warning, d.Color = aqi.Classify(lv.AQI)
	return d
}

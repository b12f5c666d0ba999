// Package forecast implements the AQI forecasting pipeline: the
// autoregressive model rollout, live-telemetry bias correction, the pm10
// composition adjustment and cross-pollutant daily aggregation.
package forecast

import (
	"math"

	"github.com/airsentry/aqi-forecast/internal/aqi"
)

// Source tags where a forecast day's value came from.
type Source string

const (
	SourceModel Source = "model"
	SourceLive  Source = "live"
)

// Day is one pollutant's forecast for a single day.
type Day struct {
	Day      string  `json:"day"`
	Date     string  `json:"date"`
	Value    float64 `json:"value"`
	AQI      int     `json:"aqi"`
	Category string  `json:"category"`
	Warning  string  `json:"warning"`
	Color    string  `json:"color"`
	Source   Source  `json:"-"`
}

// Reclassify recomputes the AQI, category, warning and color from the
// day's current concentration value. Every overwrite of Value must be
// followed by a Reclassify so the descriptive fields never go stale.
func (d *Day) Reclassify(p aqi.Pollutant) {
	if idx, ok := aqi.SubIndex(d.Value, p); ok {
		d.AQI = idx
		d.Category, d.Warning, d.Color = aqi.Classify(idx)
	} else {
		d.AQI = 0
		d.Category, d.Warning, d.Color = aqi.Classify(-1)
	}
}

// Headline is the dominant-pollutant summary for one forecast day.
type Headline struct {
	Day       string        `json:"day"`
	Date      string        `json:"date"`
	Pollutant aqi.Pollutant `json:"main_pollutant"`
	Value     float64       `json:"value"`
	AQI       int           `json:"aqi"`
	Category  string        `json:"category"`
	Warning   string        `json:"warning"`
	Color     string        `json:"color"`
}

// BiasErrors holds the live-vs-model deltas computed for the current day.
// Nil fields mean the delta could not be derived (no live data, or no
// same-day model prediction).
type BiasErrors struct {
	PM25Concentration *float64 `json:"pm2_5_concentration,omitempty"`
	PM25AQI           *float64 `json:"pm2_5_aqi,omitempty"`
	PM10Concentration *float64 `json:"pm10_concentration,omitempty"`
	PM10AQI           *float64 `json:"pm10_aqi,omitempty"`
	OverallAQI        *float64 `json:"overall_aqi,omitempty"`
}

// TodayEntry is a pollutant's day-0 entry in the today snapshot list.
type TodayEntry struct {
	Day
	Pollutant aqi.Pollutant `json:"pollutant"`
}

// Prediction is the full pipeline output for one city.
type Prediction struct {
	City            string                   `json:"city"`
	Lat             float64                  `json:"lat"`
	Lon             float64                  `json:"lon"`
	Predictions     map[aqi.Pollutant][]Day  `json:"predictions"`
	TodayPollutants []TodayEntry             `json:"today_pollutants"`
	OverallDailyAQI []Headline               `json:"overall_daily_aqi"`
	Errors          BiasErrors               `json:"errors"`
	DataSource      map[aqi.Pollutant]Source `json:"data_source"`
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

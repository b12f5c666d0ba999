package forecast

import (
	"log"
	"math"
	"time"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/model"
)

const (
	horizonDays     = 7
	historyHours    = 72
	weatherFeatures = 9
	// window = one padding slot + 72 history hours + 9 weather features.
	windowSize = 1 + historyHours + weatherFeatures
)

// ModelSource hands out the per-pollutant inference models.
type ModelSource interface {
	Get(p aqi.Pollutant) (model.Model, error)
}

// Engine rolls the inference models out autoregressively across the
// forecast horizon.
type Engine struct {
	models ModelSource
	loc    *time.Location
	now    func() time.Time
}

// NewEngine creates an Engine. loc is the local timezone used to anchor
// the previous-day smoothing window; forecast dates themselves are UTC.
func NewEngine(models ModelSource, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{models: models, loc: loc, now: time.Now}
}

// Forecast predicts up to (7 - startDay) days for one pollutant. history
// and timestamps are the aligned trailing hourly series; weather is the
// most recent 9-feature meteorological vector (nil falls back to zeros).
// An empty result means the pollutant is unavailable: missing model,
// short history, or no previous-day anchor in the timestamps.
func (e *Engine) Forecast(p aqi.Pollutant, history []float64, timestamps []time.Time, weather []float64, startDay int) []Day {
	m, err := e.models.Get(p)
	if err != nil {
		return nil
	}
	if len(history) < historyHours || len(history) != len(timestamps) {
		return nil
	}

	feats := make([]float64, weatherFeatures)
	copy(feats, weather)

	window := make([]float64, 0, windowSize)
	window = append(window, 0.0)
	window = append(window, history[len(history)-historyHours:]...)
	window = append(window, feats...)

	now := e.now().In(e.loc)

	// Indices of the previous calendar day within the hourly series. The
	// smoothing step is a hard dependency on at least one such hour.
	py, pm, pd := now.AddDate(0, 0, -1).Date()
	var prevIdx []int
	for i, ts := range timestamps {
		y, mo, d := ts.In(e.loc).Date()
		if y == py && mo == pm && d == pd {
			prevIdx = append(prevIdx, i)
		}
	}
	if len(prevIdx) == 0 {
		log.Printf("forecast: no previous-day anchor for %s", p)
		return nil
	}

	days := make([]Day, 0, horizonDays-startDay)
	for i := startDay; i < horizonDays; i++ {
		raw, err := m.Predict(window)
		if err != nil {
			log.Printf("forecast: model evaluation failed for %s: %v", p, err)
			return nil
		}
		pred := math.Abs(raw)

		// Previous day's slot matching the current hour; fall back to the
		// previous day's last available hour.
		anchor := prevIdx[len(prevIdx)-1]
		for _, idx := range prevIdx {
			if timestamps[idx].In(e.loc).Hour() == now.Hour() {
				anchor = idx
				break
			}
		}

		// Smooth the prediction with the 23 hours preceding the anchor.
		// Only the AQI is derived from the smoothed estimate; the emitted
		// value stays the raw prediction.
		start := anchor - 23
		if start < 0 {
			start = 0
		}
		sum, n := pred, 1
		for j := start; j < anchor; j++ {
			sum += history[j]
			n++
		}
		smoothed := sum / float64(n)

		d := Day{
			Day:    dayLabel(i, now),
			Date:   now.UTC().AddDate(0, 0, i).Format("2006-01-02"),
			Value:  round2(pred),
			Source: SourceModel,
		}
		if idx, ok := aqi.SubIndex(smoothed, p); ok {
			d.AQI = idx
			d.Category, d.Warning, d.Color = aqi.Classify(idx)
		} else {
			d.AQI = 0
			d.Category, d.Warning, d.Color = aqi.Classify(-1)
		}
		days = append(days, d)

		// Feed the prediction back: overwrite the tail slot, then rotate
		// the window left one position.
		window[len(window)-1] = pred
		head := window[0]
		copy(window, window[1:])
		window[len(window)-1] = head
	}
	return days
}

func dayLabel(offset int, now time.Time) string {
	switch offset {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return now.UTC().AddDate(0, 0, offset).Format("02 Jan")
	}
}

package forecast

import (
	"errors"
	"testing"
	"time"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/model"
)

// constModel always predicts the same concentration.
type constModel float64

func (m constModel) Predict(_ []float64) (float64, error) { return float64(m), nil }

// failingModel errors on every evaluation.
type failingModel struct{}

func (failingModel) Predict(_ []float64) (float64, error) { return 0, errors.New("boom") }

// staticModels is a ModelSource backed by a fixed map.
type staticModels map[aqi.Pollutant]model.Model

func (s staticModels) Get(p aqi.Pollutant) (model.Model, error) {
	m, ok := s[p]
	if !ok {
		return nil, errors.New("model unavailable")
	}
	return m, nil
}

var testNow = time.Date(2025, 3, 15, 14, 0, 0, 0, time.UTC)

func constSeries(v float64, n int) ([]float64, []time.Time) {
	values := make([]float64, n)
	timestamps := make([]time.Time, n)
	for i := range values {
		values[i] = v
		timestamps[i] = testNow.Add(-time.Duration(n-1-i) * time.Hour)
	}
	return values, timestamps
}

func newTestEngine(models ModelSource) *Engine {
	e := NewEngine(models, time.UTC)
	e.now = func() time.Time { return testNow }
	return e
}

func TestForecastConstantModelIsStable(t *testing.T) {
	e := newTestEngine(staticModels{aqi.PM25: constModel(42)})
	history, timestamps := constSeries(42, 72)

	days := e.Forecast(aqi.PM25, history, timestamps, nil, 0)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}

	wantAQI, _ := aqi.SubIndex(42, aqi.PM25)
	for i, d := range days {
		if d.Value != 42 {
			t.Errorf("day %d value = %v, want 42", i, d.Value)
		}
		if d.AQI != wantAQI {
			t.Errorf("day %d aqi = %d, want %d", i, d.AQI, wantAQI)
		}
		if d.Source != SourceModel {
			t.Errorf("day %d source = %q, want model", i, d.Source)
		}
	}

	if days[0].Day != "Today" || days[1].Day != "Tomorrow" {
		t.Errorf("day labels = %q, %q", days[0].Day, days[1].Day)
	}
	if days[2].Day != testNow.AddDate(0, 0, 2).Format("02 Jan") {
		t.Errorf("day 2 label = %q", days[2].Day)
	}
	if days[0].Date != "2025-03-15" || days[6].Date != "2025-03-21" {
		t.Errorf("dates = %q .. %q", days[0].Date, days[6].Date)
	}
}

func TestForecastStartDaySkipsToday(t *testing.T) {
	e := newTestEngine(staticModels{aqi.PM10: constModel(30)})
	history, timestamps := constSeries(30, 72)

	days := e.Forecast(aqi.PM10, history, timestamps, nil, 1)
	if len(days) != 6 {
		t.Fatalf("expected 6 days from startDay=1, got %d", len(days))
	}
	if days[0].Day != "Tomorrow" {
		t.Errorf("first day label = %q, want Tomorrow", days[0].Day)
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	e := newTestEngine(staticModels{aqi.PM25: constModel(10)})
	history, timestamps := constSeries(10, 71)

	if days := e.Forecast(aqi.PM25, history, timestamps, nil, 0); days != nil {
		t.Fatalf("expected empty forecast for short history, got %d days", len(days))
	}
}

func TestForecastNoPreviousDayAnchor(t *testing.T) {
	e := newTestEngine(staticModels{aqi.PM25: constModel(10)})
	history, _ := constSeries(10, 72)

	// Timestamps ten days in the past: no previous-calendar-day hour exists.
	timestamps := make([]time.Time, 72)
	for i := range timestamps {
		timestamps[i] = testNow.AddDate(0, 0, -10).Add(time.Duration(i) * time.Hour)
	}

	if days := e.Forecast(aqi.PM25, history, timestamps, nil, 0); days != nil {
		t.Fatal("expected empty forecast without a previous-day anchor")
	}
}

func TestForecastModelUnavailable(t *testing.T) {
	e := newTestEngine(staticModels{})
	history, timestamps := constSeries(10, 72)
	if days := e.Forecast(aqi.PM25, history, timestamps, nil, 0); days != nil {
		t.Fatal("expected empty forecast when the model cannot be loaded")
	}
}

func TestForecastModelError(t *testing.T) {
	e := newTestEngine(staticModels{aqi.PM25: failingModel{}})
	history, timestamps := constSeries(10, 72)
	if days := e.Forecast(aqi.PM25, history, timestamps, nil, 0); days != nil {
		t.Fatal("expected empty forecast when the model errors")
	}
}

func TestForecastSmoothingOnlyAffectsAQI(t *testing.T) {
	// History sits in a higher band than the model output: the emitted
	// value must stay the raw prediction while the AQI reflects the
	// smoothed estimate.
	e := newTestEngine(staticModels{aqi.PM25: constModel(10)})
	history, timestamps := constSeries(130, 72)

	days := e.Forecast(aqi.PM25, history, timestamps, nil, 0)
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if days[0].Value != 10 {
		t.Fatalf("day 0 value = %v, want raw prediction 10", days[0].Value)
	}
	// smoothed = (23*130 + 10) / 24 = 125
	wantAQI, _ := aqi.SubIndex(125, aqi.PM25)
	if days[0].AQI != wantAQI {
		t.Fatalf("day 0 aqi = %d, want %d from the smoothed estimate", days[0].AQI, wantAQI)
	}
}

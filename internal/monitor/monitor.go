// Package monitor periodically records reconciled station telemetry for
// a fixed set of cities.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/stations"
	"github.com/airsentry/aqi-forecast/internal/store"
)

// Source reconciles a city's live station telemetry.
type Source interface {
	TodayMeans(ctx context.Context, city string) map[aqi.Pollutant]stations.Mean
}

// Monitor runs a periodic telemetry snapshot job.
type Monitor struct {
	scheduler *gocron.Scheduler
	source    Source
	store     *store.MemoryStore
	cities    []string
	interval  time.Duration
}

// New creates a Monitor for the given cities.
func New(cities []string, interval time.Duration, source Source, st *store.MemoryStore) *Monitor {
	return &Monitor{
		scheduler: gocron.NewScheduler(time.UTC),
		source:    source,
		store:     st,
		cities:    cities,
		interval:  interval,
	}
}

// Start schedules the periodic job and starts the scheduler.
func (m *Monitor) Start() error {
	if len(m.cities) == 0 {
		log.Println("monitor: no cities configured; nothing to schedule")
		return nil
	}

	minutes := int(m.interval.Minutes())
	if minutes <= 0 {
		minutes = 15
	}

	_, err := m.scheduler.Every(minutes).Minutes().Do(func() {
		var wg sync.WaitGroup
		for _, city := range m.cities {
			city := city
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				means := m.source.TodayMeans(ctx, city)
				if means == nil {
					log.Printf("monitor: no telemetry for %s", city)
					return
				}
				m.store.SaveSnapshot(city, store.TelemetrySnapshot{
					City:       city,
					Timestamp:  time.Now().UTC(),
					Pollutants: means,
				})
			}()
		}
		wg.Wait()
	})
	if err != nil {
		return err
	}

	m.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (m *Monitor) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/stations"
)

func snap(ts time.Time) TelemetrySnapshot {
	return TelemetrySnapshot{
		City:      "Bhopal",
		Timestamp: ts,
		Pollutants: map[aqi.Pollutant]stations.Mean{
			aqi.PM25: {Value: 42, AQI: 70},
		},
	}
}

func TestMemoryStoreLatestAndRange(t *testing.T) {
	s := NewMemoryStore(10, 0)
	base := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.SaveSnapshot("Bhopal", snap(base.Add(time.Duration(i)*time.Hour)))
	}

	latest, err := s.GetLatest("BHOPAL")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if !latest.Timestamp.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("latest timestamp = %v", latest.Timestamp)
	}

	got, err := s.GetRange("bhopal", base, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("range returned %d snapshots, want 2", len(got))
	}
}

func TestMemoryStoreCountRetention(t *testing.T) {
	s := NewMemoryStore(2, 0)
	base := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		s.SaveSnapshot("Indore", snap(base.Add(time.Duration(i)*time.Hour)))
	}
	got, err := s.GetRange("Indore", base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("retention kept %d snapshots, want 2", len(got))
	}
	if !got[0].Timestamp.Equal(base.Add(3 * time.Hour)) {
		t.Fatalf("oldest retained = %v", got[0].Timestamp)
	}
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore(10, 0)
	if _, err := s.GetLatest("Ujjain"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

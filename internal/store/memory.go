// Package store keeps recent telemetry snapshots per city in memory.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/airsentry/aqi-forecast/internal/aqi"
	"github.com/airsentry/aqi-forecast/internal/stations"
)

// ErrNotFound is returned when no snapshots exist for a city.
var ErrNotFound = errors.New("no telemetry data for city")

// TelemetrySnapshot is one reconciled reading of a city's station network.
type TelemetrySnapshot struct {
	City       string                          `json:"city"`
	Timestamp  time.Time                       `json:"timestamp"` // always UTC
	Pollutants map[aqi.Pollutant]stations.Mean `json:"pollutants"`
}

type history struct {
	snapshots []TelemetrySnapshot
}

// MemoryStore is a concurrency-safe in-memory snapshot store with
// retention by count and by age.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*history

	maxHistory int           // 0 = unlimited
	maxAge     time.Duration // 0 = unlimited
}

// NewMemoryStore creates a store with the given retention limits.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*history),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

func cityKey(city string) string {
	return strings.ToLower(strings.TrimSpace(city))
}

// SaveSnapshot appends a snapshot for a city and enforces retention.
func (s *MemoryStore) SaveSnapshot(city string, snap TelemetrySnapshot) {
	key := cityKey(city)

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.data[key]
	if !ok {
		h = &history{}
		s.data[key] = h
	}
	h.snapshots = append(h.snapshots, snap)

	if s.maxHistory > 0 && len(h.snapshots) > s.maxHistory {
		h.snapshots = h.snapshots[len(h.snapshots)-s.maxHistory:]
	}
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(h.snapshots); i++ {
			if !h.snapshots[i].Timestamp.Before(cutoff) {
				break
			}
		}
		if i > 0 {
			h.snapshots = h.snapshots[i:]
		}
	}
}

// GetLatest returns the most recent snapshot for a city.
func (s *MemoryStore) GetLatest(city string) (TelemetrySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[cityKey(city)]
	if !ok || len(h.snapshots) == 0 {
		return TelemetrySnapshot{}, ErrNotFound
	}
	return h.snapshots[len(h.snapshots)-1], nil
}

// GetRange returns the snapshots for a city between from and to inclusive.
func (s *MemoryStore) GetRange(city string, from, to time.Time) ([]TelemetrySnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.data[cityKey(city)]
	if !ok || len(h.snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []TelemetrySnapshot
	for _, snap := range h.snapshots {
		if !snap.Timestamp.Before(from) && !snap.Timestamp.After(to) {
			result = append(result, snap)
		}
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}

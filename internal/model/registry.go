package model

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"github.com/airsentry/aqi-forecast/internal/aqi"
)

// Registry lazily loads one model per pollutant and retains it for the
// process lifetime. A failed load is also retained so the file is not
// re-read on every request; one broken model never blocks the others.
type Registry struct {
	dir string

	mu     sync.Mutex
	models map[aqi.Pollutant]Model
	errs   map[aqi.Pollutant]error
}

// NewRegistry creates a registry reading weight files from dir.
func NewRegistry(dir string) *Registry {
	return &Registry{
		dir:    dir,
		models: make(map[aqi.Pollutant]Model),
		errs:   make(map[aqi.Pollutant]error),
	}
}

// Get returns the model for a pollutant, loading it on first use.
func (r *Registry) Get(p aqi.Pollutant) (Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.models[p]; ok {
		return m, nil
	}
	if err, ok := r.errs[p]; ok {
		return nil, err
	}

	path := filepath.Join(r.dir, fmt.Sprintf("best_cnn_%s.json", p))
	m, err := Load(path)
	if err != nil {
		log.Printf("model: load failed for %s: %v", p, err)
		r.errs[p] = err
		return nil, err
	}
	log.Printf("model: loaded %s", p)
	r.models[p] = m
	return m, nil
}

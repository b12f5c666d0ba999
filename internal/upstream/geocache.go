package upstream

import (
	"context"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (lat, lon float64, err error)
}

type coordinates struct {
	lat, lon float64
}

// CachingGeocoder memoizes successful lookups in a bounded LRU keyed by
// the lowercased city name. Entries never expire; city coordinates do
// not move.
type CachingGeocoder struct {
	next  Geocoder
	cache *lru.Cache[string, coordinates]
}

// NewCachingGeocoder wraps a geocoder with an LRU of the given capacity.
func NewCachingGeocoder(next Geocoder, capacity int) (*CachingGeocoder, error) {
	cache, err := lru.New[string, coordinates](capacity)
	if err != nil {
		return nil, err
	}
	return &CachingGeocoder{next: next, cache: cache}, nil
}

// Geocode returns the cached coordinates when present, delegating
// otherwise. Failed lookups are not cached.
func (c *CachingGeocoder) Geocode(ctx context.Context, city string) (float64, float64, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if coords, ok := c.cache.Get(key); ok {
		return coords.lat, coords.lon, nil
	}
	lat, lon, err := c.next.Geocode(ctx, city)
	if err != nil {
		return 0, 0, err
	}
	c.cache.Add(key, coordinates{lat: lat, lon: lon})
	return lat, lon, nil
}

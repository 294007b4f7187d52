// Package options caches the domain and region filter option lists.
//
// The lists only feed the filter UI and change rarely server-side, so they
// are served through a TTL read-through cache; they are not part of the
// coordinator state machine.
package options

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/pschneider14/venturelens/internal/domain"
	"github.com/pschneider14/venturelens/internal/metrics"
)

// OptionsAPI is the slice of the directory API the cache reads through to.
type OptionsAPI interface {
	Domains(ctx context.Context) ([]domain.NamedOption, error)
	Regions(ctx context.Context) ([]domain.NamedOption, error)
}

type entry struct {
	options   []domain.NamedOption
	expiresAt time.Time
}

// Cache is a TTL read-through cache over the option list endpoints.
// Concurrent misses for the same list share one upstream fetch.
type Cache struct {
	api   OptionsAPI
	ttl   time.Duration
	clock clockwork.Clock

	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]*entry
}

// New creates an option cache with the given TTL.
func New(api OptionsAPI, ttl time.Duration, clock clockwork.Clock) *Cache {
	return &Cache{
		api:     api,
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]*entry),
	}
}

// Domains returns the domain filter options, from cache when fresh.
func (c *Cache) Domains(ctx context.Context) ([]domain.NamedOption, error) {
	return c.lookup(ctx, "domains", c.api.Domains)
}

// Regions returns the region filter options, from cache when fresh.
func (c *Cache) Regions(ctx context.Context) ([]domain.NamedOption, error) {
	return c.lookup(ctx, "regions", c.api.Regions)
}

// Invalidate drops both cached lists.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

func (c *Cache) lookup(ctx context.Context, kind string, fetch func(context.Context) ([]domain.NamedOption, error)) ([]domain.NamedOption, error) {
	c.mu.RLock()
	e, ok := c.entries[kind]
	c.mu.RUnlock()

	if ok && c.clock.Now().Before(e.expiresAt) {
		metrics.OptionCacheHits.WithLabelValues(kind).Inc()
		return e.options, nil
	}
	metrics.OptionCacheMisses.WithLabelValues(kind).Inc()

	v, err, _ := c.group.Do(kind, func() (any, error) {
		options, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[kind] = &entry{
			options:   options,
			expiresAt: c.clock.Now().Add(c.ttl),
		}
		c.mu.Unlock()
		return options, nil
	})
	if err != nil {
		// Serve a stale list over an empty sidebar when the refresh fails.
		if ok {
			return e.options, nil
		}
		return nil, err
	}
	return v.([]domain.NamedOption), nil
}

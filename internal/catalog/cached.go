package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yungbote/degreeplan-backend/internal/degree/schema"
	"github.com/yungbote/degreeplan-backend/internal/observability"
	"github.com/yungbote/degreeplan-backend/internal/platform/logger"
)

// Cache stores raw schema documents by identifier.
type Cache interface {
	Get(ctx context.Context, identifier string) ([]byte, bool, error)
	Set(ctx context.Context, identifier string, raw []byte) error
}

// CachedSource fetches each schema at most once at a time and keeps the raw
// document in a cache. Cache errors are logged and fall through to the
// fetcher.
type CachedSource struct {
	fetcher Fetcher
	cache   Cache
	log     *logger.Logger
	group   singleflight.Group
}

func NewCachedSource(fetcher Fetcher, cache Cache, log *logger.Logger) *CachedSource {
	if log == nil {
		log = logger.Nop()
	}
	if cache == nil {
		cache = NewMemoryCache(0)
	}
	return &CachedSource{fetcher: fetcher, cache: cache, log: log.With("service", "CachedPlanSource")}
}

func (s *CachedSource) Plan(ctx context.Context, identifier string) (*schema.Plan, error) {
	raw, err := s.raw(ctx, identifier)
	if err != nil {
		return nil, err
	}
	p, err := schema.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("plan %q: %w", identifier, err)
	}
	return p, nil
}

func (s *CachedSource) raw(ctx context.Context, identifier string) ([]byte, error) {
	if raw, ok, err := s.cache.Get(ctx, identifier); err != nil {
		s.log.Warn("schema cache read failed", "plan", identifier, "error", err)
	} else if ok {
		observability.Current().IncSchemaFetch("hit")
		return raw, nil
	}

	v, err, shared := s.group.Do(identifier, func() (interface{}, error) {
		raw, err := s.fetcher.Fetch(ctx, identifier)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, identifier, raw); err != nil {
			s.log.Warn("schema cache write failed", "plan", identifier, "error", err)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("schema fetch shared", "plan", identifier)
		observability.Current().IncSchemaFetch("shared")
	} else {
		observability.Current().IncSchemaFetch("miss")
	}
	return v.([]byte), nil
}

// MemoryCache is an in-process Cache with an optional TTL (0 keeps entries
// forever).
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, entries: map[string]memoryEntry{}}
}

func (c *MemoryCache) Get(_ context.Context, identifier string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[identifier]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, identifier)
		return nil, false, nil
	}
	return e.raw, true, nil
}

func (c *MemoryCache) Set(_ context.Context, identifier string, raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{raw: append([]byte(nil), raw...)}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[identifier] = e
	return nil
}

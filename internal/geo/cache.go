package geo

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/hpungsan/internmap/internal/profile"
)

// Default cache sizing.
const (
	DefaultCacheSize = 512
	DefaultCacheTTL  = 24 * time.Hour
	SearchCacheTTL   = 10 * time.Minute
)

// lookupCache holds found results only, so a failed lookup is retried on
// the next call.
type lookupCache[T any] struct {
	capability string
	lru        *expirable.LRU[string, Result[T]]
}

func newLookupCache[T any](capability string, size int, ttl time.Duration) *lookupCache[T] {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &lookupCache[T]{
		capability: capability,
		lru:        expirable.NewLRU[string, Result[T]](size, nil, ttl),
	}
}

func (c *lookupCache[T]) get(key string) (Result[T], bool) {
	if r, ok := c.lru.Get(key); ok {
		cacheLookupsTotal.WithLabelValues(c.capability, "hit").Inc()
		return r, true
	}
	cacheLookupsTotal.WithLabelValues(c.capability, "miss").Inc()
	return Result[T]{}, false
}

func (c *lookupCache[T]) put(key string, r Result[T]) {
	if r.Found {
		c.lru.Add(key, r)
	}
}

// CachedGeocoder memoizes a Geocoder by normalized address.
type CachedGeocoder struct {
	inner Geocoder
	cache *lookupCache[profile.Coordinates]
}

// NewCachedGeocoder wraps inner with an LRU of size entries expiring after ttl.
func NewCachedGeocoder(inner Geocoder, size int, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{inner: inner, cache: newLookupCache[profile.Coordinates](capGeocode, size, ttl)}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, address string) Result[profile.Coordinates] {
	key := profile.NormalizeKey(address)
	if r, ok := c.cache.get(key); ok {
		return r
	}
	r := c.inner.Geocode(ctx, address)
	c.cache.put(key, r)
	return r
}

// CachedSearcher memoizes a Searcher by normalized query.
type CachedSearcher struct {
	inner Searcher
	cache *lookupCache[[]Candidate]
}

// NewCachedSearcher wraps inner with an LRU of size entries expiring after ttl.
func NewCachedSearcher(inner Searcher, size int, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{inner: inner, cache: newLookupCache[[]Candidate](capSearch, size, ttl)}
}

func (c *CachedSearcher) Search(ctx context.Context, query string) Result[[]Candidate] {
	key := profile.NormalizeKey(query)
	if r, ok := c.cache.get(key); ok {
		return r
	}
	r := c.inner.Search(ctx, query)
	c.cache.put(key, r)
	return r
}

// CachedRouter memoizes a Router by mode and endpoints.
type CachedRouter struct {
	inner Router
	cache *lookupCache[int]
}

// NewCachedRouter wraps inner with an LRU of size entries expiring after ttl.
func NewCachedRouter(inner Router, size int, ttl time.Duration) *CachedRouter {
	return &CachedRouter{inner: inner, cache: newLookupCache[int](capRoute, size, ttl)}
}

func (c *CachedRouter) Route(ctx context.Context, from, to profile.Coordinates, mode Mode) Result[int] {
	key := fmt.Sprintf("%s|%s|%s", mode, lngLat(from), lngLat(to))
	if r, ok := c.cache.get(key); ok {
		return r
	}
	r := c.inner.Route(ctx, from, to, mode)
	c.cache.put(key, r)
	return r
}

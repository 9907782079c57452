package geocode

import (
	"context"

	"github.com/couchcryptid/galaxia/internal/domain"
	"github.com/couchcryptid/galaxia/internal/lru"
	"github.com/couchcryptid/galaxia/internal/observability"
	"github.com/couchcryptid/galaxia/internal/upstream"
)

// CachedRequester wraps the geocoding requester with an in-memory LRU cache
// of response bodies keyed by request.
type CachedRequester struct {
	inner   upstream.Requester
	cache   *lru.Cache[string, []byte]
	metrics *observability.Metrics
}

// NewCachedRequester creates a cache decorator around a requester.
func NewCachedRequester(inner upstream.Requester, maxEntries int, metrics *observability.Metrics) *CachedRequester {
	return &CachedRequester{
		inner:   inner,
		cache:   lru.New[string, []byte](maxEntries),
		metrics: metrics,
	}
}

// Do serves repeated lookups from the cache.
func (c *CachedRequester) Do(ctx context.Context, req upstream.Request) ([]byte, error) {
	key := cacheKey(req)
	if body, ok := c.cache.Get(key); ok {
		c.record("hit")
		return body, nil
	}
	c.record("miss")

	body, err := c.inner.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	// Only cache answers naming a country so open-water misses are retried.
	if hasCountry(body) {
		c.cache.Put(key, body)
	}
	return body, nil
}

// Len reports the number of cached lookups.
func (c *CachedRequester) Len() int { return c.cache.Len() }

func (c *CachedRequester) record(result string) {
	if c.metrics != nil {
		c.metrics.GeocodeCache.WithLabelValues(result).Inc()
	}
}

func cacheKey(req upstream.Request) string {
	key := req.Method + " " + req.Path
	if len(req.Query) > 0 {
		key += "?" + req.Query.Encode()
	}
	return key
}

func hasCountry(body []byte) bool {
	res, err := domain.NormalizeReverseGeocode(body)
	return err == nil && res.Country != ""
}

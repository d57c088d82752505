package gateway

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"threatconsole/internal/metrics"
)

const aiCacheSize = 64

// aiCache keeps recent AI status and insights reads per endpoint and
// credential. Only primary results are stored so demo data never outlives an
// outage.
type aiCache struct {
	lru *expirable.LRU[string, any]
}

func newAICache(ttl time.Duration) *aiCache {
	if ttl <= 0 {
		return nil
	}
	return &aiCache{lru: expirable.NewLRU[string, any](aiCacheSize, nil, ttl)}
}

// credentialDigest stands in for a bearer token in cache keys.
func credentialDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func cacheKey(endpoint, scope, token string) string {
	return endpoint + "|" + scope + "|" + credentialDigest(token)
}

// cachedFetch serves a fresh cached read for the same credential, and
// otherwise goes upstream. Without a credential nothing is cached, so the
// upstream gets to answer 401.
func cachedFetch[T any](c *aiCache, endpoint, scope, token string, fetch func() (Result[T], error)) (Result[T], error) {
	if c == nil || token == "" {
		return fetch()
	}
	key := cacheKey(endpoint, scope, token)
	if v, ok := c.lru.Get(key); ok {
		if r, ok := v.(Result[T]); ok {
			metrics.AICacheHitsTotal.WithLabelValues(endpoint).Inc()
			return r, nil
		}
	}
	r, err := fetch()
	if err == nil && r.Provenance == ProvenancePrimary {
		c.lru.Add(key, r)
	}
	return r, err
}

func (c *aiCache) purge() {
	if c != nil {
		c.lru.Purge()
	}
}

package cache

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/coocood/freecache"
	"github.com/damon-houk/currency-converter/internal/domain/entity"
)

const latestKey = "rates:latest"

// ExchangeRateCache keeps the most recent successful rate fetch in a freecache segment.
// freecache does its own locking, so the cache is safe for concurrent use.
type ExchangeRateCache struct {
	cache      *freecache.Cache
	expiration time.Duration
}

// NewExchangeRateCache creates a cache of sizeBytes that expires entries after expiration
func NewExchangeRateCache(sizeBytes int, expiration time.Duration) *ExchangeRateCache {
	return &ExchangeRateCache{
		cache:      freecache.NewCache(sizeBytes),
		expiration: expiration,
	}
}

// Get returns the cached fetch result, or nil if absent, expired or unreadable
func (c *ExchangeRateCache) Get() *entity.RateFetchResult {
	data, err := c.cache.Get([]byte(latestKey))
	if err != nil {
		return nil
	}

	var result entity.RateFetchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil
	}

	return &result
}

// Put stores a fetch result. Degraded results are never cached.
func (c *ExchangeRateCache) Put(result *entity.RateFetchResult) error {
	if result == nil || result.Degraded {
		return errors.New("only live rate results can be cached")
	}

	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	if c.expiration <= 0 {
		return nil
	}

	// freecache works in whole seconds; round up so sub-second TTLs still cache
	seconds := int((c.expiration + time.Second - 1) / time.Second)
	return c.cache.Set([]byte(latestKey), data, seconds)
}

// Clear drops the cached result so the next fetch goes to the network
func (c *ExchangeRateCache) Clear() {
	c.cache.Clear()
}

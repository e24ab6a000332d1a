package cache

import (
	"testing"
	"time"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchangeRateCache(t *testing.T) {
	cache := NewExchangeRateCache(1024*1024, time.Hour)

	assert.Nil(t, cache.Get())

	fetchedAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	result := &entity.RateFetchResult{
		Table:     entity.RateTable{"USD": 1, "EUR": 0.85},
		Source:    "primary",
		FetchedAt: fetchedAt,
		RatesDate: "2024-03-01",
	}

	require.NoError(t, cache.Put(result))

	retrieved := cache.Get()
	require.NotNil(t, retrieved)
	assert.Equal(t, result.Table, retrieved.Table)
	assert.Equal(t, "primary", retrieved.Source)
	assert.True(t, fetchedAt.Equal(retrieved.FetchedAt))

	// Degraded results are refused
	assert.Error(t, cache.Put(&entity.RateFetchResult{Table: entity.RateTable{"USD": 1}, Degraded: true}))
	assert.Error(t, cache.Put(nil))

	cache.Clear()
	assert.Nil(t, cache.Get())
}

func TestExchangeRateCacheDisabled(t *testing.T) {
	cache := NewExchangeRateCache(1024*1024, 0)
	require.NoError(t, cache.Put(&entity.RateFetchResult{Table: entity.RateTable{"USD": 1}, Source: "primary"}))
	assert.Nil(t, cache.Get())
}

func TestExchangeRateCacheExpiration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping expiration test in short mode")
	}

	cache := NewExchangeRateCache(1024*1024, time.Second)
	require.NoError(t, cache.Put(&entity.RateFetchResult{Table: entity.RateTable{"USD": 1}, Source: "primary"}))
	assert.NotNil(t, cache.Get())

	time.Sleep(2100 * time.Millisecond)
	assert.Nil(t, cache.Get())
}

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/domain/service"
	"github.com/damon-houk/currency-converter/internal/infrastructure/cache"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/damon-houk/currency-converter/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mockSource(name string) *mocks.MockRateSource {
	source := new(mocks.MockRateSource)
	source.On("Name").Return(name).Maybe()
	return source
}

func TestFallbackRateProvider(t *testing.T) {
	ctx := context.Background()
	log := logger.NewJSONLogger(&bytes.Buffer{}, logger.DebugLevel)
	live := &entity.RateFetchResult{
		Table:     entity.RateTable{"USD": 1, "EUR": 0.9},
		Source:    "secondary",
		FetchedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	t.Run("First success wins", func(t *testing.T) {
		primary := mockSource("primary")
		secondary := mockSource("secondary")
		tertiary := mockSource("tertiary")

		primary.On("FetchRates", mock.Anything).Return(nil, errors.New("dial tcp: connection refused")).Once()
		secondary.On("FetchRates", mock.Anything).Return(live, nil).Once()

		provider := NewFallbackRateProvider([]service.RateSource{primary, secondary, tertiary}, nil, log)
		result := provider.FetchRates(ctx)

		assert.False(t, result.Degraded)
		assert.Equal(t, "secondary", result.Source)
		assert.Equal(t, live.Table, result.Table)

		primary.AssertExpectations(t)
		secondary.AssertExpectations(t)
		tertiary.AssertNotCalled(t, "FetchRates", mock.Anything)
	})

	t.Run("All sources fail", func(t *testing.T) {
		primary := mockSource("primary")
		secondary := mockSource("secondary")
		primary.On("FetchRates", mock.Anything).Return(nil, entity.ErrRateFetchFailure).Once()
		secondary.On("FetchRates", mock.Anything).Return(nil, entity.ErrRateFetchFailure).Once()

		provider := NewFallbackRateProvider([]service.RateSource{primary, secondary}, nil, log)
		result := provider.FetchRates(ctx)

		assert.True(t, result.Degraded)
		assert.Equal(t, StaticSourceName, result.Source)
		assert.Equal(t, StaticRates(), result.Table)
		assert.True(t, result.FetchedAt.IsZero())

		freshness := service.ClassifyFreshness(nil, time.Now())
		assert.Equal(t, entity.StatusOffline, freshness.Status)
	})

	t.Run("No sources configured", func(t *testing.T) {
		provider := NewFallbackRateProvider(nil, nil, log)
		result := provider.FetchRates(ctx)
		assert.True(t, result.Degraded)
		assert.NoError(t, result.Table.Validate())
	})

	t.Run("Invalid table falls through", func(t *testing.T) {
		bad := mockSource("bad")
		bad.On("FetchRates", mock.Anything).Return(&entity.RateFetchResult{Table: entity.RateTable{"EUR": 0.9}}, nil).Once()
		good := mockSource("good")
		good.On("FetchRates", mock.Anything).Return(&entity.RateFetchResult{Table: entity.RateTable{"USD": 1, "EUR": 0.9}}, nil).Once()

		provider := NewFallbackRateProvider([]service.RateSource{bad, good}, nil, log)
		result := provider.FetchRates(ctx)

		assert.False(t, result.Degraded)
		assert.Equal(t, "good", result.Source)
		assert.False(t, result.FetchedAt.IsZero())
	})

	t.Run("Panicking source is contained", func(t *testing.T) {
		broken := mockSource("broken")
		broken.On("FetchRates", mock.Anything).Run(func(mock.Arguments) { panic("boom") }).Return(nil, nil).Once()

		provider := NewFallbackRateProvider([]service.RateSource{broken}, nil, log)
		result := provider.FetchRates(ctx)
		assert.True(t, result.Degraded)
	})

	t.Run("Cached result skips the network", func(t *testing.T) {
		rateCache := cache.NewExchangeRateCache(1024*1024, time.Hour)
		primary := mockSource("primary")
		primary.On("FetchRates", mock.Anything).Return(live, nil).Once()

		provider := NewFallbackRateProvider([]service.RateSource{primary}, rateCache, log)
		first := provider.FetchRates(ctx)
		second := provider.FetchRates(ctx)

		assert.Equal(t, first.Table, second.Table)
		assert.Equal(t, first.Source, second.Source)
		primary.AssertNumberOfCalls(t, "FetchRates", 1)
	})

	t.Run("Invalidate forces a fetch", func(t *testing.T) {
		rateCache := cache.NewExchangeRateCache(1024*1024, time.Hour)
		primary := mockSource("primary")
		primary.On("FetchRates", mock.Anything).Return(live, nil).Twice()

		provider := NewFallbackRateProvider([]service.RateSource{primary}, rateCache, log)
		provider.FetchRates(ctx)
		provider.Invalidate()
		provider.FetchRates(ctx)

		primary.AssertNumberOfCalls(t, "FetchRates", 2)

		// a provider without a cache has nothing to drop
		NewFallbackRateProvider(nil, nil, log).Invalidate()
	})

	t.Run("Degraded result is not cached", func(t *testing.T) {
		rateCache := cache.NewExchangeRateCache(1024*1024, time.Hour)
		provider := NewFallbackRateProvider(nil, rateCache, log)

		assert.True(t, provider.FetchRates(ctx).Degraded)
		assert.Nil(t, rateCache.Get())
	})
}

func TestFallbackRateProviderOverHTTP(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer down.Close()

	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"base":"USD","date":"2024-03-01","rates":{"USD":1,"EUR":0.9}}`))
	}))
	defer up.Close()

	log := logger.NewJSONLogger(&bytes.Buffer{}, logger.InfoLevel)
	provider := NewFallbackRateProvider([]service.RateSource{
		NewHTTPRateSource(down.URL, down.Client(), 1, log),
		NewHTTPRateSource(up.URL, up.Client(), 1, log),
	}, nil, log)

	result := provider.FetchRates(context.Background())
	require.False(t, result.Degraded)
	assert.Equal(t, 0.9, result.Table["EUR"])
	assert.Equal(t, "2024-03-01", result.RatesDate)
}

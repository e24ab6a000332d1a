// Package api talks to the public exchange-rate endpoints
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/domain/service"
	"github.com/damon-houk/currency-converter/internal/infrastructure/cache"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
)

// FallbackRateProvider tries its sources in priority order and serves the static
// snapshot when all of them fail
type FallbackRateProvider struct {
	sources []service.RateSource
	cache   *cache.ExchangeRateCache
	logger  logger.Logger
}

// NewFallbackRateProvider creates a provider. cache may be nil to always hit the network.
func NewFallbackRateProvider(sources []service.RateSource, rateCache *cache.ExchangeRateCache, log logger.Logger) *FallbackRateProvider {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &FallbackRateProvider{
		sources: sources,
		cache:   rateCache,
		logger:  log,
	}
}

// FetchRates returns the first successful source result, a cached one, or the static snapshot
func (p *FallbackRateProvider) FetchRates(ctx context.Context) *entity.RateFetchResult {
	if p.cache != nil {
		if cached := p.cache.Get(); cached != nil {
			p.logger.Debug("Rates served from cache", map[string]interface{}{
				"source":     cached.Source,
				"fetched_at": cached.FetchedAt.Format(time.RFC3339),
			})
			return cached
		}
	}

	for i, source := range p.sources {
		started := time.Now()
		result, err := p.tryFetch(ctx, source)
		if err != nil {
			p.logger.Warn("Rate source failed, trying next", map[string]interface{}{
				"source":   source.Name(),
				"priority": i,
				"error":    err.Error(),
			})
			continue
		}

		p.logger.Info("Rates fetched", map[string]interface{}{
			"source":      result.Source,
			"currencies":  len(result.Table),
			"rates_date":  result.RatesDate,
			"duration_ms": time.Since(started).Milliseconds(),
		})

		if p.cache != nil {
			if err := p.cache.Put(result); err != nil {
				p.logger.Warn("Failed to cache rates", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}

		return result
	}

	p.logger.Error("All rate sources failed, using offline rates", map[string]interface{}{
		"sources": len(p.sources),
	})

	return &entity.RateFetchResult{
		Table:    StaticRates(),
		Source:   StaticSourceName,
		Degraded: true,
	}
}

// Invalidate drops the cached result, if any
func (p *FallbackRateProvider) Invalidate() {
	if p.cache != nil {
		p.cache.Clear()
	}
}

// tryFetch shields the chain from sources that panic or hand back an unusable table
func (p *FallbackRateProvider) tryFetch(ctx context.Context, source service.RateSource) (result *entity.RateFetchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("%w: source panicked: %v", entity.ErrRateFetchFailure, r)
		}
	}()

	result, err = source.FetchRates(ctx)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("%w: source returned no result", entity.ErrRateFetchFailure)
	}
	if err := result.Table.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrRateFetchFailure, err)
	}
	if result.Source == "" {
		result.Source = source.Name()
	}
	if result.FetchedAt.IsZero() {
		result.FetchedAt = time.Now()
	}

	return result, nil
}

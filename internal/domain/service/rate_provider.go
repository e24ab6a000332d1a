package service

import (
	"context"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
)

// RateSource is a single remote endpoint that can produce a rate table
type RateSource interface {
	// Name identifies the source in logs and results
	Name() string

	// FetchRates retrieves the latest base-relative rates
	FetchRates(ctx context.Context) (*entity.RateFetchResult, error)
}

// RateProvider produces a usable rate table no matter what the network does.
// A provider never returns an error; total failure is reported through Degraded.
type RateProvider interface {
	FetchRates(ctx context.Context) *entity.RateFetchResult

	// Invalidate forgets any cached result so the next FetchRates asks the sources
	Invalidate()
}

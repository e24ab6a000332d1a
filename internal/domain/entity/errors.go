package entity

import "errors"

var (
	// ErrInvalidAmount is returned for a missing, non-numeric, zero or negative amount
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrUnsupportedCurrency is returned when a currency is absent from the rate table
	ErrUnsupportedCurrency = errors.New("currency not supported")

	// ErrRateFetchFailure marks a failed attempt against a single rate source
	ErrRateFetchFailure = errors.New("rate fetch failed")
)

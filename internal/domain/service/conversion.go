// Package service holds the pure conversion rules and the contracts of rate collaborators
package service

import (
	"fmt"
	"strings"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ParseAmount turns raw user input into an amount suitable for Convert
func ParseAmount(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("%w: amount is required", entity.ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", entity.ErrInvalidAmount, raw)
	}

	if !d.IsPositive() {
		return 0, fmt.Errorf("%w: amount must be a positive value", entity.ErrInvalidAmount)
	}

	return d.InexactFloat64(), nil
}

// Convert expresses req.Amount of req.From in req.To by pivoting through the base currency.
// The result is not rounded.
func Convert(req entity.ConversionRequest, table entity.RateTable) (*entity.ConversionResult, error) {
	if !entity.IsValidRate(req.Amount) {
		return nil, fmt.Errorf("%w: amount must be a positive value", entity.ErrInvalidAmount)
	}

	fromRate, ok := table[req.From]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedCurrency, req.From)
	}

	toRate, ok := table[req.To]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnsupportedCurrency, req.To)
	}

	baseAmount := req.Amount / fromRate
	converted := baseAmount * toRate
	effectiveRate := toRate / fromRate

	// finite inputs can still overflow (or underflow to zero) at the extremes of float64
	if !entity.IsValidRate(converted) || !entity.IsValidRate(effectiveRate) {
		return nil, fmt.Errorf("%w: converted amount is out of range", entity.ErrInvalidAmount)
	}

	return &entity.ConversionResult{
		ConvertedAmount: converted,
		EffectiveRate:   effectiveRate,
	}, nil
}

package entity

import (
	"fmt"
	"math"
	"time"
)

// BaseCurrency is the pivot currency every rate in a RateTable is quoted against
const BaseCurrency = "USD"

// RateTable maps currency codes to rates relative to BaseCurrency
type RateTable map[string]float64

// Validate ensures the base currency is present at 1.0 and every rate is positive and finite
func (t RateTable) Validate() error {
	base, ok := t[BaseCurrency]
	if !ok {
		return fmt.Errorf("rate table is missing base currency %s", BaseCurrency)
	}
	if base != 1.0 {
		return fmt.Errorf("base currency %s must have rate 1.0, got %v", BaseCurrency, base)
	}

	for code, rate := range t {
		if !IsValidRate(rate) {
			return fmt.Errorf("invalid rate for %s: %v", code, rate)
		}
	}

	return nil
}

// Has reports whether the table carries a rate for the currency code
func (t RateTable) Has(code string) bool {
	_, ok := t[code]
	return ok
}

// Clone returns a copy that can be handed out without sharing the map
func (t RateTable) Clone() RateTable {
	c := make(RateTable, len(t))
	for k, v := range t {
		c[k] = v
	}
	return c
}

// IsValidRate reports whether a rate can live in a RateTable
func IsValidRate(rate float64) bool {
	return rate > 0 && !math.IsNaN(rate) && !math.IsInf(rate, 0)
}

// RateFetchResult is what a rate provider hands back after trying its sources
type RateFetchResult struct {
	Table     RateTable `json:"rates"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	RatesDate string    `json:"rates_date,omitempty"`
	Degraded  bool      `json:"degraded"`
}

package api

import "github.com/damon-houk/currency-converter/internal/domain/entity"

// StaticSourceName marks results served from the built-in snapshot
const StaticSourceName = "static"

// StaticRates returns the built-in snapshot used when every remote source fails
func StaticRates() entity.RateTable {
	return entity.RateTable{
		"USD": 1,
		"EUR": 0.85,
		"GBP": 0.73,
		"JPY": 110.12,
		"AUD": 1.35,
		"CAD": 1.25,
		"CHF": 0.92,
		"CNY": 6.45,
		"INR": 74.5,
		"KRW": 1180.5,
		"SGD": 1.35,
		"NZD": 1.42,
		"MXN": 20.15,
		"BRL": 5.2,
		"RUB": 73.25,
		"ZAR": 14.75,
	}
}

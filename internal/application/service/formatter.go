package service

import (
	"fmt"
	"math"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Status colors used by the rate info line
const (
	ColorLive    = "#4CAF50"
	ColorStale   = "#FF9800"
	ColorCached  = "#f44336"
	ColorOffline = "#9E9E9E"
)

// OfflineMessage is shown whenever the static snapshot is in use
const OfflineMessage = "Using offline rates. Connect to internet for live rates."

// ResultDisplay is the formatted conversion result
type ResultDisplay struct {
	Headline string `json:"headline"`
	Detail   string `json:"detail"`
	ToAmount string `json:"to_amount"`
}

// RateInfo is the formatted rate line with its freshness label
type RateInfo struct {
	Pair   string `json:"pair"`
	Status string `json:"status"`
	Color  string `json:"color"`
}

// FormatResult renders a conversion the way the widget shows it:
// "1,234.50 EUR" as the headline and "100 USD = 90.00 EUR" underneath
func FormatResult(req entity.ConversionRequest, result *entity.ConversionResult) ResultDisplay {
	toAmount := formatFixed(result.ConvertedAmount, 2)

	return ResultDisplay{
		Headline: fmt.Sprintf("%s %s", FormatAmount(result.ConvertedAmount), req.To),
		Detail:   fmt.Sprintf("%s %s = %s %s", formatPlain(req.Amount), req.From, toAmount, req.To),
		ToAmount: toAmount,
	}
}

// FormatAmount renders an amount with thousands separators and two decimals
func FormatAmount(amount float64) string {
	if !isFinite(amount) {
		return "-"
	}
	return humanize.FormatFloat("#,###.##", roundCents(amount))
}

// FormatRate renders an exchange rate to four decimals
func FormatRate(rate float64) string {
	return formatFixed(rate, 4)
}

// FormatRateInfo renders both directions of the pair plus the freshness status
func FormatRateInfo(from, to string, effectiveRate float64, freshness entity.RateFreshness) RateInfo {
	pair := fmt.Sprintf("1 %s = %s %s • 1 %s = %s %s",
		from, FormatRate(effectiveRate), to,
		to, FormatRate(1/effectiveRate), from)

	status, color := FormatFreshness(freshness)

	return RateInfo{
		Pair:   pair,
		Status: status,
		Color:  color,
	}
}

// FormatFreshness returns the status label and its color
func FormatFreshness(freshness entity.RateFreshness) (string, string) {
	var label, color string

	switch freshness.Status {
	case entity.StatusLive:
		label, color = "Live rates", ColorLive
	case entity.StatusStale:
		label, color = "Stale rates", ColorStale
	case entity.StatusCached:
		label, color = "Cached rates", ColorCached
	default:
		return OfflineMessage, ColorOffline
	}

	if freshness.AgeMinutes < 1 {
		return label + " • Updated just now", color
	}
	return fmt.Sprintf("%s • Updated %d min ago", label, freshness.AgeMinutes), color
}

// FormatHistoryEntry renders one history line, e.g. "2024-03-01 12:00 100 USD -> 90.00 EUR @ 0.9000"
func FormatHistoryEntry(entry entity.HistoryEntry) string {
	return fmt.Sprintf("%s %s %s -> %s %s @ %s",
		entry.Timestamp.UTC().Format("2006-01-02 15:04"),
		formatPlain(entry.FromAmount), entry.FromCurrency,
		FormatAmount(entry.ToAmount), entry.ToCurrency,
		FormatRate(entry.Rate))
}

// roundCents rounds to the two decimals the user sees
func roundCents(amount float64) float64 {
	if !isFinite(amount) {
		return amount
	}
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

func formatFixed(v float64, places int32) string {
	if !isFinite(v) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func formatPlain(v float64) string {
	if !isFinite(v) {
		return "-"
	}
	return decimal.NewFromFloat(v).String()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

package entity

import (
	"time"
)

// HistoryEntry records one completed conversion
type HistoryEntry struct {
	ID           string    `json:"id"`
	FromAmount   float64   `json:"from_amount"`
	FromCurrency string    `json:"from_currency"`
	ToAmount     float64   `json:"to_amount"`
	ToCurrency   string    `json:"to_currency"`
	Rate         float64   `json:"rate"`
	Timestamp    time.Time `json:"timestamp"`
}

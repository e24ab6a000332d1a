package handler

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/damon-houk/currency-converter/internal/application/service"
	"github.com/damon-houk/currency-converter/internal/domain/entity"
)

// AmountInput accepts the amount either as a JSON number or as the raw text typed by the user
type AmountInput string

// UnmarshalJSON implements json.Unmarshaler
func (a *AmountInput) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a number or a string")
	}
	*a = AmountInput(n.String())
	return nil
}

// ConvertRequest represents the request body for the convert and swap endpoints
type ConvertRequest struct {
	Amount AmountInput `json:"amount"`
	From   string      `json:"from"`
	To     string      `json:"to"`
}

// ConversionResponse represents the response for the convert and swap endpoints
type ConversionResponse struct {
	From            string                `json:"from"`
	To              string                `json:"to"`
	Amount          float64               `json:"amount"`
	ConvertedAmount float64               `json:"converted_amount"`
	EffectiveRate   float64               `json:"effective_rate"`
	Display         service.ResultDisplay `json:"display"`
	RateInfo        service.RateInfo      `json:"rate_info"`
	Rates           service.RateStatus    `json:"rates"`
	HistoryID       string                `json:"history_id,omitempty"`
}

// RatesResponse represents the response for the rates endpoints
type RatesResponse struct {
	Base   string             `json:"base"`
	Rates  entity.RateTable   `json:"rates,omitempty"`
	Status service.RateStatus `json:"status"`
}

// CurrenciesResponse lists the supported currency codes
type CurrenciesResponse struct {
	Currencies []string `json:"currencies"`
}

// HistoryEntryResponse is one history entry plus its display line
type HistoryEntryResponse struct {
	entity.HistoryEntry
	Display string `json:"display"`
}

// HistoryResponse represents the response for the history endpoint
type HistoryResponse struct {
	Count   int                    `json:"count"`
	Entries []HistoryEntryResponse `json:"entries"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// Package handler exposes the converter over a JSON HTTP API
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/damon-houk/currency-converter/internal/application/service"
	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/damon-houk/currency-converter/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
)

// ConverterHandler handles HTTP requests for conversions and rates
type ConverterHandler struct {
	service *service.ConverterService
	logger  logger.Logger
}

// NewConverterHandler creates a new converter handler
func NewConverterHandler(service *service.ConverterService, log logger.Logger) *ConverterHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ConverterHandler{
		service: service,
		logger:  log,
	}
}

type conversionFunc func(ctx context.Context, rawAmount, from, to string) (*service.ConversionView, error)

// Convert handles the amount-changed and currency-changed triggers
func (h *ConverterHandler) Convert(w http.ResponseWriter, r *http.Request) {
	h.handleConversion(w, r, "convert", h.service.Convert)
}

// Swap handles the swap trigger
func (h *ConverterHandler) Swap(w http.ResponseWriter, r *http.Request) {
	h.handleConversion(w, r, "swap", h.service.Swap)
}

func (h *ConverterHandler) handleConversion(w http.ResponseWriter, r *http.Request, op string, convert conversionFunc) {
	requestID := middleware.GetRequestID(r.Context())

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid request body", map[string]interface{}{
			"request_id": requestID,
			"operation":  op,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Invalid request body",
			"The request body could not be parsed as valid JSON", http.StatusBadRequest, requestID)
		return
	}

	h.logger.Debug("Request parsed", map[string]interface{}{
		"request_id": requestID,
		"operation":  op,
		"amount":     string(req.Amount),
		"from":       req.From,
		"to":         req.To,
	})

	view, err := convert(r.Context(), string(req.Amount), req.From, req.To)
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrInvalidAmount):
			sendErrorResponse(w, h.logger, "Enter an amount to convert",
				"Amount must be a positive number", http.StatusBadRequest, requestID)
		case errors.Is(err, entity.ErrUnsupportedCurrency):
			sendErrorResponse(w, h.logger, "Currency not supported",
				err.Error(), http.StatusBadRequest, requestID)
		default:
			h.logger.Error("Unexpected error in conversion handler", map[string]interface{}{
				"request_id": requestID,
				"operation":  op,
				"error":      err.Error(),
			})
			sendErrorResponse(w, h.logger, "Internal server error",
				"An unexpected error occurred. Please try again later.",
				http.StatusInternalServerError, requestID)
		}
		return
	}

	resp := ConversionResponse{
		From:            view.Request.From,
		To:              view.Request.To,
		Amount:          view.Request.Amount,
		ConvertedAmount: view.Result.ConvertedAmount,
		EffectiveRate:   view.Result.EffectiveRate,
		Display:         view.Display,
		RateInfo:        view.RateInfo,
		Rates:           view.Rates,
	}
	if view.Entry != nil {
		resp.HistoryID = view.Entry.ID
	}

	sendJSON(w, h.logger, http.StatusOK, resp)
}

// GetRates returns the current rate table and its freshness
func (h *ConverterHandler) GetRates(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, h.logger, http.StatusOK, RatesResponse{
		Base:   entity.BaseCurrency,
		Rates:  h.service.Rates(),
		Status: h.service.RateStatus(),
	})
}

// RefreshRates handles the refresh trigger. Failures surface as a degraded status, never as an error.
func (h *ConverterHandler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := h.service.RefreshNow(r.Context())

	h.logger.Info("Rates refresh requested", map[string]interface{}{
		"request_id": requestID,
		"status":     string(status.Freshness.Status),
		"source":     status.Source,
	})

	sendJSON(w, h.logger, http.StatusOK, RatesResponse{
		Base:   entity.BaseCurrency,
		Status: status,
	})
}

// GetCurrencies lists the supported currency codes
func (h *ConverterHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, h.logger, http.StatusOK, CurrenciesResponse{
		Currencies: h.service.Currencies(),
	})
}

// RegisterRoutes registers the converter handler routes
func (h *ConverterHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/convert", h.Convert).Methods("POST")
	router.HandleFunc("/swap", h.Swap).Methods("POST")
	router.HandleFunc("/rates", h.GetRates).Methods("GET")
	router.HandleFunc("/rates/refresh", h.RefreshRates).Methods("POST")
	router.HandleFunc("/currencies", h.GetCurrencies).Methods("GET")

	h.logger.Info("Converter routes registered", map[string]interface{}{
		"routes": []string{
			"POST /convert",
			"POST /swap",
			"GET /rates",
			"POST /rates/refresh",
			"GET /currencies",
		},
	})
}

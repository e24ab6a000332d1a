package handler

import (
	"encoding/json"
	"net/http"

	"github.com/damon-houk/currency-converter/internal/application/service"
	"github.com/damon-houk/currency-converter/internal/domain/entity"
	"github.com/damon-houk/currency-converter/internal/infrastructure/logger"
	"github.com/damon-houk/currency-converter/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/samber/lo"
)

// HistoryHandler handles HTTP requests for the conversion history
type HistoryHandler struct {
	service *service.ConverterService
	logger  logger.Logger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(service *service.ConverterService, log logger.Logger) *HistoryHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &HistoryHandler{
		service: service,
		logger:  log,
	}
}

// GetHistory returns every recorded conversion, oldest first
func (h *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	entries, err := h.service.History(r.Context())
	if err != nil {
		h.logger.Error("Unexpected error in get history", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred while loading the history",
			http.StatusInternalServerError, requestID)
		return
	}

	resp := HistoryResponse{
		Count: len(entries),
		Entries: lo.Map(entries, func(e entity.HistoryEntry, _ int) HistoryEntryResponse {
			return HistoryEntryResponse{HistoryEntry: e, Display: service.FormatHistoryEntry(e)}
		}),
	}

	sendJSON(w, h.logger, http.StatusOK, resp)
}

// ClearHistory handles the clear-history trigger
func (h *HistoryHandler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	if err := h.service.ClearHistory(r.Context()); err != nil {
		h.logger.Error("Unexpected error in clear history", map[string]interface{}{
			"request_id": requestID,
			"error":      err.Error(),
		})
		sendErrorResponse(w, h.logger, "Internal server error",
			"An unexpected error occurred while clearing the history",
			http.StatusInternalServerError, requestID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RegisterRoutes registers the history handler routes
func (h *HistoryHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/history", h.GetHistory).Methods("GET")
	router.HandleFunc("/history", h.ClearHistory).Methods("DELETE")

	h.logger.Info("History routes registered", map[string]interface{}{
		"routes": []string{
			"GET /history",
			"DELETE /history",
		},
	})
}

// sendJSON writes v as a JSON response
func sendJSON(w http.ResponseWriter, log logger.Logger, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	sendJSON(w, log, statusCode, ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}

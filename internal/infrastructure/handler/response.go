package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/damon-houk/currency-exchange-app/internal/application/service"
	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
)

// writeJSON sends v as a JSON body with the given status
func writeJSON(w http.ResponseWriter, log logger.Logger, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

// sendErrorResponse sends a standardized error response
func sendErrorResponse(w http.ResponseWriter, log logger.Logger, message, description string, statusCode int, requestID string) {
	log.Debug("Sending error response", map[string]interface{}{
		"request_id":  requestID,
		"status_code": statusCode,
		"message":     message,
	})

	writeJSON(w, log, statusCode, ErrorResponse{
		Error:       message,
		Status:      statusCode,
		Description: description,
		RequestID:   requestID,
	})
}

// sendServiceError maps a service error onto an HTTP status and error response
func sendServiceError(w http.ResponseWriter, log logger.Logger, err error, requestID string) {
	fields := map[string]interface{}{
		"request_id": requestID,
		"error":      err.Error(),
	}

	switch {
	case errors.Is(err, entity.ErrInvalidCurrency):
		log.Warn("Invalid currency code", fields)
		sendErrorResponse(w, log, "Invalid currency code",
			"Currency codes must be three letters (e.g., USD, EUR, GBP)", http.StatusBadRequest, requestID)
	case errors.Is(err, entity.ErrInvalidAmount):
		log.Warn("Invalid amount", fields)
		sendErrorResponse(w, log, "Invalid amount",
			"Amount must be a non-negative number", http.StatusBadRequest, requestID)
	case errors.Is(err, entity.ErrInvalidDays):
		log.Warn("Invalid days", fields)
		sendErrorResponse(w, log, "Invalid days",
			fmt.Sprintf("Days must be between 0 and %d", service.MaxHistoricalDays), http.StatusBadRequest, requestID)
	case errors.Is(err, entity.ErrInvalidPreferences):
		log.Warn("Invalid preferences", fields)
		sendErrorResponse(w, log, "Invalid preferences", err.Error(), http.StatusBadRequest, requestID)
	case errors.Is(err, entity.ErrRateUnavailable):
		log.Warn("Exchange rate not available", fields)
		sendErrorResponse(w, log, "Exchange rate not available",
			"No exchange rate is available for the requested currency pair", http.StatusNotFound, requestID)
	case errors.Is(err, entity.ErrSourcesExhausted):
		log.Error("Exchange rate service unavailable", fields)
		sendErrorResponse(w, log, "Exchange rate service unavailable",
			"Unable to retrieve exchange rate data. Please try again later.", http.StatusServiceUnavailable, requestID)
	default:
		log.Error("Unexpected error", fields)
		sendErrorResponse(w, log, "Internal server error",
			"An unexpected error occurred. Please try again later.", http.StatusInternalServerError, requestID)
	}
}

// parseDays reads the days query parameter, falling back to def when absent
func parseDays(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return def, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", entity.ErrInvalidDays, raw)
	}
	if days < 0 || days > service.MaxHistoricalDays {
		return 0, fmt.Errorf("%w: %d", entity.ErrInvalidDays, days)
	}
	return days, nil
}

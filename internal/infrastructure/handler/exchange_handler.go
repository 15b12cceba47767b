package handler

import (
	"fmt"
	"net/http"

	"github.com/damon-houk/currency-exchange-app/internal/application/service"
	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// defaultExchangeDays is the history length when ?days is absent
const defaultExchangeDays = 7

// ExchangeHandler handles HTTP requests served through the rate cache
type ExchangeHandler struct {
	service *service.ExchangeService
	logger  logger.Logger
}

// NewExchangeHandler creates a new exchange handler
func NewExchangeHandler(service *service.ExchangeService, log logger.Logger) *ExchangeHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &ExchangeHandler{
		service: service,
		logger:  log,
	}
}

// Convert handles ?amount=&from=&to= conversions
func (h *ExchangeHandler) Convert(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()

	rawAmount := query.Get("amount")
	if rawAmount == "" {
		sendErrorResponse(w, h.logger, "Missing amount parameter",
			"The 'amount' query parameter is required", http.StatusBadRequest, requestID)
		return
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		sendServiceError(w, h.logger, fmt.Errorf("%w: %q", entity.ErrInvalidAmount, rawAmount), requestID)
		return
	}

	h.logger.Debug("Handling convert request", map[string]interface{}{
		"request_id": requestID,
		"amount":     rawAmount,
		"from":       query.Get("from"),
		"to":         query.Get("to"),
	})

	result, err := h.service.Convert(r.Context(), amount, query.Get("from"), query.Get("to"))
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

// GetRate handles retrieving the spot rate of a pair
func (h *ExchangeHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	rate, err := h.service.GetRate(r.Context(), vars["from"], vars["to"])
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, rate)
}

// GetHistorical handles retrieving a daily rate series
func (h *ExchangeHandler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	days, err := parseDays(r, defaultExchangeDays)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	series, err := h.service.GetHistorical(r.Context(), vars["from"], vars["to"], days)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, series)
}

// GetChart handles retrieving a rate series shaped for charting
func (h *ExchangeHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	vars := mux.Vars(r)

	days, err := parseDays(r, defaultExchangeDays)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	chart, err := h.service.GetChartSeries(r.Context(), vars["from"], vars["to"], days)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, chart)
}

// GetCurrencies handles listing the currency catalog
func (h *ExchangeHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.service.GetAvailableCurrencies(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err, middleware.GetRequestID(r.Context()))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, currencies)
}

// GetPopularCurrencies handles listing the popular currencies
func (h *ExchangeHandler) GetPopularCurrencies(w http.ResponseWriter, r *http.Request) {
	currencies, err := h.service.GetPopularCurrencies(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err, middleware.GetRequestID(r.Context()))
		return
	}
	writeJSON(w, h.logger, http.StatusOK, currencies)
}

// GetCacheStats handles reporting the cache size
func (h *ExchangeHandler) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, newCacheStatsResponse(h.service.CacheStats()))
}

// ClearCache handles dropping every cached answer
func (h *ExchangeHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCache(r.Context())
	writeJSON(w, h.logger, http.StatusOK, CacheClearedResponse{Cleared: "all"})
}

// ClearCacheEntry handles dropping one cached answer by ?key=
func (h *ExchangeHandler) ClearCacheEntry(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		sendErrorResponse(w, h.logger, "Missing key parameter",
			"The 'key' query parameter is required", http.StatusBadRequest, middleware.GetRequestID(r.Context()))
		return
	}

	h.service.ClearCacheEntry(r.Context(), key)
	writeJSON(w, h.logger, http.StatusOK, CacheClearedResponse{Cleared: key})
}

// RegisterRoutes registers the exchange routes under /api/exchange
func (h *ExchangeHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/exchange").Subrouter()
	api.HandleFunc("/convert", h.Convert).Methods(http.MethodGet)
	api.HandleFunc("/rates/{from}/{to}", h.GetRate).Methods(http.MethodGet)
	api.HandleFunc("/historical/{from}/{to}", h.GetHistorical).Methods(http.MethodGet)
	api.HandleFunc("/chart/{from}/{to}", h.GetChart).Methods(http.MethodGet)
	api.HandleFunc("/currencies", h.GetCurrencies).Methods(http.MethodGet)
	api.HandleFunc("/currencies/popular", h.GetPopularCurrencies).Methods(http.MethodGet)
	api.HandleFunc("/cache", h.GetCacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache", h.ClearCache).Methods(http.MethodDelete)
	api.HandleFunc("/cache/entry", h.ClearCacheEntry).Methods(http.MethodDelete)

	h.logger.Info("Exchange routes registered", map[string]interface{}{
		"routes": []string{
			"GET /api/exchange/convert",
			"GET /api/exchange/rates/{from}/{to}",
			"GET /api/exchange/historical/{from}/{to}",
			"GET /api/exchange/chart/{from}/{to}",
			"GET /api/exchange/currencies",
			"GET /api/exchange/currencies/popular",
			"GET /api/exchange/cache",
			"DELETE /api/exchange/cache",
			"DELETE /api/exchange/cache/entry",
		},
	})
}

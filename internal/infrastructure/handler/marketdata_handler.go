// Package handler internal/infrastructure/handler/marketdata_handler.go
package handler

import (
	"fmt"
	"net/http"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	domainservice "github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/middleware"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// defaultMarketDataDays is the history length when ?days is absent
const defaultMarketDataDays = 30

// MarketDataHandler serves raw, uncached market data. It backs the internal
// API tier of the rate source chain.
type MarketDataHandler struct {
	source domainservice.RateSource
	logger logger.Logger
}

// NewMarketDataHandler creates a new market-data handler
func NewMarketDataHandler(source domainservice.RateSource, log logger.Logger) *MarketDataHandler {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &MarketDataHandler{
		source: source,
		logger: log,
	}
}

// GetCurrencies handles listing the currency catalog
func (h *MarketDataHandler) GetCurrencies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	currencies, err := h.source.GetAvailableCurrencies(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, currencies)
}

// GetPopularCurrencies handles listing the popular currencies
func (h *MarketDataHandler) GetPopularCurrencies(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	currencies, err := h.source.GetPopularCurrencies(r.Context())
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, currencies)
}

// GetRate handles retrieving the spot rate of a pair
func (h *MarketDataHandler) GetRate(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	from, to, err := pairFromVars(r)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	rate, err := h.source.GetRate(r.Context(), from, to)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, rate)
}

// Convert handles converting an amount given in the path
func (h *MarketDataHandler) Convert(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	from, to, err := pairFromVars(r)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	amount, err := decimal.NewFromString(mux.Vars(r)["amount"])
	if err != nil || amount.IsNegative() {
		sendServiceError(w, h.logger, fmt.Errorf("%w: %q", entity.ErrInvalidAmount, mux.Vars(r)["amount"]), requestID)
		return
	}

	result, err := h.source.Convert(r.Context(), amount, from, to)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, MarketDataConversionResponse{
		From:   from,
		To:     to,
		Amount: amount,
		Result: result,
	})
}

// GetHistorical handles retrieving a daily rate series
func (h *MarketDataHandler) GetHistorical(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	from, to, err := pairFromVars(r)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	days, err := parseDays(r, defaultMarketDataDays)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}

	series, err := h.source.GetHistorical(r.Context(), from, to, days)
	if err != nil {
		sendServiceError(w, h.logger, err, requestID)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, series)
}

// RegisterRoutes registers the market-data routes under /api/marketdata
func (h *MarketDataHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/marketdata").Subrouter()
	api.HandleFunc("/currencies", h.GetCurrencies).Methods(http.MethodGet)
	api.HandleFunc("/currencies/popular", h.GetPopularCurrencies).Methods(http.MethodGet)
	api.HandleFunc("/rates/{from}/{to}", h.GetRate).Methods(http.MethodGet)
	api.HandleFunc("/convert/{from}/{to}/{amount}", h.Convert).Methods(http.MethodGet)
	api.HandleFunc("/historical/{from}/{to}", h.GetHistorical).Methods(http.MethodGet)

	h.logger.Info("Market data routes registered", map[string]interface{}{
		"routes": []string{
			"GET /api/marketdata/currencies",
			"GET /api/marketdata/currencies/popular",
			"GET /api/marketdata/rates/{from}/{to}",
			"GET /api/marketdata/convert/{from}/{to}/{amount}",
			"GET /api/marketdata/historical/{from}/{to}",
		},
	})
}

// pairFromVars reads and normalizes {from} and {to}
func pairFromVars(r *http.Request) (string, string, error) {
	vars := mux.Vars(r)
	from, err := entity.NormalizeCurrencyCode(vars["from"])
	if err != nil {
		return "", "", err
	}
	to, err := entity.NormalizeCurrencyCode(vars["to"])
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

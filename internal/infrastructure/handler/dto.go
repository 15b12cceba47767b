package handler

import (
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/cache"
	"github.com/shopspring/decimal"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

// MarketDataConversionResponse represents the response of the market-data convert endpoint
type MarketDataConversionResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Result decimal.Decimal `json:"result"`
}

// CacheStatsResponse represents the response of the cache stats endpoint
type CacheStatsResponse struct {
	Conversions       int     `json:"conversions"`
	Rates             int     `json:"rates"`
	Historical        int     `json:"historical"`
	Currencies        int     `json:"currencies"`
	Total             int     `json:"total"`
	ExpirationSeconds float64 `json:"expiration_seconds"`
}

func newCacheStatsResponse(stats cache.CacheStats) CacheStatsResponse {
	return CacheStatsResponse{
		Conversions:       stats.Conversions,
		Rates:             stats.Rates,
		Historical:        stats.Historical,
		Currencies:        stats.Currencies,
		Total:             stats.Conversions + stats.Rates + stats.Historical + stats.Currencies,
		ExpirationSeconds: stats.Expiration.Seconds(),
	}
}

// CacheClearedResponse represents the response of the cache clear endpoints
type CacheClearedResponse struct {
	Cleared string `json:"cleared"`
}

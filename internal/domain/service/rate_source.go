// Package service internal/domain/service/rate_source.go
package service

import (
	"context"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// RateSource defines the capability shared by every provider of currency data
type RateSource interface {
	// Convert converts amount from one currency to another, rounded to 4 fractional digits
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)

	// GetRate returns the current rate for a currency pair
	GetRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error)

	// GetHistorical returns days+1 daily rates, oldest first, ending today
	GetHistorical(ctx context.Context, from, to string, days int) ([]entity.HistoricalRate, error)

	// GetAvailableCurrencies returns the full currency catalog
	GetAvailableCurrencies(ctx context.Context) ([]entity.Currency, error)

	// GetPopularCurrencies returns a small fixed subset of the catalog
	GetPopularCurrencies(ctx context.Context) ([]entity.Currency, error)
}

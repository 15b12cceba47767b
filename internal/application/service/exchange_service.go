// Package service internal/application/service/exchange_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	domainservice "github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/cache"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/middleware"
	"github.com/shopspring/decimal"
)

// MaxHistoricalDays bounds the length of a historical query
const MaxHistoricalDays = 365

// chartLabelLayout renders chart x-axis labels, e.g. "Jan 02"
const chartLabelLayout = "Jan 02"

// ConversionResult represents a converted amount together with its inputs
type ConversionResult struct {
	FromCurrency    string          `json:"from_currency"`
	ToCurrency      string          `json:"to_currency"`
	Amount          decimal.Decimal `json:"amount"`
	ConvertedAmount decimal.Decimal `json:"converted_amount"`
	Timestamp       time.Time       `json:"timestamp"`
}

// ChartSeries is a historical series shaped for a line chart
type ChartSeries struct {
	FromCurrency string    `json:"from_currency"`
	ToCurrency   string    `json:"to_currency"`
	Labels       []string  `json:"labels"`
	Values       []float64 `json:"values"`
}

// ExchangeService validates requests and answers them through the rate cache.
// It is the only owner of the cache.
type ExchangeService struct {
	cache  *cache.CachingRateSource
	logger logger.Logger
}

// NewExchangeService wraps source in a cache configured by opts
func NewExchangeService(source domainservice.RateSource, log logger.Logger, opts ...cache.Option) *ExchangeService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	opts = append([]cache.Option{cache.WithLogger(log.WithField("component", "rate_cache"))}, opts...)
	return &ExchangeService{
		cache:  cache.NewCachingRateSource(source, opts...),
		logger: log,
	}
}

// Convert converts amount from one currency to another
func (s *ExchangeService) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (*ConversionResult, error) {
	requestID := middleware.GetRequestID(ctx)

	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", entity.ErrInvalidAmount, amount)
	}
	from, to, err := normalizePair(from, to)
	if err != nil {
		return nil, err
	}

	converted, err := s.cache.Convert(ctx, amount, from, to)
	if err != nil {
		s.logger.Error("Failed to convert amount", map[string]interface{}{
			"request_id": requestID,
			"from":       from,
			"to":         to,
			"amount":     amount.String(),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to convert amount: %w", err)
	}

	s.logger.Info("Conversion completed", map[string]interface{}{
		"request_id":       requestID,
		"from":             from,
		"to":               to,
		"amount":           amount.String(),
		"converted_amount": converted.String(),
	})

	return &ConversionResult{
		FromCurrency:    from,
		ToCurrency:      to,
		Amount:          amount,
		ConvertedAmount: converted,
		Timestamp:       time.Now().UTC(),
	}, nil
}

// GetRate returns the spot rate between two currencies
func (s *ExchangeService) GetRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error) {
	from, to, err := normalizePair(from, to)
	if err != nil {
		return nil, err
	}

	rate, err := s.cache.GetRate(ctx, from, to)
	if err != nil {
		s.logger.Error("Failed to get exchange rate", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"from":       from,
			"to":         to,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to get exchange rate: %w", err)
	}
	return rate, nil
}

// GetHistorical returns days+1 daily rates ending today, oldest first
func (s *ExchangeService) GetHistorical(ctx context.Context, from, to string, days int) ([]entity.HistoricalRate, error) {
	if days < 0 || days > MaxHistoricalDays {
		return nil, fmt.Errorf("%w: %d not in [0, %d]", entity.ErrInvalidDays, days, MaxHistoricalDays)
	}
	from, to, err := normalizePair(from, to)
	if err != nil {
		return nil, err
	}

	series, err := s.cache.GetHistorical(ctx, from, to, days)
	if err != nil {
		s.logger.Error("Failed to get historical rates", map[string]interface{}{
			"request_id": middleware.GetRequestID(ctx),
			"from":       from,
			"to":         to,
			"days":       days,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("failed to get historical rates: %w", err)
	}
	return series, nil
}

// GetChartSeries returns the historical series as chart labels and values
func (s *ExchangeService) GetChartSeries(ctx context.Context, from, to string, days int) (*ChartSeries, error) {
	series, err := s.GetHistorical(ctx, from, to, days)
	if err != nil {
		return nil, err
	}

	// already validated by GetHistorical
	from, to, _ = normalizePair(from, to)

	chart := &ChartSeries{
		FromCurrency: from,
		ToCurrency:   to,
		Labels:       make([]string, len(series)),
		Values:       make([]float64, len(series)),
	}
	for i, point := range series {
		chart.Labels[i] = point.Date.Format(chartLabelLayout)
		chart.Values[i] = point.Rate.InexactFloat64()
	}
	return chart, nil
}

// GetAvailableCurrencies returns the full currency catalog
func (s *ExchangeService) GetAvailableCurrencies(ctx context.Context) ([]entity.Currency, error) {
	currencies, err := s.cache.GetAvailableCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get currencies: %w", err)
	}
	return currencies, nil
}

// GetPopularCurrencies returns the most traded currencies
func (s *ExchangeService) GetPopularCurrencies(ctx context.Context) ([]entity.Currency, error) {
	currencies, err := s.cache.GetPopularCurrencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get popular currencies: %w", err)
	}
	return currencies, nil
}

// ClearCache drops every cached answer
func (s *ExchangeService) ClearCache(ctx context.Context) {
	s.cache.ClearAll()
	s.logger.Info("Rate cache cleared", map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
	})
}

// ClearCacheEntry drops a single cached answer by key
func (s *ExchangeService) ClearCacheEntry(ctx context.Context, key string) {
	s.cache.ClearKey(key)
	s.logger.Info("Rate cache entry cleared", map[string]interface{}{
		"request_id": middleware.GetRequestID(ctx),
		"key":        key,
	})
}

// CacheStats reports the current size of the cache
func (s *ExchangeService) CacheStats() cache.CacheStats {
	return s.cache.Stats()
}

func normalizePair(from, to string) (string, string, error) {
	from, err := entity.NormalizeCurrencyCode(from)
	if err != nil {
		return "", "", err
	}
	to, err = entity.NormalizeCurrencyCode(to)
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

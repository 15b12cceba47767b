// internal/infrastructure/provider/fallback_rate_source.go
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// Operation names used in logs and failure metrics
const (
	OpConvert             = "convert"
	OpGetRate             = "get_rate"
	OpGetHistorical       = "get_historical"
	OpAvailableCurrencies = "available_currencies"
	OpPopularCurrencies   = "popular_currencies"
)

// Tier is one named source in a fallback chain
type Tier struct {
	Name   string
	Source service.RateSource
}

// FailureRecorder is notified each time a tier fails; metrics.Metrics implements it
type FailureRecorder interface {
	SourceFailure(tier, operation string)
}

type nopFailureRecorder struct{}

func (nopFailureRecorder) SourceFailure(string, string) {}

// FallbackOption configures a FallbackRateSource
type FallbackOption func(*FallbackRateSource)

// WithFailureRecorder sets the receiver of tier failures
func WithFailureRecorder(r FailureRecorder) FallbackOption {
	return func(f *FallbackRateSource) {
		if r != nil {
			f.recorder = r
		}
	}
}

// WithFallbackLogger sets the logger used for tier failures
func WithFallbackLogger(l logger.Logger) FallbackOption {
	return func(f *FallbackRateSource) {
		if l != nil {
			f.logger = l
		}
	}
}

// FallbackRateSource asks each tier in order and returns the first success
type FallbackRateSource struct {
	tiers    []Tier
	recorder FailureRecorder
	logger   logger.Logger
}

// NewFallbackRateSource creates a chain over tiers, tried in the given order
func NewFallbackRateSource(tiers []Tier, opts ...FallbackOption) *FallbackRateSource {
	f := &FallbackRateSource{
		tiers:    append([]Tier(nil), tiers...),
		recorder: nopFailureRecorder{},
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Tiers returns the tier names in order
func (f *FallbackRateSource) Tiers() []string {
	names := make([]string, len(f.tiers))
	for i, t := range f.tiers {
		names[i] = t.Name
	}
	return names
}

// Convert implements service.RateSource
func (f *FallbackRateSource) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	return firstSuccess(ctx, f, OpConvert, func(s service.RateSource) (decimal.Decimal, error) {
		return s.Convert(ctx, amount, from, to)
	})
}

// GetRate implements service.RateSource
func (f *FallbackRateSource) GetRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error) {
	return firstSuccess(ctx, f, OpGetRate, func(s service.RateSource) (*entity.ExchangeRate, error) {
		return s.GetRate(ctx, from, to)
	})
}

// GetHistorical implements service.RateSource
func (f *FallbackRateSource) GetHistorical(ctx context.Context, from, to string, days int) ([]entity.HistoricalRate, error) {
	return firstSuccess(ctx, f, OpGetHistorical, func(s service.RateSource) ([]entity.HistoricalRate, error) {
		return s.GetHistorical(ctx, from, to, days)
	})
}

// GetAvailableCurrencies implements service.RateSource
func (f *FallbackRateSource) GetAvailableCurrencies(ctx context.Context) ([]entity.Currency, error) {
	return firstSuccess(ctx, f, OpAvailableCurrencies, func(s service.RateSource) ([]entity.Currency, error) {
		return s.GetAvailableCurrencies(ctx)
	})
}

// GetPopularCurrencies implements service.RateSource
func (f *FallbackRateSource) GetPopularCurrencies(ctx context.Context) ([]entity.Currency, error) {
	return firstSuccess(ctx, f, OpPopularCurrencies, func(s service.RateSource) ([]entity.Currency, error) {
		return s.GetPopularCurrencies(ctx)
	})
}

func firstSuccess[V any](ctx context.Context, f *FallbackRateSource, operation string, call func(service.RateSource) (V, error)) (V, error) {
	var zero V
	var failures []error

	for _, tier := range f.tiers {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		start := time.Now()
		v, err := call(tier.Source)
		if err == nil {
			if len(failures) > 0 {
				f.logger.Info("Served by fallback tier", map[string]interface{}{
					"tier":      tier.Name,
					"operation": operation,
				})
			}
			return v, nil
		}

		failures = append(failures, fmt.Errorf("%s: %w", tier.Name, err))
		fields := map[string]interface{}{
			"tier":      tier.Name,
			"operation": operation,
			"elapsed":   time.Since(start).String(),
			"error":     err.Error(),
		}
		if errors.Is(err, entity.ErrUnsupported) {
			f.logger.Debug("Tier does not support operation", fields)
			continue
		}
		f.recorder.SourceFailure(tier.Name, operation)
		f.logger.Warn("Rate source tier failed", fields)
	}

	f.logger.Error("All rate source tiers failed", map[string]interface{}{
		"operation": operation,
		"tiers":     len(f.tiers),
	})
	if len(failures) == 0 {
		return zero, entity.ErrSourcesExhausted
	}
	return zero, fmt.Errorf("%w: %w", entity.ErrSourcesExhausted, errors.Join(failures...))
}

var _ service.RateSource = (*FallbackRateSource)(nil)

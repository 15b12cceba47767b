package provider_test

import (
	"context"
	"errors"
	"testing"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/provider"
	"github.com/damon-houk/currency-exchange-app/internal/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFallbackRateSource(t *testing.T) {
	ctx := context.Background()
	rate := &entity.ExchangeRate{FromCurrency: "USD", ToCurrency: "EUR", Rate: decimal.RequireFromString("0.91")}

	t.Run("first tier answers", func(t *testing.T) {
		primary, secondary := new(mocks.MockRateSource), new(mocks.MockRateSource)
		primary.On("GetRate", ctx, "USD", "EUR").Return(rate, nil).Once()

		chain := provider.NewFallbackRateSource([]provider.Tier{
			{Name: "primary", Source: primary},
			{Name: "secondary", Source: secondary},
		})

		got, err := chain.GetRate(ctx, "USD", "EUR")
		require.NoError(t, err)
		assert.Equal(t, rate, got)
		primary.AssertExpectations(t)
		secondary.AssertNotCalled(t, "GetRate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("falls through to the next tier", func(t *testing.T) {
		primary, secondary := new(mocks.MockRateSource), new(mocks.MockRateSource)
		recorder := new(mocks.MockFailureRecorder)
		primary.On("Convert", ctx, decimal.NewFromInt(10), "USD", "EUR").
			Return(decimal.Zero, errors.New("connection refused")).Once()
		secondary.On("Convert", ctx, decimal.NewFromInt(10), "USD", "EUR").
			Return(decimal.RequireFromString("9.1"), nil).Once()
		recorder.On("SourceFailure", "primary", provider.OpConvert).Once()

		chain := provider.NewFallbackRateSource([]provider.Tier{
			{Name: "primary", Source: primary},
			{Name: "secondary", Source: secondary},
		}, provider.WithFailureRecorder(recorder), provider.WithFallbackLogger(logger.Nop()))

		got, err := chain.Convert(ctx, decimal.NewFromInt(10), "USD", "EUR")
		require.NoError(t, err)
		assert.Equal(t, "9.1", got.String())
		primary.AssertExpectations(t)
		secondary.AssertExpectations(t)
		recorder.AssertExpectations(t)
	})

	t.Run("unsupported operations are not counted as failures", func(t *testing.T) {
		external := new(mocks.MockRateSource)
		recorder := new(mocks.MockFailureRecorder)
		external.On("GetHistorical", ctx, "USD", "EUR", 7).Return(nil, entity.ErrUnsupported).Once()

		chain := provider.NewFallbackRateSource([]provider.Tier{
			{Name: "external", Source: external},
			{Name: "mock", Source: provider.NewMockRateSource(provider.WithSeed(3))},
		}, provider.WithFailureRecorder(recorder))

		series, err := chain.GetHistorical(ctx, "USD", "EUR", 7)
		require.NoError(t, err)
		assert.Len(t, series, 8)
		recorder.AssertNotCalled(t, "SourceFailure", mock.Anything, mock.Anything)
	})

	t.Run("every tier fails", func(t *testing.T) {
		primary, secondary := new(mocks.MockRateSource), new(mocks.MockRateSource)
		errPrimary, errSecondary := errors.New("timeout"), errors.New("bad gateway")
		primary.On("GetAvailableCurrencies", ctx).Return(nil, errPrimary).Once()
		secondary.On("GetAvailableCurrencies", ctx).Return(nil, errSecondary).Once()

		chain := provider.NewFallbackRateSource([]provider.Tier{
			{Name: "primary", Source: primary},
			{Name: "secondary", Source: secondary},
		})

		_, err := chain.GetAvailableCurrencies(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, entity.ErrSourcesExhausted)
		assert.ErrorIs(t, err, errPrimary)
		assert.ErrorIs(t, err, errSecondary)
		assert.Contains(t, err.Error(), "primary: timeout")
		assert.Contains(t, err.Error(), "secondary: bad gateway")
	})

	t.Run("empty chain", func(t *testing.T) {
		_, err := provider.NewFallbackRateSource(nil).GetPopularCurrencies(ctx)
		assert.ErrorIs(t, err, entity.ErrSourcesExhausted)
	})

	t.Run("cancelled context stops the chain", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		primary := new(mocks.MockRateSource)

		chain := provider.NewFallbackRateSource([]provider.Tier{{Name: "primary", Source: primary}})
		_, err := chain.GetRate(cancelled, "USD", "EUR")
		assert.ErrorIs(t, err, context.Canceled)
		primary.AssertNotCalled(t, "GetRate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("tier names in order", func(t *testing.T) {
		chain := provider.NewFallbackRateSource([]provider.Tier{
			{Name: "internal_api", Source: new(mocks.MockRateSource)},
			{Name: "external_api", Source: new(mocks.MockRateSource)},
			{Name: "mock", Source: provider.NewMockRateSource()},
		})
		assert.Equal(t, []string{"internal_api", "external_api", "mock"}, chain.Tiers())
	})
}

// Package provider internal/infrastructure/provider/mock_rate_source.go
package provider

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/shopspring/decimal"
)

const (
	spotRateMin       = 0.1
	spotRateSpan      = 10.0
	historicalBaseMin = 0.5
	historicalSpan    = 2.0
	// daily deviation from the pair's base rate is within ±fluctuationSpan/2
	fluctuationSpan = 0.1
	rateDigits      = 6
)

// MockOption configures a MockRateSource
type MockOption func(*MockRateSource)

// WithSeed fixes the salt so that values are reproducible across processes
func WithSeed(seed uint64) MockOption {
	return func(m *MockRateSource) {
		m.salt = seed
	}
}

// WithNow replaces time.Now, mainly for tests
func WithNow(now func() time.Time) MockOption {
	return func(m *MockRateSource) {
		if now != nil {
			m.now = now
		}
	}
}

// MockRateSource generates plausible rates without any network access. It is
// the last tier of every fallback chain. A pair always yields the same rate
// for the same calendar day within one process.
type MockRateSource struct {
	salt uint64
	now  func() time.Time
}

// NewMockRateSource creates a generator with a random salt unless WithSeed is given
func NewMockRateSource(opts ...MockOption) *MockRateSource {
	m := &MockRateSource{
		salt: rand.Uint64(),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Convert multiplies amount by the current spot rate, rounded to ConversionPrecision digits
func (m *MockRateSource) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(m.spotRate(from, to)).Round(entity.ConversionPrecision), nil
}

// GetRate returns the spot rate for the pair
func (m *MockRateSource) GetRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &entity.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         m.spotRate(from, to),
		Timestamp:    m.now().UTC(),
	}, nil
}

// GetHistorical returns days+1 daily points, oldest first, ending today
func (m *MockRateSource) GetHistorical(ctx context.Context, from, to string, days int) ([]entity.HistoricalRate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, fmt.Errorf("%w: %d", entity.ErrInvalidDays, days)
	}

	today := entity.StartOfDay(m.now())
	base := historicalBaseMin + m.unit(from, to, "base", dayIndex(today))*historicalSpan

	series := make([]entity.HistoricalRate, 0, days+1)
	for i := days; i >= 0; i-- {
		date := today.AddDate(0, 0, -i)
		fluctuation := (m.unit(from, to, "day", dayIndex(date)) - 0.5) * fluctuationSpan
		series = append(series, entity.HistoricalRate{
			Date: date,
			Rate: decimal.NewFromFloat(base + fluctuation).Round(rateDigits),
		})
	}
	return series, nil
}

// GetAvailableCurrencies returns the static catalog
func (m *MockRateSource) GetAvailableCurrencies(ctx context.Context) ([]entity.Currency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entity.SupportedCurrencies(), nil
}

// GetPopularCurrencies returns the leading part of the static catalog
func (m *MockRateSource) GetPopularCurrencies(ctx context.Context) ([]entity.Currency, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entity.PopularCurrencies(), nil
}

func (m *MockRateSource) spotRate(from, to string) decimal.Decimal {
	if from == to {
		return decimal.NewFromInt(1)
	}
	u := m.unit(from, to, "spot", dayIndex(m.now()))
	return decimal.NewFromFloat(spotRateMin + u*spotRateSpan).Truncate(rateDigits)
}

// unit maps (salt, pair, label, day) onto [0, 1)
func (m *MockRateSource) unit(from, to, label string, day int64) float64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], m.salt)
	h.Write(buf[:])
	h.Write([]byte(from))
	h.Write([]byte{0})
	h.Write([]byte(to))
	h.Write([]byte{0})
	h.Write([]byte(label))
	binary.BigEndian.PutUint64(buf[:], uint64(day))
	h.Write(buf[:])
	return float64(h.Sum64()>>11) / (1 << 53)
}

func dayIndex(t time.Time) int64 {
	return entity.StartOfDay(t).Unix() / int64(24*time.Hour/time.Second)
}

var _ service.RateSource = (*MockRateSource)(nil)

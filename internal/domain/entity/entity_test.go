package entity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCurrencyCode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"Upper case", "USD", "USD", false},
		{"Lower case", "eur", "EUR", false},
		{"Surrounding spaces", "  gbp ", "GBP", false},
		{"Too short", "US", "", true},
		{"Too long", "EURO", "", true},
		{"Digits", "U5D", "", true},
		{"Empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCurrencyCode(tt.input)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidCurrency))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCurrencyCatalogs(t *testing.T) {
	all := SupportedCurrencies()
	popular := PopularCurrencies()

	assert.Len(t, popular, PopularCurrencyCount)
	assert.Equal(t, all[:PopularCurrencyCount], popular)

	seen := make(map[string]bool, len(all))
	for _, c := range all {
		_, err := NormalizeCurrencyCode(c.Code)
		assert.NoError(t, err, "catalog code %q", c.Code)
		assert.False(t, seen[c.Code], "duplicate code %q", c.Code)
		seen[c.Code] = true
	}

	// Callers get copies
	all[0].Code = "XXX"
	assert.Equal(t, "USD", SupportedCurrencies()[0].Code)
}

func TestUserPreferencesValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(p *UserPreferences)
		wantErr bool
	}{
		{"Defaults", func(p *UserPreferences) {}, false},
		{"Dark theme with favorites", func(p *UserPreferences) {
			p.Theme = "dark"
			p.FavoriteCurrencies = []string{"JPY", "CHF"}
		}, false},
		{"Unknown theme", func(p *UserPreferences) { p.Theme = "neon" }, true},
		{"Unknown chart period", func(p *UserPreferences) { p.ChartPeriod = "2W" }, true},
		{"Invalid from currency", func(p *UserPreferences) { p.DefaultFromCurrency = "DOLLAR" }, true},
		{"Invalid to currency", func(p *UserPreferences) { p.DefaultToCurrency = "" }, true},
		{"Invalid favorite", func(p *UserPreferences) { p.FavoriteCurrencies = []string{"EUR", "E"} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefs := DefaultPreferences()
			tt.modify(&prefs)

			err := prefs.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidPreferences))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestChartPeriodDays(t *testing.T) {
	assert.Equal(t, 1, ChartPeriodDays("1D"))
	assert.Equal(t, 7, ChartPeriodDays("7D"))
	assert.Equal(t, 30, ChartPeriodDays("30D"))
	assert.Equal(t, 90, ChartPeriodDays("90D"))
	assert.Equal(t, 365, ChartPeriodDays("1Y"))
	assert.Equal(t, 7, ChartPeriodDays("unknown"))
}

func TestStartOfDay(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	in := time.Date(2024, time.March, 15, 22, 30, 0, 0, est)

	got := StartOfDay(in)

	// 22:30 EST is 03:30 UTC the next day
	assert.Equal(t, time.Date(2024, time.March, 16, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, got, StartOfDay(got))
}

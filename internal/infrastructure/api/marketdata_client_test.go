package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMarketDataServer(t *testing.T) *httptest.Server {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/api/marketdata").Subrouter()
	api.HandleFunc("/currencies", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, entity.SupportedCurrencies())
	})
	api.HandleFunc("/currencies/popular", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, entity.PopularCurrencies())
	})
	api.HandleFunc("/rates/{from}/{to}", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		writeJSON(w, entity.ExchangeRate{
			FromCurrency: vars["from"],
			ToCurrency:   vars["to"],
			Rate:         decimal.RequireFromString("1.25"),
			Timestamp:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		})
	})
	api.HandleFunc("/convert/{from}/{to}/{amount}", func(w http.ResponseWriter, r *http.Request) {
		vars := mux.Vars(r)
		amount := decimal.RequireFromString(vars["amount"])
		writeJSON(w, map[string]interface{}{
			"from":   vars["from"],
			"to":     vars["to"],
			"amount": amount,
			"result": amount.Mul(decimal.RequireFromString("1.25")),
		})
	})
	api.HandleFunc("/historical/{from}/{to}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("days"))
		today := entity.StartOfDay(time.Now())
		series := make([]entity.HistoricalRate, 0, 4)
		for i := 3; i >= 0; i-- {
			series = append(series, entity.HistoricalRate{Date: today.AddDate(0, 0, -i), Rate: decimal.NewFromInt(int64(i + 1))})
		}
		writeJSON(w, series)
	})

	return httptest.NewServer(router)
}

func TestMarketDataClient(t *testing.T) {
	server := newMarketDataServer(t)
	defer server.Close()

	client := NewMarketDataClient(server.Client(), testConfig(server.URL+"/api/marketdata/"), nil)
	ctx := context.Background()

	t.Run("currencies", func(t *testing.T) {
		all, err := client.GetAvailableCurrencies(ctx)
		require.NoError(t, err)
		assert.Equal(t, entity.SupportedCurrencies(), all)

		popular, err := client.GetPopularCurrencies(ctx)
		require.NoError(t, err)
		assert.Equal(t, entity.PopularCurrencies(), popular)
	})

	t.Run("rate", func(t *testing.T) {
		rate, err := client.GetRate(ctx, "USD", "GBP")
		require.NoError(t, err)
		assert.Equal(t, "USD", rate.FromCurrency)
		assert.Equal(t, "GBP", rate.ToCurrency)
		assert.Equal(t, "1.25", rate.Rate.String())
		assert.True(t, rate.Timestamp.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
	})

	t.Run("convert", func(t *testing.T) {
		result, err := client.Convert(ctx, decimal.RequireFromString("8.5"), "USD", "GBP")
		require.NoError(t, err)
		assert.Equal(t, "10.625", result.String())
	})

	t.Run("historical", func(t *testing.T) {
		series, err := client.GetHistorical(ctx, "USD", "GBP", 3)
		require.NoError(t, err)
		require.Len(t, series, 4)
		assert.True(t, series[0].Date.Before(series[3].Date))
	})
}

func TestMarketDataClientUnreachable(t *testing.T) {
	server := newMarketDataServer(t)
	url := server.URL
	server.Close()

	client := NewMarketDataClient(nil, ClientConfig{BaseURL: url, MaxAttempts: 2, BackoffBase: time.Millisecond}, nil)
	_, err := client.GetRate(context.Background(), "USD", "EUR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
}

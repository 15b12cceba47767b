package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// DefaultMarketDataURL points at the market-data API of a local instance
const DefaultMarketDataURL = "http://localhost:8080/api/marketdata"

// MarketDataClient queries the /api/marketdata endpoints of this service,
// usually the same process or a sibling instance
type MarketDataClient struct {
	baseURL string
	getter  jsonGetter
}

// NewMarketDataClient creates a client for the market-data API
func NewMarketDataClient(httpClient *http.Client, cfg ClientConfig, log logger.Logger) *MarketDataClient {
	cfg = cfg.withDefaults(DefaultMarketDataURL)
	return &MarketDataClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		getter:  newJSONGetter(httpClient, cfg, log),
	}
}

type conversionResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
	Result decimal.Decimal `json:"result"`
}

// Convert implements service.RateSource
func (c *MarketDataClient) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	reqURL := fmt.Sprintf("%s/convert/%s/%s/%s", c.baseURL,
		url.PathEscape(from), url.PathEscape(to), url.PathEscape(amount.String()))

	var resp conversionResponse
	if err := c.getter.getJSON(ctx, reqURL, &resp); err != nil {
		return decimal.Zero, err
	}
	return resp.Result, nil
}

// GetRate implements service.RateSource
func (c *MarketDataClient) GetRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error) {
	reqURL := fmt.Sprintf("%s/rates/%s/%s", c.baseURL, url.PathEscape(from), url.PathEscape(to))

	var rate entity.ExchangeRate
	if err := c.getter.getJSON(ctx, reqURL, &rate); err != nil {
		return nil, err
	}
	return &rate, nil
}

// GetHistorical implements service.RateSource
func (c *MarketDataClient) GetHistorical(ctx context.Context, from, to string, days int) ([]entity.HistoricalRate, error) {
	reqURL := fmt.Sprintf("%s/historical/%s/%s?days=%d", c.baseURL, url.PathEscape(from), url.PathEscape(to), days)

	var series []entity.HistoricalRate
	if err := c.getter.getJSON(ctx, reqURL, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// GetAvailableCurrencies implements service.RateSource
func (c *MarketDataClient) GetAvailableCurrencies(ctx context.Context) ([]entity.Currency, error) {
	var currencies []entity.Currency
	if err := c.getter.getJSON(ctx, c.baseURL+"/currencies", &currencies); err != nil {
		return nil, err
	}
	return currencies, nil
}

// GetPopularCurrencies implements service.RateSource
func (c *MarketDataClient) GetPopularCurrencies(ctx context.Context) ([]entity.Currency, error) {
	var currencies []entity.Currency
	if err := c.getter.getJSON(ctx, c.baseURL+"/currencies/popular", &currencies); err != nil {
		return nil, err
	}
	return currencies, nil
}

var _ service.RateSource = (*MarketDataClient)(nil)

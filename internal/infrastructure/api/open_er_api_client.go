package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/currency-exchange-app/internal/domain/entity"
	"github.com/damon-houk/currency-exchange-app/internal/domain/service"
	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
)

// OpenERAPIBaseURL is the public endpoint of the free open.er-api.com service
const OpenERAPIBaseURL = "https://open.er-api.com/v6"

// OpenERAPIClient reads spot rates from open.er-api.com. The free API has no
// history, so historical queries report entity.ErrUnsupported.
type OpenERAPIClient struct {
	baseURL string
	getter  jsonGetter
	logger  logger.Logger
}

// NewOpenERAPIClient creates a new open.er-api.com client
func NewOpenERAPIClient(httpClient *http.Client, cfg ClientConfig, log logger.Logger) *OpenERAPIClient {
	cfg = cfg.withDefaults(OpenERAPIBaseURL)
	if log == nil {
		log = logger.Nop()
	}
	return &OpenERAPIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		getter:  newJSONGetter(httpClient, cfg, log),
		logger:  log,
	}
}

// LatestResponse represents the response structure of /latest/{base}
type LatestResponse struct {
	Result             string                     `json:"result"`
	ErrorType          string                     `json:"error-type"`
	BaseCode           string                     `json:"base_code"`
	TimeLastUpdateUnix int64                      `json:"time_last_update_unix"`
	Rates              map[string]decimal.Decimal `json:"rates"`
}

// Latest retrieves the rate table for base
func (c *OpenERAPIClient) Latest(ctx context.Context, base string) (*LatestResponse, error) {
	reqURL := fmt.Sprintf("%s/latest/%s", c.baseURL, url.PathEscape(strings.ToUpper(base)))

	var latest LatestResponse
	if err := c.getter.getJSON(ctx, reqURL, &latest); err != nil {
		return nil, err
	}
	if latest.Result != "success" {
		return nil, fmt.Errorf("open.er-api.com returned result %q (%s) for %s", latest.Result, latest.ErrorType, base)
	}
	return &latest, nil
}

// GetRate implements service.RateSource
func (c *OpenERAPIClient) GetRate(ctx context.Context, from, to string) (*entity.ExchangeRate, error) {
	latest, err := c.Latest(ctx, from)
	if err != nil {
		return nil, err
	}

	rate, ok := latest.Rates[strings.ToUpper(to)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", entity.ErrRateUnavailable, from, to)
	}
	if !rate.IsPositive() {
		return nil, fmt.Errorf("invalid exchange rate value: %s", rate)
	}

	timestamp := time.Now().UTC()
	if latest.TimeLastUpdateUnix > 0 {
		timestamp = time.Unix(latest.TimeLastUpdateUnix, 0).UTC()
	}

	return &entity.ExchangeRate{
		FromCurrency: from,
		ToCurrency:   to,
		Rate:         rate,
		Timestamp:    timestamp,
	}, nil
}

// Convert implements service.RateSource
func (c *OpenERAPIClient) Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	rate, err := c.GetRate(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(rate.Rate).Round(entity.ConversionPrecision), nil
}

// GetHistorical implements service.RateSource
func (c *OpenERAPIClient) GetHistorical(context.Context, string, string, int) ([]entity.HistoricalRate, error) {
	return nil, fmt.Errorf("%w: open.er-api.com has no historical data", entity.ErrUnsupported)
}

// GetAvailableCurrencies implements service.RateSource
func (c *OpenERAPIClient) GetAvailableCurrencies(context.Context) ([]entity.Currency, error) {
	return entity.SupportedCurrencies(), nil
}

// GetPopularCurrencies implements service.RateSource
func (c *OpenERAPIClient) GetPopularCurrencies(context.Context) ([]entity.Currency, error) {
	return entity.PopularCurrencies(), nil
}

var _ service.RateSource = (*OpenERAPIClient)(nil)

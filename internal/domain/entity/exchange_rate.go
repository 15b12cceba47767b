package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate represents the spot rate between two currencies at a point in time
type ExchangeRate struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	Timestamp    time.Time       `json:"timestamp"`
}

// HistoricalRate is a single point of a daily rate series
type HistoricalRate struct {
	Date time.Time       `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// ConversionPrecision is the number of fractional digits kept on converted amounts
const ConversionPrecision = 4

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

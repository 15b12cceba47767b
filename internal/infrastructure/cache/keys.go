package cache

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Sentinel keys for the parameterless catalog queries. Both live in the
// currency mapping, so clearing that mapping drops both lists together.
const (
	AvailableCurrenciesKey = "available_currencies"
	PopularCurrenciesKey   = "popular_currencies"
)

// encodeKey quotes every component before joining, so a separator inside a
// component can never make two different tuples render the same key.
func encodeKey(parts ...string) string {
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = strconv.Quote(p)
	}
	return strings.Join(quoted, "_")
}

// ConversionKey identifies a convert query. Equal amounts share a key
// regardless of trailing zeros.
func ConversionKey(amount decimal.Decimal, from, to string) string {
	return encodeKey(amount.String(), from, to)
}

// RateKey identifies a spot rate query
func RateKey(from, to string) string {
	return encodeKey(from, to)
}

// HistoricalKey identifies a historical series query
func HistoricalKey(from, to string, days int) string {
	return encodeKey(from, to, strconv.Itoa(days))
}

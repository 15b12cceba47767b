package entity

import (
	"fmt"
	"regexp"
	"strings"
)

// Currency describes a currency offered in the catalog
type Currency struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	FlagIcon string `json:"flag_icon"`
}

// PopularCurrencyCount is the size of the popular subset of the catalog
const PopularCurrencyCount = 10

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

var supportedCurrencies = []Currency{
	{Code: "USD", Name: "US Dollar", Symbol: "$", FlagIcon: "🇺🇸"},
	{Code: "EUR", Name: "Euro", Symbol: "€", FlagIcon: "🇪🇺"},
	{Code: "GBP", Name: "British Pound", Symbol: "£", FlagIcon: "🇬🇧"},
	{Code: "JPY", Name: "Japanese Yen", Symbol: "¥", FlagIcon: "🇯🇵"},
	{Code: "AUD", Name: "Australian Dollar", Symbol: "A$", FlagIcon: "🇦🇺"},
	{Code: "CAD", Name: "Canadian Dollar", Symbol: "C$", FlagIcon: "🇨🇦"},
	{Code: "CHF", Name: "Swiss Franc", Symbol: "Fr", FlagIcon: "🇨🇭"},
	{Code: "CNY", Name: "Chinese Yuan", Symbol: "¥", FlagIcon: "🇨🇳"},
	{Code: "SEK", Name: "Swedish Krona", Symbol: "kr", FlagIcon: "🇸🇪"},
	{Code: "NZD", Name: "New Zealand Dollar", Symbol: "NZ$", FlagIcon: "🇳🇿"},
	{Code: "MXN", Name: "Mexican Peso", Symbol: "$", FlagIcon: "🇲🇽"},
	{Code: "SGD", Name: "Singapore Dollar", Symbol: "S$", FlagIcon: "🇸🇬"},
	{Code: "HKD", Name: "Hong Kong Dollar", Symbol: "HK$", FlagIcon: "🇭🇰"},
	{Code: "NOK", Name: "Norwegian Krone", Symbol: "kr", FlagIcon: "🇳🇴"},
	{Code: "KRW", Name: "South Korean Won", Symbol: "₩", FlagIcon: "🇰🇷"},
	{Code: "TRY", Name: "Turkish Lira", Symbol: "₺", FlagIcon: "🇹🇷"},
	{Code: "RUB", Name: "Russian Ruble", Symbol: "₽", FlagIcon: "🇷🇺"},
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹", FlagIcon: "🇮🇳"},
	{Code: "BRL", Name: "Brazilian Real", Symbol: "R$", FlagIcon: "🇧🇷"},
	{Code: "ZAR", Name: "South African Rand", Symbol: "R", FlagIcon: "🇿🇦"},
}

// SupportedCurrencies returns a copy of the full currency catalog
func SupportedCurrencies() []Currency {
	out := make([]Currency, len(supportedCurrencies))
	copy(out, supportedCurrencies)
	return out
}

// PopularCurrencies returns the leading, most traded part of the catalog
func PopularCurrencies() []Currency {
	return SupportedCurrencies()[:PopularCurrencyCount]
}

// NormalizeCurrencyCode trims and upper-cases a code and checks its shape
func NormalizeCurrencyCode(code string) (string, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if !currencyCodePattern.MatchString(normalized) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return normalized, nil
}

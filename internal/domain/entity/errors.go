package entity

import "errors"

var (
	// ErrInvalidCurrency is returned for codes that are not three letters
	ErrInvalidCurrency = errors.New("invalid currency code")
	// ErrInvalidAmount is returned for negative conversion amounts
	ErrInvalidAmount = errors.New("amount must not be negative")
	// ErrInvalidDays is returned for a historical range outside the allowed window
	ErrInvalidDays = errors.New("days out of range")
	// ErrRateUnavailable means a source answered but had no rate for the pair
	ErrRateUnavailable = errors.New("exchange rate not available")
	// ErrUnsupported means a source cannot answer this kind of query at all
	ErrUnsupported = errors.New("query not supported by source")
	// ErrSourcesExhausted means every tier of a fallback chain failed
	ErrSourcesExhausted = errors.New("all rate sources failed")
	// ErrInvalidPreferences is returned when preferences fail validation
	ErrInvalidPreferences = errors.New("invalid preferences")
)

package entity

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// UserPreferences holds the per-client UI settings
type UserPreferences struct {
	DefaultFromCurrency  string   `json:"default_from_currency" validate:"currency"`
	DefaultToCurrency    string   `json:"default_to_currency" validate:"currency"`
	Theme                string   `json:"theme" validate:"oneof=light dark"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
	FavoriteCurrencies   []string `json:"favorite_currencies" validate:"dive,currency"`
	ChartPeriod          string   `json:"chart_period" validate:"oneof=1D 7D 30D 90D 1Y"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// registration only fails for an empty tag or nil func
	_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
		return currencyCodePattern.MatchString(fl.Field().String())
	})
	return v
}

// DefaultPreferences returns the settings used for clients that never saved any
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		DefaultFromCurrency:  "USD",
		DefaultToCurrency:    "EUR",
		Theme:                "light",
		NotificationsEnabled: true,
		FavoriteCurrencies:   []string{},
		ChartPeriod:          "7D",
	}
}

// Validate ensures the preferences meet all requirements
func (p *UserPreferences) Validate() error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "currency":
		return fmt.Errorf("%w: %s: %q is not a three-letter currency code", ErrInvalidPreferences, fe.Field(), fe.Value())
	case "oneof":
		return fmt.Errorf("%w: %s: %q must be one of [%s]", ErrInvalidPreferences, fe.Field(), fe.Value(), fe.Param())
	default:
		return fmt.Errorf("%w: %s failed %q", ErrInvalidPreferences, fe.Field(), fe.Tag())
	}
}

// ChartPeriodDays maps a chart period to the number of days of history it shows
func ChartPeriodDays(period string) int {
	switch period {
	case "1D":
		return 1
	case "30D":
		return 30
	case "90D":
		return 90
	case "1Y":
		return 365
	default:
		return 7
	}
}

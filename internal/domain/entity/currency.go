package entity

import (
	"errors"
	"strings"
)

// LocalCurrency is the currency every resolved rate is expressed in
const LocalCurrency CurrencyCode = "BYN"

// ErrInvalidCurrencyCode is returned when a value cannot be normalized to a 3-letter code
var ErrInvalidCurrencyCode = errors.New("currency code must be exactly 3 letters")

// CurrencyCode is a canonical 3-letter uppercase currency identifier
type CurrencyCode string

// ParseCurrencyCode trims and uppercases s and checks it is exactly 3 letters
func ParseCurrencyCode(s string) (CurrencyCode, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 3 {
		return "", ErrInvalidCurrencyCode
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 'A' || s[i] > 'Z' {
			return "", ErrInvalidCurrencyCode
		}
	}
	return CurrencyCode(s), nil
}

// IsLocal reports whether c is the local currency
func (c CurrencyCode) IsLocal() bool {
	return c == LocalCurrency
}

func (c CurrencyCode) String() string {
	return string(c)
}

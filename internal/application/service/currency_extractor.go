package service

import (
	"math"
	"strings"

	"github.com/damon-houk/notion-rate-sync/internal/domain/entity"
	"github.com/damon-houk/notion-rate-sync/internal/infrastructure/logger"
)

// DefaultNumericCodes maps National Bank of Belarus currency ids to codes
func DefaultNumericCodes() map[int]entity.CurrencyCode {
	return map[int]entity.CurrencyCode{
		145: "USD",
		292: "EUR",
		298: "RUB",
		1:   "BYN",
		293: "GBP",
		304: "CNY",
	}
}

// currencyNames is matched as lowercase substrings, in order. Longer, more
// specific names come first.
var currencyNames = []struct {
	name string
	code entity.CurrencyCode
}{
	{"белорусский рубль", "BYN"},
	{"belarusian ruble", "BYN"},
	{"российский рубль", "RUB"},
	{"russian ruble", "RUB"},
	{"доллар сша", "USD"},
	{"u.s. dollar", "USD"},
	{"us dollar", "USD"},
	{"доллар", "USD"},
	{"евро", "EUR"},
	{"euro", "EUR"},
	{"фунт", "GBP"},
	{"pound", "GBP"},
	{"юань", "CNY"},
	{"yuan", "CNY"},
	{"злот", "PLN"},
	{"zloty", "PLN"},
	{"гривн", "UAH"},
	{"hryvnia", "UAH"},
}

// CurrencyFieldExtractor resolves a record's currency property to a code
type CurrencyFieldExtractor struct {
	numeric map[int]entity.CurrencyCode
	logger  logger.Logger
}

// NewCurrencyFieldExtractor creates an extractor. A nil mapping uses
// DefaultNumericCodes; the mapping is copied and never changes afterwards.
func NewCurrencyFieldExtractor(numeric map[int]entity.CurrencyCode, log logger.Logger) *CurrencyFieldExtractor {
	if numeric == nil {
		numeric = DefaultNumericCodes()
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	mapping := make(map[int]entity.CurrencyCode, len(numeric))
	for id, code := range numeric {
		mapping[id] = code
	}

	return &CurrencyFieldExtractor{numeric: mapping, logger: log}
}

// Extract returns the currency code of a property, trying numeric ids,
// 3-letter labels, currency names in labels, then 3-letter text. ok is false
// when no interpretation yields a code. A numeric id is decisive: an unknown
// id is not resolved from any other representation.
func (e *CurrencyFieldExtractor) Extract(prop entity.CurrencyProperty) (entity.CurrencyCode, bool) {
	for _, value := range prop.Values() {
		switch value.Kind {
		case entity.PropertyNumber:
			return e.fromNumber(value.Number)

		case entity.PropertyLabel:
			if code, err := entity.ParseCurrencyCode(value.Text); err == nil {
				return code, true
			}
			if code, ok := matchCurrencyName(value.Text); ok {
				return code, true
			}

		case entity.PropertyText:
			if code, err := entity.ParseCurrencyCode(value.Text); err == nil {
				return code, true
			}

		case entity.PropertyUnrecognized:
			e.logger.Debug("Unrecognized currency property", map[string]interface{}{
				"type": prop.RawType,
			})

		default:
			e.logger.Warn("Unhandled currency property kind", map[string]interface{}{
				"kind": value.Kind.String(),
				"type": prop.RawType,
			})
		}
	}

	return "", false
}

func (e *CurrencyFieldExtractor) fromNumber(n float64) (entity.CurrencyCode, bool) {
	if n != math.Trunc(n) || math.IsInf(n, 0) {
		e.logger.Warn("Numeric currency id is not an integer", map[string]interface{}{
			"value": n,
		})
		return "", false
	}

	code, ok := e.numeric[int(n)]
	if !ok {
		e.logger.Warn("Unknown numeric currency id", map[string]interface{}{
			"value": int(n),
		})
		return "", false
	}

	return code, true
}

func matchCurrencyName(label string) (entity.CurrencyCode, bool) {
	lower := strings.ToLower(label)
	for _, entry := range currencyNames {
		if strings.Contains(lower, entry.name) {
			return entry.code, true
		}
	}
	return "", false
}

package entity

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// RatePrecision is the number of decimal places kept for every rate
const RatePrecision = 4

// ErrUnresolved is returned when no rate source could price a currency
var ErrUnresolved = errors.New("no rate source could price currency")

// RateEntry states that 1 unit of Currency equals Rate units of the local currency
type RateEntry struct {
	Currency CurrencyCode `json:"currency"`
	Rate     float64      `json:"rate"`
	Source   string       `json:"source"`
}

// RateSnapshot is a complete rate set fetched in one provider request
type RateSnapshot struct {
	Rates     map[CurrencyCode]float64 `json:"rates"`
	FetchedAt time.Time                `json:"fetched_at"`
}

// RoundRate rounds v to RatePrecision decimal places
func RoundRate(v float64) float64 {
	return decimal.NewFromFloat(v).Round(RatePrecision).InexactFloat64()
}

// CrossRate converts a rate quoted against a shared reference currency into
// local units per foreign unit: localPerRef / foreignPerRef, rounded to
// RatePrecision. A non-positive foreignPerRef yields 0.
func CrossRate(localPerRef, foreignPerRef float64) float64 {
	if foreignPerRef <= 0 {
		return 0
	}
	local := decimal.NewFromFloat(localPerRef)
	foreign := decimal.NewFromFloat(foreignPerRef)
	return local.Div(foreign).Round(RatePrecision).InexactFloat64()
}

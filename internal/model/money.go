package model

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Currency is an ISO 4217 currency code.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
	PLN Currency = "PLN"
	DKK Currency = "DKK"
	SEK Currency = "SEK"
)

// ReferenceYear is the price year every cost is normalized to before it
// reaches the LCOE sum.
const ReferenceYear = 2019

// Amount is a monetary value tagged with its currency and price year.
type Amount struct {
	Value    float64  `json:"value"`
	Currency Currency `json:"currency"`
	Year     int      `json:"year"`
}

// NewAmount creates an Amount.
func NewAmount(value float64, currency Currency, year int) Amount {
	return Amount{Value: value, Currency: currency, Year: year}
}

// Normalized creates an Amount in USD at the reference year.
func Normalized(value float64) Amount {
	return Amount{Value: value, Currency: USD, Year: ReferenceYear}
}

// IsNormalized reports whether a is in USD at the reference year.
func (a Amount) IsNormalized() bool {
	return a.Currency == USD && a.Year == ReferenceYear
}

// SameBasis reports whether a and b share currency and year.
func (a Amount) SameBasis(b Amount) bool {
	return a.Currency == b.Currency && a.Year == b.Year
}

// Add returns a+b. Both operands must share currency and year.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.SameBasis(b) {
		return Amount{}, eris.Wrapf(ErrCurrencyMismatch, "add %s to %s", b.basis(), a.basis())
	}
	return Amount{Value: a.Value + b.Value, Currency: a.Currency, Year: a.Year}, nil
}

// Sub returns a-b. Both operands must share currency and year.
func (a Amount) Sub(b Amount) (Amount, error) {
	if !a.SameBasis(b) {
		return Amount{}, eris.Wrapf(ErrCurrencyMismatch, "subtract %s from %s", b.basis(), a.basis())
	}
	return Amount{Value: a.Value - b.Value, Currency: a.Currency, Year: a.Year}, nil
}

// Scale multiplies the value by f, keeping currency and year.
func (a Amount) Scale(f float64) Amount {
	a.Value *= f
	return a
}

// Sum adds amounts that share one basis. Sum of nothing is a normalized zero.
func Sum(amounts ...Amount) (Amount, error) {
	if len(amounts) == 0 {
		return Normalized(0), nil
	}
	total := amounts[0]
	for _, a := range amounts[1:] {
		var err error
		if total, err = total.Add(a); err != nil {
			return Amount{}, err
		}
	}
	return total, nil
}

// RequireNormalized returns an error unless every amount is normalized.
func RequireNormalized(amounts ...Amount) error {
	for _, a := range amounts {
		if !a.IsNormalized() {
			return eris.Wrapf(ErrCurrencyMismatch, "expected %s %d, got %s", USD, ReferenceYear, a.basis())
		}
	}
	return nil
}

func (a Amount) basis() string {
	return fmt.Sprintf("%s %d", a.Currency, a.Year)
}

func (a Amount) String() string {
	return fmt.Sprintf("%.2f %s (%d)", a.Value, a.Currency, a.Year)
}

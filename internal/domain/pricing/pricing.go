package pricing

import (
	"errors"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var (
	ErrNegativeRate  = errors.New("pricing: nightly rate cannot be negative")
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
)

// Breakdown is the itemized price of a stay. It is computed once when a
// reservation is created and snapshotted onto it; later rate changes on the
// property never alter an existing reservation.
type Breakdown struct {
	Nights     int         `json:"nights" bson:"nights"`
	Nightly    money.Money `json:"nightly" bson:"nightly"`
	Subtotal   money.Money `json:"subtotal" bson:"subtotal"`
	ServiceFee money.Money `json:"service_fee" bson:"service_fee"`
	Taxes      money.Money `json:"taxes" bson:"taxes"`
	Total      money.Money `json:"total" bson:"total"`
}

// Consistent verifies the breakdown's internal arithmetic.
func (b Breakdown) Consistent() bool {
	if b.Subtotal.Amount != b.Nightly.Amount*int64(b.Nights) {
		return false
	}
	return b.Total.Amount == b.Subtotal.Amount+b.ServiceFee.Amount+b.Taxes.Amount
}

// Calculator quotes stays from a nightly rate and a date range. It is a pure
// function of its inputs and the two configured rates: no clock, no I/O, no
// external rate tables.
type Calculator struct {
	ServiceFeeBps int64
	TaxBps        int64
}

// Default rates match the original product configuration: 3% service fee,
// 12% taxes.
const (
	DefaultServiceFeeBps = 300
	DefaultTaxBps        = 1200
)

func NewCalculator(serviceFeeBps, taxBps int64) Calculator {
	if serviceFeeBps < 0 {
		serviceFeeBps = DefaultServiceFeeBps
	}
	if taxBps < 0 {
		taxBps = DefaultTaxBps
	}
	return Calculator{ServiceFeeBps: serviceFeeBps, TaxBps: taxBps}
}

// Quote computes the itemized price for the given rate and range. Service fee
// and taxes are each derived from the subtotal independently and rounded
// half-up exactly once.
func (c Calculator) Quote(nightly money.Money, dr daterange.DateRange) (Breakdown, error) {
	if nightly.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	if nightly.Amount < 0 {
		return Breakdown{}, ErrNegativeRate
	}
	nights := dr.Nights()
	if nights < 1 {
		return Breakdown{}, daterange.ErrInvalidInterval
	}

	subtotal := nightly.Multiply(int64(nights))
	fee := subtotal.BasisPointsRounded(c.ServiceFeeBps)
	taxes := subtotal.BasisPointsRounded(c.TaxBps)

	total, err := subtotal.Add(fee)
	if err != nil {
		return Breakdown{}, err
	}
	total, err = total.Add(taxes)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Nights:     nights,
		Nightly:    nightly,
		Subtotal:   subtotal,
		ServiceFee: fee,
		Taxes:      taxes,
		Total:      total,
	}, nil
}

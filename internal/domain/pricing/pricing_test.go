package pricing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

func stay(t *testing.T, nights int) daterange.DateRange {
	t.Helper()
	checkIn := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	dr, err := daterange.New(checkIn, checkIn.AddDate(0, 0, nights))
	require.NoError(t, err)
	return dr
}

func TestQuoteThreeNights(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultServiceFeeBps, pricing.DefaultTaxBps)

	got, err := calc.Quote(money.Must(100, "USD"), stay(t, 3))
	require.NoError(t, err)

	assert.Equal(t, 3, got.Nights)
	assert.Equal(t, int64(300), got.Subtotal.Amount)
	assert.Equal(t, int64(9), got.ServiceFee.Amount)
	assert.Equal(t, int64(36), got.Taxes.Amount)
	assert.Equal(t, int64(345), got.Total.Amount)
	assert.True(t, got.Consistent())
}

func TestQuoteRoundsEachComponentOnce(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultServiceFeeBps, pricing.DefaultTaxBps)

	// Subtotal 303: fee 9.09 -> 9, taxes 36.36 -> 36.
	got, err := calc.Quote(money.Must(101, "USD"), stay(t, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ServiceFee.Amount)
	assert.Equal(t, int64(36), got.Taxes.Amount)
	assert.Equal(t, int64(348), got.Total.Amount)

	// Subtotal 350: fee 10.5 rounds half-up to 11, taxes 42 exact.
	got, err = calc.Quote(money.Must(175, "USD"), stay(t, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(11), got.ServiceFee.Amount)
	assert.Equal(t, int64(42), got.Taxes.Amount)
	assert.Equal(t, int64(403), got.Total.Amount)
	assert.True(t, got.Consistent())
}

func TestQuoteZeroRates(t *testing.T) {
	calc := pricing.NewCalculator(0, 0)

	got, err := calc.Quote(money.Must(100, "USD"), stay(t, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Total.Amount)
	assert.True(t, got.ServiceFee.IsZero())
	assert.True(t, got.Taxes.IsZero())
}

func TestQuoteDeterministic(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultServiceFeeBps, pricing.DefaultTaxBps)
	rate := money.Must(8999, "EUR")

	first, err := calc.Quote(rate, stay(t, 7))
	require.NoError(t, err)
	second, err := calc.Quote(rate, stay(t, 7))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestQuoteRejectsBadInput(t *testing.T) {
	calc := pricing.NewCalculator(pricing.DefaultServiceFeeBps, pricing.DefaultTaxBps)

	_, err := calc.Quote(money.Money{Amount: 100}, stay(t, 2))
	assert.ErrorIs(t, err, pricing.ErrCurrencyUnset)

	_, err = calc.Quote(money.Must(-1, "USD"), stay(t, 2))
	assert.ErrorIs(t, err, pricing.ErrNegativeRate)

	_, err = calc.Quote(money.Must(100, "USD"), daterange.DateRange{})
	assert.ErrorIs(t, err, daterange.ErrInvalidInterval)
}

func TestNewCalculatorDefaults(t *testing.T) {
	calc := pricing.NewCalculator(-1, -1)
	assert.Equal(t, int64(pricing.DefaultServiceFeeBps), calc.ServiceFeeBps)
	assert.Equal(t, int64(pricing.DefaultTaxBps), calc.TaxBps)
}

package money_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/money"
)

func TestNew(t *testing.T) {
	m, err := money.New(1250, "eur")
	require.NoError(t, err)
	assert.Equal(t, int64(1250), m.Amount)
	assert.Equal(t, "EUR", m.Currency)

	_, err = money.New(100, "euro")
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestAddSubCurrencyChecks(t *testing.T) {
	a := money.Must(100, "USD")
	b := money.Must(50, "USD")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, int64(150), sum.Amount)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, int64(50), diff.Amount)

	_, err = a.Add(money.Must(1, "EUR"))
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)

	_, err = a.Add(money.Money{Amount: 1})
	assert.ErrorIs(t, err, money.ErrInvalidCurrency)
}

func TestPercentTruncates(t *testing.T) {
	total := money.Must(345, "USD")

	assert.Equal(t, int64(172), total.Percent(50).Amount)
	assert.Equal(t, int64(345), total.Percent(100).Amount)
	assert.Equal(t, int64(345), total.Percent(150).Amount, "clamped to 100")
	assert.True(t, total.Percent(0).IsZero())
	assert.True(t, total.Percent(-5).IsZero())
	assert.Equal(t, "USD", total.Percent(0).Currency)
}

func TestBasisPointsRoundedHalfUp(t *testing.T) {
	subtotal := money.Must(30000, "USD")
	assert.Equal(t, int64(900), subtotal.BasisPointsRounded(300).Amount)
	assert.Equal(t, int64(3600), subtotal.BasisPointsRounded(1200).Amount)

	// 15 * 3% = 0.45, rounds down; 17 * 3% = 0.51, rounds up.
	assert.Equal(t, int64(0), money.Must(15, "USD").BasisPointsRounded(300).Amount)
	assert.Equal(t, int64(1), money.Must(17, "USD").BasisPointsRounded(300).Amount)
	// Exact half rounds up.
	assert.Equal(t, int64(1), money.Must(50, "USD").BasisPointsRounded(100).Amount)

	assert.True(t, subtotal.BasisPointsRounded(0).IsZero())
}

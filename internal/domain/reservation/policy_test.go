package reservation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"staybook/internal/domain/reservation"
	"staybook/internal/domain/shared/money"
)

func TestParseTier(t *testing.T) {
	assert.Equal(t, reservation.TierStrict, reservation.ParseTier("strict"))
	assert.Equal(t, reservation.TierSuperStrict, reservation.ParseTier(" Super_Strict "))
	assert.Equal(t, reservation.DefaultTier, reservation.ParseTier(""))
	assert.Equal(t, reservation.DefaultTier, reservation.ParseTier("whatever"))
}

func TestRefundSchedules(t *testing.T) {
	total := money.Must(345, "USD")

	cases := []struct {
		tier reservation.Tier
		days int
		want int64
	}{
		{reservation.TierFlexible, 1, 345},
		{reservation.TierFlexible, 0, 0},

		{reservation.TierModerate, 5, 345},
		{reservation.TierModerate, 4, 172},
		{reservation.TierModerate, 2, 172},
		{reservation.TierModerate, 1, 172},
		{reservation.TierModerate, 0, 0},

		{reservation.TierStrict, 7, 345},
		{reservation.TierStrict, 6, 172},
		{reservation.TierStrict, 0, 0},

		{reservation.TierSuperStrict, 14, 345},
		{reservation.TierSuperStrict, 13, 172},
		{reservation.TierSuperStrict, 7, 172},
		{reservation.TierSuperStrict, 6, 0},
	}
	for _, tc := range cases {
		policy := reservation.PolicySnapshot{Tier: tc.tier}
		got := policy.Refund(tc.days, total)
		assert.Equal(t, tc.want, got.Amount, "%s at %d days", tc.tier, tc.days)
		assert.Equal(t, "USD", got.Currency)
	}
}

func TestRefundNeverNegativeDaysOrUnknownTier(t *testing.T) {
	total := money.Must(1000, "USD")

	policy := reservation.PolicySnapshot{Tier: reservation.TierFlexible}
	assert.True(t, policy.Refund(-3, total).IsZero())

	unknown := reservation.PolicySnapshot{Tier: "mystery"}
	assert.True(t, unknown.Refund(30, total).IsZero())
}

func TestRefundMonotonicInDays(t *testing.T) {
	total := money.Must(99999, "EUR")
	for tier := range map[reservation.Tier]struct{}{
		reservation.TierFlexible:    {},
		reservation.TierModerate:    {},
		reservation.TierStrict:      {},
		reservation.TierSuperStrict: {},
	} {
		policy := reservation.PolicySnapshot{Tier: tier}
		prev := int64(-1)
		for days := 0; days <= 30; days++ {
			got := policy.Refund(days, total)
			assert.LessOrEqual(t, prev, got.Amount, "%s: refund dropped at %d days", tier, days)
			assert.LessOrEqual(t, got.Amount, total.Amount, "%s: refund above total at %d days", tier, days)
			prev = got.Amount
		}
	}
}

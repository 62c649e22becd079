package reservation

import (
	"strings"

	"staybook/internal/domain/shared/money"
)

// Tier names a cancellation-refund schedule. Looser tiers refund 100% further
// out than stricter ones.
type Tier string

const (
	TierFlexible    Tier = "flexible"
	TierModerate    Tier = "moderate"
	TierStrict      Tier = "strict"
	TierSuperStrict Tier = "super_strict"
)

// DefaultTier applies when a property declares no policy.
const DefaultTier = TierModerate

// refundStep maps a minimum days-until-check-in to a refund percentage.
// Steps are ordered from most to least generous; the first step whose
// threshold is met wins, so the schedule is monotonic non-decreasing in days.
type refundStep struct {
	minDays int
	percent int
}

var schedules = map[Tier][]refundStep{
	TierFlexible:    {{minDays: 1, percent: 100}},
	TierModerate:    {{minDays: 5, percent: 100}, {minDays: 1, percent: 50}},
	TierStrict:      {{minDays: 7, percent: 100}, {minDays: 1, percent: 50}},
	TierSuperStrict: {{minDays: 14, percent: 100}, {minDays: 7, percent: 50}},
}

// ParseTier normalizes a tier name, falling back to the default for unknown
// or empty values.
func ParseTier(value string) Tier {
	tier := Tier(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := schedules[tier]; ok {
		return tier
	}
	return DefaultTier
}

// PolicySnapshot is the cancellation policy in effect when the reservation was
// created. It is immutable thereafter: a host switching tiers must not change
// the refund terms of reservations already on the books.
type PolicySnapshot struct {
	Tier Tier `json:"tier" bson:"tier"`
}

// Refund computes the refundable amount for a cancellation the given number of
// whole days before check-in. Defined for every non-negative day count, never
// exceeds the total, and is rounded exactly once (truncation to the minor
// unit). Unknown tiers refund nothing.
func (p PolicySnapshot) Refund(daysUntilCheckIn int, total money.Money) money.Money {
	if daysUntilCheckIn < 0 {
		daysUntilCheckIn = 0
	}
	for _, step := range schedules[p.Tier] {
		if daysUntilCheckIn >= step.minDays {
			return total.Percent(step.percent)
		}
	}
	return total.Zero()
}

package domain

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const minutesPerDay = 24 * 60

// DefaultTierName labels the implicit tier applied where no window matches.
const DefaultTierName = "Standard"

// ResolvedTier is the outcome of a tier lookup. Default marks the implicit
// fallback so callers can tell "no tier configured" apart from an explicit
// Standard window.
type ResolvedTier struct {
	Name       string
	Multiplier decimal.Decimal
	Default    bool
}

// DefaultTier returns the implicit fallback tier.
func DefaultTier() ResolvedTier {
	return ResolvedTier{
		Name:       DefaultTierName,
		Multiplier: decimal.NewFromInt(1),
		Default:    true,
	}
}

// Same reports whether two resolved tiers bill identically.
func (r ResolvedTier) Same(other ResolvedTier) bool {
	return r.Name == other.Name && r.Multiplier.Equal(other.Multiplier)
}

// TierTable is a validated set of rate tiers grouped per day of week.
// Construct it through NewTierTable; a zero TierTable resolves everything
// to the default tier.
type TierTable struct {
	byDay map[time.Weekday][]RateTier
}

// ValidateTier checks a single tier row.
func ValidateTier(tier RateTier) error {
	if strings.TrimSpace(tier.Name) == "" {
		return ErrInvalidTierName
	}
	if tier.DayOfWeek < time.Sunday || tier.DayOfWeek > time.Saturday {
		return ErrInvalidDayOfWeek
	}
	if tier.StartMinute < 0 || tier.StartMinute >= minutesPerDay {
		return ErrInvalidTimeWindow
	}
	if tier.EndMinute <= tier.StartMinute || tier.EndMinute > minutesPerDay {
		return ErrInvalidTimeWindow
	}
	if !tier.Multiplier.IsPositive() {
		return ErrInvalidMultiplier
	}
	return nil
}

// NewTierTable validates the rows and groups them per day. Within one day
// two tiers must never claim the same instant; gaps are fine and resolve
// to the default tier.
func NewTierTable(tiers []RateTier) (*TierTable, error) {
	byDay := make(map[time.Weekday][]RateTier)
	for _, tier := range tiers {
		if err := ValidateTier(tier); err != nil {
			return nil, err
		}
		byDay[tier.DayOfWeek] = append(byDay[tier.DayOfWeek], tier)
	}

	for day, dayTiers := range byDay {
		sort.SliceStable(dayTiers, func(i, j int) bool {
			return dayTiers[i].StartMinute < dayTiers[j].StartMinute
		})
		for i := 1; i < len(dayTiers); i++ {
			if dayTiers[i].StartMinute < dayTiers[i-1].EndMinute {
				return nil, ErrOverlappingTiers
			}
		}
		byDay[day] = dayTiers
	}

	return &TierTable{byDay: byDay}, nil
}

// TiersFor returns the tiers configured for the day, sorted by start time.
func (t *TierTable) TiersFor(day time.Weekday) []RateTier {
	if t == nil || t.byDay == nil {
		return nil
	}
	return t.byDay[day]
}

// All returns every tier in the table ordered by day then start time.
func (t *TierTable) All() []RateTier {
	if t == nil || t.byDay == nil {
		return nil
	}
	out := make([]RateTier, 0)
	for day := time.Sunday; day <= time.Saturday; day++ {
		out = append(out, t.byDay[day]...)
	}
	return out
}

// Resolve maps a day and minute of day to the applicable tier. Windows are
// half-open, so a tier ending at 17:00 does not own 17:00 itself. An
// unmatched instant resolves to the default tier, never an error.
func (t *TierTable) Resolve(day time.Weekday, minuteOfDay int) ResolvedTier {
	if t != nil {
		for _, tier := range t.byDay[day] {
			if tier.Contains(minuteOfDay) {
				return ResolvedTier{Name: tier.Name, Multiplier: tier.Multiplier}
			}
		}
	}
	return DefaultTier()
}

package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mondayTier(name string, startMinute, endMinute int, multiplier string) RateTier {
	return RateTier{
		Name:        name,
		DayOfWeek:   time.Monday,
		StartMinute: startMinute,
		EndMinute:   endMinute,
		Multiplier:  decimal.RequireFromString(multiplier),
	}
}

func TestNewTierTableRejectsOverlap(t *testing.T) {
	_, err := NewTierTable([]RateTier{
		mondayTier("Standard", 9*60, 17*60, "1.0"),
		mondayTier("Premium", 16*60, 22*60, "1.5"),
	})
	require.ErrorIs(t, err, ErrOverlappingTiers)
}

func TestNewTierTableAllowsGapsAndSorts(t *testing.T) {
	table, err := NewTierTable([]RateTier{
		mondayTier("Premium", 17*60, 22*60, "1.5"),
		mondayTier("Standard", 9*60, 17*60, "1.0"),
	})
	require.NoError(t, err)

	tiers := table.TiersFor(time.Monday)
	require.Len(t, tiers, 2)
	assert.Equal(t, "Standard", tiers[0].Name)
	assert.Equal(t, "Premium", tiers[1].Name)

	// 22:00-24:00 has no row; that is a permitted gap.
	resolved := table.Resolve(time.Monday, 23*60)
	assert.True(t, resolved.Default)
}

func TestValidateTier(t *testing.T) {
	cases := []struct {
		name string
		tier RateTier
		want error
	}{
		{
			name: "blank name",
			tier: mondayTier("  ", 9*60, 17*60, "1.0"),
			want: ErrInvalidTierName,
		},
		{
			name: "day out of range",
			tier: RateTier{Name: "X", DayOfWeek: 7, StartMinute: 0, EndMinute: 60, Multiplier: decimal.NewFromInt(1)},
			want: ErrInvalidDayOfWeek,
		},
		{
			name: "start after end",
			tier: mondayTier("X", 17*60, 9*60, "1.0"),
			want: ErrInvalidTimeWindow,
		},
		{
			name: "zero width window",
			tier: mondayTier("X", 9*60, 9*60, "1.0"),
			want: ErrInvalidTimeWindow,
		},
		{
			name: "end past midnight",
			tier: mondayTier("X", 9*60, 25*60, "1.0"),
			want: ErrInvalidTimeWindow,
		},
		{
			name: "zero multiplier",
			tier: mondayTier("X", 9*60, 17*60, "0"),
			want: ErrInvalidMultiplier,
		},
		{
			name: "negative multiplier",
			tier: mondayTier("X", 9*60, 17*60, "-1.5"),
			want: ErrInvalidMultiplier,
		},
		{
			name: "valid",
			tier: mondayTier("Standard", 0, 24*60, "1.0"),
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateTier(tc.tier)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestResolveHalfOpenBoundary(t *testing.T) {
	table, err := NewTierTable([]RateTier{
		mondayTier("Standard", 9*60, 17*60, "1.0"),
		mondayTier("Premium", 17*60, 22*60, "1.5"),
	})
	require.NoError(t, err)

	// 16:59 still belongs to Standard.
	before := table.Resolve(time.Monday, 17*60-1)
	assert.Equal(t, "Standard", before.Name)
	assert.False(t, before.Default)

	// 17:00 is owned by the next tier, not the one ending there.
	boundary := table.Resolve(time.Monday, 17*60)
	assert.Equal(t, "Premium", boundary.Name)
	assert.True(t, boundary.Multiplier.Equal(decimal.RequireFromString("1.5")))
}

func TestResolveDefaultSentinel(t *testing.T) {
	explicit := mondayTier("Standard", 9*60, 17*60, "1.0")
	table, err := NewTierTable([]RateTier{explicit})
	require.NoError(t, err)

	// Explicit Standard row resolves without the default flag.
	matched := table.Resolve(time.Monday, 10*60)
	assert.Equal(t, "Standard", matched.Name)
	assert.False(t, matched.Default)

	// Unconfigured instants fall back to the sentinel.
	fallback := table.Resolve(time.Monday, 8*60)
	assert.Equal(t, DefaultTierName, fallback.Name)
	assert.True(t, fallback.Default)
	assert.True(t, fallback.Multiplier.Equal(decimal.NewFromInt(1)))

	// A day with no rows at all behaves the same way.
	otherDay := table.Resolve(time.Tuesday, 10*60)
	assert.True(t, otherDay.Default)
}

func TestResolveOnNilTable(t *testing.T) {
	var table *TierTable
	resolved := table.Resolve(time.Monday, 10*60)
	assert.True(t, resolved.Default)
	assert.Nil(t, table.TiersFor(time.Monday))
}

package service

import (
	"testing"
	"time"

	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestReconcileRoundsFinalEntryUp(t *testing.T) {
	svc := newEngine()

	// Technician clocks out at 14:07; trailing work bills through 14:15.
	breakdown := svc.ReconcileActualHours([]ratingdomain.WorkedInterval{
		{Start: at(13, 0), End: at(14, 7)},
	}, mondayTable(t))

	assert.Equal(t, int64(75), breakdown.TotalMinutes)
	assert.Equal(t, "1.25", breakdown.TotalHours.StringFixed(2))

	require.Len(t, breakdown.Tiers, 1)
	assert.Equal(t, "Standard", breakdown.Tiers[0].TierName)
	assert.Equal(t, int64(75), breakdown.Tiers[0].Minutes)
}

func TestReconcileUsesStoredEndsExceptLast(t *testing.T) {
	svc := newEngine()

	// Two disjoint stints: only the final clock-out is rounded.
	breakdown := svc.ReconcileActualHours([]ratingdomain.WorkedInterval{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(13, 0), End: at(14, 7)},
	}, mondayTable(t))

	assert.Equal(t, int64(60+75), breakdown.TotalMinutes)
}

func TestReconcileAlignedEndIsNotInflated(t *testing.T) {
	svc := newEngine()

	breakdown := svc.ReconcileActualHours([]ratingdomain.WorkedInterval{
		{Start: at(14, 0), End: at(14, 15)},
	}, mondayTable(t))

	assert.Equal(t, int64(15), breakdown.TotalMinutes)
}

func TestReconcileSplitsAcrossTiers(t *testing.T) {
	svc := newEngine()

	breakdown := svc.ReconcileActualHours([]ratingdomain.WorkedInterval{
		{Start: at(16, 30), End: at(17, 30)},
	}, mondayTable(t))

	require.Len(t, breakdown.Tiers, 2)

	assert.Equal(t, "Standard", breakdown.Tiers[0].TierName)
	assert.Equal(t, int64(30), breakdown.Tiers[0].Minutes)
	assert.Equal(t, "0.50", breakdown.Tiers[0].Hours.StringFixed(2))

	assert.Equal(t, "Premium", breakdown.Tiers[1].TierName)
	assert.Equal(t, int64(30), breakdown.Tiers[1].Minutes)

	assert.Equal(t, int64(60), breakdown.TotalMinutes)
	assert.Equal(t, "1.00", breakdown.TotalHours.StringFixed(2))
}

func TestReconcileCrossesMidnight(t *testing.T) {
	svc := newEngine()

	// Monday 23:30 into Tuesday 00:30: the Tuesday half resolves against
	// Tuesday's (empty) card and falls back to the default tier.
	breakdown := svc.ReconcileActualHours([]ratingdomain.WorkedInterval{
		{Start: at(23, 30), End: at(23, 30).Add(time.Hour)},
	}, mondayTable(t))

	assert.Equal(t, int64(60), breakdown.TotalMinutes)
	require.Len(t, breakdown.Tiers, 1)
	assert.Equal(t, "Standard", breakdown.Tiers[0].TierName)
}

func TestReconcileEmptyLog(t *testing.T) {
	svc := newEngine()

	breakdown := svc.ReconcileActualHours(nil, mondayTable(t))

	assert.Empty(t, breakdown.Tiers)
	assert.Equal(t, int64(0), breakdown.TotalMinutes)
	assert.Equal(t, "0.00", breakdown.TotalHours.StringFixed(2))
}

func TestReconcileSkipsInvertedEntry(t *testing.T) {
	svc := newEngine()

	breakdown := svc.ReconcileActualHours([]ratingdomain.WorkedInterval{
		{Start: at(10, 0), End: at(9, 0)},
		{Start: at(13, 0), End: at(13, 30)},
	}, mondayTable(t))

	assert.Equal(t, int64(30), breakdown.TotalMinutes)
}

package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// monday is a fixed reference date so day-of-week resolution is stable.
var monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func newEngine() *Service {
	return &Service{log: zap.NewNop()}
}

// mondayTable returns Standard 09:00-17:00 x1.0 and Premium 17:00-22:00
// x1.5, the canonical two-tier weekday card.
func mondayTable(t *testing.T) *ratecarddomain.TierTable {
	t.Helper()
	table, err := ratecarddomain.NewTierTable([]ratecarddomain.RateTier{
		{Name: "Standard", DayOfWeek: time.Monday, StartMinute: 9 * 60, EndMinute: 17 * 60, Multiplier: decimal.RequireFromString("1.0")},
		{Name: "Premium", DayOfWeek: time.Monday, StartMinute: 17 * 60, EndMinute: 22 * 60, Multiplier: decimal.RequireFromString("1.5")},
	})
	require.NoError(t, err)
	return table
}

func estimateReq(t *testing.T, startMinute, endMinute int, firstRequest bool) ratingdomain.EstimateRequest {
	t.Helper()
	base := decimal.NewFromInt(100)
	return ratingdomain.EstimateRequest{
		Date:           monday,
		StartMinute:    &startMinute,
		EndMinute:      &endMinute,
		BaseRate:       &base,
		IsFirstRequest: firstRequest,
		CategoryName:   "electrical",
		Tiers:          mondayTable(t),
	}
}

func TestEstimateSpansTwoTiers(t *testing.T) {
	svc := newEngine()

	est, err := svc.EstimateScheduledCost(estimateReq(t, 16*60, 18*60, false))
	require.NoError(t, err)
	require.NotNil(t, est)

	require.Len(t, est.Breakdown, 2)

	standard := est.Breakdown[0]
	assert.Equal(t, "Standard", standard.TierName)
	assert.Equal(t, "1.00", standard.Hours.StringFixed(2))
	assert.Equal(t, "100.00", standard.Cost.StringFixed(2))

	premium := est.Breakdown[1]
	assert.Equal(t, "Premium", premium.TierName)
	assert.Equal(t, "1.00", premium.Hours.StringFixed(2))
	assert.Equal(t, "150.00", premium.Cost.StringFixed(2))

	assert.Equal(t, "2.00", est.DurationHours.StringFixed(2))
	assert.Equal(t, "250.00", est.Subtotal.StringFixed(2))
	assert.Equal(t, "250.00", est.Total.StringFixed(2))
	assert.Nil(t, est.FirstHourDiscount)
	assert.Empty(t, est.FirstHourBreakdown)
}

func TestEstimateFirstRequestDiscount(t *testing.T) {
	svc := newEngine()

	est, err := svc.EstimateScheduledCost(estimateReq(t, 16*60, 18*60, true))
	require.NoError(t, err)
	require.NotNil(t, est)

	require.NotNil(t, est.FirstHourDiscount)
	assert.Equal(t, "100.00", est.FirstHourDiscount.StringFixed(2))
	assert.Equal(t, "150.00", est.Total.StringFixed(2))

	// The free hour is exactly the Standard hour at its own multiplier.
	require.Len(t, est.FirstHourBreakdown, 1)
	share := est.FirstHourBreakdown[0]
	assert.Equal(t, "Standard", share.TierName)
	assert.Equal(t, "1.00", share.Hours.StringFixed(2))
	assert.Equal(t, "100.00", share.Amount.StringFixed(2))
}

func TestEstimateDiscountProratesAcrossTiers(t *testing.T) {
	svc := newEngine()

	// 16:30-18:00: the first free hour is half Standard, half Premium.
	est, err := svc.EstimateScheduledCost(estimateReq(t, 16*60+30, 18*60, true))
	require.NoError(t, err)
	require.NotNil(t, est)

	require.NotNil(t, est.FirstHourDiscount)
	require.Len(t, est.FirstHourBreakdown, 2)

	assert.Equal(t, "Standard", est.FirstHourBreakdown[0].TierName)
	assert.Equal(t, "0.50", est.FirstHourBreakdown[0].Hours.StringFixed(2))
	assert.Equal(t, "50.00", est.FirstHourBreakdown[0].Amount.StringFixed(2))

	assert.Equal(t, "Premium", est.FirstHourBreakdown[1].TierName)
	assert.Equal(t, "0.50", est.FirstHourBreakdown[1].Hours.StringFixed(2))
	assert.Equal(t, "75.00", est.FirstHourBreakdown[1].Amount.StringFixed(2))

	assert.Equal(t, "125.00", est.FirstHourDiscount.StringFixed(2))

	// subtotal 50 + 150, minus the prorated discount
	assert.Equal(t, "200.00", est.Subtotal.StringFixed(2))
	assert.Equal(t, "75.00", est.Total.StringFixed(2))

	// Discounted hours across shares never exceed the cap.
	consumed := decimal.Zero
	for _, share := range est.FirstHourBreakdown {
		consumed = consumed.Add(share.Hours)
	}
	assert.Equal(t, "1.00", consumed.StringFixed(2))
}

func TestEstimateShortJobGetsNoDiscount(t *testing.T) {
	svc := newEngine()

	// 30 minutes of work: below the one hour floor, no promo applies.
	est, err := svc.EstimateScheduledCost(estimateReq(t, 10*60, 10*60+30, true))
	require.NoError(t, err)
	require.NotNil(t, est)

	assert.Nil(t, est.FirstHourDiscount)
	assert.Equal(t, "50.00", est.Total.StringFixed(2))
}

func TestEstimateZeroLengthInterval(t *testing.T) {
	svc := newEngine()

	est, err := svc.EstimateScheduledCost(estimateReq(t, 10*60, 10*60, true))
	require.NoError(t, err)
	require.NotNil(t, est)

	assert.Empty(t, est.Breakdown)
	assert.Equal(t, "0.00", est.DurationHours.StringFixed(2))
	assert.Equal(t, "0.00", est.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", est.Total.StringFixed(2))
	assert.Nil(t, est.FirstHourDiscount)
}

func TestEstimateIncompleteInputYieldsNoEstimate(t *testing.T) {
	svc := newEngine()
	base := decimal.NewFromInt(100)
	start := 9 * 60
	end := 11 * 60

	cases := []struct {
		name string
		req  ratingdomain.EstimateRequest
	}{
		{name: "missing date", req: ratingdomain.EstimateRequest{StartMinute: &start, EndMinute: &end, BaseRate: &base}},
		{name: "missing start", req: ratingdomain.EstimateRequest{Date: monday, EndMinute: &end, BaseRate: &base}},
		{name: "missing end", req: ratingdomain.EstimateRequest{Date: monday, StartMinute: &start, BaseRate: &base}},
		{name: "missing base rate", req: ratingdomain.EstimateRequest{Date: monday, StartMinute: &start, EndMinute: &end}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			est, err := svc.EstimateScheduledCost(tc.req)
			assert.NoError(t, err)
			assert.Nil(t, est)
		})
	}
}

func TestEstimateRejectsBadScalars(t *testing.T) {
	svc := newEngine()

	negative := decimal.NewFromInt(-10)
	req := estimateReq(t, 9*60, 11*60, false)
	req.BaseRate = &negative
	_, err := svc.EstimateScheduledCost(req)
	assert.ErrorIs(t, err, ratingdomain.ErrInvalidBaseRate)

	inverted := estimateReq(t, 18*60, 16*60, false)
	_, err = svc.EstimateScheduledCost(inverted)
	assert.ErrorIs(t, err, ratingdomain.ErrInvalidInterval)

	outOfRange := estimateReq(t, -30, 11*60, false)
	_, err = svc.EstimateScheduledCost(outOfRange)
	assert.ErrorIs(t, err, ratingdomain.ErrInvalidInterval)
}

func TestEstimateTrailingPartialStepBillsWholeStep(t *testing.T) {
	svc := newEngine()

	// 16:00-18:10: the 10 trailing minutes occupy one more half-hour step,
	// owned by the tier at 18:00.
	est, err := svc.EstimateScheduledCost(estimateReq(t, 16*60, 18*60+10, false))
	require.NoError(t, err)
	require.NotNil(t, est)

	assert.Equal(t, "2.50", est.DurationHours.StringFixed(2))
	require.Len(t, est.Breakdown, 2)
	assert.Equal(t, "1.50", est.Breakdown[1].Hours.StringFixed(2))
	assert.Equal(t, "225.00", est.Breakdown[1].Cost.StringFixed(2))
	assert.Equal(t, "325.00", est.Total.StringFixed(2))
}

func TestEstimateGapFallsBackToDefaultTier(t *testing.T) {
	svc := newEngine()

	// 22:00-24:00 has no configured window on Mondays.
	est, err := svc.EstimateScheduledCost(estimateReq(t, 22*60, 23*60, false))
	require.NoError(t, err)
	require.NotNil(t, est)

	require.Len(t, est.Breakdown, 1)
	assert.Equal(t, ratecarddomain.DefaultTierName, est.Breakdown[0].TierName)
	assert.Equal(t, "100.00", est.Total.StringFixed(2))
}

func TestEstimateMergesAcrossDefaultBoundary(t *testing.T) {
	svc := newEngine()

	// 08:00-10:00 crosses from the implicit Standard gap into the explicit
	// Standard window; both bill at x1.0 so they fold into one block.
	est, err := svc.EstimateScheduledCost(estimateReq(t, 8*60, 10*60, false))
	require.NoError(t, err)
	require.NotNil(t, est)

	require.Len(t, est.Breakdown, 1)
	assert.Equal(t, "Standard", est.Breakdown[0].TierName)
	assert.Equal(t, "2.00", est.Breakdown[0].Hours.StringFixed(2))
	assert.Equal(t, "200.00", est.Total.StringFixed(2))
}

func TestEstimateCoverageInvariant(t *testing.T) {
	svc := newEngine()

	intervals := []struct{ start, end int }{
		{9 * 60, 17 * 60},
		{16 * 60, 18 * 60},
		{0, 24 * 60},
		{16*60 + 30, 21*60 + 10},
		{10 * 60, 10 * 60},
	}

	for _, iv := range intervals {
		est, err := svc.EstimateScheduledCost(estimateReq(t, iv.start, iv.end, false))
		require.NoError(t, err)
		require.NotNil(t, est)

		covered := decimal.Zero
		for _, block := range est.Breakdown {
			covered = covered.Add(block.Hours)
		}
		assert.True(t, covered.Equal(est.DurationHours),
			"breakdown hours %s must equal duration %s for [%d,%d)",
			covered, est.DurationHours, iv.start, iv.end)
	}
}

func TestEstimateIsDeterministic(t *testing.T) {
	svc := newEngine()
	req := estimateReq(t, 16*60, 19*60, true)

	first, err := svc.EstimateScheduledCost(req)
	require.NoError(t, err)
	second, err := svc.EstimateScheduledCost(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEstimateDiscountNeverExceedsSubtotal(t *testing.T) {
	svc := newEngine()

	for _, start := range []int{9 * 60, 15 * 60, 16*60 + 30, 21 * 60} {
		est, err := svc.EstimateScheduledCost(estimateReq(t, start, start+2*60, true))
		require.NoError(t, err)
		require.NotNil(t, est)
		require.NotNil(t, est.FirstHourDiscount)

		assert.True(t, est.FirstHourDiscount.LessThanOrEqual(est.Subtotal))
		assert.False(t, est.Total.IsNegative())
	}
}

package service

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/fieldrate/internal/config"
	ratecarddomain "github.com/smallbiznis/fieldrate/internal/ratecard/domain"
	ratingdomain "github.com/smallbiznis/fieldrate/internal/rating/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const minutesPerDay = 24 * 60

var sixty = decimal.NewFromInt(60)

// Service is the tiered cost engine. It is pure: all inputs arrive as
// values, no I/O happens here, and identical inputs always produce
// identical output. That property is what makes persisted snapshots
// trustworthy forever.
type Service struct {
	log *zap.Logger
	cfg *config.RatingConfigHolder
}

type ServiceParam struct {
	fx.In

	Log *zap.Logger
	Cfg *config.RatingConfigHolder `optional:"true"`
}

func NewService(p ServiceParam) ratingdomain.Service {
	return &Service{
		log: p.Log.Named("rating.service"),
		cfg: p.Cfg,
	}
}

func (s *Service) ratingConfig() config.RatingConfig {
	if s.cfg == nil {
		return config.DefaultRatingConfig()
	}
	return s.cfg.Get()
}

// EstimateScheduledCost walks the interval in fixed steps, resolves a tier
// per step, folds contiguous same-tier steps into price blocks, applies the
// promotional first-hour discount for eligible requests, and totals the
// result. Incomplete input is a draft probe and yields (nil, nil).
func (s *Service) EstimateScheduledCost(req ratingdomain.EstimateRequest) (*ratingdomain.CostEstimate, error) {
	if !req.Complete() {
		return nil, nil
	}

	base := *req.BaseRate
	if base.IsNegative() {
		return nil, ratingdomain.ErrInvalidBaseRate
	}

	start := *req.StartMinute
	end := *req.EndMinute
	if start < 0 || start > minutesPerDay || end < 0 || end > minutesPerDay || end < start {
		return nil, ratingdomain.ErrInvalidInterval
	}

	cfg := s.ratingConfig()
	step := cfg.StepMinutes
	day := req.Date.Weekday()

	// Step from start (inclusive) to end (exclusive). A trailing partial
	// step still counts as a whole one, owned by the tier at its starting
	// instant.
	var blocks []ratingdomain.PriceBlock
	var open *blockAccum
	totalSteps := 0
	for minute := start; minute < end; minute += step {
		tier := req.Tiers.Resolve(day, minute)
		totalSteps++
		if open != nil && open.tier.Same(tier) {
			open.steps++
			continue
		}
		if open != nil {
			blocks = append(blocks, open.close(base, step))
		}
		open = &blockAccum{tier: tier, steps: 1}
	}
	if open != nil {
		blocks = append(blocks, open.close(base, step))
	}

	durationHours := hoursFromSteps(totalSteps, step)
	subtotal := decimal.Zero
	for _, block := range blocks {
		subtotal = subtotal.Add(block.Cost)
	}

	estimate := &ratingdomain.CostEstimate{
		BaseRate:       base,
		CategoryName:   req.CategoryName,
		DurationHours:  durationHours,
		Subtotal:       subtotal,
		Total:          subtotal,
		Breakdown:      blocks,
		IsFirstRequest: req.IsFirstRequest,
	}

	discount, shares := s.allocateFirstHourDiscount(blocks, base, req.IsFirstRequest, durationHours, cfg.DiscountCapMinutes)
	if shares != nil {
		estimate.FirstHourDiscount = &discount
		estimate.FirstHourBreakdown = shares
		total := subtotal.Sub(discount)
		if total.IsNegative() {
			total = decimal.Zero
		}
		estimate.Total = total
	}

	return estimate, nil
}

// allocateFirstHourDiscount consumes up to the free-duration cap from the
// start of the block sequence. Partial blocks prorate, and every consumed
// span is credited at its own tier multiplier, so a premium first hour is
// worth a premium discount.
func (s *Service) allocateFirstHourDiscount(
	blocks []ratingdomain.PriceBlock,
	base decimal.Decimal,
	isFirstRequest bool,
	durationHours decimal.Decimal,
	capMinutes int,
) (decimal.Decimal, []ratingdomain.DiscountShare) {
	capHours := decimal.NewFromInt(int64(capMinutes)).Div(sixty)
	if !isFirstRequest || capHours.IsZero() || durationHours.LessThan(capHours) {
		return decimal.Zero, nil
	}

	discount := decimal.Zero
	remaining := capHours
	shares := make([]ratingdomain.DiscountShare, 0, len(blocks))
	for _, block := range blocks {
		if !remaining.IsPositive() {
			break
		}
		take := decimal.Min(block.Hours, remaining)
		amount := take.Mul(base).Mul(block.Multiplier).Round(2)
		shares = append(shares, ratingdomain.DiscountShare{
			TierName:   block.TierName,
			Multiplier: block.Multiplier,
			Hours:      take,
			Amount:     amount,
		})
		discount = discount.Add(amount)
		remaining = remaining.Sub(take)
	}

	return discount, shares
}

// ReconcileActualHours walks every worked minute against the tier table.
// Ends are used verbatim except the final entry, whose end is rounded up to
// the next billing boundary so trailing partial work is still billed.
func (s *Service) ReconcileActualHours(entries []ratingdomain.WorkedInterval, tiers *ratecarddomain.TierTable) ratingdomain.ActualHoursBreakdown {
	cfg := s.ratingConfig()

	tally := newTierTally()
	var totalMinutes int64
	for i, entry := range entries {
		start := entry.Start.UTC().Truncate(time.Minute)
		end := entry.End.UTC().Truncate(time.Minute)
		if i == len(entries)-1 {
			end = ceilToBoundary(end, cfg.FinalRoundingMinutes)
		}
		if !end.After(start) {
			continue
		}
		for at := start; at.Before(end); at = at.Add(time.Minute) {
			minuteOfDay := at.Hour()*60 + at.Minute()
			tally.add(tiers.Resolve(at.Weekday(), minuteOfDay))
			totalMinutes++
		}
	}

	return ratingdomain.ActualHoursBreakdown{
		Tiers:        tally.rows(),
		TotalMinutes: totalMinutes,
		TotalHours:   hoursFromMinutes(totalMinutes),
	}
}

type blockAccum struct {
	tier  ratecarddomain.ResolvedTier
	steps int
}

func (a blockAccum) close(base decimal.Decimal, stepMinutes int) ratingdomain.PriceBlock {
	hours := hoursFromSteps(a.steps, stepMinutes)
	return ratingdomain.PriceBlock{
		TierName:   a.tier.Name,
		Multiplier: a.tier.Multiplier,
		Hours:      hours,
		Cost:       hours.Mul(base).Mul(a.tier.Multiplier).Round(2),
	}
}

func hoursFromSteps(steps, stepMinutes int) decimal.Decimal {
	return hoursFromMinutes(int64(steps) * int64(stepMinutes))
}

func hoursFromMinutes(minutes int64) decimal.Decimal {
	return decimal.NewFromInt(minutes).Div(sixty)
}

func ceilToBoundary(t time.Time, boundaryMinutes int) time.Time {
	if boundaryMinutes <= 0 {
		return t
	}
	boundary := time.Duration(boundaryMinutes) * time.Minute
	rounded := t.Truncate(boundary)
	if rounded.Before(t) {
		rounded = rounded.Add(boundary)
	}
	return rounded
}

type tierTally struct {
	order []string
	rowsM map[string]*ratingdomain.TierMinutes
}

func newTierTally() *tierTally {
	return &tierTally{rowsM: make(map[string]*ratingdomain.TierMinutes)}
}

func (t *tierTally) add(tier ratecarddomain.ResolvedTier) {
	key := tier.Name + "|" + tier.Multiplier.String()
	row, ok := t.rowsM[key]
	if !ok {
		row = &ratingdomain.TierMinutes{TierName: tier.Name, Multiplier: tier.Multiplier}
		t.rowsM[key] = row
		t.order = append(t.order, key)
	}
	row.Minutes++
}

func (t *tierTally) rows() []ratingdomain.TierMinutes {
	out := make([]ratingdomain.TierMinutes, 0, len(t.order))
	for _, key := range t.order {
		row := *t.rowsM[key]
		row.Hours = hoursFromMinutes(row.Minutes)
		out = append(out, row)
	}
	return out
}

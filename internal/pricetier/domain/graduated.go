package domain

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// RangeCharge is the billed portion of one pricing band.
type RangeCharge struct {
	RangeLabel string          `json:"range_label"`
	UnitCount  int64           `json:"unit_count"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

// GraduatedCostResult is the total graduated cost for a unit count.
type GraduatedCostResult struct {
	TotalCost decimal.Decimal `json:"total_cost"`
	Breakdown []RangeCharge   `json:"breakdown"`
}

// ValidationResult carries every violation found in a range set so admins
// can fix the whole configuration in one pass.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Calculate prices unitCount devices against the range set: each band bills
// the units falling inside it at its own unit price. The set is assumed to
// have passed Validate; this path runs on every subscription cycle and does
// not re-check contiguity.
func Calculate(unitCount int64, ranges []PricingRange) GraduatedCostResult {
	result := GraduatedCostResult{TotalCost: decimal.Zero}
	if unitCount <= 0 || len(ranges) == 0 {
		return result
	}

	sorted := sortedByStart(ranges)
	for _, band := range sorted {
		if band.StartUnit > unitCount {
			break
		}
		upper := unitCount
		if band.EndUnit != nil && *band.EndUnit < upper {
			upper = *band.EndUnit
		}
		billed := upper - band.StartUnit + 1
		subtotal := band.UnitPrice.Mul(decimal.NewFromInt(billed)).Round(2)
		result.Breakdown = append(result.Breakdown, RangeCharge{
			RangeLabel: band.Label(),
			UnitCount:  billed,
			UnitPrice:  band.UnitPrice,
			Subtotal:   subtotal,
		})
		result.TotalCost = result.TotalCost.Add(subtotal)
	}

	if result.TotalCost.IsNegative() {
		result.TotalCost = decimal.Zero
	}
	return result
}

// MaxUnits returns the highest billable unit count, or nil when the last
// band is unbounded.
func MaxUnits(ranges []PricingRange) *int64 {
	if len(ranges) == 0 {
		zero := int64(0)
		return &zero
	}
	sorted := sortedByStart(ranges)
	last := sorted[len(sorted)-1]
	if last.EndUnit == nil {
		return nil
	}
	max := *last.EndUnit
	return &max
}

// Validate checks that the bands are gapless, non-overlapping, start at
// unit 1 and price every unit non-negatively. Callers must reject a set
// that fails here before it ever reaches Calculate.
func Validate(ranges []PricingRange) ValidationResult {
	var errs []string
	if len(ranges) == 0 {
		return ValidationResult{Valid: false, Errors: []string{"no pricing ranges configured"}}
	}

	sorted := sortedByStart(ranges)
	if sorted[0].StartUnit != 1 {
		errs = append(errs, fmt.Sprintf("first range %q must start at unit 1, starts at %d", sorted[0].Label(), sorted[0].StartUnit))
	}

	for i, band := range sorted {
		if band.StartUnit <= 0 {
			errs = append(errs, fmt.Sprintf("range %q has non-positive start unit %d", band.Label(), band.StartUnit))
		}
		if band.EndUnit != nil && *band.EndUnit < band.StartUnit {
			errs = append(errs, fmt.Sprintf("range %q ends at %d before it starts at %d", band.Label(), *band.EndUnit, band.StartUnit))
		}
		if band.UnitPrice.IsNegative() {
			errs = append(errs, fmt.Sprintf("range %q has negative unit price %s", band.Label(), band.UnitPrice.String()))
		}
		if band.EndUnit == nil && i != len(sorted)-1 {
			errs = append(errs, fmt.Sprintf("unbounded range %q must be last", band.Label()))
			continue
		}
		if i == len(sorted)-1 {
			continue
		}
		next := sorted[i+1]
		if band.EndUnit == nil {
			continue
		}
		switch {
		case *band.EndUnit+1 < next.StartUnit:
			errs = append(errs, fmt.Sprintf("gap between units %d and %d: range %q ends at %d, next range %q starts at %d",
				*band.EndUnit+1, next.StartUnit-1, band.Label(), *band.EndUnit, next.Label(), next.StartUnit))
		case *band.EndUnit+1 > next.StartUnit:
			errs = append(errs, fmt.Sprintf("overlap at unit %d: range %q ends at %d, range %q already starts at %d",
				next.StartUnit, band.Label(), *band.EndUnit, next.Label(), next.StartUnit))
		}
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func sortedByStart(ranges []PricingRange) []PricingRange {
	sorted := make([]PricingRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartUnit < sorted[j].StartUnit
	})
	return sorted
}

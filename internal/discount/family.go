// Package discount implements the multi-line discount rules applied on top
// of plan pricing.
package discount

import (
	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/pricing"
)

// PerExtraLineMonthly is the flat monthly discount granted for every
// family-eligible line beyond the first within one provider.
const PerExtraLineMonthly catalog.Money = 50

// FamilyMonthly computes the monthly family discount for a cart.
//
// Lines are grouped by provider; within each group, quantities of
// family-eligible plans are summed and every unit beyond the first earns
// PerExtraLineMonthly. The discount applies once per provider group.
// Providers with fewer than two eligible units contribute nothing, and
// ineligible plans are simply skipped, never an error.
func FamilyMonthly(lines []pricing.Line) catalog.Money {
	eligibleUnits := make(map[catalog.Provider]int)
	for _, line := range lines {
		if !line.Plan.FamilyDiscountEligible || line.Quantity < 1 {
			continue
		}
		eligibleUnits[line.Plan.Provider] += line.Quantity
	}

	var monthly catalog.Money
	for _, units := range eligibleUnits {
		if units >= 2 {
			monthly += catalog.Money(units-1) * PerExtraLineMonthly
		}
	}
	return monthly
}

// FamilySixMonth is the family discount over the full comparison window.
func FamilySixMonth(lines []pricing.Line) catalog.Money {
	return FamilyMonthly(lines) * pricing.ComparisonMonths
}

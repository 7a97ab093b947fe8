package pricing

import (
	"errors"
	"fmt"

	"github.com/nordsalg/advisor-api/internal/catalog"
)

// ComparisonMonths is the window every customer/offer comparison uses.
// Intro pricing periods in the catalog never exceed it.
const ComparisonMonths = 6

var (
	// ErrInvalidQuantity is returned when a line quantity is below one.
	ErrInvalidQuantity = errors.New("pricing: quantity must be at least 1")
	// ErrSlotCountRequired is returned when a variable-capacity plan is
	// priced without a selected slot count.
	ErrSlotCountRequired = errors.New("pricing: slot count required for variable bundle")
	// ErrSlotCountUnpriced is returned when the selected slot count has no
	// price in the plan's table.
	ErrSlotCountUnpriced = errors.New("pricing: no price defined for slot count")
)

// Line is one entry of a proposed offer: a plan sold at a quantity, with a
// slot count when the plan's bundle size is seller-adjustable. Lines are
// value objects; the engine never mutates them.
type Line struct {
	Plan      catalog.Plan `json:"plan"`
	Quantity  int          `json:"quantity"`
	SlotCount int          `json:"slotCount,omitempty"`
}

// SixMonthCost computes the six-month total for a line.
//
// With intro pricing the first IntroMonths bill at IntroPrice and the
// remainder at the recurring price, clamped so intro windows longer than the
// comparison period never produce negative remaining months. For
// variable-capacity bundles the slot-count price replaces the recurring
// price; intro pricing, when present despite the catalog excluding the
// combination, still applies to the intro months.
func SixMonthCost(line Line) (catalog.Money, error) {
	if line.Quantity < 1 {
		return 0, fmt.Errorf("plan %s: %w", line.Plan.ID, ErrInvalidQuantity)
	}

	recurring, err := recurringMonthly(line)
	if err != nil {
		return 0, err
	}

	qty := catalog.Money(line.Quantity)
	if !line.Plan.HasIntroPricing() {
		return recurring * ComparisonMonths * qty, nil
	}

	introMonths := line.Plan.IntroMonths
	if introMonths > ComparisonMonths {
		introMonths = ComparisonMonths
	}
	remaining := ComparisonMonths - introMonths
	total := line.Plan.IntroPrice*catalog.Money(introMonths)*qty +
		recurring*catalog.Money(remaining)*qty
	return total, nil
}

// MonthlyPrice returns the recurring monthly price a line bills outside any
// intro window, resolving variable bundle pricing.
func MonthlyPrice(line Line) (catalog.Money, error) {
	return recurringMonthly(line)
}

// AverageMonthly converts a six-month total into the average monthly rate
// sellers quote. The true per-month shape may differ under intro pricing;
// the averaged figure is the contract.
func AverageMonthly(sixMonth catalog.Money) float64 {
	return float64(sixMonth) / ComparisonMonths
}

func recurringMonthly(line Line) (catalog.Money, error) {
	if line.Plan.Bundling.Kind != catalog.BundlingVariableCapacity {
		return line.Plan.Price, nil
	}
	if line.SlotCount == 0 {
		return 0, fmt.Errorf("plan %s: %w", line.Plan.ID, ErrSlotCountRequired)
	}
	price, ok := line.Plan.Bundling.SlotPricing[line.SlotCount]
	if !ok {
		return 0, fmt.Errorf("plan %s, %d slots: %w", line.Plan.ID, line.SlotCount, ErrSlotCountUnpriced)
	}
	return price, nil
}

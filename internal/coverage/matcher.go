// Package coverage decides which of a customer's desired streaming services
// a proposed cart already includes.
package coverage

import (
	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/pricing"
)

// Split partitions the desired streaming set into services the cart covers
// and services the customer must keep paying for separately.
type Split struct {
	Covered   []string `json:"covered"`
	Uncovered []string `json:"uncovered"`
}

// Match applies the two coverage strategies in priority order.
//
// Capacity mode: when any line contributes slots (fixed capacity, or the
// selected size of a variable bundle), the total slot count covers a prefix
// of the desired list in its given order. The prefix rule keeps quoting
// deterministic: the same inputs always cover the same services.
//
// Fixed-list mode: only when no line has capacity, a desired service is
// covered iff some line's bundled list names it.
//
// The two are never combined. A plan carrying both mechanisms has already
// been resolved to capacity during catalog normalisation.
func Match(lines []pricing.Line, desired []string) Split {
	totalSlots := 0
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		totalSlots += lineSlots(line) * line.Quantity
	}

	if totalSlots > 0 {
		return capacitySplit(desired, totalSlots)
	}
	return fixedListSplit(lines, desired)
}

// TotalSlots reports the combined streaming slot capacity of a cart.
func TotalSlots(lines []pricing.Line) int {
	total := 0
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		total += lineSlots(line) * line.Quantity
	}
	return total
}

func lineSlots(line pricing.Line) int {
	switch line.Plan.Bundling.Kind {
	case catalog.BundlingCapacity:
		return line.Plan.Bundling.SlotCapacity
	case catalog.BundlingVariableCapacity:
		if line.SlotCount > 0 {
			return line.SlotCount
		}
		return 0
	default:
		return 0
	}
}

func capacitySplit(desired []string, slots int) Split {
	if slots >= len(desired) {
		return Split{
			Covered:   append([]string(nil), desired...),
			Uncovered: []string{},
		}
	}
	return Split{
		Covered:   append([]string(nil), desired[:slots]...),
		Uncovered: append([]string(nil), desired[slots:]...),
	}
}

func fixedListSplit(lines []pricing.Line, desired []string) Split {
	bundled := make(map[string]struct{})
	for _, line := range lines {
		if line.Quantity < 1 || line.Plan.Bundling.Kind != catalog.BundlingFixedList {
			continue
		}
		for _, id := range line.Plan.Bundling.StreamingIDs {
			bundled[id] = struct{}{}
		}
	}

	split := Split{Covered: []string{}, Uncovered: []string{}}
	for _, id := range desired {
		if _, ok := bundled[id]; ok {
			split.Covered = append(split.Covered, id)
		} else {
			split.Uncovered = append(split.Uncovered, id)
		}
	}
	return split
}

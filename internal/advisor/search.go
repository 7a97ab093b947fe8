// Package advisor searches the catalog for the plan combination that best
// balances customer savings against seller earnings.
package advisor

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/compare"
	"github.com/nordsalg/advisor-api/internal/coverage"
	"github.com/nordsalg/advisor-api/internal/pricing"
)

var (
	// ErrInvalidConstraints is returned when the search constraints are
	// unusable.
	ErrInvalidConstraints = errors.New("advisor: requiredLines must be at least 1")
	// ErrEmptyCatalog is returned when there are no plans to search.
	ErrEmptyCatalog = errors.New("advisor: catalog has no plans")
)

// Constraints bound a single search.
type Constraints struct {
	RequiredLines             int                `json:"requiredLines"`
	MaxLinesConsidered        int                `json:"maxLinesConsidered,omitempty"`
	ExcludedProviders         []catalog.Provider `json:"excludedProviders,omitempty"`
	PreferSavingsOverEarnings bool               `json:"preferSavingsOverEarnings"`
}

// Result is the outcome of one search. An empty Lines slice with a non-empty
// Explanation is the no-solution case, a first-class result the caller must
// treat as "ask for more customer detail", never as an error.
type Result struct {
	Lines            []pricing.Line `json:"cart"`
	SixMonthEarnings catalog.Money  `json:"totalSixMonthEarnings"`
	SixMonthSavings  catalog.Money  `json:"totalSixMonthSavings"`
	Explanation      string         `json:"scoringExplanation"`
}

// candidate is an assembled cart under evaluation.
type candidate struct {
	lines         []pricing.Line
	branch        string
	earnings      catalog.Money
	savings       catalog.Money
	score         float64
	fullyCovered  bool
	familyApplied bool
}

// Search evaluates candidate plan combinations and returns the
// highest-scoring valid one. It is a pure function of its arguments: no
// state survives between calls and concurrent invocations are independent.
func Search(cat *catalog.Catalog, situation compare.Situation, cons Constraints, priceFor compare.PriceFor) (Result, error) {
	if cons.RequiredLines < 1 {
		return Result{}, ErrInvalidConstraints
	}
	if err := situation.Validate(); err != nil {
		return Result{}, err
	}
	if cat == nil || len(cat.Plans) == 0 {
		return Result{}, ErrEmptyCatalog
	}
	if priceFor == nil {
		priceFor = cat.StreamingPrice
	}

	maxLines := cons.MaxLinesConsidered
	if maxLines < 1 {
		maxLines = DefaultMaxLines
	}
	requiredLines := cons.RequiredLines
	if requiredLines > maxLines {
		requiredLines = maxLines
	}

	eligible := eligiblePlans(cat.Plans, cons.ExcludedProviders)
	if len(eligible) == 0 {
		return noSolution("every catalog plan is excluded by the provider constraints"), nil
	}

	customer, err := compare.CustomerTotal(situation, priceFor)
	if err != nil {
		return Result{}, err
	}

	desired := situation.DesiredStreamingIDs

	var carts []assembledCart
	if requiredLines == 1 {
		carts = singleLineCarts(eligible, desired)
	} else {
		carts = multiLineCarts(eligible, desired, requiredLines)
	}

	best, evaluated := pickBest(carts, customer, situation, desired, priceFor, cons.PreferSavingsOverEarnings)

	if best == nil {
		// Fallback: no assembly survived the gate; try every plan
		// individually at the required quantity.
		fallback := fallbackCarts(eligible, desired, requiredLines)
		best, _ = pickBest(fallback, customer, situation, desired, priceFor, cons.PreferSavingsOverEarnings)
	}

	if best == nil {
		if evaluated == 0 {
			return noSolution("no plan combination could be assembled under the current constraints"), nil
		}
		return noSolution("no combination saves money under current constraints; gather more detail on the customer's current spend"), nil
	}

	return Result{
		Lines:            best.lines,
		SixMonthEarnings: best.earnings,
		SixMonthSavings:  best.savings,
		Explanation:      explain(best),
	}, nil
}

type assembledCart struct {
	lines  []pricing.Line
	branch string
}

func eligiblePlans(plans []catalog.Plan, excluded []catalog.Provider) []catalog.Plan {
	if len(excluded) == 0 {
		return plans
	}
	blocked := make(map[catalog.Provider]struct{}, len(excluded))
	for _, p := range excluded {
		blocked[p] = struct{}{}
	}
	kept := make([]catalog.Plan, 0, len(plans))
	for _, p := range plans {
		if _, skip := blocked[p.Provider]; !skip {
			kept = append(kept, p)
		}
	}
	return kept
}

// streamingCandidates ranks streaming-capable plans by how closely their
// slot count matches the requested service count, breaking ties on earnings.
func streamingCandidates(plans []catalog.Plan, requested int) []pricing.Line {
	type ranked struct {
		line     pricing.Line
		distance int
		earnings catalog.Money
	}
	var out []ranked
	for _, p := range plans {
		if !p.StreamingCapable() {
			continue
		}
		line := pricing.Line{Plan: p, Quantity: 1}
		capacity := 0
		switch p.Bundling.Kind {
		case catalog.BundlingFixedList:
			capacity = len(p.Bundling.StreamingIDs)
		case catalog.BundlingCapacity:
			capacity = p.Bundling.SlotCapacity
		case catalog.BundlingVariableCapacity:
			line.SlotCount = clampSlotCount(p.Bundling, requested)
			capacity = line.SlotCount
		}
		distance := capacity - requested
		if distance < 0 {
			distance = -distance
		}
		out = append(out, ranked{line: line, distance: distance, earnings: p.Earnings})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].distance != out[j].distance {
			return out[i].distance < out[j].distance
		}
		return out[i].earnings > out[j].earnings
	})
	lines := make([]pricing.Line, 0, len(out))
	for _, r := range out {
		lines = append(lines, r.line)
	}
	return lines
}

// valueDensity favours plans extracting the most commission per unit of
// customer-visible cost; the quote stays visibly attractive while earnings
// stay high.
func valueDensity(p catalog.Plan) float64 {
	if p.Price <= 0 {
		// Zero-price plans have no applicable density; rank them by raw
		// earnings instead of dividing by zero.
		return float64(p.Earnings)
	}
	return float64(p.Earnings) / float64(p.Price)
}

func nonStreamingCandidates(plans []catalog.Plan) []catalog.Plan {
	var out []catalog.Plan
	for _, p := range plans {
		if !p.StreamingCapable() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return valueDensity(out[i]) > valueDensity(out[j])
	})
	return out
}

func clampSlotCount(b catalog.Bundling, requested int) int {
	min, max, ok := b.SlotRange()
	if !ok {
		return 0
	}
	// Pick the priced count closest to the request, preferring the
	// smallest adequate size.
	bestN, bestDist := 0, -1
	for n := min; n <= max; n++ {
		if _, priced := b.SlotPricing[n]; !priced {
			continue
		}
		dist := n - requested
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			bestN, bestDist = n, dist
		}
	}
	return bestN
}

func singleLineCarts(eligible []catalog.Plan, desired []string) []assembledCart {
	var carts []assembledCart
	if len(desired) > 0 {
		for _, line := range streamingCandidates(eligible, len(desired)) {
			carts = append(carts, assembledCart{
				lines:  []pricing.Line{line},
				branch: "single streaming-capable plan",
			})
		}
	}
	for _, p := range eligible {
		if len(desired) > 0 && p.StreamingCapable() {
			continue // already assembled above with a resolved slot count
		}
		line := pricing.Line{Plan: p, Quantity: 1}
		if p.Bundling.Kind == catalog.BundlingVariableCapacity {
			line.SlotCount = clampSlotCount(p.Bundling, len(desired))
		}
		carts = append(carts, assembledCart{
			lines:  []pricing.Line{line},
			branch: "single plan",
		})
	}
	return carts
}

// multiLineCarts builds the assemblies the search compares: a streaming head
// with a value-dense tail across providers, a same-provider family assembly
// to capture the multi-line discount, and the plain all-one-plan cart.
func multiLineCarts(eligible []catalog.Plan, desired []string, requiredLines int) []assembledCart {
	var carts []assembledCart
	tailQty := requiredLines - 1

	var heads []pricing.Line
	if len(desired) > 0 {
		heads = streamingCandidates(eligible, len(desired))
	}
	nonStreaming := nonStreamingCandidates(eligible)

	for _, head := range heads {
		// Mixed-provider assembly: best earnings density regardless of
		// family discount.
		if len(nonStreaming) > 0 {
			carts = append(carts, assembledCart{
				lines: []pricing.Line{
					head,
					{Plan: nonStreaming[0], Quantity: tailQty},
				},
				branch: "streaming head with mixed-provider tail",
			})
		}
		// Same-provider assembly: capture the family discount when the
		// head's provider offers one.
		if tail, ok := bestFamilyTail(eligible, head.Plan.Provider, head.Plan.ID); ok {
			carts = append(carts, assembledCart{
				lines: []pricing.Line{
					head,
					{Plan: tail, Quantity: tailQty},
				},
				branch: "streaming head with same-provider family tail",
			})
		}
		// All lines on the head plan itself.
		if head.Plan.FamilyDiscountEligible {
			all := head
			all.Quantity = requiredLines
			carts = append(carts, assembledCart{
				lines:  []pricing.Line{all},
				branch: "all lines on one family-eligible streaming plan",
			})
		}
	}

	if len(desired) == 0 {
		for i, p := range nonStreaming {
			if i >= 3 {
				break // strategies, not brute force; the top few by density suffice
			}
			carts = append(carts, assembledCart{
				lines:  []pricing.Line{{Plan: p, Quantity: requiredLines}},
				branch: "all lines on the most value-dense plan",
			})
			if tail, ok := bestFamilyTail(eligible, p.Provider, p.ID); ok {
				carts = append(carts, assembledCart{
					lines: []pricing.Line{
						{Plan: p, Quantity: 1},
						{Plan: tail, Quantity: tailQty},
					},
					branch: "same-provider family assembly",
				})
			}
		}
	}

	return carts
}

func bestFamilyTail(eligible []catalog.Plan, provider catalog.Provider, excludeID string) (catalog.Plan, bool) {
	var best catalog.Plan
	found := false
	for _, p := range eligible {
		if p.Provider != provider || !p.FamilyDiscountEligible || p.ID == excludeID {
			continue
		}
		if !found || valueDensity(p) > valueDensity(best) {
			best = p
			found = true
		}
	}
	return best, found
}

func fallbackCarts(eligible []catalog.Plan, desired []string, requiredLines int) []assembledCart {
	var carts []assembledCart
	for _, p := range eligible {
		line := pricing.Line{Plan: p, Quantity: requiredLines}
		if p.Bundling.Kind == catalog.BundlingVariableCapacity {
			line.SlotCount = clampSlotCount(p.Bundling, len(desired))
		}
		carts = append(carts, assembledCart{
			lines:  []pricing.Line{line},
			branch: "single-plan fallback",
		})
	}
	return carts
}

// pickBest scores every cart, applies the validity gate, and keeps the
// winner. evaluated counts carts that produced a comparable offer at all.
func pickBest(carts []assembledCart, customer compare.Totals, situation compare.Situation, desired []string, priceFor compare.PriceFor, preferSavings bool) (*candidate, int) {
	var best *candidate
	evaluated := 0
	for _, cart := range carts {
		cand, err := evaluate(cart, customer, situation, desired, priceFor)
		if err != nil {
			continue // defective assembly, never fatal for the search
		}
		evaluated++
		if !passesGate(cand, desired) {
			continue
		}
		if best == nil || better(cand, best, preferSavings) {
			c := cand
			best = &c
		}
	}
	return best, evaluated
}

func evaluate(cart assembledCart, customer compare.Totals, situation compare.Situation, desired []string, priceFor compare.PriceFor) (candidate, error) {
	split := coverage.Match(cart.lines, desired)

	var uncoveredMonthly catalog.Money
	for _, id := range split.Uncovered {
		price, ok := priceFor(id)
		if !ok {
			return candidate{}, fmt.Errorf("%w: %s", compare.ErrUnknownStreaming, id)
		}
		uncoveredMonthly += price
	}

	offer, err := compare.OfferTotal(cart.lines, compare.OfferInput{
		UncoveredStreamingMonthly: uncoveredMonthly,
		OneTimeItemPrice:          situation.OneTimeItemPrice,
		BuybackCredit:             situation.OneTimeBuybackCredit,
	})
	if err != nil {
		return candidate{}, err
	}

	var earnings catalog.Money
	for _, line := range cart.lines {
		earnings += line.Plan.Earnings * catalog.Money(line.Quantity) * pricing.ComparisonMonths
	}

	cand := candidate{
		lines:         cart.lines,
		branch:        cart.branch,
		earnings:      earnings,
		savings:       compare.Savings(customer.SixMonth, offer.SixMonth),
		fullyCovered:  len(desired) > 0 && len(split.Uncovered) == 0,
		familyApplied: offer.FamilyDiscountApplied > 0,
	}
	cand.score = score(cand)
	return cand, nil
}

// passesGate applies the savings floor. Candidates that do not deliver the
// desired streaming must at least break even; full coverage buys a bounded
// deficit; with no streaming desired the allowance scales with the
// earnings-to-cost ratio in discrete tiers.
func passesGate(cand candidate, desired []string) bool {
	if len(desired) > 0 {
		if cand.fullyCovered {
			return cand.savings >= StreamingDeficitTolerance
		}
		return cand.savings >= 0
	}

	if cand.savings >= 0 {
		return true
	}
	return cand.savings >= earningsRatioTolerance(earningsCostRatio(cand))
}

func earningsCostRatio(cand candidate) float64 {
	var cost catalog.Money
	for _, line := range cand.lines {
		sixMonth, err := pricing.SixMonthCost(line)
		if err != nil {
			return 0
		}
		cost += sixMonth
	}
	if cost <= 0 {
		return 0
	}
	return float64(cand.earnings) / float64(cost)
}

func score(cand candidate) float64 {
	s := float64(cand.earnings)
	if cand.fullyCovered {
		s += StreamingCoverageBonus
	}
	switch {
	case cand.savings > 0:
		s += PositiveSavingsWeight * float64(cand.savings)
	case cand.savings >= SmallDeficitFloor:
		s += SmallDeficitWeight * float64(cand.savings)
	}
	if cand.familyApplied {
		s += FamilyPackageBonus
	}
	return s
}

// better orders candidates by score; exact ties fall back to earnings, or to
// savings when the seller must put customer-visible deals first.
func better(a candidate, b *candidate, preferSavings bool) bool {
	if a.score != b.score {
		return a.score > b.score
	}
	if preferSavings {
		if a.savings != b.savings {
			return a.savings > b.savings
		}
		return a.earnings > b.earnings
	}
	if a.earnings != b.earnings {
		return a.earnings > b.earnings
	}
	return a.savings > b.savings
}

func noSolution(reason string) Result {
	return Result{Lines: []pricing.Line{}, Explanation: reason}
}

func explain(c *candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: score %.1f (earnings %d", c.branch, c.score, c.earnings)
	if c.fullyCovered {
		fmt.Fprintf(&sb, ", streaming fully covered +%.0f", StreamingCoverageBonus)
	}
	if c.savings > 0 {
		fmt.Fprintf(&sb, ", savings %d weighted %.1f", c.savings, PositiveSavingsWeight*float64(c.savings))
	} else if c.savings < 0 {
		fmt.Fprintf(&sb, ", accepted deficit %d", c.savings)
	}
	if c.familyApplied {
		fmt.Fprintf(&sb, ", family package +%.0f", FamilyPackageBonus)
	}
	sb.WriteString(")")
	return sb.String()
}

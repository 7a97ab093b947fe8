package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Selectable slot counts every variable bundle must price. The storefront
// lets a seller pick anything in this range, so a missing key is a catalog
// authoring defect.
const (
	VariableSlotMin = 2
	VariableSlotMax = 8
)

// rawPlan mirrors the catalog file layout, where bundling is expressed
// through optional fields rather than the resolved tag.
type rawPlan struct {
	ID                     string           `json:"id"`
	Name                   string           `json:"name"`
	Provider               string           `json:"provider"`
	Price                  Money            `json:"price"`
	Earnings               Money            `json:"earnings"`
	IntroPrice             *Money           `json:"introPrice"`
	IntroMonths            *int             `json:"introMonths"`
	FamilyDiscountEligible bool             `json:"familyDiscountEligible"`
	BundledStreamingIDs    []string         `json:"bundledStreamingIds"`
	StreamingSlotCapacity  *int             `json:"streamingSlotCapacity"`
	VariableBundlePricing  map[string]Money `json:"variableBundlePricing"`
}

type rawCatalog struct {
	Plans     []rawPlan          `json:"plans"`
	Streaming []StreamingService `json:"streamingServices"`
}

// LoadFile reads and normalises a catalog from a JSON file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(data)
}

// Parse decodes raw catalog JSON and normalises it into a validated
// snapshot. Structural defects (missing ids, negative amounts) fail the
// load; data-quality defects degrade into warnings per the precedence rules.
func Parse(data []byte) (*Catalog, error) {
	var raw rawCatalog
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return normalize(raw.Plans, raw.Streaming)
}

// normalize validates raw entries and assigns each plan its bundling tag.
func normalize(rawPlans []rawPlan, streaming []StreamingService) (*Catalog, error) {
	c := &Catalog{}

	seen := make(map[string]struct{}, len(rawPlans))
	for _, rp := range rawPlans {
		plan, warnings, err := normalizePlan(rp)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[plan.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate plan id %q", plan.ID)
		}
		seen[plan.ID] = struct{}{}
		c.Plans = append(c.Plans, plan)
		c.Warnings = append(c.Warnings, warnings...)
	}

	seenStreaming := make(map[string]struct{}, len(streaming))
	for _, s := range streaming {
		if strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("catalog: streaming service with empty id")
		}
		if s.Price < 0 {
			return nil, fmt.Errorf("catalog: streaming service %q has negative price", s.ID)
		}
		if _, dup := seenStreaming[s.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate streaming id %q", s.ID)
		}
		seenStreaming[s.ID] = struct{}{}
		c.Streaming = append(c.Streaming, s)
	}

	c.index()
	return c, nil
}

func normalizePlan(rp rawPlan) (Plan, []string, error) {
	if strings.TrimSpace(rp.ID) == "" {
		return Plan{}, nil, fmt.Errorf("catalog: plan with empty id")
	}
	if rp.Price < 0 {
		return Plan{}, nil, fmt.Errorf("catalog: plan %q has negative price", rp.ID)
	}
	if rp.Earnings < 0 {
		return Plan{}, nil, fmt.Errorf("catalog: plan %q has negative earnings", rp.ID)
	}
	provider, err := parseProvider(rp.Provider)
	if err != nil {
		return Plan{}, nil, fmt.Errorf("catalog: plan %q: %w", rp.ID, err)
	}

	plan := Plan{
		ID:                     rp.ID,
		Name:                   rp.Name,
		Provider:               provider,
		Price:                  rp.Price,
		Earnings:               rp.Earnings,
		FamilyDiscountEligible: rp.FamilyDiscountEligible,
	}

	if rp.IntroMonths != nil || rp.IntroPrice != nil {
		if rp.IntroMonths == nil || rp.IntroPrice == nil {
			return Plan{}, nil, fmt.Errorf("catalog: plan %q defines only half of the intro pricing pair", rp.ID)
		}
		if *rp.IntroMonths < 1 {
			return Plan{}, nil, fmt.Errorf("catalog: plan %q has non-positive introMonths", rp.ID)
		}
		if *rp.IntroPrice < 0 {
			return Plan{}, nil, fmt.Errorf("catalog: plan %q has negative introPrice", rp.ID)
		}
		plan.IntroPrice = *rp.IntroPrice
		plan.IntroMonths = *rp.IntroMonths
	}

	bundling, warnings, err := resolveBundling(rp)
	if err != nil {
		return Plan{}, nil, err
	}
	plan.Bundling = bundling
	return plan, warnings, nil
}

// resolveBundling maps the optional raw fields onto the tagged variant.
// A plan exposing both a fixed list and slot capacity is a catalog authoring
// defect; capacity wins and the conflict is reported as a warning.
func resolveBundling(rp rawPlan) (Bundling, []string, error) {
	var warnings []string

	hasFixed := len(rp.BundledStreamingIDs) > 0
	hasCapacity := rp.StreamingSlotCapacity != nil && *rp.StreamingSlotCapacity > 0
	hasVariable := len(rp.VariableBundlePricing) > 0

	if rp.StreamingSlotCapacity != nil && *rp.StreamingSlotCapacity < 0 {
		return Bundling{}, nil, fmt.Errorf("catalog: plan %q has negative slot capacity", rp.ID)
	}

	if hasVariable {
		pricing, missing, err := parseSlotPricing(rp.ID, rp.VariableBundlePricing)
		if err != nil {
			return Bundling{}, nil, err
		}
		if len(missing) > 0 {
			warnings = append(warnings, fmt.Sprintf(
				"plan %s: variableBundlePricing missing slot counts %v; those sizes cannot be sold", rp.ID, missing))
		}
		if hasFixed || hasCapacity {
			warnings = append(warnings, fmt.Sprintf(
				"plan %s: variable bundle pricing set alongside other bundling fields; variable pricing takes precedence", rp.ID))
		}
		return Bundling{Kind: BundlingVariableCapacity, SlotPricing: pricing}, warnings, nil
	}

	if hasCapacity {
		if hasFixed {
			warnings = append(warnings, fmt.Sprintf(
				"plan %s: both bundledStreamingIds and streamingSlotCapacity set; capacity takes precedence", rp.ID))
		}
		return Bundling{Kind: BundlingCapacity, SlotCapacity: *rp.StreamingSlotCapacity}, warnings, nil
	}

	if hasFixed {
		ids := append([]string(nil), rp.BundledStreamingIDs...)
		return Bundling{Kind: BundlingFixedList, StreamingIDs: ids}, warnings, nil
	}

	return Bundling{Kind: BundlingNone}, warnings, nil
}

func parseSlotPricing(planID string, raw map[string]Money) (map[int]Money, []int, error) {
	pricing := make(map[int]Money, len(raw))
	for key, price := range raw {
		var n int
		if _, err := fmt.Sscanf(key, "%d", &n); err != nil {
			return nil, nil, fmt.Errorf("catalog: plan %q has non-numeric slot count %q", planID, key)
		}
		if n < 1 {
			return nil, nil, fmt.Errorf("catalog: plan %q has non-positive slot count %d", planID, n)
		}
		if price < 0 {
			return nil, nil, fmt.Errorf("catalog: plan %q has negative price for %d slots", planID, n)
		}
		pricing[n] = price
	}
	var missing []int
	for n := VariableSlotMin; n <= VariableSlotMax; n++ {
		if _, ok := pricing[n]; !ok {
			missing = append(missing, n)
		}
	}
	sort.Ints(missing)
	return pricing, missing, nil
}

func parseProvider(value string) (Provider, error) {
	candidate := Provider(strings.ToLower(strings.TrimSpace(value)))
	for _, p := range KnownProviders {
		if candidate == p {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", value)
}

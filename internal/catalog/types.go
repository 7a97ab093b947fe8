package catalog

// Money represents a monetary amount in whole currency units.
type Money = int64

// Provider identifies one of the resellers whose plans we can sell.
type Provider string

const (
	ProviderTelmore Provider = "telmore"
	ProviderCBB     Provider = "cbb"
	ProviderTelenor Provider = "telenor"
	ProviderYouSee  Provider = "yousee"
	ProviderCallMe  Provider = "callme"
)

// KnownProviders lists every provider the catalog may reference.
var KnownProviders = []Provider{
	ProviderTelmore,
	ProviderCBB,
	ProviderTelenor,
	ProviderYouSee,
	ProviderCallMe,
}

// BundlingKind tags how a plan includes streaming services.
type BundlingKind string

const (
	// BundlingNone means the plan carries no streaming entitlements.
	BundlingNone BundlingKind = "none"
	// BundlingFixedList means a fixed set of services is always included.
	BundlingFixedList BundlingKind = "fixed"
	// BundlingCapacity means the plan covers any N services of the
	// customer's choice.
	BundlingCapacity BundlingKind = "capacity"
	// BundlingVariableCapacity means the slot count is chosen at sale time
	// and the monthly price depends on it.
	BundlingVariableCapacity BundlingKind = "variable"
)

// Bundling is the resolved streaming entitlement of a plan. The kind is
// assigned once during catalog normalisation so downstream code switches on
// the tag instead of probing optional fields.
type Bundling struct {
	Kind         BundlingKind  `json:"kind"`
	StreamingIDs []string      `json:"streamingIds,omitempty"`
	SlotCapacity int           `json:"slotCapacity,omitempty"`
	SlotPricing  map[int]Money `json:"slotPricing,omitempty"`
}

// SlotRange returns the smallest and largest selectable slot count for a
// variable-capacity bundle. ok is false for every other bundling kind.
func (b Bundling) SlotRange() (min, max int, ok bool) {
	if b.Kind != BundlingVariableCapacity || len(b.SlotPricing) == 0 {
		return 0, 0, false
	}
	first := true
	for n := range b.SlotPricing {
		if first {
			min, max = n, n
			first = false
			continue
		}
		if n < min {
			min = n
		}
		if n > max {
			max = n
		}
	}
	return min, max, true
}

// Plan is an immutable catalog entry for a subscription offering.
type Plan struct {
	ID                     string   `json:"id"`
	Name                   string   `json:"name"`
	Provider               Provider `json:"provider"`
	Price                  Money    `json:"price"`
	Earnings               Money    `json:"earnings"`
	IntroPrice             Money    `json:"introPrice,omitempty"`
	IntroMonths            int      `json:"introMonths,omitempty"`
	FamilyDiscountEligible bool     `json:"familyDiscountEligible"`
	Bundling               Bundling `json:"bundling"`
}

// HasIntroPricing reports whether the plan bills an introductory price for
// its first months.
func (p Plan) HasIntroPricing() bool {
	return p.IntroMonths > 0
}

// StreamingCapable reports whether the plan can cover any desired streaming
// service at all.
func (p Plan) StreamingCapable() bool {
	switch p.Bundling.Kind {
	case BundlingFixedList:
		return len(p.Bundling.StreamingIDs) > 0
	case BundlingCapacity:
		return p.Bundling.SlotCapacity > 0
	case BundlingVariableCapacity:
		return len(p.Bundling.SlotPricing) > 0
	default:
		return false
	}
}

// StreamingService is a catalog entry for a stand-alone streaming
// subscription the customer would otherwise pay for directly.
type StreamingService struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price Money  `json:"price"`
}

// Catalog is an immutable snapshot of every plan and streaming service,
// passed explicitly into each engine call. Warnings carries data-quality
// defects found during normalisation; they never abort quoting.
type Catalog struct {
	Plans     []Plan             `json:"plans"`
	Streaming []StreamingService `json:"streaming"`
	Warnings  []string           `json:"warnings,omitempty"`

	planByID      map[string]Plan
	streamingByID map[string]StreamingService
}

// PlanByID looks up a plan by its catalog id.
func (c *Catalog) PlanByID(id string) (Plan, bool) {
	p, ok := c.planByID[id]
	return p, ok
}

// StreamingByID looks up a streaming service by its catalog id.
func (c *Catalog) StreamingByID(id string) (StreamingService, bool) {
	s, ok := c.streamingByID[id]
	return s, ok
}

// StreamingPrice returns the stand-alone monthly price for a streaming
// service. It satisfies the price-lookup contract the comparator and the
// advisor expect.
func (c *Catalog) StreamingPrice(id string) (Money, bool) {
	s, ok := c.streamingByID[id]
	if !ok {
		return 0, false
	}
	return s.Price, true
}

func (c *Catalog) index() {
	c.planByID = make(map[string]Plan, len(c.Plans))
	for _, p := range c.Plans {
		c.planByID[p.ID] = p
	}
	c.streamingByID = make(map[string]StreamingService, len(c.Streaming))
	for _, s := range c.Streaming {
		c.streamingByID[s.ID] = s
	}
}

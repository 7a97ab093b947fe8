package advisor

import "github.com/nordsalg/advisor-api/internal/catalog"

// Scoring weights and tolerance bands. These are tunable business
// parameters, not contracts: the retail owner sets them, and they are kept
// here as named constants so they can be adjusted and tested independently
// of the search control flow.
const (
	// StreamingCoverageBonus rewards candidates that fully cover the
	// customer's desired streaming set.
	StreamingCoverageBonus float64 = 500
	// FamilyPackageBonus rewards candidates whose multi-line family
	// discount actually applies.
	FamilyPackageBonus float64 = 250

	// PositiveSavingsWeight scales savings into the score when the
	// customer saves money.
	PositiveSavingsWeight float64 = 0.2
	// SmallDeficitWeight scales savings when the deficit is small enough
	// to still be defensible at the counter.
	SmallDeficitWeight float64 = 0.1
	// SmallDeficitFloor bounds what counts as a small deficit.
	SmallDeficitFloor catalog.Money = -100
)

// Validity gate tolerances: how far below break-even a candidate may land
// and still be offered. A deal that covers the customer's streaming carries
// invisible value, so it gets a fixed allowance; without streaming the
// allowance exists only when commission is high enough that the business
// will discount against it.
const (
	// StreamingDeficitTolerance applies when the candidate fully covers
	// the desired streaming set.
	StreamingDeficitTolerance catalog.Money = -300

	RatioTierHigh   = 3.0
	RatioTierMedium = 2.0
	RatioTierLow    = 1.5

	DeficitToleranceHigh   catalog.Money = -500
	DeficitToleranceMedium catalog.Money = -300
	DeficitToleranceLow    catalog.Money = -150
)

// DefaultMaxLines caps the number of lines a single search will assemble
// when the caller does not set its own bound.
const DefaultMaxLines = 4

// earningsRatioTolerance maps an earnings-to-cost ratio onto the deficit the
// gate accepts for a customer who wants no streaming.
func earningsRatioTolerance(ratio float64) catalog.Money {
	switch {
	case ratio > RatioTierHigh:
		return DeficitToleranceHigh
	case ratio > RatioTierMedium:
		return DeficitToleranceMedium
	case ratio > RatioTierLow:
		return DeficitToleranceLow
	default:
		return 0
	}
}

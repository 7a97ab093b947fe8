package advisor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/compare"
)

// buildCatalog routes test fixtures through the public parse path so plans
// carry resolved bundling tags and indexed lookups.
func buildCatalog(t *testing.T, plans []catalog.Plan, streaming []catalog.StreamingService) *catalog.Catalog {
	t.Helper()

	rawPlans := make([]map[string]any, 0, len(plans))
	for _, p := range plans {
		raw := map[string]any{
			"id":       p.ID,
			"name":     p.Name,
			"provider": string(p.Provider),
			"price":    p.Price,
			"earnings": p.Earnings,
		}
		if p.FamilyDiscountEligible {
			raw["familyDiscountEligible"] = true
		}
		switch p.Bundling.Kind {
		case catalog.BundlingFixedList:
			raw["bundledStreamingIds"] = p.Bundling.StreamingIDs
		case catalog.BundlingCapacity:
			raw["streamingSlotCapacity"] = p.Bundling.SlotCapacity
		}
		rawPlans = append(rawPlans, raw)
	}

	data, err := json.Marshal(map[string]any{
		"plans":             rawPlans,
		"streamingServices": streaming,
	})
	require.NoError(t, err)

	parsed, err := catalog.Parse(data)
	require.NoError(t, err)
	return parsed
}

func TestSearchPicksHighestScoringPlan(t *testing.T) {
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "strong", Provider: catalog.ProviderTelmore, Price: 300, Earnings: 1000},
		{ID: "weak", Provider: catalog.ProviderCBB, Price: 249, Earnings: 700},
	}, nil)

	result, err := Search(cat, compare.Situation{CurrentMobileCost: 500}, Constraints{RequiredLines: 1}, nil)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	require.Equal(t, "strong", result.Lines[0].Plan.ID)
	require.Equal(t, catalog.Money(1200), result.SixMonthSavings)
	require.Equal(t, catalog.Money(6000), result.SixMonthEarnings)
	require.NotEmpty(t, result.Explanation)
}

func TestSearchPrefersStreamingCoverage(t *testing.T) {
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "bare", Provider: catalog.ProviderCBB, Price: 99, Earnings: 400},
		{ID: "covered", Provider: catalog.ProviderYouSee, Price: 279, Earnings: 600,
			Bundling: catalog.Bundling{Kind: catalog.BundlingCapacity, SlotCapacity: 2}},
	}, []catalog.StreamingService{
		{ID: "netflix", Name: "Netflix", Price: 114},
		{ID: "hbo", Name: "HBO", Price: 99},
	})

	situation := compare.Situation{
		CurrentMobileCost:   250,
		DesiredStreamingIDs: []string{"netflix", "hbo"},
	}
	result, err := Search(cat, situation, Constraints{RequiredLines: 1}, nil)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	// customer pays (250+114+99)*6 = 2778; the covered plan costs 1674 and
	// replaces both subscriptions, while the bare plan leaves 1278 of
	// streaming in the offer total.
	require.Equal(t, "covered", result.Lines[0].Plan.ID)
	require.Equal(t, catalog.Money(2778-1674), result.SixMonthSavings)
}

func TestSearchExcludesProviders(t *testing.T) {
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "strong", Provider: catalog.ProviderTelmore, Price: 300, Earnings: 1000},
		{ID: "weak", Provider: catalog.ProviderCBB, Price: 249, Earnings: 700},
	}, nil)

	result, err := Search(cat, compare.Situation{CurrentMobileCost: 500},
		Constraints{RequiredLines: 1, ExcludedProviders: []catalog.Provider{catalog.ProviderTelmore}}, nil)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	require.Equal(t, "weak", result.Lines[0].Plan.ID)
}

func TestSearchAllProvidersExcluded(t *testing.T) {
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "only", Provider: catalog.ProviderCBB, Price: 99, Earnings: 400},
	}, nil)

	result, err := Search(cat, compare.Situation{CurrentMobileCost: 500},
		Constraints{RequiredLines: 1, ExcludedProviders: []catalog.Provider{catalog.ProviderCBB}}, nil)
	require.NoError(t, err)
	require.Empty(t, result.Lines)
	require.NotEmpty(t, result.Explanation)
}

func TestSearchNoSolutionIsNotAnError(t *testing.T) {
	// catalog far more expensive than what the customer pays today, with
	// commission too thin for any deficit tolerance
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "pricey", Provider: catalog.ProviderTelenor, Price: 900, Earnings: 100},
	}, nil)

	result, err := Search(cat, compare.Situation{CurrentMobileCost: 100}, Constraints{RequiredLines: 1}, nil)
	require.NoError(t, err)
	require.Empty(t, result.Lines)
	require.NotEmpty(t, result.Explanation)
	require.Equal(t, catalog.Money(0), result.SixMonthEarnings)
}

func TestSearchMultiLineUsesFamilyDiscount(t *testing.T) {
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "fam", Provider: catalog.ProviderTelmore, Price: 200, Earnings: 600, FamilyDiscountEligible: true},
	}, nil)

	result, err := Search(cat, compare.Situation{CurrentMobileCost: 500}, Constraints{RequiredLines: 2}, nil)
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	require.Equal(t, 2, result.Lines[0].Quantity)
	// customer 3000 vs offer 200*6*2 - 50*6 = 2100
	require.Equal(t, catalog.Money(900), result.SixMonthSavings)
}

func TestSearchInvalidConstraints(t *testing.T) {
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "p", Provider: catalog.ProviderCBB, Price: 99, Earnings: 400},
	}, nil)

	_, err := Search(cat, compare.Situation{}, Constraints{RequiredLines: 0}, nil)
	require.ErrorIs(t, err, ErrInvalidConstraints)
}

func TestSearchEmptyCatalog(t *testing.T) {
	_, err := Search(&catalog.Catalog{}, compare.Situation{}, Constraints{RequiredLines: 1}, nil)
	require.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestSearchIsPure(t *testing.T) {
	cat := buildCatalog(t, []catalog.Plan{
		{ID: "strong", Provider: catalog.ProviderTelmore, Price: 300, Earnings: 1000},
		{ID: "weak", Provider: catalog.ProviderCBB, Price: 249, Earnings: 700},
	}, nil)
	situation := compare.Situation{CurrentMobileCost: 500}

	first, err := Search(cat, situation, Constraints{RequiredLines: 1}, nil)
	require.NoError(t, err)
	second, err := Search(cat, situation, Constraints{RequiredLines: 1}, nil)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestEarningsRatioTolerance(t *testing.T) {
	require.Equal(t, DeficitToleranceHigh, earningsRatioTolerance(3.5))
	require.Equal(t, DeficitToleranceMedium, earningsRatioTolerance(2.5))
	require.Equal(t, DeficitToleranceLow, earningsRatioTolerance(1.8))
	require.Equal(t, catalog.Money(0), earningsRatioTolerance(1.0))
}

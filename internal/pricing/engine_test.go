package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordsalg/advisor-api/internal/catalog"
)

func flatPlan(id string, price catalog.Money) catalog.Plan {
	return catalog.Plan{ID: id, Provider: catalog.ProviderCBB, Price: price}
}

func TestSixMonthCostFlat(t *testing.T) {
	cost, err := SixMonthCost(Line{Plan: flatPlan("flat", 200), Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, catalog.Money(1200), cost)

	cost, err = SixMonthCost(Line{Plan: flatPlan("flat", 200), Quantity: 3})
	require.NoError(t, err)
	require.Equal(t, catalog.Money(3600), cost)
}

func TestSixMonthCostIntroPricing(t *testing.T) {
	plan := catalog.Plan{
		ID:          "intro",
		Provider:    catalog.ProviderTelmore,
		Price:       149,
		IntroPrice:  74,
		IntroMonths: 3,
	}
	cost, err := SixMonthCost(Line{Plan: plan, Quantity: 1})
	require.NoError(t, err)
	// 74*3 + 149*3
	require.Equal(t, catalog.Money(669), cost)
}

func TestSixMonthCostIntroWindowClamped(t *testing.T) {
	plan := catalog.Plan{
		ID:          "long-intro",
		Provider:    catalog.ProviderTelmore,
		Price:       300,
		IntroPrice:  100,
		IntroMonths: 12,
	}
	cost, err := SixMonthCost(Line{Plan: plan, Quantity: 1})
	require.NoError(t, err)
	require.Equal(t, catalog.Money(600), cost)
}

func TestSixMonthCostVariableBundle(t *testing.T) {
	plan := catalog.Plan{
		ID:       "variable",
		Provider: catalog.ProviderYouSee,
		Price:    0,
		Bundling: catalog.Bundling{
			Kind:        catalog.BundlingVariableCapacity,
			SlotPricing: map[int]catalog.Money{2: 299, 3: 349},
		},
	}

	cost, err := SixMonthCost(Line{Plan: plan, Quantity: 1, SlotCount: 3})
	require.NoError(t, err)
	require.Equal(t, catalog.Money(2094), cost)

	_, err = SixMonthCost(Line{Plan: plan, Quantity: 1})
	require.ErrorIs(t, err, ErrSlotCountRequired)

	_, err = SixMonthCost(Line{Plan: plan, Quantity: 1, SlotCount: 5})
	require.ErrorIs(t, err, ErrSlotCountUnpriced)
}

func TestSixMonthCostRejectsBadQuantity(t *testing.T) {
	_, err := SixMonthCost(Line{Plan: flatPlan("flat", 100), Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = SixMonthCost(Line{Plan: flatPlan("flat", 100), Quantity: -2})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAverageMonthly(t *testing.T) {
	require.InDelta(t, 350.0, AverageMonthly(2100), 1e-9)
	require.InDelta(t, 111.5, AverageMonthly(669), 1e-9)
}

func TestMonthlyPriceResolvesSlotPricing(t *testing.T) {
	plan := catalog.Plan{
		ID:       "variable",
		Provider: catalog.ProviderYouSee,
		Bundling: catalog.Bundling{
			Kind:        catalog.BundlingVariableCapacity,
			SlotPricing: map[int]catalog.Money{2: 299},
		},
	}
	price, err := MonthlyPrice(Line{Plan: plan, Quantity: 1, SlotCount: 2})
	require.NoError(t, err)
	require.Equal(t, catalog.Money(299), price)
}

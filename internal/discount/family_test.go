package discount

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/pricing"
)

func familyPlan(id string, provider catalog.Provider) catalog.Plan {
	return catalog.Plan{ID: id, Provider: provider, Price: 200, FamilyDiscountEligible: true}
}

func soloPlan(id string, provider catalog.Provider) catalog.Plan {
	return catalog.Plan{ID: id, Provider: provider, Price: 200}
}

func TestFamilyMonthlyPerProvider(t *testing.T) {
	lines := []pricing.Line{
		{Plan: familyPlan("a", catalog.ProviderTelmore), Quantity: 3},
		{Plan: familyPlan("b", catalog.ProviderYouSee), Quantity: 2},
	}
	// telmore: (3-1)*50, yousee: (2-1)*50
	require.Equal(t, catalog.Money(150), FamilyMonthly(lines))
}

func TestFamilyMonthlySumsQuantitiesWithinProvider(t *testing.T) {
	lines := []pricing.Line{
		{Plan: familyPlan("a", catalog.ProviderTelmore), Quantity: 1},
		{Plan: familyPlan("b", catalog.ProviderTelmore), Quantity: 1},
	}
	require.Equal(t, catalog.Money(50), FamilyMonthly(lines))
}

func TestFamilyMonthlySingleLineEarnsNothing(t *testing.T) {
	lines := []pricing.Line{
		{Plan: familyPlan("a", catalog.ProviderTelmore), Quantity: 1},
	}
	require.Equal(t, catalog.Money(0), FamilyMonthly(lines))
}

func TestFamilyMonthlySkipsIneligiblePlans(t *testing.T) {
	lines := []pricing.Line{
		{Plan: soloPlan("a", catalog.ProviderCBB), Quantity: 4},
		{Plan: familyPlan("b", catalog.ProviderCBB), Quantity: 1},
	}
	// only one eligible unit in the provider group
	require.Equal(t, catalog.Money(0), FamilyMonthly(lines))
}

func TestFamilySixMonth(t *testing.T) {
	lines := []pricing.Line{
		{Plan: familyPlan("a", catalog.ProviderTelmore), Quantity: 2},
	}
	require.Equal(t, catalog.Money(300), FamilySixMonth(lines))
}

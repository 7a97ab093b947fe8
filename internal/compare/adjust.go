package compare

import "github.com/nordsalg/advisor-api/internal/catalog"

// CashDiscountStep is the granularity sellers quote one-time discounts in.
const CashDiscountStep catalog.Money = 100

// RequiredCashDiscount returns the smallest one-time discount, as a multiple
// of CashDiscountStep, that brings savings up to the target. Zero when the
// offer already meets the target. Pure and idempotent; whether a manually
// locked discount may be replaced is the caller's decision.
func RequiredCashDiscount(customerSixMonth, offerSixMonthBeforeDiscount, target catalog.Money) catalog.Money {
	current := Savings(customerSixMonth, offerSixMonthBeforeDiscount)
	if current >= target {
		return 0
	}
	shortfall := target - current
	steps := shortfall / CashDiscountStep
	if shortfall%CashDiscountStep != 0 {
		steps++
	}
	return steps * CashDiscountStep
}

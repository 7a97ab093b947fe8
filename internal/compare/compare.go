// Package compare aggregates customer-stated costs and computed offer costs
// into comparable six-month totals.
package compare

import (
	"errors"
	"fmt"

	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/discount"
	"github.com/nordsalg/advisor-api/internal/pricing"
)

var (
	// ErrNegativeAmount is returned when a customer-stated amount is below zero.
	ErrNegativeAmount = errors.New("compare: monetary amounts must be non-negative")
	// ErrUnknownStreaming is returned when no price can be resolved for a
	// desired streaming service.
	ErrUnknownStreaming = errors.New("compare: unknown streaming service")
)

// PriceFor resolves the stand-alone monthly price of a streaming service.
// The comparator treats it as an opaque oracle; it may be backed by the
// static catalog or an external feed.
type PriceFor func(streamingID string) (catalog.Money, bool)

// Situation captures what the customer pays today and what they want.
// DesiredStreamingIDs keeps its given order; coverage consumes it as an
// ordered set.
type Situation struct {
	CurrentMobileCost    catalog.Money `json:"currentMobileCost"`
	CurrentBroadbandCost catalog.Money `json:"currentBroadbandCost"`
	DesiredStreamingIDs  []string      `json:"desiredStreamingIds"`
	OneTimeItemPrice     catalog.Money `json:"oneTimeItemPrice"`
	OneTimeBuybackCredit catalog.Money `json:"oneTimeBuybackCredit"`
}

// Validate rejects situations that would change financial meaning if
// silently coerced.
func (s Situation) Validate() error {
	if s.CurrentMobileCost < 0 || s.CurrentBroadbandCost < 0 ||
		s.OneTimeItemPrice < 0 || s.OneTimeBuybackCredit < 0 {
		return ErrNegativeAmount
	}
	seen := make(map[string]struct{}, len(s.DesiredStreamingIDs))
	for _, id := range s.DesiredStreamingIDs {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("compare: duplicate desired streaming id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Totals is a comparable cost pair. Monthly is the averaged six-month rate;
// with intro pricing the real months differ, but sellers quote the average.
type Totals struct {
	Monthly  float64       `json:"monthly"`
	SixMonth catalog.Money `json:"sixMonth"`
}

// OfferTotals extends Totals with the discount actually applied.
type OfferTotals struct {
	Totals
	FamilyDiscountApplied catalog.Money `json:"familyDiscountApplied"`
}

// CustomerTotal computes what the customer pays today: current mobile and
// broadband plus every desired streaming service at its stand-alone price.
// The one-time item price lands once in the six-month figure, not monthly.
func CustomerTotal(situation Situation, priceFor PriceFor) (Totals, error) {
	if err := situation.Validate(); err != nil {
		return Totals{}, err
	}
	if priceFor == nil {
		return Totals{}, errors.New("compare: price lookup is required")
	}

	monthly := situation.CurrentMobileCost + situation.CurrentBroadbandCost
	for _, id := range situation.DesiredStreamingIDs {
		price, ok := priceFor(id)
		if !ok {
			return Totals{}, fmt.Errorf("%w: %s", ErrUnknownStreaming, id)
		}
		monthly += price
	}

	sixMonth := monthly*pricing.ComparisonMonths + situation.OneTimeItemPrice
	return Totals{Monthly: float64(monthly), SixMonth: sixMonth}, nil
}

// OfferInput carries everything the offer total depends on besides the cart
// itself.
type OfferInput struct {
	UncoveredStreamingMonthly catalog.Money
	CashDiscount              catalog.Money
	OneTimeItemPrice          catalog.Money
	BuybackCredit             catalog.Money
}

// OfferTotal computes the six-month cost of a proposed cart: line totals,
// minus the family discount, plus uncovered streaming the customer keeps
// paying for, plus the one-time item, minus buyback credit and any cash
// discount. The result is clamped at zero, since an offer never reports a
// negative cost, and the monthly figure is the six-month average.
func OfferTotal(lines []pricing.Line, in OfferInput) (OfferTotals, error) {
	var planTotal catalog.Money
	for _, line := range lines {
		cost, err := pricing.SixMonthCost(line)
		if err != nil {
			return OfferTotals{}, err
		}
		planTotal += cost
	}

	familyMonthly := discount.FamilyMonthly(lines)
	sixMonth := planTotal -
		familyMonthly*pricing.ComparisonMonths +
		in.UncoveredStreamingMonthly*pricing.ComparisonMonths +
		in.OneTimeItemPrice -
		in.BuybackCredit -
		in.CashDiscount
	if sixMonth < 0 {
		sixMonth = 0
	}

	return OfferTotals{
		Totals: Totals{
			Monthly:  pricing.AverageMonthly(sixMonth),
			SixMonth: sixMonth,
		},
		FamilyDiscountApplied: familyMonthly,
	}, nil
}

// Savings is the customer's six-month saving under the offer. Positive means
// the customer saves; negative surfaces unchanged so an upsell can be
// flagged rather than hidden.
func Savings(customerSixMonth, offerSixMonth catalog.Money) catalog.Money {
	return customerSixMonth - offerSixMonth
}

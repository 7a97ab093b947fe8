// Package quote turns catalog snapshots and customer input into comparable
// offers, recommendations, and saved quotes.
package quote

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/nordsalg/advisor-api/internal/advisor"
	"github.com/nordsalg/advisor-api/internal/catalog"
	"github.com/nordsalg/advisor-api/internal/common"
	"github.com/nordsalg/advisor-api/internal/compare"
	"github.com/nordsalg/advisor-api/internal/coverage"
	"github.com/nordsalg/advisor-api/internal/obs"
	"github.com/nordsalg/advisor-api/internal/pricing"
)

// PriceSource resolves the streaming price oracle for one request. The
// fallback carries the prices of the catalog snapshot the request is being
// priced against.
type PriceSource interface {
	Oracle(ctx context.Context, fallback compare.PriceFor) compare.PriceFor
}

// Service orchestrates quote computation against the active catalog.
type Service struct {
	Catalog *catalog.Service
	Prices  PriceSource
	Logger  zerolog.Logger
}

// LineRequest selects a catalog plan for an offer.
type LineRequest struct {
	PlanID string `json:"planId" validate:"required"`
	// Quantity is a pointer so an explicit zero is rejected instead of
	// being confused with an omitted field.
	Quantity  *int `json:"quantity,omitempty" validate:"omitempty,min=1"`
	SlotCount int  `json:"slotCount,omitempty" validate:"omitempty,min=2,max=8"`
}

// CompareRequest is the payload for comparing a manual cart against the
// customer's current situation.
type CompareRequest struct {
	Situation compare.Situation `json:"situation"`
	Lines     []LineRequest     `json:"lines" validate:"required,min=1,dive"`

	CashDiscount       catalog.Money  `json:"cashDiscount,omitempty"`
	TargetSavings      *catalog.Money `json:"targetSavings,omitempty"`
	CashDiscountLocked bool           `json:"cashDiscountLocked,omitempty"`
}

// CompareResult is the computed comparison.
type CompareResult struct {
	Customer              compare.Totals      `json:"customer"`
	Offer                 compare.OfferTotals `json:"offer"`
	SixMonthSavings       catalog.Money       `json:"sixMonthSavings"`
	Coverage              coverage.Split      `json:"coverage"`
	CashDiscount          catalog.Money       `json:"cashDiscount"`
	SuggestedCashDiscount catalog.Money       `json:"suggestedCashDiscount,omitempty"`
	Lines                 []pricing.Line      `json:"lines"`
}

// RecommendRequest is the payload for a catalog search.
type RecommendRequest struct {
	Situation   compare.Situation   `json:"situation"`
	Constraints advisor.Constraints `json:"constraints"`
}

// Compare resolves the requested lines against the catalog and computes both
// sides of the comparison. When a savings target is set and the discount is
// not locked, the suggested cash discount replaces the requested one.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (CompareResult, error) {
	result, err := s.compare(ctx, req)
	s.count("compare", err)
	return result, err
}

func (s *Service) compare(ctx context.Context, req CompareRequest) (CompareResult, error) {
	if req.CashDiscount < 0 {
		return CompareResult{}, badRequest("cashDiscount must be non-negative", nil)
	}

	snapshot, err := s.Catalog.Snapshot(ctx)
	if err != nil {
		return CompareResult{}, fmt.Errorf("quote: load catalog: %w", err)
	}

	lines, err := resolveLines(snapshot, req.Lines)
	if err != nil {
		return CompareResult{}, err
	}

	priceFor := s.oracle(ctx, snapshot)
	customer, err := compare.CustomerTotal(req.Situation, priceFor)
	if err != nil {
		return CompareResult{}, badRequest(err.Error(), err)
	}

	split := coverage.Match(lines, req.Situation.DesiredStreamingIDs)
	uncoveredMonthly, err := sumPrices(split.Uncovered, priceFor)
	if err != nil {
		return CompareResult{}, badRequest(err.Error(), err)
	}

	cashDiscount := req.CashDiscount
	var suggested catalog.Money
	if req.TargetSavings != nil {
		base, err := compare.OfferTotal(lines, compare.OfferInput{
			UncoveredStreamingMonthly: uncoveredMonthly,
			OneTimeItemPrice:          req.Situation.OneTimeItemPrice,
			BuybackCredit:             req.Situation.OneTimeBuybackCredit,
		})
		if err != nil {
			return CompareResult{}, badRequest(err.Error(), err)
		}
		suggested = compare.RequiredCashDiscount(customer.SixMonth, base.SixMonth, *req.TargetSavings)
		if !req.CashDiscountLocked {
			cashDiscount = suggested
		}
	}

	offer, err := compare.OfferTotal(lines, compare.OfferInput{
		UncoveredStreamingMonthly: uncoveredMonthly,
		CashDiscount:              cashDiscount,
		OneTimeItemPrice:          req.Situation.OneTimeItemPrice,
		BuybackCredit:             req.Situation.OneTimeBuybackCredit,
	})
	if err != nil {
		return CompareResult{}, badRequest(err.Error(), err)
	}

	return CompareResult{
		Customer:              customer,
		Offer:                 offer,
		SixMonthSavings:       compare.Savings(customer.SixMonth, offer.SixMonth),
		Coverage:              split,
		CashDiscount:          cashDiscount,
		SuggestedCashDiscount: suggested,
		Lines:                 lines,
	}, nil
}

// Recommend searches the catalog for the best plan combination.
func (s *Service) Recommend(ctx context.Context, req RecommendRequest) (advisor.Result, error) {
	start := time.Now()
	result, err := s.recommend(ctx, req)
	s.count("recommend", err)
	if obs.RecommendDuration != nil {
		obs.RecommendDuration.Observe(obs.DurationMillis(time.Since(start)))
	}
	if err == nil && len(result.Lines) == 0 && obs.RecommendNoSolutionTotal != nil {
		obs.RecommendNoSolutionTotal.Inc()
	}
	return result, err
}

func (s *Service) recommend(ctx context.Context, req RecommendRequest) (advisor.Result, error) {
	snapshot, err := s.Catalog.Snapshot(ctx)
	if err != nil {
		return advisor.Result{}, fmt.Errorf("quote: load catalog: %w", err)
	}

	result, err := advisor.Search(snapshot, req.Situation, req.Constraints, s.oracle(ctx, snapshot))
	if err != nil {
		return advisor.Result{}, badRequest(err.Error(), err)
	}
	return result, nil
}

func (s *Service) oracle(ctx context.Context, snapshot *catalog.Catalog) compare.PriceFor {
	if s.Prices == nil {
		return snapshot.StreamingPrice
	}
	return s.Prices.Oracle(ctx, snapshot.StreamingPrice)
}

func (s *Service) count(mode string, err error) {
	if obs.QuoteComputeTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	obs.QuoteComputeTotal.WithLabelValues(mode, result).Inc()
}

func resolveLines(snapshot *catalog.Catalog, reqs []LineRequest) ([]pricing.Line, error) {
	lines := make([]pricing.Line, 0, len(reqs))
	for _, lr := range reqs {
		plan, ok := snapshot.PlanByID(lr.PlanID)
		if !ok {
			return nil, &common.AppError{
				Code:       common.CodeValidation,
				Message:    fmt.Sprintf("unknown plan id %q", lr.PlanID),
				HTTPStatus: http.StatusUnprocessableEntity,
			}
		}
		qty := 1
		if lr.Quantity != nil {
			if *lr.Quantity < 1 {
				return nil, badRequest(fmt.Sprintf("quantity must be at least 1 for plan %q", lr.PlanID), nil)
			}
			qty = *lr.Quantity
		}
		line := pricing.Line{Plan: plan, Quantity: qty, SlotCount: lr.SlotCount}
		if _, err := pricing.SixMonthCost(line); err != nil {
			return nil, badRequest(err.Error(), err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func sumPrices(ids []string, priceFor compare.PriceFor) (catalog.Money, error) {
	var total catalog.Money
	for _, id := range ids {
		price, ok := priceFor(id)
		if !ok {
			return 0, fmt.Errorf("%w: %s", compare.ErrUnknownStreaming, id)
		}
		total += price
	}
	return total, nil
}

func badRequest(message string, err error) *common.AppError {
	return &common.AppError{
		Code:       common.CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

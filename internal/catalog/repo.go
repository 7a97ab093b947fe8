package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const listPlansSQL = `
SELECT id, name, provider, monthly_price, earnings,
       intro_monthly_price, intro_months, family_discount_eligible,
       bundled_streaming_ids, streaming_slot_capacity, variable_bundle_pricing
FROM plans
ORDER BY provider, id`

const listStreamingSQL = `
SELECT id, name, monthly_price
FROM streaming_services
ORDER BY id`

// PostgresSource loads catalog snapshots from Postgres. Rows go through the
// same normalisation as the JSON file path, so both sources enforce identical
// validation and bundling precedence.
type PostgresSource struct {
	Pool *pgxpool.Pool
}

// Load implements Source.
func (s PostgresSource) Load(ctx context.Context) (*Catalog, error) {
	plans, err := s.loadPlans(ctx)
	if err != nil {
		return nil, err
	}
	streaming, err := s.loadStreaming(ctx)
	if err != nil {
		return nil, err
	}
	return normalize(plans, streaming)
}

func (s PostgresSource) loadPlans(ctx context.Context) ([]rawPlan, error) {
	rows, err := s.Pool.Query(ctx, listPlansSQL)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []rawPlan
	for rows.Next() {
		var rp rawPlan
		if err := rows.Scan(
			&rp.ID, &rp.Name, &rp.Provider, &rp.Price, &rp.Earnings,
			&rp.IntroPrice, &rp.IntroMonths, &rp.FamilyDiscountEligible,
			&rp.BundledStreamingIDs, &rp.StreamingSlotCapacity, &rp.VariableBundlePricing,
		); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return plans, nil
}

func (s PostgresSource) loadStreaming(ctx context.Context) ([]StreamingService, error) {
	rows, err := s.Pool.Query(ctx, listStreamingSQL)
	if err != nil {
		return nil, fmt.Errorf("query streaming services: %w", err)
	}
	defer rows.Close()

	var services []StreamingService
	for rows.Next() {
		var svc StreamingService
		if err := rows.Scan(&svc.ID, &svc.Name, &svc.Price); err != nil {
			return nil, fmt.Errorf("scan streaming service: %w", err)
		}
		services = append(services, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate streaming services: %w", err)
	}
	return services, nil
}

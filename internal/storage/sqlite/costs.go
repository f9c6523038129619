package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakmont/dealscope/internal/types"
)

// SaveCostEstimates stores a run's work-item cost estimates. Estimates
// are derived records: re-running the cost stage replaces them.
func (s *SQLiteStorage) SaveCostEstimates(ctx context.Context, runID string, estimates []types.CostEstimate) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cost_estimates WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("failed to clear cost estimates: %w", err)
		}
		for _, est := range estimates {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO cost_estimates (run_id, work_item_id, deal_type, category,
					base_cost, multiplier, adjusted_cost, assumptions)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, est.WorkItemID, string(est.DealType), string(est.Category),
				est.BaseCost, est.Multiplier, est.AdjustedCost, est.Assumptions)
			if err != nil {
				return fmt.Errorf("failed to save estimate for %s: %w", est.WorkItemID, err)
			}
		}
		return nil
	})
}

// GetCostEstimates returns the work-item cost estimates for a run.
func (s *SQLiteStorage) GetCostEstimates(ctx context.Context, runID string) ([]types.CostEstimate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT work_item_id, deal_type, category, base_cost, multiplier,
			adjusted_cost, assumptions
		FROM cost_estimates WHERE run_id = ? ORDER BY work_item_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cost estimates: %w", err)
	}
	defer rows.Close()

	var estimates []types.CostEstimate
	for rows.Next() {
		var est types.CostEstimate
		var dealType, category string
		if err := rows.Scan(&est.WorkItemID, &dealType, &category, &est.BaseCost,
			&est.Multiplier, &est.AdjustedCost, &est.Assumptions); err != nil {
			return nil, fmt.Errorf("failed to scan cost estimate: %w", err)
		}
		est.DealType = types.DealType(dealType)
		est.Category = types.Domain(category)
		estimates = append(estimates, est)
	}
	return estimates, rows.Err()
}

// SaveTSAEstimate stores the run's transitional-service estimate,
// replacing any previous one.
func (s *SQLiteStorage) SaveTSAEstimate(ctx context.Context, runID string, tsa *types.TSAEstimate) error {
	if tsa == nil {
		return fmt.Errorf("tsa estimate is required")
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tsa_estimates (run_id, deal_type, shared_applications,
			shared_infrastructure, monthly_cost, clamped, duration_months,
			total_cost, assumptions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			deal_type = excluded.deal_type,
			shared_applications = excluded.shared_applications,
			shared_infrastructure = excluded.shared_infrastructure,
			monthly_cost = excluded.monthly_cost,
			clamped = excluded.clamped,
			duration_months = excluded.duration_months,
			total_cost = excluded.total_cost,
			assumptions = excluded.assumptions`,
		runID, string(tsa.DealType), tsa.SharedApplications, tsa.SharedInfrastructure,
		tsa.MonthlyCost, tsa.Clamped, tsa.DurationMonths, tsa.TotalCost, tsa.Assumptions)
	if err != nil {
		return fmt.Errorf("failed to save tsa estimate: %w", err)
	}
	return nil
}

// GetTSAEstimate returns the run's transitional-service estimate, or
// nil when none was computed.
func (s *SQLiteStorage) GetTSAEstimate(ctx context.Context, runID string) (*types.TSAEstimate, error) {
	var tsa types.TSAEstimate
	var dealType string
	err := s.db.QueryRowContext(ctx, `
		SELECT deal_type, shared_applications, shared_infrastructure,
			monthly_cost, clamped, duration_months, total_cost, assumptions
		FROM tsa_estimates WHERE run_id = ?`, runID).Scan(
		&dealType, &tsa.SharedApplications, &tsa.SharedInfrastructure,
		&tsa.MonthlyCost, &tsa.Clamped, &tsa.DurationMonths,
		&tsa.TotalCost, &tsa.Assumptions)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tsa estimate: %w", err)
	}
	tsa.DealType = types.DealType(dealType)
	return &tsa, nil
}

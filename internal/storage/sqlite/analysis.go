package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oakmont/dealscope/internal/types"
)

// SaveOverlaps stores a run's overlap candidates.
func (s *SQLiteStorage) SaveOverlaps(ctx context.Context, runID string, overlaps []types.OverlapCandidate) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range overlaps {
			ov := &overlaps[i]
			if err := ov.Validate(); err != nil {
				return fmt.Errorf("overlap %s is invalid: %w", ov.ID, err)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO overlaps (run_id, id, domain, classification,
					target_fact_id, buyer_fact_id, rationale)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, ov.ID, string(ov.Domain), string(ov.Classification),
				ov.TargetFactID, ov.BuyerFactID, ov.Rationale)
			if err != nil {
				return fmt.Errorf("failed to save overlap %s: %w", ov.ID, err)
			}
		}
		return nil
	})
}

// GetOverlaps returns all overlap candidates for a run.
func (s *SQLiteStorage) GetOverlaps(ctx context.Context, runID string) ([]types.OverlapCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, classification, target_fact_id, buyer_fact_id, rationale
		FROM overlaps WHERE run_id = ? ORDER BY domain, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlaps: %w", err)
	}
	defer rows.Close()

	var overlaps []types.OverlapCandidate
	for rows.Next() {
		var ov types.OverlapCandidate
		var domain, class string
		if err := rows.Scan(&ov.ID, &domain, &class, &ov.TargetFactID,
			&ov.BuyerFactID, &ov.Rationale); err != nil {
			return nil, fmt.Errorf("failed to scan overlap: %w", err)
		}
		ov.Domain = types.Domain(domain)
		ov.Classification = types.OverlapClass(class)
		overlaps = append(overlaps, ov)
	}
	return overlaps, rows.Err()
}

// SaveFindings stores a run's consolidated findings.
func (s *SQLiteStorage) SaveFindings(ctx context.Context, runID string, findings []types.Finding) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range findings {
			f := &findings[i]
			if err := f.Validate(); err != nil {
				return fmt.Errorf("finding %s is invalid: %w", f.ID, err)
			}
			citations, err := json.Marshal(f.Citations)
			if err != nil {
				return fmt.Errorf("failed to marshal citations for %s: %w", f.ID, err)
			}
			mergedFrom, err := json.Marshal(f.MergedFrom)
			if err != nil {
				return fmt.Errorf("failed to marshal merged_from for %s: %w", f.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO findings (run_id, id, type, domain, severity, description,
					citations, overlap_id, integration_related, target_action,
					integration_option, phase, cost_category, base_cost, merged_from, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, f.ID, string(f.Type), string(f.Domain), string(f.Severity),
				f.Description, string(citations), f.OverlapID, f.IntegrationRelated,
				f.TargetAction, f.IntegrationOption, string(f.Phase),
				string(f.CostCategory), f.BaseCost, string(mergedFrom), f.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to save finding %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

// GetFindings returns all findings for a run.
func (s *SQLiteStorage) GetFindings(ctx context.Context, runID string) ([]types.Finding, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, domain, severity, description, citations, overlap_id,
			integration_related, target_action, integration_option, phase,
			cost_category, base_cost, merged_from, created_at
		FROM findings WHERE run_id = ? ORDER BY domain, type, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []types.Finding
	for rows.Next() {
		var f types.Finding
		var ftype, domain, severity, phase, category, citations, mergedFrom string
		if err := rows.Scan(&f.ID, &ftype, &domain, &severity, &f.Description,
			&citations, &f.OverlapID, &f.IntegrationRelated, &f.TargetAction,
			&f.IntegrationOption, &phase, &category, &f.BaseCost,
			&mergedFrom, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}
		f.Type = types.FindingType(ftype)
		f.Domain = types.Domain(domain)
		f.Severity = types.Severity(severity)
		f.Phase = types.Phase(phase)
		f.CostCategory = types.Domain(category)
		if err := json.Unmarshal([]byte(citations), &f.Citations); err != nil {
			return nil, fmt.Errorf("corrupt citations for finding %s: %w", f.ID, err)
		}
		if err := json.Unmarshal([]byte(mergedFrom), &f.MergedFrom); err != nil {
			return nil, fmt.Errorf("corrupt merged_from for finding %s: %w", f.ID, err)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

// SaveDomainStatuses stores the per-domain completion report.
func (s *SQLiteStorage) SaveDomainStatuses(ctx context.Context, runID string, statuses []types.DomainStatus) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, st := range statuses {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO domain_statuses (run_id, domain, state, overlap_count,
					finding_count, rejected_count, error)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, string(st.Domain), string(st.State), st.OverlapCount,
				st.FindingCount, st.RejectedCount, st.Error)
			if err != nil {
				return fmt.Errorf("failed to save status for domain %s: %w", st.Domain, err)
			}
		}
		return nil
	})
}

// GetDomainStatuses returns the per-domain completion report for a run.
func (s *SQLiteStorage) GetDomainStatuses(ctx context.Context, runID string) ([]types.DomainStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, state, overlap_count, finding_count, rejected_count, error
		FROM domain_statuses WHERE run_id = ? ORDER BY domain`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query domain statuses: %w", err)
	}
	defer rows.Close()

	var statuses []types.DomainStatus
	for rows.Next() {
		var st types.DomainStatus
		var domain, state string
		if err := rows.Scan(&domain, &state, &st.OverlapCount, &st.FindingCount,
			&st.RejectedCount, &st.Error); err != nil {
			return nil, fmt.Errorf("failed to scan domain status: %w", err)
		}
		st.Domain = types.Domain(domain)
		st.State = types.DomainState(state)
		statuses = append(statuses, st)
	}
	return statuses, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/oakmont/dealscope/internal/types"
)

// SaveFacts appends facts to a run's evidence base. Facts are
// append-only: an existing ID is a hard error, corrections must
// supersede under a new ID.
func (s *SQLiteStorage) SaveFacts(ctx context.Context, runID string, facts []types.Fact) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range facts {
			f := &facts[i]
			if err := f.Validate(); err != nil {
				return fmt.Errorf("fact %s is invalid: %w", f.ID, err)
			}
			attrs, err := json.Marshal(f.Attributes)
			if err != nil {
				return fmt.Errorf("failed to marshal attributes for fact %s: %w", f.ID, err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO facts (run_id, id, domain, entity, claim, attributes,
					document_id, location, confidence, supersedes_id, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, f.ID, string(f.Domain), string(f.Entity), f.Claim, string(attrs),
				f.Source.DocumentID, f.Source.Location, f.Confidence, f.SupersedesID, f.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to save fact %s: %w", f.ID, err)
			}
		}
		return nil
	})
}

// GetFacts returns all facts for a run.
func (s *SQLiteStorage) GetFacts(ctx context.Context, runID string) ([]types.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, entity, claim, attributes, document_id, location,
			confidence, supersedes_id, created_at
		FROM facts WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query facts: %w", err)
	}
	defer rows.Close()

	var facts []types.Fact
	for rows.Next() {
		var f types.Fact
		var domain, entity, attrs string
		if err := rows.Scan(&f.ID, &domain, &entity, &f.Claim, &attrs,
			&f.Source.DocumentID, &f.Source.Location, &f.Confidence,
			&f.SupersedesID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fact: %w", err)
		}
		f.Domain = types.Domain(domain)
		f.Entity = types.Entity(entity)
		if attrs != "" {
			if err := json.Unmarshal([]byte(attrs), &f.Attributes); err != nil {
				return nil, fmt.Errorf("corrupt attributes for fact %s: %w", f.ID, err)
			}
		}
		f.CreatedAt = f.CreatedAt.UTC()
		facts = append(facts, f)
	}
	return facts, rows.Err()
}

// SaveGaps appends gaps to a run.
func (s *SQLiteStorage) SaveGaps(ctx context.Context, runID string, gaps []types.Gap) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range gaps {
			g := &gaps[i]
			if err := g.Validate(); err != nil {
				return fmt.Errorf("gap %s is invalid: %w", g.ID, err)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO gaps (run_id, id, domain, entity, description,
					document_id, location, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				runID, g.ID, string(g.Domain), string(g.Entity), g.Description,
				g.Source.DocumentID, g.Source.Location, g.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to save gap %s: %w", g.ID, err)
			}
		}
		return nil
	})
}

// GetGaps returns all gaps for a run.
func (s *SQLiteStorage) GetGaps(ctx context.Context, runID string) ([]types.Gap, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, entity, description, document_id, location, created_at
		FROM gaps WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query gaps: %w", err)
	}
	defer rows.Close()

	var gaps []types.Gap
	for rows.Next() {
		var g types.Gap
		var domain, entity string
		if err := rows.Scan(&g.ID, &domain, &entity, &g.Description,
			&g.Source.DocumentID, &g.Source.Location, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gap: %w", err)
		}
		g.Domain = types.Domain(domain)
		g.Entity = types.Entity(entity)
		g.CreatedAt = g.CreatedAt.UTC()
		gaps = append(gaps, g)
	}
	return gaps, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oakmont/dealscope/internal/types"
)

// SaveInventory stores the run's inventory summary. The summary is a
// run input, retained so repricing under a different deal structure
// counts shared items from the same source as the original run.
func (s *SQLiteStorage) SaveInventory(ctx context.Context, runID string, inv *types.InventorySummary) error {
	if inv == nil {
		return fmt.Errorf("inventory summary is required")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("failed to clear inventory: %w", err)
		}
		for i, item := range inv.Items {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO inventory_items (run_id, ord, name, category, item_count, annual_cost, shared)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				runID, i, item.Name, item.Category, item.Count, item.AnnualCost, item.Shared)
			if err != nil {
				return fmt.Errorf("failed to save inventory item %q: %w", item.Name, err)
			}
		}
		return nil
	})
}

// GetInventory returns the run's inventory summary, or nil when the
// run was executed without one.
func (s *SQLiteStorage) GetInventory(ctx context.Context, runID string) (*types.InventorySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, category, item_count, annual_cost, shared
		FROM inventory_items WHERE run_id = ? ORDER BY ord`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query inventory: %w", err)
	}
	defer rows.Close()

	var items []types.InventoryItem
	for rows.Next() {
		var item types.InventoryItem
		if err := rows.Scan(&item.Name, &item.Category, &item.Count, &item.AnnualCost, &item.Shared); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &types.InventorySummary{Items: items}, nil
}

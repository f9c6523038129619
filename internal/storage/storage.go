// Package storage persists analysis runs and everything scoped to
// them. Facts are append-only: corrections supersede, they never
// overwrite, so the audit trail survives re-extraction.
package storage

import (
	"context"

	"github.com/oakmont/dealscope/internal/storage/sqlite"
	"github.com/oakmont/dealscope/internal/types"
)

// Storage defines the interface for run storage backends
type Storage interface {
	// Runs
	CreateRun(ctx context.Context, run *types.Run) error
	FinishRun(ctx context.Context, run *types.Run) error
	GetRun(ctx context.Context, id string) (*types.Run, error)
	ListRuns(ctx context.Context, limit int) ([]*types.Run, error)

	// Facts & Gaps - append-only evidence base
	SaveFacts(ctx context.Context, runID string, facts []types.Fact) error
	GetFacts(ctx context.Context, runID string) ([]types.Fact, error)
	SaveGaps(ctx context.Context, runID string, gaps []types.Gap) error
	GetGaps(ctx context.Context, runID string) ([]types.Gap, error)

	// Overlaps
	SaveOverlaps(ctx context.Context, runID string, overlaps []types.OverlapCandidate) error
	GetOverlaps(ctx context.Context, runID string) ([]types.OverlapCandidate, error)

	// Findings
	SaveFindings(ctx context.Context, runID string, findings []types.Finding) error
	GetFindings(ctx context.Context, runID string) ([]types.Finding, error)

	// Inventory input, retained so the cost stage can be re-run
	SaveInventory(ctx context.Context, runID string, inv *types.InventorySummary) error
	GetInventory(ctx context.Context, runID string) (*types.InventorySummary, error)

	// Cost output
	SaveCostEstimates(ctx context.Context, runID string, estimates []types.CostEstimate) error
	GetCostEstimates(ctx context.Context, runID string) ([]types.CostEstimate, error)
	SaveTSAEstimate(ctx context.Context, runID string, tsa *types.TSAEstimate) error
	GetTSAEstimate(ctx context.Context, runID string) (*types.TSAEstimate, error)

	// Per-domain completion report
	SaveDomainStatuses(ctx context.Context, runID string, statuses []types.DomainStatus) error
	GetDomainStatuses(ctx context.Context, runID string) ([]types.DomainStatus, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".dealscope/dealscope.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: ".dealscope/dealscope.db",
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = ".dealscope/dealscope.db"
	}
	return sqlite.New(cfg.Path)
}

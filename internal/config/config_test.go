package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Overlap.MaxFactsPerSide)
	assert.Equal(t, 0.6, cfg.Consolidate.OverlapThreshold)
	assert.Equal(t, 25000.0, cfg.Cost.TSAMonthlyFloor)
	assert.Equal(t, 12, cfg.Pipeline.TSADurationMonths)
	assert.Equal(t, filepath.Join(".dealscope", "dealscope.db"), cfg.DatabasePath)
}

func TestLoadReadsFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
deal_id: project-osprey
deal_type: carveout
database_path: /var/lib/dealscope/osprey.db
overlap:
  max_facts_per_side: 40
consolidate:
  overlap_threshold: 0.75
cost:
  tsa_monthly_ceiling: 250000
pipeline:
  tsa_duration_months: 18
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "project-osprey", cfg.DealID)
	assert.Equal(t, "carveout", cfg.DealType)
	assert.Equal(t, "/var/lib/dealscope/osprey.db", cfg.DatabasePath)
	assert.Equal(t, 40, cfg.Overlap.MaxFactsPerSide)
	assert.Equal(t, 0.75, cfg.Consolidate.OverlapThreshold)
	assert.Equal(t, 250000.0, cfg.Cost.TSAMonthlyCeiling)
	assert.Equal(t, 18, cfg.Pipeline.TSADurationMonths)
	// Untouched sections keep their defaults.
	assert.Equal(t, 8000.0, cfg.Cost.TSAAppMonthlyRate)
}

func TestLoadEnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
consolidate:
  overlap_threshold: 0.75
cost:
  tsa_monthly_floor: 10000
`), 0644))

	t.Setenv("DEALSCOPE_CONSOLIDATE_OVERLAP_THRESHOLD", "0.5")
	t.Setenv("DEALSCOPE_TSA_MONTHLY_FLOOR", "30000")
	t.Setenv("DEALSCOPE_DB_PATH", "/tmp/override.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Consolidate.OverlapThreshold)
	assert.Equal(t, 30000.0, cfg.Cost.TSAMonthlyFloor)
	assert.Equal(t, "/tmp/override.db", cfg.DatabasePath)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("deal_id: [unclosed"), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
consolidate:
  overlap_threshold: 1.5
`), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

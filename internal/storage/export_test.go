package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/dealscope/internal/types"
)

func seededStore(t *testing.T) Storage {
	t.Helper()
	ctx := context.Background()
	st, err := NewStorage(ctx, &Config{Path: filepath.Join(t.TempDir(), "dealscope.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	run := types.Run{
		ID: "run-1", DealID: "deal-1", DealType: types.DealAcquisition,
		State: types.RunCompleted, StartedAt: time.Now().UTC(),
	}
	require.NoError(t, st.CreateRun(ctx, &run))

	require.NoError(t, st.SaveFacts(ctx, "run-1", []types.Fact{{
		ID: "target-cybersecurity-0001", Domain: types.DomainCybersecurity,
		Entity: types.EntityTarget, Claim: "uses CrowdStrike Falcon",
		Source:     types.Provenance{DocumentID: "doc-1"},
		Confidence: 0.9, CreatedAt: time.Now().UTC(),
	}}))
	require.NoError(t, st.SaveOverlaps(ctx, "run-1", []types.OverlapCandidate{
		{ID: "cybersecurity-ov-1", Domain: types.DomainCybersecurity,
			Classification: types.OverlapPlatformMismatch, TargetFactID: "target-cybersecurity-0001"},
		{ID: "network-ov-1", Domain: types.DomainNetwork,
			Classification: types.OverlapCapabilityGap, TargetFactID: "target-cybersecurity-0001"},
	}))
	require.NoError(t, st.SaveFindings(ctx, "run-1", []types.Finding{
		{
			ID: "cybersecurity-risk-1", Type: types.FindingRisk,
			Domain: types.DomainCybersecurity, Severity: types.SeverityHigh,
			Description: "EDR conflict", Citations: []string{"target-cybersecurity-0001"},
			CreatedAt: time.Now().UTC(),
		},
		{
			ID: "cybersecurity-wi-1", Type: types.FindingWorkItem,
			Domain: types.DomainCybersecurity, Severity: types.SeverityMedium,
			Description: "migrate endpoints", Citations: []string{"target-cybersecurity-0001"},
			Phase:       types.PhaseDay100, CostCategory: types.DomainCybersecurity, BaseCost: 1000,
			CreatedAt: time.Now().UTC(),
		},
	}))
	return st
}

func TestExportFacts(t *testing.T) {
	st := seededStore(t)
	var buf bytes.Buffer
	require.NoError(t, ExportFacts(context.Background(), st, "run-1", &buf))

	var out FactExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out.RunID)
	require.Len(t, out.Facts, 1)
	assert.Equal(t, "uses CrowdStrike Falcon", out.Facts[0].Claim)
}

func TestExportOverlapsKeyedByDomain(t *testing.T) {
	st := seededStore(t)
	var buf bytes.Buffer
	require.NoError(t, ExportOverlaps(context.Background(), st, "run-1", &buf))

	var out OverlapExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out.Overlaps[types.DomainCybersecurity], 1)
	assert.Len(t, out.Overlaps[types.DomainNetwork], 1)
}

func TestExportFindingsPartitionedByVariant(t *testing.T) {
	st := seededStore(t)
	var buf bytes.Buffer
	require.NoError(t, ExportFindings(context.Background(), st, "run-1", &buf))

	var out FindingExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Len(t, out.Risks, 1)
	assert.Len(t, out.WorkItems, 1)
	assert.Empty(t, out.Recommendations)
	assert.Empty(t, out.StrategicConsiderations)

	// Citations always survive export.
	for _, f := range append(out.Risks, out.WorkItems...) {
		assert.NotEmpty(t, f.Citations, "finding %s", f.ID)
	}
}

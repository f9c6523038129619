package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/dealscope/internal/types"
)

func newStore(t *testing.T) *SQLiteStorage {
	t.Helper()
	st, err := New(filepath.Join(t.TempDir(), "dealscope.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createRun(t *testing.T, st *SQLiteStorage, id string) types.Run {
	t.Helper()
	run := types.Run{
		ID: id, DealID: "deal-1", DealType: types.DealCarveOut,
		State: types.RunIncomplete, StartedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, st.CreateRun(context.Background(), &run))
	return run
}

func TestRunLifecycle(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	run := createRun(t, st, "run-1")

	got, err := st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.DealID, got.DealID)
	assert.Equal(t, types.RunIncomplete, got.State)
	assert.True(t, got.FinishedAt.IsZero())

	run.State = types.RunCompleted
	run.FinishedAt = time.Now().UTC().Truncate(time.Second)
	require.NoError(t, st.FinishRun(ctx, &run))

	got, err = st.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, types.RunCompleted, got.State)
	assert.False(t, got.FinishedAt.IsZero())

	_, err = st.GetRun(ctx, "run-missing")
	assert.Error(t, err)

	err = st.FinishRun(ctx, &types.Run{ID: "run-missing", State: types.RunCompleted})
	assert.Error(t, err)
}

func TestListRunsNewestFirst(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	for i, id := range []string{"run-a", "run-b", "run-c"} {
		run := types.Run{
			ID: id, DealID: "deal-1", DealType: types.DealAcquisition,
			State:     types.RunIncomplete,
			StartedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, st.CreateRun(ctx, &run))
	}

	runs, err := st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-c", runs[0].ID)
	assert.Equal(t, "run-b", runs[1].ID)
}

func TestFactsAreAppendOnly(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	fact := types.Fact{
		ID: "target-applications-0001", Domain: types.DomainApplications,
		Entity: types.EntityTarget, Claim: "runs SAP ECC 6.0",
		Attributes: types.FactAttributes{Vendor: "SAP", Category: "erp", AnnualCost: 1200000},
		Source:     types.Provenance{DocumentID: "doc-7", Location: "p.12"},
		Confidence: 0.95, CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, st.SaveFacts(ctx, "run-1", []types.Fact{fact}))

	// Same ID again is a constraint violation, not an update.
	fact.Claim = "runs SAP S/4HANA"
	assert.Error(t, st.SaveFacts(ctx, "run-1", []types.Fact{fact}))

	// A correction supersedes under a new ID.
	correction := fact
	correction.ID = "target-applications-0002"
	correction.SupersedesID = "target-applications-0001"
	require.NoError(t, st.SaveFacts(ctx, "run-1", []types.Fact{correction}))

	facts, err := st.GetFacts(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, "runs SAP ECC 6.0", facts[0].Claim)
	assert.Equal(t, "SAP", facts[0].Attributes.Vendor)
	assert.Equal(t, "target-applications-0001", facts[1].SupersedesID)
}

func TestSaveFactsRejectsInvalid(t *testing.T) {
	st := newStore(t)
	createRun(t, st, "run-1")
	bad := types.Fact{ID: "x", Domain: "datacenter", Entity: types.EntityTarget, Claim: "c"}
	assert.Error(t, st.SaveFacts(context.Background(), "run-1", []types.Fact{bad}))
}

func TestGapsRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	gap := types.Gap{
		ID: "gap-1", Domain: types.DomainCybersecurity, Entity: types.EntityTarget,
		Description: "no SOC coverage information provided",
		Source:      types.Provenance{DocumentID: "doc-3"},
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, st.SaveGaps(ctx, "run-1", []types.Gap{gap}))

	gaps, err := st.GetGaps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, gap.Description, gaps[0].Description)
	assert.Equal(t, types.DomainCybersecurity, gaps[0].Domain)
}

func TestOverlapsRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	overlaps := []types.OverlapCandidate{
		{ID: "cybersecurity-ov-1", Domain: types.DomainCybersecurity,
			Classification: types.OverlapPlatformMismatch,
			TargetFactID:   "t-1", BuyerFactID: "b-1", Rationale: "competing EDR"},
		{ID: "network-ov-1", Domain: types.DomainNetwork,
			Classification: types.OverlapCapabilityGap, TargetFactID: "t-2"},
	}
	require.NoError(t, st.SaveOverlaps(ctx, "run-1", overlaps))

	got, err := st.GetOverlaps(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.OverlapPlatformMismatch, got[0].Classification)
	assert.Empty(t, got[1].BuyerFactID)
}

func TestFindingsRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	findings := []types.Finding{
		{
			ID: "cybersecurity-risk-1", Type: types.FindingRisk,
			Domain: types.DomainCybersecurity, Severity: types.SeverityCritical,
			Description: "EDR platforms are incompatible",
			Citations:   []string{"t-1", "b-1"},
			OverlapID:   "cybersecurity-ov-1", IntegrationRelated: true,
			TargetAction:      "keep current platform",
			IntegrationOption: "migrate target endpoints to buyer EDR",
			MergedFrom:        []string{"cybersecurity-risk-1", "cybersecurity-risk-2"},
			CreatedAt:         time.Now().UTC().Truncate(time.Second),
		},
		{
			ID: "cybersecurity-wi-1", Type: types.FindingWorkItem,
			Domain: types.DomainCybersecurity, Severity: types.SeverityHigh,
			Description: "migrate 4,000 endpoints",
			Citations:   []string{"t-1"},
			Phase:       types.PhaseDay100, CostCategory: types.DomainCybersecurity,
			BaseCost:  250000,
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		},
	}
	require.NoError(t, st.SaveFindings(ctx, "run-1", findings))

	got, err := st.GetFindings(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	risk := got[0]
	assert.Equal(t, "cybersecurity-risk-1", risk.ID)
	assert.Equal(t, []string{"t-1", "b-1"}, risk.Citations)
	assert.True(t, risk.IntegrationRelated)
	assert.Len(t, risk.MergedFrom, 2)
	require.NoError(t, risk.Validate())

	wi := got[1]
	assert.Equal(t, types.PhaseDay100, wi.Phase)
	assert.Equal(t, 250000.0, wi.BaseCost)
	require.NoError(t, wi.Validate())
}

func TestCostEstimatesAreReplaced(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	first := []types.CostEstimate{{
		WorkItemID: "cybersecurity-wi-1", DealType: types.DealCarveOut,
		Category: types.DomainCybersecurity, BaseCost: 100000,
		Multiplier: 1.7, AdjustedCost: 170000,
	}}
	require.NoError(t, st.SaveCostEstimates(ctx, "run-1", first))

	// Re-running the cost stage under a different deal type replaces
	// the derived records.
	second := []types.CostEstimate{{
		WorkItemID: "cybersecurity-wi-1", DealType: types.DealDivestiture,
		Category: types.DomainCybersecurity, BaseCost: 100000,
		Multiplier: 2.0, AdjustedCost: 200000,
	}}
	require.NoError(t, st.SaveCostEstimates(ctx, "run-1", second))

	got, err := st.GetCostEstimates(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.DealDivestiture, got[0].DealType)
	assert.Equal(t, 200000.0, got[0].AdjustedCost)
}

func TestTSAEstimateRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	got, err := st.GetTSAEstimate(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, got)

	tsa := &types.TSAEstimate{
		DealType: types.DealCarveOut, SharedApplications: 12, SharedInfrastructure: 4,
		MonthlyCost: 156000, DurationMonths: 12, TotalCost: 1872000,
	}
	require.NoError(t, st.SaveTSAEstimate(ctx, "run-1", tsa))

	tsa.MonthlyCost = 400000
	tsa.Clamped = true
	require.NoError(t, st.SaveTSAEstimate(ctx, "run-1", tsa))

	got, err = st.GetTSAEstimate(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 400000.0, got.MonthlyCost)
	assert.True(t, got.Clamped)
}

func TestInventoryRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	got, err := st.GetInventory(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, got, "a run without an inventory summary returns nil")

	inv := &types.InventorySummary{Items: []types.InventoryItem{
		{Name: "ERP modules", Category: types.InventoryApplication, Count: 50, Shared: true},
		{Name: "CRM", Category: types.InventoryApplication, Shared: false},
		{Name: "Shared DC", Category: types.InventoryInfrastructure, Count: 2, AnnualCost: 1200000, Shared: true},
	}}
	require.NoError(t, st.SaveInventory(ctx, "run-1", inv))

	got, err = st.GetInventory(ctx, "run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Items, 3)
	assert.Equal(t, 50, got.Items[0].Count)
	assert.Equal(t, 1200000.0, got.Items[2].AnnualCost)

	// Shared counts drive the transitional-service model; they must
	// survive the round trip exactly.
	assert.Equal(t, 50, got.SharedCount(types.InventoryApplication))
	assert.Equal(t, 2, got.SharedCount(types.InventoryInfrastructure))

	assert.Error(t, st.SaveInventory(ctx, "run-1", nil))
}

func TestDomainStatusesRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()
	createRun(t, st, "run-1")

	statuses := []types.DomainStatus{
		{Domain: types.DomainApplications, State: types.DomainCompleted, OverlapCount: 3, FindingCount: 7, RejectedCount: 1},
		{Domain: types.DomainNetwork, State: types.DomainFailed, Error: "reasoning failed: capability timeout"},
	}
	require.NoError(t, st.SaveDomainStatuses(ctx, "run-1", statuses))

	got, err := st.GetDomainStatuses(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, types.DomainCompleted, got[0].State)
	assert.Equal(t, 1, got[0].RejectedCount)
	assert.Contains(t, got[1].Error, "capability timeout")
}

func TestConfigRoundTrip(t *testing.T) {
	st := newStore(t)
	ctx := context.Background()

	val, err := st.GetConfig(ctx, "deal_id")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, st.SetConfig(ctx, "deal_id", "project-falcon"))
	require.NoError(t, st.SetConfig(ctx, "deal_id", "project-osprey"))

	val, err = st.GetConfig(ctx, "deal_id")
	require.NoError(t, err)
	assert.Equal(t, "project-osprey", val)
}

package reasoning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/dealscope/internal/ai"
	"github.com/oakmont/dealscope/internal/types"
)

type fakeGenerator struct {
	raw []ai.RawFinding
	err error
}

func (f *fakeGenerator) GenerateFindings(ctx context.Context, domain types.Domain, facts []types.Fact, gaps []types.Gap, overlaps []types.OverlapCandidate) ([]ai.RawFinding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.raw, nil
}

func inputFacts() []types.Fact {
	return []types.Fact{
		{ID: "t-sec-1", Domain: types.DomainCybersecurity, Entity: types.EntityTarget, Claim: "EDR is CrowdStrike", Confidence: 0.9},
		{ID: "t-sec-2", Domain: types.DomainCybersecurity, Entity: types.EntityTarget, Claim: "No weekend SOC coverage", Confidence: 0.7},
		{ID: "b-sec-1", Domain: types.DomainCybersecurity, Entity: types.EntityBuyer, Claim: "EDR is Carbon Black", Confidence: 0.9},
	}
}

func inputOverlaps() []types.OverlapCandidate {
	return []types.OverlapCandidate{{
		ID:             "cybersecurity-ov-1",
		Domain:         types.DomainCybersecurity,
		Classification: types.OverlapPlatformMismatch,
		TargetFactID:   "t-sec-1",
		BuyerFactID:    "b-sec-1",
		Rationale:      "competing EDR",
	}}
}

func TestAnalyzeProducesValidatedFindings(t *testing.T) {
	gen := &fakeGenerator{raw: []ai.RawFinding{
		{
			Type:        "risk",
			Severity:    "high",
			Description: "Target has no weekend SOC coverage",
			Citations:   []string{"t-sec-2"},
		},
		{
			Type:         "work_item",
			Severity:     "high",
			Description:  "Consolidate EDR platforms after close",
			Citations:    []string{"t-sec-1", "b-sec-1"},
			OverlapID:    "cybersecurity-ov-1",
			Phase:        "day-100",
			CostCategory: "cybersecurity",
			BaseCost:     250000,
		},
	}}
	orch, err := New(gen)
	require.NoError(t, err)

	result, err := orch.Analyze(context.Background(), types.DomainCybersecurity, inputFacts(), nil, inputOverlaps())
	require.NoError(t, err)
	require.Len(t, result.Findings, 2)
	assert.Zero(t, result.Rejected)

	risk := result.Findings[0]
	assert.Equal(t, types.FindingRisk, risk.Type)
	assert.Equal(t, "cybersecurity-risk-1", risk.ID)
	assert.False(t, risk.IntegrationRelated, "target-only risk must not be integration related")

	wi := result.Findings[1]
	assert.Equal(t, "cybersecurity-wi-1", wi.ID)
	assert.True(t, wi.IntegrationRelated)
	require.NoError(t, wi.Validate())
}

func TestAnalyzeRejectsUnknownCitations(t *testing.T) {
	gen := &fakeGenerator{raw: []ai.RawFinding{
		{Type: "risk", Severity: "high", Description: "hallucinated", Citations: []string{"t-sec-999"}},
		{Type: "risk", Severity: "low", Description: "no citations at all"},
		{Type: "risk", Severity: "low", Description: "real", Citations: []string{"t-sec-1"}},
	}}
	orch, err := New(gen)
	require.NoError(t, err)

	result, err := orch.Analyze(context.Background(), types.DomainCybersecurity, inputFacts(), nil, nil)
	require.NoError(t, err)
	// Rejections are counted, not silently dropped.
	assert.Equal(t, 2, result.Rejected)
	require.Len(t, result.Findings, 1)
	assert.Equal(t, "real", result.Findings[0].Description)
}

func TestAnalyzeRejectsUnknownOverlapReference(t *testing.T) {
	gen := &fakeGenerator{raw: []ai.RawFinding{
		{Type: "risk", Severity: "high", Description: "bad overlap ref", Citations: []string{"t-sec-1"}, OverlapID: "cybersecurity-ov-99"},
	}}
	orch, err := New(gen)
	require.NoError(t, err)

	result, err := orch.Analyze(context.Background(), types.DomainCybersecurity, inputFacts(), nil, inputOverlaps())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Empty(t, result.Findings)
}

func TestIntegrationRelatedIsStructural(t *testing.T) {
	gen := &fakeGenerator{raw: []ai.RawFinding{
		// Capability claims integration_related on a target-only finding: overridden to false.
		{Type: "risk", Severity: "high", Description: "target only", Citations: []string{"t-sec-2"}, IntegrationRelated: true},
		// Capability claims not integration_related despite citing a buyer fact: overridden to true.
		{Type: "strategic_consideration", Severity: "medium", Description: "buyer cited", Citations: []string{"t-sec-1", "b-sec-1"}, IntegrationRelated: false},
	}}
	orch, err := New(gen)
	require.NoError(t, err)

	result, err := orch.Analyze(context.Background(), types.DomainCybersecurity, inputFacts(), nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Findings, 2)
	assert.False(t, result.Findings[0].IntegrationRelated)
	assert.True(t, result.Findings[1].IntegrationRelated)
}

func TestAnalyzeRejectsMalformedWorkItems(t *testing.T) {
	gen := &fakeGenerator{raw: []ai.RawFinding{
		{Type: "work_item", Severity: "high", Description: "no phase", Citations: []string{"t-sec-1"}, CostCategory: "cybersecurity"},
		{Type: "work_item", Severity: "high", Description: "bad category", Citations: []string{"t-sec-1"}, Phase: "day-1", CostCategory: "overhead"},
		{Type: "work_item", Severity: "high", Description: "defaulted category", Citations: []string{"t-sec-1"}, Phase: "day-1", BaseCost: 1000},
	}}
	orch, err := New(gen)
	require.NoError(t, err)

	result, err := orch.Analyze(context.Background(), types.DomainCybersecurity, inputFacts(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rejected)
	require.Len(t, result.Findings, 1)
	// Missing cost category falls back to the finding's domain.
	assert.Equal(t, types.DomainCybersecurity, result.Findings[0].CostCategory)
}

func TestAnalyzeCapabilityFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("response failed schema validation")}
	orch, err := New(gen)
	require.NoError(t, err)

	_, err = orch.Analyze(context.Background(), types.DomainCybersecurity, inputFacts(), nil, nil)
	assert.Error(t, err)
}

func TestAnalyzeUnknownFindingType(t *testing.T) {
	gen := &fakeGenerator{raw: []ai.RawFinding{
		{Type: "observation", Severity: "low", Description: "not a variant", Citations: []string{"t-sec-1"}},
	}}
	orch, err := New(gen)
	require.NoError(t, err)

	result, err := orch.Analyze(context.Background(), types.DomainCybersecurity, inputFacts(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rejected)
	assert.Empty(t, result.Findings)
}

package overlap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmont/dealscope/internal/ai"
	"github.com/oakmont/dealscope/internal/types"
)

// fakeComparer returns canned pair classifications per call.
type fakeComparer struct {
	calls   int
	pairs   [][]ai.PairClassification
	err     error
	lastT   []types.Fact
	lastB   []types.Fact
	domains []types.Domain
}

func (f *fakeComparer) CompareFactGroups(ctx context.Context, domain types.Domain, targetFacts, buyerFacts []types.Fact) ([]ai.PairClassification, error) {
	f.calls++
	f.lastT, f.lastB = targetFacts, buyerFacts
	f.domains = append(f.domains, domain)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.pairs) == 0 {
		return nil, nil
	}
	p := f.pairs[0]
	f.pairs = f.pairs[1:]
	return p, nil
}

func secFact(id string, entity types.Entity, vendor, claim string) types.Fact {
	return types.Fact{
		ID:         id,
		Domain:     types.DomainCybersecurity,
		Entity:     entity,
		Claim:      claim,
		Attributes: types.FactAttributes{Vendor: vendor, Category: "endpoint-protection"},
		Source:     types.Provenance{DocumentID: "doc-1"},
		Confidence: 0.9,
	}
}

func TestDetectPlatformMismatch(t *testing.T) {
	// 5 target facts (incl. CrowdStrike) and 5 buyer facts (incl.
	// Carbon Black) must yield a platform_mismatch candidate citing
	// both EDR tools.
	facts := []types.Fact{
		secFact("t-sec-1", types.EntityTarget, "CrowdStrike", "EDR is CrowdStrike Falcon"),
		{ID: "t-sec-2", Domain: types.DomainCybersecurity, Entity: types.EntityTarget, Claim: "SIEM is Splunk", Attributes: types.FactAttributes{Vendor: "Splunk", Category: "siem"}, Confidence: 0.8},
		{ID: "t-sec-3", Domain: types.DomainCybersecurity, Entity: types.EntityTarget, Claim: "Annual pentest by external firm", Confidence: 0.7},
		{ID: "t-sec-4", Domain: types.DomainCybersecurity, Entity: types.EntityTarget, Claim: "MFA enforced for admins", Attributes: types.FactAttributes{Category: "mfa"}, Confidence: 0.9},
		{ID: "t-sec-5", Domain: types.DomainCybersecurity, Entity: types.EntityTarget, Claim: "No SOC coverage at weekends", Confidence: 0.6},
		secFact("b-sec-1", types.EntityBuyer, "Carbon Black", "EDR is VMware Carbon Black"),
		{ID: "b-sec-2", Domain: types.DomainCybersecurity, Entity: types.EntityBuyer, Claim: "SIEM is Splunk Cloud", Attributes: types.FactAttributes{Vendor: "Splunk", Category: "siem"}, Confidence: 0.8},
		{ID: "b-sec-3", Domain: types.DomainCybersecurity, Entity: types.EntityBuyer, Claim: "24/7 SOC", Confidence: 0.9},
		{ID: "b-sec-4", Domain: types.DomainCybersecurity, Entity: types.EntityBuyer, Claim: "MFA on all accounts", Attributes: types.FactAttributes{Category: "mfa"}, Confidence: 0.9},
		{ID: "b-sec-5", Domain: types.DomainCybersecurity, Entity: types.EntityBuyer, Claim: "Vulnerability scanning with Qualys", Attributes: types.FactAttributes{Vendor: "Qualys"}, Confidence: 0.8},
	}

	comparer := &fakeComparer{pairs: [][]ai.PairClassification{
		{{TargetFactID: "t-sec-1", BuyerFactID: "b-sec-1", Classification: "platform_mismatch", Rationale: "competing EDR platforms"}},
	}}
	engine, err := New(comparer, DefaultConfig())
	require.NoError(t, err)

	candidates, err := engine.Detect(context.Background(), types.DomainCybersecurity, facts)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	found := false
	for _, c := range candidates {
		require.NoError(t, c.Validate())
		assert.True(t, c.Classification.IsValid())
		if c.Classification == types.OverlapPlatformMismatch &&
			c.TargetFactID == "t-sec-1" && c.BuyerFactID == "b-sec-1" {
			found = true
		}
	}
	assert.True(t, found, "expected a platform_mismatch citing CrowdStrike and Carbon Black facts")
}

func TestDetectEmptyPartitionIsValid(t *testing.T) {
	comparer := &fakeComparer{}
	engine, err := New(comparer, DefaultConfig())
	require.NoError(t, err)

	// No facts at all: zero candidates, no capability call, no error.
	candidates, err := engine.Detect(context.Background(), types.DomainNetwork, nil)
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Zero(t, comparer.calls)

	// Buyer side empty: still runs (capability can flag gaps).
	facts := []types.Fact{{ID: "t-net-1", Domain: types.DomainNetwork, Entity: types.EntityTarget, Claim: "MPLS WAN", Confidence: 0.9}}
	candidates, err = engine.Detect(context.Background(), types.DomainNetwork, facts)
	require.NoError(t, err)
	assert.Empty(t, candidates)
	assert.Equal(t, 1, comparer.calls)
}

func TestDetectFirstClassificationWins(t *testing.T) {
	facts := []types.Fact{
		secFact("t-sec-1", types.EntityTarget, "CrowdStrike", "EDR"),
		secFact("b-sec-1", types.EntityBuyer, "Carbon Black", "EDR"),
	}
	// The same pair comes back twice with conflicting labels.
	comparer := &fakeComparer{pairs: [][]ai.PairClassification{{
		{TargetFactID: "t-sec-1", BuyerFactID: "b-sec-1", Classification: "platform_mismatch", Rationale: "first"},
		{TargetFactID: "t-sec-1", BuyerFactID: "b-sec-1", Classification: "capability_overlap", Rationale: "second"},
	}}}
	engine, err := New(comparer, DefaultConfig())
	require.NoError(t, err)

	candidates, err := engine.Detect(context.Background(), types.DomainCybersecurity, facts)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, types.OverlapPlatformMismatch, candidates[0].Classification)
}

func TestDetectRejectsUnknownFactReferences(t *testing.T) {
	facts := []types.Fact{
		secFact("t-sec-1", types.EntityTarget, "CrowdStrike", "EDR"),
		secFact("b-sec-1", types.EntityBuyer, "Carbon Black", "EDR"),
	}
	comparer := &fakeComparer{pairs: [][]ai.PairClassification{{
		{TargetFactID: "t-sec-99", BuyerFactID: "b-sec-1", Classification: "platform_mismatch", Rationale: "hallucinated"},
		{TargetFactID: "t-sec-1", BuyerFactID: "b-sec-1", Classification: "platform_mismatch", Rationale: "real"},
	}}}
	engine, err := New(comparer, DefaultConfig())
	require.NoError(t, err)

	candidates, err := engine.Detect(context.Background(), types.DomainCybersecurity, facts)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "t-sec-1", candidates[0].TargetFactID)
}

func TestDetectRejectsUnknownClassification(t *testing.T) {
	facts := []types.Fact{
		secFact("t-sec-1", types.EntityTarget, "CrowdStrike", "EDR"),
		secFact("b-sec-1", types.EntityBuyer, "Carbon Black", "EDR"),
	}
	// A label outside the four classes must be dropped no matter which
	// comparer produced it.
	comparer := &fakeComparer{pairs: [][]ai.PairClassification{{
		{TargetFactID: "t-sec-1", BuyerFactID: "b-sec-1", Classification: "partial_overlap", Rationale: "made-up label"},
		{TargetFactID: "t-sec-1", BuyerFactID: "b-sec-1", Classification: "platform_mismatch", Rationale: "real"},
	}}}
	engine, err := New(comparer, DefaultConfig())
	require.NoError(t, err)

	candidates, err := engine.Detect(context.Background(), types.DomainCybersecurity, facts)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, types.OverlapPlatformMismatch, candidates[0].Classification)
	require.NoError(t, candidates[0].Validate())
}

func TestDetectCapabilityFailure(t *testing.T) {
	facts := []types.Fact{secFact("t-sec-1", types.EntityTarget, "CrowdStrike", "EDR")}
	comparer := &fakeComparer{err: errors.New("schema validation failed")}
	engine, err := New(comparer, DefaultConfig())
	require.NoError(t, err)

	_, err = engine.Detect(context.Background(), types.DomainCybersecurity, facts)
	assert.Error(t, err, "capability failure surfaces so the caller can degrade this domain")
}

func TestDetectRejectsForeignDomainFact(t *testing.T) {
	facts := []types.Fact{{ID: "t-net-1", Domain: types.DomainNetwork, Entity: types.EntityTarget, Claim: "WAN", Confidence: 0.5}}
	engine, err := New(&fakeComparer{}, DefaultConfig())
	require.NoError(t, err)

	_, err = engine.Detect(context.Background(), types.DomainCybersecurity, facts)
	assert.Error(t, err)
}

func TestGroupFactsCoarseKey(t *testing.T) {
	target := []types.Fact{
		{ID: "t1", Attributes: types.FactAttributes{Category: "EDR"}},
		{ID: "t2", Attributes: types.FactAttributes{Vendor: "Cisco"}},
		{ID: "t3"},
	}
	buyer := []types.Fact{
		{ID: "b1", Attributes: types.FactAttributes{Category: "edr"}},
		{ID: "b2"},
	}
	groups := groupFacts(target, buyer)
	require.Len(t, groups, 3)

	byKey := map[string]factGroup{}
	for _, g := range groups {
		byKey[g.key] = g
	}
	// Category is normalized, so EDR and edr share a bucket.
	g := byKey["category:edr"]
	assert.Len(t, g.target, 1)
	assert.Len(t, g.buyer, 1)
	assert.Len(t, byKey["vendor:cisco"].target, 1)
	assert.Len(t, byKey["uncategorized"].buyer, 1)
}

func TestChunkFacts(t *testing.T) {
	facts := make([]types.Fact, 5)
	chunks := chunkFacts(facts, 2)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[2], 1)

	// Empty side still yields one empty chunk so one-sided groups are compared.
	chunks = chunkFacts(nil, 2)
	require.Len(t, chunks, 1)
	assert.Nil(t, chunks[0])
}

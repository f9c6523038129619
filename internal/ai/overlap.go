package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/oakmont/dealscope/internal/types"
)

// PairClassification is one classified target/buyer fact pair from a
// batched comparison. At most one of the fact IDs may be empty (a
// capability_gap has no counterpart on one side).
type PairClassification struct {
	TargetFactID   string `json:"target_fact_id"`
	BuyerFactID    string `json:"buyer_fact_id"`
	Classification string `json:"classification"` // one of the four overlap labels
	Rationale      string `json:"rationale"`
}

// compareResponse is the schema the capability must return for a
// batched comparison request.
type compareResponse struct {
	Pairs []PairClassification `json:"pairs"`
}

// CompareFactGroups sends one batched comparison request for a group
// of target and buyer facts in a single domain and returns the
// classified pairs.
//
// Either side may be empty; the capability is still consulted (it can
// flag capability_gap pairs), except when both sides are empty, which
// short-circuits to zero pairs. Schema-violating responses are
// returned as errors; the overlap engine treats them as a per-domain
// capability failure.
func (a *Analyst) CompareFactGroups(ctx context.Context, domain types.Domain, targetFacts, buyerFacts []types.Fact) ([]PairClassification, error) {
	if len(targetFacts) == 0 && len(buyerFacts) == 0 {
		return nil, nil
	}

	prompt := buildComparePrompt(domain, targetFacts, buyerFacts)

	// Roughly 120 tokens per plausible pair, bounded.
	maxTokens := (len(targetFacts) + len(buyerFacts)) * 120
	if maxTokens < 1000 {
		maxTokens = 1000
	}
	if maxTokens > 8000 {
		maxTokens = 8000
	}

	responseText, err := a.call(ctx, prompt, "overlap_compare", a.model, maxTokens)
	if err != nil {
		return nil, fmt.Errorf("overlap comparison failed for domain %s: %w", domain, err)
	}

	parseResult := Parse[compareResponse](responseText, "overlap comparison response")
	if !parseResult.Success {
		return nil, fmt.Errorf("failed to parse overlap comparison response: %s (response: %s)",
			parseResult.Error, truncateString(responseText, 200))
	}

	for i, pair := range parseResult.Data.Pairs {
		if !types.OverlapClass(pair.Classification).IsValid() {
			return nil, fmt.Errorf("pair %d has invalid classification %q", i, pair.Classification)
		}
		if pair.TargetFactID == "" && pair.BuyerFactID == "" {
			return nil, fmt.Errorf("pair %d references no facts", i)
		}
	}

	return parseResult.Data.Pairs, nil
}

// buildComparePrompt enumerates both fact lists with their entity tags
// and asks for classified pairs.
func buildComparePrompt(domain types.Domain, targetFacts, buyerFacts []types.Fact) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are comparing the IT estates of an acquisition TARGET and a BUYER in the %q domain for technology due diligence.

TARGET FACTS:
`, domain)
	writeFactList(&b, targetFacts)

	b.WriteString("\nBUYER FACTS:\n")
	writeFactList(&b, buyerFacts)

	b.WriteString(`
TASK:
Identify relationships between TARGET capabilities and BUYER capabilities. For each related pair (or one-sided capability), classify it as exactly one of:
- "platform_alignment": both entities use the same or compatible capability
- "platform_mismatch": incompatible competing capabilities serving the same purpose
- "capability_gap": one entity has a capability the other clearly lacks
- "capability_overlap": redundant duplicate capability that integration would consolidate

GUIDELINES:
1. Compare capabilities semantically (e.g. two different EDR vendors serving the same purpose is a platform_mismatch).
2. Only pair facts that describe comparable capabilities. Do not force a pairing for unrelated facts.
3. For capability_gap, leave the missing side's fact ID empty ("").
4. Use the exact fact IDs given above. Never invent IDs.
5. A one-sentence rationale per pair.

OUTPUT FORMAT (JSON only, no markdown):
{
  "pairs": [
    {
      "target_fact_id": "string or empty",
      "buyer_fact_id": "string or empty",
      "classification": "platform_alignment | platform_mismatch | capability_gap | capability_overlap",
      "rationale": "one sentence"
    }
  ]
}

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`)

	return b.String()
}

func writeFactList(b *strings.Builder, facts []types.Fact) {
	if len(facts) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, f := range facts {
		fmt.Fprintf(b, "- [%s] %s", f.ID, f.Claim)
		if f.Attributes.Vendor != "" {
			fmt.Fprintf(b, " (vendor: %s)", f.Attributes.Vendor)
		}
		if f.Attributes.Category != "" {
			fmt.Fprintf(b, " (category: %s)", f.Attributes.Category)
		}
		b.WriteString("\n")
	}
}

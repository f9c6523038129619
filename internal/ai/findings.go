package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/oakmont/dealscope/internal/types"
)

// RawFinding is a candidate finding as returned by the capability,
// before the orchestrator's validation gate. Nothing in here is
// trusted: citations, the integration flag, and variant fields are all
// re-checked against the run's input before a Finding is created.
type RawFinding struct {
	Type               string   `json:"type"`
	Severity           string   `json:"severity"`
	Description        string   `json:"description"`
	Citations          []string `json:"citations"`
	OverlapID          string   `json:"overlap_id,omitempty"`
	IntegrationRelated bool     `json:"integration_related"`
	TargetAction       string   `json:"target_action,omitempty"`
	IntegrationOption  string   `json:"integration_option,omitempty"`
	Phase              string   `json:"phase,omitempty"`
	CostCategory       string   `json:"cost_category,omitempty"`
	BaseCost           float64  `json:"base_cost,omitempty"`
}

type findingsResponse struct {
	Findings []RawFinding `json:"findings"`
}

// GenerateFindings asks the capability for findings in one domain,
// given the combined fact set, the gaps, and the overlap context.
// Overlaps are enumerated verbatim (classification plus contributing
// fact IDs) so the capability can ground buyer-aware fields.
func (a *Analyst) GenerateFindings(ctx context.Context, domain types.Domain, facts []types.Fact, gaps []types.Gap, overlaps []types.OverlapCandidate) ([]RawFinding, error) {
	prompt := buildFindingsPrompt(domain, facts, gaps, overlaps)

	responseText, err := a.call(ctx, prompt, "generate_findings", a.model, 8000)
	if err != nil {
		return nil, fmt.Errorf("finding generation failed for domain %s: %w", domain, err)
	}

	parseResult := Parse[findingsResponse](responseText, "findings response")
	if !parseResult.Success {
		return nil, fmt.Errorf("failed to parse findings response: %s (response: %s)",
			parseResult.Error, truncateString(responseText, 200))
	}

	return parseResult.Data.Findings, nil
}

func buildFindingsPrompt(domain types.Domain, facts []types.Fact, gaps []types.Gap, overlaps []types.OverlapCandidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are a technology due-diligence analyst producing findings for the %q domain of an M&A transaction.

FACTS (entity-tagged; cite by ID):
`, domain)
	if len(facts) == 0 {
		b.WriteString("(none)\n")
	}
	for _, f := range facts {
		fmt.Fprintf(&b, "- [%s] (%s) %s\n", f.ID, f.Entity, f.Claim)
	}

	b.WriteString("\nINFORMATION GAPS:\n")
	if len(gaps) == 0 {
		b.WriteString("(none)\n")
	}
	for _, g := range gaps {
		fmt.Fprintf(&b, "- [%s] (%s) %s\n", g.ID, g.Entity, g.Description)
	}

	b.WriteString("\nDETECTED OVERLAPS between target and buyer estates:\n")
	if len(overlaps) == 0 {
		b.WriteString("(none)\n")
	}
	for _, o := range overlaps {
		fmt.Fprintf(&b, "- [%s] %s: target_fact=%q buyer_fact=%q rationale=%q\n",
			o.ID, o.Classification, o.TargetFactID, o.BuyerFactID, o.Rationale)
	}

	b.WriteString(`
TASK:
Produce findings of four kinds: "risk", "work_item", "recommendation", "strategic_consideration".

RULES:
1. Every finding MUST cite at least one fact ID from the list above. Findings without real citations will be rejected.
2. Set "overlap_id" only when the finding is grounded in one of the listed overlaps, and then set "integration_related" to true.
3. "integration_related" means resolving the finding requires reconciling target and buyer systems. Target-only remediations are not integration_related.
4. "target_action" describes what the target must do regardless of buyer; "integration_option" describes what changes when integrating with this specific buyer.
5. work_item findings additionally need "phase" (day-1 | day-100 | post-100), "cost_category" (one of: infrastructure, applications, organization, cybersecurity, network, identity-access), and a "base_cost" estimate in USD.
6. severity is one of: low, medium, high, critical.
7. Use gaps for open-question style findings (usually recommendations).

OUTPUT FORMAT (JSON only, no markdown):
{
  "findings": [
    {
      "type": "risk | work_item | recommendation | strategic_consideration",
      "severity": "low | medium | high | critical",
      "description": "specific, source-grounded finding text",
      "citations": ["fact-id", "..."],
      "overlap_id": "overlap id or omit",
      "integration_related": boolean,
      "target_action": "string or omit",
      "integration_option": "string or omit",
      "phase": "work items only",
      "cost_category": "work items only",
      "base_cost": 0
    }
  ]
}

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`)

	return b.String()
}

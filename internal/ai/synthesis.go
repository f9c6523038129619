package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/oakmont/dealscope/internal/types"
)

type synthesisResponse struct {
	Description string `json:"description"`
}

// SynthesizeMergedDescription asks the capability to merge the
// descriptions of findings being consolidated into one canonical text.
// This is a simple rewrite task and runs on the cheap model.
//
// The consolidation engine only uses this behind an explicit opt-in;
// its default merge policy is deterministic and offline.
func (a *Analyst) SynthesizeMergedDescription(ctx context.Context, findings []types.Finding) (string, error) {
	if len(findings) < 2 {
		return "", fmt.Errorf("synthesis needs at least two findings (got %d)", len(findings))
	}

	var b strings.Builder
	fmt.Fprintf(&b, `These %d due-diligence findings were identified as duplicates of each other and are being merged into one record:

`, len(findings))
	for i, f := range findings {
		fmt.Fprintf(&b, "[%d] (%s, %s) %s\n", i+1, f.Type, f.Severity, f.Description)
	}
	b.WriteString(`
Write a single merged description that preserves every concrete detail (systems, vendors, counts, figures) from the inputs without repeating itself. Do not add information that is not in the inputs.

OUTPUT FORMAT (JSON only, no markdown):
{"description": "merged text"}

IMPORTANT: Respond with ONLY raw JSON. Do NOT wrap it in markdown code fences.`)

	responseText, err := a.call(ctx, b.String(), "merge_synthesis", GetSimpleTaskModel(), 1000)
	if err != nil {
		return "", fmt.Errorf("merge synthesis failed: %w", err)
	}

	parseResult := Parse[synthesisResponse](responseText, "merge synthesis response")
	if !parseResult.Success {
		return "", fmt.Errorf("failed to parse merge synthesis response: %s", parseResult.Error)
	}
	if strings.TrimSpace(parseResult.Data.Description) == "" {
		return "", fmt.Errorf("merge synthesis returned an empty description")
	}

	return parseResult.Data.Description, nil
}

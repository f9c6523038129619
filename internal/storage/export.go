package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/oakmont/dealscope/internal/types"
)

// FactExport is the JSON document produced for the evidence base.
type FactExport struct {
	RunID string       `json:"run_id"`
	Facts []types.Fact `json:"facts"`
	Gaps  []types.Gap  `json:"gaps,omitempty"`
}

// OverlapExport keys the run's overlap candidates by domain.
type OverlapExport struct {
	RunID    string                                     `json:"run_id"`
	Overlaps map[types.Domain][]types.OverlapCandidate `json:"overlaps"`
}

// FindingExport partitions the run's findings by variant so report
// templates can consume each section directly.
type FindingExport struct {
	RunID                   string          `json:"run_id"`
	Risks                   []types.Finding `json:"risks"`
	WorkItems               []types.Finding `json:"work_items"`
	Recommendations         []types.Finding `json:"recommendations"`
	StrategicConsiderations []types.Finding `json:"strategic_considerations"`
}

// ExportFacts writes the run's evidence base as JSON.
func ExportFacts(ctx context.Context, st Storage, runID string, w io.Writer) error {
	facts, err := st.GetFacts(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load facts for export: %w", err)
	}
	gaps, err := st.GetGaps(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load gaps for export: %w", err)
	}
	return writeJSON(w, FactExport{RunID: runID, Facts: facts, Gaps: gaps})
}

// ExportOverlaps writes the run's overlap candidates as JSON, keyed by
// domain.
func ExportOverlaps(ctx context.Context, st Storage, runID string, w io.Writer) error {
	overlaps, err := st.GetOverlaps(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load overlaps for export: %w", err)
	}
	byDomain := make(map[types.Domain][]types.OverlapCandidate)
	for _, ov := range overlaps {
		byDomain[ov.Domain] = append(byDomain[ov.Domain], ov)
	}
	return writeJSON(w, OverlapExport{RunID: runID, Overlaps: byDomain})
}

// ExportFindings writes the run's findings as JSON, partitioned by
// variant. Every exported finding carries its citations; a finding
// without citations would have been rejected at the validation gate.
func ExportFindings(ctx context.Context, st Storage, runID string, w io.Writer) error {
	findings, err := st.GetFindings(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load findings for export: %w", err)
	}
	out := FindingExport{
		RunID:                   runID,
		Risks:                   []types.Finding{},
		WorkItems:               []types.Finding{},
		Recommendations:         []types.Finding{},
		StrategicConsiderations: []types.Finding{},
	}
	for _, f := range findings {
		switch f.Type {
		case types.FindingRisk:
			out.Risks = append(out.Risks, f)
		case types.FindingWorkItem:
			out.WorkItems = append(out.WorkItems, f)
		case types.FindingRecommendation:
			out.Recommendations = append(out.Recommendations, f)
		case types.FindingStrategicConsideration:
			out.StrategicConsiderations = append(out.StrategicConsiderations, f)
		default:
			return fmt.Errorf("finding %s has unknown type %q", f.ID, f.Type)
		}
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

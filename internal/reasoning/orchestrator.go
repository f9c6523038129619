// Package reasoning turns one domain's facts, gaps, and overlaps into
// validated findings.
//
// The capability's raw output is never trusted: every candidate
// finding passes a validation gate that checks its citations against
// the domain's real input set, and the buyer-awareness flag is
// recomputed structurally rather than taken from the response.
package reasoning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oakmont/dealscope/internal/ai"
	"github.com/oakmont/dealscope/internal/types"
)

// Generator produces candidate findings for one domain. Implemented
// by ai.Analyst; tests substitute fakes.
type Generator interface {
	GenerateFindings(ctx context.Context, domain types.Domain, facts []types.Fact, gaps []types.Gap, overlaps []types.OverlapCandidate) ([]ai.RawFinding, error)
}

// Result is one domain's reasoning output. Rejected counts are part of
// the contract: downstream consumers audit how much capability output
// failed the gate, so rejections are recorded, never silently dropped.
type Result struct {
	Findings []types.Finding
	Rejected int
}

// Orchestrator runs the reasoning stage for one domain at a time.
// Domains are independent in both success and failure paths; a
// capability failure here is returned to the caller, which degrades
// that one domain to zero findings.
type Orchestrator struct {
	gen Generator
}

// New creates a reasoning orchestrator backed by the given generator.
func New(gen Generator) (*Orchestrator, error) {
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	return &Orchestrator{gen: gen}, nil
}

// Analyze produces the domain's findings from the combined fact set
// (target and buyer), the gap set, and the overlap candidates.
func (o *Orchestrator) Analyze(ctx context.Context, domain types.Domain, facts []types.Fact, gaps []types.Gap, overlaps []types.OverlapCandidate) (*Result, error) {
	if !domain.IsValid() {
		return nil, fmt.Errorf("invalid domain: %s", domain)
	}

	knownFacts := make(map[string]types.Entity, len(facts))
	for _, f := range facts {
		knownFacts[f.ID] = f.Entity
	}
	knownOverlaps := make(map[string]bool, len(overlaps))
	for _, ov := range overlaps {
		knownOverlaps[ov.ID] = true
	}

	raw, err := o.gen.GenerateFindings(ctx, domain, facts, gaps, overlaps)
	if err != nil {
		return nil, fmt.Errorf("reasoning failed for domain %s: %w", domain, err)
	}

	result := &Result{}
	counters := map[types.FindingType]int{}

	for i, rf := range raw {
		finding, reason := o.validate(domain, rf, knownFacts, knownOverlaps)
		if reason != "" {
			result.Rejected++
			slog.Warn("rejected malformed finding from capability",
				"domain", domain, "index", i, "reason", reason)
			continue
		}

		counters[finding.Type]++
		finding.ID = fmt.Sprintf("%s-%s-%d", domain, shortType(finding.Type), counters[finding.Type])
		finding.CreatedAt = time.Now().UTC()
		if err := finding.Validate(); err != nil {
			counters[finding.Type]--
			result.Rejected++
			slog.Warn("rejected malformed finding from capability",
				"domain", domain, "index", i, "reason", err.Error())
			continue
		}
		result.Findings = append(result.Findings, *finding)
	}

	if result.Rejected > 0 {
		slog.Warn("reasoning stage rejected findings", "domain", domain, "rejected", result.Rejected)
	}

	return result, nil
}

// validate applies the gate to one raw finding. It returns the built
// finding, or a non-empty rejection reason.
func (o *Orchestrator) validate(domain types.Domain, rf ai.RawFinding, knownFacts map[string]types.Entity, knownOverlaps map[string]bool) (*types.Finding, string) {
	ftype := types.FindingType(rf.Type)
	if !ftype.IsValid() {
		return nil, fmt.Sprintf("unknown finding type %q", rf.Type)
	}

	if len(rf.Citations) == 0 {
		return nil, "no citations"
	}
	citesBuyer := false
	for _, c := range rf.Citations {
		entity, ok := knownFacts[c]
		if !ok {
			return nil, fmt.Sprintf("citation %q does not resolve to a known fact", c)
		}
		if entity == types.EntityBuyer {
			citesBuyer = true
		}
	}

	if rf.OverlapID != "" && !knownOverlaps[rf.OverlapID] {
		return nil, fmt.Sprintf("overlap reference %q does not resolve to a known overlap", rf.OverlapID)
	}

	severity := types.Severity(rf.Severity)
	if rf.Severity == "" {
		severity = types.SeverityMedium
	} else if !severity.IsValid() {
		return nil, fmt.Sprintf("unknown severity %q", rf.Severity)
	}

	f := &types.Finding{
		Type:        ftype,
		Domain:      domain,
		Severity:    severity,
		Description: rf.Description,
		Citations:   append([]string(nil), rf.Citations...),
		OverlapID:   rf.OverlapID,
		// Structural invariant, not trusted from the capability:
		// a finding is integration-related exactly when its evidence
		// involves the buyer (a buyer fact citation or an overlap).
		IntegrationRelated: citesBuyer || rf.OverlapID != "",
		TargetAction:       rf.TargetAction,
		IntegrationOption:  rf.IntegrationOption,
	}
	if f.Description == "" {
		return nil, "empty description"
	}

	if ftype == types.FindingWorkItem {
		phase := types.Phase(rf.Phase)
		if !phase.IsValid() {
			return nil, fmt.Sprintf("work item with invalid phase %q", rf.Phase)
		}
		category := types.Domain(rf.CostCategory)
		if rf.CostCategory == "" {
			category = domain
		} else if !category.IsValid() {
			return nil, fmt.Sprintf("work item with invalid cost category %q", rf.CostCategory)
		}
		if rf.BaseCost < 0 {
			return nil, fmt.Sprintf("work item with negative base cost %.2f", rf.BaseCost)
		}
		f.Phase = phase
		f.CostCategory = category
		f.BaseCost = rf.BaseCost
	}

	return f, ""
}

func shortType(t types.FindingType) string {
	switch t {
	case types.FindingRisk:
		return "risk"
	case types.FindingWorkItem:
		return "wi"
	case types.FindingRecommendation:
		return "rec"
	case types.FindingStrategicConsideration:
		return "strat"
	}
	return "finding"
}

// Package consolidate deduplicates the findings produced
// independently per domain.
//
// Findings are clustered by (variant, domain, citation-set overlap)
// and merged into canonical records that retain the union of all
// citations. Merging is deterministic and idempotent: consolidating an
// already-consolidated set returns it unchanged. Cross-variant merging
// never happens: a risk and a work item stay separate even when they
// cite the same facts.
package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/oakmont/dealscope/internal/types"
)

// Synthesizer optionally produces a merged description via the
// reasoning capability. Implemented by ai.Analyst.
type Synthesizer interface {
	SynthesizeMergedDescription(ctx context.Context, findings []types.Finding) (string, error)
}

// Consolidator merges near-duplicate findings across one run.
type Consolidator struct {
	cfg   Config
	synth Synthesizer // nil: deterministic longest-description policy
}

// New creates a consolidator with the deterministic merge policy.
func New(cfg Config) (*Consolidator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid consolidate config: %w", err)
	}
	return &Consolidator{cfg: cfg}, nil
}

// WithSynthesizer enables capability-backed description synthesis for
// merged findings. Synthesis failures fall back to the deterministic
// policy, so consolidation itself never fails on a capability error.
func (c *Consolidator) WithSynthesizer(s Synthesizer) *Consolidator {
	c.synth = s
	return c
}

// Consolidate returns the deduplicated finding set. The input is not
// mutated; merged inputs survive inside the canonical record's
// MergedFrom list.
func (c *Consolidator) Consolidate(ctx context.Context, findings []types.Finding) ([]types.Finding, error) {
	for i := range findings {
		if err := findings[i].Validate(); err != nil {
			return nil, fmt.Errorf("finding %s is invalid: %w", findings[i].ID, err)
		}
	}

	// Merging can enlarge citation sets, which can make previously
	// distant findings mergeable. Iterate to a fixpoint so a second
	// consolidation pass has nothing left to do.
	current := append([]types.Finding(nil), findings...)
	for {
		next, merged := c.singlePass(ctx, current)
		if !merged {
			sortFindings(next)
			return next, nil
		}
		current = next
	}
}

// singlePass clusters and merges once, reporting whether any merge
// happened.
func (c *Consolidator) singlePass(ctx context.Context, findings []types.Finding) ([]types.Finding, bool) {
	type groupKey struct {
		ftype  types.FindingType
		domain types.Domain
	}
	groups := make(map[groupKey][]types.Finding)
	for _, f := range findings {
		k := groupKey{f.Type, f.Domain}
		groups[k] = append(groups[k], f)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].domain != keys[j].domain {
			return keys[i].domain < keys[j].domain
		}
		return keys[i].ftype < keys[j].ftype
	})

	var out []types.Finding
	anyMerged := false
	for _, k := range keys {
		members := groups[k]
		// Deterministic seeding: clusters grow in finding-ID order.
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		var clusters [][]types.Finding
		var unions []map[string]bool
		for _, f := range members {
			cits := citationSet(f)
			joined := false
			for ci := range clusters {
				if jaccard(cits, unions[ci]) >= c.cfg.OverlapThreshold {
					clusters[ci] = append(clusters[ci], f)
					for id := range cits {
						unions[ci][id] = true
					}
					joined = true
					break
				}
			}
			if !joined {
				clusters = append(clusters, []types.Finding{f})
				unions = append(unions, cits)
			}
		}

		for _, cluster := range clusters {
			if len(cluster) == 1 {
				out = append(out, cluster[0])
				continue
			}
			anyMerged = true
			out = append(out, c.merge(ctx, cluster))
		}
	}
	return out, anyMerged
}

// merge folds a cluster into one canonical finding: union of
// citations and overlap refs, highest severity, longest description
// (or synthesized), earliest phase for work items.
func (c *Consolidator) merge(ctx context.Context, cluster []types.Finding) types.Finding {
	canonical := cluster[0] // cluster is in ID order; smallest ID wins

	mergedFrom := map[string]bool{}
	citationOrder := []string{}
	citationSeen := map[string]bool{}
	for _, f := range cluster {
		mergedFrom[f.ID] = true
		for _, id := range f.MergedFrom {
			mergedFrom[id] = true
		}
		for _, cit := range f.Citations {
			if !citationSeen[cit] {
				citationSeen[cit] = true
				citationOrder = append(citationOrder, cit)
			}
		}
		if f.Severity.Rank() > canonical.Severity.Rank() {
			canonical.Severity = f.Severity
		}
		if canonical.OverlapID == "" {
			canonical.OverlapID = f.OverlapID
		}
		if f.IntegrationRelated {
			canonical.IntegrationRelated = true
		}
		if len(f.TargetAction) > len(canonical.TargetAction) {
			canonical.TargetAction = f.TargetAction
		}
		if len(f.IntegrationOption) > len(canonical.IntegrationOption) {
			canonical.IntegrationOption = f.IntegrationOption
		}
		if f.CreatedAt.Before(canonical.CreatedAt) && !f.CreatedAt.IsZero() {
			canonical.CreatedAt = f.CreatedAt
		}
		if canonical.Type == types.FindingWorkItem {
			if phaseRank(f.Phase) < phaseRank(canonical.Phase) {
				canonical.Phase = f.Phase
			}
			if f.BaseCost > canonical.BaseCost {
				canonical.BaseCost = f.BaseCost
			}
		}
	}
	if canonical.OverlapID != "" {
		canonical.IntegrationRelated = true
	}

	canonical.Citations = citationOrder
	canonical.Description = mergedDescription(cluster)
	if c.synth != nil {
		if text, err := c.synth.SynthesizeMergedDescription(ctx, cluster); err == nil {
			canonical.Description = text
		} else {
			slog.Warn("merge synthesis failed, using longest description",
				"finding", canonical.ID, "error", err)
		}
	}

	ids := make([]string, 0, len(mergedFrom))
	for id := range mergedFrom {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	canonical.MergedFrom = ids

	return canonical
}

// mergedDescription picks the longest input text; ties break to the
// lexicographically smaller string so the choice is stable.
func mergedDescription(cluster []types.Finding) string {
	best := cluster[0].Description
	for _, f := range cluster[1:] {
		if len(f.Description) > len(best) ||
			(len(f.Description) == len(best) && f.Description < best) {
			best = f.Description
		}
	}
	return best
}

func citationSet(f types.Finding) map[string]bool {
	set := make(map[string]bool, len(f.Citations))
	for _, c := range f.Citations {
		set[c] = true
	}
	return set
}

// jaccard computes |a∩b| / |a∪b| for two citation sets.
func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for id := range a {
		if b[id] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func phaseRank(p types.Phase) int {
	switch p {
	case types.PhaseDay1:
		return 0
	case types.PhaseDay100:
		return 1
	case types.PhasePost100:
		return 2
	}
	return 3
}

func sortFindings(findings []types.Finding) {
	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Domain != findings[j].Domain {
			return findings[i].Domain < findings[j].Domain
		}
		if findings[i].Type != findings[j].Type {
			return findings[i].Type < findings[j].Type
		}
		return findings[i].ID < findings[j].ID
	})
}

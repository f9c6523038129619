// Package overlap detects relationships between the target's and the
// buyer's IT estates within a single analytical domain.
//
// Facts are first grouped by a coarse key (category, else vendor) so
// the comparison stays bounded instead of exhaustively pairing every
// target fact with every buyer fact. Each group is compared in one
// batched capability request.
package overlap

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/oakmont/dealscope/internal/ai"
	"github.com/oakmont/dealscope/internal/types"
)

// Comparer issues one batched comparison request for a group of
// target and buyer facts. Implemented by ai.Analyst; tests substitute
// fakes.
type Comparer interface {
	CompareFactGroups(ctx context.Context, domain types.Domain, targetFacts, buyerFacts []types.Fact) ([]ai.PairClassification, error)
}

// Config bounds the batched comparison requests.
type Config struct {
	// MaxFactsPerSide caps how many facts of one entity go into a
	// single comparison request. Groups larger than this are chunked.
	MaxFactsPerSide int
}

// DefaultConfig returns the default overlap engine configuration
func DefaultConfig() Config {
	return Config{MaxFactsPerSide: 20}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.MaxFactsPerSide <= 0 {
		return fmt.Errorf("max_facts_per_side must be positive (got %d)", c.MaxFactsPerSide)
	}
	if c.MaxFactsPerSide > 100 {
		return fmt.Errorf("max_facts_per_side too large (got %d, max 100)", c.MaxFactsPerSide)
	}
	return nil
}

// Engine produces OverlapCandidates for one domain at a time.
type Engine struct {
	comparer Comparer
	cfg      Config
}

// New creates an overlap engine backed by the given comparer.
func New(comparer Comparer, cfg Config) (*Engine, error) {
	if comparer == nil {
		return nil, fmt.Errorf("comparer is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid overlap config: %w", err)
	}
	return &Engine{comparer: comparer, cfg: cfg}, nil
}

// Detect compares the domain's facts across entities and returns the
// classified overlap candidates.
//
// An empty partition on either side is a valid input: the engine still
// runs and may legitimately return zero candidates. An error return
// means the capability failed for this domain; the caller degrades the
// domain to zero candidates and keeps the other domains running.
func (e *Engine) Detect(ctx context.Context, domain types.Domain, facts []types.Fact) ([]types.OverlapCandidate, error) {
	if !domain.IsValid() {
		return nil, fmt.Errorf("invalid domain: %s", domain)
	}

	var targetFacts, buyerFacts []types.Fact
	known := make(map[string]bool, len(facts))
	for _, f := range facts {
		if f.Domain != domain {
			return nil, fmt.Errorf("fact %s belongs to domain %s, not %s", f.ID, f.Domain, domain)
		}
		known[f.ID] = true
		switch f.Entity {
		case types.EntityTarget:
			targetFacts = append(targetFacts, f)
		case types.EntityBuyer:
			buyerFacts = append(buyerFacts, f)
		}
	}
	if len(targetFacts) == 0 && len(buyerFacts) == 0 {
		return nil, nil
	}

	groups := groupFacts(targetFacts, buyerFacts)

	var candidates []types.OverlapCandidate
	seen := make(map[string]bool) // exact fact pair -> already classified
	rejected := 0

	for _, g := range groups {
		pairs, err := e.compareGroup(ctx, domain, g)
		if err != nil {
			return nil, err
		}
		for _, pair := range pairs {
			// Citation integrity: every candidate must reference facts
			// from this domain's input set.
			if (pair.TargetFactID != "" && !known[pair.TargetFactID]) ||
				(pair.BuyerFactID != "" && !known[pair.BuyerFactID]) {
				rejected++
				slog.Warn("overlap pair references unknown fact, rejected",
					"domain", domain,
					"target_fact", pair.TargetFactID,
					"buyer_fact", pair.BuyerFactID)
				continue
			}

			// Every candidate carries exactly one of the four labels,
			// whatever comparer is wired in.
			class := types.OverlapClass(pair.Classification)
			if !class.IsValid() {
				rejected++
				slog.Warn("overlap pair carries unknown classification, rejected",
					"domain", domain,
					"classification", pair.Classification)
				continue
			}

			// The capability is not deterministic across batches: if
			// the same pair comes back twice with different labels,
			// the first classification wins.
			key := pair.TargetFactID + "|" + pair.BuyerFactID
			if seen[key] {
				continue
			}
			seen[key] = true

			candidates = append(candidates, types.OverlapCandidate{
				ID:             fmt.Sprintf("%s-ov-%d", domain, len(candidates)+1),
				Domain:         domain,
				Classification: class,
				TargetFactID:   pair.TargetFactID,
				BuyerFactID:    pair.BuyerFactID,
				Rationale:      pair.Rationale,
			})
		}
	}

	if rejected > 0 {
		slog.Warn("rejected invalid overlap pairs",
			"domain", domain, "rejected", rejected)
	}

	return candidates, nil
}

// compareGroup issues the batched requests for one group, chunking
// each side at MaxFactsPerSide.
func (e *Engine) compareGroup(ctx context.Context, domain types.Domain, g factGroup) ([]ai.PairClassification, error) {
	targetChunks := chunkFacts(g.target, e.cfg.MaxFactsPerSide)
	buyerChunks := chunkFacts(g.buyer, e.cfg.MaxFactsPerSide)

	var all []ai.PairClassification
	for _, tc := range targetChunks {
		for _, bc := range buyerChunks {
			pairs, err := e.comparer.CompareFactGroups(ctx, domain, tc, bc)
			if err != nil {
				return nil, fmt.Errorf("comparison failed for group %q: %w", g.key, err)
			}
			all = append(all, pairs...)
		}
	}
	return all, nil
}

type factGroup struct {
	key    string
	target []types.Fact
	buyer  []types.Fact
}

// groupFacts buckets facts by normalized category, falling back to
// vendor, falling back to a single residual bucket. Category comes
// first: competing products from different vendors (the
// platform_mismatch case) share a category, not a vendor. The residual
// bucket is compared too, not discarded.
func groupFacts(targetFacts, buyerFacts []types.Fact) []factGroup {
	byKey := make(map[string]*factGroup)
	add := func(f types.Fact, isTarget bool) {
		key := coarseKey(f)
		g, ok := byKey[key]
		if !ok {
			g = &factGroup{key: key}
			byKey[key] = g
		}
		if isTarget {
			g.target = append(g.target, f)
		} else {
			g.buyer = append(g.buyer, f)
		}
	}
	for _, f := range targetFacts {
		add(f, true)
	}
	for _, f := range buyerFacts {
		add(f, false)
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]factGroup, 0, len(byKey))
	for _, k := range keys {
		groups = append(groups, *byKey[k])
	}
	return groups
}

func coarseKey(f types.Fact) string {
	if c := strings.ToLower(strings.TrimSpace(f.Attributes.Category)); c != "" {
		return "category:" + c
	}
	if v := strings.ToLower(strings.TrimSpace(f.Attributes.Vendor)); v != "" {
		return "vendor:" + v
	}
	return "uncategorized"
}

func chunkFacts(facts []types.Fact, size int) [][]types.Fact {
	if len(facts) == 0 {
		// A one-sided group still gets compared (capability_gap), so
		// emit a single empty chunk rather than none.
		return [][]types.Fact{nil}
	}
	var chunks [][]types.Fact
	for start := 0; start < len(facts); start += size {
		end := start + size
		if end > len(facts) {
			end = len(facts)
		}
		chunks = append(chunks, facts[start:end])
	}
	return chunks
}

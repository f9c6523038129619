// Package pipeline drives one analysis run end to end: per-domain
// overlap detection and reasoning in parallel, then consolidation and
// costing over the combined output.
//
// Domains are isolated. A capability failure in one domain degrades
// that domain (zero overlaps, or zero findings) and is recorded in the
// domain's status; the other five domains keep running.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/oakmont/dealscope/internal/reasoning"
	"github.com/oakmont/dealscope/internal/types"
)

// OverlapDetector runs the overlap stage for one domain. Implemented
// by overlap.Engine.
type OverlapDetector interface {
	Detect(ctx context.Context, domain types.Domain, facts []types.Fact) ([]types.OverlapCandidate, error)
}

// Reasoner runs the reasoning stage for one domain. Implemented by
// reasoning.Orchestrator.
type Reasoner interface {
	Analyze(ctx context.Context, domain types.Domain, facts []types.Fact, gaps []types.Gap, overlaps []types.OverlapCandidate) (*reasoning.Result, error)
}

// FindingConsolidator deduplicates the combined finding set.
// Implemented by consolidate.Consolidator.
type FindingConsolidator interface {
	Consolidate(ctx context.Context, findings []types.Finding) ([]types.Finding, error)
}

// CostModel prices the consolidated work items and the
// transitional-service agreement. Implemented by cost.Model.
type CostModel interface {
	EstimateAll(findings []types.Finding, dealType types.DealType) ([]types.CostEstimate, error)
	TSA(dealType types.DealType, inventory *types.InventorySummary, overlaps []types.OverlapCandidate, durationMonths int) (*types.TSAEstimate, error)
}

// Config tunes run execution.
type Config struct {
	// MaxConcurrentDomains caps how many domains run their overlap and
	// reasoning stages at once.
	MaxConcurrentDomains int

	// TSADurationMonths is the assumed transitional-service duration
	// for carve-outs.
	TSADurationMonths int
}

// DefaultConfig returns the default pipeline configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrentDomains: 3,
		TSADurationMonths:    12,
	}
}

// Validate checks if the configuration has valid values
func (c Config) Validate() error {
	if c.MaxConcurrentDomains <= 0 {
		return fmt.Errorf("max_concurrent_domains must be positive (got %d)", c.MaxConcurrentDomains)
	}
	if c.TSADurationMonths <= 0 {
		return fmt.Errorf("tsa_duration_months must be positive (got %d)", c.TSADurationMonths)
	}
	return nil
}

// Input is everything one run needs. Facts and gaps span all domains
// and both entities; the controller partitions them.
type Input struct {
	DealID    string
	DealType  types.DealType
	Facts     []types.Fact
	Gaps      []types.Gap
	Inventory *types.InventorySummary
}

// Result is the complete output of one run. A degraded or cancelled
// run still returns a Result; Run.State and the per-domain statuses
// say what actually happened.
type Result struct {
	Run           types.Run
	DomainStatus  []types.DomainStatus
	Overlaps      []types.OverlapCandidate
	Findings      []types.Finding
	CostEstimates []types.CostEstimate
	TSA           *types.TSAEstimate
}

// Controller wires the four stages together.
type Controller struct {
	detector     OverlapDetector
	reasoner     Reasoner
	consolidator FindingConsolidator
	costs        CostModel
	cfg          Config
}

// New creates a run controller. All four collaborators are required.
func New(detector OverlapDetector, reasoner Reasoner, consolidator FindingConsolidator, costs CostModel, cfg Config) (*Controller, error) {
	if detector == nil || reasoner == nil || consolidator == nil || costs == nil {
		return nil, fmt.Errorf("all pipeline stages are required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}
	return &Controller{
		detector:     detector,
		reasoner:     reasoner,
		consolidator: consolidator,
		costs:        costs,
		cfg:          cfg,
	}, nil
}

// domainOutcome collects one domain's stage output before the barrier.
type domainOutcome struct {
	status   types.DomainStatus
	overlaps []types.OverlapCandidate
	findings []types.Finding
}

// Execute runs the full pipeline. Cancellation mid-run returns the
// partial result with Run.State set to incomplete; consolidation and
// costing only run over domains that finished.
func (c *Controller) Execute(ctx context.Context, in Input) (*Result, error) {
	if !in.DealType.IsValid() {
		return nil, fmt.Errorf("unknown deal type %q", in.DealType)
	}
	for i := range in.Facts {
		if err := in.Facts[i].Validate(); err != nil {
			return nil, fmt.Errorf("fact %s is invalid: %w", in.Facts[i].ID, err)
		}
	}
	for i := range in.Gaps {
		if err := in.Gaps[i].Validate(); err != nil {
			return nil, fmt.Errorf("gap %s is invalid: %w", in.Gaps[i].ID, err)
		}
	}

	run := types.Run{
		ID:        uuid.New().String(),
		DealID:    in.DealID,
		DealType:  in.DealType,
		State:     types.RunIncomplete,
		StartedAt: time.Now().UTC(),
	}
	slog.Info("starting analysis run",
		"run", run.ID, "deal", in.DealID, "deal_type", in.DealType,
		"facts", len(in.Facts), "gaps", len(in.Gaps))

	factsByDomain := make(map[types.Domain][]types.Fact)
	for _, f := range in.Facts {
		factsByDomain[f.Domain] = append(factsByDomain[f.Domain], f)
	}
	gapsByDomain := make(map[types.Domain][]types.Gap)
	for _, g := range in.Gaps {
		gapsByDomain[g.Domain] = append(gapsByDomain[g.Domain], g)
	}

	var mu sync.Mutex
	outcomes := make(map[types.Domain]domainOutcome)

	grp, grpCtx := errgroup.WithContext(ctx)
	grp.SetLimit(c.cfg.MaxConcurrentDomains)
	for _, domain := range types.AllDomains() {
		grp.Go(func() error {
			if grpCtx.Err() != nil {
				return grpCtx.Err()
			}
			out := c.runDomain(grpCtx, domain, factsByDomain[domain], gapsByDomain[domain])
			mu.Lock()
			outcomes[domain] = out
			mu.Unlock()
			return grpCtx.Err()
		})
	}
	waitErr := grp.Wait()

	result := &Result{Run: run}
	for _, domain := range types.AllDomains() {
		out, ok := outcomes[domain]
		if !ok {
			// Cancelled before this domain started.
			out = domainOutcome{status: types.DomainStatus{
				Domain: domain,
				State:  types.DomainFailed,
				Error:  "run cancelled before domain started",
			}}
		}
		result.DomainStatus = append(result.DomainStatus, out.status)
		result.Overlaps = append(result.Overlaps, out.overlaps...)
		result.Findings = append(result.Findings, out.findings...)
	}

	if waitErr != nil {
		result.Run.State = types.RunIncomplete
		result.Run.FinishedAt = time.Now().UTC()
		slog.Warn("run cancelled", "run", run.ID, "error", waitErr)
		return result, nil
	}

	// Barrier: every domain has reported. Consolidation and costing see
	// the complete (possibly degraded) finding set.
	consolidated, err := c.consolidator.Consolidate(ctx, result.Findings)
	if err != nil {
		return nil, fmt.Errorf("consolidation failed: %w", err)
	}
	result.Findings = consolidated

	estimates, err := c.costs.EstimateAll(result.Findings, in.DealType)
	if err != nil {
		return nil, fmt.Errorf("costing failed: %w", err)
	}
	result.CostEstimates = estimates

	tsa, err := c.costs.TSA(in.DealType, in.Inventory, result.Overlaps, c.cfg.TSADurationMonths)
	if err != nil {
		return nil, fmt.Errorf("transitional-service estimate failed: %w", err)
	}
	result.TSA = tsa

	result.Run.State = types.RunCompleted
	result.Run.FinishedAt = time.Now().UTC()
	slog.Info("run completed",
		"run", run.ID,
		"overlaps", len(result.Overlaps),
		"findings", len(result.Findings),
		"work_items_priced", len(result.CostEstimates))
	return result, nil
}

// runDomain executes the two per-domain stages. It never returns an
// error: failures are folded into the domain's status so one domain
// cannot take down its siblings.
func (c *Controller) runDomain(ctx context.Context, domain types.Domain, facts []types.Fact, gaps []types.Gap) domainOutcome {
	status := types.DomainStatus{Domain: domain, State: types.DomainCompleted}

	overlaps, err := c.detector.Detect(ctx, domain, facts)
	if err != nil {
		// Degrade, don't fail: reasoning still runs on facts and gaps
		// alone, it just cannot produce overlap-linked findings.
		slog.Warn("overlap detection failed, continuing without overlaps",
			"domain", domain, "error", err)
		status.Error = fmt.Sprintf("overlap detection failed: %v", err)
		overlaps = nil
	}
	status.OverlapCount = len(overlaps)

	res, err := c.reasoner.Analyze(ctx, domain, facts, gaps, overlaps)
	if err != nil {
		slog.Warn("reasoning failed, domain degraded to zero findings",
			"domain", domain, "error", err)
		status.State = types.DomainFailed
		status.Error = fmt.Sprintf("reasoning failed: %v", err)
		return domainOutcome{status: status, overlaps: overlaps}
	}
	status.FindingCount = len(res.Findings)
	status.RejectedCount = res.Rejected

	return domainOutcome{status: status, overlaps: overlaps, findings: res.Findings}
}

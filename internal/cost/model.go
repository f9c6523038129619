// Package cost prices work items under the legal structure of the
// deal and computes the bounded transitional-service cost for
// carve-outs.
//
// Unknown deal types or categories are hard errors, surfaced verbatim
// to the caller: silently defaulting a multiplier would corrupt the
// financial output this product exists to produce.
package cost

import (
	"errors"
	"fmt"
	"math"

	"github.com/oakmont/dealscope/internal/types"
)

// Configuration errors are fatal for the affected computation, never
// recovered into a default.
var (
	ErrUnknownDealType = errors.New("unknown deal type")
	ErrUnknownCategory = errors.New("unknown cost category")
)

// multipliers is the fixed lookup table keyed by (deal type, category).
//
// Acquisition is always 1.0: the buyer absorbs the estate as-is.
// Carve-out and divestiture sit in 1.5–3.0, and for every category the
// carve-out multiplier is at most the divestiture one: a clean sale
// requires more extraction work than a carve-out where the parent
// keeps running shared services.
var multipliers = map[types.DealType]map[types.Domain]float64{
	types.DealAcquisition: {
		types.DomainInfrastructure: 1.0,
		types.DomainApplications:   1.0,
		types.DomainOrganization:   1.0,
		types.DomainCybersecurity:  1.0,
		types.DomainNetwork:        1.0,
		types.DomainIdentityAccess: 1.0,
	},
	types.DealCarveOut: {
		types.DomainInfrastructure: 2.0,
		types.DomainApplications:   1.8,
		types.DomainOrganization:   1.5,
		types.DomainCybersecurity:  1.7,
		types.DomainNetwork:        1.9,
		types.DomainIdentityAccess: 2.2,
	},
	types.DealDivestiture: {
		types.DomainInfrastructure: 2.5,
		types.DomainApplications:   2.2,
		types.DomainOrganization:   1.8,
		types.DomainCybersecurity:  2.0,
		types.DomainNetwork:        2.4,
		types.DomainIdentityAccess: 2.8,
	},
}

// Model computes cost estimates for one deal.
type Model struct {
	cfg Config
}

// NewModel creates a cost model with the given rate card.
func NewModel(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cost config: %w", err)
	}
	return &Model{cfg: cfg}, nil
}

// Multiplier looks up the fixed multiplier for a deal type and cost
// category.
func (m *Model) Multiplier(dealType types.DealType, category types.Domain) (float64, error) {
	byCategory, ok := multipliers[dealType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDealType, dealType)
	}
	mult, ok := byCategory[category]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return mult, nil
}

// Estimate prices one work item under the given deal type.
func (m *Model) Estimate(workItem types.Finding, dealType types.DealType) (*types.CostEstimate, error) {
	if workItem.Type != types.FindingWorkItem {
		return nil, fmt.Errorf("cost estimates only apply to work items (got %s)", workItem.Type)
	}
	mult, err := m.Multiplier(dealType, workItem.CostCategory)
	if err != nil {
		return nil, err
	}
	return &types.CostEstimate{
		WorkItemID:   workItem.ID,
		DealType:     dealType,
		Category:     workItem.CostCategory,
		BaseCost:     workItem.BaseCost,
		Multiplier:   mult,
		AdjustedCost: workItem.BaseCost * mult,
		Assumptions:  fmt.Sprintf("base estimate × %.2f (%s, %s)", mult, dealType, workItem.CostCategory),
	}, nil
}

// EstimateAll prices every work item in the finding set. Non-work-item
// findings are skipped; a lookup failure aborts the whole computation
// so partial financial output never escapes.
func (m *Model) EstimateAll(findings []types.Finding, dealType types.DealType) ([]types.CostEstimate, error) {
	var estimates []types.CostEstimate
	for _, f := range findings {
		if f.Type != types.FindingWorkItem {
			continue
		}
		est, err := m.Estimate(f, dealType)
		if err != nil {
			return nil, fmt.Errorf("pricing work item %s: %w", f.ID, err)
		}
		estimates = append(estimates, *est)
	}
	return estimates, nil
}

// TSA computes the transitional-service estimate for one deal.
//
// Only carve-outs incur transitional services: the target temporarily
// keeps depending on the parent's shared systems. Acquisitions and
// divestitures always come back with a zero estimate. For carve-outs,
// shared items are counted from the inventory summary plus overlaps
// classified platform_alignment or capability_overlap (systems the two
// estates currently share or duplicate), the monthly figure is clamped
// to [floor, ceiling], and multiplied by the duration.
func (m *Model) TSA(dealType types.DealType, inventory *types.InventorySummary, overlaps []types.OverlapCandidate, durationMonths int) (*types.TSAEstimate, error) {
	if !dealType.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDealType, dealType)
	}
	if dealType != types.DealCarveOut {
		return &types.TSAEstimate{
			DealType:       dealType,
			DurationMonths: durationMonths,
			Assumptions:    "transitional services apply to carve-outs only",
		}, nil
	}
	if durationMonths <= 0 {
		return nil, fmt.Errorf("duration must be positive (got %d months)", durationMonths)
	}

	sharedApps := 0
	sharedInfra := 0
	if inventory != nil {
		sharedApps = inventory.SharedCount(types.InventoryApplication)
		sharedInfra = inventory.SharedCount(types.InventoryInfrastructure)
	}
	for _, ov := range overlaps {
		if ov.Classification != types.OverlapPlatformAlignment &&
			ov.Classification != types.OverlapCapabilityOverlap {
			continue
		}
		switch ov.Domain {
		case types.DomainApplications:
			sharedApps++
		case types.DomainInfrastructure, types.DomainNetwork:
			sharedInfra++
		}
	}

	raw := float64(sharedApps)*m.cfg.TSAAppMonthlyRate + float64(sharedInfra)*m.cfg.TSAInfraMonthlyRate
	monthly := math.Min(math.Max(raw, m.cfg.TSAMonthlyFloor), m.cfg.TSAMonthlyCeiling)

	return &types.TSAEstimate{
		DealType:             dealType,
		SharedApplications:   sharedApps,
		SharedInfrastructure: sharedInfra,
		MonthlyCost:          monthly,
		Clamped:              monthly != raw,
		DurationMonths:       durationMonths,
		TotalCost:            monthly * float64(durationMonths),
		Assumptions: fmt.Sprintf("%d shared applications × $%.0f + %d shared infrastructure × $%.0f per month, clamped to [$%.0f, $%.0f]",
			sharedApps, m.cfg.TSAAppMonthlyRate, sharedInfra, m.cfg.TSAInfraMonthlyRate,
			m.cfg.TSAMonthlyFloor, m.cfg.TSAMonthlyCeiling),
	}, nil
}

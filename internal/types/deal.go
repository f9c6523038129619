package types

import (
	"fmt"
	"strings"
	"time"
)

// DealType is the legal structure of the transaction. Cost multipliers
// and transitional-service applicability depend on it.
type DealType string

const (
	DealAcquisition DealType = "acquisition"
	DealCarveOut    DealType = "carveout"
	DealDivestiture DealType = "divestiture"
)

// IsValid checks if the deal type value is valid
func (d DealType) IsValid() bool {
	return d == DealAcquisition || d == DealCarveOut || d == DealDivestiture
}

// ParseDealType parses a user-supplied deal type string. Unknown
// values are an error, never defaulted: a silently wrong deal type
// would corrupt every downstream cost figure.
func ParseDealType(s string) (DealType, error) {
	d := DealType(strings.ToLower(strings.TrimSpace(s)))
	if !d.IsValid() {
		return "", fmt.Errorf("unknown deal type %q (want acquisition, carveout, or divestiture)", s)
	}
	return d, nil
}

// CostEstimate prices one work item under a specific deal structure.
// Estimates are derived records, recomputed on demand from the work
// item and the multiplier table.
type CostEstimate struct {
	WorkItemID   string   `json:"work_item_id"`
	DealType     DealType `json:"deal_type"`
	Category     Domain   `json:"category"`
	BaseCost     float64  `json:"base_cost"`
	Multiplier   float64  `json:"multiplier"`
	AdjustedCost float64  `json:"adjusted_cost"`
	Assumptions  string   `json:"assumptions,omitempty"`
}

// TSAEstimate is the transitional-service cost for a carve-out:
// a clamped monthly figure derived from shared application and
// infrastructure counts, multiplied by the agreement duration.
type TSAEstimate struct {
	DealType             DealType `json:"deal_type"`
	SharedApplications   int      `json:"shared_applications"`
	SharedInfrastructure int      `json:"shared_infrastructure"`
	MonthlyCost          float64  `json:"monthly_cost"`
	Clamped              bool     `json:"clamped"`
	DurationMonths       int      `json:"duration_months"`
	TotalCost            float64  `json:"total_cost"`
	Assumptions          string   `json:"assumptions,omitempty"`
}

// Inventory item categories used by the transitional-service model.
const (
	InventoryApplication    = "application"
	InventoryInfrastructure = "infrastructure"
)

// InventoryItem is one structured row from the inventory collaborator.
type InventoryItem struct {
	Name       string  `json:"name"`
	Category   string  `json:"category"` // application, infrastructure, or free-form
	Count      int     `json:"count"`
	AnnualCost float64 `json:"annual_cost,omitempty"`
	Shared     bool    `json:"shared"` // shared with the parent/buyer estate vs. dedicated
}

// InventorySummary aggregates the inventory collaborator's items for
// one analysis run.
type InventorySummary struct {
	Items []InventoryItem `json:"items"`
}

// SharedCount sums the counts of shared items in the given category.
func (s *InventorySummary) SharedCount(category string) int {
	total := 0
	for _, item := range s.Items {
		if item.Shared && item.Category == category {
			n := item.Count
			if n == 0 {
				n = 1 // a row without an explicit count is one item
			}
			total += n
		}
	}
	return total
}

// DomainState is the terminal state of one domain within a run.
type DomainState string

const (
	DomainCompleted DomainState = "completed"
	DomainFailed    DomainState = "failed"
)

// DomainStatus reports how one domain fared within a run. A run that
// degrades some domains to empty output still reports each domain
// individually; there is deliberately no aggregate success flag.
type DomainStatus struct {
	Domain        Domain      `json:"domain"`
	State         DomainState `json:"state"`
	OverlapCount  int         `json:"overlap_count"`
	FindingCount  int         `json:"finding_count"`
	RejectedCount int         `json:"rejected_count"` // malformed findings rejected by the validation gate
	Error         string      `json:"error,omitempty"`
}

// RunState marks whether a run finished all stages or was cancelled.
type RunState string

const (
	RunCompleted  RunState = "completed"
	RunIncomplete RunState = "incomplete"
)

// Run identifies one analysis run. All facts, overlaps, and findings
// are scoped to a run ID; runs never share mutable state.
type Run struct {
	ID         string    `json:"id"`
	DealID     string    `json:"deal_id"`
	DealType   DealType  `json:"deal_type"`
	State      RunState  `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
}

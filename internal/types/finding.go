package types

import (
	"fmt"
	"time"
)

// FindingType tags the variant of a Finding. Findings are a tagged
// union: the common fields live on Finding and variant-specific fields
// (phase, cost category) are only populated for the matching type, so
// consolidation can operate generically while staying exhaustive.
type FindingType string

const (
	FindingRisk                   FindingType = "risk"
	FindingWorkItem               FindingType = "work_item"
	FindingRecommendation         FindingType = "recommendation"
	FindingStrategicConsideration FindingType = "strategic_consideration"
)

// IsValid checks if the finding type is valid
func (t FindingType) IsValid() bool {
	switch t {
	case FindingRisk, FindingWorkItem, FindingRecommendation, FindingStrategicConsideration:
		return true
	}
	return false
}

// Severity doubles as priority for work items and recommendations.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// IsValid checks if the severity value is valid
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Rank returns a comparable ordering for severity values (higher is
// more severe). Unknown severities rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Phase tags a work item with the integration timeline it belongs to.
type Phase string

const (
	PhaseDay1    Phase = "day-1"
	PhaseDay100  Phase = "day-100"
	PhasePost100 Phase = "post-100"
)

// IsValid checks if the phase value is valid
func (p Phase) IsValid() bool {
	return p == PhaseDay1 || p == PhaseDay100 || p == PhasePost100
}

// Finding is a synthesized, cited conclusion about the target (or the
// target/buyer combination) in one domain.
//
// Every finding carries at least one citation into the run's fact set;
// that traceability is the contract downstream reporting depends on.
// Findings are never deleted: consolidation merges near-duplicates
// into a canonical record that retains the union of citations.
type Finding struct {
	ID          string      `json:"id"`
	Type        FindingType `json:"type"`
	Domain      Domain      `json:"domain"`
	Severity    Severity    `json:"severity"`
	Description string      `json:"description"`

	// Citations are fact IDs, ordered, never empty.
	Citations []string `json:"citations"`
	// OverlapID optionally ties the finding to one overlap candidate.
	// A set OverlapID forces IntegrationRelated.
	OverlapID string `json:"overlap_id,omitempty"`

	// Buyer-awareness fields.
	IntegrationRelated bool   `json:"integration_related"`
	TargetAction       string `json:"target_action,omitempty"`
	IntegrationOption  string `json:"integration_option,omitempty"`

	// Work item fields (FindingWorkItem only).
	Phase        Phase   `json:"phase,omitempty"`
	CostCategory Domain  `json:"cost_category,omitempty"`
	BaseCost     float64 `json:"base_cost,omitempty"`

	// MergedFrom lists the finding IDs consolidated into this record.
	MergedFrom []string  `json:"merged_from,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Validate checks if the finding has valid field values
func (f *Finding) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("finding id is required")
	}
	if !f.Type.IsValid() {
		return fmt.Errorf("invalid finding type: %s", f.Type)
	}
	if !f.Domain.IsValid() {
		return fmt.Errorf("invalid domain: %s", f.Domain)
	}
	if !f.Severity.IsValid() {
		return fmt.Errorf("invalid severity: %s", f.Severity)
	}
	if f.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(f.Citations) == 0 {
		return fmt.Errorf("finding must cite at least one fact")
	}
	for i, c := range f.Citations {
		if c == "" {
			return fmt.Errorf("citation %d is empty", i)
		}
	}
	if f.OverlapID != "" && !f.IntegrationRelated {
		return fmt.Errorf("finding with overlap_id must be integration_related")
	}
	if f.Type == FindingWorkItem {
		if !f.Phase.IsValid() {
			return fmt.Errorf("work item requires a valid phase (got %q)", f.Phase)
		}
		if !f.CostCategory.IsValid() {
			return fmt.Errorf("work item requires a valid cost category (got %q)", f.CostCategory)
		}
		if f.BaseCost < 0 {
			return fmt.Errorf("base cost cannot be negative (got %.2f)", f.BaseCost)
		}
	} else if f.Phase != "" {
		return fmt.Errorf("phase is only valid on work items (got %s on %s)", f.Phase, f.Type)
	}
	return nil
}

// CitesFact reports whether the finding cites the given fact ID.
func (f *Finding) CitesFact(id string) bool {
	for _, c := range f.Citations {
		if c == id {
			return true
		}
	}
	return false
}

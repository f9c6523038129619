// Package types defines the core data model for a due-diligence
// analysis run: facts extracted from source documents, detected
// overlaps between the target and buyer estates, and the findings
// synthesized from them.
package types

import (
	"fmt"
	"time"
)

// Domain is one of the six fixed analytical categories.
type Domain string

const (
	DomainInfrastructure Domain = "infrastructure"
	DomainApplications   Domain = "applications"
	DomainOrganization   Domain = "organization"
	DomainCybersecurity  Domain = "cybersecurity"
	DomainNetwork        Domain = "network"
	DomainIdentityAccess Domain = "identity-access"
)

// AllDomains returns the six analytical domains in canonical order.
func AllDomains() []Domain {
	return []Domain{
		DomainInfrastructure,
		DomainApplications,
		DomainOrganization,
		DomainCybersecurity,
		DomainNetwork,
		DomainIdentityAccess,
	}
}

// IsValid checks if the domain value is valid
func (d Domain) IsValid() bool {
	switch d {
	case DomainInfrastructure, DomainApplications, DomainOrganization,
		DomainCybersecurity, DomainNetwork, DomainIdentityAccess:
		return true
	}
	return false
}

// Entity marks which side of the deal a record describes.
type Entity string

const (
	EntityTarget Entity = "target"
	EntityBuyer  Entity = "buyer"
)

// IsValid checks if the entity value is valid
func (e Entity) IsValid() bool {
	return e == EntityTarget || e == EntityBuyer
}

// Provenance points back at the source document a record was
// extracted from.
type Provenance struct {
	DocumentID string `json:"document_id"`
	Location   string `json:"location,omitempty"` // page, section, or row hint
}

// FactAttributes holds the structured fields extracted from a claim.
// All fields are optional and domain-dependent.
type FactAttributes struct {
	Vendor      string  `json:"vendor,omitempty"`
	Category    string  `json:"category,omitempty"`
	AnnualCost  float64 `json:"annual_cost,omitempty"`
	Criticality string  `json:"criticality,omitempty"`
	UserCount   int     `json:"user_count,omitempty"`
}

// Fact is an atomic claim about one entity's IT estate.
//
// Facts are immutable once created: re-extraction produces a new Fact
// whose SupersedesID points at the record it replaces. The old record
// is retained as audit trail.
type Fact struct {
	ID           string         `json:"id"` // globally unique, encodes entity and domain (e.g. "target-applications-0042")
	Domain       Domain         `json:"domain"`
	Entity       Entity         `json:"entity"`
	Claim        string         `json:"claim"`
	Attributes   FactAttributes `json:"attributes,omitempty"`
	Source       Provenance     `json:"source"`
	Confidence   float64        `json:"confidence"`
	SupersedesID string         `json:"supersedes_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Validate checks if the fact has valid field values
func (f *Fact) Validate() error {
	if f.ID == "" {
		return fmt.Errorf("fact id is required")
	}
	if !f.Domain.IsValid() {
		return fmt.Errorf("invalid domain: %s", f.Domain)
	}
	if !f.Entity.IsValid() {
		return fmt.Errorf("invalid entity: %s", f.Entity)
	}
	if f.Claim == "" {
		return fmt.Errorf("claim is required")
	}
	if f.Confidence < 0.0 || f.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0 (got %.2f)", f.Confidence)
	}
	return nil
}

// Gap flags an information absence for a domain/entity. Gaps feed the
// reasoning stage (open-question findings), never overlap detection.
type Gap struct {
	ID          string     `json:"id"`
	Domain      Domain     `json:"domain"`
	Entity      Entity     `json:"entity"`
	Description string     `json:"description"`
	Source      Provenance `json:"source"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Validate checks if the gap has valid field values
func (g *Gap) Validate() error {
	if g.ID == "" {
		return fmt.Errorf("gap id is required")
	}
	if !g.Domain.IsValid() {
		return fmt.Errorf("invalid domain: %s", g.Domain)
	}
	if !g.Entity.IsValid() {
		return fmt.Errorf("invalid entity: %s", g.Entity)
	}
	if g.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

// OverlapClass classifies the relationship between a target capability
// and a buyer capability. Exactly one label applies per candidate.
type OverlapClass string

const (
	// OverlapPlatformAlignment: both entities use the same or a compatible capability
	OverlapPlatformAlignment OverlapClass = "platform_alignment"
	// OverlapPlatformMismatch: incompatible competing capability
	OverlapPlatformMismatch OverlapClass = "platform_mismatch"
	// OverlapCapabilityGap: one entity lacks a capability the other has
	OverlapCapabilityGap OverlapClass = "capability_gap"
	// OverlapCapabilityOverlap: redundant duplicate capability
	OverlapCapabilityOverlap OverlapClass = "capability_overlap"
)

// IsValid checks if the overlap classification is valid
func (c OverlapClass) IsValid() bool {
	switch c {
	case OverlapPlatformAlignment, OverlapPlatformMismatch,
		OverlapCapabilityGap, OverlapCapabilityOverlap:
		return true
	}
	return false
}

// OverlapCandidate pairs one target fact with one buyer fact (or
// records that one side has no counterpart) within a single domain.
// Candidates are produced once per run per domain and are immutable.
type OverlapCandidate struct {
	ID             string       `json:"id"` // domain-scoped, sequential (e.g. "cybersecurity-ov-3")
	Domain         Domain       `json:"domain"`
	Classification OverlapClass `json:"classification"`
	TargetFactID   string       `json:"target_fact_id,omitempty"`
	BuyerFactID    string       `json:"buyer_fact_id,omitempty"`
	Rationale      string       `json:"rationale"`
}

// Validate checks if the overlap candidate has valid field values
func (o *OverlapCandidate) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("overlap id is required")
	}
	if !o.Domain.IsValid() {
		return fmt.Errorf("invalid domain: %s", o.Domain)
	}
	if !o.Classification.IsValid() {
		return fmt.Errorf("invalid classification: %s", o.Classification)
	}
	if o.TargetFactID == "" && o.BuyerFactID == "" {
		return fmt.Errorf("overlap must reference at least one fact")
	}
	return nil
}

// FactIDs returns the contributing fact identifiers (one or two).
func (o *OverlapCandidate) FactIDs() []string {
	ids := make([]string, 0, 2)
	if o.TargetFactID != "" {
		ids = append(ids, o.TargetFactID)
	}
	if o.BuyerFactID != "" {
		ids = append(ids, o.BuyerFactID)
	}
	return ids
}

// Package model defines the core domain types shared across the application.
package model

import "time"

// Priority is the MoSCoW priority assigned to a requirement.
type Priority string

const (
	// PriorityMustHave marks a non-negotiable requirement.
	PriorityMustHave Priority = "must_have"
	// PriorityShouldHave marks an important but deferrable requirement.
	PriorityShouldHave Priority = "should_have"
	// PriorityCouldHave marks a desirable requirement.
	PriorityCouldHave Priority = "could_have"
	// PriorityWontHave marks a requirement explicitly out of scope for now.
	PriorityWontHave Priority = "wont_have"
)

// Status is the review lifecycle state of a requirement.
type Status string

const (
	// StatusDraft is the initial state of every new requirement.
	StatusDraft Status = "draft"
	// StatusInReview marks a requirement submitted for stakeholder review.
	StatusInReview Status = "in_review"
	// StatusApproved marks a requirement accepted by stakeholders.
	StatusApproved Status = "approved"
	// StatusRejected marks a requirement declined by stakeholders.
	StatusRejected Status = "rejected"
	// StatusImplemented marks a delivered requirement.
	StatusImplemented Status = "implemented"
)

// Requirement represents a single project requirement from any source.
type Requirement struct {
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ID                  string
	Reference           string // Human-readable reference (e.g. REQ-0042), assigned on create
	ProjectID           string
	Title               string
	Description         string
	SourceType          string // Free-form provenance (e.g. workshop, interview)
	SourceReference     string
	AcceptanceCriteria  string
	CategoryName        string // Resolved display name, not persisted as truth
	StakeholderAreaName string
	Priority            Priority
	Status              Status
	Weighting           float64
	SourceRow           int // Originating row number in the imported sheet, 0 if hand-created
	CategoryID          int // 0 means no category association
	StakeholderAreaID   int
}

// Patch holds a partial update to a requirement. Nil fields are left untouched.
type Patch struct {
	Title              *string
	Description        *string
	Priority           *Priority
	Status             *Status
	CategoryID         *int
	StakeholderAreaID  *int
	SourceType         *string
	SourceReference    *string
	AcceptanceCriteria *string
	Weighting          *float64
}

// IsZero reports whether the patch carries no changes.
func (p Patch) IsZero() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil &&
		p.Status == nil && p.CategoryID == nil && p.StakeholderAreaID == nil &&
		p.SourceType == nil && p.SourceReference == nil &&
		p.AcceptanceCriteria == nil && p.Weighting == nil
}

// Apply copies the patch's populated fields onto a requirement.
func (p Patch) Apply(r *Requirement) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.CategoryID != nil {
		r.CategoryID = *p.CategoryID
	}
	if p.StakeholderAreaID != nil {
		r.StakeholderAreaID = *p.StakeholderAreaID
	}
	if p.SourceType != nil {
		r.SourceType = *p.SourceType
	}
	if p.SourceReference != nil {
		r.SourceReference = *p.SourceReference
	}
	if p.AcceptanceCriteria != nil {
		r.AcceptanceCriteria = *p.AcceptanceCriteria
	}
	if p.Weighting != nil {
		r.Weighting = *p.Weighting
	}
}

// BulkCreateResult reports the outcome of a bulk requirement create.
type BulkCreateResult struct {
	Errors  []BulkError
	Created int
}

// BulkError describes a single record rejected during a bulk create.
type BulkError struct {
	Message string
	Index   int
}

// Package catalog describes the importable fields of a requirement and the
// synonym tables used to resolve free-text enum values.
package catalog

import "github.com/mwhitfield/reqwell/internal/model"

// Field keys understood by the import pipeline.
const (
	FieldTitle               = "title"
	FieldDescription         = "description"
	FieldPriority            = "priority"
	FieldStatus              = "status"
	FieldCategoryName        = "category_name"
	FieldStakeholderAreaName = "stakeholder_area_name"
	FieldSourceType          = "source_type"
	FieldSourceReference     = "source_reference"
	FieldAcceptanceCriteria  = "acceptance_criteria"
	FieldWeighting           = "weighting"
)

// FieldSpec describes one importable requirement field.
type FieldSpec struct {
	Key      string
	Label    string
	Required bool
}

// Fields is the import field catalog, in display order. Built once at process
// start and never mutated.
var Fields = []FieldSpec{
	{Key: FieldTitle, Label: "Title", Required: true},
	{Key: FieldDescription, Label: "Description"},
	{Key: FieldPriority, Label: "Priority"},
	{Key: FieldStatus, Label: "Status"},
	{Key: FieldCategoryName, Label: "Category"},
	{Key: FieldStakeholderAreaName, Label: "Stakeholder Area"},
	{Key: FieldSourceType, Label: "Source Type"},
	{Key: FieldSourceReference, Label: "Source Reference"},
	{Key: FieldAcceptanceCriteria, Label: "Acceptance Criteria"},
	{Key: FieldWeighting, Label: "Weighting"},
}

// FieldByKey returns the catalog entry for a key, if any.
func FieldByKey(key string) (FieldSpec, bool) {
	for _, f := range Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// PrioritySynonyms maps lower-cased free text to a canonical priority.
// Many-to-one; lookups must lower-case and trim the input first.
var PrioritySynonyms = map[string]model.Priority{
	"must_have":    model.PriorityMustHave,
	"must have":    model.PriorityMustHave,
	"must":         model.PriorityMustHave,
	"m":            model.PriorityMustHave,
	"high":         model.PriorityMustHave,
	"critical":     model.PriorityMustHave,
	"1":            model.PriorityMustHave,
	"should_have":  model.PriorityShouldHave,
	"should have":  model.PriorityShouldHave,
	"should":       model.PriorityShouldHave,
	"s":            model.PriorityShouldHave,
	"medium":       model.PriorityShouldHave,
	"med":          model.PriorityShouldHave,
	"2":            model.PriorityShouldHave,
	"could_have":   model.PriorityCouldHave,
	"could have":   model.PriorityCouldHave,
	"could":        model.PriorityCouldHave,
	"c":            model.PriorityCouldHave,
	"low":          model.PriorityCouldHave,
	"nice to have": model.PriorityCouldHave,
	"3":            model.PriorityCouldHave,
	"wont_have":    model.PriorityWontHave,
	"won't have":   model.PriorityWontHave,
	"wont have":    model.PriorityWontHave,
	"wont":         model.PriorityWontHave,
	"w":            model.PriorityWontHave,
	"none":         model.PriorityWontHave,
	"4":            model.PriorityWontHave,
}

// StatusSynonyms maps lower-cased free text to a canonical status.
var StatusSynonyms = map[string]model.Status{
	"draft":       model.StatusDraft,
	"new":         model.StatusDraft,
	"todo":        model.StatusDraft,
	"open":        model.StatusDraft,
	"in_review":   model.StatusInReview,
	"in review":   model.StatusInReview,
	"review":      model.StatusInReview,
	"pending":     model.StatusInReview,
	"submitted":   model.StatusInReview,
	"approved":    model.StatusApproved,
	"accepted":    model.StatusApproved,
	"done":        model.StatusApproved,
	"complete":    model.StatusApproved,
	"completed":   model.StatusApproved,
	"rejected":    model.StatusRejected,
	"declined":    model.StatusRejected,
	"implemented": model.StatusImplemented,
	"delivered":   model.StatusImplemented,
	"released":    model.StatusImplemented,
}

// Defaults substituted when free text does not resolve against a synonym table.
const (
	DefaultPriority = model.PriorityShouldHave
	DefaultStatus   = model.StatusDraft
)

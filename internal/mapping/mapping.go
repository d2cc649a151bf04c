// Package mapping infers and represents the assignment of source spreadsheet
// columns to requirement fields.
package mapping

import (
	"sort"
	"strings"

	"github.com/mwhitfield/reqwell/internal/catalog"
)

// Skip is the sentinel field key for a column excluded from import.
const Skip = "skip"

// ColumnMapping maps a source column index to a requirement field key.
// Columns absent from the map are treated as skipped.
type ColumnMapping map[int]string

// Field returns the field key a column is mapped to, or Skip.
func (m ColumnMapping) Field(col int) string {
	if key, ok := m[col]; ok && key != "" {
		return key
	}
	return Skip
}

// Set assigns a column to a field key. Setting Skip removes the entry.
func (m ColumnMapping) Set(col int, key string) {
	if key == Skip || key == "" {
		delete(m, col)
		return
	}
	m[col] = key
}

// HasField reports whether any column is mapped to the given field key.
func (m ColumnMapping) HasField(key string) bool {
	for _, k := range m {
		if k == key {
			return true
		}
	}
	return false
}

// Duplicates returns the field keys assigned to more than one column, sorted.
// Duplicate assignment is tolerated (the highest column index wins during
// normalization) but callers should surface it as a warning.
func (m ColumnMapping) Duplicates() []string {
	counts := make(map[string]int)
	for _, k := range m {
		if k != Skip {
			counts[k]++
		}
	}
	var dupes []string
	for k, n := range counts {
		if n > 1 {
			dupes = append(dupes, k)
		}
	}
	sort.Strings(dupes)
	return dupes
}

// Clone returns an independent copy of the mapping.
func (m ColumnMapping) Clone() ColumnMapping {
	out := make(ColumnMapping, len(m))
	for col, key := range m {
		out[col] = key
	}
	return out
}

// headerRule matches a normalized header cell against one field's keywords.
type headerRule struct {
	match func(string) bool
	field string
}

// Inference rules in evaluation order. Specific multi-word predicates run
// before the broad ones ("type" alone would otherwise shadow "source type",
// and "name" alone would shadow "category name").
var headerRules = []headerRule{
	{field: catalog.FieldStatus, match: func(h string) bool {
		return strings.Contains(h, "status")
	}},
	{field: catalog.FieldPriority, match: func(h string) bool {
		return strings.Contains(h, "priority") || strings.Contains(h, "moscow")
	}},
	{field: catalog.FieldDescription, match: func(h string) bool {
		return strings.Contains(h, "description") || strings.Contains(h, "desc") || strings.Contains(h, "detail")
	}},
	{field: catalog.FieldAcceptanceCriteria, match: func(h string) bool {
		return strings.Contains(h, "acceptance") || strings.Contains(h, "criteria")
	}},
	{field: catalog.FieldSourceType, match: func(h string) bool {
		return strings.Contains(h, "source") && strings.Contains(h, "type")
	}},
	{field: catalog.FieldSourceReference, match: func(h string) bool {
		return strings.Contains(h, "source") || strings.Contains(h, "reference")
	}},
	{field: catalog.FieldStakeholderAreaName, match: func(h string) bool {
		return strings.Contains(h, "stakeholder") || strings.Contains(h, "area") || strings.Contains(h, "department")
	}},
	{field: catalog.FieldCategoryName, match: func(h string) bool {
		return strings.Contains(h, "category") || strings.Contains(h, "cat") || strings.Contains(h, "type")
	}},
	{field: catalog.FieldWeighting, match: func(h string) bool {
		return strings.Contains(h, "weight")
	}},
	{field: catalog.FieldTitle, match: func(h string) bool {
		return strings.Contains(h, "title") || strings.Contains(h, "name") || h == "requirement"
	}},
}

// InferFromHeader guesses a column mapping from a candidate header row.
// Unmatched columns are left unmapped. The result is a heuristic seed; the
// user can override every assignment before validation.
func InferFromHeader(header []string) ColumnMapping {
	m := make(ColumnMapping)
	for col, cell := range header {
		h := strings.ToLower(strings.TrimSpace(cell))
		if h == "" {
			continue
		}
		for _, rule := range headerRules {
			if rule.match(h) {
				m[col] = rule.field
				break
			}
		}
	}
	return m
}

// headerKeywords is the fixed set the paste flow scans for when deciding
// whether the first pasted row is a header row.
var headerKeywords = []string{
	"title", "description", "name", "requirement", "priority", "status", "category",
}

// DetectHeader reports whether a pasted first row looks like a header row.
func DetectHeader(row []string) bool {
	for _, cell := range row {
		c := strings.ToLower(strings.TrimSpace(cell))
		if c == "" {
			continue
		}
		for _, kw := range headerKeywords {
			if strings.Contains(c, kw) {
				return true
			}
		}
	}
	return false
}

// Package normalize turns raw tabular rows into validated requirements.
//
// Normalize is pure and deterministic: it performs no I/O and touches no
// shared state, so it can be exercised exhaustively in tests.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mwhitfield/reqwell/internal/catalog"
	"github.com/mwhitfield/reqwell/internal/mapping"
	"github.com/mwhitfield/reqwell/internal/model"
)

// Field limits applied during normalization.
const (
	MaxTitleLen       = 255
	MaxDescriptionLen = 5000
	MinWeighting      = 0
	MaxWeighting      = 100
)

// RowError is a row-scoped validation failure that excludes the row.
type RowError struct {
	Message string
	Row     int
}

// RowWarning collects the recoverable problems found in one row. The row is
// still imported with documented defaults substituted.
type RowWarning struct {
	Messages []string
	Row      int
}

// Result is the output of one normalization pass.
type Result struct {
	Records  []model.Requirement
	Errors   []RowError
	Warnings []RowWarning
}

// Lookups carries the host-supplied collections used to resolve category and
// stakeholder area names. Matching is case-insensitive and exact.
type Lookups struct {
	Categories       []model.Category
	StakeholderAreas []model.StakeholderArea
}

// Normalize applies a column mapping to data rows (header already stripped by
// the caller) and returns the importable records plus per-row issues.
//
// Row numbers are 1-based positions within the supplied rows. A row reaches
// Records only if it yields a non-empty title of at most MaxTitleLen
// characters; every other invalid value degrades to a default plus a warning.
func Normalize(rows [][]string, m mapping.ColumnMapping, lookups Lookups) Result {
	var result Result

	// Fixed column order so duplicate field assignments resolve
	// deterministically (highest column index wins).
	cols := make([]int, 0, len(m))
	for col := range m {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	for i, row := range rows {
		rowNum := i + 1
		if isEmptyRow(row) {
			continue
		}

		rec := model.Requirement{
			Priority:  catalog.DefaultPriority,
			Status:    catalog.DefaultStatus,
			SourceRow: rowNum,
		}
		var warnings []string
		titleSet := false
		titleTooLong := false

		for _, col := range cols {
			field := m.Field(col)
			if field == mapping.Skip || col >= len(row) {
				continue
			}
			value := strings.TrimSpace(row[col])
			if value == "" {
				continue
			}

			switch field {
			case catalog.FieldTitle:
				if utf8.RuneCountInString(value) > MaxTitleLen {
					titleTooLong = true
					continue
				}
				rec.Title = value
				titleSet = true

			case catalog.FieldDescription:
				if utf8.RuneCountInString(value) > MaxDescriptionLen {
					rec.Description = truncateRunes(value, MaxDescriptionLen)
					warnings = append(warnings, fmt.Sprintf("description truncated to %d characters", MaxDescriptionLen))
				} else {
					rec.Description = value
				}

			case catalog.FieldPriority:
				if p, ok := catalog.PrioritySynonyms[strings.ToLower(value)]; ok {
					rec.Priority = p
				} else {
					rec.Priority = catalog.DefaultPriority
					warnings = append(warnings, fmt.Sprintf("unrecognized priority %q, defaulting to %s", value, catalog.DefaultPriority))
				}

			case catalog.FieldStatus:
				if s, ok := catalog.StatusSynonyms[strings.ToLower(value)]; ok {
					rec.Status = s
				} else {
					rec.Status = catalog.DefaultStatus
					warnings = append(warnings, fmt.Sprintf("unrecognized status %q, defaulting to %s", value, catalog.DefaultStatus))
				}

			case catalog.FieldCategoryName:
				if cat, ok := matchCategory(lookups.Categories, value); ok {
					rec.CategoryID = cat.ID
					rec.CategoryName = cat.Name
				} else {
					warnings = append(warnings, fmt.Sprintf("category %q not found, importing without category", value))
				}

			case catalog.FieldStakeholderAreaName:
				if area, ok := matchArea(lookups.StakeholderAreas, value); ok {
					rec.StakeholderAreaID = area.ID
					rec.StakeholderAreaName = area.Name
				} else {
					warnings = append(warnings, fmt.Sprintf("stakeholder area %q not found, importing without area", value))
				}

			case catalog.FieldSourceType:
				rec.SourceType = strings.Join(strings.Fields(strings.ToLower(value)), "_")

			case catalog.FieldSourceReference:
				rec.SourceReference = value

			case catalog.FieldAcceptanceCriteria:
				rec.AcceptanceCriteria = value

			case catalog.FieldWeighting:
				w, warning := parseWeighting(value)
				rec.Weighting = w
				if warning != "" {
					warnings = append(warnings, warning)
				}
			}
		}

		if !titleSet {
			msg := "missing or empty title"
			if titleTooLong {
				msg = fmt.Sprintf("title exceeds %d characters", MaxTitleLen)
			}
			result.Errors = append(result.Errors, RowError{Row: rowNum, Message: msg})
			continue
		}

		if len(warnings) > 0 {
			result.Warnings = append(result.Warnings, RowWarning{Row: rowNum, Messages: warnings})
		}
		result.Records = append(result.Records, rec)
	}

	return result
}

// parseWeighting parses and clamps a weighting value into [MinWeighting,
// MaxWeighting]. Clamping is idempotent; in-range values pass through with no
// warning.
func parseWeighting(value string) (float64, string) {
	w, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Sprintf("weighting %q is not a number, defaulting to 0", value)
	}
	switch {
	case w < MinWeighting:
		return MinWeighting, fmt.Sprintf("weighting %v below %d, clamped", w, MinWeighting)
	case w > MaxWeighting:
		return MaxWeighting, fmt.Sprintf("weighting %v above %d, clamped", w, MaxWeighting)
	default:
		return w, ""
	}
}

func matchCategory(categories []model.Category, name string) (model.Category, bool) {
	for _, c := range categories {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return model.Category{}, false
}

func matchArea(areas []model.StakeholderArea, name string) (model.StakeholderArea, bool) {
	for _, a := range areas {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return model.StakeholderArea{}, false
}

// truncateRunes cuts a string to n runes on a rune boundary.
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

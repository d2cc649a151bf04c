// Package wizard drives the multi-step import flow: source acquisition, sheet
// selection, column mapping, validation and batched commit.
package wizard

import (
	"fmt"

	"github.com/mwhitfield/reqwell/internal/catalog"
	"github.com/mwhitfield/reqwell/internal/common"
	"github.com/mwhitfield/reqwell/internal/decode"
	"github.com/mwhitfield/reqwell/internal/mapping"
	"github.com/mwhitfield/reqwell/internal/normalize"
)

// Step identifies a wizard state.
type Step int

// Wizard steps, in forward order.
const (
	StepAwaitingSource Step = iota
	StepSheetSelection
	StepColumnMapping
	StepValidated
	StepCommitting
	StepComplete
)

func (s Step) String() string {
	switch s {
	case StepAwaitingSource:
		return "awaiting_source"
	case StepSheetSelection:
		return "sheet_selection"
	case StepColumnMapping:
		return "column_mapping"
	case StepValidated:
		return "validated"
	case StepCommitting:
		return "committing"
	case StepComplete:
		return "complete"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Session is the working state of one file-import wizard run. It is
// single-writer, single-reader: one interactive flow owns it for its whole
// lifetime, so it carries no internal locking.
type Session struct {
	result     *normalize.Result
	commit     *CommitResult
	commitErr  error
	sheets     []decode.Sheet
	colMap     mapping.ColumnMapping
	lookups    normalize.Lookups
	step       Step
	sheetIdx   int
	skipHeader bool
}

// NewSession creates a wizard session in the AwaitingSource step. The lookup
// collections are supplied by the caller and never fetched here.
func NewSession(lookups normalize.Lookups) *Session {
	return &Session{
		step:    StepAwaitingSource,
		lookups: lookups,
		colMap:  make(mapping.ColumnMapping),
	}
}

// Step returns the current wizard step.
func (s *Session) Step() Step {
	return s.step
}

// SheetNames lists the decoded sheet names, in source order.
func (s *Session) SheetNames() []string {
	names := make([]string, len(s.sheets))
	for i, sh := range s.sheets {
		names[i] = sh.Name
	}
	return names
}

// LoadSheets accepts the decoded source and advances the wizard. A
// single-sheet source skips sheet selection entirely.
func (s *Session) LoadSheets(sheets []decode.Sheet) error {
	if s.step != StepAwaitingSource {
		return fmt.Errorf("%w: cannot load sheets in step %s", common.ErrInvalidTransition, s.step)
	}
	if len(sheets) == 0 {
		return common.ErrNoSheets
	}
	s.sheets = sheets
	if len(sheets) == 1 {
		s.enterMapping(0)
		return nil
	}
	s.step = StepSheetSelection
	return nil
}

// SelectSheet picks the sheet to import and moves to column mapping, seeding
// the mapping from that sheet's first row.
func (s *Session) SelectSheet(idx int) error {
	if s.step != StepSheetSelection {
		return fmt.Errorf("%w: cannot select sheet in step %s", common.ErrInvalidTransition, s.step)
	}
	if idx < 0 || idx >= len(s.sheets) {
		return fmt.Errorf("sheet index %d out of range", idx)
	}
	s.enterMapping(idx)
	return nil
}

// enterMapping seeds the column mapping from the sheet's first row. The file
// flow assumes a header row until the user says otherwise.
func (s *Session) enterMapping(idx int) {
	s.sheetIdx = idx
	s.skipHeader = true
	if rows := s.sheets[idx].Rows; len(rows) > 0 {
		s.colMap = mapping.InferFromHeader(rows[0])
	} else {
		s.colMap = make(mapping.ColumnMapping)
	}
	s.step = StepColumnMapping
}

// Header returns the candidate header row of the selected sheet.
func (s *Session) Header() []string {
	if len(s.sheets) == 0 || len(s.sheets[s.sheetIdx].Rows) == 0 {
		return nil
	}
	return s.sheets[s.sheetIdx].Rows[0]
}

// Mapping returns a copy of the current column mapping.
func (s *Session) Mapping() mapping.ColumnMapping {
	return s.colMap.Clone()
}

// SetMapping overrides one column assignment during the mapping step.
func (s *Session) SetMapping(col int, field string) error {
	if s.step != StepColumnMapping {
		return fmt.Errorf("%w: cannot change mapping in step %s", common.ErrInvalidTransition, s.step)
	}
	if field != mapping.Skip {
		if _, ok := catalog.FieldByKey(field); !ok {
			return fmt.Errorf("unknown field %q", field)
		}
	}
	s.colMap.Set(col, field)
	return nil
}

// SkipHeader reports whether the first row is excluded from the data rows.
func (s *Session) SkipHeader() bool {
	return s.skipHeader
}

// SetSkipHeader toggles first-row exclusion during the mapping step.
func (s *Session) SetSkipHeader(skip bool) error {
	if s.step != StepColumnMapping {
		return fmt.Errorf("%w: cannot toggle header in step %s", common.ErrInvalidTransition, s.step)
	}
	s.skipHeader = skip
	return nil
}

// CanValidate reports whether the hard precondition for validation holds:
// some column must be mapped to title.
func (s *Session) CanValidate() bool {
	return s.step == StepColumnMapping && s.colMap.HasField(catalog.FieldTitle)
}

// Validate runs normalization over the data rows and advances to Validated.
func (s *Session) Validate() error {
	if s.step != StepColumnMapping {
		return fmt.Errorf("%w: cannot validate in step %s", common.ErrInvalidTransition, s.step)
	}
	if !s.colMap.HasField(catalog.FieldTitle) {
		return common.ErrNoTitleMapping
	}
	result := normalize.Normalize(s.dataRows(), s.colMap, s.lookups)
	s.result = &result
	s.step = StepValidated
	return nil
}

// Result returns the last validation output, nil before the first Validate.
func (s *Session) Result() *normalize.Result {
	return s.result
}

// Summary returns the validation counts reported to the host UI.
func (s *Session) Summary() (valid, errors, warnings int) {
	if s.result == nil {
		return 0, 0, 0
	}
	return len(s.result.Records), len(s.result.Errors), len(s.result.Warnings)
}

// Back navigates one step backward. Navigation out of Committing or Complete
// is not permitted; re-entering the mapping step keeps the user's mapping.
func (s *Session) Back() error {
	switch s.step {
	case StepValidated:
		s.step = StepColumnMapping
	case StepColumnMapping:
		if len(s.sheets) > 1 {
			s.step = StepSheetSelection
		} else {
			s.step = StepAwaitingSource
		}
	case StepSheetSelection:
		s.step = StepAwaitingSource
	default:
		return fmt.Errorf("%w: cannot navigate back from step %s", common.ErrInvalidTransition, s.step)
	}
	return nil
}

// dataRows returns the selected sheet's rows minus the header when skipped.
func (s *Session) dataRows() [][]string {
	rows := s.sheets[s.sheetIdx].Rows
	if s.skipHeader && len(rows) > 0 {
		return rows[1:]
	}
	return rows
}

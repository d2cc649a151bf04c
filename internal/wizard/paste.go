package wizard

import (
	"fmt"

	"github.com/mwhitfield/reqwell/internal/catalog"
	"github.com/mwhitfield/reqwell/internal/mapping"
	"github.com/mwhitfield/reqwell/internal/model"
	"github.com/mwhitfield/reqwell/internal/normalize"
)

// PasteSession is the single-screen counterpart of the file wizard used for
// clipboard-style input. It revalidates on every mapping or header change, so
// the caller always sees a current result.
type PasteSession struct {
	result     normalize.Result
	rows       [][]string
	colMap     mapping.ColumnMapping
	lookups    normalize.Lookups
	skipHeader bool
}

// NewPasteSession builds a session over pasted rows. If the first row looks
// like a header, it is skipped and the mapping seeded by inference; otherwise
// no row is skipped and the mapping starts empty.
func NewPasteSession(rows [][]string, lookups normalize.Lookups) *PasteSession {
	p := &PasteSession{
		rows:    rows,
		lookups: lookups,
		colMap:  make(mapping.ColumnMapping),
	}
	if len(rows) > 0 && mapping.DetectHeader(rows[0]) {
		p.skipHeader = true
		p.colMap = mapping.InferFromHeader(rows[0])
	}
	p.revalidate()
	return p
}

// Mapping returns a copy of the current column mapping.
func (p *PasteSession) Mapping() mapping.ColumnMapping {
	return p.colMap.Clone()
}

// SetMapping overrides one column assignment and revalidates.
func (p *PasteSession) SetMapping(col int, field string) error {
	if field != mapping.Skip {
		if _, ok := catalog.FieldByKey(field); !ok {
			return fmt.Errorf("unknown field %q", field)
		}
	}
	p.colMap.Set(col, field)
	p.revalidate()
	return nil
}

// SkipHeader reports whether the first pasted row is excluded.
func (p *PasteSession) SkipHeader() bool {
	return p.skipHeader
}

// SetSkipHeader toggles first-row exclusion and revalidates.
func (p *PasteSession) SetSkipHeader(skip bool) {
	p.skipHeader = skip
	p.revalidate()
}

// Result returns the current validation output.
func (p *PasteSession) Result() normalize.Result {
	return p.result
}

// CanCommit reports whether a commit would forward at least one record.
func (p *PasteSession) CanCommit() bool {
	return p.colMap.HasField(catalog.FieldTitle) && len(p.result.Records) > 0
}

// Records returns the current importable records; the paste flow's commit
// action simply forwards these to the caller.
func (p *PasteSession) Records() []model.Requirement {
	return p.result.Records
}

func (p *PasteSession) revalidate() {
	rows := p.rows
	if p.skipHeader && len(rows) > 0 {
		rows = rows[1:]
	}
	p.result = normalize.Normalize(rows, p.colMap, p.lookups)
}

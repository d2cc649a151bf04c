// Package decode turns spreadsheet and delimited-text sources into raw
// tabular rows for the import pipeline. Every row, the header included, is a
// plain slice of cell strings; nothing here interprets cell contents.
package decode

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/mwhitfield/reqwell/internal/common"
)

// Sheet is one named grid of raw cell values.
type Sheet struct {
	Name string
	Rows [][]string
}

// File decodes a source file into its sheets. Spreadsheets may yield several
// sheets; CSV and TSV files yield exactly one, named after the file.
func File(path string) ([]Sheet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return excelSheets(path)
	case ".csv":
		return delimitedSheet(path, ',')
	case ".tsv":
		return delimitedSheet(path, '\t')
	default:
		return nil, fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func excelSheets(path string) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecodeFailed, err)
	}
	defer func() { _ = f.Close() }()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s: %v", common.ErrDecodeFailed, name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	if len(sheets) == 0 {
		return nil, common.ErrNoSheets
	}
	return sheets, nil
}

func delimitedSheet(path string, delim rune) ([]Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecodeFailed, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = delim
	r.FieldsPerRecord = -1 // ragged rows are the normalizer's problem
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecodeFailed, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []Sheet{{Name: name, Rows: rows}}, nil
}

// Text splits clipboard-style text into rows and tab-separated cells for the
// paste flow. Blank trailing lines are dropped; interior blank lines are kept
// so row numbering matches what the user pasted.
func Text(s string) [][]string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	rows := make([][]string, len(lines))
	for i, line := range lines {
		rows[i] = strings.Split(line, "\t")
	}
	return rows
}

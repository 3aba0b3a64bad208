package core

// reader.go decodes an uploaded workbook into named grids of typed cells.
//
// Decoding is pure: the workbook is read fully into memory, every sheet is
// materialised, and the file handle is closed before any pipeline stage runs.
// Sheet selection follows the import's SheetSpec: exact name, then a
// case-insensitive match, then (unless RequireExact) the first sheet whose
// name contains a keyword, then the first sheet.

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CellKind is the decoded type of a cell.
type CellKind int

const (
	CellBlank CellKind = iota
	CellText
	CellNumber
	CellBool
	CellDate
)

// Cell is one decoded spreadsheet cell.
type Cell struct {
	Kind   CellKind
	Text   string    // Raw text as stored in the file
	Number float64   // CellNumber
	Bool   bool      // CellBool
	Time   time.Time // CellDate, calendar fields as written
}

// IsBlank reports whether the cell carries no value.
func (c Cell) IsBlank() bool {
	return c.Kind == CellBlank || (c.Kind == CellText && strings.TrimSpace(c.Text) == "")
}

// Grid is one sheet: row 0 is the header row.
type Grid struct {
	Name string
	Rows [][]Cell
}

// Workbook holds every sheet of a decoded file in file order.
type Workbook struct {
	order  []string
	sheets map[string]Grid
}

// SheetNames returns the sheet names in file order.
func (w *Workbook) SheetNames() []string {
	return append([]string(nil), w.order...)
}

// ReadWorkbook decodes an xlsx file.
func ReadWorkbook(data []byte) (*Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &FileFormatError{Err: err}
	}
	defer f.Close()

	wb := &Workbook{sheets: make(map[string]Grid)}
	for _, name := range f.GetSheetList() {
		grid, err := readSheet(f, name)
		if err != nil {
			return nil, &FileFormatError{Err: fmt.Errorf("sheet %q: %w", name, err)}
		}
		wb.order = append(wb.order, name)
		wb.sheets[name] = grid
	}
	if len(wb.order) == 0 {
		return nil, &FileFormatError{Err: fmt.Errorf("workbook has no sheets")}
	}
	return wb, nil
}

func readSheet(f *excelize.File, name string) (Grid, error) {
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return Grid{}, err
	}

	grid := Grid{Name: name, Rows: make([][]Cell, len(rows))}
	for r, row := range rows {
		cells := make([]Cell, len(row))
		for c, raw := range row {
			if raw == "" {
				continue
			}
			ref, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return Grid{}, err
			}
			typ, err := f.GetCellType(name, ref)
			if err != nil {
				return Grid{}, err
			}
			cells[c] = decodeCell(typ, raw)
		}
		grid.Rows[r] = cells
	}
	return grid, nil
}

// isoDateLayouts cover the ISO 8601 forms used by t="d" cells.
var isoDateLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func decodeCell(typ excelize.CellType, raw string) Cell {
	switch typ {
	case excelize.CellTypeBool:
		return Cell{Kind: CellBool, Text: raw, Bool: raw == "1" || strings.EqualFold(raw, "true")}
	case excelize.CellTypeDate:
		for _, layout := range isoDateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return Cell{Kind: CellDate, Text: raw, Time: t}
			}
		}
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return Cell{Kind: CellNumber, Text: raw, Number: n}
		}
	}
	return Cell{Kind: CellText, Text: raw}
}

// Select picks the grid for spec, or fails with a FileFormatError naming
// the expected sheet.
func (w *Workbook) Select(spec SheetSpec) (Grid, error) {
	if g, ok := w.sheets[spec.Name]; ok {
		return g, nil
	}
	for _, name := range w.order {
		if strings.EqualFold(strings.TrimSpace(name), spec.Name) {
			return w.sheets[name], nil
		}
	}
	if !spec.RequireExact {
		for _, name := range w.order {
			lower := strings.ToLower(name)
			for _, kw := range spec.Keywords {
				if strings.Contains(lower, strings.ToLower(kw)) {
					return w.sheets[name], nil
				}
			}
		}
		if len(w.order) > 0 {
			return w.sheets[w.order[0]], nil
		}
	}
	return Grid{}, &FileFormatError{Expected: []string{spec.Name}, Found: w.SheetNames()}
}

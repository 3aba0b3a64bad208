package core

// mapper.go converts a grid into MappedRows using a sheet's header table.
//
// Coercion rules per cell, keyed by the target field's declared type:
//   - blank cells become "".
//   - numeric cells in (1000, 100000) become YYYY-MM-DD (or YYYY-MM-DD HH:MM
//     when fractional) only when the field is a date or date-time; every
//     other number is rendered as a plain number.
//   - native date cells are rendered from their calendar fields, no zone shift.
//   - yes/no tokens become bool when the field is FieldBool.
//
// Header columns that map to no field are dropped and reported as a
// HeaderMappingGap.

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Date serial heuristic bounds, exclusive.
const (
	minDateSerial = 1000
	maxDateSerial = 100000
)

// MappedRow is one data row keyed by field name. Values are string or bool.
type MappedRow struct {
	Row    int
	Sheet  string
	Fields map[string]any
}

// Mapping is the result of MapRows.
type Mapping struct {
	Sheet   string
	Rows    []MappedRow
	Ignored []string // Header texts that matched no field
	Missing []string // Canonical headers of required fields with no column
}

// Gap returns the non-fatal header gap, if any columns were ignored.
func (m Mapping) Gap() *HeaderMappingGap {
	if len(m.Ignored) == 0 {
		return nil
	}
	return &HeaderMappingGap{Sheet: m.Sheet, Columns: m.Ignored}
}

// normalizeHeader lowercases and collapses whitespace so "Booking  Ref " == "booking ref".
func normalizeHeader(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(CleanCell(s)), " "))
}

// MapRows applies the header table of spec to grid.
func MapRows(grid Grid, spec SheetSpec) Mapping {
	m := Mapping{Sheet: grid.Name}
	if len(grid.Rows) == 0 {
		for _, f := range spec.Fields {
			if f.Required {
				m.Missing = append(m.Missing, f.Header())
			}
		}
		return m
	}

	aliases := make(map[string]int)
	for i, f := range spec.Fields {
		aliases[normalizeHeader(f.Name)] = i
		for _, h := range f.Headers {
			aliases[normalizeHeader(h)] = i
		}
	}

	columns := make(map[int]int) // column index -> field index
	mapped := make(map[int]bool) // field index -> has a column
	for col, cell := range grid.Rows[0] {
		text := strings.TrimSpace(cell.Text)
		if text == "" {
			continue
		}
		fi, ok := aliases[normalizeHeader(text)]
		if !ok || mapped[fi] {
			m.Ignored = append(m.Ignored, text)
			continue
		}
		columns[col] = fi
		mapped[fi] = true
	}

	for i, f := range spec.Fields {
		if f.Required && !mapped[i] {
			m.Missing = append(m.Missing, f.Header())
		}
	}

	for r := 1; r < len(grid.Rows); r++ {
		cells := grid.Rows[r]
		if blankRow(cells) {
			continue
		}
		row := MappedRow{Row: r + 1, Sheet: grid.Name, Fields: make(map[string]any, len(columns))}
		for col, fi := range columns {
			var cell Cell
			if col < len(cells) {
				cell = cells[col]
			}
			row.Fields[spec.Fields[fi].Name] = coerce(cell, spec.Fields[fi])
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

func blankRow(cells []Cell) bool {
	for _, c := range cells {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

func coerce(c Cell, f FieldSpec) any {
	var s string
	switch c.Kind {
	case CellBlank:
		return ""
	case CellNumber:
		s = formatNumber(c.Number, f.Type)
	case CellDate:
		s = formatCalendar(c.Time)
	case CellBool:
		if f.Type == FieldBool {
			return c.Bool
		}
		s = strings.ToUpper(strconv.FormatBool(c.Bool))
	default:
		s = CleanCell(c.Text)
	}

	if s == "" {
		return ""
	}
	if f.Normalizer != nil {
		s = f.Normalizer(s)
	}

	switch f.Type {
	case FieldBool:
		if b, ok := ParseBool(s); ok {
			return b
		}
	case FieldEnum:
		for _, v := range f.EnumValues {
			if strings.EqualFold(v, s) {
				return v
			}
		}
	}
	return s
}

func formatNumber(v float64, t FieldType) string {
	if t.IsDate() && v > minDateSerial && v < maxDateSerial {
		if tm, err := excelize.ExcelDateToTime(v, false); err == nil {
			tm = tm.Round(time.Minute)
			if v != math.Trunc(v) {
				return tm.Format("2006-01-02 15:04")
			}
			return tm.Format("2006-01-02")
		}
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCalendar(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02 15:04")
}

// The accessors below assume the row passed ValidateCell for the field.

// Text returns the field as a trimmed string.
func (r MappedRow) Text(name string) string {
	switch v := r.Fields[name].(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Has reports whether the field carries a value.
func (r MappedRow) Has(name string) bool {
	switch v := r.Fields[name].(type) {
	case string:
		return v != ""
	case bool:
		return true
	}
	return false
}

// Bool returns the field as bool; blank is false.
func (r MappedRow) Bool(name string) bool {
	switch v := r.Fields[name].(type) {
	case bool:
		return v
	case string:
		b, _ := ParseBool(v)
		return b
	}
	return false
}

// Int returns the field as a whole number; blank is 0.
func (r MappedRow) Int(name string) int64 {
	n, _ := ParseInt(r.Text(name))
	return n
}

// Decimal returns the field as a decimal; blank is zero.
func (r MappedRow) Decimal(name string) decimal.Decimal {
	d, _ := ParseDecimal(r.Text(name))
	return d
}

// PgText returns the field as nullable text.
func (r MappedRow) PgText(name string) pgtype.Text {
	return ToPgText(r.Text(name))
}

// PgDate returns the field as a nullable date.
func (r MappedRow) PgDate(name string) pgtype.Date {
	return ToPgDate(r.Text(name))
}

// PgTimestamp returns the field as a nullable timestamp.
func (r MappedRow) PgTimestamp(name string) pgtype.Timestamp {
	return ToPgTimestamp(r.Text(name))
}

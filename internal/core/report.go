package core

// report.go renders workbooks for operators: an empty template per import
// and an error report listing a failed import's row errors.

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// TemplateWorkbook returns an xlsx with one sheet per declared sheet and the
// canonical header row.
func TemplateWorkbook(def Definition) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, sh := range def.Sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.Name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.Name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", sh.Name, err)
		}

		header := make([]any, len(sh.Fields))
		for j, fs := range sh.Fields {
			header[j] = fs.Header()
		}
		if err := writeHeader(f, sh.Name, header, bold); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write template: %w", err)
	}
	return buf.Bytes(), nil
}

// ErrorWorkbook returns an xlsx listing every reported error of res.
func ErrorWorkbook(res *Result) ([]byte, error) {
	const sheet = "Errors"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := writeHeader(f, sheet, []any{"Row", "Sheet", "Field", "Message"}, bold); err != nil {
		return nil, err
	}

	for i, e := range res.Errors {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{e.Row, e.Sheet, e.Field, e.Message}
		if e.Row == 0 {
			row[0] = ""
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write error row: %w", err)
		}
	}
	if err := f.SetColWidth(sheet, "D", "D", 80); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, header []any, style int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return f.SetColWidth(sheet, "A", "L", 18)
}

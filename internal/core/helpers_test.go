package core

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testSheet struct {
	name string
	rows [][]any
}

// buildWorkbook writes sheets to an in-memory xlsx.
func buildWorkbook(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", sh.name))
		} else {
			_, err := f.NewSheet(sh.name)
			require.NoError(t, err)
		}
		for r, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			vals := row
			require.NoError(t, f.SetSheetRow(sh.name, cell, &vals))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func textCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

func numberCell(n float64) Cell {
	return Cell{Kind: CellNumber, Number: n}
}

func gridOf(name string, rows ...[]Cell) Grid {
	return Grid{Name: name, Rows: rows}
}

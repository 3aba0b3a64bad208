package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWorkbook_DecodesCellTypes(t *testing.T) {
	data := buildWorkbook(t, testSheet{
		name: "Bookings",
		rows: [][]any{
			{"Booking Ref", "Pallets", "Hazardous", "Pickup Date"},
			{"BK-1", 6, true, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)},
		},
	})

	wb, err := ReadWorkbook(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bookings"}, wb.SheetNames())

	grid, err := wb.Select(SheetSpec{Name: "Bookings"})
	require.NoError(t, err)
	require.Len(t, grid.Rows, 2)

	row := grid.Rows[1]
	assert.Equal(t, CellText, row[0].Kind)
	assert.Equal(t, "BK-1", row[0].Text)
	assert.Equal(t, CellNumber, row[1].Kind)
	assert.Equal(t, 6.0, row[1].Number)
	assert.Equal(t, CellBool, row[2].Kind)
	assert.True(t, row[2].Bool)
	// Dates written by excelize are serial numbers with a date style.
	assert.Equal(t, CellNumber, row[3].Kind)
	assert.InDelta(t, 45356.0, row[3].Number, 0.0001)
}

func TestReadWorkbook_Unreadable(t *testing.T) {
	_, err := ReadWorkbook([]byte("not a zip archive"))

	var fe *FileFormatError
	require.True(t, errors.As(err, &fe))
	assert.Error(t, fe.Err)
	assert.Equal(t, "FILE006", MapError(err).Code)
}

func TestWorkbookSelect(t *testing.T) {
	wb := &Workbook{
		order: []string{"Summary", "booking list", "Notes"},
		sheets: map[string]Grid{
			"Summary":      {Name: "Summary"},
			"booking list": {Name: "booking list"},
			"Notes":        {Name: "Notes"},
		},
	}

	tests := []struct {
		name    string
		spec    SheetSpec
		want    string
		wantErr bool
	}{
		{name: "exact", spec: SheetSpec{Name: "Notes"}, want: "Notes"},
		{name: "case insensitive", spec: SheetSpec{Name: "SUMMARY"}, want: "Summary"},
		{name: "keyword", spec: SheetSpec{Name: "Bookings", Keywords: []string{"booking"}}, want: "booking list"},
		{name: "first sheet fallback", spec: SheetSpec{Name: "Carriers", Keywords: []string{"carrier"}}, want: "Summary"},
		{name: "exact required", spec: SheetSpec{Name: "Containers", RequireExact: true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := wb.Select(tt.spec)
			if tt.wantErr {
				var fe *FileFormatError
				require.True(t, errors.As(err, &fe))
				assert.Equal(t, []string{tt.spec.Name}, fe.Expected)
				assert.Contains(t, err.Error(), `expected sheet Containers`)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Name)
		})
	}
}

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mapperSpec = SheetSpec{
	Name: "Bookings",
	Fields: []FieldSpec{
		{Name: "booking_ref", Headers: []string{"Booking Ref", "Booking No"}, Required: true},
		{Name: "pickup_date", Headers: []string{"Pickup Date"}, Type: FieldDate},
		{Name: "cutoff_at", Headers: []string{"Cut-off"}, Type: FieldDateTime},
		{Name: "pallets", Headers: []string{"Pallets"}, Type: FieldInteger, Required: true},
		{Name: "hazardous", Headers: []string{"Hazardous"}, Type: FieldBool},
		{Name: "kind", Headers: []string{"Kind"}, Type: FieldEnum, EnumValues: []string{"warehouse", "port"}},
	},
}

func TestMapRows_Coercion(t *testing.T) {
	grid := gridOf("Bookings",
		[]Cell{textCell("booking  no"), textCell("Pickup Date"), textCell("Cut-off"), textCell("Pallets"), textCell("Hazardous"), textCell("Kind")},
		[]Cell{textCell(" BK-1 "), numberCell(45000), numberCell(45000.5), numberCell(5000), textCell("Ja"), textCell("PORT")},
	)

	m := MapRows(grid, mapperSpec)
	require.Len(t, m.Rows, 1)
	assert.Empty(t, m.Ignored)
	assert.Empty(t, m.Missing)

	row := m.Rows[0]
	assert.Equal(t, 2, row.Row)
	assert.Equal(t, "BK-1", row.Fields["booking_ref"])
	assert.Equal(t, "2023-03-15", row.Fields["pickup_date"])
	assert.Equal(t, "2023-03-15 12:00", row.Fields["cutoff_at"])
	// A quantity in the serial range stays a number: the field is not a date.
	assert.Equal(t, "5000", row.Fields["pallets"])
	assert.Equal(t, true, row.Fields["hazardous"])
	assert.Equal(t, "port", row.Fields["kind"])
}

func TestMapRows_DateSerialBounds(t *testing.T) {
	grid := gridOf("S",
		[]Cell{textCell("Pickup Date")},
		[]Cell{numberCell(1000)},
		[]Cell{numberCell(100000)},
		[]Cell{numberCell(1001)},
	)

	m := MapRows(grid, mapperSpec)
	require.Len(t, m.Rows, 3)
	assert.Equal(t, "1000", m.Rows[0].Fields["pickup_date"])
	assert.Equal(t, "100000", m.Rows[1].Fields["pickup_date"])
	assert.Regexp(t, `^1902-\d{2}-\d{2}$`, m.Rows[2].Fields["pickup_date"])
}

func TestMapRows_NativeDateCell(t *testing.T) {
	grid := gridOf("S",
		[]Cell{textCell("Pickup Date"), textCell("Cut-off")},
		[]Cell{
			{Kind: CellDate, Time: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)},
			{Kind: CellDate, Time: time.Date(2024, 7, 1, 23, 45, 0, 0, time.FixedZone("X", 5*3600))},
		},
	)

	m := MapRows(grid, mapperSpec)
	require.Len(t, m.Rows, 1)
	assert.Equal(t, "2024-07-01", m.Rows[0].Fields["pickup_date"])
	assert.Equal(t, "2024-07-01 23:45", m.Rows[0].Fields["cutoff_at"])
}

func TestMapRows_HeadersAndBlankRows(t *testing.T) {
	grid := gridOf("S",
		[]Cell{textCell("Booking Ref"), textCell("Colour"), textCell("Booking No")},
		[]Cell{textCell("BK-1")},
		[]Cell{textCell(""), {}},
		[]Cell{textCell("BK-2"), textCell("red")},
	)

	m := MapRows(grid, mapperSpec)
	// Second alias of an already-mapped field is ignored too.
	assert.Equal(t, []string{"Colour", "Booking No"}, m.Ignored)
	assert.Equal(t, []string{"Pallets"}, m.Missing)
	require.NotNil(t, m.Gap())
	assert.Equal(t, "S", m.Gap().Sheet)

	require.Len(t, m.Rows, 2)
	assert.Equal(t, 2, m.Rows[0].Row)
	assert.Equal(t, 4, m.Rows[1].Row)
}

func TestMapRows_BoolLeftAsTextForTextFields(t *testing.T) {
	spec := SheetSpec{Fields: []FieldSpec{
		{Name: "note", Headers: []string{"Note"}},
		{Name: "flag", Headers: []string{"Flag"}, Type: FieldBool},
	}}
	grid := gridOf("S",
		[]Cell{textCell("Note"), textCell("Flag")},
		[]Cell{textCell("yes"), textCell("maybe")},
		[]Cell{{Kind: CellBool, Bool: true}, {Kind: CellBool, Bool: false}},
	)

	m := MapRows(grid, spec)
	require.Len(t, m.Rows, 2)
	assert.Equal(t, "yes", m.Rows[0].Fields["note"])
	assert.Equal(t, "maybe", m.Rows[0].Fields["flag"])
	assert.Equal(t, "TRUE", m.Rows[1].Fields["note"])
	assert.Equal(t, false, m.Rows[1].Fields["flag"])
}

func TestMappedRowAccessors(t *testing.T) {
	row := MappedRow{Fields: map[string]any{
		"pallets": "12",
		"weight":  "1,250.5 kg",
		"flag":    true,
		"date":    "2024-03-05",
		"blank":   "",
	}}

	assert.Equal(t, int64(12), row.Int("pallets"))
	assert.Equal(t, "1250.5", row.Decimal("weight").String())
	assert.True(t, row.Bool("flag"))
	assert.True(t, row.PgDate("date").Valid)
	assert.False(t, row.PgText("blank").Valid)
	assert.False(t, row.Has("blank"))
	assert.False(t, row.Has("missing"))
}

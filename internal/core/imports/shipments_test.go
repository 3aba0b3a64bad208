package imports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/JonMunkholm/palletflow/internal/database/memstore"
)

func shipmentsFile(t *testing.T, containers, schedule [][]any) []byte {
	t.Helper()
	return buildWorkbook(t,
		testSheet{name: "Containers", rows: append([][]any{{"Booking Ref", "Container No", "Seal No", "Vessel"}}, containers...)},
		testSheet{name: "Schedule", rows: append([][]any{{"Booking Ref", "ETD", "ETA", "Status"}}, schedule...)},
	)
}

func TestShipments_MergesSheets(t *testing.T) {
	s := memstore.New()
	bk1 := s.SeedBooking("BK-1")
	bk2 := s.SeedBooking("BK-2")

	data := shipmentsFile(t,
		[][]any{{"bk-1", "MSKU1234567", "SL-9", "Maersk Elba"}},
		[][]any{
			{"BK-1", "2024-03-10", "2024-03-24", ""},
			{"BK-2", "2024-03-11", "", "Departed"},
		},
	)

	res, err := newService(s).Import(asRole(RoleWarehouse), "shipments", data, core.ImportOptions{})
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", messages(res))
	assert.Equal(t, 2, *res.Total)
	assert.Equal(t, 2, *res.Imported)

	b1, _ := s.Booking("BK-1")
	assert.Equal(t, "MSKU1234567", b1.ContainerNo.String)
	assert.Equal(t, "Maersk Elba", b1.Vessel.String)
	assert.Equal(t, "2024-03-24", dateText(b1.Eta))

	status, ok := s.ShipmentStatus(bk1)
	require.True(t, ok)
	assert.Equal(t, database.ShipmentPending, status)

	status, _ = s.ShipmentStatus(bk2)
	assert.Equal(t, database.ShipmentDeparted, status)

	b2, _ := s.Booking("BK-2")
	assert.False(t, b2.ContainerNo.Valid)
}

func TestShipments_UnknownBooking(t *testing.T) {
	s := memstore.New()
	s.SeedBooking("BK-1")

	data := shipmentsFile(t,
		[][]any{{"BK-1", "MSKU1234567", "", ""}, {"BK-9", "TGHU7654321", "", ""}},
		nil,
	)
	res, err := newService(s).Import(asRole(RolePlanner), "shipments", data, core.ImportOptions{})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, core.KindReferenceNotFound, res.Kind)
	assert.Equal(t, []string{`booking_ref "BK-9" not found`}, messages(res))

	b1, _ := s.Booking("BK-1")
	assert.False(t, b1.ContainerNo.Valid, "batch is atomic")
	assert.Zero(t, s.Counts().Statuses)
}

func TestShipments_Validation(t *testing.T) {
	s := memstore.New()
	s.SeedBooking("BK-1")

	data := shipmentsFile(t,
		nil,
		[][]any{
			{"BK-1", "2024-03-10", "2024-03-01", ""},
			{"BK-1", "", "", "lost"},
		},
	)
	res, err := newService(s).Import(asRole(RolePlanner), "shipments", data, core.ImportOptions{})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, core.KindRowValidation, res.Kind)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0].Message, "ETA 2024-03-01 is before ETD 2024-03-10")
	assert.Contains(t, res.Errors[1].Message, `invalid enum value "lost"`)
}

func TestShipments_MissingSheet(t *testing.T) {
	s := memstore.New()
	data := buildWorkbook(t, testSheet{name: "Containers", rows: [][]any{{"Booking Ref", "Container No"}, {"BK-1", "MSKU1234567"}}})

	res, err := newService(s).Import(asRole(RolePlanner), "shipments", data, core.ImportOptions{})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, core.KindFileFormat, res.Kind)
	assert.Equal(t, "FILE006", res.Code)
}

func TestShipments_DuplicateKeyWithinSheet(t *testing.T) {
	s := memstore.New()
	s.SeedBooking("BK-1")

	data := shipmentsFile(t,
		[][]any{
			{"BK-1", "MSKU1111111", "", ""},
			{"bk-1 ", "TGHU2222222", "", ""},
		},
		[][]any{{"BK-1", "2024-03-10", "", ""}},
	)
	res, err := newService(s).Import(asRole(RolePlanner), "shipments", data, core.ImportOptions{})
	require.NoError(t, err)
	require.False(t, res.Success)
	assert.Equal(t, core.KindDuplicateKey, res.Kind)

	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Containers", res.Errors[0].Sheet)
	assert.Equal(t, 3, res.Errors[0].Row)
	assert.Equal(t, `duplicate booking_ref "BK-1" on rows 2 and 3`, res.Errors[0].Message)

	b1, _ := s.Booking("BK-1")
	assert.False(t, b1.ContainerNo.Valid, "nothing is written")
	assert.Zero(t, s.Counts().Statuses)
}

package imports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/database"
)

// containerRow is one row of the Containers sheet.
type containerRow struct {
	BookingRef  string `field:"booking_ref" validate:"required"`
	ContainerNo string `field:"container_no" validate:"required,max=11"`
	SealNo      string `field:"seal_no" validate:"max=20"`
	Vessel      string `field:"vessel" validate:"max=80"`
}

// scheduleRow is one row of the Schedule sheet.
type scheduleRow struct {
	BookingRef string      `field:"booking_ref" validate:"required"`
	Etd        pgtype.Date `field:"etd"`
	Eta        pgtype.Date `field:"eta"`
	Status     string      `field:"status"`
}

// shipmentUpdate is a booking_ref merged across both sheets.
type shipmentUpdate struct {
	BookingRef  string      `field:"booking_ref" validate:"required"`
	ContainerNo pgtype.Text `field:"container_no"`
	SealNo      pgtype.Text `field:"seal_no"`
	Vessel      pgtype.Text `field:"vessel"`
	Etd         pgtype.Date `field:"etd"`
	Eta         pgtype.Date `field:"eta"`
	Status      string      `field:"status"`
}

func shipmentsImport() core.Definition {
	ref := core.FieldSpec{Name: "booking_ref", Headers: []string{"Booking Ref", "Booking No", "Booking"}, Required: true, Normalizer: upperCode}
	return core.Definition{
		Info: core.ImportInfo{
			Key:   "shipments",
			Group: groupOperations,
			Label: "Shipment updates",
			Mode:  core.ModeMerge,
			Roles: []string{RoleAdmin, RolePlanner, RoleWarehouse},
		},
		MergeKey: "booking_ref",
		Sheets: []core.SheetSpec{
			{
				Name: "Containers",
				Fields: []core.FieldSpec{
					ref,
					{Name: "container_no", Headers: []string{"Container No", "Container"}, Required: true, Normalizer: upperCode},
					{Name: "seal_no", Headers: []string{"Seal No", "Seal"}},
					{Name: "vessel", Headers: []string{"Vessel"}},
				},
				Build: func(r core.MappedRow) (any, error) {
					return containerRow{
						BookingRef:  r.Text("booking_ref"),
						ContainerNo: r.Text("container_no"),
						SealNo:      r.Text("seal_no"),
						Vessel:      r.Text("vessel"),
					}, nil
				},
			},
			{
				Name: "Schedule",
				Fields: []core.FieldSpec{
					ref,
					{Name: "etd", Headers: []string{"ETD"}, Type: core.FieldDate},
					{Name: "eta", Headers: []string{"ETA"}, Type: core.FieldDate},
					{Name: "status", Headers: []string{"Status"}, Type: core.FieldEnum, EnumValues: database.ShipmentStatuses},
				},
				Build: buildScheduleRow,
			},
		},
		Build: func(r core.MappedRow) (any, error) {
			return shipmentUpdate{
				BookingRef:  r.Text("booking_ref"),
				ContainerNo: r.PgText("container_no"),
				SealNo:      r.PgText("seal_no"),
				Vessel:      r.PgText("vessel"),
				Etd:         r.PgDate("etd"),
				Eta:         r.PgDate("eta"),
				Status:      r.Text("status"),
			}, nil
		},
		Preload: preloadShipments,
		Check:   checkShipments,
		Commit:  commitShipments,
	}
}

func buildScheduleRow(r core.MappedRow) (any, error) {
	s := scheduleRow{
		BookingRef: r.Text("booking_ref"),
		Etd:        r.PgDate("etd"),
		Eta:        r.PgDate("eta"),
		Status:     r.Text("status"),
	}
	if s.Etd.Valid && s.Eta.Valid && s.Eta.Time.Before(s.Etd.Time) {
		return nil, core.FieldError("eta", "ETA %s is before ETD %s", dateText(s.Eta), dateText(s.Etd))
	}
	return s, nil
}

func shipmentRef(r core.Record) string { return r.Value.(shipmentUpdate).BookingRef }

// preloadShipments resolves booking references to ids.
func preloadShipments(ctx context.Context, q database.Querier, b *core.Batch) (any, error) {
	found, err := q.BookingsByRefs(ctx, core.Keys(b.Records, shipmentRef))
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}
	ids := make(map[string]uuid.UUID, len(found))
	for _, bk := range found {
		ids[bk.BookingRef] = bk.ID
	}
	return ids, nil
}

// checkShipments only verifies that every booking exists: this import
// updates, it never creates.
func checkShipments(_ context.Context, b *core.Batch) error {
	ids := b.Snapshot.(map[string]uuid.UUID)
	return core.RunChecks(core.CheckStep{Kind: core.KindReferenceNotFound, Run: func() []core.RowError {
		return core.CheckReferences(b.Records, "booking_ref", shipmentRef, func(ref string) bool {
			_, ok := ids[ref]
			return ok
		})
	}})
}

func commitShipments(ctx context.Context, q database.Querier, b *core.Batch) (core.CommitResult, error) {
	ids := b.Snapshot.(map[string]uuid.UUID)
	for _, rec := range b.Records {
		u := rec.Value.(shipmentUpdate)
		id := ids[u.BookingRef]

		n, err := q.UpdateBookingShipment(ctx, database.UpdateBookingShipmentParams{
			ID:          id,
			ContainerNo: u.ContainerNo,
			SealNo:      u.SealNo,
			Vessel:      u.Vessel,
			Etd:         u.Etd,
			Eta:         u.Eta,
		})
		if err != nil {
			return core.CommitResult{}, fmt.Errorf("row %d: update booking %s: %w", rec.Row, u.BookingRef, err)
		}
		if n == 0 {
			return core.CommitResult{}, core.NewBatchError(core.KindReferenceNotFound, []core.RowError{{
				Row: rec.Row, Sheet: rec.Sheet, Field: "booking_ref",
				Message: fmt.Sprintf("booking_ref %q not found", u.BookingRef),
			}})
		}

		if u.Status != "" {
			err = q.SetShipmentStatus(ctx, id, u.Status)
		} else {
			err = provisionShipmentStatus(ctx, q, id)
		}
		if err != nil {
			return core.CommitResult{}, fmt.Errorf("row %d: shipment status %s: %w", rec.Row, u.BookingRef, err)
		}
	}
	return core.CommitResult{}, nil
}

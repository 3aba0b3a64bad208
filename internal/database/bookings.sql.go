package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

const existingBookingRefs = `-- name: ExistingBookingRefs :many
SELECT booking_ref FROM bookings WHERE booking_ref = ANY($1::text[]) ORDER BY booking_ref
`

func (q *Queries) ExistingBookingRefs(ctx context.Context, refs []string) ([]string, error) {
	return q.collectStrings(ctx, existingBookingRefs, refs)
}

const bookingsByRefs = `-- name: BookingsByRefs :many
SELECT id, booking_ref FROM bookings WHERE booking_ref = ANY($1::text[]) ORDER BY booking_ref
`

func (q *Queries) BookingsByRefs(ctx context.Context, refs []string) ([]BookingRef, error) {
	rows, err := q.db.Query(ctx, bookingsByRefs, refs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BookingRef
	for rows.Next() {
		var i BookingRef
		if err := rows.Scan(&i.ID, &i.BookingRef); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertBooking = `-- name: InsertBooking :exec
INSERT INTO bookings (id, booking_ref, carrier_id, warehouse_id, pickup_date, cutoff_at, notes, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertBookingParams struct {
	ID          uuid.UUID
	BookingRef  string
	CarrierID   uuid.UUID
	WarehouseID uuid.UUID
	PickupDate  pgtype.Date
	CutoffAt    pgtype.Timestamp
	Notes       pgtype.Text
	CreatedBy   string
}

func (q *Queries) InsertBooking(ctx context.Context, arg InsertBookingParams) error {
	_, err := q.db.Exec(ctx, insertBooking,
		arg.ID,
		arg.BookingRef,
		arg.CarrierID,
		arg.WarehouseID,
		arg.PickupDate,
		arg.CutoffAt,
		arg.Notes,
		arg.CreatedBy,
	)
	return err
}

const insertBookingLine = `-- name: InsertBookingLine :exec
INSERT INTO booking_lines (id, booking_id, order_line_id, pallets, weight_kg, hazardous, accounting, source_row)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

type InsertBookingLineParams struct {
	ID          uuid.UUID
	BookingID   uuid.UUID
	OrderLineID uuid.UUID
	Pallets     int64
	WeightKg    decimal.Decimal
	Hazardous   bool
	Accounting  string
	SourceRow   int32
}

func (q *Queries) InsertBookingLine(ctx context.Context, arg InsertBookingLineParams) error {
	_, err := q.db.Exec(ctx, insertBookingLine,
		arg.ID,
		arg.BookingID,
		arg.OrderLineID,
		arg.Pallets,
		arg.WeightKg,
		arg.Hazardous,
		arg.Accounting,
		arg.SourceRow,
	)
	return err
}

// Absent (invalid) fields keep their stored value.
const updateBookingShipment = `-- name: UpdateBookingShipment :execrows
UPDATE bookings
SET container_no = COALESCE($2, container_no),
    seal_no      = COALESCE($3, seal_no),
    vessel       = COALESCE($4, vessel),
    etd          = COALESCE($5, etd),
    eta          = COALESCE($6, eta),
    updated_at   = now()
WHERE id = $1
`

type UpdateBookingShipmentParams struct {
	ID          uuid.UUID
	ContainerNo pgtype.Text
	SealNo      pgtype.Text
	Vessel      pgtype.Text
	Etd         pgtype.Date
	Eta         pgtype.Date
}

func (q *Queries) UpdateBookingShipment(ctx context.Context, arg UpdateBookingShipmentParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateBookingShipment,
		arg.ID,
		arg.ContainerNo,
		arg.SealNo,
		arg.Vessel,
		arg.Etd,
		arg.Eta,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

package database

import (
	"context"

	"github.com/google/uuid"
)

const ensureShipmentStatus = `-- name: EnsureShipmentStatus :execrows
INSERT INTO shipment_status (booking_id, status)
VALUES ($1, $2)
ON CONFLICT (booking_id) DO NOTHING
`

// EnsureShipmentStatus creates the status record if absent and reports
// whether a row was created.
func (q *Queries) EnsureShipmentStatus(ctx context.Context, bookingID uuid.UUID, status string) (bool, error) {
	result, err := q.db.Exec(ctx, ensureShipmentStatus, bookingID, status)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

const setShipmentStatus = `-- name: SetShipmentStatus :exec
INSERT INTO shipment_status (booking_id, status)
VALUES ($1, $2)
ON CONFLICT (booking_id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()
`

func (q *Queries) SetShipmentStatus(ctx context.Context, bookingID uuid.UUID, status string) error {
	_, err := q.db.Exec(ctx, setShipmentStatus, bookingID, status)
	return err
}

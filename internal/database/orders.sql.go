package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const existingOrderNos = `-- name: ExistingOrderNos :many
SELECT order_no FROM orders WHERE order_no = ANY($1::text[]) ORDER BY order_no
`

func (q *Queries) ExistingOrderNos(ctx context.Context, orderNos []string) ([]string, error) {
	return q.collectStrings(ctx, existingOrderNos, orderNos)
}

const insertOrder = `-- name: InsertOrder :exec
INSERT INTO orders (id, order_no, customer, order_date)
VALUES ($1, $2, $3, $4)
`

type InsertOrderParams struct {
	ID        uuid.UUID
	OrderNo   string
	Customer  string
	OrderDate pgtype.Date
}

func (q *Queries) InsertOrder(ctx context.Context, arg InsertOrderParams) error {
	_, err := q.db.Exec(ctx, insertOrder, arg.ID, arg.OrderNo, arg.Customer, arg.OrderDate)
	return err
}

const insertOrderLine = `-- name: InsertOrderLine :exec
INSERT INTO order_lines (id, order_id, destination_code, category, estimated_pallets)
VALUES ($1, $2, $3, $4, $5)
`

type InsertOrderLineParams struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	DestinationCode  string
	Category         string
	EstimatedPallets int64
}

func (q *Queries) InsertOrderLine(ctx context.Context, arg InsertOrderLineParams) error {
	_, err := q.db.Exec(ctx, insertOrderLine,
		arg.ID,
		arg.OrderID,
		arg.DestinationCode,
		arg.Category,
		arg.EstimatedPallets,
	)
	return err
}

const poolColumns = `ol.id, o.id, o.order_no, ol.destination_code, ol.category,
       ol.estimated_pallets, ol.remaining_pallets,
       i.id, COALESCE(i.physical_pallets, 0), COALESCE(i.unbooked_pallets, 0)`

const poolsByOrderNos = `-- name: PoolsByOrderNos :many
SELECT ` + poolColumns + `
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
LEFT JOIN inventory i ON i.order_line_id = ol.id
WHERE o.order_no = ANY($1::text[])
ORDER BY o.order_no, ol.destination_code, ol.category
`

func (q *Queries) PoolsByOrderNos(ctx context.Context, orderNos []string) ([]Pool, error) {
	return q.queryPools(ctx, poolsByOrderNos, orderNos)
}

// Only the order line row is locked; an outer-joined inventory row cannot be.
// Every writer of inventory counters goes through this lock first.
const lockPools = `-- name: LockPools :many
SELECT ` + poolColumns + `
FROM order_lines ol
JOIN orders o ON o.id = ol.order_id
LEFT JOIN inventory i ON i.order_line_id = ol.id
WHERE ol.id = ANY($1::uuid[])
ORDER BY ol.id
FOR UPDATE OF ol
`

func (q *Queries) LockPools(ctx context.Context, lineIDs []uuid.UUID) ([]Pool, error) {
	return q.queryPools(ctx, lockPools, lineIDs)
}

func (q *Queries) queryPools(ctx context.Context, query string, arg any) ([]Pool, error) {
	rows, err := q.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Pool
	for rows.Next() {
		var i Pool
		if err := rows.Scan(
			&i.LineID,
			&i.OrderID,
			&i.OrderNo,
			&i.DestinationCode,
			&i.Category,
			&i.EstimatedPallets,
			&i.RemainingPallets,
			&i.InventoryID,
			&i.PhysicalPallets,
			&i.UnbookedPallets,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const decrementRemaining = `-- name: DecrementRemaining :execrows
UPDATE order_lines
SET remaining_pallets = COALESCE(remaining_pallets, estimated_pallets) - $2
WHERE id = $1
  AND COALESCE(remaining_pallets, estimated_pallets) >= $2
`

// DecrementRemaining returns the number of rows updated; zero means the
// line no longer has enough remaining pallets.
func (q *Queries) DecrementRemaining(ctx context.Context, lineID uuid.UUID, pallets int64) (int64, error) {
	result, err := q.db.Exec(ctx, decrementRemaining, lineID, pallets)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func (q *Queries) collectStrings(ctx context.Context, query string, arg any) ([]string, error) {
	rows, err := q.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

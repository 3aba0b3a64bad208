package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const carriersByCodes = `-- name: CarriersByCodes :many
SELECT id, code, name, scac
FROM carriers
WHERE code = ANY($1::text[])
ORDER BY code
`

func (q *Queries) CarriersByCodes(ctx context.Context, codes []string) ([]Carrier, error) {
	rows, err := q.db.Query(ctx, carriersByCodes, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Carrier
	for rows.Next() {
		var i Carrier
		if err := rows.Scan(&i.ID, &i.Code, &i.Name, &i.Scac); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertCarrier = `-- name: InsertCarrier :exec
INSERT INTO carriers (id, code, name, scac)
VALUES ($1, $2, $3, $4)
`

type InsertCarrierParams struct {
	ID   uuid.UUID
	Code string
	Name string
	Scac pgtype.Text
}

func (q *Queries) InsertCarrier(ctx context.Context, arg InsertCarrierParams) error {
	_, err := q.db.Exec(ctx, insertCarrier, arg.ID, arg.Code, arg.Name, arg.Scac)
	return err
}

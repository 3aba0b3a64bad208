package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const locationsByCodes = `-- name: LocationsByCodes :many
SELECT id, code, name, kind, city, active
FROM locations
WHERE code = ANY($1::text[])
ORDER BY code
`

func (q *Queries) LocationsByCodes(ctx context.Context, codes []string) ([]Location, error) {
	rows, err := q.db.Query(ctx, locationsByCodes, codes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Location
	for rows.Next() {
		var i Location
		if err := rows.Scan(&i.ID, &i.Code, &i.Name, &i.Kind, &i.City, &i.Active); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertLocation = `-- name: InsertLocation :exec
INSERT INTO locations (id, code, name, kind, city, active)
VALUES ($1, $2, $3, $4, $5, $6)
`

type InsertLocationParams struct {
	ID     uuid.UUID
	Code   string
	Name   string
	Kind   string
	City   pgtype.Text
	Active bool
}

func (q *Queries) InsertLocation(ctx context.Context, arg InsertLocationParams) error {
	_, err := q.db.Exec(ctx, insertLocation,
		arg.ID,
		arg.Code,
		arg.Name,
		arg.Kind,
		arg.City,
		arg.Active,
	)
	return err
}

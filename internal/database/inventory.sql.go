package database

import (
	"context"

	"github.com/google/uuid"
)

const decrementUnbooked = `-- name: DecrementUnbooked :execrows
UPDATE inventory
SET unbooked_pallets = unbooked_pallets - $2,
    updated_at = now()
WHERE id = $1
  AND unbooked_pallets >= $2
`

// DecrementUnbooked returns the number of rows updated; zero means the
// inventory record no longer has enough unbooked pallets.
func (q *Queries) DecrementUnbooked(ctx context.Context, inventoryID uuid.UUID, pallets int64) (int64, error) {
	result, err := q.db.Exec(ctx, decrementUnbooked, inventoryID, pallets)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// Package allocation decides whether a batch of booking requests fits into
// the capacity pools it draws from, and performs the decrements.
//
// A pool is one order line. Its accounting mode depends on whether goods
// have been received for it:
//
//   - Stocked: physical pallets are on hand; capacity is the inventory
//     record's unbooked counter.
//   - Unstocked: nothing received yet; capacity is the line's remaining
//     counter, or its original estimate if remaining was never set.
//
// The mode is fixed when the pool is built and selects exactly one
// decrement path.
package allocation

import (
	"fmt"

	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/google/uuid"
)

// Mode names the counter a pool is drawn from.
type Mode string

const (
	ModeStocked   Mode = database.AccountingStocked
	ModeUnstocked Mode = database.AccountingUnstocked
)

// Key is the natural key of a pool: order number, destination code, category.
type Key struct {
	OrderNo     string
	Destination string
	Category    string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.OrderNo, k.Destination, k.Category)
}

// Pool is either Stocked or Unstocked.
type Pool interface {
	PoolKey() Key
	OrderLineID() uuid.UUID
	Available() int64
	Mode() Mode
	isPool()
}

// Stocked draws from the inventory record's unbooked counter.
type Stocked struct {
	Key         Key
	LineID      uuid.UUID
	InventoryID uuid.UUID
	Unbooked    int64
}

func (p Stocked) PoolKey() Key           { return p.Key }
func (p Stocked) OrderLineID() uuid.UUID { return p.LineID }
func (p Stocked) Available() int64       { return p.Unbooked }
func (p Stocked) Mode() Mode             { return ModeStocked }
func (Stocked) isPool()                  {}

// Unstocked draws from the order line's remaining counter.
type Unstocked struct {
	Key       Key
	LineID    uuid.UUID
	Remaining int64
}

func (p Unstocked) PoolKey() Key           { return p.Key }
func (p Unstocked) OrderLineID() uuid.UUID { return p.LineID }
func (p Unstocked) Available() int64       { return p.Remaining }
func (p Unstocked) Mode() Mode             { return ModeUnstocked }
func (Unstocked) isPool()                  {}

// KeyOf returns the natural key of a stored pool row.
func KeyOf(row database.Pool) Key {
	return Key{OrderNo: row.OrderNo, Destination: row.DestinationCode, Category: row.Category}
}

// FromRow builds the pool variant for a stored order line.
func FromRow(row database.Pool) Pool {
	key := KeyOf(row)
	if row.PhysicalPallets > 0 && row.InventoryID.Valid {
		return Stocked{
			Key:         key,
			LineID:      row.LineID,
			InventoryID: uuid.UUID(row.InventoryID.Bytes),
			Unbooked:    row.UnbookedPallets,
		}
	}
	remaining := row.EstimatedPallets
	if row.RemainingPallets.Valid {
		remaining = row.RemainingPallets.Int64
	}
	return Unstocked{Key: key, LineID: row.LineID, Remaining: remaining}
}

// Index builds pool variants keyed by natural key.
func Index(rows []database.Pool) map[Key]Pool {
	pools := make(map[Key]Pool, len(rows))
	for _, row := range rows {
		pools[KeyOf(row)] = FromRow(row)
	}
	return pools
}

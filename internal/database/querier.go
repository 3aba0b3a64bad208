package database

import (
	"context"

	"github.com/google/uuid"
)

// Querier is the full query surface used by the import definitions.
// *Queries is the Postgres implementation; memstore provides another.
type Querier interface {
	LocationsByCodes(ctx context.Context, codes []string) ([]Location, error)
	InsertLocation(ctx context.Context, arg InsertLocationParams) error

	CarriersByCodes(ctx context.Context, codes []string) ([]Carrier, error)
	InsertCarrier(ctx context.Context, arg InsertCarrierParams) error

	ExistingOrderNos(ctx context.Context, orderNos []string) ([]string, error)
	InsertOrder(ctx context.Context, arg InsertOrderParams) error
	InsertOrderLine(ctx context.Context, arg InsertOrderLineParams) error

	PoolsByOrderNos(ctx context.Context, orderNos []string) ([]Pool, error)
	LockPools(ctx context.Context, lineIDs []uuid.UUID) ([]Pool, error)
	DecrementRemaining(ctx context.Context, lineID uuid.UUID, pallets int64) (int64, error)
	DecrementUnbooked(ctx context.Context, inventoryID uuid.UUID, pallets int64) (int64, error)

	ExistingBookingRefs(ctx context.Context, refs []string) ([]string, error)
	BookingsByRefs(ctx context.Context, refs []string) ([]BookingRef, error)
	InsertBooking(ctx context.Context, arg InsertBookingParams) error
	InsertBookingLine(ctx context.Context, arg InsertBookingLineParams) error
	UpdateBookingShipment(ctx context.Context, arg UpdateBookingShipmentParams) (int64, error)

	EnsureShipmentStatus(ctx context.Context, bookingID uuid.UUID, status string) (bool, error)
	SetShipmentStatus(ctx context.Context, bookingID uuid.UUID, status string) error
}

var _ Querier = (*Queries)(nil)

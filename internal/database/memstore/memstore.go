// Package memstore is an in-memory implementation of the import store.
//
// It keeps every table in maps and gives transactions clone-and-swap
// semantics: InTx works on a private copy of the state and publishes it only
// when the callback succeeds. Transactions are serialized, so the check and
// the decrement of a capacity counter can never interleave with another
// import. Used by the memory store driver and by tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	state *state
}

func New() *Store {
	return &Store{state: newState()}
}

// Querier returns a point-in-time snapshot. Writes made through it are
// discarded; use InTx to persist.
func (s *Store) Querier() database.Querier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &tx{st: s.state.clone()}
}

// InTx runs fn against a private copy of the data and publishes the copy
// only if fn returns nil.
func (s *Store) InTx(ctx context.Context, fn func(q database.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(&tx{st: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Booking is the stored form of a booking row.
type Booking struct {
	ID          uuid.UUID
	BookingRef  string
	CarrierID   uuid.UUID
	WarehouseID uuid.UUID
	PickupDate  pgtype.Date
	CutoffAt    pgtype.Timestamp
	ContainerNo pgtype.Text
	SealNo      pgtype.Text
	Vessel      pgtype.Text
	Etd         pgtype.Date
	Eta         pgtype.Date
	Notes       pgtype.Text
	CreatedBy   string
}

type order struct {
	ID        uuid.UUID
	OrderNo   string
	Customer  string
	OrderDate pgtype.Date
}

type orderLine struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	DestinationCode  string
	Category         string
	EstimatedPallets int64
	RemainingPallets pgtype.Int8
}

type inventory struct {
	ID              uuid.UUID
	OrderLineID     uuid.UUID
	PhysicalPallets int64
	UnbookedPallets int64
}

type shipmentStatus struct {
	Status    string
	UpdatedAt time.Time
}

type state struct {
	locations map[string]database.Location // by code
	carriers  map[string]database.Carrier  // by code
	orders    map[string]order             // by order_no
	lines     map[uuid.UUID]orderLine
	inventory map[uuid.UUID]inventory // by order line id
	bookings  map[string]Booking      // by booking_ref
	lineItems []database.BookingLine
	statuses  map[uuid.UUID]shipmentStatus
}

func newState() *state {
	return &state{
		locations: make(map[string]database.Location),
		carriers:  make(map[string]database.Carrier),
		orders:    make(map[string]order),
		lines:     make(map[uuid.UUID]orderLine),
		inventory: make(map[uuid.UUID]inventory),
		bookings:  make(map[string]Booking),
		statuses:  make(map[uuid.UUID]shipmentStatus),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.locations {
		c.locations[k] = v
	}
	for k, v := range s.carriers {
		c.carriers[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.lines {
		c.lines[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	c.lineItems = append([]database.BookingLine(nil), s.lineItems...)
	for k, v := range s.statuses {
		c.statuses[k] = v
	}
	return c
}

func (s *state) orderByID(id uuid.UUID) (order, bool) {
	for _, o := range s.orders {
		if o.ID == id {
			return o, true
		}
	}
	return order{}, false
}

func (s *state) pool(line orderLine) database.Pool {
	p := database.Pool{
		LineID:           line.ID,
		OrderID:          line.OrderID,
		DestinationCode:  line.DestinationCode,
		Category:         line.Category,
		EstimatedPallets: line.EstimatedPallets,
		RemainingPallets: line.RemainingPallets,
	}
	if o, ok := s.orderByID(line.OrderID); ok {
		p.OrderNo = o.OrderNo
	}
	if inv, ok := s.inventory[line.ID]; ok {
		p.InventoryID = pgtype.UUID{Bytes: inv.ID, Valid: true}
		p.PhysicalPallets = inv.PhysicalPallets
		p.UnbookedPallets = inv.UnbookedPallets
	}
	return p
}

func (s *state) bookingByID(id uuid.UUID) (Booking, bool) {
	for _, b := range s.bookings {
		if b.ID == id {
			return b, true
		}
	}
	return Booking{}, false
}

func sortedPools(pools []database.Pool) []database.Pool {
	sort.Slice(pools, func(i, j int) bool {
		if pools[i].OrderNo != pools[j].OrderNo {
			return pools[i].OrderNo < pools[j].OrderNo
		}
		if pools[i].DestinationCode != pools[j].DestinationCode {
			return pools[i].DestinationCode < pools[j].DestinationCode
		}
		return pools[i].Category < pools[j].Category
	})
	return pools
}

func uniqueViolation(table, key string) error {
	return fmt.Errorf("duplicate key value violates unique constraint %q (%s)", table+"_key", key)
}

func foreignKeyViolation(table string) error {
	return fmt.Errorf("insert or update on table %q violates foreign key constraint", table)
}

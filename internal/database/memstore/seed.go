package memstore

import (
	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Seed helpers write straight into the published state. They exist for the
// memory driver's demo data and for tests.

func (s *Store) SeedLocation(code, kind string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.locations[code] = database.Location{ID: id, Code: code, Name: code, Kind: kind, Active: true}
	return id
}

func (s *Store) SeedCarrier(code, name string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.carriers[code] = database.Carrier{ID: id, Code: code, Name: name}
	return id
}

// SeedOrderLine creates the order on first use and returns the line id.
func (s *Store) SeedOrderLine(orderNo, destination, category string, estimated int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[orderNo]
	if !ok {
		o = order{ID: uuid.New(), OrderNo: orderNo, Customer: "seed"}
		s.state.orders[orderNo] = o
	}
	id := uuid.New()
	s.state.lines[id] = orderLine{
		ID:               id,
		OrderID:          o.ID,
		DestinationCode:  destination,
		Category:         category,
		EstimatedPallets: estimated,
	}
	return id
}

func (s *Store) SetLocationActive(code string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := s.state.locations[code]
	loc.Active = active
	s.state.locations[code] = loc
}

func (s *Store) SetRemaining(lineID uuid.UUID, remaining int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := s.state.lines[lineID]
	line.RemainingPallets = pgtype.Int8{Int64: remaining, Valid: true}
	s.state.lines[lineID] = line
}

func (s *Store) SeedInventory(lineID uuid.UUID, physical, unbooked int64) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.inventory[lineID] = inventory{
		ID:              id,
		OrderLineID:     lineID,
		PhysicalPallets: physical,
		UnbookedPallets: unbooked,
	}
	return id
}

// SeedBooking stores a bare booking, enough for shipment updates.
func (s *Store) SeedBooking(ref string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.state.bookings[ref] = Booking{ID: id, BookingRef: ref, CreatedBy: "seed"}
	return id
}

// Counts is a row count per table.
type Counts struct {
	Locations    int
	Carriers     int
	Orders       int
	OrderLines   int
	Bookings     int
	BookingLines int
	Statuses     int
}

func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Locations:    len(s.state.locations),
		Carriers:     len(s.state.carriers),
		Orders:       len(s.state.orders),
		OrderLines:   len(s.state.lines),
		Bookings:     len(s.state.bookings),
		BookingLines: len(s.state.lineItems),
		Statuses:     len(s.state.statuses),
	}
}

// Pool returns the current capacity view of one order line.
func (s *Store) Pool(lineID uuid.UUID) (database.Pool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line, ok := s.state.lines[lineID]
	if !ok {
		return database.Pool{}, false
	}
	return s.state.pool(line), true
}

func (s *Store) Booking(ref string) (Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.state.bookings[ref]
	return b, ok
}

func (s *Store) BookingLines() []database.BookingLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]database.BookingLine(nil), s.state.lineItems...)
}

func (s *Store) ShipmentStatus(bookingID uuid.UUID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.statuses[bookingID]
	return st.Status, ok
}

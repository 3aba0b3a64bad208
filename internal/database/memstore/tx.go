package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/google/uuid"
)

// tx implements database.Querier over one state copy.
type tx struct {
	st *state
}

var _ database.Querier = (*tx)(nil)

func (t *tx) LocationsByCodes(_ context.Context, codes []string) ([]database.Location, error) {
	var out []database.Location
	for _, code := range dedupe(codes) {
		if l, ok := t.st.locations[code]; ok {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (t *tx) InsertLocation(_ context.Context, arg database.InsertLocationParams) error {
	if _, ok := t.st.locations[arg.Code]; ok {
		return uniqueViolation("locations_code", arg.Code)
	}
	t.st.locations[arg.Code] = database.Location{
		ID:     arg.ID,
		Code:   arg.Code,
		Name:   arg.Name,
		Kind:   arg.Kind,
		City:   arg.City,
		Active: arg.Active,
	}
	return nil
}

func (t *tx) CarriersByCodes(_ context.Context, codes []string) ([]database.Carrier, error) {
	var out []database.Carrier
	for _, code := range dedupe(codes) {
		if c, ok := t.st.carriers[code]; ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (t *tx) InsertCarrier(_ context.Context, arg database.InsertCarrierParams) error {
	if _, ok := t.st.carriers[arg.Code]; ok {
		return uniqueViolation("carriers_code", arg.Code)
	}
	for _, c := range t.st.carriers {
		if c.Name == arg.Name {
			return uniqueViolation("carriers_name", arg.Name)
		}
	}
	t.st.carriers[arg.Code] = database.Carrier{ID: arg.ID, Code: arg.Code, Name: arg.Name, Scac: arg.Scac}
	return nil
}

func (t *tx) ExistingOrderNos(_ context.Context, orderNos []string) ([]string, error) {
	var out []string
	for _, no := range dedupe(orderNos) {
		if _, ok := t.st.orders[no]; ok {
			out = append(out, no)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t *tx) InsertOrder(_ context.Context, arg database.InsertOrderParams) error {
	if _, ok := t.st.orders[arg.OrderNo]; ok {
		return uniqueViolation("orders_order_no", arg.OrderNo)
	}
	t.st.orders[arg.OrderNo] = order{ID: arg.ID, OrderNo: arg.OrderNo, Customer: arg.Customer, OrderDate: arg.OrderDate}
	return nil
}

func (t *tx) InsertOrderLine(_ context.Context, arg database.InsertOrderLineParams) error {
	if _, ok := t.st.orderByID(arg.OrderID); !ok {
		return foreignKeyViolation("order_lines")
	}
	for _, l := range t.st.lines {
		if l.OrderID == arg.OrderID && l.DestinationCode == arg.DestinationCode && l.Category == arg.Category {
			return uniqueViolation("order_lines_order_id_destination_code_category", arg.DestinationCode+"/"+arg.Category)
		}
	}
	t.st.lines[arg.ID] = orderLine{
		ID:               arg.ID,
		OrderID:          arg.OrderID,
		DestinationCode:  arg.DestinationCode,
		Category:         arg.Category,
		EstimatedPallets: arg.EstimatedPallets,
	}
	return nil
}

func (t *tx) PoolsByOrderNos(_ context.Context, orderNos []string) ([]database.Pool, error) {
	wanted := make(map[string]bool, len(orderNos))
	for _, no := range orderNos {
		wanted[no] = true
	}
	var out []database.Pool
	for _, line := range t.st.lines {
		p := t.st.pool(line)
		if wanted[p.OrderNo] {
			out = append(out, p)
		}
	}
	return sortedPools(out), nil
}

// LockPools needs no locking here; InTx already serializes writers.
func (t *tx) LockPools(_ context.Context, lineIDs []uuid.UUID) ([]database.Pool, error) {
	var out []database.Pool
	for _, id := range lineIDs {
		if line, ok := t.st.lines[id]; ok {
			out = append(out, t.st.pool(line))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineID.String() < out[j].LineID.String() })
	return out, nil
}

func (t *tx) DecrementRemaining(_ context.Context, lineID uuid.UUID, pallets int64) (int64, error) {
	line, ok := t.st.lines[lineID]
	if !ok {
		return 0, nil
	}
	remaining := line.EstimatedPallets
	if line.RemainingPallets.Valid {
		remaining = line.RemainingPallets.Int64
	}
	if remaining < pallets {
		return 0, nil
	}
	line.RemainingPallets.Int64 = remaining - pallets
	line.RemainingPallets.Valid = true
	t.st.lines[lineID] = line
	return 1, nil
}

func (t *tx) DecrementUnbooked(_ context.Context, inventoryID uuid.UUID, pallets int64) (int64, error) {
	for lineID, inv := range t.st.inventory {
		if inv.ID != inventoryID {
			continue
		}
		if inv.UnbookedPallets < pallets {
			return 0, nil
		}
		inv.UnbookedPallets -= pallets
		t.st.inventory[lineID] = inv
		return 1, nil
	}
	return 0, nil
}

func (t *tx) ExistingBookingRefs(_ context.Context, refs []string) ([]string, error) {
	var out []string
	for _, ref := range dedupe(refs) {
		if _, ok := t.st.bookings[ref]; ok {
			out = append(out, ref)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t *tx) BookingsByRefs(_ context.Context, refs []string) ([]database.BookingRef, error) {
	var out []database.BookingRef
	for _, ref := range dedupe(refs) {
		if b, ok := t.st.bookings[ref]; ok {
			out = append(out, database.BookingRef{ID: b.ID, BookingRef: b.BookingRef})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookingRef < out[j].BookingRef })
	return out, nil
}

func (t *tx) InsertBooking(_ context.Context, arg database.InsertBookingParams) error {
	if _, ok := t.st.bookings[arg.BookingRef]; ok {
		return uniqueViolation("bookings_booking_ref", arg.BookingRef)
	}
	t.st.bookings[arg.BookingRef] = Booking{
		ID:          arg.ID,
		BookingRef:  arg.BookingRef,
		CarrierID:   arg.CarrierID,
		WarehouseID: arg.WarehouseID,
		PickupDate:  arg.PickupDate,
		CutoffAt:    arg.CutoffAt,
		Notes:       arg.Notes,
		CreatedBy:   arg.CreatedBy,
	}
	return nil
}

func (t *tx) InsertBookingLine(_ context.Context, arg database.InsertBookingLineParams) error {
	if _, ok := t.st.bookingByID(arg.BookingID); !ok {
		return foreignKeyViolation("booking_lines")
	}
	if _, ok := t.st.lines[arg.OrderLineID]; !ok {
		return foreignKeyViolation("booking_lines")
	}
	for _, li := range t.st.lineItems {
		if li.BookingID == arg.BookingID && li.OrderLineID == arg.OrderLineID {
			return uniqueViolation("booking_lines_booking_id_order_line_id", arg.OrderLineID.String())
		}
	}
	t.st.lineItems = append(t.st.lineItems, database.BookingLine{
		ID:          arg.ID,
		BookingID:   arg.BookingID,
		OrderLineID: arg.OrderLineID,
		Pallets:     arg.Pallets,
		WeightKg:    arg.WeightKg,
		Hazardous:   arg.Hazardous,
		Accounting:  arg.Accounting,
		SourceRow:   arg.SourceRow,
	})
	return nil
}

func (t *tx) UpdateBookingShipment(_ context.Context, arg database.UpdateBookingShipmentParams) (int64, error) {
	b, ok := t.st.bookingByID(arg.ID)
	if !ok {
		return 0, nil
	}
	if arg.ContainerNo.Valid {
		b.ContainerNo = arg.ContainerNo
	}
	if arg.SealNo.Valid {
		b.SealNo = arg.SealNo
	}
	if arg.Vessel.Valid {
		b.Vessel = arg.Vessel
	}
	if arg.Etd.Valid {
		b.Etd = arg.Etd
	}
	if arg.Eta.Valid {
		b.Eta = arg.Eta
	}
	t.st.bookings[b.BookingRef] = b
	return 1, nil
}

func (t *tx) EnsureShipmentStatus(_ context.Context, bookingID uuid.UUID, status string) (bool, error) {
	if _, ok := t.st.bookingByID(bookingID); !ok {
		return false, foreignKeyViolation("shipment_status")
	}
	if _, ok := t.st.statuses[bookingID]; ok {
		return false, nil
	}
	t.st.statuses[bookingID] = shipmentStatus{Status: status, UpdatedAt: time.Now()}
	return true, nil
}

func (t *tx) SetShipmentStatus(_ context.Context, bookingID uuid.UUID, status string) error {
	if _, ok := t.st.bookingByID(bookingID); !ok {
		return foreignKeyViolation("shipment_status")
	}
	t.st.statuses[bookingID] = shipmentStatus{Status: status, UpdatedAt: time.Now()}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

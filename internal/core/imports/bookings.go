package imports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/palletflow/internal/allocation"
	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/database"
)

// bookingLine is one row of the Bookings sheet. Rows sharing a booking
// reference form one booking; carrier, warehouse, pickup date and cut-off
// are booking-level and must repeat identically on every row.
type bookingLine struct {
	BookingRef  string           `field:"booking_ref" validate:"required,max=40"`
	Carrier     string           `field:"carrier" validate:"required"`
	Warehouse   string           `field:"warehouse" validate:"required"`
	PickupDate  pgtype.Date      `field:"pickup_date"`
	CutoffAt    pgtype.Timestamp `field:"cutoff_at"`
	OrderNo     string           `field:"order_no" validate:"required"`
	Destination string           `field:"destination" validate:"required"`
	Category    string           `field:"category" validate:"required"`
	Pallets     int64            `field:"pallets" validate:"gt=0,lte=1000000"`
	WeightKg    decimal.Decimal  `field:"weight_kg" validate:"gte=0"`
	Hazardous   bool             `field:"hazardous"`
	Notes       string           `field:"notes" validate:"max=500"`
}

func (l bookingLine) poolKey() allocation.Key {
	return allocation.Key{OrderNo: l.OrderNo, Destination: l.Destination, Category: l.Category}
}

// bookingsSnapshot is the read-only reference data of one bookings batch.
type bookingsSnapshot struct {
	carriers   map[string]uuid.UUID
	warehouses map[string]uuid.UUID
	locations  map[string]string // code -> kind
	inactive   map[string]bool   // warehouses that exist but are switched off
	orders     map[string]bool
	pools      map[allocation.Key]allocation.Pool
	lineIDs    map[allocation.Key]uuid.UUID
	existing   map[string]bool
}

func bookingsImport() core.Definition {
	return core.Definition{
		Info: core.ImportInfo{
			Key:   "bookings",
			Group: groupOperations,
			Label: "Bookings",
			Mode:  core.ModeCreate,
			Roles: []string{RoleAdmin, RolePlanner},
		},
		Sheets: []core.SheetSpec{{
			Name:     "Bookings",
			Keywords: []string{"booking"},
			Fields: []core.FieldSpec{
				{Name: "booking_ref", Headers: []string{"Booking Ref", "Booking No", "Booking"}, Required: true, Normalizer: upperCode},
				{Name: "carrier", Headers: []string{"Carrier", "Carrier Code"}, Required: true, Normalizer: upperCode},
				{Name: "warehouse", Headers: []string{"Warehouse", "Pickup Location"}, Required: true, Normalizer: upperCode},
				{Name: "pickup_date", Headers: []string{"Pickup Date"}, Type: core.FieldDate, Required: true},
				{Name: "cutoff_at", Headers: []string{"Cut-off", "Cutoff"}, Type: core.FieldDateTime},
				{Name: "order_no", Headers: []string{"Order No", "Order Number", "Order"}, Required: true, Normalizer: upperCode},
				{Name: "destination", Headers: []string{"Destination", "Destination Code"}, Required: true, Normalizer: upperCode},
				{Name: "category", Headers: []string{"Category"}, Required: true, Normalizer: upperCode},
				{Name: "pallets", Headers: []string{"Pallets"}, Type: core.FieldInteger, Required: true},
				{Name: "weight_kg", Headers: []string{"Weight (kg)", "Weight"}, Type: core.FieldNumeric},
				{Name: "hazardous", Headers: []string{"Hazardous", "DG"}, Type: core.FieldBool},
				{Name: "notes", Headers: []string{"Notes", "Remarks"}},
			},
		}},
		Build:   buildBookingLine,
		Preload: preloadBookings,
		Check:   checkBookings,
		Commit:  commitBookings,
	}
}

func buildBookingLine(r core.MappedRow) (any, error) {
	l := bookingLine{
		BookingRef:  r.Text("booking_ref"),
		Carrier:     r.Text("carrier"),
		Warehouse:   r.Text("warehouse"),
		PickupDate:  r.PgDate("pickup_date"),
		CutoffAt:    r.PgTimestamp("cutoff_at"),
		OrderNo:     r.Text("order_no"),
		Destination: r.Text("destination"),
		Category:    r.Text("category"),
		Pallets:     r.Int("pallets"),
		WeightKg:    r.Decimal("weight_kg"),
		Hazardous:   r.Bool("hazardous"),
		Notes:       r.Text("notes"),
	}
	if l.CutoffAt.Valid && l.PickupDate.Valid {
		endOfPickup := l.PickupDate.Time.Add(24 * time.Hour)
		if !l.CutoffAt.Time.Before(endOfPickup) {
			return nil, core.FieldError("cutoff_at", "cut-off %s is after pickup date %s",
				l.CutoffAt.Time.Format("2006-01-02 15:04"), dateText(l.PickupDate))
		}
	}
	return l, nil
}

func bookingRef(r core.Record) string { return r.Value.(bookingLine).BookingRef }

func line(r core.Record) bookingLine { return r.Value.(bookingLine) }

// preloadBookings loads every reference table the batch touches, fanning the
// independent lookups out over the pool.
func preloadBookings(ctx context.Context, q database.Querier, b *core.Batch) (any, error) {
	var (
		carriers  []database.Carrier
		locations []database.Location
		pools     []database.Pool
		existing  []string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		carriers, err = q.CarriersByCodes(gctx, core.Keys(b.Records, func(r core.Record) string { return line(r).Carrier }))
		return err
	})
	g.Go(func() (err error) {
		locations, err = q.LocationsByCodes(gctx, core.Keys(b.Records, func(r core.Record) string { return line(r).Warehouse }))
		return err
	})
	g.Go(func() (err error) {
		pools, err = q.PoolsByOrderNos(gctx, core.Keys(b.Records, func(r core.Record) string { return line(r).OrderNo }))
		return err
	})
	g.Go(func() (err error) {
		existing, err = q.ExistingBookingRefs(gctx, core.Keys(b.Records, bookingRef))
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load booking references: %w", err)
	}

	snap := &bookingsSnapshot{
		carriers:   make(map[string]uuid.UUID, len(carriers)),
		warehouses: make(map[string]uuid.UUID),
		locations:  make(map[string]string, len(locations)),
		inactive:   make(map[string]bool),
		orders:     make(map[string]bool),
		pools:      allocation.Index(pools),
		lineIDs:    make(map[allocation.Key]uuid.UUID, len(pools)),
		existing:   make(map[string]bool, len(existing)),
	}
	for _, c := range carriers {
		snap.carriers[c.Code] = c.ID
	}
	for _, l := range locations {
		snap.locations[l.Code] = l.Kind
		switch {
		case l.Kind != "warehouse":
		case l.Active:
			snap.warehouses[l.Code] = l.ID
		default:
			snap.inactive[l.Code] = true
		}
	}
	for _, p := range pools {
		snap.orders[p.OrderNo] = true
		snap.lineIDs[allocation.KeyOf(p)] = p.LineID
	}
	for _, ref := range existing {
		snap.existing[ref] = true
	}
	return snap, nil
}

// requests turns the batch into one allocation request per row.
func requests(records []core.Record) []allocation.Request {
	reqs := make([]allocation.Request, len(records))
	for i, rec := range records {
		l := line(rec)
		reqs[i] = allocation.Request{Row: rec.Row, Key: l.poolKey(), Pallets: l.Pallets}
	}
	return reqs
}

func checkBookings(_ context.Context, b *core.Batch) error {
	snap := b.Snapshot.(*bookingsSnapshot)
	groups := core.GroupRecords(b.Records, bookingRef)

	return core.RunChecks(
		core.CheckStep{Kind: core.KindReferenceNotFound, Run: func() []core.RowError {
			return unresolvedBookingRefs(b.Records, snap)
		}},
		core.CheckStep{Kind: core.KindGroupConsistency, Run: func() []core.RowError {
			return core.CheckGroupConsistency("booking_ref", groups, []core.HeaderField{
				{Name: "carrier", Value: func(r core.Record) string { return line(r).Carrier }},
				{Name: "warehouse", Value: func(r core.Record) string { return line(r).Warehouse }},
				{Name: "pickup_date", Value: func(r core.Record) string { return dateText(line(r).PickupDate) }},
				{Name: "cutoff_at", Value: func(r core.Record) string { return timestampText(line(r).CutoffAt) }},
			})
		}},
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			return core.CheckGroupDuplicates("booking_ref", "order line", groups, func(r core.Record) string {
				return line(r).poolKey().String()
			})
		}},
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			return core.CheckExisting(b.Records, "booking_ref", bookingRef, func(ref string) bool { return snap.existing[ref] })
		}},
		core.CheckStep{Kind: core.KindCapacityExceeded, Run: func() []core.RowError {
			return shortfallErrors(allocation.Check(snap.pools, requests(b.Records)))
		}},
	)
}

// unresolvedBookingRefs reports every reference that does not resolve,
// possibly several per row.
func unresolvedBookingRefs(records []core.Record, snap *bookingsSnapshot) []core.RowError {
	var errs []core.RowError
	add := func(rec core.Record, field, msg string) {
		errs = append(errs, core.RowError{Row: rec.Row, Sheet: rec.Sheet, Field: field, Message: msg})
	}
	for _, rec := range records {
		l := line(rec)
		if _, ok := snap.carriers[l.Carrier]; !ok {
			add(rec, "carrier", fmt.Sprintf("carrier %q not found", l.Carrier))
		}
		if _, ok := snap.warehouses[l.Warehouse]; !ok {
			kind, known := snap.locations[l.Warehouse]
			switch {
			case snap.inactive[l.Warehouse]:
				add(rec, "warehouse", fmt.Sprintf("warehouse %q is inactive", l.Warehouse))
			case known && kind != "warehouse":
				add(rec, "warehouse", fmt.Sprintf("location %q is a %s, not a warehouse", l.Warehouse, kind))
			default:
				add(rec, "warehouse", fmt.Sprintf("warehouse %q not found", l.Warehouse))
			}
		}
		switch {
		case !snap.orders[l.OrderNo]:
			add(rec, "order_no", fmt.Sprintf("order %q not found", l.OrderNo))
		case snap.pools[l.poolKey()] == nil:
			add(rec, "destination", fmt.Sprintf("order line %s not found", l.poolKey()))
		}
	}
	return errs
}

func shortfallErrors(shortfalls []allocation.Shortfall) []core.RowError {
	errs := make([]core.RowError, 0, len(shortfalls))
	for _, s := range shortfalls {
		errs = append(errs, core.RowError{
			Row:     s.Rows[0],
			Sheet:   "Bookings",
			Field:   "pallets",
			Message: s.Error(),
		})
	}
	return errs
}

// commitBookings writes every booking of the batch. Pools are locked and
// re-checked first, so capacity consumed by a concurrent import since the
// preload rejects the batch instead of overbooking.
func commitBookings(ctx context.Context, q database.Querier, b *core.Batch) (core.CommitResult, error) {
	snap := b.Snapshot.(*bookingsSnapshot)
	reqs := requests(b.Records)

	pools, shortfalls, err := allocation.Reserve(ctx, q, snap.lineIDs, reqs)
	if err != nil {
		return core.CommitResult{}, err
	}
	if len(shortfalls) > 0 {
		return core.CommitResult{}, core.NewBatchError(core.KindCapacityExceeded, shortfallErrors(shortfalls))
	}

	groups := core.GroupRecords(b.Records, bookingRef)
	for _, g := range groups {
		head := line(g.Records[0])
		bookingID := uuid.New()
		err := q.InsertBooking(ctx, database.InsertBookingParams{
			ID:          bookingID,
			BookingRef:  head.BookingRef,
			CarrierID:   snap.carriers[head.Carrier],
			WarehouseID: snap.warehouses[head.Warehouse],
			PickupDate:  head.PickupDate,
			CutoffAt:    head.CutoffAt,
			Notes:       core.ToPgText(head.Notes),
			CreatedBy:   b.Principal.Subject,
		})
		if err != nil {
			return core.CommitResult{}, fmt.Errorf("row %d: insert booking %s: %w", g.FirstRow(), head.BookingRef, err)
		}

		for _, rec := range g.Records {
			l := line(rec)
			pool := pools[l.poolKey()]
			err := q.InsertBookingLine(ctx, database.InsertBookingLineParams{
				ID:          uuid.New(),
				BookingID:   bookingID,
				OrderLineID: pool.OrderLineID(),
				Pallets:     l.Pallets,
				WeightKg:    l.WeightKg,
				Hazardous:   l.Hazardous,
				Accounting:  string(pool.Mode()),
				SourceRow:   int32(rec.Row),
			})
			if err != nil {
				return core.CommitResult{}, fmt.Errorf("row %d: insert booking line %s: %w", rec.Row, l.poolKey(), err)
			}

			if err := allocation.Decrement(ctx, q, pool, l.Pallets); err != nil {
				if errors.Is(err, allocation.ErrPoolExhausted) {
					return core.CommitResult{}, core.NewBatchError(core.KindCapacityExceeded, []core.RowError{{
						Row: rec.Row, Sheet: rec.Sheet, Field: "pallets", Message: err.Error(),
					}})
				}
				return core.CommitResult{}, fmt.Errorf("row %d: %w", rec.Row, err)
			}
		}

		if err := provisionShipmentStatus(ctx, q, bookingID); err != nil {
			return core.CommitResult{}, fmt.Errorf("row %d: %w", g.FirstRow(), err)
		}
	}
	return core.Units(len(groups)), nil
}

// provisionShipmentStatus creates the booking's pending shipment status if
// it has none. Running it again for the same booking is a no-op.
func provisionShipmentStatus(ctx context.Context, q database.Querier, bookingID uuid.UUID) error {
	if _, err := q.EnsureShipmentStatus(ctx, bookingID, database.ShipmentPending); err != nil {
		return fmt.Errorf("provision shipment status: %w", err)
	}
	return nil
}

func timestampText(ts pgtype.Timestamp) string {
	if !ts.Valid {
		return ""
	}
	return ts.Time.Format("2006-01-02 15:04")
}

package imports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/database"
)

// orderLine is one row of the Orders sheet: an order header repeated on
// every line, plus the line's destination, category and pallet estimate.
type orderLine struct {
	OrderNo     string      `field:"order_no" validate:"required,max=40"`
	Customer    string      `field:"customer" validate:"required,max=120"`
	OrderDate   pgtype.Date `field:"order_date"`
	Destination string      `field:"destination" validate:"required"`
	Category    string      `field:"category" validate:"required,max=40"`
	Estimated   int64       `field:"estimated_pallets" validate:"gt=0,lte=1000000"`
}

type ordersSnapshot struct {
	destinations map[string]bool
	existing     map[string]bool
}

func ordersImport() core.Definition {
	return core.Definition{
		Info: core.ImportInfo{
			Key:   "orders",
			Group: groupOperations,
			Label: "Orders",
			Mode:  core.ModeCreate,
			Roles: []string{RoleAdmin, RolePlanner},
		},
		Sheets: []core.SheetSpec{{
			Name:     "Orders",
			Keywords: []string{"order"},
			Fields: []core.FieldSpec{
				{Name: "order_no", Headers: []string{"Order No", "Order Number", "Order"}, Required: true, Normalizer: upperCode},
				{Name: "customer", Headers: []string{"Customer"}, Required: true},
				{Name: "order_date", Headers: []string{"Order Date"}, Type: core.FieldDate},
				{Name: "destination", Headers: []string{"Destination", "Destination Code"}, Required: true, Normalizer: upperCode},
				{Name: "category", Headers: []string{"Category"}, Required: true, Normalizer: upperCode},
				{Name: "estimated_pallets", Headers: []string{"Estimated Pallets", "Pallets"}, Type: core.FieldInteger, Required: true},
			},
		}},
		Build: func(r core.MappedRow) (any, error) {
			return orderLine{
				OrderNo:     r.Text("order_no"),
				Customer:    r.Text("customer"),
				OrderDate:   r.PgDate("order_date"),
				Destination: r.Text("destination"),
				Category:    r.Text("category"),
				Estimated:   r.Int("estimated_pallets"),
			}, nil
		},
		Preload: preloadOrders,
		Check:   checkOrders,
		Commit:  commitOrders,
	}
}

func orderNo(r core.Record) string { return r.Value.(orderLine).OrderNo }

func preloadOrders(ctx context.Context, q database.Querier, b *core.Batch) (any, error) {
	snap := &ordersSnapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dests := core.Keys(b.Records, func(r core.Record) string { return r.Value.(orderLine).Destination })
		locs, err := q.LocationsByCodes(gctx, dests)
		if err != nil {
			return fmt.Errorf("load destinations: %w", err)
		}
		snap.destinations = make(map[string]bool, len(locs))
		for _, l := range locs {
			snap.destinations[l.Code] = true
		}
		return nil
	})
	g.Go(func() error {
		found, err := q.ExistingOrderNos(gctx, core.Keys(b.Records, orderNo))
		if err != nil {
			return fmt.Errorf("load orders: %w", err)
		}
		snap.existing = make(map[string]bool, len(found))
		for _, no := range found {
			snap.existing[no] = true
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func checkOrders(_ context.Context, b *core.Batch) error {
	snap := b.Snapshot.(*ordersSnapshot)
	groups := core.GroupRecords(b.Records, orderNo)

	return core.RunChecks(
		core.CheckStep{Kind: core.KindReferenceNotFound, Run: func() []core.RowError {
			return core.CheckReferences(b.Records, "destination",
				func(r core.Record) string { return r.Value.(orderLine).Destination },
				func(code string) bool { return snap.destinations[code] })
		}},
		core.CheckStep{Kind: core.KindGroupConsistency, Run: func() []core.RowError {
			return core.CheckGroupConsistency("order_no", groups, []core.HeaderField{
				{Name: "customer", Value: func(r core.Record) string { return r.Value.(orderLine).Customer }},
				{Name: "order_date", Value: func(r core.Record) string { return dateText(r.Value.(orderLine).OrderDate) }},
			})
		}},
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			return core.CheckGroupDuplicates("order_no", "order line", groups, func(r core.Record) string {
				l := r.Value.(orderLine)
				return l.Destination + "/" + l.Category
			})
		}},
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			return core.CheckExisting(b.Records, "order_no", orderNo, func(no string) bool { return snap.existing[no] })
		}},
	)
}

func commitOrders(ctx context.Context, q database.Querier, b *core.Batch) (core.CommitResult, error) {
	groups := core.GroupRecords(b.Records, orderNo)
	for _, g := range groups {
		head := g.Records[0].Value.(orderLine)
		orderID := uuid.New()
		err := q.InsertOrder(ctx, database.InsertOrderParams{
			ID:        orderID,
			OrderNo:   head.OrderNo,
			Customer:  head.Customer,
			OrderDate: head.OrderDate,
		})
		if err != nil {
			return core.CommitResult{}, fmt.Errorf("row %d: insert order %s: %w", g.FirstRow(), head.OrderNo, err)
		}

		for _, rec := range g.Records {
			l := rec.Value.(orderLine)
			err := q.InsertOrderLine(ctx, database.InsertOrderLineParams{
				ID:               uuid.New(),
				OrderID:          orderID,
				DestinationCode:  l.Destination,
				Category:         l.Category,
				EstimatedPallets: l.Estimated,
			})
			if err != nil {
				return core.CommitResult{}, fmt.Errorf("row %d: insert order line %s/%s: %w", rec.Row, l.Destination, l.Category, err)
			}
		}
	}
	return core.Units(len(groups)), nil
}

func dateText(d pgtype.Date) string {
	if !d.Valid {
		return ""
	}
	return d.Time.Format("2006-01-02")
}

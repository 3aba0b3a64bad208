package imports

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/database"
)

type carrier struct {
	Code string `field:"code" validate:"required,max=20"`
	Name string `field:"name" validate:"required,max=120"`
	Scac string `field:"scac" validate:"omitempty,len=4,alpha"`
}

func carriersImport() core.Definition {
	return core.Definition{
		Info: core.ImportInfo{
			Key:   "carriers",
			Group: groupMasterData,
			Label: "Carriers",
			Mode:  core.ModeCreate,
			Roles: []string{RoleAdmin},
		},
		Sheets: []core.SheetSpec{{
			Name:     "Carriers",
			Keywords: []string{"carrier"},
			Fields: []core.FieldSpec{
				{Name: "code", Headers: []string{"Code", "Carrier Code"}, Required: true, Normalizer: upperCode},
				{Name: "name", Headers: []string{"Name", "Carrier Name", "Carrier"}, Required: true},
				{Name: "scac", Headers: []string{"SCAC"}, Normalizer: upperCode},
			},
		}},
		Build: func(r core.MappedRow) (any, error) {
			return carrier{Code: r.Text("code"), Name: r.Text("name"), Scac: r.Text("scac")}, nil
		},
		Preload: preloadCarriers,
		Check:   checkCarriers,
		Commit:  commitCarriers,
	}
}

func carrierCode(r core.Record) string {
	return r.Value.(carrier).Code
}

func carrierName(r core.Record) string {
	return strings.ToLower(r.Value.(carrier).Name)
}

func preloadCarriers(ctx context.Context, q database.Querier, b *core.Batch) (any, error) {
	stored, err := q.CarriersByCodes(ctx, core.Keys(b.Records, carrierCode))
	if err != nil {
		return nil, fmt.Errorf("load carriers: %w", err)
	}
	existing := make(map[string]bool, len(stored))
	for _, c := range stored {
		existing[c.Code] = true
	}
	return existing, nil
}

func checkCarriers(_ context.Context, b *core.Batch) error {
	existing := b.Snapshot.(map[string]bool)
	return core.RunChecks(
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			errs := core.FindDuplicates(b.Records, "code", carrierCode)
			return append(errs, core.FindDuplicates(b.Records, "name", carrierName)...)
		}},
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			return core.CheckExisting(b.Records, "code", carrierCode, func(c string) bool { return existing[c] })
		}},
	)
}

func commitCarriers(ctx context.Context, q database.Querier, b *core.Batch) (core.CommitResult, error) {
	for _, rec := range b.Records {
		c := rec.Value.(carrier)
		err := q.InsertCarrier(ctx, database.InsertCarrierParams{
			ID:   uuid.New(),
			Code: c.Code,
			Name: c.Name,
			Scac: core.ToPgText(c.Scac),
		})
		if err != nil {
			return core.CommitResult{}, fmt.Errorf("row %d: insert carrier %s: %w", rec.Row, c.Code, err)
		}
	}
	return core.CommitResult{}, nil
}

package imports

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/palletflow/internal/core"
	"github.com/JonMunkholm/palletflow/internal/database"
)

var locationKinds = []string{"warehouse", "destination", "port"}

type location struct {
	Code   string      `field:"code" validate:"required,max=20"`
	Name   string      `field:"name" validate:"required,max=120"`
	Kind   string      `field:"kind" validate:"required,oneof=warehouse destination port"`
	City   pgtype.Text `field:"city"`
	Active bool        `field:"active"`
}

func locationsImport() core.Definition {
	return core.Definition{
		Info: core.ImportInfo{
			Key:   "locations",
			Group: groupMasterData,
			Label: "Locations",
			Mode:  core.ModeCreate,
			Roles: []string{RoleAdmin},
		},
		Sheets: []core.SheetSpec{{
			Name:     "Locations",
			Keywords: []string{"location"},
			Fields: []core.FieldSpec{
				{Name: "code", Headers: []string{"Code", "Location Code"}, Required: true, Normalizer: upperCode},
				{Name: "name", Headers: []string{"Name", "Location Name"}, Required: true},
				{Name: "kind", Headers: []string{"Kind", "Type"}, Type: core.FieldEnum, Required: true, EnumValues: locationKinds},
				{Name: "city", Headers: []string{"City"}},
				{Name: "active", Headers: []string{"Active"}, Type: core.FieldBool},
			},
		}},
		Build:   buildLocation,
		Preload: preloadLocations,
		Check:   checkLocations,
		Commit:  commitLocations,
	}
}

func buildLocation(r core.MappedRow) (any, error) {
	active := true
	if r.Has("active") {
		active = r.Bool("active")
	}
	return location{
		Code:   r.Text("code"),
		Name:   r.Text("name"),
		Kind:   r.Text("kind"),
		City:   r.PgText("city"),
		Active: active,
	}, nil
}

func locationCode(r core.Record) string {
	return r.Value.(location).Code
}

// preloadLocations returns the set of file codes already stored.
func preloadLocations(ctx context.Context, q database.Querier, b *core.Batch) (any, error) {
	stored, err := q.LocationsByCodes(ctx, core.Keys(b.Records, locationCode))
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	existing := make(map[string]bool, len(stored))
	for _, l := range stored {
		existing[l.Code] = true
	}
	return existing, nil
}

func checkLocations(_ context.Context, b *core.Batch) error {
	existing := b.Snapshot.(map[string]bool)
	return core.RunChecks(
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			return core.FindDuplicates(b.Records, "code", locationCode)
		}},
		core.CheckStep{Kind: core.KindDuplicateKey, Run: func() []core.RowError {
			return core.CheckExisting(b.Records, "code", locationCode, func(c string) bool { return existing[c] })
		}},
	)
}

func commitLocations(ctx context.Context, q database.Querier, b *core.Batch) (core.CommitResult, error) {
	for _, rec := range b.Records {
		l := rec.Value.(location)
		err := q.InsertLocation(ctx, database.InsertLocationParams{
			ID:     uuid.New(),
			Code:   l.Code,
			Name:   l.Name,
			Kind:   l.Kind,
			City:   l.City,
			Active: l.Active,
		})
		if err != nil {
			return core.CommitResult{}, fmt.Errorf("row %d: insert location %s: %w", rec.Row, l.Code, err)
		}
	}
	return core.CommitResult{}, nil
}

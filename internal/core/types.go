package core

import (
	"context"

	"github.com/JonMunkholm/palletflow/internal/database"
)

// FieldType represents the expected data type of a spreadsheet column.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldDateTime
	FieldNumeric
	FieldInteger
	FieldBool
)

// IsDate reports whether cells of this type may hold spreadsheet date serials.
func (t FieldType) IsDate() bool {
	return t == FieldDate || t == FieldDateTime
}

// FieldSpec declares one column of a sheet.
type FieldSpec struct {
	Name       string              // Field name used by Build and in error reports
	Headers    []string            // Accepted header texts; the first is canonical
	Type       FieldType           // Expected data type
	Required   bool                // Column must exist and every row must have a value
	EnumValues []string            // Valid values for FieldEnum
	Normalizer func(string) string // Optional transformation applied before validation
}

// Header returns the canonical header text for the field.
func (f FieldSpec) Header() string {
	if len(f.Headers) > 0 {
		return f.Headers[0]
	}
	return f.Name
}

// SheetSpec describes one sheet an import reads.
type SheetSpec struct {
	Name         string   // Expected sheet name
	Keywords     []string // Fallback: first sheet whose name contains one of these
	RequireExact bool     // Fail instead of falling back when Name is absent
	Fields       []FieldSpec

	// Build converts a mapped row into the sheet's typed row. Only used for
	// merge imports, where each sheet is validated on its own.
	Build BuildFunc
}

// Mode distinguishes creation imports from update/merge imports.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeMerge  Mode = "merge"
)

// ImportInfo contains display information about an import type.
type ImportInfo struct {
	Key   string   `json:"key"`   // Unique identifier: "bookings"
	Group string   `json:"group"` // Catalogue grouping: "Master data", "Operations"
	Label string   `json:"label"` // Display name: "Bookings"
	Mode  Mode     `json:"mode"`
	Roles []string `json:"roles"` // Caller must hold at least one
}

// BuildFunc converts a mapped row into a typed row value. The returned
// value is validated with go-playground/validator struct tags.
type BuildFunc func(row MappedRow) (any, error)

// PreloadFunc loads the reference snapshot used by checks and commit.
// It runs once per batch against the non-transactional querier.
type PreloadFunc func(ctx context.Context, q database.Querier, b *Batch) (any, error)

// CheckFunc runs business-rule checks against the batch and its snapshot.
// It must not write. A failure is returned as a *BatchError.
type CheckFunc func(ctx context.Context, b *Batch) error

// CommitFunc persists a batch through a transactional querier.
type CommitFunc func(ctx context.Context, q database.Querier, b *Batch) (CommitResult, error)

// Definition contains everything needed to run one import type.
type Definition struct {
	Info   ImportInfo
	Sheets []SheetSpec

	// MergeKey is the field shared by all sheets of a merge import.
	MergeKey string

	Build   BuildFunc
	Preload PreloadFunc // optional
	Check   CheckFunc   // optional
	Commit  CommitFunc
}

// AllowsAny reports whether any of roles may run the import.
func (d Definition) AllowsAny(roles []string) bool {
	for _, want := range d.Info.Roles {
		for _, have := range roles {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Record is a validated, typed row with its source row number.
type Record struct {
	Row   int
	Sheet string
	Value any

	mapped MappedRow
}

// Batch is the request-scoped state of one import run.
type Batch struct {
	ID        string
	Key       string
	Principal Principal
	Records   []Record
	Total     int

	// Snapshot holds the reference data returned by Preload. It is read-only
	// and discarded with the batch.
	Snapshot any
}

// CommitResult reports what a commit persisted.
type CommitResult struct {
	// Units overrides the row-derived success count when Override is set,
	// e.g. one unit per booking instead of one per row.
	Units    int
	Override bool
}

// Units returns a CommitResult carrying an explicit success count.
func Units(n int) CommitResult {
	return CommitResult{Units: n, Override: true}
}

// Store is the persistence boundary the pipeline reads and commits through.
// Satisfied by *database.Store and *memstore.Store.
type Store interface {
	Querier() database.Querier
	InTx(ctx context.Context, fn func(q database.Querier) error) error
}

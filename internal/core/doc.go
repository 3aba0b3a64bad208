// Package core provides the workbook import pipeline.
//
// The package holds the domain logic of palletflow independent of HTTP. It
// can be driven by web handlers, tests or a CLI without modification.
//
// # Import Registry
//
// Import types are registered at init time using [Register]. Each
// [Definition] declares the sheets it reads, a header table per sheet, a
// build function producing a typed row, and optional preload, check and
// commit stages:
//
//	core.Register(core.Definition{
//	    Info:   core.ImportInfo{Key: "carriers", Label: "Carriers", Mode: core.ModeCreate, Roles: []string{"admin"}},
//	    Sheets: []core.SheetSpec{{Name: "Carriers", Fields: carrierFields}},
//	    Build:  buildCarrier,
//	    Check:  checkCarriers,
//	    Commit: commitCarriers,
//	})
//
// # Pipeline
//
// [Service.Import] runs one import synchronously within the request:
//
//  1. [ReadWorkbook] decodes the xlsx and [Workbook.Select] picks the sheet.
//  2. [MapRows] applies the header table and coerces cells.
//  3. [RowValidator] checks every row; any failure aborts the batch.
//  4. Preload builds a read-only reference snapshot for the batch.
//  5. Check runs the consistency steps via [RunChecks].
//  6. Commit runs inside [Store.InTx].
//
// # Error Handling
//
// Batch failures are [BatchError] values carrying row-addressable
// [RowError]s. [MapError] attaches a support code to every failure:
//
//   - IMP001-IMP008: import pipeline failures
//   - FILE001-FILE006: upload and workbook problems
//   - DB001-DB007: database errors surfaced through an aborted commit
//   - VAL001-VAL006: cell validation
package core

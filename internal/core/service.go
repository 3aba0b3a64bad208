package core

// service.go orchestrates an import run:
//
//	read workbook -> select sheet(s) -> map rows -> validate rows
//	  -> preload reference snapshot -> consistency checks -> commit
//
// Each stage that reports errors short-circuits the rest; nothing is written
// before commit. Create-mode imports commit the whole batch in one transaction.
// Merge-mode imports do the same unless Options.MergeAtomic is false, in which
// case every merged row commits in its own transaction.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/palletflow/internal/database"
	"github.com/JonMunkholm/palletflow/internal/logging"
)

// ErrEmptyFile is returned for a zero-byte upload.
var ErrEmptyFile = errors.New("empty file")

// Options configures a Service.
type Options struct {
	MaxFileSize       int64         // Bytes; 0 disables the check
	MaxReportedErrors int           // Errors returned per result
	Timeout           time.Duration // Per-import deadline; 0 means none
	MergeAtomic       bool          // Whole-batch transaction for merge imports
	MaxConcurrent     int
	MaxWait           time.Duration
}

// ImportOptions are the per-request knobs of Import.
type ImportOptions struct {
	FileName string
	DryRun   bool
}

// Service runs imports against a Store.
type Service struct {
	store     Store
	limiter   *ImportLimiter
	validator *RowValidator
	opts      Options
}

// NewService creates a Service.
func NewService(store Store, opts Options) *Service {
	if opts.MaxReportedErrors <= 0 {
		opts.MaxReportedErrors = DefaultMaxReportedErrors
	}
	return &Service{
		store:     store,
		limiter:   NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		validator: NewRowValidator(),
		opts:      opts,
	}
}

// Limiter exposes the concurrency limiter for health reporting and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// CatalogueSheet describes one sheet of an import for the catalogue.
type CatalogueSheet struct {
	Name     string   `json:"name"`
	Headers  []string `json:"headers"`
	Required []string `json:"required"`
}

// CatalogueEntry describes one registered import.
type CatalogueEntry struct {
	ImportInfo
	Sheets []CatalogueSheet `json:"sheets"`
}

// Catalogue lists every registered import with its sheets and headers.
func (s *Service) Catalogue() []CatalogueEntry {
	defs := All()
	out := make([]CatalogueEntry, 0, len(defs))
	for _, def := range defs {
		entry := CatalogueEntry{ImportInfo: def.Info}
		for _, sh := range def.Sheets {
			cs := CatalogueSheet{Name: sh.Name, Headers: []string{}, Required: []string{}}
			for _, f := range sh.Fields {
				cs.Headers = append(cs.Headers, f.Header())
				if f.Required {
					cs.Required = append(cs.Required, f.Header())
				}
			}
			entry.Sheets = append(entry.Sheets, cs)
		}
		out = append(out, entry)
	}
	return out
}

// Import runs the import registered under key against the uploaded workbook.
//
// Errors returned directly are request-level: unknown import, role gate,
// size, empty file, limiter, cancellation. Every batch-level outcome,
// success or failure, is reported through the Result.
func (s *Service) Import(ctx context.Context, key string, data []byte, opts ImportOptions) (*Result, error) {
	def, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownImport, key)
	}

	principal := PrincipalFromContext(ctx)
	if !def.AllowsAny(principal.Roles) {
		return nil, ErrForbidden
	}

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if s.opts.MaxFileSize > 0 && int64(len(data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrFileTooLarge, len(data), s.opts.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	b := &Batch{ID: uuid.NewString(), Key: key, Principal: principal}
	log := logging.WithFields(ctx,
		"import_id", b.ID,
		"import", key,
		"user", principal.Subject,
		"ip", GetIPAddressFromContext(ctx),
	)
	start := time.Now()
	log.Info("import started", "file", opts.FileName, "bytes", len(data), "dry_run", opts.DryRun)

	var res *Result
	wb, err := ReadWorkbook(data)
	if err != nil {
		res = s.failure(nil, err)
	} else if def.Info.Mode == ModeMerge {
		res = s.runMerge(ctx, log, def, wb, b, opts)
	} else {
		res = s.runCreate(ctx, log, def, wb, b, opts)
	}
	res.ImportID = b.ID

	if res.Success {
		log.Info("import completed",
			"imported", *res.Imported,
			"total", b.Total,
			"partial", res.Partial,
			"dry_run", res.DryRun,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	} else {
		log.Warn("import rejected",
			"kind", res.Kind,
			"errors", res.ErrorCount,
			"code", res.Code,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return res, nil
}

func (s *Service) runCreate(ctx context.Context, log *slog.Logger, def Definition, wb *Workbook, b *Batch, opts ImportOptions) *Result {
	spec := def.Sheets[0]
	grid, err := wb.Select(spec)
	if err != nil {
		return s.failure(nil, err)
	}

	m := MapRows(grid, spec)
	ignored := s.logGap(log, m)
	b.Total = len(m.Rows)
	total := intPtr(b.Total)

	records, errs := s.validator.ValidateSheet(m, spec, def.Build)
	if len(errs) > 0 {
		return s.failure(total, NewBatchError(KindRowValidation, errs))
	}
	b.Records = records

	if err := s.prepare(ctx, def, b); err != nil {
		return s.failure(total, err)
	}

	if opts.DryRun {
		return &Result{Success: true, Imported: intPtr(0), Total: total, DryRun: true, IgnoredColumns: ignored}
	}

	imported, err := s.commitBatch(ctx, def, b)
	if err != nil {
		return s.failure(total, abortError(err))
	}
	return &Result{Success: true, Imported: intPtr(imported), Total: total, IgnoredColumns: ignored}
}

func (s *Service) runMerge(ctx context.Context, log *slog.Logger, def Definition, wb *Workbook, b *Batch, opts ImportOptions) *Result {
	var (
		grids   []Grid
		missing bool
	)
	expected := make([]string, 0, len(def.Sheets))
	for _, spec := range def.Sheets {
		expected = append(expected, spec.Name)
		spec.RequireExact = true
		grid, err := wb.Select(spec)
		if err != nil {
			missing = true
			continue
		}
		grids = append(grids, grid)
	}
	if missing {
		return s.failure(nil, &FileFormatError{Expected: expected, Found: wb.SheetNames()})
	}

	var (
		sources [][]Record
		errs    []RowError
		ignored []string
	)
	for i, spec := range def.Sheets {
		m := MapRows(grids[i], spec)
		ignored = append(ignored, s.logGap(log, m)...)
		records, sheetErrs := s.validator.ValidateSheet(m, spec, spec.Build)
		errs = append(errs, sheetErrs...)
		sources = append(sources, records)
	}
	if len(errs) > 0 {
		return s.failure(nil, NewBatchError(KindRowValidation, errs))
	}
	if dups := SourceDuplicates(def.MergeKey, sources...); len(dups) > 0 {
		return s.failure(nil, NewBatchError(KindDuplicateKey, dups))
	}

	merged := MergeRows(def.MergeKey, sources...)
	b.Total = len(merged)
	total := intPtr(b.Total)

	// The merged row is validated as a whole against the import's typed row.
	mergedSpec := SheetSpec{Fields: mergedFields(def.Sheets)}
	for _, row := range merged {
		rec, rowErr := s.validator.ValidateRow(row, mergedSpec, def.Build)
		if rowErr != nil {
			errs = append(errs, *rowErr)
			continue
		}
		b.Records = append(b.Records, rec)
	}
	if len(errs) > 0 {
		return s.failure(total, NewBatchError(KindRowValidation, errs))
	}

	if err := s.prepare(ctx, def, b); err != nil {
		return s.failure(total, err)
	}

	if opts.DryRun {
		return &Result{Success: true, Imported: intPtr(0), Total: total, DryRun: true, IgnoredColumns: ignored}
	}

	if s.opts.MergeAtomic {
		imported, err := s.commitBatch(ctx, def, b)
		if err != nil {
			return s.failure(total, abortError(err))
		}
		return &Result{Success: true, Imported: intPtr(imported), Total: total, IgnoredColumns: ignored}
	}

	imported, failed := s.commitEach(ctx, log, def, b)
	if len(failed) == 0 {
		return &Result{Success: true, Imported: intPtr(imported), Total: total, IgnoredColumns: ignored}
	}

	res := s.failure(total, NewBatchError(KindTransactionAbort, failed))
	res.Imported = intPtr(imported)
	res.IgnoredColumns = ignored
	if imported > 0 {
		res.Success = true
		res.Partial = true
	}
	return res
}

// prepare loads the reference snapshot and runs the consistency checks.
func (s *Service) prepare(ctx context.Context, def Definition, b *Batch) error {
	if def.Preload != nil {
		snap, err := def.Preload(ctx, s.store.Querier(), b)
		if err != nil {
			return abortError(fmt.Errorf("load reference data: %w", err))
		}
		b.Snapshot = snap
	}
	if def.Check != nil {
		if err := def.Check(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

// commitBatch commits every record in one transaction.
func (s *Service) commitBatch(ctx context.Context, def Definition, b *Batch) (int, error) {
	var cr CommitResult
	err := s.store.InTx(ctx, func(q database.Querier) error {
		var err error
		cr, err = def.Commit(ctx, q, b)
		return err
	})
	if err != nil {
		return 0, err
	}
	if cr.Override {
		return cr.Units, nil
	}
	return len(b.Records), nil
}

// commitEach commits every record in its own transaction. A failed record
// does not affect records already committed.
func (s *Service) commitEach(ctx context.Context, log *slog.Logger, def Definition, b *Batch) (int, []RowError) {
	var (
		imported int
		failed   []RowError
	)
	for _, rec := range b.Records {
		if ctx.Err() != nil {
			failed = append(failed, RowError{Row: rec.Row, Sheet: rec.Sheet, Message: "not attempted: " + FormatUserError(ctx.Err())})
			continue
		}

		single := *b
		single.Records = []Record{rec}
		n, err := s.commitBatch(ctx, def, &single)
		if err != nil {
			log.Warn("merged row failed", "row", rec.Row, "error", err)
			if rowErrs := RowErrors(err); len(rowErrs) > 0 {
				for _, re := range rowErrs {
					if re.Row == 0 {
						re.Row, re.Sheet = rec.Row, rec.Sheet
					}
					failed = append(failed, re)
				}
				continue
			}
			failed = append(failed, RowError{Row: rec.Row, Sheet: rec.Sheet, Message: FormatUserError(err)})
			continue
		}
		imported += n
	}
	return imported, failed
}

func (s *Service) logGap(log *slog.Logger, m Mapping) []string {
	gap := m.Gap()
	if gap == nil {
		return nil
	}
	log.Warn("ignored unrecognised columns", "sheet", gap.Sheet, "columns", gap.Columns)
	return gap.Columns
}

// failure builds the failure shape of the response contract.
func (s *Service) failure(total *int, err error) *Result {
	errs := RowErrors(err)
	if errs == nil {
		errs = []RowError{{Message: err.Error()}}
	}
	msg := MapError(err)

	res := &Result{
		Success:    false,
		Total:      total,
		Errors:     boundErrors(errs, s.opts.MaxReportedErrors),
		ErrorCount: len(errs),
		Code:       msg.Code,
		Message:    msg.Message,
	}

	var be *BatchError
	var fe *FileFormatError
	switch {
	case errors.As(err, &be):
		res.Kind = be.Kind
	case errors.As(err, &fe):
		res.Kind = KindFileFormat
	}
	return res
}

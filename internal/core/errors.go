package core

// errors.go defines the import error taxonomy.
//
// Every fatal category aborts the whole batch before anything is written and
// carries row-addressable errors, so an operator can fix the spreadsheet and
// retry. HeaderMappingGap is the one non-fatal category: unknown columns are
// dropped and logged.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a batch failure.
type ErrorKind string

const (
	KindFileFormat        ErrorKind = "file_format"
	KindRowValidation     ErrorKind = "row_validation"
	KindReferenceNotFound ErrorKind = "reference_not_found"
	KindDuplicateKey      ErrorKind = "duplicate_key"
	KindGroupConsistency  ErrorKind = "group_consistency"
	KindCapacityExceeded  ErrorKind = "capacity_exceeded"
	KindTransactionAbort  ErrorKind = "transaction_abort"
)

// kindLabels prefix BatchError messages; MapError keys on them.
var kindLabels = map[ErrorKind]string{
	KindFileFormat:        "file format error",
	KindRowValidation:     "row validation failed",
	KindReferenceNotFound: "reference not found",
	KindDuplicateKey:      "duplicate entries",
	KindGroupConsistency:  "inconsistent group fields",
	KindCapacityExceeded:  "capacity exceeded",
	KindTransactionAbort:  "import aborted",
}

var (
	// ErrUnknownImport is returned for an import key with no registered definition.
	ErrUnknownImport = errors.New("unknown import")

	// ErrForbidden is returned when the caller holds none of the import's roles.
	ErrForbidden = errors.New("forbidden: role not permitted for this import")

	// ErrFileTooLarge is returned when the upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")
)

// RowError is a single row-addressable problem. Row 0 means the problem is
// not tied to one row (for example a missing sheet); row 1 is the header.
type RowError struct {
	Row     int       `json:"row"`
	Sheet   string    `json:"sheet,omitempty"`
	Field   string    `json:"field"`
	Message string    `json:"message"`
	Kind    ErrorKind `json:"-"`
}

func (e RowError) Error() string {
	var b strings.Builder
	if e.Row > 0 {
		fmt.Fprintf(&b, "row %d: ", e.Row)
	}
	if e.Field != "" {
		fmt.Fprintf(&b, "%s: ", e.Field)
	}
	b.WriteString(e.Message)
	return b.String()
}

// BatchError aborts a batch. All errors share one kind.
type BatchError struct {
	Kind   ErrorKind
	Errors []RowError
}

// NewBatchError tags every error with kind.
func NewBatchError(kind ErrorKind, errs []RowError) *BatchError {
	tagged := make([]RowError, len(errs))
	for i, e := range errs {
		e.Kind = kind
		tagged[i] = e
	}
	return &BatchError{Kind: kind, Errors: tagged}
}

func (e *BatchError) Error() string {
	label := kindLabels[e.Kind]
	if label == "" {
		label = string(e.Kind)
	}
	if len(e.Errors) == 0 {
		return label
	}
	return fmt.Sprintf("%s: %d error(s), first: %s", label, len(e.Errors), e.Errors[0].Error())
}

// FileFormatError reports a missing or unreadable sheet.
type FileFormatError struct {
	Expected []string // Sheet names the import accepts
	Found    []string // Sheet names present in the file
	Err      error    // Decode failure, if the file could not be read at all
}

func (e *FileFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("file format error: unreadable spreadsheet: %v", e.Err)
	}
	found := "none"
	if len(e.Found) > 0 {
		found = strings.Join(e.Found, ", ")
	}
	return fmt.Sprintf("file format error: expected sheet %s (found: %s)", strings.Join(e.Expected, " and "), found)
}

func (e *FileFormatError) Unwrap() error {
	return e.Err
}

// HeaderMappingGap lists header columns that map to no field. Non-fatal.
type HeaderMappingGap struct {
	Sheet   string
	Columns []string
}

func (g HeaderMappingGap) Error() string {
	return fmt.Sprintf("sheet %q: ignored unrecognised columns: %s", g.Sheet, strings.Join(g.Columns, ", "))
}

// RowErrors extracts the row-addressable errors carried by err.
func RowErrors(err error) []RowError {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Errors
	}
	var fe *FileFormatError
	if errors.As(err, &fe) {
		return []RowError{{Field: "sheet", Message: fe.Error(), Kind: KindFileFormat}}
	}
	var re RowError
	if errors.As(err, &re) {
		return []RowError{re}
	}
	return nil
}

// abortError wraps an unexpected commit failure as a transaction abort.
func abortError(err error) *BatchError {
	var be *BatchError
	if errors.As(err, &be) {
		return be
	}
	return NewBatchError(KindTransactionAbort, []RowError{{
		Message: "no rows were saved: " + FormatUserError(err),
	}})
}

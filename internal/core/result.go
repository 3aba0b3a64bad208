package core

// Result is the response contract of one import run.
//
// Success:  {success: true, imported, total}
// Failure:  {success: false, total?, errors: [{row, field, message}], ...}
//
// Total is omitted when the file could not be read far enough to count rows.
// Errors are bounded to the first MaxReportedErrors; ErrorCount carries the
// full number.
type Result struct {
	Success        bool       `json:"success"`
	Imported       *int       `json:"imported,omitempty"`
	Total          *int       `json:"total,omitempty"`
	Errors         []RowError `json:"errors,omitempty"`
	ErrorCount     int        `json:"errorCount,omitempty"`
	Code           string     `json:"code,omitempty"`
	Message        string     `json:"message,omitempty"`
	ImportID       string     `json:"importId,omitempty"`
	IgnoredColumns []string   `json:"ignoredColumns,omitempty"`
	DryRun         bool       `json:"dryRun,omitempty"`

	// Partial marks a non-atomic merge where some rows committed and others
	// failed. Committed rows are not rolled back.
	Partial bool `json:"partial,omitempty"`

	Kind ErrorKind `json:"-"`
}

// DefaultMaxReportedErrors bounds the errors returned to the caller.
const DefaultMaxReportedErrors = 20

func intPtr(n int) *int {
	return &n
}

func boundErrors(errs []RowError, max int) []RowError {
	if max > 0 && len(errs) > max {
		return errs[:max]
	}
	return errs
}

package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "duplicate key maps correctly",
			err:      errors.New("ERROR: duplicate key value violates unique constraint \"bookings_booking_ref_key\""),
			wantCode: "DB001",
		},
		{
			name:     "foreign key maps correctly",
			err:      errors.New("violates foreign key constraint"),
			wantCode: "DB003",
		},
		{
			name:     "deadline maps before generic timeout",
			err:      errors.New("context deadline exceeded (timeout)"),
			wantCode: "UPL005",
		},
		{
			name:     "aborted import wins over embedded db error",
			err:      abortError(errors.New("duplicate key value violates unique constraint")),
			wantCode: "IMP006",
		},
		{
			name:     "capacity batch error",
			err:      NewBatchError(KindCapacityExceeded, []RowError{{Row: 2, Field: "pallets", Message: "too many"}}),
			wantCode: "IMP005",
		},
		{
			name:     "row validation batch error",
			err:      NewBatchError(KindRowValidation, []RowError{{Row: 3, Field: "code", Message: "required field"}}),
			wantCode: "IMP001",
		},
		{
			name:     "group consistency batch error",
			err:      NewBatchError(KindGroupConsistency, nil),
			wantCode: "IMP004",
		},
		{
			name:     "missing sheet",
			err:      &FileFormatError{Expected: []string{"Bookings"}, Found: []string{"Sheet1"}},
			wantCode: "FILE006",
		},
		{
			name:     "wrapped unknown import",
			err:      fmt.Errorf("%w: pallets", ErrUnknownImport),
			wantCode: "IMP007",
		},
		{
			name:     "forbidden",
			err:      ErrForbidden,
			wantCode: "IMP008",
		},
		{
			name:     "rate limit maps correctly",
			err:      errors.New("rate limit exceeded"),
			wantCode: "RATE001",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("DUPLICATE KEY value violates"),
			wantCode: "DB001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := errors.New("duplicate key value violates")
	result := FormatUserError(err)

	expected := "A record with this key already exists (Code: DB001). Remove rows that were already imported"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "known error is user facing", err: errors.New("duplicate key"), want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBatchErrorMessage(t *testing.T) {
	be := NewBatchError(KindDuplicateKey, []RowError{
		{Row: 4, Field: "code", Message: `duplicate code "WH1" on rows 2 and 4`},
	})

	want := `duplicate entries: 1 error(s), first: row 4: code: duplicate code "WH1" on rows 2 and 4`
	if be.Error() != want {
		t.Errorf("Error() = %q, want %q", be.Error(), want)
	}
	if be.Errors[0].Kind != KindDuplicateKey {
		t.Errorf("Kind = %q, want %q", be.Errors[0].Kind, KindDuplicateKey)
	}
	if got := RowErrors(fmt.Errorf("wrapped: %w", be)); len(got) != 1 {
		t.Errorf("RowErrors() len = %d, want 1", len(got))
	}
}

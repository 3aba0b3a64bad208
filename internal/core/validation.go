package core

// validation.go validates mapped rows in two passes per row:
//  1. Cell pass: every declared field is checked against its FieldSpec
//     (required, type, enum).
//  2. Struct pass: the sheet's Build function produces the typed row and
//     go-playground/validator applies its struct tags.
//
// Only the first error of a row is reported, but every row is evaluated so
// the operator sees all failing rows at once.

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RowValidator validates rows against field specs and typed-row tags.
type RowValidator struct {
	validate *validator.Validate
}

// NewRowValidator creates a validator. Typed rows name their fields with a
// `field` tag so errors report the spreadsheet field, not the Go name.
func NewRowValidator() *RowValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := f.Tag.Get("field")
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return &RowValidator{validate: v}
}

// ValidateSheet validates every mapped row of one sheet. Missing required
// columns are reported once, as row-1 errors, and stop the sheet there.
func (v *RowValidator) ValidateSheet(m Mapping, spec SheetSpec, build BuildFunc) ([]Record, []RowError) {
	if len(m.Missing) > 0 {
		errs := make([]RowError, 0, len(m.Missing))
		for _, h := range m.Missing {
			errs = append(errs, RowError{Row: 1, Sheet: m.Sheet, Field: h, Message: "missing required column"})
		}
		return nil, errs
	}

	var (
		records []Record
		errs    []RowError
	)
	for _, row := range m.Rows {
		rec, err := v.ValidateRow(row, spec, build)
		if err != nil {
			errs = append(errs, *err)
			continue
		}
		records = append(records, rec)
	}
	return records, errs
}

// ValidateRow runs the cell and struct passes and returns the first error.
func (v *RowValidator) ValidateRow(row MappedRow, spec SheetSpec, build BuildFunc) (Record, *RowError) {
	fail := func(field, msg string) (Record, *RowError) {
		return Record{}, &RowError{Row: row.Row, Sheet: row.Sheet, Field: field, Message: msg}
	}

	for _, f := range spec.Fields {
		val, ok := row.Fields[f.Name]
		if !ok || val == "" {
			if f.Required {
				return fail(f.Header(), "required field is empty")
			}
			continue
		}
		if err := ValidateCell(val, f); err != nil {
			return fail(f.Header(), err.Error())
		}
	}

	value, err := build(row)
	if err != nil {
		var re RowError
		if errors.As(err, &re) {
			return fail(headerFor(spec, re.Field), re.Message)
		}
		return fail("", err.Error())
	}

	if err := v.validate.Struct(value); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fail(headerFor(spec, fe.Field()), describe(fe))
		}
		return fail("", err.Error())
	}

	return Record{Row: row.Row, Sheet: row.Sheet, Value: value, mapped: row}, nil
}

// FieldError lets Build functions report a problem against a specific field.
func FieldError(field, format string, args ...any) error {
	return RowError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ValidateCell checks a coerced cell value against its field spec.
// Blank values pass; required-ness is checked by the caller.
func ValidateCell(value any, spec FieldSpec) error {
	if b, ok := value.(bool); ok {
		if spec.Type == FieldBool || spec.Type == FieldText {
			return nil
		}
		value = fmt.Sprint(b)
	}
	s, _ := value.(string)
	if s == "" {
		return nil
	}

	switch spec.Type {
	case FieldBool:
		return fmt.Errorf("invalid boolean %q, must be yes/no, true/false, or 1/0", s)
	case FieldNumeric:
		if _, err := ParseDecimal(s); err != nil {
			return err
		}
	case FieldInteger:
		if _, err := ParseInt(s); err != nil {
			return err
		}
	case FieldDate:
		if _, err := ParseDate(s); err != nil {
			return err
		}
	case FieldDateTime:
		if _, err := ParseDateTime(s); err != nil {
			return err
		}
	case FieldEnum:
		for _, ev := range spec.EnumValues {
			if strings.EqualFold(ev, s) {
				return nil
			}
		}
		return fmt.Errorf("invalid enum value %q, must be one of: %s", s, strings.Join(spec.EnumValues, ", "))
	}
	return nil
}

// describe turns a validator tag failure into an operator-readable message.
func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is empty"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be %s or more", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be %s or less", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("invalid enum value %q, must be one of: %s", fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "alpha":
		return "must contain letters only"
	case "alphanum":
		return "must contain letters and digits only"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func headerFor(spec SheetSpec, name string) string {
	for _, f := range spec.Fields {
		if f.Name == name {
			return f.Header()
		}
	}
	return name
}

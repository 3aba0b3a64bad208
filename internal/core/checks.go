package core

// checks.go holds the reusable consistency checks import definitions compose.
// All checks are read-only and report in file order; groups are visited in
// first-seen order.

import (
	"fmt"
	"strings"
)

// Group is a set of records sharing a batch-level key.
type Group struct {
	Key     string
	Records []Record
}

// FirstRow returns the row number of the group's first record.
func (g Group) FirstRow() int {
	if len(g.Records) == 0 {
		return 0
	}
	return g.Records[0].Row
}

// GroupRecords partitions records by key, preserving first-seen order.
func GroupRecords(records []Record, key func(Record) string) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, rec := range records {
		k := key(rec)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{Key: k})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

// FindDuplicates reports every record whose key was already seen in the
// batch, naming the first and the repeating row. Blank keys are skipped.
func FindDuplicates(records []Record, field string, key func(Record) string) []RowError {
	first := make(map[string]int)
	var errs []RowError
	for _, rec := range records {
		k := key(rec)
		if k == "" {
			continue
		}
		if row, seen := first[k]; seen {
			errs = append(errs, RowError{
				Row:     rec.Row,
				Sheet:   rec.Sheet,
				Field:   field,
				Message: fmt.Sprintf("duplicate %s %q on rows %d and %d", field, k, row, rec.Row),
			})
			continue
		}
		first[k] = rec.Row
	}
	return errs
}

// HeaderField is a group-level field that every row of a group must repeat.
type HeaderField struct {
	Name  string
	Value func(Record) string
}

// CheckGroupConsistency reports, per group, the first header field whose
// value differs from the group's first row.
func CheckGroupConsistency(groupField string, groups []Group, fields []HeaderField) []RowError {
	var errs []RowError
	for _, g := range groups {
		if len(g.Records) < 2 {
			continue
		}
		base := g.Records[0]
	group:
		for _, rec := range g.Records[1:] {
			for _, f := range fields {
				want, got := f.Value(base), f.Value(rec)
				if !strings.EqualFold(strings.TrimSpace(want), strings.TrimSpace(got)) {
					errs = append(errs, RowError{
						Row:   rec.Row,
						Sheet: rec.Sheet,
						Field: f.Name,
						Message: fmt.Sprintf("%s %q: %s differs between row %d (%q) and row %d (%q)",
							groupField, g.Key, f.Name, base.Row, want, rec.Row, got),
					})
					break group
				}
			}
		}
	}
	return errs
}

// CheckGroupDuplicates reports a repeated child key within a group.
func CheckGroupDuplicates(groupField, childField string, groups []Group, childKey func(Record) string) []RowError {
	var errs []RowError
	for _, g := range groups {
		first := make(map[string]int)
		for _, rec := range g.Records {
			k := childKey(rec)
			if row, seen := first[k]; seen {
				errs = append(errs, RowError{
					Row:   rec.Row,
					Sheet: rec.Sheet,
					Field: childField,
					Message: fmt.Sprintf("duplicate %s %q in %s %q on rows %d and %d",
						childField, k, groupField, g.Key, row, rec.Row),
				})
				continue
			}
			first[k] = rec.Row
		}
	}
	return errs
}

// CheckExisting reports keys that already exist in storage, once per key.
func CheckExisting(records []Record, field string, key func(Record) string, exists func(string) bool) []RowError {
	reported := make(map[string]bool)
	var errs []RowError
	for _, rec := range records {
		k := key(rec)
		if k == "" || reported[k] || !exists(k) {
			continue
		}
		reported[k] = true
		errs = append(errs, RowError{
			Row:     rec.Row,
			Sheet:   rec.Sheet,
			Field:   field,
			Message: fmt.Sprintf("%s %q already exists", field, k),
		})
	}
	return errs
}

// CheckReferences reports every record whose reference does not resolve.
// Blank references are skipped; required-ness is a validation concern.
func CheckReferences(records []Record, field string, ref func(Record) string, resolves func(string) bool) []RowError {
	var errs []RowError
	for _, rec := range records {
		k := ref(rec)
		if k == "" || resolves(k) {
			continue
		}
		errs = append(errs, RowError{
			Row:     rec.Row,
			Sheet:   rec.Sheet,
			Field:   field,
			Message: fmt.Sprintf("%s %q not found", field, k),
		})
	}
	return errs
}

// Keys returns the distinct non-blank keys of records in first-seen order.
func Keys(records []Record, key func(Record) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rec := range records {
		k := key(rec)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// CheckStep is one stage of an import's consistency checks.
type CheckStep struct {
	Kind ErrorKind
	Run  func() []RowError
}

// RunChecks runs steps in order and stops at the first step that reports
// errors. Every error of that step is returned in one *BatchError.
func RunChecks(steps ...CheckStep) error {
	for _, step := range steps {
		if errs := step.Run(); len(errs) > 0 {
			return NewBatchError(step.Kind, errs)
		}
	}
	return nil
}

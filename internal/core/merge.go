package core

import "strings"

// MergeRows merges independently validated sources into one row per key.
// Rows are emitted in first-seen order; a later source's non-blank values
// override earlier ones. The merged row keeps the row number and sheet
// where its key first appeared.
func MergeRows(key string, sources ...[]Record) []MappedRow {
	index := make(map[string]int)
	var out []MappedRow
	for _, records := range sources {
		for _, rec := range records {
			src := rec.mapped
			k := mergeKey(key, rec)

			i, ok := index[k]
			if !ok {
				index[k] = len(out)
				out = append(out, MappedRow{
					Row:    src.Row,
					Sheet:  src.Sheet,
					Fields: make(map[string]any, len(src.Fields)),
				})
				i = len(out) - 1
			}
			for name, v := range src.Fields {
				if v == "" {
					if _, set := out[i].Fields[name]; set {
						continue
					}
				}
				out[i].Fields[name] = v
			}
		}
	}
	return out
}

// mergedFields is the union of the sheets' fields, first declaration wins.
// Nothing is required on the merged row: each source already enforced its
// own required columns, and a key may appear in only one source.
func mergedFields(sheets []SheetSpec) []FieldSpec {
	seen := make(map[string]bool)
	var out []FieldSpec
	for _, sh := range sheets {
		for _, f := range sh.Fields {
			if seen[f.Name] {
				continue
			}
			seen[f.Name] = true
			f.Required = false
			out = append(out, f)
		}
	}
	return out
}

// SourceDuplicates reports keys repeated within a single source. Sources are
// merged with each other, never with themselves.
func SourceDuplicates(key string, sources ...[]Record) []RowError {
	var errs []RowError
	for _, records := range sources {
		errs = append(errs, FindDuplicates(records, key, func(r Record) string {
			return mergeKey(key, r)
		})...)
	}
	return errs
}

func mergeKey(key string, rec Record) string {
	return strings.ToUpper(strings.TrimSpace(rec.mapped.Text(key)))
}

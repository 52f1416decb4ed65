package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Record is a single row of a table, keyed by field name.
// A nil value is the missing-value marker.
type Record map[string]any

// Clone returns a shallow copy of the record.
// Values are scalars (time.Time, float64, string, bool, nil) so a shallow copy is an independent row.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered, randomly indexable sequence of records sharing one field set.
// Tables are values: every derived table owns fresh copies of its records and
// nothing in this package mutates a table after construction.
type Table struct {
	fields []string
	rows   []Record
}

// NewTable builds a table from a field list and records, copying both.
// Fields present in a record but missing from fields are appended in sorted order.
func NewTable(fields []string, rows []Record) *Table {
	t := &Table{
		fields: append([]string(nil), fields...),
		rows:   make([]Record, len(rows)),
	}

	known := make(map[string]bool, len(fields))
	for _, f := range fields {
		known[f] = true
	}

	var extra []string
	for i, r := range rows {
		t.rows[i] = r.Clone()
		for k := range r {
			if !known[k] {
				known[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	t.fields = append(t.fields, extra...)

	return t
}

// Fields returns a copy of the ordered field list.
func (t *Table) Fields() []string {
	return append([]string(nil), t.fields...)
}

// HasField reports whether name is part of the table's field set.
func (t *Table) HasField(name string) bool {
	for _, f := range t.fields {
		if f == name {
			return true
		}
	}
	return false
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Row returns a copy of row i.
func (t *Table) Row(i int) Record {
	return t.rows[i].Clone()
}

// Records returns copies of all rows in order.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.Clone()
	}
	return out
}

// Value returns the value of field in row i and whether it is present (non-nil).
func (t *Table) Value(i int, field string) (any, bool) {
	v, ok := t.rows[i][field]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Time returns the timestamp stored in field for row i.
func (t *Table) Time(i int, field string) (time.Time, bool) {
	v, ok := t.Value(i, field)
	if !ok {
		return time.Time{}, false
	}
	return AsTime(v)
}

// Column returns a copy of the values of one field, in row order.
func (t *Table) Column(field string) []any {
	out := make([]any, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[field]
	}
	return out
}

// Floats returns the numeric values of field with a validity mask.
// Non-numeric and missing values are reported as invalid.
func (t *Table) Floats(field string) ([]float64, []bool) {
	values := make([]float64, len(t.rows))
	valid := make([]bool, len(t.rows))
	for i, r := range t.rows {
		values[i], valid[i] = AsFloat(r[field])
	}
	return values, valid
}

// SortByTime returns a copy of the table ordered ascending by the timestamp field.
// The sort is stable; rows whose timestamp is missing are placed last.
func (t *Table) SortByTime(field string) *Table {
	type keyed struct {
		ts  time.Time
		ok  bool
		row Record
	}

	keys := make([]keyed, len(t.rows))
	for i, r := range t.rows {
		ts, ok := AsTime(r[field])
		keys[i] = keyed{ts: ts, ok: ok, row: r}
	}

	sort.SliceStable(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ok != b.ok {
			return a.ok
		}
		return a.ok && a.ts.Before(b.ts)
	})

	rows := make([]Record, len(keys))
	for i, k := range keys {
		rows[i] = k.row.Clone()
	}
	return &Table{fields: t.Fields(), rows: rows}
}

// Slice returns a copy of rows [start, end). Bounds are clamped to the table.
func (t *Table) Slice(start, end int) *Table {
	if start < 0 {
		start = 0
	}
	if end > len(t.rows) {
		end = len(t.rows)
	}
	if end < start {
		end = start
	}

	rows := make([]Record, 0, end-start)
	for _, r := range t.rows[start:end] {
		rows = append(rows, r.Clone())
	}
	return &Table{fields: t.Fields(), rows: rows}
}

// Filter returns a copy holding the rows for which keep returns true, in order.
func (t *Table) Filter(keep func(i int) bool) *Table {
	rows := make([]Record, 0)
	for i, r := range t.rows {
		if keep(i) {
			rows = append(rows, r.Clone())
		}
	}
	return &Table{fields: t.Fields(), rows: rows}
}

// WithColumn returns a copy of the table with field set to values row by row.
// An existing field of the same name is replaced in place in the field order.
func (t *Table) WithColumn(field string, values []any) (*Table, error) {
	if len(values) != len(t.rows) {
		return nil, fmt.Errorf("column %q has %d values, table has %d rows", field, len(values), len(t.rows))
	}

	fields := t.Fields()
	if !t.HasField(field) {
		fields = append(fields, field)
	}

	rows := make([]Record, len(t.rows))
	for i, r := range t.rows {
		row := r.Clone()
		row[field] = values[i]
		rows[i] = row
	}
	return &Table{fields: fields, rows: rows}, nil
}

// AsTime converts a stored value to a timestamp.
// Strings are parsed with ParseTimestamp.
func AsTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case *time.Time:
		if val == nil {
			return time.Time{}, false
		}
		return *val, !val.IsZero()
	case string:
		ts, err := ParseTimestamp(val)
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	default:
		return time.Time{}, false
	}
}

// AsFloat converts a stored value to float64. NaN and infinities are not
// valid numbers and report false.
func AsFloat(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// timestampFormats lists the layouts accepted for timestamp fields and boundaries.
var timestampFormats = []string{
	"2006-01-02",          // ISO date
	time.RFC3339Nano,      // ISO with zone
	"2006-01-02 15:04:05", // ISO with time
	"2006-01-02T15:04:05", // ISO with T separator
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006", // US
	"02/01/2006", // European
	"01-02-2006",
	"02-01-2006",
	"01/02/2006 15:04",
	"01/02/2006 15:04:05",
}

// ParseTimestamp parses s using the supported timestamp layouts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", s)
}

package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"

	"energyforecast/pkg/contracts/domain"
)

// rawTable holds cells as read from a source, before column typing.
// CSV and Excel cells are strings; Parquet cells keep their physical type.
// A nil cell is missing.
type rawTable struct {
	fields []string
	rows   [][]any
}

// naTokens are the cell spellings read as missing, matching the pandas defaults
var naTokens = map[string]struct{}{
	"#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {},
	"N/A": {}, "NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {},
	"nan": {}, "null": {},
}

// isNAToken reports whether a trimmed cell spells a missing value
func isNAToken(cell string) bool {
	_, ok := naTokens[cell]
	return ok
}

// newRawTable builds a raw table from a string header and string rows.
// Empty and NA cells become nil and short rows are padded.
func newRawTable(header []string, records [][]string) *rawTable {
	fields := make([]string, len(header))
	for i, h := range header {
		fields[i] = strings.TrimSpace(h)
	}

	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		if blankRecord(rec) {
			continue
		}
		row := make([]any, len(fields))
		for i := range fields {
			if i < len(rec) {
				if cell := strings.TrimSpace(rec[i]); cell != "" && !isNAToken(cell) {
					row[i] = cell
				}
			}
		}
		rows = append(rows, row)
	}

	return &rawTable{fields: fields, rows: rows}
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// concatRaw unions the field lists in first-seen order and appends the rows.
func concatRaw(parts []*rawTable) *rawTable {
	index := make(map[string]int)
	var fields []string
	total := 0
	for _, p := range parts {
		total += len(p.rows)
		for _, f := range p.fields {
			if _, ok := index[f]; !ok {
				index[f] = len(fields)
				fields = append(fields, f)
			}
		}
	}

	rows := make([][]any, 0, total)
	for _, p := range parts {
		for _, r := range p.rows {
			row := make([]any, len(fields))
			for i, f := range p.fields {
				row[index[f]] = r[i]
			}
			rows = append(rows, row)
		}
	}

	return &rawTable{fields: fields, rows: rows}
}

// toTable types each column and builds the domain table.
func (r *rawTable) toTable(timeField string) *domain.Table {
	for col := range r.fields {
		r.convertColumn(col, missingToNil)
	}
	for col, field := range r.fields {
		if field == timeField {
			r.convertColumn(col, toTimestamp)
			continue
		}
		if r.numericColumn(col) {
			r.convertColumn(col, toFloat)
		}
	}

	records := make([]domain.Record, len(r.rows))
	for i, row := range r.rows {
		rec := make(domain.Record, len(r.fields))
		for col, field := range r.fields {
			rec[field] = row[col]
		}
		records[i] = rec
	}
	return domain.NewTable(r.fields, records)
}

// numericColumn reports whether the column holds string cells that all parse as numbers.
func (r *rawTable) numericColumn(col int) bool {
	seen := false
	for _, row := range r.rows {
		s, ok := row[col].(string)
		if !ok {
			continue
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return false
		}
		seen = true
	}
	return seen
}

func (r *rawTable) convertColumn(col int, conv func(any) any) {
	for _, row := range r.rows {
		row[col] = conv(row[col])
	}
}

// toFloat coerces a cell to float64. Unparseable, NaN and infinite values become nil.
func toFloat(v any) any {
	switch val := v.(type) {
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	default:
		return v
	}
}

// missingToNil maps NA spellings and non-finite floats from any source to nil
func missingToNil(v any) any {
	switch val := v.(type) {
	case string:
		if isNAToken(strings.TrimSpace(val)) {
			return nil
		}
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
	}
	return v
}

// toTimestamp coerces a cell to time.Time, or nil when it cannot be parsed.
func toTimestamp(v any) any {
	switch val := v.(type) {
	case time.Time:
		if val.IsZero() {
			return nil
		}
		return val
	case string:
		ts, err := domain.ParseTimestamp(val)
		if err != nil {
			return nil
		}
		return ts
	default:
		return nil
	}
}

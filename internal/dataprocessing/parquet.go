package dataprocessing

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/format"
)

const parquetBatchSize = 256

// readParquet reads every row of a Parquet file. Nested columns are flattened to
// dotted names; DATE and TIMESTAMP logical types become time.Time.
func readParquet(path string) (*rawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	schema := pf.Schema()
	paths := schema.Columns()
	fields := make([]string, len(paths))
	converters := make([]func(parquet.Value) any, len(paths))
	for i, p := range paths {
		fields[i] = strings.Join(p, ".")
		var logical *format.LogicalType
		if leaf, ok := schema.Lookup(p...); ok {
			logical = leaf.Node.Type().LogicalType()
		}
		converters[i] = parquetConverter(logical)
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	var rows [][]any
	buf := make([]parquet.Row, parquetBatchSize)
	for {
		n, err := reader.ReadRows(buf)
		for _, row := range buf[:n] {
			out := make([]any, len(fields))
			for _, v := range row {
				col := v.Column()
				if col < 0 || col >= len(out) || v.IsNull() {
					continue
				}
				out[col] = converters[col](v)
			}
			rows = append(rows, out)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet rows: %w", err)
		}
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: parquet file has no rows", ErrNoData)
	}
	return &rawTable{fields: fields, rows: rows}, nil
}

// parquetConverter picks the Go value for a leaf column based on its logical type.
func parquetConverter(logical *format.LogicalType) func(parquet.Value) any {
	switch {
	case logical != nil && logical.Date != nil:
		return func(v parquet.Value) any {
			return time.Unix(0, 0).UTC().AddDate(0, 0, int(v.Int32()))
		}
	case logical != nil && logical.Timestamp != nil:
		unit := logical.Timestamp.Unit
		return func(v parquet.Value) any {
			n := v.Int64()
			switch {
			case unit.Millis != nil:
				return time.UnixMilli(n).UTC()
			case unit.Micros != nil:
				return time.UnixMicro(n).UTC()
			default:
				return time.Unix(0, n).UTC()
			}
		}
	default:
		return parquetScalar
	}
}

func parquetScalar(v parquet.Value) any {
	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		return int64(v.Int32())
	case parquet.Int64:
		return v.Int64()
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

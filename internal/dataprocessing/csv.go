package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// readCSV reads a CSV file with a header row. Rows may be ragged.
func readCSV(path string) (*rawTable, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read CSV file: %w", err)
	}
	content = bytes.TrimPrefix(content, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records: %w", err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty CSV file", ErrNoData)
	}

	raw := newRawTable(records[0], records[1:])
	if len(raw.rows) == 0 {
		return nil, fmt.Errorf("%w: CSV file contains only header", ErrNoData)
	}
	return raw, nil
}

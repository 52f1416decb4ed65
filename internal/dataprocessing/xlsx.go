package dataprocessing

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads the first worksheet that has a header row. Leading blank rows
// are skipped; the first non-blank row is the header.
func readXLSX(path string) (*rawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}

		header := -1
		for i, row := range rows {
			if !blankRecord(row) {
				header = i
				break
			}
		}
		if header < 0 {
			continue
		}

		raw := newRawTable(rows[header], rows[header+1:])
		if len(raw.rows) == 0 {
			return nil, fmt.Errorf("%w: sheet %q contains only header", ErrNoData, sheet)
		}
		return raw, nil
	}

	return nil, fmt.Errorf("%w: workbook has no non-empty sheet", ErrNoData)
}

// Package dataprocessing loads tabular energy data from disk into domain tables.
//
// # Sources
//
// The reader is chosen by file extension:
//
//   - .csv: header row required, UTF-8 BOM tolerated, ragged rows padded
//   - .xlsx: first worksheet with a non-blank row, read with excelize
//   - .parquet: all leaf columns, read with parquet-go
//
// A directory is loaded by reading every supported file in it concurrently and
// concatenating the results in file name order. Field lists are unioned in
// first-seen order; a field absent from one file is missing in that file's rows.
//
// # Typing
//
// The designated time field is parsed with domain.ParseTimestamp and unparseable
// values become missing rather than failing the load. Any other column whose
// non-empty text cells all parse as numbers becomes float64. Parquet values keep
// their physical type.
//
// # Usage
//
//	tbl, err := dataprocessing.LoadTable(ctx, "data/plant.csv", "Date")
//	if err != nil {
//	    return err
//	}
//
// When the time field is present the returned table is already sorted by it.
package dataprocessing

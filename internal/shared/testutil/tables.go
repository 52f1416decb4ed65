package testutil

import (
	"time"

	"energyforecast/pkg/contracts/domain"
)

// Fixture field names used by table builders
const (
	DateField   = "Date"
	TargetField = "Production"
	SiteField   = "Site"
)

// FixtureStart is the first timestamp of generated daily tables
var FixtureStart = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// DailyTable builds n rows of daily data starting at FixtureStart.
// Production equals the row position so lag and rolling values are easy to predict.
func DailyTable(n int) *domain.Table {
	rows := make([]domain.Record, n)
	for i := 0; i < n; i++ {
		rows[i] = domain.Record{
			DateField:   FixtureStart.AddDate(0, 0, i),
			TargetField: float64(i),
			SiteField:   "plant-a",
		}
	}
	return domain.NewTable([]string{DateField, TargetField, SiteField}, rows)
}

// ShuffledDailyTable is DailyTable with rows in a deterministic non-chronological order.
func ShuffledDailyTable(n int) *domain.Table {
	ordered := DailyTable(n).Records()
	rows := make([]domain.Record, 0, n)
	// a prime stride that does not divide n visits every row exactly once
	stride := 1
	for _, p := range []int{7, 11, 13, 17} {
		if n%p != 0 {
			stride = p
			break
		}
	}
	for i, pos := 0, 0; i < n; i, pos = i+1, (pos+stride)%n {
		rows = append(rows, ordered[pos])
	}
	return domain.NewTable([]string{DateField, TargetField, SiteField}, rows)
}

// Day returns the timestamp of row i in a DailyTable
func Day(i int) time.Time {
	return FixtureStart.AddDate(0, 0, i)
}

// Timestamps returns the DateField values of tbl in row order
func Timestamps(tbl *domain.Table) []time.Time {
	out := make([]time.Time, tbl.Len())
	for i := range out {
		out[i], _ = tbl.Time(i, DateField)
	}
	return out
}

package split

import (
	"strings"
	"time"

	"energyforecast/pkg/contracts/domain"
)

// Default proportions used when no explicit boundaries are supplied.
const (
	DefaultTrainShare  = 0.70
	DefaultValEndShare = 0.85
)

// Boundaries holds the inclusive upper edges of the train and validation partitions.
// A zero TrainEnd or ValEnd requests the proportional row-count split.
type Boundaries struct {
	TrainEnd time.Time `json:"train_end"`
	ValEnd   time.Time `json:"val_end"`
}

// IsZero reports whether the boundaries fall back to the proportional split
func (b Boundaries) IsZero() bool {
	return b.TrainEnd.IsZero() || b.ValEnd.IsZero()
}

// ParseBoundaries parses train_end and val_end strings. An empty string leaves
// the corresponding boundary unset.
func ParseBoundaries(trainEnd, valEnd string) (Boundaries, error) {
	var b Boundaries

	if s := strings.TrimSpace(trainEnd); s != "" {
		ts, err := domain.ParseTimestamp(s)
		if err != nil {
			return Boundaries{}, &InvalidParameterError{Param: "train_end", Value: trainEnd, Reason: err.Error()}
		}
		b.TrainEnd = ts
	}

	if s := strings.TrimSpace(valEnd); s != "" {
		ts, err := domain.ParseTimestamp(s)
		if err != nil {
			return Boundaries{}, &InvalidParameterError{Param: "val_end", Value: valEnd, Reason: err.Error()}
		}
		b.ValEnd = ts
	}

	return b, nil
}

// Partition is the result of a fixed-boundary split. Each table is independently owned.
type Partition struct {
	Train *domain.Table
	Val   *domain.Table
	Test  *domain.Table
}

// FixedBoundary splits tbl into chronologically ordered train, validation and test tables.
//
// With explicit boundaries, rows are assigned by timestamp:
//
//	train: t <= TrainEnd
//	val:   TrainEnd < t <= ValEnd
//	test:  t > ValEnd
//
// Otherwise the sorted rows are cut 70/15/15 by row count. TrainEnd >= ValEnd is
// accepted and yields an empty validation table. Rows without a timestamp satisfy
// none of the predicates and are left out of an explicit-boundary split.
func FixedBoundary(tbl *domain.Table, timeField string, b Boundaries) (Partition, error) {
	if err := requireField(tbl.Fields(), timeField, tbl.HasField(timeField)); err != nil {
		return Partition{}, err
	}

	sorted := tbl.SortByTime(timeField)

	if b.IsZero() {
		n := sorted.Len()
		trainEnd := int(float64(n) * DefaultTrainShare)
		valEnd := int(float64(n) * DefaultValEndShare)

		return Partition{
			Train: sorted.Slice(0, trainEnd),
			Val:   sorted.Slice(trainEnd, valEnd),
			Test:  sorted.Slice(valEnd, n),
		}, nil
	}

	at := func(i int) (time.Time, bool) { return sorted.Time(i, timeField) }

	return Partition{
		Train: sorted.Filter(func(i int) bool {
			ts, ok := at(i)
			return ok && !ts.After(b.TrainEnd)
		}),
		Val: sorted.Filter(func(i int) bool {
			ts, ok := at(i)
			return ok && ts.After(b.TrainEnd) && !ts.After(b.ValEnd)
		}),
		Test: sorted.Filter(func(i int) bool {
			ts, ok := at(i)
			return ok && ts.After(b.ValEnd)
		}),
	}, nil
}

// Package features derives supervised-learning columns from a time-ordered target.
//
// Every feature only looks at rows strictly earlier in time than the row it is
// attached to, so splitting the result chronologically never leaks the future.
package features

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"energyforecast/internal/split"
	"energyforecast/pkg/contracts/domain"
)

// LagField returns the name of the k-step lag column of target
func LagField(target string, k int) string {
	return fmt.Sprintf("%s_lag_%d", target, k)
}

// RollingField returns the name of the w-row rolling mean column of target
func RollingField(target string, w int) string {
	return fmt.Sprintf("%s_rollmean_%d", target, w)
}

// AddLagFeatures returns a copy of tbl sorted by timeField with one column per lag.
// Column {target}_lag_{k} holds the target value k rows earlier, or nil when that row
// does not exist or its target is missing or non-numeric.
func AddLagFeatures(tbl *domain.Table, target, timeField string, lags []int) (*domain.Table, error) {
	sorted, values, valid, err := prepare(tbl, target, timeField, "lags", lags)
	if err != nil {
		return nil, err
	}

	out := sorted
	for _, k := range lags {
		col := make([]any, len(values))
		for i := k; i < len(values); i++ {
			if valid[i-k] {
				col[i] = values[i-k]
			}
		}
		if out, err = out.WithColumn(LagField(target, k), col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// AddRollingFeatures returns a copy of tbl sorted by timeField with one rolling mean
// column per window. Column {target}_rollmean_{w} is the mean of the w target values
// immediately before the row, or nil unless all w of them are present.
func AddRollingFeatures(tbl *domain.Table, target, timeField string, windows []int) (*domain.Table, error) {
	sorted, values, valid, err := prepare(tbl, target, timeField, "windows", windows)
	if err != nil {
		return nil, err
	}

	out := sorted
	for _, w := range windows {
		col := make([]any, len(values))
		// missing counts invalid cells inside values[i-w:i]
		missing := 0
		for i := 0; i < len(values); i++ {
			if i > 0 && !valid[i-1] {
				missing++
			}
			if i-w-1 >= 0 && !valid[i-w-1] {
				missing--
			}
			if i >= w && missing == 0 {
				col[i] = stat.Mean(values[i-w:i], nil)
			}
		}
		if out, err = out.WithColumn(RollingField(target, w), col); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func prepare(tbl *domain.Table, target, timeField, param string, sizes []int) (*domain.Table, []float64, []bool, error) {
	for _, f := range []string{timeField, target} {
		if !tbl.HasField(f) {
			return nil, nil, nil, &split.FieldNotFoundError{Field: f, Available: tbl.Fields()}
		}
	}
	for _, s := range sizes {
		if s < 1 {
			return nil, nil, nil, &split.InvalidParameterError{Param: param, Value: s, Reason: "must be at least 1"}
		}
	}

	sorted := tbl.SortByTime(timeField)
	values, valid := sorted.Floats(target)
	return sorted, values, valid, nil
}

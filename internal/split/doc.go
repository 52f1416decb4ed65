// Package split partitions time-ordered tables for supervised forecasting without
// leaking future rows into earlier partitions.
//
// Two independent splitters are provided:
//
//   - FixedBoundary: one train/validation/test cut, either at explicit timestamps
//     or 70/15/15 by row count.
//   - WalkForward: an expanding-window sequence of (train, validation) folds that
//     simulates periodic retraining as history accumulates.
//
// Both sort a copy of the input by the timestamp field and return independently
// owned tables; the input table is never modified, so concurrent callers need no
// synchronisation.
//
// # Errors
//
// Failures are reported before any partitioning happens and carry enough context to
// diagnose the call:
//
//   - *FieldNotFoundError: the timestamp field is missing (lists the available fields)
//   - *InvalidParameterError: a fraction or fold count is out of range
//   - *EmptyWindowError: the train or validation window rounds down to zero rows
//   - *NoFoldsProducedError: the first validation window already overruns the data
//
// Running out of data part-way through a walk-forward run is not an error; the fold
// sequence is simply shorter than requested.
//
// # Usage
//
//	part, err := split.FixedBoundary(tbl, "Date", split.Boundaries{})
//	if err != nil {
//	    return err
//	}
//
//	folds, err := split.WalkForward(tbl, "Date", split.WalkForwardConfig{
//	    InitialTrainFrac: 0.5,
//	    ValFrac:          0.1,
//	    NFolds:           4,
//	})
package split

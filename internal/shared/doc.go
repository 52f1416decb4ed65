// Package shared holds code used across packages that belongs to no single layer.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on log output
//   - DailyTable and ShuffledDailyTable fixtures with predictable values
//   - Day and Timestamps helpers for checking partition boundaries
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, handler := testutil.NewTestLogger(t)
//	    tbl := testutil.DailyTable(100)
//
//	    // exercise code with logger and tbl
//	    testutil.AssertNoErrors(t, handler)
//	}
package shared

// Package shared holds helpers used across the bizdash packages that belong to
// no single domain.
//
// # Test Utilities
//
// The testutil subpackage provides:
//
//   - a buffered slog handler for asserting on log output
//   - CSV fixtures for every processing domain
//   - file helpers that place fixtures in a test's temporary directory
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    path := testutil.WriteFixture(t, "sales.csv", testutil.SalesCSV)
//	    ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "dataset loaded")
//	}
package shared

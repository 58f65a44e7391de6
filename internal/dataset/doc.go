// Package dataset implements the in-memory table every processing domain works on.
//
// A Dataset is an ordered list of named columns. Every column carries one Kind
// (string, int, float, bool or time) and all columns have the same length. The
// row count may be zero.
//
// Operations never mutate their receiver except SetColumn and ParseTimes, which
// add or replace a column in place. Strategies use them to attach derived
// columns such as year, month and week.
//
//	ds, err := dataset.FromRecords(header, rows)
//	sorted, err := ds.SortBy("name")
//	totals, err := ds.GroupSum([]string{"year", "month"}, []string{"Quantity Ordered"})
package dataset

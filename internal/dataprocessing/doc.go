// Package dataprocessing turns business data sources into processed tables.
// It covers ingestion of CSV and Excel files and the per-domain processing
// strategies (HR, Finance, Sales, Supply Chain, CRM) the dashboard dispatches to.
//
// # Architecture
//
// The package is organized into three parts:
//
// 1. Parser: reads CSV (path or stream) and XLSX sources into a dataset.Dataset
// 2. Strategies: one Strategy implementation per business domain
// 3. Registry: maps a Domain to a freshly built Strategy
//
// # Usage
//
// Loading a file and running a strategy:
//
//	ds, err := dataprocessing.LoadFile("sales.csv")
//	if err != nil {
//	    return err
//	}
//	strategy, err := dataprocessing.Lookup("Sales")
//	if err != nil {
//	    return err
//	}
//	res, err := strategy.Process(ctx, dataprocessing.FromDataset(ds), dataprocessing.Options{Period: "weekly"})
//
// # Data Flow
//
//	Source → Parser → Dataset → Strategy (validate, filter, group, sort) → Result (+ chart for Sales)
//
// # Error Handling
//
// Failures are *errors.AppError values classified by type:
//
//	- ParseError: the source could not be read or interpreted
//	- SchemaError: required columns are missing (CRM, Sales)
//	- ColumnSelectionError: a requested column or sort key does not exist
//
// An empty result is not an error; Result.Notice carries the message shown instead.
//
// # Mutation
//
// Strategies add derived columns (year, week, month) to the dataset they are
// given. Callers that share a dataset across requests must pass a Clone.
package dataprocessing

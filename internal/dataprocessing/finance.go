package dataprocessing

import (
	"context"
)

// FinanceStrategy selects columns and sorts ascending by SortBy, the first
// selected column, or Brand.
type FinanceStrategy struct{}

// NewFinanceStrategy creates a Finance strategy.
func NewFinanceStrategy() *FinanceStrategy {
	return &FinanceStrategy{}
}

// Process implements Strategy. An explicitly empty column list keeps every column.
func (s *FinanceStrategy) Process(ctx context.Context, in Input, opts Options) (*Result, error) {
	ds, err := resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	out, err := selectAndSort(ds, opts, true)
	if err != nil {
		return nil, err
	}
	return newResult(out, NoticeDefault), nil
}

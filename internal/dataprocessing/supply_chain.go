package dataprocessing

import (
	"context"
)

// SupplyChainStrategy selects columns and sorts like Finance.
type SupplyChainStrategy struct{}

// NewSupplyChainStrategy creates a Supply Chain strategy.
func NewSupplyChainStrategy() *SupplyChainStrategy {
	return &SupplyChainStrategy{}
}

// Process implements Strategy. Unlike Finance, an explicitly empty column
// list selects no columns, which leaves only the Brand fallback as sort key.
func (s *SupplyChainStrategy) Process(ctx context.Context, in Input, opts Options) (*Result, error) {
	ds, err := resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	out, err := selectAndSort(ds, opts, false)
	if err != nil {
		return nil, err
	}
	return newResult(out, NoticeDefault), nil
}

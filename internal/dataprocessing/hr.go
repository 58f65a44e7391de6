package dataprocessing

import (
	"context"

	apperrors "bizdash/internal/errors"
)

// HRStrategy selects employee columns and sorts by the first of them.
type HRStrategy struct{}

// NewHRStrategy creates an HR strategy.
func NewHRStrategy() *HRStrategy {
	return &HRStrategy{}
}

// Process implements Strategy. It does not load sources and ignores SortBy.
func (s *HRStrategy) Process(ctx context.Context, in Input, opts Options) (*Result, error) {
	if in.Dataset == nil {
		return nil, ErrDatasetRequired
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	columns := opts.Columns
	if columns == nil {
		columns = in.Dataset.Columns()
	}
	if len(columns) == 0 {
		return nil, apperrors.NewAppError(apperrors.ErrTypeColumnSelection, "no columns selected", nil)
	}

	selected, err := in.Dataset.Select(columns)
	if err != nil {
		return nil, err
	}
	out, err := selected.SortBy(columns[0])
	if err != nil {
		return nil, err
	}
	return newResult(out, NoticeDefault), nil
}

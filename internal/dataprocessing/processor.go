package dataprocessing

import (
	"context"

	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// ErrDatasetRequired is returned by strategies that only accept a loaded dataset.
var ErrDatasetRequired = apperrors.NewAppValidationError("a loaded dataset is required")

// ErrNoInput is returned when neither a dataset nor a source path is given.
var ErrNoInput = apperrors.NewAppValidationError("no dataset or source path given")

// fallbackSortKey is used by Finance and Supply Chain when nothing else names a key.
const fallbackSortKey = "Brand"

// resolve returns the loaded dataset or loads it from the source path.
func resolve(ctx context.Context, in Input) (*dataset.Dataset, error) {
	if in.Dataset != nil {
		return in.Dataset, nil
	}
	if in.Path == "" {
		return nil, ErrNoInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return LoadFile(in.Path)
}

// selectAndSort is shared by Finance and Supply Chain. A nil column list
// selects every column. emptyKeepsAll controls whether an explicit empty list
// keeps every column or selects none.
func selectAndSort(ds *dataset.Dataset, opts Options, emptyKeepsAll bool) (*dataset.Dataset, error) {
	columns := opts.Columns
	if columns == nil {
		columns = ds.Columns()
	}

	selected := ds
	if len(columns) > 0 || !emptyKeepsAll {
		var err error
		if selected, err = ds.Select(columns); err != nil {
			return nil, err
		}
	}

	key := opts.SortBy
	if key == "" {
		key = fallbackSortKey
		if len(columns) > 0 {
			key = columns[0]
		}
	}
	return selected.SortBy(key)
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

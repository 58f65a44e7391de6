package dataset

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	apperrors "bizdash/internal/errors"
)

// Compare orders two cells. Missing values sort after everything else, numbers
// compare numerically across int64 and float64, and values of unrelated kinds
// fall back to comparing their text form.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}

	if fa, ok := asFloat(a); ok {
		if fb, ok := asFloat(b); ok {
			if ia, aInt := a.(int64); aInt {
				if ib, bInt := b.(int64); bInt {
					return cmp.Compare(ia, ib)
				}
			}
			return cmp.Compare(fa, fb)
		}
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			default:
				return 1
			}
		}
	}

	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func sortValues(values []any) {
	slices.SortStableFunc(values, Compare)
}

// SortBy returns the rows ordered ascending by key. The sort is stable and
// missing values go last.
func (d *Dataset) SortBy(key string) (*Dataset, error) {
	col, ok := d.Column(key)
	if !ok {
		return nil, apperrors.NewColumnSelectionError([]string{key})
	}

	order := make([]int, d.rows)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		return Compare(col.Values[i], col.Values[j])
	})
	return d.Take(order), nil
}

// IsSorted reports whether the column values are non-decreasing.
func (d *Dataset) IsSorted(key string) bool {
	col, ok := d.Column(key)
	if !ok {
		return false
	}
	return slices.IsSortedFunc(col.Values, Compare)
}

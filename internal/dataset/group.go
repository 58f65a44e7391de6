package dataset

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "bizdash/internal/errors"
)

type group struct {
	key  []any
	rows []int
}

// GroupSum groups rows by the key columns and sums the numeric sum columns
// within each group. The result is flat: key columns first, then sum columns,
// one row per group ordered ascending by key. Rows with a missing key value
// are dropped. Missing summands count as zero. Float sums are accumulated as
// decimals so the result does not depend on row order.
func (d *Dataset) GroupSum(keys, sums []string) (*Dataset, error) {
	if missing := d.Missing(append(append([]string(nil), keys...), sums...)...); len(missing) > 0 {
		return nil, apperrors.NewColumnSelectionError(missing)
	}
	keys = dedupe(keys)
	for _, name := range sums {
		col, _ := d.Column(name)
		if !col.Kind.IsNumeric() && !col.allMissing() {
			return nil, apperrors.NewAppValidationError(fmt.Sprintf("column %q is %s and cannot be summed", name, col.Kind))
		}
	}

	keyCols := make([]*Column, len(keys))
	for i, name := range keys {
		keyCols[i], _ = d.Column(name)
	}

	groups := make(map[string]*group)
	var order []*group
rows:
	for r := 0; r < d.rows; r++ {
		key := make([]any, len(keyCols))
		for i, col := range keyCols {
			if col.Values[r] == nil {
				continue rows
			}
			key[i] = col.Values[r]
		}
		id := keyID(key)
		g, ok := groups[id]
		if !ok {
			g = &group{key: key}
			groups[id] = g
			order = append(order, g)
		}
		g.rows = append(g.rows, r)
	}

	slices.SortStableFunc(order, func(a, b *group) int {
		for i := range a.key {
			if c := Compare(a.key[i], b.key[i]); c != 0 {
				return c
			}
		}
		return 0
	})

	out := make([]*Column, 0, len(keys)+len(sums))
	for i, col := range keyCols {
		values := make([]any, len(order))
		for j, g := range order {
			values[j] = g.key[i]
		}
		out = append(out, &Column{Name: col.Name, Kind: col.Kind, Values: values})
	}
	for _, name := range sums {
		col, _ := d.Column(name)
		values := make([]any, len(order))
		for j, g := range order {
			values[j] = sumRows(col, g.rows)
		}
		kind := col.Kind
		if !kind.IsNumeric() {
			kind = Float
		}
		out = append(out, &Column{Name: name, Kind: kind, Values: values})
	}

	result := MustNew(out...)
	result.rows = len(order)
	return result, nil
}

func sumRows(col *Column, rows []int) any {
	if col.Kind == Int {
		var total int64
		for _, r := range rows {
			if v, ok := col.Values[r].(int64); ok {
				total += v
			}
		}
		return total
	}

	total := decimal.Zero
	for _, r := range rows {
		if v, ok := col.Values[r].(float64); ok {
			total = total.Add(decimal.NewFromFloat(v))
		}
	}
	f, _ := total.Float64()
	return f
}

// Product returns a Float column holding a[i]*b[i] computed with decimals.
// Rows where either factor is missing yield a missing product.
func (d *Dataset) Product(name, a, b string) (*Column, error) {
	if missing := d.Missing(a, b); len(missing) > 0 {
		return nil, apperrors.NewColumnSelectionError(missing)
	}
	colA, _ := d.Column(a)
	colB, _ := d.Column(b)
	values := make([]any, d.rows)
	for r := 0; r < d.rows; r++ {
		x, okA := asFloat(colA.Values[r])
		y, okB := asFloat(colB.Values[r])
		if !okA || !okB {
			continue
		}
		p, _ := decimal.NewFromFloat(x).Mul(decimal.NewFromFloat(y)).Float64()
		values[r] = p
	}
	return &Column{Name: name, Kind: Float, Values: values}, nil
}

func keyID(key []any) string {
	var b strings.Builder
	for _, v := range key {
		switch x := v.(type) {
		case time.Time:
			fmt.Fprintf(&b, "t:%d", x.UnixNano())
		default:
			fmt.Fprintf(&b, "%T:%v", v, v)
		}
		b.WriteByte(0)
	}
	return b.String()
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

package dataset

import (
	"fmt"
	"strconv"
	"time"

	apperrors "bizdash/internal/errors"
)

// Kind is the value type shared by every cell of a column.
type Kind int

const (
	String Kind = iota
	Int
	Float
	Bool
	Time
)

// String implements fmt.Stringer
func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Time:
		return "time"
	default:
		return "string"
	}
}

// IsNumeric reports whether values of the kind can be summed.
func (k Kind) IsNumeric() bool {
	return k == Int || k == Float
}

// Column is a named sequence of values of one Kind. A nil value is missing.
// Non-nil values hold string, int64, float64, bool or time.Time according to Kind.
type Column struct {
	Name   string
	Kind   Kind
	Values []any
}

// NewColumn builds a column and copies values.
func NewColumn(name string, kind Kind, values []any) *Column {
	return &Column{Name: name, Kind: kind, Values: append([]any(nil), values...)}
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	return len(c.Values)
}

func (c *Column) allMissing() bool {
	for _, v := range c.Values {
		if v != nil {
			return false
		}
	}
	return true
}

func (c *Column) clone() *Column {
	return NewColumn(c.Name, c.Kind, c.Values)
}

// Dataset is an ordered collection of equally long named columns. The row
// count may be zero.
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New creates a dataset from columns. Columns must have unique names and equal lengths.
func New(columns ...*Column) (*Dataset, error) {
	ds := &Dataset{index: make(map[string]int, len(columns))}
	for i, col := range columns {
		if col == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := ds.index[col.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", col.Name)
		}
		if i == 0 {
			ds.rows = col.Len()
		} else if col.Len() != ds.rows {
			return nil, fmt.Errorf("column %q has %d values, want %d", col.Name, col.Len(), ds.rows)
		}
		ds.index[col.Name] = i
		ds.columns = append(ds.columns, col)
	}
	return ds, nil
}

// MustNew is New for fixtures and literals known to be well formed.
func MustNew(columns ...*Column) *Dataset {
	ds, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return ds
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.rows
}

// Empty reports whether the dataset has no rows.
func (d *Dataset) Empty() bool {
	return d.rows == 0
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	names := make([]string, len(d.columns))
	for i, col := range d.columns {
		names[i] = col.Name
	}
	return names
}

// Has reports whether the dataset has a column with the given name.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Column returns the named column.
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Value returns the cell at row for the named column.
func (d *Dataset) Value(name string, row int) (any, bool) {
	col, ok := d.Column(name)
	if !ok || row < 0 || row >= d.rows {
		return nil, false
	}
	return col.Values[row], true
}

// Missing returns the names from want that are not columns of the dataset, in want order.
func (d *Dataset) Missing(want ...string) []string {
	var missing []string
	for _, name := range want {
		if !d.Has(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

// SetColumn adds col, or replaces the column of the same name in place keeping
// its position. The length must match unless the dataset has no columns.
func (d *Dataset) SetColumn(col *Column) error {
	if len(d.columns) > 0 && col.Len() != d.rows {
		return fmt.Errorf("column %q has %d values, want %d", col.Name, col.Len(), d.rows)
	}
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[col.Name]; ok {
		d.columns[i] = col
		return nil
	}
	if len(d.columns) == 0 {
		d.rows = col.Len()
	}
	d.index[col.Name] = len(d.columns)
	d.columns = append(d.columns, col)
	return nil
}

// Clone returns a deep copy of the column structure. Cell values are immutable
// scalars and are shared.
func (d *Dataset) Clone() *Dataset {
	cols := make([]*Column, len(d.columns))
	for i, col := range d.columns {
		cols[i] = col.clone()
	}
	return MustNew(cols...)
}

// Select returns a dataset with exactly the given columns in the given order.
func (d *Dataset) Select(names []string) (*Dataset, error) {
	if missing := d.Missing(names...); len(missing) > 0 {
		return nil, apperrors.NewColumnSelectionError(missing)
	}
	cols := make([]*Column, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		col, _ := d.Column(name)
		cols = append(cols, col.clone())
	}
	out := MustNew(cols...)
	if len(cols) == 0 {
		out.rows = d.rows
	}
	return out, nil
}

// Take returns the rows at the given positions, in that order.
func (d *Dataset) Take(rows []int) *Dataset {
	cols := make([]*Column, len(d.columns))
	for i, col := range d.columns {
		values := make([]any, len(rows))
		for j, r := range rows {
			values[j] = col.Values[r]
		}
		cols[i] = &Column{Name: col.Name, Kind: col.Kind, Values: values}
	}
	out := MustNew(cols...)
	out.rows = len(rows)
	return out
}

// Filter returns the rows for which keep returns true.
func (d *Dataset) Filter(keep func(row int) bool) *Dataset {
	rows := make([]int, 0, d.rows)
	for r := 0; r < d.rows; r++ {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return d.Take(rows)
}

// Equal returns the rows whose value in column equals value exactly.
func (d *Dataset) Equal(column string, value any) (*Dataset, error) {
	col, ok := d.Column(column)
	if !ok {
		return nil, apperrors.NewColumnSelectionError([]string{column})
	}
	return d.Filter(func(r int) bool {
		return col.Values[r] != nil && Compare(col.Values[r], value) == 0
	}), nil
}

// Head returns at most n leading rows.
func (d *Dataset) Head(n int) *Dataset {
	if n > d.rows {
		n = d.rows
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return d.Take(rows)
}

// Distinct returns the sorted distinct non-missing values of a column.
func (d *Dataset) Distinct(column string) ([]any, error) {
	col, ok := d.Column(column)
	if !ok {
		return nil, apperrors.NewColumnSelectionError([]string{column})
	}
	seen := make(map[any]bool)
	var values []any
	for _, v := range col.Values {
		if v == nil || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	sortValues(values)
	return values, nil
}

// Records renders the dataset as a header row followed by one string row per record.
func (d *Dataset) Records() [][]string {
	records := make([][]string, 0, d.rows+1)
	records = append(records, d.Columns())
	for r := 0; r < d.rows; r++ {
		row := make([]string, len(d.columns))
		for i, col := range d.columns {
			row[i] = FormatValue(col.Values[r])
		}
		records = append(records, row)
	}
	return records
}

// Rows renders the dataset as one map per record. Times are formatted as RFC 3339.
func (d *Dataset) Rows() []map[string]any {
	rows := make([]map[string]any, d.rows)
	for r := 0; r < d.rows; r++ {
		row := make(map[string]any, len(d.columns))
		for _, col := range d.columns {
			v := col.Values[r]
			if t, ok := v.(time.Time); ok {
				v = t.Format(time.RFC3339)
			}
			row[col.Name] = v
		}
		rows[r] = row
	}
	return rows
}

// FormatValue renders a cell for CSV output. Missing values render empty.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.DateTime)
	default:
		return fmt.Sprint(x)
	}
}

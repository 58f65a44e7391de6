package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "bizdash/internal/errors"
)

// FromRecords builds a dataset from a header and string rows, inferring each
// column's Kind. Short rows are padded with missing values; long rows are an error.
func FromRecords(header []string, rows [][]string) (*Dataset, error) {
	names := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		names[i] = name
	}

	raw := make([][]string, len(names))
	for i := range raw {
		raw[i] = make([]string, len(rows))
	}
	for r, row := range rows {
		if len(row) > len(names) {
			return nil, apperrors.NewParseError(
				fmt.Sprintf("row %d has %d fields, header has %d", r+1, len(row), len(names)), nil).
				WithContext("row", r+1)
		}
		for i, cell := range row {
			raw[i][r] = cell
		}
	}

	cols := make([]*Column, len(names))
	for i, name := range names {
		cols[i] = InferColumn(name, raw[i])
	}
	ds, err := New(cols...)
	if err != nil {
		return nil, apperrors.NewParseError("build dataset", err)
	}
	ds.rows = len(rows)
	return ds, nil
}

// InferColumn picks the narrowest Kind that every non-empty cell parses as:
// Int, then Float, then Bool, else String. Empty cells become missing values.
func InferColumn(name string, cells []string) *Column {
	isInt, isFloat, isBool := true, true, true
	nonEmpty := 0
	for _, cell := range cells {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		nonEmpty++
		if isInt {
			_, err := strconv.ParseInt(c, 10, 64)
			isInt = err == nil
		}
		if isFloat {
			_, err := strconv.ParseFloat(c, 64)
			isFloat = err == nil
		}
		if isBool {
			isBool = strings.EqualFold(c, "true") || strings.EqualFold(c, "false")
		}
		if !isInt && !isFloat && !isBool {
			break
		}
	}

	kind := String
	switch {
	case nonEmpty == 0:
	case isInt:
		kind = Int
	case isFloat:
		kind = Float
	case isBool:
		kind = Bool
	}

	values := make([]any, len(cells))
	for i, cell := range cells {
		c := strings.TrimSpace(cell)
		if c == "" {
			continue
		}
		switch kind {
		case Int:
			values[i], _ = strconv.ParseInt(c, 10, 64)
		case Float:
			values[i], _ = strconv.ParseFloat(c, 64)
		case Bool:
			values[i] = strings.EqualFold(c, "true")
		default:
			values[i] = cell
		}
	}
	return &Column{Name: name, Kind: kind, Values: values}
}

// timeLayouts are tried in order when parsing date cells.
var timeLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"01/02/2006 15:04",
	"01/02/06 15:04",
	"01/02/06",
	"1/2/2006",
	"1/2/2006 15:04",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// ParseTime converts a cell to a time. Times pass through; strings are tried
// against the supported layouts.
func ParseTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized date %q", x)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %v (%T) to a date", v, v)
	}
}

// ParseTimes replaces the named column with a Time column. Missing cells stay
// missing; an unparseable cell fails with a parse error naming the row.
func (d *Dataset) ParseTimes(name string) (*Column, error) {
	col, ok := d.Column(name)
	if !ok {
		return nil, apperrors.NewColumnSelectionError([]string{name})
	}
	if col.Kind == Time {
		return col, nil
	}

	values := make([]any, col.Len())
	for r, v := range col.Values {
		if v == nil {
			continue
		}
		t, err := ParseTime(v)
		if err != nil {
			return nil, apperrors.NewParseError(fmt.Sprintf("column %q row %d", name, r+1), err).
				WithContext("column", name).
				WithContext("row", r+1)
		}
		values[r] = t
	}

	parsed := &Column{Name: name, Kind: Time, Values: values}
	if err := d.SetColumn(parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// Derive builds an Int column by applying fn to each non-missing time in src.
func Derive(name string, src *Column, fn func(time.Time) int64) *Column {
	values := make([]any, src.Len())
	for r, v := range src.Values {
		if t, ok := v.(time.Time); ok {
			values[r] = fn(t)
		}
	}
	return &Column{Name: name, Kind: Int, Values: values}
}

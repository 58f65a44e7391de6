package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "bizdash/internal/errors"
)

func TestDataset_GroupSum(t *testing.T) {
	ds := MustNew(
		NewColumn("year", Int, []any{int64(2023), int64(2022), int64(2023), nil}),
		NewColumn("country", String, []any{"France", "France", "France", "France"}),
		NewColumn("quantity", Int, []any{int64(3), int64(2), int64(4), int64(100)}),
		NewColumn("amount", Float, []any{0.1, 20.5, 0.2, 1.0}),
	)

	got, err := ds.GroupSum([]string{"year", "country", "year"}, []string{"quantity", "amount"})
	require.NoError(t, err)

	assert.Equal(t, []string{"year", "country", "quantity", "amount"}, got.Columns())
	require.Equal(t, 2, got.Len())

	year, _ := got.Column("year")
	qty, _ := got.Column("quantity")
	amount, _ := got.Column("amount")
	assert.Equal(t, []any{int64(2022), int64(2023)}, year.Values)
	assert.Equal(t, []any{int64(2), int64(7)}, qty.Values)
	assert.Equal(t, []any{20.5, 0.3}, amount.Values)
}

func TestDataset_GroupSumConservesTotals(t *testing.T) {
	ds := MustNew(
		NewColumn("bucket", String, []any{"b", "a", "b", "c", "a"}),
		NewColumn("qty", Int, []any{int64(1), int64(2), int64(3), int64(4), int64(5)}),
	)

	got, err := ds.GroupSum([]string{"bucket"}, []string{"qty"})
	require.NoError(t, err)

	qty, _ := got.Column("qty")
	var total int64
	for _, v := range qty.Values {
		total += v.(int64)
	}
	assert.Equal(t, int64(15), total)
	assert.True(t, got.IsSorted("bucket"))
}

func TestDataset_GroupSumEmpty(t *testing.T) {
	ds := MustNew(
		NewColumn("year", Int, nil),
		NewColumn("quantity", Int, nil),
	)

	got, err := ds.GroupSum([]string{"year"}, []string{"quantity"})
	require.NoError(t, err)
	assert.True(t, got.Empty())
	assert.Equal(t, []string{"year", "quantity"}, got.Columns())
}

func TestDataset_GroupSumErrors(t *testing.T) {
	ds := MustNew(
		NewColumn("name", String, []any{"a"}),
		NewColumn("qty", Int, []any{int64(1)}),
	)

	_, err := ds.GroupSum([]string{"missing"}, []string{"qty"})
	assert.True(t, apperrors.IsColumnSelectionError(err))

	_, err = ds.GroupSum([]string{"qty"}, []string{"name"})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

func TestDataset_GroupSumByTime(t *testing.T) {
	day := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	ds := MustNew(
		NewColumn("d", Time, []any{day, day, day.AddDate(0, 0, 1)}),
		NewColumn("qty", Int, []any{int64(1), int64(1), int64(1)}),
	)

	got, err := ds.GroupSum([]string{"d"}, []string{"qty"})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestDataset_Product(t *testing.T) {
	ds := MustNew(
		NewColumn("Price Each", Float, []any{100.0, 0.1, nil}),
		NewColumn("Quantity Ordered", Int, []any{int64(10), int64(3), int64(1)}),
	)

	col, err := ds.Product("Revenue", "Price Each", "Quantity Ordered")
	require.NoError(t, err)
	assert.Equal(t, Float, col.Kind)
	assert.Equal(t, []any{1000.0, 0.3, nil}, col.Values)
}

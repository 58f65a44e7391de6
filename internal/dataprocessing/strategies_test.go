package dataprocessing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/chart"
	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
	"bizdash/internal/shared/testutil"
)

func mustRead(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := ReadCSV(strings.NewReader(csv))
	require.NoError(t, err)
	return ds
}

func values(t *testing.T, ds *dataset.Dataset, name string) []any {
	t.Helper()
	col, ok := ds.Column(name)
	require.True(t, ok, "column %q", name)
	return col.Values
}

func TestSalesStrategy_MonthlyExample(t *testing.T) {
	ds := mustRead(t, "Order Date,Quantity Ordered,Price Each\n2023-01-01,10,100\n2023-01-07,20,200\n")

	res, err := NewSalesStrategy().Process(context.Background(), FromDataset(ds), Options{Period: PeriodMonthly})
	require.NoError(t, err)

	out := res.Dataset
	require.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"year", "month", "Quantity Ordered", "Revenue", "period"}, out.Columns())
	assert.Equal(t, []any{"2023-1"}, values(t, out, "period"))
	assert.Equal(t, []any{int64(30)}, values(t, out, "Quantity Ordered"))
	assert.Equal(t, []any{5000.0}, values(t, out, "Revenue"))
	assert.Empty(t, res.Notice)

	require.NotNil(t, res.Chart)
	assert.Equal(t, chart.KindDualAxisLine, res.Chart.Kind)
	assert.Equal(t, "Monthly Sales Analysis", res.Chart.Title)
	assert.Equal(t, []string{"2023-1"}, res.Chart.Categories)
	assert.Equal(t, 640, res.Chart.Width)
}

func TestSalesStrategy_DefaultsToMonthly(t *testing.T) {
	res, err := NewSalesStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.SalesCSV)), Options{})
	require.NoError(t, err)

	assert.Equal(t, []any{"2023-1", "2023-2"}, values(t, res.Dataset, "period"))
	assert.Equal(t, chart.KindDualAxisLine, res.Chart.Kind)
}

func TestSalesStrategy_Weekly(t *testing.T) {
	res, err := NewSalesStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.SalesCSV)), Options{Period: PeriodWeekly})
	require.NoError(t, err)

	out := res.Dataset
	assert.Equal(t, []string{"year", "week", "Quantity Ordered", "Revenue", "period"}, out.Columns())
	// 2023-01-01 falls in ISO week 52; its calendar year is kept.
	assert.Equal(t, []any{"2023-W1", "2023-W7", "2023-W52"}, values(t, out, "period"))
	assert.Equal(t, []any{int64(20), int64(5), int64(10)}, values(t, out, "Quantity Ordered"))
	assert.Equal(t, []any{4000.0, 250.0, 1000.0}, values(t, out, "Revenue"))

	c := res.Chart
	require.NotNil(t, c)
	assert.Equal(t, chart.KindStackedBar, c.Kind)
	assert.Equal(t, "Weekly Sales Analysis", c.Title)
	assert.Equal(t, 1200, c.Width)
	assert.Equal(t, 45.0, c.LabelRotation)

	rev, ok := c.SeriesByName("Revenue")
	require.True(t, ok)
	assert.Equal(t, "Quantity Ordered", rev.StackedOn)
	assert.Equal(t, chart.ColorRevenueBar, rev.Color)
	assert.Equal(t, 0.4, rev.BarWidth)
}

func TestSalesStrategy_ConservesQuantity(t *testing.T) {
	for _, period := range []string{PeriodWeekly, PeriodMonthly} {
		t.Run(period, func(t *testing.T) {
			in := mustRead(t, testutil.SalesCSV)
			var want int64
			for _, v := range values(t, in, "Quantity Ordered") {
				want += v.(int64)
			}

			res, err := NewSalesStrategy().Process(context.Background(), FromDataset(in), Options{Period: period})
			require.NoError(t, err)

			var got int64
			for _, v := range values(t, res.Dataset, "Quantity Ordered") {
				got += v.(int64)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestSalesStrategy_DerivedColumnsOverwrite(t *testing.T) {
	ds := mustRead(t, "Order Date,Quantity Ordered,Price Each,year\n2023-03-15,1,1,1999\n")

	_, err := NewSalesStrategy().Process(context.Background(), FromDataset(ds), Options{})
	require.NoError(t, err)

	assert.Equal(t, []any{int64(2023)}, values(t, ds, "year"))
	assert.Equal(t, []any{int64(3)}, values(t, ds, "month"))
	assert.Equal(t, []any{int64(11)}, values(t, ds, "week"))
}

func TestSalesStrategy_EmptyResult(t *testing.T) {
	ds := mustRead(t, "Order Date,Quantity Ordered,Price Each\n")

	res, err := NewSalesStrategy().Process(context.Background(), FromDataset(ds), Options{Period: PeriodWeekly})
	require.NoError(t, err)

	assert.True(t, res.Empty())
	assert.Equal(t, NoticeSales, res.Notice)
	require.NotNil(t, res.Chart)
	assert.True(t, res.Chart.Empty())
	assert.Equal(t, chart.NoData, res.Chart.Placeholder)
}

func TestSalesStrategy_Errors(t *testing.T) {
	tests := []struct {
		name  string
		csv   string
		opts  Options
		check func(error) bool
	}{
		{
			name:  "missing order date",
			csv:   "Quantity Ordered,Price Each\n1,2\n",
			check: apperrors.IsSchemaError,
		},
		{
			name:  "missing price",
			csv:   "Order Date,Quantity Ordered\n2023-01-01,1\n",
			check: apperrors.IsSchemaError,
		},
		{
			name:  "bad date",
			csv:   "Order Date,Quantity Ordered,Price Each\nsoon,1,2\n",
			check: apperrors.IsParseError,
		},
		{
			name: "unknown period",
			csv:  testutil.SalesCSV,
			opts: Options{Period: "daily"},
			check: func(err error) bool {
				return apperrors.TypeOf(err) == apperrors.ErrTypeValidation
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSalesStrategy().Process(context.Background(), FromDataset(mustRead(t, tt.csv)), tt.opts)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error: %v", err)
		})
	}
}

func TestSalesStrategy_FromPath(t *testing.T) {
	path := testutil.WriteFixture(t, "sales.csv", testutil.SalesCSV)

	res, err := NewSalesStrategy().Process(context.Background(), FromPath(path), Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dataset.Len())
}

func TestCRMStrategy_Defaults(t *testing.T) {
	res, err := NewCRMStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.CRMCSV)), Options{})
	require.NoError(t, err)

	out := res.Dataset
	assert.Equal(t, []string{"year", "invoiceID", "invoice_date", "customerID", "country", "quantity", "amount"}, out.Columns())
	assert.Equal(t, 4, out.Len())
	assert.Equal(t, []any{int64(2022), int64(2022), int64(2023), int64(2023)}, values(t, out, "year"))
}

func TestCRMStrategy_GroupByYearAndCountry(t *testing.T) {
	res, err := NewCRMStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.CRMCSV)), Options{
		Columns: []string{"year", "country", "quantity", "amount"},
		Country: "France",
	})
	require.NoError(t, err)

	out := res.Dataset
	assert.Equal(t, []string{"year", "country", "quantity", "amount"}, out.Columns())
	assert.Equal(t, []any{int64(2022), int64(2023)}, values(t, out, "year"))
	assert.Equal(t, []any{"France", "France"}, values(t, out, "country"))
	assert.Equal(t, []any{int64(2), int64(7)}, values(t, out, "quantity"))
	assert.Equal(t, []any{20.5, 70.25}, values(t, out, "amount"))
}

func TestCRMStrategy_CountryFilter(t *testing.T) {
	tests := []struct {
		country  string
		wantRows int
	}{
		{"France", 3},
		{"Germany", 1},
		{"france", 0},
		{"Spain", 0},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			res, err := NewCRMStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.CRMCSV)), Options{
				Columns: []string{"invoiceID", "country"},
				Country: tt.country,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, res.Dataset.Len())
			for _, v := range values(t, res.Dataset, "country") {
				assert.Equal(t, tt.country, v)
			}
			if tt.wantRows == 0 {
				assert.Equal(t, NoticeCRM, res.Notice)
			}
		})
	}
}

func TestCRMStrategy_KeepsExistingYear(t *testing.T) {
	ds := mustRead(t, testutil.CRMCSV)
	require.NoError(t, ds.SetColumn(dataset.NewColumn("year", dataset.Int,
		[]any{int64(1999), int64(1999), int64(1999), int64(1999)})))

	res, err := NewCRMStrategy().Process(context.Background(), FromDataset(ds), Options{
		Columns: []string{"year", "quantity", "amount"},
	})
	require.NoError(t, err)

	assert.Equal(t, []any{int64(1999)}, values(t, res.Dataset, "year"))
	assert.Equal(t, []any{int64(10)}, values(t, res.Dataset, "quantity"))
}

func TestCRMStrategy_WithoutYearSkipsAggregation(t *testing.T) {
	res, err := NewCRMStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.CRMCSV)), Options{
		Columns: []string{"invoiceID", "amount"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"invoiceID", "amount"}, res.Dataset.Columns())
	assert.Equal(t, []any{"INV-1", "INV-2", "INV-3", "INV-4"}, values(t, res.Dataset, "invoiceID"))
}

func TestCRMStrategy_MissingColumns(t *testing.T) {
	ds := mustRead(t, "invoiceID,invoice_date,country,quantity\nINV-1,2022-03-01,France,2\n")

	_, err := NewCRMStrategy().Process(context.Background(), FromDataset(ds), Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaError(err))
	assert.Equal(t, []string{"amount", "customerID"}, apperrors.MissingColumns(err))
}

func TestCRMStrategy_BadDate(t *testing.T) {
	ds := mustRead(t, "invoiceID,invoice_date,customerID,country,quantity,amount\nINV-1,someday,C1,France,1,1\n")

	_, err := NewCRMStrategy().Process(context.Background(), FromDataset(ds), Options{})
	require.Error(t, err)
	assert.True(t, apperrors.IsParseError(err))
}

func TestHRStrategy_Example(t *testing.T) {
	ds := mustRead(t, "employeeID,name,department\n1,Alice,HR\n2,Bob,Finance\n")

	res, err := NewHRStrategy().Process(context.Background(), FromDataset(ds), Options{
		Columns: []string{"name", "department"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "department"}, res.Dataset.Columns())
	assert.Equal(t, []any{"Alice", "Bob"}, values(t, res.Dataset, "name"))
	assert.False(t, res.Dataset.Has("employeeID"))
}

func TestHRStrategy_SortsByFirstSelectedColumn(t *testing.T) {
	res, err := NewHRStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.HRCSV)), Options{
		Columns: []string{"department", "name"},
		SortBy:  "name",
	})
	require.NoError(t, err)

	assert.Equal(t, []any{"Finance", "HR", "Sales"}, values(t, res.Dataset, "department"))
	assert.True(t, res.Dataset.IsSorted("department"))
}

func TestHRStrategy_DefaultColumns(t *testing.T) {
	res, err := NewHRStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.HRCSV)), Options{})
	require.NoError(t, err)

	assert.Equal(t, []any{int64(1), int64(2), int64(3)}, values(t, res.Dataset, "employeeID"))
}

func TestHRStrategy_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewHRStrategy().Process(ctx, FromDataset(mustRead(t, testutil.HRCSV)), Options{Columns: []string{"name", "salary"}})
	require.Error(t, err)
	assert.True(t, apperrors.IsColumnSelectionError(err))
	assert.Equal(t, []string{"salary"}, apperrors.MissingColumns(err))

	_, err = NewHRStrategy().Process(ctx, FromDataset(mustRead(t, testutil.HRCSV)), Options{Columns: []string{}})
	require.Error(t, err)
	assert.True(t, apperrors.IsColumnSelectionError(err))

	path := testutil.WriteFixture(t, "hr.csv", testutil.HRCSV)
	_, err = NewHRStrategy().Process(ctx, FromPath(path), Options{})
	assert.ErrorIs(t, err, ErrDatasetRequired)
}

func TestFinanceStrategy(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		column  string
		want    []any
		columns []string
	}{
		{
			name:    "defaults sort by first column",
			column:  "Brand",
			want:    []any{"Apple", "Samsung", "Xiaomi"},
			columns: []string{"Brand", "Revenue", "Units Sold"},
		},
		{
			name:    "sort_by",
			opts:    Options{SortBy: "Revenue"},
			column:  "Revenue",
			want:    []any{int64(800), int64(1000), int64(1500)},
			columns: []string{"Brand", "Revenue", "Units Sold"},
		},
		{
			name:    "selected columns",
			opts:    Options{Columns: []string{"Units Sold", "Brand"}},
			column:  "Units Sold",
			want:    []any{int64(50), int64(75), int64(120)},
			columns: []string{"Units Sold", "Brand"},
		},
		{
			name:    "explicit empty selection keeps all and sorts by Brand",
			opts:    Options{Columns: []string{}},
			column:  "Brand",
			want:    []any{"Apple", "Samsung", "Xiaomi"},
			columns: []string{"Brand", "Revenue", "Units Sold"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := NewFinanceStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.FinanceCSV)), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.columns, res.Dataset.Columns())
			assert.Equal(t, tt.want, values(t, res.Dataset, tt.column))
		})
	}
}

func TestFinanceStrategy_MissingSortKey(t *testing.T) {
	ds := mustRead(t, "Company,Revenue\nA,1\n")

	_, err := NewFinanceStrategy().Process(context.Background(), FromDataset(ds), Options{Columns: []string{}})
	require.Error(t, err)
	assert.True(t, apperrors.IsColumnSelectionError(err))
	assert.Equal(t, []string{"Brand"}, apperrors.MissingColumns(err))
}

func TestSupplyChainStrategy(t *testing.T) {
	ctx := context.Background()

	res, err := NewSupplyChainStrategy().Process(ctx, FromDataset(mustRead(t, testutil.SupplyChainCSV)), Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{"Gadget", "Gizmo", "Widget"}, values(t, res.Dataset, "Product"))

	res, err = NewSupplyChainStrategy().Process(ctx, FromDataset(mustRead(t, testutil.SupplyChainCSV)), Options{SortBy: "Stock"})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(10), int64(50), int64(75)}, values(t, res.Dataset, "Stock"))
	assert.True(t, res.Dataset.IsSorted("Stock"))

	path := testutil.WriteFixture(t, "supply.csv", testutil.SupplyChainCSV)
	res, err = NewSupplyChainStrategy().Process(ctx, FromPath(path), Options{Columns: []string{"Brand", "Stock"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Brand", "Stock"}, res.Dataset.Columns())
}

func TestSupplyChainStrategy_ExplicitEmptySelection(t *testing.T) {
	_, err := NewSupplyChainStrategy().Process(context.Background(), FromDataset(mustRead(t, testutil.SupplyChainCSV)), Options{Columns: []string{}})
	require.Error(t, err)
	assert.True(t, apperrors.IsColumnSelectionError(err))
}

func TestStrategies_NoInput(t *testing.T) {
	for domain, s := range Registry() {
		t.Run(string(domain), func(t *testing.T) {
			_, err := s.Process(context.Background(), Input{}, Options{})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoInput) || errors.Is(err, ErrDatasetRequired))
		})
	}
}

package dataprocessing

import (
	"context"
	"fmt"
	"time"

	"bizdash/internal/chart"
	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// Sales column names.
const (
	ColOrderDate       = "Order Date"
	ColQuantityOrdered = "Quantity Ordered"
	ColPriceEach       = "Price Each"
	ColRevenue         = "Revenue"
	ColWeek            = "week"
	ColMonth           = "month"
	ColPeriod          = "period"
)

// SalesRequiredColumns must all be present for Sales processing.
var SalesRequiredColumns = []string{ColOrderDate, ColQuantityOrdered, ColPriceEach}

// SalesStrategy buckets orders by week or month, sums quantity and revenue per
// bucket and describes a chart of the result.
type SalesStrategy struct{}

// NewSalesStrategy creates a Sales strategy.
func NewSalesStrategy() *SalesStrategy {
	return &SalesStrategy{}
}

// Process implements Strategy. Period defaults to monthly.
func (s *SalesStrategy) Process(ctx context.Context, in Input, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	period := opts.Period
	if period == "" {
		period = PeriodMonthly
	}

	ds, err := resolve(ctx, in)
	if err != nil {
		return nil, err
	}
	if missing := ds.Missing(SalesRequiredColumns...); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(missing)
	}

	dates, err := ds.ParseTimes(ColOrderDate)
	if err != nil {
		return nil, err
	}
	derived := []*dataset.Column{
		dataset.Derive(ColWeek, dates, func(t time.Time) int64 {
			_, week := t.ISOWeek()
			return int64(week)
		}),
		dataset.Derive(ColMonth, dates, func(t time.Time) int64 { return int64(t.Month()) }),
		dataset.Derive(ColYear, dates, func(t time.Time) int64 { return int64(t.Year()) }),
	}
	revenue, err := ds.Product(ColRevenue, ColPriceEach, ColQuantityOrdered)
	if err != nil {
		return nil, err
	}
	for _, col := range append(derived, revenue) {
		if err := ds.SetColumn(col); err != nil {
			return nil, err
		}
	}

	bucket, label := ColMonth, "%d-%d"
	if period == PeriodWeekly {
		bucket, label = ColWeek, "%d-W%d"
	}
	grouped, err := ds.GroupSum([]string{ColYear, bucket}, []string{ColQuantityOrdered, ColRevenue})
	if err != nil {
		return nil, err
	}

	years, _ := grouped.Column(ColYear)
	buckets, _ := grouped.Column(bucket)
	labels := make([]any, grouped.Len())
	categories := make([]string, grouped.Len())
	for i := range labels {
		categories[i] = fmt.Sprintf(label, years.Values[i], buckets.Values[i])
		labels[i] = categories[i]
	}
	if err := grouped.SetColumn(dataset.NewColumn(ColPeriod, dataset.String, labels)); err != nil {
		return nil, err
	}

	quantity := floats(grouped, ColQuantityOrdered)
	revenueValues := floats(grouped, ColRevenue)

	var desc *chart.Descriptor
	if period == PeriodWeekly {
		desc = chart.StackedBars("Weekly Sales Analysis", "Week", "Values", categories,
			chart.Series{Name: ColQuantityOrdered, Values: quantity, Color: chart.ColorBlue, BarWidth: 0.4},
			chart.Series{Name: ColRevenue, Values: revenueValues, Color: chart.ColorRevenueBar, BarWidth: 0.4},
		)
	} else {
		desc = chart.DualAxisLines("Monthly Sales Analysis", "Month", categories,
			chart.Series{Name: ColQuantityOrdered, Values: quantity, Color: chart.ColorBlue},
			chart.Series{Name: ColRevenue, Values: revenueValues, Color: chart.ColorRed},
		)
	}

	res := newResult(grouped, NoticeSales)
	res.Chart = desc
	return res, nil
}

// floats reads a numeric column as float64, with missing values as zero.
func floats(ds *dataset.Dataset, name string) []float64 {
	col, ok := ds.Column(name)
	if !ok {
		return nil
	}
	out := make([]float64, col.Len())
	for i, v := range col.Values {
		switch x := v.(type) {
		case int64:
			out[i] = float64(x)
		case float64:
			out[i] = x
		}
	}
	return out
}

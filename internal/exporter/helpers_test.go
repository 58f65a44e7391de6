package exporter

import (
	"bizdash/internal/chart"
	"bizdash/internal/dataset"
)

func salesDataset() *dataset.Dataset {
	return dataset.MustNew(
		dataset.NewColumn("Period", dataset.String, []any{"2023-W1", "2023-W7"}),
		dataset.NewColumn("Quantity Ordered", dataset.Int, []any{int64(20), int64(5)}),
		dataset.NewColumn("Revenue", dataset.Float, []any{4000.0, 250.0}),
	)
}

func weeklyChart() *chart.Descriptor {
	return chart.StackedBars("Weekly Sales Analysis", "Week", "Values",
		[]string{"2023-W1", "2023-W7"},
		chart.Series{Name: "Quantity Ordered", Values: []float64{20, 5}, Color: chart.ColorBlue, BarWidth: 0.4},
		chart.Series{Name: "Revenue", Values: []float64{4000, 250}, Color: chart.ColorRevenueBar, BarWidth: 0.4},
	)
}

func monthlyChart(n int) *chart.Descriptor {
	categories := make([]string, n)
	qty := make([]float64, n)
	rev := make([]float64, n)
	for i := range categories {
		categories[i] = "2023-" + string(rune('a'+i%26))
		qty[i] = float64(i + 1)
		rev[i] = float64(i+1) * 100
	}
	return chart.DualAxisLines("Monthly Sales Analysis", "Month", categories,
		chart.Series{Name: "Quantity Ordered", Values: qty, Color: chart.ColorBlue},
		chart.Series{Name: "Revenue", Values: rev, Color: chart.ColorRed},
	)
}

package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStackedBars(t *testing.T) {
	d := StackedBars("Weekly Sales Analysis", "Week", "Values",
		[]string{"2023-W1", "2023-W2"},
		Series{Name: "Quantity Ordered", Values: []float64{10, 20}, BarWidth: 0.4},
		Series{Name: "Revenue", Values: []float64{1000, 4000}, Color: ColorRevenueBar, BarWidth: 0.4},
	)

	assert.Equal(t, KindStackedBar, d.Kind)
	assert.False(t, d.Empty())
	assert.Equal(t, 45.0, d.LabelRotation)

	rev, ok := d.SeriesByName("Revenue")
	require.True(t, ok)
	assert.Equal(t, "Quantity Ordered", rev.StackedOn)
	assert.Equal(t, []float64{1010, 4020}, d.Stacked("Revenue"))

	lo, hi := d.Range(Left)
	assert.Equal(t, 10.0, lo)
	assert.Equal(t, 4020.0, hi)
}

func TestDualAxisLines(t *testing.T) {
	categories := make([]string, 30)
	for i := range categories {
		categories[i] = "c"
	}

	d := DualAxisLines("Monthly Sales Analysis", "Month", categories,
		Series{Name: "Quantity Ordered", Values: make([]float64, 30), Color: ColorBlue},
		Series{Name: "Revenue", Values: make([]float64, 30), Color: ColorRed},
	)

	assert.Equal(t, 3, d.TickStep)
	assert.Equal(t, []int{0, 3, 6, 9, 12, 15, 18, 21, 24, 27}, d.VisibleTicks())
	assert.Equal(t, "upper left", d.Legend)

	right, ok := d.Axis(Right)
	require.True(t, ok)
	assert.Equal(t, "Revenue", right.Label)
	assert.Equal(t, ColorRed, right.Color)
}

func TestPlaceholderForNoCategories(t *testing.T) {
	tests := []struct {
		name string
		d    *Descriptor
		kind Kind
	}{
		{"bars", StackedBars("t", "x", "y", nil, Series{Name: "a"}, Series{Name: "b"}), KindStackedBar},
		{"lines", DualAxisLines("t", "x", nil, Series{Name: "a"}, Series{Name: "b"}), KindDualAxisLine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.d.Empty())
			assert.Equal(t, NoData, tt.d.Placeholder)
			assert.Equal(t, tt.kind, tt.d.Kind)
			assert.Empty(t, tt.d.Series)
		})
	}
}

package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTick(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{12.5, "12.5"},
		{1500, "1.5k"},
		{2000000, "2M"},
		{3250000000, "3.25B"},
		{-4000, "-4k"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatTick(tt.in))
		})
	}
}

func TestNiceTicks(t *testing.T) {
	tests := []struct {
		name   string
		lo, hi float64
		want   []float64
	}{
		{"unit range", 0, 10, []float64{0, 2, 4, 6, 8, 10}},
		{"thousands", 0, 4020, []float64{0, 1000, 2000, 3000, 4000, 5000}},
		{"flat", 0, 0, []float64{0, 0.2, 0.4, 0.6, 0.8, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := niceTicks(tt.lo, tt.hi, 5)
			assert.InDeltaSlice(t, tt.want, got, 1e-9)
			assert.LessOrEqual(t, got[0], tt.lo)
			assert.GreaterOrEqual(t, got[len(got)-1], tt.hi)
		})
	}
}

func TestCSSColor(t *testing.T) {
	assert.Equal(t, "#1f77b4", cssColor("tab:blue"))
	assert.Equal(t, "#d62728", cssColor("tab:red"))
	assert.Equal(t, "#ff0000", cssColor("red"))
	assert.Equal(t, "#1f77b4", cssColor(""))
	assert.Equal(t, "#123456", cssColor("#123456"))
}

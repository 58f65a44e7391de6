package exporter

import (
	"math"
	"strconv"
	"strings"
)

// formatTick formats an axis value compactly, e.g. 1500 -> 1.5k, 2000000 -> 2M.
func formatTick(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 1e9:
		return trimFloat(v/1e9) + "B"
	case abs >= 1e6:
		return trimFloat(v/1e6) + "M"
	case abs >= 1e3:
		return trimFloat(v/1e3) + "k"
	default:
		return trimFloat(v)
	}
}

// trimFloat formats with at most two decimals and no trailing zeros.
func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

// niceTicks returns about n evenly spaced round values covering [lo, hi].
func niceTicks(lo, hi float64, n int) []float64 {
	if hi <= lo {
		hi = lo + 1
	}
	step := niceStep((hi - lo) / float64(n))
	first := math.Floor(lo / step)
	last := math.Ceil(hi / step)
	ticks := make([]float64, 0, int(last-first)+1)
	for i := first; i <= last; i++ {
		ticks = append(ticks, i*step)
	}
	return ticks
}

func niceStep(raw float64) float64 {
	exp := math.Floor(math.Log10(raw))
	base := math.Pow(10, exp)
	switch f := raw / base; {
	case f <= 1:
		return base
	case f <= 2:
		return 2 * base
	case f <= 5:
		return 5 * base
	default:
		return 10 * base
	}
}

// cssColor maps the named palette used by chart descriptors to hex colors.
func cssColor(name string) string {
	switch name {
	case "tab:blue":
		return "#1f77b4"
	case "tab:red":
		return "#d62728"
	case "tab:orange":
		return "#ff7f0e"
	case "tab:green":
		return "#2ca02c"
	case "red":
		return "#ff0000"
	case "":
		return "#1f77b4"
	default:
		return name
	}
}

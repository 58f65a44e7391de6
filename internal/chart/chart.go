// Package chart models charts as plain data. A Descriptor carries the
// categories, series and style metadata a renderer needs; the exporter package
// turns it into SVG, PNG or a native spreadsheet chart.
package chart

// Kind identifies the chart layout.
type Kind string

const (
	KindStackedBar   Kind = "stacked_bar"
	KindDualAxisLine Kind = "dual_axis_line"
)

// Side selects the y axis a series is plotted against.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// NoData is the placeholder text shown instead of series when there is nothing to plot.
const NoData = "No data available"

// Named colors used by the sales charts.
const (
	ColorBlue       = "tab:blue"
	ColorRed        = "tab:red"
	ColorRevenueBar = "red"
)

// Series is one plotted sequence, aligned with Descriptor.Categories.
type Series struct {
	Name   string    `json:"name"`
	Values []float64 `json:"values"`
	Color  string    `json:"color,omitempty"`
	Axis   Side      `json:"axis"`
	// StackedOn names the series whose values form this series' baseline.
	StackedOn string  `json:"stacked_on,omitempty"`
	BarWidth  float64 `json:"bar_width,omitempty"`
}

// Axis describes a y axis.
type Axis struct {
	Side  Side   `json:"side"`
	Label string `json:"label"`
	Color string `json:"color,omitempty"`
}

// Descriptor is a renderable chart. Width and Height are in pixels at 100 dpi.
type Descriptor struct {
	Kind       Kind     `json:"kind"`
	Title      string   `json:"title,omitempty"`
	XLabel     string   `json:"x_label,omitempty"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Categories []string `json:"categories"`
	Series     []Series `json:"series"`
	Axes       []Axis   `json:"axes,omitempty"`
	// TickStep shows every TickStep-th category label; 0 or 1 shows all.
	TickStep      int     `json:"tick_step,omitempty"`
	LabelRotation float64 `json:"label_rotation,omitempty"`
	LabelAlign    string  `json:"label_align,omitempty"`
	Legend        string  `json:"legend,omitempty"`
	Placeholder   string  `json:"placeholder,omitempty"`
}

// Empty reports whether the descriptor shows a placeholder instead of data.
func (d *Descriptor) Empty() bool {
	return d.Placeholder != "" || len(d.Series) == 0
}

// SeriesByName returns the named series.
func (d *Descriptor) SeriesByName(name string) (Series, bool) {
	for _, s := range d.Series {
		if s.Name == name {
			return s, true
		}
	}
	return Series{}, false
}

// Axis returns the axis on the given side.
func (d *Descriptor) Axis(side Side) (Axis, bool) {
	for _, a := range d.Axes {
		if a.Side == side {
			return a, true
		}
	}
	return Axis{}, false
}

// VisibleTicks returns the indexes of categories whose labels are drawn.
func (d *Descriptor) VisibleTicks() []int {
	step := d.TickStep
	if step < 1 {
		step = 1
	}
	ticks := make([]int, 0, len(d.Categories)/step+1)
	for i := 0; i < len(d.Categories); i += step {
		ticks = append(ticks, i)
	}
	return ticks
}

// Placeholder returns an empty chart of the given kind and size showing NoData.
func Placeholder(kind Kind, width, height int) *Descriptor {
	return &Descriptor{
		Kind:        kind,
		Width:       width,
		Height:      height,
		Categories:  []string{},
		Series:      []Series{},
		Placeholder: NoData,
	}
}

// StackedBars builds the weekly sales layout: base bars with a second series
// stacked on top of them.
func StackedBars(title, xLabel, yLabel string, categories []string, base, top Series) *Descriptor {
	if len(categories) == 0 {
		return Placeholder(KindStackedBar, 1200, 600)
	}
	base.Axis, top.Axis = Left, Left
	top.StackedOn = base.Name
	return &Descriptor{
		Kind:          KindStackedBar,
		Title:         title,
		XLabel:        xLabel,
		Width:         1200,
		Height:        600,
		Categories:    categories,
		Series:        []Series{base, top},
		Axes:          []Axis{{Side: Left, Label: yLabel}},
		LabelRotation: 45,
		LabelAlign:    "right",
		Legend:        "best",
	}
}

// DualAxisLines builds the monthly sales layout: one line per y axis. Roughly
// twelve category labels are shown regardless of the number of categories.
func DualAxisLines(title, xLabel string, categories []string, left, right Series) *Descriptor {
	if len(categories) == 0 {
		return Placeholder(KindDualAxisLine, 640, 480)
	}
	left.Axis, right.Axis = Left, Right
	return &Descriptor{
		Kind:       KindDualAxisLine,
		Title:      title,
		XLabel:     xLabel,
		Width:      640,
		Height:     480,
		Categories: categories,
		Series:     []Series{left, right},
		Axes: []Axis{
			{Side: Left, Label: left.Name, Color: left.Color},
			{Side: Right, Label: right.Name, Color: right.Color},
		},
		TickStep:      len(categories)/12 + 1,
		LabelRotation: 45,
		Legend:        "upper left",
	}
}

// Stacked returns the cumulative top of each bar for the named series, adding
// the values of the series it is stacked on.
func (d *Descriptor) Stacked(name string) []float64 {
	s, ok := d.SeriesByName(name)
	if !ok {
		return nil
	}
	out := append([]float64(nil), s.Values...)
	if s.StackedOn == "" {
		return out
	}
	base := d.Stacked(s.StackedOn)
	for i := range out {
		if i < len(base) {
			out[i] += base[i]
		}
	}
	return out
}

// Range returns the minimum and maximum plotted value on a side, counting
// stacked bar tops. Both are zero when nothing is plotted on that side.
func (d *Descriptor) Range(side Side) (lo, hi float64) {
	first := true
	for _, s := range d.Series {
		if s.Axis != side {
			continue
		}
		for _, v := range d.Stacked(s.Name) {
			if first {
				lo, hi, first = v, v, false
				continue
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

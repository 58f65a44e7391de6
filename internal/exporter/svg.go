package exporter

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"bizdash/internal/chart"
	apperrors "bizdash/internal/errors"
)

const defaultBarWidth = 0.8

// axisScale maps data values on one y axis to SVG coordinates.
type axisScale struct {
	ticks       []float64
	min, max    float64
	top, bottom float64
}

func newAxisScale(lo, hi, top, bottom float64) axisScale {
	ticks := niceTicks(min(0, lo), hi, 5)
	return axisScale{
		ticks:  ticks,
		min:    ticks[0],
		max:    ticks[len(ticks)-1],
		top:    top,
		bottom: bottom,
	}
}

func (s axisScale) y(v float64) float64 {
	if s.max == s.min {
		return s.bottom
	}
	return s.bottom - (v-s.min)/(s.max-s.min)*(s.bottom-s.top)
}

// RenderSVG draws a chart descriptor as a standalone SVG document. Empty
// descriptors render the placeholder text centered on a blank canvas.
func RenderSVG(d *chart.Descriptor) ([]byte, error) {
	if d == nil {
		return nil, apperrors.NewExportError("no chart to render", nil)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return nil, apperrors.NewExportError(fmt.Sprintf("invalid chart size %dx%d", d.Width, d.Height), nil)
	}

	w, h := float64(d.Width), float64(d.Height)
	var b bytes.Buffer
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif" font-size="11">`+"\n",
		d.Width, d.Height, d.Width, d.Height)
	b.WriteString(`<rect width="100%" height="100%" fill="#ffffff"/>` + "\n")
	if d.Title != "" {
		fmt.Fprintf(&b, `<text class="title" x="%.1f" y="24" text-anchor="middle" font-size="15">%s</text>`+"\n", w/2, esc(d.Title))
	}

	if d.Empty() {
		text := d.Placeholder
		if text == "" {
			text = chart.NoData
		}
		fmt.Fprintf(&b, `<text class="placeholder" x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="middle" font-size="16">%s</text>`+"\n",
			w/2, h/2, esc(text))
		b.WriteString("</svg>\n")
		return b.Bytes(), nil
	}

	_, hasRight := d.Axis(chart.Right)
	left, right, top, bottom := 64.0, w-24, 40.0, h-40
	if hasRight {
		right = w - 64
	}
	if d.LabelRotation != 0 {
		bottom -= 40
	}
	if bottom <= top || right <= left {
		return nil, apperrors.NewExportError(fmt.Sprintf("chart size %dx%d leaves no plot area", d.Width, d.Height), nil)
	}

	scales := map[chart.Side]axisScale{}
	for _, side := range []chart.Side{chart.Left, chart.Right} {
		if side == chart.Right && !hasRight {
			continue
		}
		lo, hi := d.Range(side)
		scales[side] = newAxisScale(lo, hi, top, bottom)
	}

	writeGrid(&b, scales, left, right)
	fmt.Fprintf(&b, `<line class="axis" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333"/>`+"\n", left, top, left, bottom)
	fmt.Fprintf(&b, `<line class="axis" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333"/>`+"\n", left, bottom, right, bottom)
	if hasRight {
		fmt.Fprintf(&b, `<line class="axis" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333"/>`+"\n", right, top, right, bottom)
	}

	n := float64(len(d.Categories))
	slot := (right - left) / n
	switch d.Kind {
	case chart.KindStackedBar:
		writeBars(&b, d, scales[chart.Left], left, slot)
	default:
		writeLines(&b, d, scales, left, slot)
	}

	writeCategoryLabels(&b, d, left, slot, bottom)
	writeAxisLabels(&b, d, left, right, top, bottom, w, h)
	writeLegend(&b, d, left, top)

	b.WriteString("</svg>\n")
	return b.Bytes(), nil
}

func writeGrid(b *bytes.Buffer, scales map[chart.Side]axisScale, left, right float64) {
	if s, ok := scales[chart.Left]; ok {
		for _, t := range s.ticks {
			y := s.y(t)
			fmt.Fprintf(b, `<line class="grid" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#e5e5e5"/>`+"\n", left, y, right, y)
			fmt.Fprintf(b, `<text class="tick" x="%.1f" y="%.1f" text-anchor="end" dominant-baseline="middle">%s</text>`+"\n", left-6, y, formatTick(t))
		}
	}
	if s, ok := scales[chart.Right]; ok {
		for _, t := range s.ticks {
			fmt.Fprintf(b, `<text class="tick" x="%.1f" y="%.1f" text-anchor="start" dominant-baseline="middle">%s</text>`+"\n", right+6, s.y(t), formatTick(t))
		}
	}
}

func writeBars(b *bytes.Buffer, d *chart.Descriptor, scale axisScale, left, slot float64) {
	for _, s := range d.Series {
		width := s.BarWidth
		if width <= 0 {
			width = defaultBarWidth
		}
		bw := slot * width
		var base []float64
		if s.StackedOn != "" {
			base = d.Stacked(s.StackedOn)
		}
		for i, v := range s.Values {
			lo := 0.0
			if i < len(base) {
				lo = base[i]
			}
			y1, y2 := scale.y(lo+v), scale.y(lo)
			if y1 > y2 {
				y1, y2 = y2, y1
			}
			x := left + slot*float64(i) + (slot-bw)/2
			fmt.Fprintf(b, `<rect class="bar" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s</title></rect>`+"\n",
				x, y1, bw, y2-y1, cssColor(s.Color), esc(fmt.Sprintf("%s %s: %s", d.Categories[i], s.Name, trimFloat(v))))
		}
	}
}

func writeLines(b *bytes.Buffer, d *chart.Descriptor, scales map[chart.Side]axisScale, left, slot float64) {
	for _, s := range d.Series {
		scale, ok := scales[s.Axis]
		if !ok {
			scale = scales[chart.Left]
		}
		points := make([]string, len(s.Values))
		for i, v := range s.Values {
			points[i] = fmt.Sprintf("%.1f,%.1f", left+slot*(float64(i)+0.5), scale.y(v))
		}
		fmt.Fprintf(b, `<polyline class="line" points="%s" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			strings.Join(points, " "), cssColor(s.Color))
	}
}

func writeCategoryLabels(b *bytes.Buffer, d *chart.Descriptor, left, slot, bottom float64) {
	for _, i := range d.VisibleTicks() {
		x, y := left+slot*(float64(i)+0.5), bottom+14
		if d.LabelRotation != 0 {
			fmt.Fprintf(b, `<text class="category" x="%.1f" y="%.1f" text-anchor="end" transform="rotate(%.0f %.1f %.1f)">%s</text>`+"\n",
				x, y, -d.LabelRotation, x, y, esc(d.Categories[i]))
			continue
		}
		fmt.Fprintf(b, `<text class="category" x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n", x, y, esc(d.Categories[i]))
	}
}

func writeAxisLabels(b *bytes.Buffer, d *chart.Descriptor, left, right, top, bottom, w, h float64) {
	mid := top + (bottom-top)/2
	if d.XLabel != "" {
		fmt.Fprintf(b, `<text class="x-label" x="%.1f" y="%.1f" text-anchor="middle">%s</text>`+"\n", left+(right-left)/2, h-8, esc(d.XLabel))
	}
	if a, ok := d.Axis(chart.Left); ok && a.Label != "" {
		fmt.Fprintf(b, `<text class="y-label" x="16" y="%.1f" text-anchor="middle" fill="%s" transform="rotate(-90 16 %.1f)">%s</text>`+"\n",
			mid, labelColor(a.Color), mid, esc(a.Label))
	}
	if a, ok := d.Axis(chart.Right); ok && a.Label != "" {
		x := w - 12
		fmt.Fprintf(b, `<text class="y-label" x="%.1f" y="%.1f" text-anchor="middle" fill="%s" transform="rotate(90 %.1f %.1f)">%s</text>`+"\n",
			x, mid, labelColor(a.Color), x, mid, esc(a.Label))
	}
}

func writeLegend(b *bytes.Buffer, d *chart.Descriptor, left, top float64) {
	if d.Legend == "" {
		return
	}
	for j, s := range d.Series {
		y := top + 8 + float64(j)*16
		fmt.Fprintf(b, `<rect class="legend-key" x="%.1f" y="%.1f" width="10" height="10" fill="%s"/>`+"\n", left+8, y, cssColor(s.Color))
		fmt.Fprintf(b, `<text class="legend" x="%.1f" y="%.1f" dominant-baseline="middle">%s</text>`+"\n", left+22, y+5, esc(s.Name))
	}
}

func labelColor(name string) string {
	if name == "" {
		return "#333"
	}
	return cssColor(name)
}

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

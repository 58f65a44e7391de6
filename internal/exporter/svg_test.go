package exporter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/chart"
	apperrors "bizdash/internal/errors"
)

func assertWellFormed(t *testing.T, doc []byte) {
	t.Helper()
	dec := xml.NewDecoder(bytes.NewReader(doc))
	for {
		_, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		require.NoError(t, err)
	}
}

func TestRenderSVG(t *testing.T) {
	tests := []struct {
		name       string
		chart      *chart.Descriptor
		bars       int
		lines      int
		categories int
		contains   []string
	}{
		{
			name:       "weekly stacked bars",
			chart:      weeklyChart(),
			bars:       4,
			categories: 2,
			contains:   []string{"Weekly Sales Analysis", `fill="#ff0000"`, "rotate(-45", "2023-W7 Revenue: 250"},
		},
		{
			name:       "monthly dual axis",
			chart:      monthlyChart(30),
			lines:      2,
			categories: 10,
			contains:   []string{"Monthly Sales Analysis", `stroke="#1f77b4"`, `stroke="#d62728"`, "rotate(90"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := RenderSVG(tt.chart)
			require.NoError(t, err)
			assertWellFormed(t, doc)

			s := string(doc)
			assert.Equal(t, tt.bars, strings.Count(s, `class="bar"`))
			assert.Equal(t, tt.lines, strings.Count(s, `class="line"`))
			assert.Equal(t, tt.categories, strings.Count(s, `class="category"`))
			for _, want := range tt.contains {
				assert.Contains(t, s, want)
			}
		})
	}
}

func TestRenderSVG_Placeholder(t *testing.T) {
	doc, err := RenderSVG(chart.Placeholder(chart.KindStackedBar, 1200, 600))
	require.NoError(t, err)
	assertWellFormed(t, doc)

	s := string(doc)
	assert.Contains(t, s, `class="placeholder"`)
	assert.Contains(t, s, chart.NoData)
	assert.NotContains(t, s, `class="bar"`)
}

func TestRenderSVG_EscapesText(t *testing.T) {
	d := weeklyChart()
	d.Title = "Q&A <draft>"

	doc, err := RenderSVG(d)
	require.NoError(t, err)
	assertWellFormed(t, doc)
	assert.Contains(t, string(doc), "Q&amp;A &lt;draft&gt;")
}

func TestRenderSVG_Errors(t *testing.T) {
	_, err := RenderSVG(nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeExport, apperrors.TypeOf(err))

	d := weeklyChart()
	d.Width = 0
	_, err = RenderSVG(d)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeExport, apperrors.TypeOf(err))

	d = weeklyChart()
	d.Height = 50
	_, err = RenderSVG(d)
	assert.Error(t, err)
}

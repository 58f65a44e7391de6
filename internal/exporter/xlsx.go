package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"bizdash/internal/chart"
	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// Workbook sheet names.
const (
	DataSheet  = "Data"
	ChartSheet = "Chart"
)

// WriteWorkbook writes the dataset to the Data sheet and, when a chart is
// given, its series to the Chart sheet together with a native Excel chart.
func WriteWorkbook(path string, ds *dataset.Dataset, desc *chart.Descriptor) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), DataSheet); err != nil {
		return apperrors.NewExportError("rename data sheet", err)
	}
	if err := writeDataSheet(f, ds); err != nil {
		return err
	}
	if desc != nil {
		if err := writeChartSheet(f, desc); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewExportError("create report directory", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewExportError("save workbook", err)
	}
	return nil
}

func writeDataSheet(f *excelize.File, ds *dataset.Dataset) error {
	columns := ds.Columns()
	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(DataSheet, "A1", &header); err != nil {
		return apperrors.NewExportError("write header", err)
	}

	cols := make([]*dataset.Column, len(columns))
	for i, name := range columns {
		cols[i], _ = ds.Column(name)
	}
	for r := 0; r < ds.Len(); r++ {
		row := make([]interface{}, len(cols))
		for i, col := range cols {
			row[i] = col.Values[r]
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return apperrors.NewExportError("address row", err)
		}
		if err := f.SetSheetRow(DataSheet, cell, &row); err != nil {
			return apperrors.NewExportError(fmt.Sprintf("write row %d", r+1), err)
		}
	}
	return nil
}

func writeChartSheet(f *excelize.File, desc *chart.Descriptor) error {
	if _, err := f.NewSheet(ChartSheet); err != nil {
		return apperrors.NewExportError("create chart sheet", err)
	}
	if desc.Empty() {
		text := desc.Placeholder
		if text == "" {
			text = chart.NoData
		}
		if err := f.SetCellValue(ChartSheet, "A1", text); err != nil {
			return apperrors.NewExportError("write placeholder", err)
		}
		return nil
	}

	header := []interface{}{desc.XLabel}
	for _, s := range desc.Series {
		header = append(header, s.Name)
	}
	if err := f.SetSheetRow(ChartSheet, "A1", &header); err != nil {
		return apperrors.NewExportError("write chart header", err)
	}
	for i, category := range desc.Categories {
		row := []interface{}{category}
		for _, s := range desc.Series {
			var v interface{}
			if i < len(s.Values) {
				v = s.Values[i]
			}
			row = append(row, v)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ChartSheet, cell, &row); err != nil {
			return apperrors.NewExportError("write chart data", err)
		}
	}

	last := len(desc.Categories) + 1
	categories := fmt.Sprintf("%s!$A$2:$A$%d", quoteSheet(ChartSheet), last)
	series := make([]excelize.ChartSeries, len(desc.Series))
	for i, s := range desc.Series {
		col, _ := excelize.ColumnNumberToName(i + 2)
		series[i] = excelize.ChartSeries{
			Name:       fmt.Sprintf("%s!$%s$1", quoteSheet(ChartSheet), col),
			Categories: categories,
			Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", quoteSheet(ChartSheet), col, col, last),
			Fill:       excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(cssColor(s.Color), "#")}},
		}
	}

	base := &excelize.Chart{
		Title:     []excelize.RichTextRun{{Text: desc.Title}},
		Legend:    excelize.ChartLegend{Position: legendPosition(desc.Legend)},
		Dimension: excelize.ChartDimension{Width: uint(desc.Width), Height: uint(desc.Height)},
		XAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: desc.XLabel}}, TickLabelSkip: desc.TickStep},
	}
	if a, ok := desc.Axis(chart.Left); ok {
		base.YAxis = excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: a.Label}}}
	}

	var combo []*excelize.Chart
	switch desc.Kind {
	case chart.KindStackedBar:
		base.Type = excelize.ColStacked
		base.Series = series
	default:
		base.Type = excelize.Line
		base.Series = series[:1]
		if len(series) > 1 {
			secondary := &excelize.Chart{
				Type:   excelize.Line,
				Series: series[1:],
				YAxis:  excelize.ChartAxis{Secondary: true},
			}
			if a, ok := desc.Axis(chart.Right); ok {
				secondary.YAxis.Title = []excelize.RichTextRun{{Text: a.Label}}
			}
			combo = append(combo, secondary)
		}
	}

	anchor, _ := excelize.CoordinatesToCellName(len(desc.Series)+3, 2)
	if err := f.AddChart(ChartSheet, anchor, base, combo...); err != nil {
		return apperrors.NewExportError("add chart", err)
	}
	return nil
}

func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func legendPosition(legend string) string {
	switch legend {
	case "":
		return "none"
	case "upper left", "left":
		return "left"
	case "upper right", "right":
		return "right"
	case "lower center", "bottom":
		return "bottom"
	default:
		return "top"
	}
}

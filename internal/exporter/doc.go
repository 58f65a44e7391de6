// Package exporter writes processed results to report files.
//
// This package contains four components:
//
// CSVWriter: core CSV writing with headers and a UTF-8 BOM for Excel compatibility.
//
// RenderSVG: draws a chart.Descriptor as a standalone SVG document.
//
// PNGRenderer: rasterizes SVG charts through headless Chrome.
//
// WriteWorkbook: writes the table and a native Excel chart to one XLSX file.
//
// Exporter ties them together and writes the requested formats concurrently:
//
//	exp := exporter.NewExporter(paths, pngRenderer, logger)
//	report, err := exp.Export(ctx, exporter.Request{
//	    Dir:      paths.GetReportDir("Sales", time.Now()),
//	    BaseName: "monthly_sales_report",
//	    Formats:  []exporter.Format{exporter.FormatCSV, exporter.FormatPNG},
//	    Dataset:  res.Dataset,
//	    Chart:    res.Chart,
//	})
package exporter

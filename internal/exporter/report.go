package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"bizdash/internal/chart"
	"bizdash/internal/config"
	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// Format is a report file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatXLSX Format = "xlsx"
)

// DefaultFormats is what a report contains when the caller asks for nothing specific.
var DefaultFormats = []Format{FormatCSV, FormatSVG}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatCSV, FormatSVG, FormatPNG, FormatXLSX:
		return f, nil
	default:
		return "", apperrors.NewAppValidationError(fmt.Sprintf("unsupported report format %q", s))
	}
}

// Request describes one report.
type Request struct {
	// Dir is the output directory; relative paths are placed under the reports directory.
	Dir      string
	BaseName string
	Formats  []Format
	Dataset  *dataset.Dataset
	Chart    *chart.Descriptor
}

// Report lists the files written for a request.
type Report struct {
	Dir   string            `json:"dir"`
	Files map[Format]string `json:"files"`
}

// Exporter writes result tables and charts to disk.
type Exporter struct {
	paths  *config.Paths
	csv    *CSVWriter
	png    Rasterizer
	logger *slog.Logger
}

// NewExporter creates an exporter. png may be nil, in which case PNG output
// is reported as unavailable.
func NewExporter(paths *config.Paths, png Rasterizer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		paths:  paths,
		csv:    NewCSVWriter(paths),
		png:    png,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// CanRenderPNG reports whether a rasterizer is configured.
func (e *Exporter) CanRenderPNG() bool {
	return e.png != nil
}

// Export writes every requested format. The SVG is rendered once and shared
// by the SVG and PNG outputs; files are written concurrently and the first
// failure cancels the rest.
func (e *Exporter) Export(ctx context.Context, req Request) (*Report, error) {
	if req.Dataset == nil {
		return nil, apperrors.NewExportError("no dataset to export", nil)
	}
	if req.BaseName == "" {
		return nil, apperrors.NewAppValidationError("report base name is required")
	}
	formats := dedupeFormats(req.Formats)
	if len(formats) == 0 {
		formats = DefaultFormats
	}

	needsChart := false
	for _, f := range formats {
		switch f {
		case FormatPNG:
			if e.png == nil {
				return nil, apperrors.NewUnavailableError("png export")
			}
			needsChart = true
		case FormatSVG:
			needsChart = true
		}
	}
	if needsChart && req.Chart == nil {
		return nil, apperrors.NewExportError("chart output requested but result has no chart", nil)
	}

	dir := e.resolveDir(req.Dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewExportError("create report directory", err)
	}

	var svg []byte
	if needsChart {
		var err error
		if svg, err = RenderSVG(req.Chart); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	report := &Report{Dir: dir, Files: make(map[Format]string, len(formats))}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range formats {
		path := filepath.Join(dir, req.BaseName+"."+string(f))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			switch f {
			case FormatCSV:
				err = e.csv.WriteDataset(path, req.Dataset)
			case FormatSVG:
				err = writeFile(path, svg)
			case FormatPNG:
				var png []byte
				if png, err = e.png.RenderPNG(gctx, svg, req.Chart.Width, req.Chart.Height); err == nil {
					err = writeFile(path, png)
				}
			case FormatXLSX:
				err = WriteWorkbook(path, req.Dataset, req.Chart)
			default:
				err = apperrors.NewAppValidationError(fmt.Sprintf("unsupported report format %q", f))
			}
			if err != nil {
				return err
			}
			mu.Lock()
			report.Files[f] = path
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		e.logger.ErrorContext(ctx, "report export failed",
			slog.String("dir", dir),
			slog.String("error", err.Error()))
		return nil, err
	}

	e.logger.InfoContext(ctx, "report exported",
		slog.String("dir", dir),
		slog.Int("files", len(report.Files)),
		slog.Duration("duration", time.Since(start)))
	return report, nil
}

func (e *Exporter) resolveDir(dir string) string {
	if filepath.IsAbs(dir) || e.paths == nil {
		return dir
	}
	return filepath.Join(e.paths.ReportsDir, dir)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewExportError(fmt.Sprintf("write %s", filepath.Base(path)), err)
	}
	return nil
}

func dedupeFormats(in []Format) []Format {
	seen := make(map[Format]bool, len(in))
	out := make([]Format, 0, len(in))
	for _, f := range in {
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

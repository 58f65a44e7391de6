package exporter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdash/internal/config"
	apperrors "bizdash/internal/errors"
	"bizdash/internal/shared/testutil"
)

type fakeRasterizer struct {
	mu     sync.Mutex
	calls  int
	width  int
	height int
	err    error
}

func (f *fakeRasterizer) RenderPNG(_ context.Context, svg []byte, width, height int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.width, f.height = width, height
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("\x89PNG"), svg[:4]...), nil
}

func TestExporter_Export(t *testing.T) {
	paths := config.NewPaths(t.TempDir())
	png := &fakeRasterizer{}
	logger, handler := testutil.NewTestLogger(t)
	exp := NewExporter(paths, png, logger)

	report, err := exp.Export(context.Background(), Request{
		Dir:      "sales_20240115_103000",
		BaseName: "weekly_sales_report",
		Formats:  []Format{FormatCSV, FormatSVG, FormatPNG, FormatXLSX, FormatCSV},
		Dataset:  salesDataset(),
		Chart:    weeklyChart(),
	})
	require.NoError(t, err)

	wantDir := filepath.Join(paths.ReportsDir, "sales_20240115_103000")
	assert.Equal(t, wantDir, report.Dir)
	require.Len(t, report.Files, 4)
	for _, f := range []Format{FormatCSV, FormatSVG, FormatPNG, FormatXLSX} {
		path := report.Files[f]
		assert.Equal(t, filepath.Join(wantDir, "weekly_sales_report."+string(f)), path)
		assert.FileExists(t, path)
	}

	assert.Equal(t, 1, png.calls)
	assert.Equal(t, 1200, png.width)
	assert.Equal(t, 600, png.height)

	data, err := os.ReadFile(report.Files[FormatPNG])
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG<svg", string(data))

	assert.True(t, handler.ContainsMessage("report exported"))
}

func TestExporter_DefaultFormats(t *testing.T) {
	exp := NewExporter(nil, nil, nil)

	report, err := exp.Export(context.Background(), Request{
		Dir:      t.TempDir(),
		BaseName: "hr_report",
		Dataset:  salesDataset(),
		Chart:    weeklyChart(),
	})
	require.NoError(t, err)
	assert.Len(t, report.Files, len(DefaultFormats))
	assert.Contains(t, report.Files, FormatCSV)
	assert.Contains(t, report.Files, FormatSVG)
}

func TestExporter_Errors(t *testing.T) {
	tests := []struct {
		name     string
		png      Rasterizer
		req      Request
		wantType apperrors.ErrorType
	}{
		{
			name:     "png without rasterizer",
			req:      Request{BaseName: "r", Formats: []Format{FormatPNG}, Dataset: salesDataset(), Chart: weeklyChart()},
			wantType: apperrors.ErrTypeUnavailable,
		},
		{
			name:     "svg without chart",
			req:      Request{BaseName: "r", Formats: []Format{FormatSVG}, Dataset: salesDataset()},
			wantType: apperrors.ErrTypeExport,
		},
		{
			name:     "no dataset",
			req:      Request{BaseName: "r", Formats: []Format{FormatCSV}},
			wantType: apperrors.ErrTypeExport,
		},
		{
			name:     "no base name",
			req:      Request{Formats: []Format{FormatCSV}, Dataset: salesDataset()},
			wantType: apperrors.ErrTypeValidation,
		},
		{
			name:     "rasterizer failure",
			png:      &fakeRasterizer{err: apperrors.NewExportError("render chart png", errors.New("browser gone"))},
			req:      Request{BaseName: "r", Formats: []Format{FormatCSV, FormatPNG}, Dataset: salesDataset(), Chart: weeklyChart()},
			wantType: apperrors.ErrTypeExport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Dir = t.TempDir()
			exp := NewExporter(nil, tt.png, nil)

			report, err := exp.Export(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err))
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"csv", "svg", "png", "xlsx"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}

	_, err := ParseFormat("pdf")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrTypeValidation, apperrors.TypeOf(err))
}

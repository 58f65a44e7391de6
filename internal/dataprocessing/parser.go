package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// Format identifies a source file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from a file name. Anything that is not an
// Excel workbook is read as CSV.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// LoadFile reads the source at path into a dataset.
func LoadFile(path string) (*dataset.Dataset, error) {
	if DetectFormat(path) == FormatXLSX {
		return LoadXLSX(path, "")
	}
	return LoadCSV(path)
}

// Read parses a stream whose format is inferred from name.
func Read(r io.Reader, name string) (*dataset.Dataset, error) {
	if DetectFormat(name) == FormatXLSX {
		return ReadXLSX(r, "")
	}
	return ReadCSV(r)
}

// LoadCSV opens and parses a CSV file. The file is closed on every path.
func LoadCSV(path string) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewParseError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded csv source",
		slog.String("path", path),
		slog.Int("rows", ds.Len()),
		slog.Int("columns", len(ds.Columns())))
	return ds, nil
}

// ReadCSV parses comma-separated values with a header row. Quotes are handled
// leniently and rows may be ragged up to the header width.
func ReadCSV(r io.Reader) (*dataset.Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParseError("read csv", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParseError("csv source has no header row", nil)
	}
	return dataset.FromRecords(records[0], records[1:])
}

// LoadXLSX opens a workbook and reads one sheet. An empty sheet name selects
// the first sheet that has a header row.
func LoadXLSX(path, sheet string) (*dataset.Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParseError(fmt.Sprintf("open %s", path), err)
	}
	defer f.Close()

	ds, err := readWorkbook(f, sheet)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded xlsx source",
		slog.String("path", path),
		slog.Int("rows", ds.Len()),
		slog.Int("columns", len(ds.Columns())))
	return ds, nil
}

// ReadXLSX parses a workbook from a stream.
func ReadXLSX(r io.Reader, sheet string) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParseError("open workbook", err)
	}
	defer f.Close()
	return readWorkbook(f, sheet)
}

func readWorkbook(f *excelize.File, sheet string) (*dataset.Dataset, error) {
	var rows [][]string
	if sheet != "" {
		r, err := f.GetRows(sheet)
		if err != nil {
			return nil, apperrors.NewParseError(fmt.Sprintf("read sheet %q", sheet), err)
		}
		rows = r
	} else {
		for _, name := range f.GetSheetList() {
			r, err := f.GetRows(name)
			if err == nil && len(r) > 0 && len(r[0]) > 0 {
				rows = r
				break
			}
		}
	}
	if len(rows) == 0 {
		return nil, apperrors.NewParseError("workbook has no header row", nil)
	}

	// GetRows trims trailing empty cells per row, so the widest row sets the width.
	header := rows[0]
	width := len(header)
	for _, row := range rows[1:] {
		width = max(width, len(row))
	}
	for len(header) < width {
		header = append(header, "")
	}
	return dataset.FromRecords(header, rows[1:])
}

// Package sheets loads datasets from Google Sheets ranges.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
)

// DefaultRange is read when a request names no range.
const DefaultRange = "A:ZZ"

// Config holds the credentials used to reach the Sheets API.
type Config struct {
	CredentialsJSON string
	CredentialsFile string
	// Endpoint overrides the API base URL; used against local fakes.
	Endpoint string
}

// Client reads spreadsheet values.
type Client struct {
	svc    *gsheet.Service
	logger *slog.Logger
}

// New creates a client. With no credentials configured the client falls back
// to Application Default Credentials, unless an Endpoint is set, in which
// case requests are sent unauthenticated.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsReadonlyScope)}
	switch {
	case strings.TrimSpace(cfg.CredentialsJSON) != "":
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	case cfg.CredentialsFile != "":
		opts = append(opts, goption.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.Endpoint != "":
		opts = append(opts, goption.WithoutAuthentication())
	}
	if cfg.Endpoint != "" {
		opts = append(opts, goption.WithEndpoint(cfg.Endpoint))
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, apperrors.NewConfigError("create sheets service", err)
	}
	return &Client{svc: svc, logger: logger.With(slog.String("component", "sheets"))}, nil
}

// Load reads a range and converts it to a dataset. The first row is the header.
func (c *Client) Load(ctx context.Context, spreadsheetID, rng string) (*dataset.Dataset, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, apperrors.NewAppValidationError("spreadsheet id is required")
	}
	if rng == "" {
		rng = DefaultRange
	}

	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, apperrors.NewParseError(fmt.Sprintf("read range %s", rng), err).
			WithContext("spreadsheet_id", spreadsheetID)
	}

	ds, err := FromValues(resp.Values)
	if err != nil {
		return nil, err
	}
	c.logger.InfoContext(ctx, "loaded sheet range",
		slog.String("spreadsheet_id", spreadsheetID),
		slog.String("range", rng),
		slog.Int("rows", ds.Len()))
	return ds, nil
}

// FromValues converts a Sheets values matrix to a dataset. Rows shorter than
// the widest row are padded; the header is widened the same way.
func FromValues(values [][]interface{}) (*dataset.Dataset, error) {
	if len(values) == 0 {
		return nil, apperrors.NewParseError("range has no header row", nil)
	}

	width := 0
	for _, row := range values {
		width = max(width, len(row))
	}
	header := make([]string, width)
	copy(header, toStrings(values[0]))

	rows := make([][]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rows = append(rows, toStrings(row))
	}
	return dataset.FromRecords(header, rows)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

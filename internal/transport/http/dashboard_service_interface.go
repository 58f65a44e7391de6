package http

import (
	"context"
	"io"

	"bizdash/internal/dataprocessing"
	"bizdash/internal/services"
	"bizdash/internal/store"
)

// DashboardServiceInterface defines the dashboard operations exposed over HTTP
type DashboardServiceInterface interface {
	Domains() []dataprocessing.Domain
	Ingest(ctx context.Context, name string, r io.Reader) (*services.DatasetInfo, error)
	IngestSheet(ctx context.Context, spreadsheetID, rng string) (*services.DatasetInfo, error)
	Dataset(ctx context.Context, id string) (*services.DatasetInfo, error)
	Countries(ctx context.Context, id string) ([]string, error)
	Process(ctx context.Context, req services.ProcessRequest) (*services.ProcessResult, error)
	Report(ctx context.Context, req services.ReportRequest) (*services.ReportResult, error)
	Runs(ctx context.Context, domain string, limit int) ([]store.Run, error)
}

package websocket

import (
	"context"
	"io"
	"time"

	"bizdash/internal/dataprocessing"
	"bizdash/internal/services"
)

// Connection is the subset of a websocket connection a Session uses.
// It allows the pumps to run against MockConnection in tests.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	RemoteAddr() string
}

// SessionService is the dashboard surface a session drives.
type SessionService interface {
	Domains() []dataprocessing.Domain
	Ingest(ctx context.Context, name string, r io.Reader) (*services.DatasetInfo, error)
	Dataset(ctx context.Context, id string) (*services.DatasetInfo, error)
	Countries(ctx context.Context, id string) ([]string, error)
	Process(ctx context.Context, req services.ProcessRequest) (*services.ProcessResult, error)
	Report(ctx context.Context, req services.ReportRequest) (*services.ReportResult, error)
}

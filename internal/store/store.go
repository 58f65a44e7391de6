// Package store keeps the history of processing runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "bizdash/internal/errors"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// DefaultListLimit caps List when the caller passes a non-positive limit.
const DefaultListLimit = 50

// Run is one strategy invocation.
type Run struct {
	ID        string        `json:"id"`
	Domain    string        `json:"domain"`
	Status    string        `json:"status"`
	Source    string        `json:"source,omitempty"`
	Options   string        `json:"options,omitempty"`
	RowsIn    int           `json:"rows_in"`
	RowsOut   int           `json:"rows_out"`
	Notice    string        `json:"notice,omitempty"`
	Error     string        `json:"error,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Store is a SQLite backed run history.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the database file if needed and applies migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, apperrors.NewStorageError("create db directory", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, apperrors.NewStorageError("open sqlite database", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("ping database", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, apperrors.NewStorageError("migrate database", err)
	}

	logger.InfoContext(ctx, "run store opened", slog.String("path", dbPath))
	return &Store{db: db, logger: logger.With(slog.String("component", "store"))}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record inserts a run.
func (s *Store) Record(ctx context.Context, run Run) error {
	if run.ID == "" {
		return apperrors.NewAppValidationError("run id is required")
	}
	if run.Options == "" {
		run.Options = "{}"
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, domain, status, source, options, rows_in, rows_out, notice, error, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Domain, run.Status, run.Source, run.Options,
		run.RowsIn, run.RowsOut, run.Notice, run.Error,
		run.StartedAt.UnixNano(), run.Duration.Milliseconds(),
	)
	if err != nil {
		return apperrors.NewStorageError("insert run", err)
	}

	s.logger.DebugContext(ctx, "run recorded",
		slog.String("run_id", run.ID),
		slog.String("domain", run.Domain),
		slog.String("status", run.Status))
	return nil
}

// Get returns one run.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFoundError("run " + id)
	}
	if err != nil {
		return nil, apperrors.NewStorageError("get run", err)
	}
	return run, nil
}

// List returns the most recent runs first. An empty domain lists all domains.
func (s *Store) List(ctx context.Context, domain string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := selectRuns
	args := []any{}
	if domain != "" {
		query += ` WHERE domain = ?`
		args = append(args, domain)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, apperrors.NewStorageError("scan run", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("list runs", err)
	}
	return runs, nil
}

const selectRuns = `SELECT id, domain, status, source, options, rows_in, rows_out, notice, error, started_at, duration_ms FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		run        Run
		startedAt  int64
		durationMS int64
	)
	if err := sc.Scan(&run.ID, &run.Domain, &run.Status, &run.Source, &run.Options,
		&run.RowsIn, &run.RowsOut, &run.Notice, &run.Error, &startedAt, &durationMS); err != nil {
		return nil, err
	}
	run.StartedAt = time.Unix(0, startedAt).UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

package services

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"bizdash/internal/chart"
	"bizdash/internal/config"
	"bizdash/internal/dataprocessing"
	"bizdash/internal/dataset"
	apperrors "bizdash/internal/errors"
	"bizdash/internal/events"
	"bizdash/internal/exporter"
	"bizdash/internal/infrastructure"
	"bizdash/internal/store"
)

// Ingestion sources, used as metric attributes.
const (
	SourceUpload = "upload"
	SourceFile   = "file"
	SourceSheets = "sheets"
)

// AllCountries is the country choice that disables the CRM country filter.
const AllCountries = "All"

// RunStore persists run history.
type RunStore interface {
	Record(ctx context.Context, run store.Run) error
	List(ctx context.Context, domain string, limit int) ([]store.Run, error)
}

// SheetSource loads a spreadsheet range as a dataset.
type SheetSource interface {
	Load(ctx context.Context, spreadsheetID, rng string) (*dataset.Dataset, error)
}

// ReportWriter writes report files.
type ReportWriter interface {
	Export(ctx context.Context, req exporter.Request) (*exporter.Report, error)
}

// Dependencies wires a DashboardService. Only Processing is required; nil
// collaborators disable the features that need them.
type Dependencies struct {
	Processing config.ProcessingConfig
	Paths      *config.Paths
	Runs       RunStore
	Events     events.Publisher
	Sheets     SheetSource
	Exporter   ReportWriter
	Metrics    *infrastructure.BusinessMetrics
	Logger     *slog.Logger
}

// ColumnInfo describes one dataset column.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// DatasetInfo describes an ingested dataset.
type DatasetInfo struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Format   string           `json:"format"`
	Columns  []ColumnInfo     `json:"columns"`
	Rows     int              `json:"rows"`
	Preview  []map[string]any `json:"preview"`
	LoadedAt time.Time        `json:"loaded_at"`
}

// ProcessRequest selects a dataset, a domain and the strategy options.
type ProcessRequest struct {
	DatasetID string                 `json:"dataset_id" validate:"required"`
	Domain    string                 `json:"domain" validate:"required"`
	Options   dataprocessing.Options `json:"options"`
}

// ProcessResult is a strategy result rendered for clients.
type ProcessResult struct {
	RunID   string            `json:"run_id"`
	Domain  string            `json:"domain"`
	Columns []string          `json:"columns"`
	Rows    []map[string]any  `json:"rows"`
	Count   int               `json:"count"`
	Chart   *chart.Descriptor `json:"chart,omitempty"`
	Notice  string            `json:"notice,omitempty"`
}

// ReportRequest is a ProcessRequest plus the files to write. Format and
// Formats are merged.
type ReportRequest struct {
	ProcessRequest
	Format  string   `json:"format,omitempty"`
	Formats []string `json:"formats,omitempty"`
}

// ReportResult lists the files written for a report.
type ReportResult struct {
	RunID  string                     `json:"run_id"`
	Domain string                     `json:"domain"`
	Dir    string                     `json:"dir"`
	Files  map[exporter.Format]string `json:"files"`
	Notice string                     `json:"notice,omitempty"`
}

// DashboardService runs the domain strategies against ingested datasets.
type DashboardService struct {
	cfg      config.ProcessingConfig
	paths    *config.Paths
	cache    *datasetCache
	group    singleflight.Group
	runs     RunStore
	events   events.Publisher
	sheets   SheetSource
	exporter ReportWriter
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewDashboardService creates the service.
func NewDashboardService(deps Dependencies) *DashboardService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Processing
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = config.DefaultCacheSize
	}
	if cfg.PreviewRows < 0 {
		cfg.PreviewRows = config.DefaultPreviewRows
	}
	pub := deps.Events
	if pub == nil {
		pub = events.Nop{}
	}

	return &DashboardService{
		cfg:      cfg,
		paths:    deps.Paths,
		cache:    newDatasetCache(cfg.CacheSize),
		runs:     deps.Runs,
		events:   pub,
		sheets:   deps.Sheets,
		exporter: deps.Exporter,
		metrics:  deps.Metrics,
		logger:   logger.With(slog.String("component", "dashboard_service")),
		validate: validator.New(),
		now:      time.Now,
	}
}

// Domains lists the processing domains in display order.
func (s *DashboardService) Domains() []dataprocessing.Domain {
	return dataprocessing.Domains()
}

// Ingest reads an uploaded CSV or XLSX source. Identical content returns the
// already cached dataset.
func (s *DashboardService) Ingest(ctx context.Context, name string, r io.Reader) (*DatasetInfo, error) {
	return s.ingest(ctx, SourceUpload, name, r)
}

// IngestFile reads a source from disk.
func (s *DashboardService) IngestFile(ctx context.Context, path string) (*DatasetInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		s.metrics.RecordIngestion(ctx, SourceFile, string(dataprocessing.DetectFormat(path)), err)
		return nil, apperrors.NewParseError(fmt.Sprintf("open %s", filepath.Base(path)), err)
	}
	defer f.Close()
	return s.ingest(ctx, SourceFile, filepath.Base(path), f)
}

func (s *DashboardService) ingest(ctx context.Context, source, name string, r io.Reader) (*DatasetInfo, error) {
	format := string(dataprocessing.DetectFormat(name))

	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxUploadBytes+1))
	if err == nil && int64(len(data)) > s.cfg.MaxUploadBytes {
		err = apperrors.NewAppValidationError(fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes))
	}
	if err != nil {
		s.metrics.RecordIngestion(ctx, source, format, err)
		return nil, err
	}

	// The same bytes parse differently per format, so both key the cache.
	fp := format + ":" + fingerprint(data)
	v, err, shared := s.group.Do(fp, func() (any, error) {
		if entry, ok := s.cache.getByFingerprint(fp); ok {
			s.metrics.RecordCacheLookup(ctx, true)
			return entry, nil
		}
		s.metrics.RecordCacheLookup(ctx, false)

		ds, err := dataprocessing.Read(bytes.NewReader(data), name)
		if err != nil {
			return nil, err
		}
		return s.remember(ctx, name, format, fp, ds), nil
	})
	s.metrics.RecordIngestion(ctx, source, format, err)
	if err != nil {
		s.logger.WarnContext(ctx, "dataset ingestion failed",
			slog.String("name", name),
			slog.String("source", source),
			slog.String("error", err.Error()))
		return nil, err
	}

	entry := v.(*cachedDataset)
	s.logger.InfoContext(ctx, "dataset ingested",
		slog.String("dataset_id", entry.id),
		slog.String("name", name),
		slog.String("source", source),
		slog.Int("rows", entry.data.Len()),
		slog.Bool("shared", shared))
	return s.info(entry), nil
}

// IngestSheet loads a Google Sheets range.
func (s *DashboardService) IngestSheet(ctx context.Context, spreadsheetID, rng string) (*DatasetInfo, error) {
	if s.sheets == nil {
		return nil, apperrors.NewUnavailableError("google sheets source")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, apperrors.NewAppValidationError("spreadsheet_id is required")
	}

	name := spreadsheetID
	if rng != "" {
		name += "!" + rng
	}
	v, err, _ := s.group.Do("sheet:"+name, func() (any, error) {
		ds, err := s.sheets.Load(ctx, spreadsheetID, rng)
		if err != nil {
			return nil, err
		}
		fp := SourceSheets + ":" + fingerprintDataset(ds)
		if entry, ok := s.cache.getByFingerprint(fp); ok {
			s.metrics.RecordCacheLookup(ctx, true)
			return entry, nil
		}
		s.metrics.RecordCacheLookup(ctx, false)
		return s.remember(ctx, name, SourceSheets, fp, ds), nil
	})
	s.metrics.RecordIngestion(ctx, SourceSheets, SourceSheets, err)
	if err != nil {
		return nil, err
	}
	return s.info(v.(*cachedDataset)), nil
}

func (s *DashboardService) remember(ctx context.Context, name, format, fp string, ds *dataset.Dataset) *cachedDataset {
	entry := &cachedDataset{
		id:          uuid.NewString(),
		name:        name,
		format:      format,
		fingerprint: fp,
		data:        ds,
		loadedAt:    s.now(),
	}
	if evicted := s.cache.put(entry); evicted != "" {
		s.logger.DebugContext(ctx, "dataset evicted from cache", slog.String("dataset_id", evicted))
	}
	return entry
}

// Dataset describes a cached dataset.
func (s *DashboardService) Dataset(ctx context.Context, id string) (*DatasetInfo, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return s.info(entry), nil
}

// Countries returns "All" followed by the distinct countries of a dataset.
func (s *DashboardService) Countries(ctx context.Context, id string) ([]string, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	values, err := entry.data.Distinct(dataprocessing.ColCountry)
	if err != nil {
		return nil, apperrors.NewSchemaError([]string{dataprocessing.ColCountry})
	}

	countries := make([]string, 0, len(values)+1)
	countries = append(countries, AllCountries)
	for _, v := range values {
		countries = append(countries, dataset.FormatValue(v))
	}
	return countries, nil
}

// Process runs a domain strategy on a copy of a cached dataset and records the run.
func (s *DashboardService) Process(ctx context.Context, req ProcessRequest) (*ProcessResult, error) {
	res, runID, err := s.run(ctx, req)
	if err != nil {
		return nil, err
	}

	out := &ProcessResult{
		RunID:   runID,
		Domain:  req.Domain,
		Columns: res.Dataset.Columns(),
		Rows:    res.Dataset.Rows(),
		Count:   res.Dataset.Len(),
		Chart:   res.Chart,
		Notice:  res.Notice,
	}
	return out, nil
}

// Report processes a dataset and writes the result files.
func (s *DashboardService) Report(ctx context.Context, req ReportRequest) (*ReportResult, error) {
	if s.exporter == nil {
		return nil, apperrors.NewUnavailableError("report export")
	}
	formats, err := parseFormats(req)
	if err != nil {
		return nil, err
	}

	res, runID, err := s.run(ctx, req.ProcessRequest)
	if err != nil {
		return nil, err
	}

	if res.Chart == nil {
		if len(formats) == 0 {
			formats = []exporter.Format{exporter.FormatCSV}
		}
		for _, f := range formats {
			if f == exporter.FormatSVG || f == exporter.FormatPNG {
				return nil, apperrors.NewAppValidationError(
					fmt.Sprintf("%s results have no chart; %s output is not available", req.Domain, f))
			}
		}
	}

	dir := reportDirName(req.Domain, s.now())
	if s.paths != nil {
		dir = s.paths.GetReportDir(req.Domain, s.now())
	}
	report, err := s.exporter.Export(ctx, exporter.Request{
		Dir:      dir,
		BaseName: reportBaseName(req.Domain, s.normalize(req.Domain, req.Options)),
		Formats:  formats,
		Dataset:  res.Dataset,
		Chart:    res.Chart,
	})
	if err != nil {
		for _, f := range formats {
			s.metrics.RecordExport(ctx, string(f), err)
		}
		return nil, err
	}
	for f := range report.Files {
		s.metrics.RecordExport(ctx, string(f), nil)
	}

	return &ReportResult{
		RunID:  runID,
		Domain: req.Domain,
		Dir:    report.Dir,
		Files:  report.Files,
		Notice: res.Notice,
	}, nil
}

// Runs lists recorded runs, newest first.
func (s *DashboardService) Runs(ctx context.Context, domain string, limit int) ([]store.Run, error) {
	if s.runs == nil {
		return nil, apperrors.NewUnavailableError("run history")
	}
	return s.runs.List(ctx, domain, limit)
}

// run validates the request, invokes the strategy on a clone of the cached
// dataset and records metrics, history and the completion event.
func (s *DashboardService) run(ctx context.Context, req ProcessRequest) (*dataprocessing.Result, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, "", apperrors.NewAppValidationError("dataset_id and domain are required")
	}
	strategy, err := dataprocessing.Lookup(req.Domain)
	if err != nil {
		return nil, "", err
	}
	entry, err := s.lookup(req.DatasetID)
	if err != nil {
		return nil, "", err
	}
	opts := s.normalize(req.Domain, req.Options)

	runID := uuid.NewString()
	ctx, span := infrastructure.StartSpan(ctx, "strategy.process",
		attribute.String("domain", req.Domain),
		attribute.String("dataset.id", entry.id),
		attribute.String("run.id", runID))
	defer span.End()

	start := s.now()
	res, err := strategy.Process(ctx, dataprocessing.FromDataset(entry.data.Clone()), opts)
	elapsed := s.now().Sub(start)
	infrastructure.RecordError(ctx, err)

	rowsIn, rowsOut := entry.data.Len(), 0
	if err == nil {
		rowsOut = res.Dataset.Len()
	}
	s.metrics.RecordRun(ctx, req.Domain, elapsed, rowsIn, rowsOut, err)

	run := store.Run{
		ID:        runID,
		Domain:    req.Domain,
		Status:    store.StatusSucceeded,
		Source:    entry.name,
		Options:   encodeOptions(opts),
		RowsIn:    rowsIn,
		RowsOut:   rowsOut,
		StartedAt: start,
		Duration:  elapsed,
	}
	if err != nil {
		run.Status = store.StatusFailed
		run.Error = err.Error()
	} else {
		run.Notice = res.Notice
	}
	s.record(ctx, run)

	if err != nil {
		s.logger.WarnContext(ctx, "strategy failed",
			slog.String("run_id", runID),
			slog.String("domain", req.Domain),
			slog.String("error", err.Error()))
		return nil, runID, err
	}
	s.logger.InfoContext(ctx, "strategy completed",
		slog.String("run_id", runID),
		slog.String("domain", req.Domain),
		slog.Int("rows_in", rowsIn),
		slog.Int("rows_out", rowsOut),
		slog.Duration("duration", elapsed))
	return res, runID, nil
}

// record stores the run and publishes its completion. Failures are logged,
// never returned.
func (s *DashboardService) record(ctx context.Context, run store.Run) {
	if s.runs != nil {
		if err := s.runs.Record(ctx, run); err != nil {
			s.logger.ErrorContext(ctx, "failed to record run",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()))
		}
	}

	msg := events.RunCompleted{
		RunID:      run.ID,
		Domain:     run.Domain,
		Status:     run.Status,
		RowsIn:     run.RowsIn,
		RowsOut:    run.RowsOut,
		Notice:     run.Notice,
		Error:      run.Error,
		DurationMS: run.Duration.Milliseconds(),
		Timestamp:  run.StartedAt.Add(run.Duration),
	}
	if err := s.events.PublishRunCompleted(ctx, msg); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish run event",
			slog.String("run_id", run.ID),
			slog.String("error", err.Error()))
	}
}

// normalize maps UI choices to strategy options: "All" countries means no
// filter and Sales falls back to the configured period.
func (s *DashboardService) normalize(domain string, opts dataprocessing.Options) dataprocessing.Options {
	if opts.Country == AllCountries {
		opts.Country = ""
	}
	if dataprocessing.Domain(domain) == dataprocessing.DomainSales && opts.Period == "" {
		opts.Period = s.cfg.DefaultPeriod
		if opts.Period == "" {
			opts.Period = dataprocessing.PeriodMonthly
		}
	}
	return opts
}

func (s *DashboardService) lookup(id string) (*cachedDataset, error) {
	entry, ok := s.cache.get(id)
	if !ok {
		return nil, apperrors.NewAppError(apperrors.ErrTypeNotFound,
			fmt.Sprintf("dataset %s not found", id), ErrDatasetNotFound).WithContext("dataset_id", id)
	}
	return entry, nil
}

func (s *DashboardService) info(entry *cachedDataset) *DatasetInfo {
	columns := make([]ColumnInfo, 0, len(entry.data.Columns()))
	for _, name := range entry.data.Columns() {
		col, _ := entry.data.Column(name)
		columns = append(columns, ColumnInfo{Name: name, Kind: col.Kind.String()})
	}
	return &DatasetInfo{
		ID:       entry.id,
		Name:     entry.name,
		Format:   entry.format,
		Columns:  columns,
		Rows:     entry.data.Len(),
		Preview:  entry.data.Head(s.cfg.PreviewRows).Rows(),
		LoadedAt: entry.loadedAt,
	}
}

func parseFormats(req ReportRequest) ([]exporter.Format, error) {
	names := req.Formats
	if req.Format != "" {
		names = append([]string{req.Format}, names...)
	}
	formats := make([]exporter.Format, 0, len(names))
	for _, name := range names {
		f, err := exporter.ParseFormat(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return nil, err
		}
		formats = append(formats, f)
	}
	return formats, nil
}

// reportBaseName names report files, e.g. monthly_sales_report or
// supply_chain_report.
func reportBaseName(domain string, opts dataprocessing.Options) string {
	if dataprocessing.Domain(domain) == dataprocessing.DomainSales {
		return opts.Period + "_sales_report"
	}
	return slug(domain) + "_report"
}

func reportDirName(domain string, at time.Time) string {
	return fmt.Sprintf("%s_%s", slug(domain), at.Format("20060102_150405"))
}

func slug(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

func encodeOptions(opts dataprocessing.Options) string {
	b, err := json.Marshal(opts)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// fingerprintDataset hashes the rendered records of a dataset.
func fingerprintDataset(ds *dataset.Dataset) string {
	h, _ := blake2b.New256(nil)
	for _, rec := range ds.Records() {
		for _, cell := range rec {
			h.Write([]byte(cell))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// IsNotFound reports whether err is a missing dataset.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDatasetNotFound)
}

// Command processor runs one domain strategy over CSV or XLSX files and writes
// the report files, without starting the dashboard server.
//
//	processor -domain Sales -in data/sales.csv -period weekly -formats csv,svg,xlsx
//	processor -domain CRM -in data/uploads -country France -out /tmp/reports
//
// When -in is a directory every .csv and .xlsx file in it is processed and
// each gets its own report directory under -out. Office lock files are skipped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"bizdash/internal/config"
	"bizdash/internal/dataprocessing"
	"bizdash/internal/exporter"
	"bizdash/internal/infrastructure"
	"bizdash/internal/services"
	"bizdash/internal/store"
	"bizdash/internal/validation"
)

// cliOptions holds the parsed command line.
type cliOptions struct {
	domain  string
	in      string
	out     string
	formats []string
	history bool
	png     bool
	options dataprocessing.Options
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	// Reports are announced on stdout, so logs go to stderr or the log file.
	if cfg.Logging.Output != "file" {
		cfg.Logging.Output = "stderr"
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout, logger); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		logger.Error("Processing failed", slog.String("error", err.Error()))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, cfg *config.Config, output io.Writer) (*cliOptions, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(output)

	domain := fs.String("domain", "", "processing domain: "+domainList())
	in := fs.String("in", "", "input .csv/.xlsx file or a directory of them")
	out := fs.String("out", "", "report directory (defaults to data/reports relative to executable)")
	period := fs.String("period", cfg.Processing.DefaultPeriod, "sales aggregation period: weekly or monthly")
	columns := fs.String("columns", "", "comma separated columns to keep (HR, Finance, CRM)")
	sortBy := fs.String("sort", "", "column to sort by (HR, Finance)")
	country := fs.String("country", "", "CRM country filter; All keeps every country")
	formats := fs.String("formats", "", "comma separated report formats: csv, svg, png, xlsx")
	history := fs.Bool("history", cfg.Store.Enabled, "record runs in the run history database")
	png := fs.Bool("png", cfg.Export.PNG, "enable PNG rendering through headless Chrome")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *domain == "" || *in == "" {
		fs.Usage()
		return nil, errors.New("-domain and -in are required")
	}
	if _, err := dataprocessing.Lookup(*domain); err != nil {
		return nil, err
	}

	opts := &cliOptions{
		domain:  *domain,
		in:      *in,
		out:     *out,
		formats: splitList(*formats),
		history: *history,
		png:     *png,
		options: dataprocessing.Options{
			Columns: splitList(*columns),
			SortBy:  *sortBy,
			Country: *country,
			Period:  *period,
		},
	}
	return opts, opts.options.Validate()
}

// run processes every input and prints one line per written file.
func run(ctx context.Context, cfg *config.Config, args []string, stdout io.Writer, logger *slog.Logger) error {
	opts, err := parseFlags(args, cfg, stdout)
	if err != nil {
		return err
	}
	ctx = infrastructure.EnsureTraceID(ctx)
	logger = infrastructure.WithComponent(logger, "processor")

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return fmt.Errorf("failed to resolve paths: %w", err)
	}
	if opts.out != "" {
		if paths.ReportsDir, err = filepath.Abs(opts.out); err != nil {
			return err
		}
	}
	if err := paths.EnsureDirectories(); err != nil {
		return err
	}

	validator := validation.NewFileValidator(logger)
	inputs, err := validator.CollectSources(opts.in)
	if err != nil {
		return err
	}
	if err := validator.ValidateOutputDirectory(paths.ReportsDir); err != nil {
		return err
	}
	logger.InfoContext(ctx, "Starting batch processing",
		slog.String("domain", opts.domain),
		slog.String("input", opts.in),
		slog.String("output_dir", paths.ReportsDir),
		slog.Int("files", len(inputs)))

	var runs services.RunStore
	if opts.history {
		st, err := store.Open(ctx, paths.DatabaseFile, logger)
		if err != nil {
			return fmt.Errorf("failed to open run store: %w", err)
		}
		defer st.Close()
		runs = st
	}

	var rasterizer exporter.Rasterizer
	if opts.png {
		png := exporter.NewPNGRenderer(exporter.PNGOptions{
			RemoteURL: cfg.Export.ChromeURL,
			Timeout:   cfg.Export.Timeout,
		}, logger)
		defer png.Close()
		rasterizer = png
	}

	failed := 0
	for i, input := range inputs {
		filePaths := *paths
		if len(inputs) > 1 {
			stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			filePaths.ReportsDir = filepath.Join(paths.ReportsDir, stem)
		}

		svc := services.NewDashboardService(services.Dependencies{
			Processing: cfg.Processing,
			Paths:      &filePaths,
			Runs:       runs,
			Exporter:   exporter.NewExporter(&filePaths, rasterizer, logger),
			Logger:     logger,
		})

		logger.InfoContext(ctx, "Processing file",
			slog.Int("current", i+1),
			slog.Int("total", len(inputs)),
			slog.String("filename", filepath.Base(input)))

		report, err := processFile(ctx, svc, input, opts)
		if err != nil {
			failed++
			logger.ErrorContext(ctx, "Error processing file",
				slog.String("filename", filepath.Base(input)),
				slog.String("error", err.Error()))
			fmt.Fprintf(stdout, "%s: %v\n", input, err)
			continue
		}
		if report.Notice != "" {
			fmt.Fprintf(stdout, "%s: %s\n", input, report.Notice)
		}
		for _, f := range sortedFormats(report.Files) {
			fmt.Fprintf(stdout, "%s\t%s\t%s\n", input, f, report.Files[f])
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(inputs))
	}
	logger.InfoContext(ctx, "Batch processing complete", slog.Int("files", len(inputs)))
	return nil
}

func processFile(ctx context.Context, svc *services.DashboardService, path string, opts *cliOptions) (*services.ReportResult, error) {
	info, err := svc.IngestFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return svc.Report(ctx, services.ReportRequest{
		ProcessRequest: services.ProcessRequest{
			DatasetID: info.ID,
			Domain:    opts.domain,
			Options:   opts.options,
		},
		Formats: opts.formats,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func sortedFormats(files map[exporter.Format]string) []exporter.Format {
	out := make([]exporter.Format, 0, len(files))
	for f := range files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func domainList() string {
	names := make([]string, 0, 5)
	for _, d := range dataprocessing.Domains() {
		names = append(names, string(d))
	}
	return strings.Join(names, ", ")
}

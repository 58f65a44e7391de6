package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for file locations in the application
type Paths struct {
	ExecutableDir string
	WebDir        string
	StaticDir     string
	DataDir       string
	UploadsDir    string
	ReportsDir    string
	CacheDir      string
	LogsDir       string
	DatabaseFile  string
}

// ExecutableDir returns the directory holding the running binary, with
// symlinks resolved.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}
	return filepath.Dir(exe), nil
}

// GetPaths returns the default layout relative to the executable location.
//
//	<exe dir>/
//	  ├── data/
//	  │   ├── uploads/   (ingested source files)
//	  │   ├── reports/   (CSV, SVG, PNG and XLSX reports)
//	  │   ├── cache/
//	  │   └── bizdash.db (run history)
//	  ├── logs/
//	  └── web/
func GetPaths() (*Paths, error) {
	exeDir, err := ExecutableDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(exeDir), nil
}

// NewPaths lays out the default directories under base.
func NewPaths(base string) *Paths {
	p := &Paths{
		ExecutableDir: base,
		DataDir:       filepath.Join(base, DefaultDataDir),
		WebDir:        filepath.Join(base, DefaultWebDir),
		LogsDir:       filepath.Join(base, DefaultLogsDir),
	}
	p.derive()
	return p
}

// derive fills the directories nested under DataDir and WebDir.
func (p *Paths) derive() {
	p.UploadsDir = filepath.Join(p.DataDir, "uploads")
	p.ReportsDir = filepath.Join(p.DataDir, "reports")
	p.CacheDir = filepath.Join(p.DataDir, "cache")
	p.StaticDir = filepath.Join(p.WebDir, "static")
	p.DatabaseFile = filepath.Join(p.DataDir, filepath.Base(DefaultDatabaseFile))
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.UploadsDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetUploadPath returns the path for an ingested source file
func (p *Paths) GetUploadPath(filename string) string {
	return filepath.Join(p.UploadsDir, filepath.Base(filename))
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// GetCachePath returns the path for a cache file
func (p *Paths) GetCachePath(filename string) string {
	return filepath.Join(p.CacheDir, filename)
}

// GetReportDir returns a per-run report directory, e.g. reports/sales_20240115_103000.
func (p *Paths) GetReportDir(domain string, at time.Time) string {
	slug := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(domain), " ", "_"))
	return filepath.Join(p.ReportsDir, fmt.Sprintf("%s_%s", slug, at.Format("20060102_150405")))
}

// LogPathResolution logs the resolved paths for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("uploads", p.UploadsDir),
			slog.String("reports", p.ReportsDir),
			slog.String("cache", p.CacheDir),
			slog.String("logs", p.LogsDir),
			slog.String("web", p.WebDir),
		),
		slog.String("database", p.DatabaseFile))
}

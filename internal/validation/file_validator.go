package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "bizdash/internal/errors"
)

// SourceExtensions are the file extensions accepted as dataset sources.
var SourceExtensions = []string{".csv", ".xlsx", ".xlsm", ".xltx"}

// FileValidator checks batch inputs and output directories before processing
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// IsSourceName reports whether name has a source extension and is not an
// Office lock file.
func IsSourceName(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, "~$") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, e := range SourceExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// CollectSources returns the source files named by path. A file is validated
// and returned alone; a directory is expanded to its source files sorted by
// name, which must not be empty.
func (v *FileValidator) CollectSources(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input path does not exist",
			slog.String("path", path))
		return nil, fmt.Errorf("input %s does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		if err := v.ValidateSourceFile(path); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		v.logger.Error("Failed to read input directory",
			slog.String("directory", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsSourceName(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	if len(files) == 0 {
		v.logger.Warn("No source files found",
			slog.String("directory", path),
			slog.String("extensions", strings.Join(SourceExtensions, ",")))
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("no .csv or .xlsx files in %s", path))
	}
	sort.Strings(files)

	v.logger.Info("Input directory validated",
		slog.String("directory", path),
		slog.Int("files_found", len(files)))
	return files, nil
}

// ValidateSourceFile checks that path is a readable CSV or Excel file
func (v *FileValidator) ValidateSourceFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if !IsSourceName(path) {
		v.logger.Error("Unsupported source file",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return apperrors.NewAppValidationError(
			fmt.Sprintf("%s is not a CSV or Excel file", filepath.Base(path)))
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

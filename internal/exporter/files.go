package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"tsgen/internal/config"
	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
)

// Write encodes t in format.
func Write(w io.Writer, format Format, t *table.Table, opts Options) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, t, opts)
	case FormatXLSX:
		return WriteXLSX(w, t, opts)
	case FormatJSON:
		return WriteJSON(w, t, opts)
	case FormatArrow:
		return WriteArrow(w, t, opts)
	}
	return apperrors.Configf("unsupported output format %q", format)
}

// FileExporter writes tables into the output directory.
type FileExporter struct {
	outputDir string
	logger    *slog.Logger
}

// NewFileExporter creates an exporter rooted at paths.OutputDir.
func NewFileExporter(paths *config.Paths, logger *slog.Logger) *FileExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExporter{outputDir: paths.OutputDir, logger: logger}
}

// OutputDir returns the directory files are written to.
func (e *FileExporter) OutputDir() string { return e.outputDir }

// Export writes t to <output>/<name><ext> and returns the full path. The
// file is written next to its destination and renamed into place, so
// readers never see a partial file.
func (e *FileExporter) Export(ctx context.Context, name string, format Format, t *table.Table, opts Options) (string, error) {
	fullPath := e.resolvePath(safeFileName(name) + format.Extension())

	e.logger.InfoContext(ctx, "Writing table",
		slog.String("full_path", fullPath),
		slog.String("format", string(format)),
		slog.Int("record_count", t.Len()))

	if err := writeAtomic(fullPath, func(w io.Writer) error {
		return Write(w, format, t, opts)
	}); err != nil {
		return "", apperrors.NewStorageError("failed to export table", err).WithContext("path", fullPath)
	}
	return fullPath, nil
}

// ExportPartitions writes one file per label of feature, named
// <name>_<label><ext>, in label order.
func (e *FileExporter) ExportPartitions(ctx context.Context, name, feature string, format Format, t *table.Table, opts Options) ([]string, error) {
	labels, ok := t.Labels(feature)
	if !ok {
		return nil, apperrors.Configf("cannot partition by unknown feature %q", feature)
	}

	rowsByLabel := make(map[string][]int)
	for i, label := range labels {
		rowsByLabel[label] = append(rowsByLabel[label], i)
	}
	keys := make([]string, 0, len(rowsByLabel))
	for label := range rowsByLabel {
		keys = append(keys, label)
	}
	sort.Strings(keys)

	paths := make([]string, 0, len(keys))
	for _, label := range keys {
		if err := ctx.Err(); err != nil {
			return paths, err
		}
		part := t.Filter(func(i int) bool { return labels[i] == label })
		path, err := e.Export(ctx, fmt.Sprintf("%s_%s", name, label), format, part, opts)
		if err != nil {
			return paths, fmt.Errorf("failed to write partition %s: %w", label, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// resolvePath resolves a file name to the output directory
func (e *FileExporter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) {
		return filePath
	}
	return filepath.Join(e.outputDir, filePath)
}

func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// safeFileName maps a scenario or label name onto a portable file name.
func safeFileName(name string) string {
	s := unsafeChars.ReplaceAllString(name, "_")
	if s == "" || s == "." || s == ".." {
		return "series"
	}
	return s
}

// Package reference reads the historical reference datasets consumed by the
// external-data factors: wide per-country tables such as World Bank GDP per
// capita, and monthly index series such as the EU industry production index.
package reference

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "tsgen/internal/errors"
)

// WideTable is a keyed table with one column per period, the layout World
// Bank downloads use. Missing observations are NaN.
type WideTable struct {
	Keys    []string
	Codes   map[string]string
	Periods []time.Time
	Values  map[string][]float64
}

// Row returns the observations of a key in period order.
func (w *WideTable) Row(key string) ([]float64, bool) {
	v, ok := w.Values[key]
	return v, ok
}

// Value returns the observation of key in the period starting at period.
func (w *WideTable) Value(key string, period time.Time) (float64, bool) {
	row, ok := w.Values[key]
	if !ok {
		return math.NaN(), false
	}
	for i, p := range w.Periods {
		if p.Equal(period) {
			return row[i], !math.IsNaN(row[i])
		}
	}
	return math.NaN(), false
}

// Series is a single observation per period.
type Series struct {
	Periods []time.Time
	Values  []float64
}

// TableSource loads a wide reference table.
type TableSource interface {
	LoadTable(ctx context.Context) (*WideTable, error)
}

// SeriesSource loads a reference series.
type SeriesSource interface {
	LoadSeries(ctx context.Context) (*Series, error)
}

// FileSource reads reference data from a CSV or XLSX file. Every call
// re-reads the file.
type FileSource struct {
	Path  string
	Sheet string
}

// NewFileSource returns a source for path. The format follows the extension.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// LoadTable implements TableSource.
func (s *FileSource) LoadTable(ctx context.Context) (*WideTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.isWorkbook() {
		return ReadWideWorkbook(s.Path, s.Sheet)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open reference table", err).WithContext("path", s.Path)
	}
	defer f.Close()
	return ReadWideCSV(f)
}

// LoadSeries implements SeriesSource.
func (s *FileSource) LoadSeries(ctx context.Context) (*Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.isWorkbook() {
		return ReadMonthlyWorkbook(s.Path, s.Sheet)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open reference series", err).WithContext("path", s.Path)
	}
	defer f.Close()
	return ReadMonthlyCSV(f)
}

func (s *FileSource) isWorkbook() bool {
	ext := strings.ToLower(filepath.Ext(s.Path))
	return ext == ".xlsx" || ext == ".xlsm"
}

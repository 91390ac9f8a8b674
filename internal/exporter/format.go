package exporter

import (
	"strings"

	apperrors "tsgen/internal/errors"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
	FormatJSON  Format = "json"
	FormatArrow Format = "arrow"
)

// DefaultSheet names the worksheet of XLSX output.
const DefaultSheet = "series"

// ParseFormat accepts a format name or a file extension. Empty selects CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	case "json":
		return FormatJSON, nil
	case "arrow", "feather", "ipc":
		return FormatArrow, nil
	}
	return "", apperrors.Configf("unsupported output format %q", s).
		WithContext("formats", Formats())
}

// Formats lists the supported format names.
func Formats() []string {
	return []string{string(FormatCSV), string(FormatXLSX), string(FormatJSON), string(FormatArrow)}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// ContentType returns the MIME type of the encoding.
func (f Format) ContentType() string {
	switch f {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatJSON:
		return "application/json"
	case FormatArrow:
		return "application/vnd.apache.arrow.file"
	default:
		return "text/csv; charset=utf-8"
	}
}

// Options tune the rendering of values.
type Options struct {
	// Precision is the number of decimals; -1 selects the shortest exact
	// representation.
	Precision int
	// BOM prefixes CSV output with a UTF-8 byte order mark so Excel detects
	// the encoding.
	BOM bool
	// Sheet names the XLSX worksheet. Empty selects DefaultSheet.
	Sheet string
}

package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tsgen/internal/config"
	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
)

func sampleTable(t *testing.T) *table.Table {
	t.Helper()
	d1 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	tbl := table.New([]time.Time{d1, d1, d2, d2})
	require.NoError(t, tbl.AddLabels("country", []string{"Italy", "Netherlands", "Italy", "Netherlands"}))
	require.NoError(t, tbl.AddValues("value", []float64{1.23456, 2, 3.5, 4.125}))
	return tbl
}

func testExporter(t *testing.T) (*FileExporter, string) {
	dir := filepath.Join(t.TempDir(), "output")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFileExporter(&config.Paths{OutputDir: dir}, logger), dir
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{".xlsx", FormatXLSX, false},
		{"excel", FormatXLSX, false},
		{"json", FormatJSON, false},
		{"feather", FormatArrow, false},
		{".arrow", FormatArrow, false},
		{"parquet", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat_ContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", FormatCSV.ContentType())
	assert.Equal(t, "application/json", FormatJSON.ContentType())
	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, ".xlsx", FormatXLSX.Extension())
	assert.Equal(t, ".arrow", FormatArrow.Extension())
	assert.Equal(t, "application/vnd.apache.arrow.file", FormatArrow.ContentType())
}

func TestWriteCSV(t *testing.T) {
	tests := []struct {
		name      string
		opts      Options
		wantBOM   bool
		wantFirst []string
	}{
		{
			name:      "shortest representation",
			opts:      Options{Precision: -1},
			wantFirst: []string{"2020-01-01", "Italy", "1.23456"},
		},
		{
			name:      "fixed precision with BOM",
			opts:      Options{Precision: 2, BOM: true},
			wantBOM:   true,
			wantFirst: []string{"2020-01-01", "Italy", "1.23"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, sampleTable(t), tt.opts))

			data := buf.Bytes()
			assert.Equal(t, tt.wantBOM, bytes.HasPrefix(data, utf8BOM))
			data = bytes.TrimPrefix(data, utf8BOM)

			records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
			require.NoError(t, err)
			require.Len(t, records, 5)
			assert.Equal(t, []string{"date", "country", "value"}, records[0])
			assert.Equal(t, tt.wantFirst, records[1])
		})
	}
}

func TestStreamWriter_CountsRows(t *testing.T) {
	var buf bytes.Buffer
	sw, err := NewStreamWriter(&buf, []string{"a", "b"}, false)
	require.NoError(t, err)

	require.NoError(t, sw.WriteRecord([]string{"1", "2"}))
	require.NoError(t, sw.WriteRecord([]string{"3", "4"}))
	require.NoError(t, sw.Flush())

	assert.Equal(t, 2, sw.Rows())
	assert.Equal(t, "a,b\n1,2\n3,4\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	tbl := sampleTable(t)
	values, _ := tbl.Values("value")
	values[3] = math.NaN()

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tbl, Options{Precision: 1}))

	var out struct {
		Columns []string        `json:"columns"`
		Rows    [][]interface{} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, []string{"date", "country", "value"}, out.Columns)
	require.Len(t, out.Rows, 4)
	assert.Equal(t, []interface{}{"2020-01-01", "Italy", 1.2}, out.Rows[0])
	assert.Nil(t, out.Rows[3][2])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleTable(t), Options{Precision: 3}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultSheet}, f.GetSheetList())
	rows, err := f.GetRows(DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"date", "country", "value"}, rows[0])
	assert.Equal(t, "Netherlands", rows[2][1])

	v, err := f.GetCellValue(DefaultSheet, "C2", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "1.235", v)
}

func TestWriteArrow(t *testing.T) {
	tbl := sampleTable(t)
	require.NoError(t, tbl.AddValues("noise", []float64{1, math.NaN(), 1.5, math.Inf(1)}))

	var buf bytes.Buffer
	require.NoError(t, WriteArrow(&buf, tbl, Options{Precision: 2}))

	r, err := ipc.NewFileReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer r.Close()

	var names []string
	for _, f := range r.Schema().Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"date", "country", "value", "noise"}, names)
	assert.Equal(t, arrow.DATE32, r.Schema().Field(0).Type.ID())
	require.Equal(t, 1, r.NumRecords())
	rec, err := r.Record(0)
	require.NoError(t, err)
	require.EqualValues(t, 4, rec.NumRows())

	dates := rec.Column(0).(*array.Date32)
	assert.Equal(t, time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), dates.Value(2).ToTime())
	assert.Equal(t, "Netherlands", rec.Column(1).(*array.String).Value(1))

	values := rec.Column(2).(*array.Float64)
	assert.Equal(t, 1.23, values.Value(0))
	assert.Equal(t, 4.13, values.Value(3))

	noise := rec.Column(3).(*array.Float64)
	assert.True(t, noise.IsNull(1))
	assert.True(t, noise.IsNull(3))
	assert.Equal(t, 1.5, noise.Value(2))
}

func TestRound(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		precision int
		want      float64
	}{
		{"two places", 4.125, 2, 4.13},
		{"zero places", 2.5, 0, 3},
		{"negative precision keeps value", 1.23456, -1, 1.23456},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, round(tt.value, tt.precision))
		})
	}

	assert.True(t, math.IsNaN(round(math.NaN(), 2)))
	assert.True(t, math.IsInf(round(math.Inf(-1), 2), -1))
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(io.Discard, Format("parquet"), sampleTable(t), Options{})
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func TestFileExporter_Export(t *testing.T) {
	e, dir := testExporter(t)

	path, err := e.Export(context.Background(), "retail/2020 run", FormatCSV, sampleTable(t), Options{Precision: -1})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "retail_2020_run.csv"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "2020-01-02,Netherlands,4.125")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")
}

func TestFileExporter_ExportPartitions(t *testing.T) {
	e, dir := testExporter(t)

	paths, err := e.ExportPartitions(context.Background(), "retail", "country", FormatCSV, sampleTable(t), Options{Precision: -1})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "retail_Italy.csv"),
		filepath.Join(dir, "retail_Netherlands.csv"),
	}, paths)

	f, err := os.Open(paths[1])
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"2020-01-01", "Netherlands", "2"}, records[1])

	_, err = e.ExportPartitions(context.Background(), "retail", "product", FormatCSV, sampleTable(t), Options{})
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "a_b", safeFileName("a b"))
	assert.Equal(t, "series", safeFileName(".."))
	assert.Equal(t, "x-1.y", safeFileName("x-1.y"))
}

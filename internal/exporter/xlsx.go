package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"tsgen/internal/table"
)

// WriteXLSX writes t as a single-sheet workbook. Dates and labels are text
// cells, factor columns are numeric cells rounded to the precision.
func WriteXLSX(w io.Writer, t *table.Table, opts Options) error {
	sheet := opts.Sheet
	if sheet == "" {
		sheet = DefaultSheet
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	header := t.Header()
	cells := make([]interface{}, len(header))
	for i, name := range header {
		cells[i] = name
	}
	if err := sw.SetRow("A1", cells); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	labelNames, valueNames := t.LabelNames(), t.ValueNames()
	labels := make([][]string, len(labelNames))
	for i, name := range labelNames {
		labels[i], _ = t.Labels(name)
	}
	values := make([][]float64, len(valueNames))
	for i, name := range valueNames {
		values[i], _ = t.Values(name)
	}

	for r, d := range t.Dates() {
		row := make([]interface{}, 0, len(header))
		row = append(row, d.Format("2006-01-02"))
		for _, col := range labels {
			row = append(row, col[r])
		}
		for _, col := range values {
			row = append(row, round(col[r], opts.Precision))
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func round(v float64, precision int) float64 {
	if precision < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}

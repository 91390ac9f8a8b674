package exporter

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"tsgen/internal/table"
)

// ArrowSchema describes t as an Arrow schema: date32 for the date, utf8 for
// labels and nullable float64 for values.
func ArrowSchema(t *table.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, 1+len(t.LabelNames())+len(t.ValueNames()))
	fields = append(fields, arrow.Field{Name: table.DateColumn, Type: arrow.FixedWidthTypes.Date32})
	for _, name := range t.LabelNames() {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.BinaryTypes.String})
	}
	for _, name := range t.ValueNames() {
		fields = append(fields, arrow.Field{Name: name, Type: arrow.PrimitiveTypes.Float64, Nullable: true})
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrow writes t as a single-batch Arrow IPC file, readable as
// Feather v2 by pandas and polars. NaN and infinities are written as nulls.
// A non-negative precision rounds values before they are stored.
func WriteArrow(w io.Writer, t *table.Table, opts Options) error {
	mem := memory.NewGoAllocator()
	schema := ArrowSchema(t)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	dates := b.Field(0).(*array.Date32Builder)
	dates.Reserve(t.Len())
	for _, d := range t.Dates() {
		dates.Append(arrow.Date32FromTime(d))
	}

	col := 1
	for _, name := range t.LabelNames() {
		labels, _ := t.Labels(name)
		b.Field(col).(*array.StringBuilder).AppendValues(labels, nil)
		col++
	}
	for _, name := range t.ValueNames() {
		values, _ := t.Values(name)
		out := make([]float64, len(values))
		valid := make([]bool, len(values))
		for i, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			out[i], valid[i] = round(v, opts.Precision), true
		}
		b.Field(col).(*array.Float64Builder).AppendValues(out, valid)
		col++
	}

	rec := b.NewRecord()
	defer rec.Release()

	fw, err := ipc.NewFileWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(mem))
	if err != nil {
		return fmt.Errorf("failed to create arrow writer: %w", err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("failed to write arrow record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("failed to finish arrow file: %w", err)
	}
	return nil
}

// Package table holds generated series as columns: one date column, string
// label columns for the categorical features and float value columns.
package table

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"

	apperrors "tsgen/internal/errors"
	"tsgen/pkg/contracts/domain"
)

// DateColumn is the name of the date column in every table.
const DateColumn = "date"

// LabelColumn holds categorical feature labels.
type LabelColumn struct {
	Name   string
	Values []string
}

// ValueColumn holds numeric values, typically factor outputs.
type ValueColumn struct {
	Name   string
	Values []float64
}

// Table is a columnar frame keyed by date plus zero or more label columns.
type Table struct {
	dates  []time.Time
	labels []LabelColumn
	values []ValueColumn
}

// Row is a materialized view of one table row.
type Row struct {
	Date   time.Time
	Labels map[string]string
	Values map[string]float64
}

// New creates a table with only a date column.
func New(dates []time.Time) *Table {
	d := make([]time.Time, len(dates))
	copy(d, dates)
	return &Table{dates: d}
}

// Cartesian builds one row per (date, label combination). Dates vary
// slowest and the last feature varies fastest.
func Cartesian(dates []time.Time, features domain.FeatureSet) *Table {
	combos := features.Combinations()
	n := len(dates) * len(combos)

	t := &Table{dates: make([]time.Time, 0, n)}
	labels := make([][]string, features.Len())
	for i := range labels {
		labels[i] = make([]string, 0, n)
	}

	for _, d := range dates {
		for _, combo := range combos {
			t.dates = append(t.dates, d)
			for i, v := range combo {
				labels[i] = append(labels[i], v)
			}
		}
	}

	for i, name := range features.Names() {
		t.labels = append(t.labels, LabelColumn{Name: name, Values: labels[i]})
	}
	return t
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.dates) }

// Dates returns the date column. Callers must not modify it.
func (t *Table) Dates() []time.Time { return t.dates }

// LabelNames returns label column names in order.
func (t *Table) LabelNames() []string {
	names := make([]string, len(t.labels))
	for i, c := range t.labels {
		names[i] = c.Name
	}
	return names
}

// ValueNames returns value column names in order.
func (t *Table) ValueNames() []string {
	names := make([]string, len(t.values))
	for i, c := range t.values {
		names[i] = c.Name
	}
	return names
}

// Header returns all column names: date, labels, values.
func (t *Table) Header() []string {
	header := make([]string, 0, 1+len(t.labels)+len(t.values))
	header = append(header, DateColumn)
	header = append(header, t.LabelNames()...)
	return append(header, t.ValueNames()...)
}

// Labels returns the named label column.
func (t *Table) Labels(name string) ([]string, bool) {
	for _, c := range t.labels {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// Values returns the named value column.
func (t *Table) Values(name string) ([]float64, bool) {
	for _, c := range t.values {
		if c.Name == name {
			return c.Values, true
		}
	}
	return nil, false
}

// HasColumn reports whether any column carries the name.
func (t *Table) HasColumn(name string) bool {
	if name == DateColumn {
		return true
	}
	if _, ok := t.Labels(name); ok {
		return true
	}
	_, ok := t.Values(name)
	return ok
}

// AddLabels appends a label column.
func (t *Table) AddLabels(name string, values []string) error {
	if err := t.checkNewColumn(name, len(values)); err != nil {
		return err
	}
	v := make([]string, len(values))
	copy(v, values)
	t.labels = append(t.labels, LabelColumn{Name: name, Values: v})
	return nil
}

// AddValues appends a value column.
func (t *Table) AddValues(name string, values []float64) error {
	if err := t.checkNewColumn(name, len(values)); err != nil {
		return err
	}
	v := make([]float64, len(values))
	copy(v, values)
	t.values = append(t.values, ValueColumn{Name: name, Values: v})
	return nil
}

// Fill appends a value column holding the same value in every row.
func (t *Table) Fill(name string, value float64) error {
	values := make([]float64, t.Len())
	for i := range values {
		values[i] = value
	}
	return t.AddValues(name, values)
}

func (t *Table) checkNewColumn(name string, n int) error {
	if name == "" {
		return apperrors.Configf("column name must not be empty")
	}
	if t.HasColumn(name) {
		return apperrors.Configf("column %q already present", name)
	}
	if n != t.Len() {
		return apperrors.Configf("column %q has %d rows, table has %d", name, n, t.Len())
	}
	return nil
}

// Row materializes row i.
func (t *Table) Row(i int) Row {
	row := Row{
		Date:   t.dates[i],
		Labels: make(map[string]string, len(t.labels)),
		Values: make(map[string]float64, len(t.values)),
	}
	for _, c := range t.labels {
		row.Labels[c.Name] = c.Values[i]
	}
	for _, c := range t.values {
		row.Values[c.Name] = c.Values[i]
	}
	return row
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	return t.Filter(func(int) bool { return true })
}

// Filter keeps the rows for which keep returns true.
func (t *Table) Filter(keep func(i int) bool) *Table {
	idx := make([]int, 0, t.Len())
	for i := range t.dates {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return t.take(idx)
}

// Between keeps rows whose date falls inside the span.
func (t *Table) Between(span domain.Span) *Table {
	return t.Filter(func(i int) bool { return span.Contains(t.dates[i]) })
}

func (t *Table) take(idx []int) *Table {
	out := &Table{dates: make([]time.Time, len(idx))}
	for j, i := range idx {
		out.dates[j] = t.dates[i]
	}
	for _, c := range t.labels {
		v := make([]string, len(idx))
		for j, i := range idx {
			v[j] = c.Values[i]
		}
		out.labels = append(out.labels, LabelColumn{Name: c.Name, Values: v})
	}
	for _, c := range t.values {
		v := make([]float64, len(idx))
		for j, i := range idx {
			v[j] = c.Values[i]
		}
		out.values = append(out.values, ValueColumn{Name: c.Name, Values: v})
	}
	return out
}

// Concat stacks tables that share the same columns in the same order.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(nil), nil
	}
	out := tables[0].Clone()
	want := strings.Join(out.Header(), ",")
	for _, t := range tables[1:] {
		if got := strings.Join(t.Header(), ","); got != want {
			return nil, apperrors.Configf("cannot concatenate tables with columns [%s] and [%s]", want, got)
		}
		out.dates = append(out.dates, t.dates...)
		for i := range out.labels {
			out.labels[i].Values = append(out.labels[i].Values, t.labels[i].Values...)
		}
		for i := range out.values {
			out.values[i].Values = append(out.values[i].Values, t.values[i].Values...)
		}
	}
	return out, nil
}

// LeftJoin keeps every row of t and attaches the value columns of right,
// matched on date plus the given label columns. Rows without a match get
// fill. Keys must be unique on the right side.
func (t *Table) LeftJoin(right *Table, on []string, fill float64) (*Table, error) {
	leftKeys, err := t.keyColumns(on)
	if err != nil {
		return nil, fmt.Errorf("left side: %w", err)
	}
	rightKeys, err := right.keyColumns(on)
	if err != nil {
		return nil, fmt.Errorf("right side: %w", err)
	}
	for _, c := range right.values {
		if t.HasColumn(c.Name) {
			return nil, apperrors.Configf("column %q present on both sides of join", c.Name)
		}
	}

	index := make(map[string]int, right.Len())
	for i := range right.dates {
		key := rowKey(right.dates[i], rightKeys, i)
		if _, dup := index[key]; dup {
			return nil, apperrors.Configf("join key %q occurs more than once", strings.ReplaceAll(key, "\x1f", "|"))
		}
		index[key] = i
	}

	out := t.Clone()
	for _, c := range right.values {
		v := make([]float64, t.Len())
		for i := range t.dates {
			if j, ok := index[rowKey(t.dates[i], leftKeys, i)]; ok {
				v[i] = c.Values[j]
			} else {
				v[i] = fill
			}
		}
		out.values = append(out.values, ValueColumn{Name: c.Name, Values: v})
	}
	return out, nil
}

func (t *Table) keyColumns(on []string) ([][]string, error) {
	cols := make([][]string, len(on))
	for k, name := range on {
		values, ok := t.Labels(name)
		if !ok {
			return nil, apperrors.Configf("missing join column %q", name)
		}
		cols[k] = values
	}
	return cols, nil
}

func rowKey(d time.Time, cols [][]string, i int) string {
	var b strings.Builder
	b.WriteString(d.Format(time.DateOnly))
	for _, c := range cols {
		b.WriteByte('\x1f')
		b.WriteString(c[i])
	}
	return b.String()
}

// RowProduct multiplies the named value columns row by row. With no columns
// every row is 1.
func (t *Table) RowProduct(names []string) ([]float64, error) {
	out := make([]float64, t.Len())
	for i := range out {
		out[i] = 1
	}
	for _, name := range names {
		values, ok := t.Values(name)
		if !ok {
			return nil, apperrors.Configf("unknown value column %q", name)
		}
		floats.Mul(out, values)
	}
	return out, nil
}

// Records renders the table as string rows, header first. Floats use the
// given precision; -1 selects the shortest exact representation.
func (t *Table) Records(precision int) [][]string {
	records := make([][]string, 0, t.Len()+1)
	records = append(records, t.Header())
	t.EachRecord(precision, func(rec []string) error {
		records = append(records, rec)
		return nil
	})
	return records
}

// EachRecord renders every row without the header and passes it to fn,
// stopping at the first error. fn owns the slice it receives.
func (t *Table) EachRecord(precision int, fn func(rec []string) error) error {
	for i, d := range t.dates {
		rec := make([]string, 0, 1+len(t.labels)+len(t.values))
		rec = append(rec, d.Format(time.DateOnly))
		for _, c := range t.labels {
			rec = append(rec, c.Values[i])
		}
		for _, c := range t.values {
			rec = append(rec, strconv.FormatFloat(c.Values[i], 'f', precision, 64))
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return nil
}

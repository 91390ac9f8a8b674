package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"

	"tsgen/internal/table"
)

type jsonTable struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
}

// WriteJSON writes t as {"columns": [...], "rows": [[...], ...]}. Values
// are JSON numbers at the requested precision; NaN and infinities become
// null.
func WriteJSON(w io.Writer, t *table.Table, opts Options) error {
	out := jsonTable{Columns: t.Header(), Rows: make([][]interface{}, 0, t.Len())}

	labelNames, valueNames := t.LabelNames(), t.ValueNames()
	for i, d := range t.Dates() {
		row := t.Row(i)
		cells := make([]interface{}, 0, len(out.Columns))
		cells = append(cells, d.Format("2006-01-02"))
		for _, name := range labelNames {
			cells = append(cells, row.Labels[name])
		}
		for _, name := range valueNames {
			cells = append(cells, number(row.Values[name], opts.Precision))
		}
		out.Rows = append(out.Rows, cells)
	}

	enc := json.NewEncoder(w)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode table: %w", err)
	}
	return nil
}

func number(v float64, precision int) interface{} {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return json.Number(strconv.FormatFloat(v, 'f', precision, 64))
}

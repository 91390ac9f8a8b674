package services

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"tsgen/internal/generator"
	"tsgen/internal/table"
	api "tsgen/pkg/contracts/api/v1"
)

// Summarize describes the value column of a generated table.
func Summarize(t *table.Table, factorNames []string, days int, duration time.Duration) api.Summary {
	summary := api.Summary{
		Rows:     t.Len(),
		Days:     days,
		Factors:  append([]string{}, factorNames...),
		Duration: duration.Round(time.Microsecond).String(),
	}

	values, ok := t.Values(generator.ValueColumn)
	if !ok || len(values) == 0 {
		return summary
	}

	summary.Total = floats.Sum(values)
	summary.Min = floats.Min(values)
	summary.Max = floats.Max(values)
	if len(values) > 1 {
		summary.Mean, summary.StdDev = stat.MeanStdDev(values, nil)
	} else {
		summary.Mean = values[0]
	}
	if math.IsNaN(summary.StdDev) {
		summary.StdDev = 0
	}
	return summary
}

package reference

import (
	"math"
	"time"
)

// Granularity is the reporting period of a reference dataset.
type Granularity int

const (
	Annual Granularity = iota
	Monthly
)

// periodEnd returns the exclusive end of the period starting at t.
func (g Granularity) periodEnd(t time.Time) time.Time {
	if g == Monthly {
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(1, 0, 0)
}

// ForwardFillDaily expands period observations to one value per day, carrying
// each observation forward until the next one. The last observation is
// carried to the end of its period. Days covered by a NaN observation are
// omitted. Periods must be increasing.
func ForwardFillDaily(periods []time.Time, values []float64, g Granularity) ([]time.Time, []float64) {
	var dates []time.Time
	var out []float64
	for i, start := range periods {
		end := g.periodEnd(start)
		if i+1 < len(periods) {
			end = periods[i+1]
		}
		if math.IsNaN(values[i]) {
			continue
		}
		for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
			out = append(out, values[i])
		}
	}
	return dates, out
}

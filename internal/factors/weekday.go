package factors

import (
	"context"
	"strings"
	"time"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
)

// DefaultWeekdayName is the default column of a Weekday factor.
const DefaultWeekdayName = "weekend_trend_factor"

// DefaultWeekdayFactors lifts Fridays slightly and weekends more.
func DefaultWeekdayFactors() map[time.Weekday]float64 {
	return map[time.Weekday]float64{
		time.Friday:   1.15,
		time.Saturday: 1.3,
		time.Sunday:   1.3,
	}
}

// Weekday scales each day by a per-weekday factor; days without an entry
// get 1. The whole column is multiplied by the intensity.
type Weekday struct {
	Base
	factors   map[time.Weekday]float64
	intensity float64
}

// NewWeekday creates a weekday factor. Nil factors select
// DefaultWeekdayFactors.
func NewWeekday(factors map[time.Weekday]float64, intensity float64, opts ...Option) (*Weekday, error) {
	if factors == nil {
		factors = DefaultWeekdayFactors()
	}
	for day := range factors {
		if day < time.Sunday || day > time.Saturday {
			return nil, apperrors.Configf("invalid weekday %d", day)
		}
	}
	o := applyOptions(DefaultWeekdayName, opts)
	base, err := NewBase(o.name, nil, false)
	if err != nil {
		return nil, err
	}

	copied := make(map[time.Weekday]float64, len(factors))
	for day, f := range factors {
		copied[day] = f
	}
	return &Weekday{Base: base, factors: copied, intensity: intensity}, nil
}

// Intensity returns the scale applied to every day.
func (w *Weekday) Intensity() float64 { return w.intensity }

// Factor returns the unscaled factor of a weekday.
func (w *Weekday) Factor(day time.Weekday) float64 {
	if f, ok := w.factors[day]; ok {
		return f
	}
	return 1
}

// Generate implements Factor.
func (w *Weekday) Generate(ctx context.Context, req Request) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dates := req.Span.Dates()
	values := make([]float64, len(dates))
	for i, d := range dates {
		values[i] = w.Factor(d.Weekday()) * w.intensity
	}
	return withColumn(table.New(dates), w.Name(), values)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts English day names, three-letter abbreviations, and
// Monday-based ordinals "0" to "6".
func ParseWeekday(s string) (time.Weekday, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if len(key) == 1 && key[0] >= '0' && key[0] <= '6' {
		return time.Weekday((int(key[0]-'0') + 1) % 7), nil
	}
	for name, day := range weekdayNames {
		if key == name || (len(key) == 3 && strings.HasPrefix(name, key)) {
			return day, nil
		}
	}
	return 0, apperrors.Configf("unrecognized weekday %q", s)
}

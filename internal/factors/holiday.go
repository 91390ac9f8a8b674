package factors

import (
	"context"
	"log/slog"
	"time"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/holidays"
	"tsgen/internal/table"
	"tsgen/pkg/contracts/domain"
)

const (
	// DefaultHolidayName is the default column of a Holiday factor.
	DefaultHolidayName   = "holiday_trend_factor"
	DefaultHolidayFactor = 3.0
	// DefaultSmoothingWindow and DefaultSmoothingStd shape the Gaussian
	// moving average that spreads each holiday over its neighbours.
	DefaultSmoothingWindow = 10
	DefaultSmoothingStd    = 2.0
)

// HolidayConfig configures a Holiday factor. Zero fields take defaults.
type HolidayConfig struct {
	Feature   string
	Countries []string
	// Factor applies to every holiday without a special factor.
	Factor float64
	// Special maps holiday names to their own factor.
	Special map[string]float64
	Window  int
	Std     float64
	// FromYear and ToYear fix the years LoadData covers. When unset,
	// Generate derives them from the requested span.
	FromYear int
	ToYear   int
}

func (c HolidayConfig) withDefaults() HolidayConfig {
	if c.Feature == "" {
		c.Feature = DefaultCountryFeature
	}
	if len(c.Countries) == 0 {
		c.Countries = []string{"Netherlands", "Italy", "Romania"}
	}
	if c.Factor == 0 {
		c.Factor = DefaultHolidayFactor
	}
	if c.Window == 0 {
		c.Window = DefaultSmoothingWindow
	}
	if c.Std == 0 {
		c.Std = DefaultSmoothingStd
	}
	return c
}

// Holiday raises demand on public holidays of each country. Overlapping
// holidays on one date count once under the first name, non-holidays are 1,
// and the daily series of each country is smoothed with a trailing Gaussian
// moving average.
type Holiday struct {
	Base
	calendar holidays.Calendar
	cfg      HolidayConfig
	logger   *slog.Logger
}

// NewHoliday creates a holiday factor backed by calendar.
func NewHoliday(calendar holidays.Calendar, cfg HolidayConfig, opts ...Option) (*Holiday, error) {
	if calendar == nil {
		return nil, apperrors.Configf("holiday factor needs a calendar")
	}
	cfg = cfg.withDefaults()
	if cfg.Window < 1 || cfg.Std <= 0 {
		return nil, apperrors.Configf("holiday smoothing needs a positive window and std, got %d and %v", cfg.Window, cfg.Std)
	}
	if cfg.ToYear < cfg.FromYear {
		return nil, apperrors.Configf("holiday years %d..%d are reversed", cfg.FromYear, cfg.ToYear)
	}

	o := applyOptions(DefaultHolidayName, opts)
	fs, err := featureFromLabels(cfg.Feature, cfg.Countries)
	if err != nil {
		return nil, err
	}
	base, err := NewBase(o.name, fs, false)
	if err != nil {
		return nil, err
	}
	return &Holiday{Base: base, calendar: calendar, cfg: cfg, logger: o.logger}, nil
}

// Config returns the effective configuration.
func (h *Holiday) Config() HolidayConfig { return h.cfg }

// SetFactor replaces the default holiday factor.
func (h *Holiday) SetFactor(f float64) { h.cfg.Factor = f }

// SetSpecial replaces the per-holiday factors.
func (h *Holiday) SetSpecial(special map[string]float64) {
	h.cfg.Special = make(map[string]float64, len(special))
	for name, f := range special {
		h.cfg.Special[name] = f
	}
}

// LoadData returns the smoothed factors of the configured years.
func (h *Holiday) LoadData(ctx context.Context) (*table.Table, error) {
	if h.cfg.FromYear == 0 || h.cfg.ToYear == 0 {
		return nil, apperrors.Configf("factor %q: LoadData needs FromYear and ToYear", h.Name())
	}
	return h.LoadYears(ctx, h.cfg.FromYear, h.cfg.ToYear)
}

// LoadYears returns the smoothed factors of every day in [from, to].
func (h *Holiday) LoadYears(ctx context.Context, from, to int) (*table.Table, error) {
	parts := make([]*table.Table, 0, len(h.cfg.Countries))
	for _, country := range h.cfg.Countries {
		part, err := h.countryYears(ctx, country, from, to)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return labelledSeries(nil, h.cfg.Feature, "", h.Name(), nil)
	}
	return table.Concat(parts...)
}

func (h *Holiday) countryYears(ctx context.Context, country string, from, to int) (*table.Table, error) {
	var dates []time.Time
	var raw []float64

	for year := from; year <= to; year++ {
		days, err := h.calendar.Holidays(ctx, country, year)
		if err != nil {
			return nil, err
		}
		names := make(map[time.Time]string, len(days))
		for _, d := range days {
			key := domain.Midnight(d.Date)
			if _, seen := names[key]; !seen {
				names[key] = d.Name
			}
		}

		start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
		for _, d := range domain.DailyDates(start, start.AddDate(1, 0, 0)) {
			dates = append(dates, d)
			raw = append(raw, h.factorFor(names, d))
		}
	}

	h.logger.DebugContext(ctx, "holiday calendar loaded",
		slog.String("factor", h.Name()),
		slog.String("country", country),
		slog.Int("from_year", from),
		slog.Int("to_year", to),
	)

	smoothed := RollingGaussian(raw, h.cfg.Window, h.cfg.Std, 1)
	return labelledSeries(dates, h.cfg.Feature, country, h.Name(), smoothed)
}

func (h *Holiday) factorFor(names map[time.Time]string, d time.Time) float64 {
	name, ok := names[d]
	if !ok {
		return 1
	}
	if f, ok := h.cfg.Special[name]; ok {
		return f
	}
	return h.cfg.Factor
}

// Generate implements Factor.
func (h *Holiday) Generate(ctx context.Context, req Request) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	from, to := h.cfg.FromYear, h.cfg.ToYear
	if from == 0 || to == 0 {
		last := req.Span.Bound().AddDate(0, 0, -1)
		if last.Before(domain.Midnight(req.Span.Start)) {
			return labelledSeries(nil, h.cfg.Feature, "", h.Name(), nil)
		}
		from, to = req.Span.Start.Year(), last.Year()
	}

	data, err := h.LoadYears(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return data.Between(req.Span), nil
}

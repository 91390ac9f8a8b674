package factors

import (
	"context"
	"log/slog"
	"time"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/reference"
	"tsgen/internal/table"
)

const (
	// DefaultCountryGDPName is the default column of a CountryGDP factor.
	DefaultCountryGDPName = "country_gdp_factor"
	// DefaultCountryFeature is the feature holding country labels.
	DefaultCountryFeature = "country"
)

// GDPConfig selects the countries of a CountryGDP factor and the baseline
// that normalizes them. Zero fields take defaults.
type GDPConfig struct {
	Feature         string
	Countries       []string
	BaselineCountry string
	BaselineYear    int
}

func (c GDPConfig) withDefaults() GDPConfig {
	if c.Feature == "" {
		c.Feature = DefaultCountryFeature
	}
	if len(c.Countries) == 0 {
		c.Countries = []string{"Netherlands", "Italy", "Romania"}
	}
	if c.BaselineCountry == "" {
		c.BaselineCountry = "Netherlands"
	}
	if c.BaselineYear == 0 {
		c.BaselineYear = 2015
	}
	return c
}

// CountryGDP scales each country by its GDP per capita relative to the
// baseline country's value in the baseline year. Annual figures are carried
// forward to every day of the year.
type CountryGDP struct {
	*External
	source reference.TableSource
	cfg    GDPConfig
	logger *slog.Logger
}

// NewCountryGDP creates a GDP factor reading from source.
func NewCountryGDP(source reference.TableSource, cfg GDPConfig, opts ...Option) (*CountryGDP, error) {
	if source == nil {
		return nil, apperrors.Configf("country GDP factor needs a reference source")
	}
	cfg = cfg.withDefaults()
	o := applyOptions(DefaultCountryGDPName, opts)
	fs, err := featureFromLabels(cfg.Feature, cfg.Countries)
	if err != nil {
		return nil, err
	}

	g := &CountryGDP{source: source, cfg: cfg, logger: o.logger}
	g.External, err = NewExternal(o.name, fs, LoaderFunc(g.load))
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Config returns the effective configuration.
func (g *CountryGDP) Config() GDPConfig { return g.cfg }

func (g *CountryGDP) load(ctx context.Context) (*table.Table, error) {
	wide, err := g.source.LoadTable(ctx)
	if err != nil {
		return nil, err
	}

	baselinePeriod := time.Date(g.cfg.BaselineYear, 1, 1, 0, 0, 0, 0, time.UTC)
	baseline, ok := wide.Value(g.cfg.BaselineCountry, baselinePeriod)
	if !ok || baseline == 0 {
		return nil, apperrors.NewUnrecognizedReferenceError(g.cfg.BaselineCountry, nil).
			WithContext("baseline_year", g.cfg.BaselineYear)
	}

	parts := make([]*table.Table, 0, len(g.cfg.Countries))
	for _, country := range g.cfg.Countries {
		row, ok := wide.Row(country)
		if !ok {
			g.logger.WarnContext(ctx, "country missing from GDP reference data",
				slog.String("factor", g.Name()),
				slog.String("country", country))
			continue
		}

		dates, values := reference.ForwardFillDaily(wide.Periods, row, reference.Annual)
		for i := range values {
			values[i] /= baseline
		}
		part, err := labelledSeries(dates, g.cfg.Feature, country, g.Name(), values)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	if len(parts) == 0 {
		return labelledSeries(nil, g.cfg.Feature, "", g.Name(), nil)
	}
	return table.Concat(parts...)
}

// labelledSeries builds a table of one label repeated over dates with one
// value column.
func labelledSeries(dates []time.Time, feature, label, column string, values []float64) (*table.Table, error) {
	t := table.New(dates)
	labels := make([]string, len(dates))
	for i := range labels {
		labels[i] = label
	}
	if err := t.AddLabels(feature, labels); err != nil {
		return nil, err
	}
	return withColumn(t, column, values)
}

var _ Factor = (*CountryGDP)(nil)

package scenario

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/factors"
	"tsgen/internal/generator"
	"tsgen/internal/holidays"
	"tsgen/internal/reference"
	"tsgen/pkg/contracts/domain"
)

// Dependencies are the shared resources factors are built from.
type Dependencies struct {
	Calendar holidays.Calendar
	GDP      reference.TableSource
	Industry reference.SeriesSource
	// Resolve maps a reference file path from a document to a readable
	// path, rejecting paths it does not allow. Nil keeps paths as written.
	Resolve func(path string) (string, error)
	Logger  *slog.Logger
}

type buildFunc func(b *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error)

var kinds = map[string]buildFunc{
	"linear_trend":   buildLinearTrend,
	"sinusoidal":     buildSinusoidal,
	"weekday":        buildWeekday,
	"random_feature": buildRandomFeature,
	"white_noise":    buildWhiteNoise,
	"country_gdp":    buildCountryGDP,
	"industry_index": buildIndustryIndex,
	"holiday":        buildHoliday,
}

// Kinds lists the factor kinds a document may use.
func Kinds() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Builder turns documents into engines.
type Builder struct {
	deps Dependencies
}

// NewBuilder creates a builder. Missing dependencies only fail documents
// that need them.
func NewBuilder(deps Dependencies) *Builder {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Builder{deps: deps}
}

// Build configures an engine for doc. Extra options are applied after the
// document's own, so a caller can override the seed or logger.
func (b *Builder) Build(doc *Document, extra ...generator.Option) (*generator.Engine, error) {
	if err := Validate(doc); err != nil {
		return nil, err
	}

	dates, err := DateRangeOf(doc)
	if err != nil {
		return nil, err
	}
	features, err := domain.FeatureSetFromMap(doc.Features)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid features", err)
	}

	fs, err := b.Factors(doc)
	if err != nil {
		return nil, err
	}

	opts := []generator.Option{
		generator.WithFactors(fs...),
		generator.WithLogger(b.deps.Logger),
	}
	if doc.BaseValue != nil {
		opts = append(opts, generator.WithBaseValue(*doc.BaseValue))
	}
	if doc.Seed != nil {
		opts = append(opts, generator.WithSeed(*doc.Seed))
	}
	opts = append(opts, extra...)

	return generator.New(features, dates, opts...), nil
}

// Factors builds the factors of doc in document order.
func (b *Builder) Factors(doc *Document) ([]factors.Factor, error) {
	out := make([]factors.Factor, 0, len(doc.Factors))
	for i, spec := range doc.Factors {
		f, err := b.Factor(spec)
		if err != nil {
			return nil, fmt.Errorf("factors[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// Factor builds one factor.
func (b *Builder) Factor(spec FactorSpec) (factors.Factor, error) {
	build, ok := kinds[spec.Kind]
	if !ok {
		return nil, apperrors.Configf("unknown factor kind %q", spec.Kind).WithContext("kinds", Kinds())
	}

	opts := []factors.Option{factors.WithLogger(b.deps.Logger)}
	if spec.Name != "" {
		opts = append(opts, factors.WithName(spec.Name))
	}
	return build(b, spec, opts)
}

// DateRangeOf returns the inclusive range of doc.
func DateRangeOf(doc *Document) (domain.DateRange, error) {
	start, err := domain.ParseDate(doc.Start)
	if err != nil {
		return domain.DateRange{}, apperrors.NewConfigError("invalid start", err)
	}
	end, err := domain.ParseDate(doc.End)
	if err != nil {
		return domain.DateRange{}, apperrors.NewConfigError("invalid end", err)
	}
	dates, err := domain.NewDateRange(start, end)
	if err != nil {
		return domain.DateRange{}, apperrors.NewConfigError("invalid date range", err)
	}
	return dates, nil
}

func buildLinearTrend(_ *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	global := spec.Coef != nil || spec.Offset != nil
	perFeature := spec.Feature != "" || len(spec.FeatureValues) > 0
	switch {
	case global && perFeature:
		return nil, apperrors.Configf("linear_trend: set either coef/offset or feature/feature_values")
	case global:
		if spec.Coef == nil || spec.Offset == nil {
			return nil, apperrors.Configf("linear_trend: coef and offset must be set together")
		}
		return factors.NewLinearTrend(*spec.Coef, *spec.Offset, opts...)
	case !perFeature:
		return nil, apperrors.Configf("linear_trend: needs coef/offset or feature/feature_values")
	case spec.Feature == "":
		return nil, apperrors.Configf("linear_trend: feature_values needs a feature")
	case len(spec.FeatureValues) == 0:
		return nil, apperrors.Configf("linear_trend: feature %q needs feature_values", spec.Feature)
	}

	params := make([]factors.TrendParams, 0, len(spec.FeatureValues))
	for _, label := range sortedKeys(spec.FeatureValues) {
		p, err := factors.TrendParamsFromMap(label, spec.FeatureValues[label])
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return factors.NewFeatureLinearTrend(spec.Feature, params, opts...)
}

func buildSinusoidal(_ *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	if len(spec.FeatureValues) == 0 {
		p := factors.SinusoidParams{
			Wavelength: valueOr(spec.Wavelength, 365),
			Amplitude:  valueOr(spec.Amplitude, 0.2),
			Phase:      valueOr(spec.Phase, 0),
			Mean:       valueOr(spec.Mean, 1),
		}
		return factors.NewSinusoidal(p, opts...)
	}
	if spec.Feature == "" {
		return nil, apperrors.Configf("sinusoidal: feature_values needs a feature")
	}

	params := make([]factors.SinusoidParams, 0, len(spec.FeatureValues))
	for _, label := range sortedKeys(spec.FeatureValues) {
		p, err := factors.SinusoidParamsFromMap(label, spec.FeatureValues[label])
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return factors.NewFeatureSinusoidal(spec.Feature, params, opts...)
}

func buildWeekday(_ *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	var days map[time.Weekday]float64
	if len(spec.Weekdays) > 0 {
		days = make(map[time.Weekday]float64, len(spec.Weekdays))
		for key, f := range spec.Weekdays {
			day, err := factors.ParseWeekday(key)
			if err != nil {
				return nil, err
			}
			if _, dup := days[day]; dup {
				return nil, apperrors.Configf("weekday %s is configured twice", day)
			}
			days[day] = f
		}
	}
	return factors.NewWeekday(days, valueOr(spec.Intensity, 1), opts...)
}

func buildRandomFeature(_ *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	if spec.Feature == "" || len(spec.Values) == 0 {
		return nil, apperrors.Configf("random_feature: feature and values are required")
	}
	return factors.NewRandomFeature(spec.Feature, spec.Values, valueOr(spec.Min, 1), valueOr(spec.Max, 10), opts...)
}

func buildWhiteNoise(_ *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	return factors.NewWhiteNoiseFrom(spec.Stdev, spec.FeatureValues, opts...)
}

func buildCountryGDP(b *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	source := b.deps.GDP
	if spec.Source != "" {
		path, err := b.resolve(spec.Source)
		if err != nil {
			return nil, err
		}
		source = &reference.FileSource{Path: path, Sheet: spec.Sheet}
	}
	if source == nil {
		return nil, apperrors.Configf("country_gdp: no GDP reference data configured")
	}

	f, err := factors.NewCountryGDP(source, factors.GDPConfig{
		Feature:         spec.Feature,
		Countries:       spec.Countries,
		BaselineCountry: spec.BaselineCountry,
		BaselineYear:    spec.BaselineYear,
	}, opts...)
	if err != nil {
		return nil, err
	}
	if err := applyBounds(f.External, spec); err != nil {
		return nil, err
	}
	return f, nil
}

func buildIndustryIndex(b *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	source := b.deps.Industry
	if spec.Source != "" {
		path, err := b.resolve(spec.Source)
		if err != nil {
			return nil, err
		}
		source = &reference.FileSource{Path: path, Sheet: spec.Sheet}
	}
	if source == nil {
		return nil, apperrors.Configf("industry_index: no index reference data configured")
	}

	f, err := factors.NewIndustryIndex(source, valueOr(spec.Scale, 1), opts...)
	if err != nil {
		return nil, err
	}
	if err := applyBounds(f.External, spec); err != nil {
		return nil, err
	}
	return f, nil
}

func buildHoliday(b *Builder, spec FactorSpec, opts []factors.Option) (factors.Factor, error) {
	if b.deps.Calendar == nil {
		return nil, apperrors.Configf("holiday: no holiday calendar configured")
	}
	return factors.NewHoliday(b.deps.Calendar, factors.HolidayConfig{
		Feature:   spec.Feature,
		Countries: spec.Countries,
		Factor:    spec.Factor,
		Special:   spec.Special,
		Window:    spec.Window,
		Std:       spec.Std,
	}, opts...)
}

func applyBounds(e *factors.External, spec FactorSpec) error {
	if spec.MinDate == "" && spec.MaxDate == "" {
		return nil
	}
	var min, max time.Time
	var err error
	if spec.MinDate != "" {
		if min, err = domain.ParseDate(spec.MinDate); err != nil {
			return apperrors.NewConfigError("invalid min_date", err)
		}
	}
	if spec.MaxDate != "" {
		if max, err = domain.ParseDate(spec.MaxDate); err != nil {
			return apperrors.NewConfigError("invalid max_date", err)
		}
	}
	return e.SetBounds(min, max)
}

func (b *Builder) resolve(path string) (string, error) {
	if b.deps.Resolve == nil {
		return path, nil
	}
	return b.deps.Resolve(path)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func sortedKeys(m map[string]map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package factors

import (
	"context"
	"sort"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
	"tsgen/pkg/contracts/domain"
)

// DefaultLinearTrendName is the default column of a LinearTrend.
const DefaultLinearTrendName = "lin_trend"

// TrendParams is the slope and offset for one feature label. Coef is the
// total rise across the generated range, not the daily rise.
type TrendParams struct {
	Label  string  `json:"label" yaml:"label"`
	Coef   float64 `json:"coef" yaml:"coef"`
	Offset float64 `json:"offset" yaml:"offset"`
}

var trendKeys = []string{"coef", "offset"}

// TrendParamsFromMap builds parameters from a key/value map and reports
// every missing key.
func TrendParamsFromMap(label string, m map[string]float64) (TrendParams, error) {
	if err := requireKeys(label, m, trendKeys); err != nil {
		return TrendParams{}, err
	}
	return TrendParams{Label: label, Coef: m["coef"], Offset: m["offset"]}, nil
}

// LinearTrend multiplies the series by coef/N*t + 1 + offset, where t is the
// day index and N the number of days generated.
type LinearTrend struct {
	Base
	coef    float64
	offset  float64
	feature string
	params  []TrendParams
}

// NewLinearTrend creates a trend that applies to every row.
func NewLinearTrend(coef, offset float64, opts ...Option) (*LinearTrend, error) {
	o := applyOptions(DefaultLinearTrendName, opts)
	base, err := NewBase(o.name, nil, false)
	if err != nil {
		return nil, err
	}
	return &LinearTrend{Base: base, coef: coef, offset: offset}, nil
}

// NewFeatureLinearTrend creates one trend per label of feature.
func NewFeatureLinearTrend(feature string, params []TrendParams, opts ...Option) (*LinearTrend, error) {
	o := applyOptions(DefaultLinearTrendName, opts)
	fs, err := featureFromLabels(feature, trendLabels(params))
	if err != nil {
		return nil, err
	}
	base, err := NewBase(o.name, fs, false)
	if err != nil {
		return nil, err
	}
	return &LinearTrend{Base: base, feature: feature, params: append([]TrendParams(nil), params...)}, nil
}

// PerFeature reports whether the trend varies by feature label.
func (l *LinearTrend) PerFeature() bool { return l.feature != "" }

// Coef returns the global coefficient.
func (l *LinearTrend) Coef() float64 { return l.coef }

// Offset returns the global offset.
func (l *LinearTrend) Offset() float64 { return l.offset }

// Params returns the per-label parameters.
func (l *LinearTrend) Params() []TrendParams { return append([]TrendParams(nil), l.params...) }

// SetCoef replaces the global slope and offset. It fails on a per-feature
// trend.
func (l *LinearTrend) SetCoef(coef, offset float64) error {
	if l.PerFeature() {
		return apperrors.Configf("factor %q: cannot set coef and offset when feature values are set", l.Name())
	}
	l.coef, l.offset = coef, offset
	return nil
}

// SetFeatureValues replaces the per-label parameters. It fails on a global
// trend.
func (l *LinearTrend) SetFeatureValues(params []TrendParams) error {
	if !l.PerFeature() {
		return apperrors.Configf("factor %q: cannot set feature values when coef and offset are set", l.Name())
	}
	fs, err := featureFromLabels(l.feature, trendLabels(params))
	if err != nil {
		return err
	}
	l.features = fs
	l.params = append([]TrendParams(nil), params...)
	return nil
}

// Generate implements Factor.
func (l *LinearTrend) Generate(ctx context.Context, req Request) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dates := req.Span.Dates()
	n := float64(len(dates))

	if !l.PerFeature() {
		out := table.New(dates)
		values := make([]float64, len(dates))
		for t := range values {
			values[t] = l.coef/n*float64(t) + 1 + l.offset
		}
		return withColumn(out, l.Name(), values)
	}

	out := table.Cartesian(dates, l.features)
	values := make([]float64, 0, out.Len())
	for t := range dates {
		for _, p := range l.params {
			values = append(values, p.Coef/n*float64(t)+1+p.Offset)
		}
	}
	return withColumn(out, l.Name(), values)
}

func trendLabels(params []TrendParams) []string {
	labels := make([]string, len(params))
	for i, p := range params {
		labels[i] = p.Label
	}
	return labels
}

func featureFromLabels(feature string, labels []string) (domain.FeatureSet, error) {
	if feature == "" {
		return nil, apperrors.Configf("feature name must not be empty")
	}
	fs, err := domain.NewFeatureSet(domain.Feature{Name: feature, Values: labels})
	if err != nil {
		return nil, apperrors.NewConfigError("invalid feature values", err)
	}
	return fs, nil
}

func requireKeys(label string, m map[string]float64, keys []string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperrors.Configf("label %q: set %v for every label, missing %v", label, keys, missing)
}

package factors

import (
	"context"
	"math/rand"
	"sort"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
)

const (
	// DefaultWhiteNoiseName is the default column of a WhiteNoise factor.
	DefaultWhiteNoiseName = "white_noise"
	DefaultNoiseStdev     = 0.05
)

// NoiseParams is the standard deviation of the noise for one label.
type NoiseParams struct {
	Label string  `json:"label" yaml:"label"`
	Stdev float64 `json:"stdev" yaml:"stdev"`
}

// WhiteNoise multiplies every row by 1 + stdev*z with z standard normal,
// drawn independently per row.
type WhiteNoise struct {
	Base
	stdev   float64
	feature string
	params  []NoiseParams
	rand    *randSource
}

// NewWhiteNoise creates noise over every feature of the engine.
func NewWhiteNoise(stdev float64, opts ...Option) (*WhiteNoise, error) {
	if stdev == 0 {
		return nil, apperrors.Configf("white noise needs a non-zero stdev or per-label values")
	}
	o := applyOptions(DefaultWhiteNoiseName, opts)
	base, err := NewBase(o.name, nil, true)
	if err != nil {
		return nil, err
	}
	return &WhiteNoise{Base: base, stdev: stdev, rand: newRandSource(o.rng)}, nil
}

// NewFeatureWhiteNoise creates noise whose deviation depends on the label of
// a single feature.
func NewFeatureWhiteNoise(feature string, params []NoiseParams, opts ...Option) (*WhiteNoise, error) {
	o := applyOptions(DefaultWhiteNoiseName, opts)
	w := &WhiteNoise{feature: feature, rand: newRandSource(o.rng)}
	if err := w.setParams(params); err != nil {
		return nil, err
	}
	base, err := NewBase(o.name, w.features, false)
	if err != nil {
		return nil, err
	}
	w.Base = base
	return w, nil
}

// NewWhiteNoiseFrom accepts the loosely typed form used by scenario
// documents: exactly one of stdev and featureValues must be set, and
// featureValues may name a single feature only. Labels are sorted.
func NewWhiteNoiseFrom(stdev float64, featureValues map[string]map[string]float64, opts ...Option) (*WhiteNoise, error) {
	if (stdev != 0) == (len(featureValues) > 0) {
		return nil, apperrors.Configf("white noise: set either stdev or feature values")
	}
	if stdev != 0 {
		return NewWhiteNoise(stdev, opts...)
	}
	if len(featureValues) > 1 {
		return nil, apperrors.Configf("white noise: feature values can only be set on one feature")
	}

	var feature string
	var params []NoiseParams
	for name, stdevs := range featureValues {
		feature = name
		for label, s := range stdevs {
			params = append(params, NoiseParams{Label: label, Stdev: s})
		}
	}
	sort.Slice(params, func(a, b int) bool { return params[a].Label < params[b].Label })
	return NewFeatureWhiteNoise(feature, params, opts...)
}

// PerFeature reports whether the deviation varies by label.
func (w *WhiteNoise) PerFeature() bool { return w.feature != "" }

// Stdev returns the global standard deviation.
func (w *WhiteNoise) Stdev() float64 { return w.stdev }

// SetStdev replaces the global standard deviation.
func (w *WhiteNoise) SetStdev(stdev float64) error {
	if w.PerFeature() {
		return apperrors.Configf("factor %q: cannot set stdev when feature values are set", w.Name())
	}
	if stdev == 0 {
		return apperrors.Configf("factor %q: stdev must be non-zero", w.Name())
	}
	w.stdev = stdev
	return nil
}

// SetFeatureValues replaces the per-label deviations.
func (w *WhiteNoise) SetFeatureValues(params []NoiseParams) error {
	if !w.PerFeature() {
		return apperrors.Configf("factor %q: cannot set feature values on global noise", w.Name())
	}
	return w.setParams(params)
}

func (w *WhiteNoise) setParams(params []NoiseParams) error {
	labels := make([]string, len(params))
	for i, p := range params {
		labels[i] = p.Label
	}
	fs, err := featureFromLabels(w.feature, labels)
	if err != nil {
		return err
	}
	w.features = fs
	w.params = append([]NoiseParams(nil), params...)
	return nil
}

// Generate implements Factor. Global noise spans the requested features, or
// dates only when none are given.
func (w *WhiteNoise) Generate(ctx context.Context, req Request) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !w.PerFeature() {
		out, _ := grid(req, nil)
		values := make([]float64, out.Len())
		w.rand.with(req, func(r *rand.Rand) {
			for i := range values {
				values[i] = 1 + w.stdev*r.NormFloat64()
			}
		})
		return withColumn(out, w.Name(), values)
	}

	dates := req.Span.Dates()
	out := table.Cartesian(dates, w.features)
	values := make([]float64, 0, out.Len())
	w.rand.with(req, func(r *rand.Rand) {
		for range dates {
			for _, p := range w.params {
				values = append(values, 1+p.Stdev*r.NormFloat64())
			}
		}
	})
	return withColumn(out, w.Name(), values)
}

package factors

import (
	"context"
	"math"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
)

// DefaultSinusoidalName is the default column of a Sinusoidal factor.
const DefaultSinusoidalName = "sinusoidal_factor"

// SinusoidParams describes amplitude*sin(2*pi*(t+phase)/wavelength)+mean,
// with wavelength and phase in days.
type SinusoidParams struct {
	Label      string  `json:"label,omitempty" yaml:"label,omitempty"`
	Wavelength float64 `json:"wavelength" yaml:"wavelength"`
	Amplitude  float64 `json:"amplitude" yaml:"amplitude"`
	Phase      float64 `json:"phase" yaml:"phase"`
	Mean       float64 `json:"mean" yaml:"mean"`
}

var sinusoidKeys = []string{"wavelength", "amplitude", "phase", "mean"}

// SinusoidParamsFromMap builds parameters from a key/value map. Every one of
// wavelength, amplitude, phase and mean must be present.
func SinusoidParamsFromMap(label string, m map[string]float64) (SinusoidParams, error) {
	if err := requireKeys(label, m, sinusoidKeys); err != nil {
		return SinusoidParams{}, err
	}
	p := SinusoidParams{
		Label:      label,
		Wavelength: m["wavelength"],
		Amplitude:  m["amplitude"],
		Phase:      m["phase"],
		Mean:       m["mean"],
	}
	return p, p.validate()
}

func (p SinusoidParams) validate() error {
	if p.Wavelength == 0 {
		return apperrors.Configf("label %q: wavelength must be non-zero", p.Label)
	}
	return nil
}

func (p SinusoidParams) at(t float64) float64 {
	return p.Amplitude*math.Sin(2*math.Pi*(t+p.Phase)/p.Wavelength) + p.Mean
}

// Sinusoidal introduces seasonal patterns.
type Sinusoidal struct {
	Base
	global  SinusoidParams
	feature string
	params  []SinusoidParams
}

// NewSinusoidal creates a wave that applies to every row.
func NewSinusoidal(p SinusoidParams, opts ...Option) (*Sinusoidal, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	o := applyOptions(DefaultSinusoidalName, opts)
	base, err := NewBase(o.name, nil, false)
	if err != nil {
		return nil, err
	}
	return &Sinusoidal{Base: base, global: p}, nil
}

// NewFeatureSinusoidal creates one wave per label of feature.
func NewFeatureSinusoidal(feature string, params []SinusoidParams, opts ...Option) (*Sinusoidal, error) {
	o := applyOptions(DefaultSinusoidalName, opts)
	s := &Sinusoidal{feature: feature}
	if err := s.setParams(params); err != nil {
		return nil, err
	}
	base, err := NewBase(o.name, s.features, false)
	if err != nil {
		return nil, err
	}
	s.Base = base
	return s, nil
}

// PerFeature reports whether the wave varies by feature label.
func (s *Sinusoidal) PerFeature() bool { return s.feature != "" }

// Params returns the global wave parameters.
func (s *Sinusoidal) Params() SinusoidParams { return s.global }

// FeatureValues returns the per-label wave parameters.
func (s *Sinusoidal) FeatureValues() []SinusoidParams {
	return append([]SinusoidParams(nil), s.params...)
}

// SetParams replaces the global parameters.
func (s *Sinusoidal) SetParams(p SinusoidParams) error {
	if s.PerFeature() {
		return apperrors.Configf("factor %q: cannot set global parameters when feature values are set", s.Name())
	}
	if err := p.validate(); err != nil {
		return err
	}
	s.global = p
	return nil
}

// SetFeatureValues replaces the per-label parameters.
func (s *Sinusoidal) SetFeatureValues(params []SinusoidParams) error {
	if !s.PerFeature() {
		return apperrors.Configf("factor %q: cannot set feature values on a global wave", s.Name())
	}
	return s.setParams(params)
}

func (s *Sinusoidal) setParams(params []SinusoidParams) error {
	labels := make([]string, len(params))
	for i, p := range params {
		if err := p.validate(); err != nil {
			return err
		}
		labels[i] = p.Label
	}
	fs, err := featureFromLabels(s.feature, labels)
	if err != nil {
		return err
	}
	s.features = fs
	s.params = append([]SinusoidParams(nil), params...)
	return nil
}

// Generate implements Factor.
func (s *Sinusoidal) Generate(ctx context.Context, req Request) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dates := req.Span.Dates()

	if !s.PerFeature() {
		values := make([]float64, len(dates))
		for t := range values {
			values[t] = s.global.at(float64(t))
		}
		return withColumn(table.New(dates), s.Name(), values)
	}

	out := table.Cartesian(dates, s.features)
	values := make([]float64, 0, out.Len())
	for t := range dates {
		for _, p := range s.params {
			values = append(values, p.at(float64(t)))
		}
	}
	return withColumn(out, s.Name(), values)
}

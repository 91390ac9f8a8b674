package factors

import (
	"context"
	"math/rand"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
)

const (
	// DefaultRandomFeatureName is the default column of a RandomFeature.
	DefaultRandomFeatureName = "random_feature_factor"
	DefaultRandomMin         = 1.0
	DefaultRandomMax         = 10.0
)

// RandomFeature draws one uniform factor per feature label on every
// generation and repeats it across all dates.
type RandomFeature struct {
	Base
	feature string
	labels  []string
	min     float64
	max     float64
	rand    *randSource
}

// NewRandomFeature creates a random factor over the labels of feature.
func NewRandomFeature(feature string, labels []string, min, max float64, opts ...Option) (*RandomFeature, error) {
	if min > max {
		return nil, apperrors.Configf("min factor value %v > max factor value %v", min, max)
	}
	o := applyOptions(DefaultRandomFeatureName, opts)
	fs, err := featureFromLabels(feature, labels)
	if err != nil {
		return nil, err
	}
	base, err := NewBase(o.name, fs, false)
	if err != nil {
		return nil, err
	}
	return &RandomFeature{
		Base:    base,
		feature: feature,
		labels:  fs[0].Values,
		min:     min,
		max:     max,
		rand:    newRandSource(o.rng),
	}, nil
}

// Bounds returns the configured range of drawn factors.
func (f *RandomFeature) Bounds() (min, max float64) { return f.min, f.max }

// Generate implements Factor.
func (f *RandomFeature) Generate(ctx context.Context, req Request) (*table.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	draws := make([]float64, len(f.labels))
	f.rand.with(req, func(r *rand.Rand) {
		for i := range draws {
			draws[i] = f.min + (f.max-f.min)*r.Float64()
		}
	})

	dates := req.Span.Dates()
	out := table.Cartesian(dates, f.features)
	values := make([]float64, 0, out.Len())
	for range dates {
		values = append(values, draws...)
	}
	return withColumn(out, f.Name(), values)
}

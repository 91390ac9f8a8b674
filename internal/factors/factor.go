// Package factors implements the multiplicative influences a generated
// series is made of. Each factor turns a date span, and optionally the labels
// of one feature, into a table with a single value column.
package factors

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
	"tsgen/pkg/contracts/domain"
)

// Factor produces a multiplicative adjustment column over dates and,
// optionally, feature labels.
type Factor interface {
	// Name is the column the factor contributes to the output table.
	Name() string
	// Features is the declared feature subset. Empty means date-only.
	Features() domain.FeatureSet
	// AppliesToAll marks factors that vary over every feature of the
	// engine they are attached to.
	AppliesToAll() bool
	// Generate returns a table keyed by date plus the requested features,
	// with one value column named after the factor.
	Generate(ctx context.Context, req Request) (*table.Table, error)
}

// Request describes what a factor has to produce.
type Request struct {
	Span domain.Span
	// Features is the resolved feature subset. Nil falls back to the
	// factor's declared features.
	Features domain.FeatureSet
	// Rand overrides the factor's own random source when set.
	Rand *rand.Rand
}

// Between requests the half-open span [start, end).
func Between(start, end time.Time) Request {
	return Request{Span: domain.Span{Start: start, End: end}}
}

// From requests an open span starting at start.
func From(start time.Time) Request {
	return Request{Span: domain.Span{Start: start}}
}

func (r Request) features(declared domain.FeatureSet) domain.FeatureSet {
	if r.Features != nil {
		return r.Features
	}
	return declared
}

// Base carries the identity shared by every factor.
type Base struct {
	name       string
	features   domain.FeatureSet
	applyToAll bool
}

// NewBase validates the common factor configuration.
func NewBase(name string, features domain.FeatureSet, applyToAll bool) (Base, error) {
	if name == "" {
		return Base{}, apperrors.Configf("factor name must not be empty")
	}
	if applyToAll && features.Len() > 0 {
		return Base{}, apperrors.Configf("factor %q cannot apply to all features and declare features %v", name, features.Names())
	}
	return Base{name: name, features: features, applyToAll: applyToAll}, nil
}

// Name returns the output column name.
func (b Base) Name() string { return b.name }

// Features returns the declared feature subset.
func (b Base) Features() domain.FeatureSet { return b.features }

// AppliesToAll reports whether the factor spans every engine feature.
func (b Base) AppliesToAll() bool { return b.applyToAll }

// Option configures behaviour shared by all factor variants.
type Option func(*options)

type options struct {
	name   string
	logger *slog.Logger
	rng    *rand.Rand
}

// WithName overrides the default output column name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithLogger sets the logger used while loading reference data.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithSeed seeds the factor's own random source.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand supplies the factor's own random source.
func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

func applyOptions(defaultName string, opts []Option) options {
	o := options{name: defaultName}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// randSource serializes access to a factor-owned generator. A request
// supplied generator bypasses the lock and belongs to the caller.
type randSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func newRandSource(rng *rand.Rand) *randSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &randSource{rng: rng}
}

func (s *randSource) with(req Request, fn func(r *rand.Rand)) {
	if req.Rand != nil {
		fn(req.Rand)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.rng)
}

// grid builds the (date x features) skeleton for a request and returns the
// resolved feature set alongside it.
func grid(req Request, declared domain.FeatureSet) (*table.Table, domain.FeatureSet) {
	fs := req.features(declared)
	return table.Cartesian(req.Span.Dates(), fs), fs
}

func withColumn(t *table.Table, name string, values []float64) (*table.Table, error) {
	if err := t.AddValues(name, values); err != nil {
		return nil, err
	}
	return t, nil
}

// Package generator composes factors into a synthetic time series. The
// Engine builds a skeleton of every date and feature combination, joins each
// factor's output onto it and multiplies the factor columns into a value.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/factors"
	"tsgen/internal/table"
	"tsgen/pkg/contracts/domain"
)

// Output column names added by the engine.
const (
	BaseAmountColumn  = "base_amount"
	TotalFactorColumn = "total_factor"
	ValueColumn       = "value"
)

const (
	// DefaultBaseValue is the base amount when none is configured.
	DefaultBaseValue = 1.0
	// NeutralValue fills rows a factor does not cover.
	NeutralValue = 1.0

	tracerName = "tsgen/generator"
)

// Engine owns a factor set, the feature domain, the date range and the base
// value. Generate calls on one Engine are serialized.
type Engine struct {
	mu        sync.Mutex
	features  domain.FeatureSet
	dates     domain.DateRange
	baseValue float64
	factors   []factors.Factor
	rng       *rand.Rand
	logger    *slog.Logger
	tracer    trace.Tracer
	last      *table.Table
}

// Option configures an Engine.
type Option func(*Engine)

// WithFactors sets the initial factor set. Duplicate names are reported by
// Generate.
func WithFactors(fs ...factors.Factor) Option {
	return func(e *Engine) { e.factors = append(e.factors, fs...) }
}

// WithBaseValue sets the amount every row starts from.
func WithBaseValue(v float64) Option {
	return func(e *Engine) { e.baseValue = v }
}

// WithSeed makes every randomized factor draw from one seeded generator.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand makes every randomized factor draw from rng.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine over the given features and dates.
func New(features domain.FeatureSet, dates domain.DateRange, opts ...Option) *Engine {
	e := &Engine{
		features:  features,
		dates:     dates,
		baseValue: DefaultBaseValue,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Features returns the feature domain.
func (e *Engine) Features() domain.FeatureSet { return e.features }

// DateRange returns the generated dates.
func (e *Engine) DateRange() domain.DateRange { return e.dates }

// BaseValue returns the base amount.
func (e *Engine) BaseValue() float64 { return e.baseValue }

// Factors returns a copy of the factor set.
func (e *Engine) Factors() []factors.Factor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]factors.Factor(nil), e.factors...)
}

// FactorNames returns the factor column names in factor order.
func (e *Engine) FactorNames() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return factorNames(e.factors)
}

// SetFactors replaces the factor set without checking names.
func (e *Engine) SetFactors(fs []factors.Factor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.factors = append([]factors.Factor(nil), fs...)
}

// AddFactor appends f, failing when a factor of the same name exists.
func (e *Engine) AddFactor(f factors.Factor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.indexOf(f.Name()) >= 0 {
		return apperrors.NewAlreadyExistsError(f.Name())
	}
	e.factors = append(e.factors, f)
	return nil
}

// UpdateFactor replaces the factor named like f, or appends f.
func (e *Engine) UpdateFactor(f factors.Factor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := e.indexOf(f.Name()); i >= 0 {
		e.factors[i] = f
		return
	}
	e.factors = append(e.factors, f)
}

// RemoveFactor removes f itself, not a factor that merely shares its name.
func (e *Engine) RemoveFactor(f factors.Factor) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, existing := range e.factors {
		if existing == f {
			e.factors = append(e.factors[:i], e.factors[i+1:]...)
			return nil
		}
	}
	return apperrors.NewNotFoundError("factor " + f.Name())
}

// Last returns the table of the latest successful Generate, or nil.
func (e *Engine) Last() *table.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Engine) indexOf(name string) int {
	for i, f := range e.factors {
		if f.Name() == name {
			return i
		}
	}
	return -1
}

// Generate builds the output table: date, feature labels, base_amount, one
// column per factor, total_factor and value. The full table is rebuilt on
// every call.
func (e *Engine) Generate(ctx context.Context) (*table.Table, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "generator.Generate", trace.WithAttributes(
		attribute.Int("factors", len(e.factors)),
		attribute.Int("days", e.dates.Days()),
		attribute.Int("combinations", e.features.Size()),
	))
	defer span.End()

	start := time.Now()
	out, err := e.generate(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.ErrorContext(ctx, "generation failed",
			slog.String("error", err.Error()),
			slog.Int("factors", len(e.factors)))
		return nil, err
	}

	span.SetAttributes(attribute.Int("rows", out.Len()))
	e.logger.InfoContext(ctx, "generation complete",
		slog.Int("rows", out.Len()),
		slog.Int("factors", len(e.factors)),
		slog.Duration("duration", time.Since(start)))
	e.last = out
	return out, nil
}

func (e *Engine) generate(ctx context.Context) (*table.Table, error) {
	if err := e.checkNames(); err != nil {
		return nil, err
	}

	out := table.Cartesian(e.dates.Dates(), e.features)
	if err := out.Fill(BaseAmountColumn, e.baseValue); err != nil {
		return nil, err
	}

	span := e.dates.Span()
	for _, f := range e.factors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, on, err := e.request(f, span)
		if err != nil {
			return nil, err
		}

		part, err := e.generateFactor(ctx, f, req)
		if err != nil {
			return nil, err
		}
		if _, ok := part.Values(f.Name()); !ok {
			return nil, apperrors.Configf("factor %q produced no %q column", f.Name(), f.Name())
		}

		out, err = out.LeftJoin(part, on, NeutralValue)
		if err != nil {
			return nil, fmt.Errorf("merge factor %q: %w", f.Name(), err)
		}
	}

	total, err := out.RowProduct(factorNames(e.factors))
	if err != nil {
		return nil, err
	}
	if err := out.AddValues(TotalFactorColumn, total); err != nil {
		return nil, err
	}

	base, _ := out.Values(BaseAmountColumn)
	value := make([]float64, len(total))
	floats.MulTo(value, total, base)
	if err := out.AddValues(ValueColumn, value); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) generateFactor(ctx context.Context, f factors.Factor, req factors.Request) (*table.Table, error) {
	ctx, span := e.tracer.Start(ctx, "factor.Generate", trace.WithAttributes(
		attribute.String("factor", f.Name()),
	))
	defer span.End()

	part, err := f.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("factor %q: %w", f.Name(), err)
	}
	span.SetAttributes(attribute.Int("rows", part.Len()))
	e.logger.DebugContext(ctx, "factor generated",
		slog.String("factor", f.Name()),
		slog.Int("rows", part.Len()))
	return part, nil
}

// request resolves the feature subset of f and the join keys for its output.
func (e *Engine) request(f factors.Factor, span domain.Span) (factors.Request, []string, error) {
	req := factors.Request{Span: span, Rand: e.rng}
	if f.AppliesToAll() {
		req.Features = e.features
		return req, e.features.Names(), nil
	}

	on := f.Features().Names()
	for _, name := range on {
		if !e.features.Has(name) {
			return req, nil, apperrors.Configf("factor %q depends on feature %q, which is not among %v",
				f.Name(), name, e.features.Names())
		}
	}
	return req, on, nil
}

// checkNames rejects factors sharing a column name with each other, with a
// feature or with an engine column.
func (e *Engine) checkNames() error {
	seen := map[string]int{
		table.DateColumn:  1,
		BaseAmountColumn:  1,
		TotalFactorColumn: 1,
		ValueColumn:       1,
	}
	for _, name := range e.features.Names() {
		seen[name]++
	}

	var dups []string
	for _, f := range e.factors {
		seen[f.Name()]++
		if seen[f.Name()] == 2 {
			dups = append(dups, f.Name())
		}
	}
	if len(dups) == 0 {
		return nil
	}
	sort.Strings(dups)
	return apperrors.NewDuplicateNameError(dups)
}

func factorNames(fs []factors.Factor) []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name()
	}
	return names
}

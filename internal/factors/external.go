package factors

import (
	"context"
	"fmt"
	"time"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/table"
	"tsgen/pkg/contracts/domain"
)

// Loader produces the complete reference table of an external factor,
// independent of any requested range.
type Loader interface {
	LoadData(ctx context.Context) (*table.Table, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (*table.Table, error)

// LoadData implements Loader.
func (f LoaderFunc) LoadData(ctx context.Context) (*table.Table, error) { return f(ctx) }

// External is a factor backed by reference data. Generate loads the full
// table and keeps the rows inside the requested span; an open span keeps
// everything from its start. Nothing is cached between calls.
type External struct {
	Base
	loader  Loader
	minDate time.Time
	maxDate time.Time
}

// NewExternal creates an external factor. The loader must return a table
// with the declared feature columns and a value column named after the
// factor.
func NewExternal(name string, features domain.FeatureSet, loader Loader) (*External, error) {
	if loader == nil {
		return nil, apperrors.Configf("external factor %q needs a loader", name)
	}
	base, err := NewBase(name, features, false)
	if err != nil {
		return nil, err
	}
	return &External{Base: base, loader: loader}, nil
}

// SetBounds restricts the loaded data to [min, max]. Zero values leave that
// side unbounded.
func (e *External) SetBounds(min, max time.Time) error {
	if !min.IsZero() && !max.IsZero() && max.Before(min) {
		return apperrors.Configf("factor %q: max date %s precedes min date %s",
			e.Name(), max.Format(time.DateOnly), min.Format(time.DateOnly))
	}
	e.minDate, e.maxDate = min, max
	return nil
}

// Bounds returns the configured date bounds.
func (e *External) Bounds() (min, max time.Time) { return e.minDate, e.maxDate }

// LoadData returns the full reference table.
func (e *External) LoadData(ctx context.Context) (*table.Table, error) {
	data, err := e.loader.LoadData(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", e.Name(), err)
	}
	if _, ok := data.Values(e.Name()); !ok {
		return nil, apperrors.Configf("factor %q: loaded data has no %q column", e.Name(), e.Name())
	}
	for _, name := range e.features.Names() {
		if _, ok := data.Labels(name); !ok {
			return nil, apperrors.Configf("factor %q: loaded data has no %q column", e.Name(), name)
		}
	}
	return data, nil
}

// Generate implements Factor.
func (e *External) Generate(ctx context.Context, req Request) (*table.Table, error) {
	data, err := e.LoadData(ctx)
	if err != nil {
		return nil, err
	}
	return data.Filter(func(i int) bool {
		d := data.Dates()[i]
		if !e.minDate.IsZero() && d.Before(e.minDate) {
			return false
		}
		if !e.maxDate.IsZero() && d.After(e.maxDate) {
			return false
		}
		return req.Span.Contains(d)
	}), nil
}

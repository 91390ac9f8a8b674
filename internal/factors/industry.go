package factors

import (
	"context"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/reference"
	"tsgen/internal/table"
)

// DefaultIndustryIndexName is the default column of an IndustryIndex factor.
const DefaultIndustryIndexName = "eu_industry_product_factor"

// IndustryIndex follows a monthly production index where 100 is neutral,
// e.g. the EU industry production index. Each month's value applies to
// every day of the month, scaled by value/100*scale.
type IndustryIndex struct {
	*External
	source reference.SeriesSource
	scale  float64
}

// NewIndustryIndex creates an index factor reading from source.
func NewIndustryIndex(source reference.SeriesSource, scale float64, opts ...Option) (*IndustryIndex, error) {
	if source == nil {
		return nil, apperrors.Configf("industry index factor needs a reference source")
	}
	o := applyOptions(DefaultIndustryIndexName, opts)

	f := &IndustryIndex{source: source, scale: scale}
	var err error
	f.External, err = NewExternal(o.name, nil, LoaderFunc(f.load))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Scale returns the intensity applied on top of the normalized index.
func (f *IndustryIndex) Scale() float64 { return f.scale }

func (f *IndustryIndex) load(ctx context.Context) (*table.Table, error) {
	series, err := f.source.LoadSeries(ctx)
	if err != nil {
		return nil, err
	}
	dates, values := reference.ForwardFillDaily(series.Periods, series.Values, reference.Monthly)
	for i := range values {
		values[i] = values[i] / 100 * f.scale
	}
	return withColumn(table.New(dates), f.Name(), values)
}

var _ Factor = (*IndustryIndex)(nil)

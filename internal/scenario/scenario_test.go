package scenario

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tsgen/internal/errors"
	"tsgen/internal/factors"
	"tsgen/internal/generator"
	"tsgen/internal/holidays"
)

func testBuilder() *Builder {
	return NewBuilder(Dependencies{
		Calendar: holidays.NewRegistry(),
		Resolve: func(path string) (string, error) {
			return filepath.Join("..", "reference", "testdata", path), nil
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestLoadFile_YAMLScenario(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "retail.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "retail", doc.Name)
	require.NotNil(t, doc.Seed)
	assert.Equal(t, int64(42), *doc.Seed)
	assert.Len(t, doc.Factors, 6)
	assert.Equal(t, []string{"jacket", "mat"}, doc.Features["product"])

	engine, err := testBuilder().Build(doc)
	require.NoError(t, err)
	assert.Equal(t, 100.0, engine.BaseValue())
	assert.Equal(t, []string{
		factors.DefaultLinearTrendName,
		factors.DefaultWeekdayName,
		factors.DefaultWhiteNoiseName,
		factors.DefaultCountryGDPName,
		factors.DefaultIndustryIndexName,
		"holidays",
	}, engine.FactorNames())

	out, err := engine.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 31*4, out.Len())

	values, ok := out.Values(generator.ValueColumn)
	require.True(t, ok)
	for i, v := range values {
		assert.Greater(t, v, 0.0, "row %d", i)
	}
}

func TestBuild_SeedReproducesOutput(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "retail.yaml"))
	require.NoError(t, err)

	run := func() []float64 {
		engine, err := testBuilder().Build(doc)
		require.NoError(t, err)
		out, err := engine.Generate(context.Background())
		require.NoError(t, err)
		values, _ := out.Values(generator.ValueColumn)
		return values
	}
	assert.Equal(t, run(), run())
}

func TestBuild_ExtraOptionsOverrideDocument(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "retail.yaml"))
	require.NoError(t, err)

	engine, err := testBuilder().Build(doc, generator.WithBaseValue(7))
	require.NoError(t, err)
	assert.Equal(t, 7.0, engine.BaseValue())
}

func TestLoadFile_JSONScenario(t *testing.T) {
	doc, err := LoadFile(filepath.Join("testdata", "seasonal.json"))
	require.NoError(t, err)
	assert.Nil(t, doc.BaseValue)

	engine, err := testBuilder().Build(doc)
	require.NoError(t, err)
	assert.Equal(t, generator.DefaultBaseValue, engine.BaseValue())

	out, err := engine.Generate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 91*2, out.Len())
	assert.Contains(t, out.Header(), factors.DefaultSinusoidalName)
	assert.Contains(t, out.Header(), factors.DefaultRandomFeatureName)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		format  Format
		input   string
		target  error
		field   string
		message string
	}{
		{
			name:   "missing name",
			format: FormatYAML,
			input:  "start: 2020-01-01\nend: 2020-01-02\n",
			target: apperrors.ErrInvalid,
			field:  "name",
		},
		{
			name:    "bad date",
			format:  FormatYAML,
			input:   "name: x\nstart: 2020-13-01\nend: 2020-01-02\n",
			target:  apperrors.ErrInvalid,
			field:   "start",
			message: "must be a date",
		},
		{
			name:    "unknown kind",
			format:  FormatYAML,
			input:   "name: x\nstart: 2020-01-01\nend: 2020-01-02\nfactors:\n  - kind: tides\n",
			target:  apperrors.ErrInvalid,
			field:   "factors[0].kind",
			message: "must be one of",
		},
		{
			name:    "duplicate labels",
			format:  FormatYAML,
			input:   "name: x\nstart: 2020-01-01\nend: 2020-01-02\nfeatures:\n  product: [a, a]\n",
			target:  apperrors.ErrInvalid,
			message: "duplicates",
		},
		{
			name:   "end before start",
			format: FormatJSON,
			input:  `{"name": "x", "start": "2020-02-01", "end": "2020-01-01"}`,
			target: apperrors.ErrInvalid,
			field:  "end",
		},
		{
			name:   "unknown field",
			format: FormatJSON,
			input:  `{"name": "x", "start": "2020-01-01", "end": "2020-01-02", "colour": "red"}`,
			target: apperrors.ErrParsing,
		},
		{
			name:   "malformed yaml",
			format: FormatYAML,
			input:  "name: [x\n",
			target: apperrors.ErrParsing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
			if tt.field == "" {
				return
			}

			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			fields, ok := appErr.Context["fields"].([]apperrors.ValidationError)
			require.True(t, ok)
			require.NotEmpty(t, fields)
			assert.Equal(t, tt.field, fields[0].Field)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFor("a/b.JSON"))
	assert.Equal(t, FormatYAML, FormatFor("a/b.yml"))
	assert.Equal(t, FormatYAML, FormatFor("scenario"))
}

func TestKinds(t *testing.T) {
	assert.Equal(t, []string{
		"country_gdp", "holiday", "industry_index", "linear_trend",
		"random_feature", "sinusoidal", "weekday", "white_noise",
	}, Kinds())
}

func floatPtr(v float64) *float64 { return &v }

func TestBuilder_Factor(t *testing.T) {
	b := testBuilder()

	tests := []struct {
		name    string
		spec    FactorSpec
		wantErr error
		check   func(t *testing.T, f factors.Factor)
	}{
		{
			name: "linear trend global",
			spec: FactorSpec{Kind: "linear_trend", Coef: floatPtr(0.5), Offset: floatPtr(0.1)},
			check: func(t *testing.T, f factors.Factor) {
				trend := f.(*factors.LinearTrend)
				assert.False(t, trend.PerFeature())
				assert.Equal(t, 0.5, trend.Coef())
				assert.Equal(t, 0.1, trend.Offset())
			},
		},
		{
			name:    "linear trend without parameters",
			spec:    FactorSpec{Kind: "linear_trend"},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "linear trend coef without offset",
			spec:    FactorSpec{Kind: "linear_trend", Coef: floatPtr(1)},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "linear trend feature without feature values",
			spec:    FactorSpec{Kind: "linear_trend", Feature: "product"},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "linear trend feature values without feature",
			spec:    FactorSpec{Kind: "linear_trend", FeatureValues: map[string]map[string]float64{"a": {"coef": 1, "offset": 0}}},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "linear trend feature with global coef",
			spec:    FactorSpec{Kind: "linear_trend", Feature: "product", Coef: floatPtr(1), Offset: floatPtr(0)},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name: "linear trend mixes global and per-feature",
			spec: FactorSpec{
				Kind:          "linear_trend",
				Feature:       "product",
				Coef:          floatPtr(2),
				FeatureValues: map[string]map[string]float64{"a": {"coef": 1, "offset": 0}},
			},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name: "linear trend missing offset",
			spec: FactorSpec{
				Kind:          "linear_trend",
				Feature:       "product",
				FeatureValues: map[string]map[string]float64{"a": {"coef": 1}},
			},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name: "named weekday",
			spec: FactorSpec{Kind: "weekday", Name: "dow", Weekdays: map[string]float64{"mon": 2}, Intensity: floatPtr(0.5)},
			check: func(t *testing.T, f factors.Factor) {
				assert.Equal(t, "dow", f.Name())
				w := f.(*factors.Weekday)
				assert.Equal(t, 0.5, w.Intensity())
			},
		},
		{
			name:    "weekday configured twice",
			spec:    FactorSpec{Kind: "weekday", Weekdays: map[string]float64{"monday": 2, "mon": 3}},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "unknown weekday",
			spec:    FactorSpec{Kind: "weekday", Weekdays: map[string]float64{"someday": 2}},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name: "random feature default bounds",
			spec: FactorSpec{Kind: "random_feature", Feature: "store", Values: []string{"a", "b"}},
			check: func(t *testing.T, f factors.Factor) {
				min, max := f.(*factors.RandomFeature).Bounds()
				assert.Equal(t, 1.0, min)
				assert.Equal(t, 10.0, max)
			},
		},
		{
			name:    "random feature without values",
			spec:    FactorSpec{Kind: "random_feature", Feature: "store"},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "white noise with stdev and feature values",
			spec:    FactorSpec{Kind: "white_noise", Stdev: 0.1, FeatureValues: map[string]map[string]float64{"store": {"a": 0.1}}},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name: "industry index with bounds",
			spec: FactorSpec{Kind: "industry_index", Source: "eu_prod_index.csv", MinDate: "2018-01-01", MaxDate: "2018-06-30"},
			check: func(t *testing.T, f factors.Factor) {
				min, max := f.(*factors.IndustryIndex).Bounds()
				assert.Equal(t, "2018-01-01", min.Format("2006-01-02"))
				assert.Equal(t, "2018-06-30", max.Format("2006-01-02"))
			},
		},
		{
			name:    "industry index reversed bounds",
			spec:    FactorSpec{Kind: "industry_index", Source: "eu_prod_index.csv", MinDate: "2018-06-30", MaxDate: "2018-01-01"},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name:    "gdp without source",
			spec:    FactorSpec{Kind: "country_gdp"},
			wantErr: apperrors.ErrConfiguration,
		},
		{
			name: "holiday defaults",
			spec: FactorSpec{Kind: "holiday"},
			check: func(t *testing.T, f factors.Factor) {
				cfg := f.(*factors.Holiday).Config()
				assert.Equal(t, factors.DefaultHolidayFactor, cfg.Factor)
				assert.Equal(t, []string{"Netherlands", "Italy", "Romania"}, cfg.Countries)
			},
		},
		{
			name:    "unknown kind",
			spec:    FactorSpec{Kind: "tides"},
			wantErr: apperrors.ErrConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := b.Factor(tt.spec)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			tt.check(t, f)
		})
	}
}

func TestBuild_HolidayWithoutCalendar(t *testing.T) {
	doc := &Document{
		Name:    "x",
		Start:   "2020-01-01",
		End:     "2020-01-10",
		Factors: []FactorSpec{{Kind: "weekday"}, {Kind: "holiday"}},
	}
	_, err := NewBuilder(Dependencies{}).Build(doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfiguration))
	assert.Contains(t, err.Error(), "factors[1]")
}

func TestDateRangeOf(t *testing.T) {
	dates, err := DateRangeOf(&Document{Start: "2020-02-27", End: "2020-03-01"})
	require.NoError(t, err)
	assert.Equal(t, 4, dates.Days())
}

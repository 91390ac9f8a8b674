// Package scenario reads generation scenarios from YAML or JSON documents and
// turns them into configured engines.
//
// A scenario names the features, the date range and the factors:
//
//	name: retail
//	start: 2020-01-01
//	end: 2020-12-31
//	base_value: 100
//	seed: 42
//	features:
//	  country: [Netherlands, Italy]
//	  product: [jacket, mat, scarf]
//	factors:
//	  - kind: linear_trend
//	    feature: product
//	    feature_values:
//	      jacket: {coef: 0.3, offset: 0}
//	      mat: {coef: -0.1, offset: 0.1}
//	  - kind: weekday
//	    weekdays: {friday: 1.1, saturday: 1.4}
//	  - kind: white_noise
//	    stdev: 0.05
package scenario

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	apperrors "tsgen/internal/errors"
)

// Document is a complete scenario.
type Document struct {
	Name      string              `json:"name" yaml:"name" validate:"required"`
	Start     string              `json:"start" yaml:"start" validate:"required,date"`
	End       string              `json:"end" yaml:"end" validate:"required,date"`
	BaseValue *float64            `json:"base_value,omitempty" yaml:"base_value,omitempty"`
	Seed      *int64              `json:"seed,omitempty" yaml:"seed,omitempty"`
	Features  map[string][]string `json:"features,omitempty" yaml:"features,omitempty" validate:"omitempty,dive,keys,required,endkeys,min=1,unique"`
	Factors   []FactorSpec        `json:"factors" yaml:"factors" validate:"dive"`
}

// FactorSpec configures one factor. Which fields apply depends on Kind.
//
// FeatureValues maps labels of Feature to parameter records for
// linear_trend ({coef, offset}) and sinusoidal ({wavelength, amplitude,
// phase, mean}). For white_noise it maps one feature name to per-label
// standard deviations.
type FactorSpec struct {
	Kind          string                        `json:"kind" yaml:"kind" validate:"required,oneof=linear_trend sinusoidal weekday random_feature white_noise country_gdp industry_index holiday"`
	Name          string                        `json:"name,omitempty" yaml:"name,omitempty"`
	Feature       string                        `json:"feature,omitempty" yaml:"feature,omitempty"`
	FeatureValues map[string]map[string]float64 `json:"feature_values,omitempty" yaml:"feature_values,omitempty"`

	Coef       *float64 `json:"coef,omitempty" yaml:"coef,omitempty"`
	Offset     *float64 `json:"offset,omitempty" yaml:"offset,omitempty"`
	Wavelength *float64 `json:"wavelength,omitempty" yaml:"wavelength,omitempty"`
	Amplitude  *float64 `json:"amplitude,omitempty" yaml:"amplitude,omitempty"`
	Phase      *float64 `json:"phase,omitempty" yaml:"phase,omitempty"`
	Mean       *float64 `json:"mean,omitempty" yaml:"mean,omitempty"`

	Weekdays  map[string]float64 `json:"weekdays,omitempty" yaml:"weekdays,omitempty"`
	Intensity *float64           `json:"intensity,omitempty" yaml:"intensity,omitempty"`

	Values []string `json:"values,omitempty" yaml:"values,omitempty" validate:"omitempty,unique"`
	Min    *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max    *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Stdev  float64  `json:"stdev,omitempty" yaml:"stdev,omitempty"`

	Countries       []string `json:"countries,omitempty" yaml:"countries,omitempty" validate:"omitempty,dive,required"`
	BaselineCountry string   `json:"baseline_country,omitempty" yaml:"baseline_country,omitempty"`
	BaselineYear    int      `json:"baseline_year,omitempty" yaml:"baseline_year,omitempty" validate:"omitempty,min=1900"`
	Scale           *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Source          string   `json:"source,omitempty" yaml:"source,omitempty"`
	Sheet           string   `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	MinDate         string   `json:"min_date,omitempty" yaml:"min_date,omitempty" validate:"omitempty,date"`
	MaxDate         string   `json:"max_date,omitempty" yaml:"max_date,omitempty" validate:"omitempty,date"`

	Factor  float64            `json:"factor,omitempty" yaml:"factor,omitempty"`
	Special map[string]float64 `json:"special,omitempty" yaml:"special,omitempty"`
	Window  int                `json:"window,omitempty" yaml:"window,omitempty" validate:"omitempty,min=1"`
	Std     float64            `json:"std,omitempty" yaml:"std,omitempty" validate:"omitempty,gt=0"`
}

// Format is a document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFor picks the encoding from a file extension; anything but .json is
// treated as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Parse decodes and validates a document.
func Parse(r io.Reader, format Format) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read scenario", err)
	}

	var doc Document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	default:
		err = yaml.UnmarshalStrict(data, &doc)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("failed to decode scenario", err).
			WithContext("format", string(format))
	}

	if err := Validate(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// LoadFile reads a scenario file, choosing the encoding by extension.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open scenario", err).WithContext("path", path)
	}
	defer f.Close()

	doc, err := Parse(f, FormatFor(path))
	if err != nil {
		return nil, err
	}
	return doc, nil
}

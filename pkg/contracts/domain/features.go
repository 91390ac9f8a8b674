package domain

import (
	"fmt"
	"sort"
)

// Feature is one categorical dimension of a generated series, e.g. country.
type Feature struct {
	Name   string   `json:"name" yaml:"name" validate:"required"`
	Values []string `json:"values" yaml:"values" validate:"required,min=1,unique,dive,required"`
}

// FeatureSet is an ordered collection of features. Order fixes the column
// order and the row order of cartesian products built from the set.
type FeatureSet []Feature

// NewFeatureSet validates and copies the given features.
func NewFeatureSet(features ...Feature) (FeatureSet, error) {
	out := make(FeatureSet, 0, len(features))
	seen := make(map[string]struct{}, len(features))
	for _, f := range features {
		if f.Name == "" {
			return nil, fmt.Errorf("feature name must not be empty")
		}
		if _, dup := seen[f.Name]; dup {
			return nil, fmt.Errorf("feature %q declared twice", f.Name)
		}
		seen[f.Name] = struct{}{}

		if len(f.Values) == 0 {
			return nil, fmt.Errorf("feature %q has no values", f.Name)
		}
		labels := make(map[string]struct{}, len(f.Values))
		values := make([]string, 0, len(f.Values))
		for _, v := range f.Values {
			if _, dup := labels[v]; dup {
				return nil, fmt.Errorf("feature %q lists value %q twice", f.Name, v)
			}
			labels[v] = struct{}{}
			values = append(values, v)
		}
		out = append(out, Feature{Name: f.Name, Values: values})
	}
	return out, nil
}

// FeatureSetFromMap builds a set with names in sorted order.
func FeatureSetFromMap(m map[string][]string) (FeatureSet, error) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	features := make([]Feature, 0, len(names))
	for _, name := range names {
		features = append(features, Feature{Name: name, Values: m[name]})
	}
	return NewFeatureSet(features...)
}

// Len returns the number of features.
func (fs FeatureSet) Len() int { return len(fs) }

// Names returns feature names in declaration order.
func (fs FeatureSet) Names() []string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = f.Name
	}
	return names
}

// Has reports whether a feature with the given name exists.
func (fs FeatureSet) Has(name string) bool {
	_, ok := fs.Values(name)
	return ok
}

// Values returns the labels of the named feature.
func (fs FeatureSet) Values(name string) ([]string, bool) {
	for _, f := range fs {
		if f.Name == name {
			return f.Values, true
		}
	}
	return nil, false
}

// Subset returns the named features in the order given. Unknown names are
// reported as an error.
func (fs FeatureSet) Subset(names ...string) (FeatureSet, error) {
	out := make(FeatureSet, 0, len(names))
	for _, name := range names {
		values, ok := fs.Values(name)
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		out = append(out, Feature{Name: name, Values: values})
	}
	return out, nil
}

// Combinations returns every label combination, one slice per row, with the
// last feature varying fastest. An empty set yields a single empty row.
func (fs FeatureSet) Combinations() [][]string {
	rows := [][]string{{}}
	for _, f := range fs {
		next := make([][]string, 0, len(rows)*len(f.Values))
		for _, row := range rows {
			for _, v := range f.Values {
				combo := make([]string, len(row), len(row)+1)
				copy(combo, row)
				next = append(next, append(combo, v))
			}
		}
		rows = next
	}
	return rows
}

// Size returns the number of label combinations.
func (fs FeatureSet) Size() int {
	n := 1
	for _, f := range fs {
		n *= len(f.Values)
	}
	return n
}

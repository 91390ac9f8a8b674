// Package holidays resolves public holidays per jurisdiction and year.
package holidays

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/at"
	"github.com/rickar/cal/v2/be"
	"github.com/rickar/cal/v2/bg"
	"github.com/rickar/cal/v2/ch"
	"github.com/rickar/cal/v2/cz"
	"github.com/rickar/cal/v2/de"
	"github.com/rickar/cal/v2/dk"
	"github.com/rickar/cal/v2/es"
	"github.com/rickar/cal/v2/fr"
	"github.com/rickar/cal/v2/gb"
	"github.com/rickar/cal/v2/gr"
	"github.com/rickar/cal/v2/hr"
	"github.com/rickar/cal/v2/ie"
	"github.com/rickar/cal/v2/it"
	"github.com/rickar/cal/v2/lt"
	"github.com/rickar/cal/v2/lv"
	"github.com/rickar/cal/v2/nl"
	"github.com/rickar/cal/v2/no"
	"github.com/rickar/cal/v2/pl"
	"github.com/rickar/cal/v2/ro"
	"github.com/rickar/cal/v2/se"
	"github.com/rickar/cal/v2/si"
	"github.com/rickar/cal/v2/sk"
	"github.com/rickar/cal/v2/us"

	apperrors "tsgen/internal/errors"
	"tsgen/pkg/contracts/domain"
)

// Holiday is one named day off.
type Holiday struct {
	Date time.Time
	Name string
}

// Calendar returns the holidays observed in a jurisdiction during a year,
// ordered by date. It fails with an unrecognized-reference error when the
// country does not resolve to exactly one jurisdiction.
type Calendar interface {
	Holidays(ctx context.Context, country string, year int) ([]Holiday, error)
}

// CalendarFunc adapts a function to Calendar.
type CalendarFunc func(ctx context.Context, country string, year int) ([]Holiday, error)

// Holidays implements Calendar.
func (f CalendarFunc) Holidays(ctx context.Context, country string, year int) ([]Holiday, error) {
	return f(ctx, country, year)
}

// Jurisdiction is a named set of holiday rules.
type Jurisdiction struct {
	Name  string
	Code  string
	Rules []*cal.Holiday
}

// Registry is a Calendar over a fixed list of jurisdictions.
type Registry struct {
	jurisdictions []Jurisdiction
}

// NewRegistry returns the built-in jurisdictions.
func NewRegistry() *Registry {
	return NewRegistryFrom(
		Jurisdiction{Name: "Austria", Code: "AT", Rules: at.Holidays},
		Jurisdiction{Name: "Belgium", Code: "BE", Rules: be.Holidays},
		Jurisdiction{Name: "Bulgaria", Code: "BG", Rules: bg.Holidays},
		Jurisdiction{Name: "Croatia", Code: "HR", Rules: hr.Holidays},
		Jurisdiction{Name: "Czechia", Code: "CZ", Rules: cz.Holidays},
		Jurisdiction{Name: "Denmark", Code: "DK", Rules: dk.Holidays},
		Jurisdiction{Name: "France", Code: "FR", Rules: fr.Holidays},
		Jurisdiction{Name: "Germany", Code: "DE", Rules: de.Holidays},
		Jurisdiction{Name: "Greece", Code: "GR", Rules: gr.Holidays},
		Jurisdiction{Name: "Ireland", Code: "IE", Rules: ie.Holidays},
		Jurisdiction{Name: "Italy", Code: "IT", Rules: it.Holidays},
		Jurisdiction{Name: "Latvia", Code: "LV", Rules: lv.Holidays},
		Jurisdiction{Name: "Lithuania", Code: "LT", Rules: lt.Holidays},
		Jurisdiction{Name: "Netherlands", Code: "NL", Rules: nl.Holidays},
		Jurisdiction{Name: "Norway", Code: "NO", Rules: no.Holidays},
		Jurisdiction{Name: "Poland", Code: "PL", Rules: pl.Holidays},
		Jurisdiction{Name: "Romania", Code: "RO", Rules: ro.Holidays},
		Jurisdiction{Name: "Slovakia", Code: "SK", Rules: sk.Holidays},
		Jurisdiction{Name: "Slovenia", Code: "SI", Rules: si.Holidays},
		Jurisdiction{Name: "Spain", Code: "ES", Rules: es.Holidays},
		Jurisdiction{Name: "Sweden", Code: "SE", Rules: se.Holidays},
		Jurisdiction{Name: "Switzerland", Code: "CH", Rules: ch.Holidays},
		Jurisdiction{Name: "UnitedKingdom", Code: "GB", Rules: gb.Holidays},
		Jurisdiction{Name: "UnitedStates", Code: "US", Rules: us.Holidays},
	)
}

// NewRegistryFrom builds a registry over the given jurisdictions.
func NewRegistryFrom(jurisdictions ...Jurisdiction) *Registry {
	return &Registry{jurisdictions: append([]Jurisdiction(nil), jurisdictions...)}
}

// Countries lists the jurisdiction names.
func (r *Registry) Countries() []string {
	names := make([]string, len(r.jurisdictions))
	for i, j := range r.jurisdictions {
		names[i] = j.Name
	}
	return names
}

// Resolve finds the single jurisdiction matching country. Exact name or code
// matches win; otherwise a case-insensitive substring of the name must
// identify exactly one jurisdiction.
func (r *Registry) Resolve(country string) (Jurisdiction, error) {
	key := strings.ToLower(strings.TrimSpace(country))
	if key == "" {
		return Jurisdiction{}, apperrors.NewUnrecognizedReferenceError(country, nil)
	}

	for _, j := range r.jurisdictions {
		if strings.ToLower(j.Name) == key || strings.ToLower(j.Code) == key {
			return j, nil
		}
	}

	var matches []Jurisdiction
	var names []string
	for _, j := range r.jurisdictions {
		if strings.Contains(strings.ToLower(j.Name), key) {
			matches = append(matches, j)
			names = append(names, j.Name)
		}
	}
	if len(matches) != 1 {
		return Jurisdiction{}, apperrors.NewUnrecognizedReferenceError(country, names)
	}
	return matches[0], nil
}

// Holidays implements Calendar. Holidays falling on the same date keep the
// rule order of the jurisdiction.
func (r *Registry) Holidays(ctx context.Context, country string, year int) ([]Holiday, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j, err := r.Resolve(country)
	if err != nil {
		return nil, err
	}

	out := make([]Holiday, 0, len(j.Rules))
	for _, rule := range j.Rules {
		actual, _ := rule.Calc(year)
		if actual.IsZero() {
			continue
		}
		out = append(out, Holiday{Date: domain.Midnight(actual), Name: rule.Name})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date) })
	return out, nil
}

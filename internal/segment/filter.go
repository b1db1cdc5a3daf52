// Package segment implements audience segmentation, fan search, and segment
// export over the normalized fan table. Everything here is a pure function
// of its inputs; the table itself is never mutated.
package segment

import (
	"strings"

	"fan-insights/internal/domain"
)

// Filter is one segmentation predicate. An empty set on any dimension means
// "no restriction on that dimension", matching the empty multi-select
// convention of the dashboard; it never means "match nothing". A nil age
// bound leaves that end of the range open; records with missing age are
// excluded only when at least one age bound is set.
type Filter struct {
	Clubs         []string
	Sexes         []string
	Nationalities []string
	AgeMin        *int
	AgeMax        *int
}

// AgeBounded reports whether the filter restricts by age at all.
func (f Filter) AgeBounded() bool {
	return f.AgeMin != nil || f.AgeMax != nil
}

// Apply returns the subset of table matching every set dimension of f,
// preserving source order.
func Apply(table []domain.FanRecord, f Filter) []domain.FanRecord {
	clubs := toSet(f.Clubs)
	sexes := toSet(f.Sexes)
	nationalities := toSet(f.Nationalities)

	var out []domain.FanRecord
	for _, rec := range table {
		if !matchesSet(clubs, rec.Club) {
			continue
		}
		if !matchesSet(sexes, rec.Sex) {
			continue
		}
		if !matchesSet(nationalities, rec.Nationality) {
			continue
		}
		if f.AgeBounded() {
			if !rec.HasAge() {
				continue
			}
			if f.AgeMin != nil && *rec.Age < *f.AgeMin {
				continue
			}
			if f.AgeMax != nil && *rec.Age > *f.AgeMax {
				continue
			}
		}
		out = append(out, rec)
	}
	return out
}

// UniqueEmails is the view-level transform used before export and for the
// copy-paste list: first-seen order, duplicates and empty emails removed.
func UniqueEmails(records []domain.FanRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, rec := range records {
		if rec.Email == "" {
			continue
		}
		if _, dup := seen[rec.Email]; dup {
			continue
		}
		seen[rec.Email] = struct{}{}
		out = append(out, rec.Email)
	}
	return out
}

func toSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			set[v] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}

// matchesSet treats a nil set as "no restriction".
func matchesSet(set map[string]struct{}, value string) bool {
	if set == nil {
		return true
	}
	_, ok := set[value]
	return ok
}

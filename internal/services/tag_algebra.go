package services

import "alert-center/internal/models"

// TagAlgebra evaluates AdvancedTag {all, any} inclusion/exclusion
// against an alert's tag set. Ported from the postgres CTE in
// original_source/alerta/database/backends/postgres/base.py's
// get_notification_rules_active: the "e_all"/"e_any" exclusion
// formula is reproduced exactly by Excludes below.
type TagAlgebra struct{}

func tagSet(tags []string) map[string]struct{} {
	s := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func subsetOf(small []string, big map[string]struct{}) bool {
	for _, t := range small {
		if _, ok := big[t]; !ok {
			return false
		}
	}
	return true
}

func intersects(small []string, big map[string]struct{}) bool {
	for _, t := range small {
		if _, ok := big[t]; ok {
			return true
		}
	}
	return false
}

// Includes implements includes(t, T) := (t.all ⊆ T) ∧ (t.any = ∅ ∨
// t.any ∩ T ≠ ∅).
func (TagAlgebra) Includes(t models.AdvancedTag, T []string) bool {
	set := tagSet(T)
	if !subsetOf(t.All, set) {
		return false
	}
	if len(t.Any) == 0 {
		return true
	}
	return intersects(t.Any, set)
}

// Excludes implements excludes(t, T) := ¬(t.all = ∅ ∧ t.any = ∅) ∧
// ((t.all = ∅ ∧ t.any ∩ T ≠ ∅) ∨ (t.any = ∅ ∧ t.all ⊆ T) ∨
// (t.all ⊆ T ∧ t.any ∩ T ≠ ∅)).
func (TagAlgebra) Excludes(t models.AdvancedTag, T []string) bool {
	if len(t.All) == 0 && len(t.Any) == 0 {
		return false
	}
	set := tagSet(T)
	allEmpty := len(t.All) == 0
	anyEmpty := len(t.Any) == 0
	switch {
	case allEmpty && !anyEmpty:
		return intersects(t.Any, set)
	case anyEmpty && !allEmpty:
		return subsetOf(t.All, set)
	default:
		return subsetOf(t.All, set) && intersects(t.Any, set)
	}
}

// IncludesAny is the disjunction over a rule's tags list: an empty
// list is always-include, else ANY entry matching passes.
func (ta TagAlgebra) IncludesAny(tags []models.AdvancedTag, T []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if ta.Includes(t, T) {
			return true
		}
	}
	return false
}

// ExcludesAny is the disjunction over a rule's excluded_tags list: an
// empty list is never-exclude, else ANY entry matching rejects.
func (ta TagAlgebra) ExcludesAny(excluded []models.AdvancedTag, T []string) bool {
	for _, t := range excluded {
		if ta.Excludes(t, T) {
			return true
		}
	}
	return false
}

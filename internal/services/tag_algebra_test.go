package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"alert-center/internal/models"
)

// P8: tag-algebra inclusion/exclusion predicates.
func TestTagAlgebra_Includes(t *testing.T) {
	ta := TagAlgebra{}

	cases := []struct {
		name string
		tag  models.AdvancedTag
		tags []string
		want bool
	}{
		{"empty predicate always includes", models.AdvancedTag{}, []string{"a"}, true},
		{"all subset satisfied", models.AdvancedTag{All: []string{"a", "b"}}, []string{"a", "b", "c"}, true},
		{"all subset missing member", models.AdvancedTag{All: []string{"a", "z"}}, []string{"a", "b"}, false},
		{"any intersects", models.AdvancedTag{Any: []string{"x", "y"}}, []string{"y"}, true},
		{"any misses", models.AdvancedTag{Any: []string{"x", "y"}}, []string{"z"}, false},
		{"all and any both required", models.AdvancedTag{All: []string{"a"}, Any: []string{"x", "y"}}, []string{"a", "y"}, true},
		{"all satisfied but any misses", models.AdvancedTag{All: []string{"a"}, Any: []string{"x"}}, []string{"a", "y"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ta.Includes(c.tag, c.tags))
		})
	}
}

func TestTagAlgebra_Excludes(t *testing.T) {
	ta := TagAlgebra{}

	cases := []struct {
		name string
		tag  models.AdvancedTag
		tags []string
		want bool
	}{
		{"empty predicate never excludes", models.AdvancedTag{}, []string{"a"}, false},
		{"any-only intersects excludes", models.AdvancedTag{Any: []string{"x"}}, []string{"x"}, true},
		{"any-only no intersect", models.AdvancedTag{Any: []string{"x"}}, []string{"y"}, false},
		{"all-only subset excludes", models.AdvancedTag{All: []string{"a", "b"}}, []string{"a", "b", "c"}, true},
		{"all-only not subset", models.AdvancedTag{All: []string{"a", "z"}}, []string{"a", "b"}, false},
		{"all and any both satisfied excludes", models.AdvancedTag{All: []string{"a"}, Any: []string{"x"}}, []string{"a", "x"}, true},
		{"all satisfied any not excludes nothing", models.AdvancedTag{All: []string{"a"}, Any: []string{"x"}}, []string{"a", "y"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, ta.Excludes(c.tag, c.tags))
		})
	}
}

func TestTagAlgebra_IncludesAnyExcludesAny(t *testing.T) {
	ta := TagAlgebra{}

	assert.True(t, ta.IncludesAny(nil, []string{"a"}), "empty rule tag list always includes")
	assert.False(t, ta.ExcludesAny(nil, []string{"a"}), "empty excluded_tags never excludes")

	tags := []models.AdvancedTag{
		{All: []string{"z"}}, // does not match
		{Any: []string{"a"}}, // matches
	}
	assert.True(t, ta.IncludesAny(tags, []string{"a"}))

	excluded := []models.AdvancedTag{
		{All: []string{"q"}},
		{Any: []string{"a"}},
	}
	assert.True(t, ta.ExcludesAny(excluded, []string{"a"}))
}

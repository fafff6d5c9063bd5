package tags

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchNilAlwaysTrue(t *testing.T) {
	t.Parallel()
	require.True(t, Match(Set{}, nil))
	require.True(t, Match(NewSet("a"), nil))
}

func TestMatchAllLiteral(t *testing.T) {
	t.Parallel()
	sets := []Set{{}, NewSet("x"), NewSet("a", "b", "c")}
	exprs := []any{
		"all",
		"ALL",
		[]string{"nope", "All"},
		[]any{"nope", Group{"missing", "all"}},
		[]any{[]any{42, "aLL"}},
	}
	for _, s := range sets {
		for _, e := range exprs {
			require.Truef(t, Match(s, e), "set=%v expr=%#v", s, e)
		}
	}
}

func TestMatchFlatIsIntersection(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		set  Set
		expr []string
		want bool
	}{
		{name: "one hit", set: NewSet("a", "z"), expr: []string{"a", "b", "c"}, want: true},
		{name: "case insensitive", set: NewSet("DevOps"), expr: []string{"devops"}, want: true},
		{name: "no hit", set: NewSet("z"), expr: []string{"a", "b", "c"}, want: false},
		{name: "empty set", set: NewSet(), expr: []string{"a"}, want: false},
		{name: "empty expr", set: NewSet("a"), expr: []string{}, want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Match(tt.set, tt.expr))
		})
	}
}

func TestMatchAndGroupIsSubset(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		set  Set
		expr any
		want bool
	}{
		{name: "superset", set: NewSet("a", "b", "c"), expr: []any{Group{"a", "b"}}, want: true},
		{name: "partial", set: NewSet("a"), expr: []any{Group{"a", "b"}}, want: false},
		{name: "string slice group", set: NewSet("a", "b"), expr: []any{[]string{"A", "b"}}, want: true},
		{name: "map group", set: NewSet("a", "b"), expr: []any{map[string]struct{}{"a": {}, "b": {}}}, want: true},
		{name: "bool map group skips false", set: NewSet("a"), expr: []any{map[string]bool{"a": true, "b": false}}, want: true},
		{name: "duplicates collapse", set: NewSet("a"), expr: []any{Group{"a", "A", " a "}}, want: true},
		{name: "or across groups", set: NewSet("x", "y"), expr: []any{Group{"a", "b"}, Group{"x", "y"}}, want: true},
		{name: "token or group", set: NewSet("solo"), expr: []any{Group{"a", "b"}, "solo"}, want: true},
		{name: "bare group", set: NewSet("a", "b"), expr: Group{"a", "b"}, want: true},
		{name: "nested string slices", set: NewSet("mmost", "awesome"), expr: [][]string{{"mmost", "awesome"}}, want: true},
		{name: "nested string slices partial", set: NewSet("mmost"), expr: [][]string{{"mmost", "awesome"}}, want: false},
		{name: "nested string slices or", set: NewSet("z"), expr: [][]string{{"a", "b"}, {"Z"}}, want: true},
		{name: "group slice", set: NewSet("mmost", "awesome"), expr: []Group{{"mmost", "awesome"}}, want: true},
		{name: "group slice with all", set: NewSet(), expr: []Group{{"x", "ALL"}}, want: true},
		{name: "top-level map is or", set: NewSet("b"), expr: map[string]struct{}{"a": {}, "B": {}}, want: true},
		{name: "top-level map miss", set: NewSet("c"), expr: map[string]struct{}{"a": {}, "b": {}}, want: false},
		{name: "top-level bool map is or", set: NewSet("a"), expr: map[string]bool{"a": true, "b": true}, want: true},
		{name: "top-level bool map skips false", set: NewSet("a"), expr: map[string]bool{"a": false}, want: false},
		{name: "top-level set is or", set: NewSet("b"), expr: NewSet("a", "b"), want: true},
		{name: "top-level set with all", set: NewSet(), expr: NewSet("all"), want: true},
		{name: "empty set", set: NewSet("a"), expr: NewSet(), want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Match(tt.set, tt.expr))
		})
	}
}

func TestMatchIgnoresUnusableTokens(t *testing.T) {
	t.Parallel()
	set := NewSet("a", "b")

	// Non-string members never invalidate a group.
	require.True(t, Match(set, []any{[]any{"a", 7, nil, 3.5, "b"}}))
	// Unusable top-level elements are skipped.
	require.True(t, Match(set, []any{12, struct{}{}, "b"}))
	// A group with nothing usable is false for that group only.
	require.False(t, Match(set, []any{[]any{1, 2}}))
	require.True(t, Match(set, []any{[]any{1, 2}, "a"}))
	// Unknown expression shapes never panic.
	require.False(t, Match(set, 42))
	require.False(t, Match(set, map[int]int{1: 1}))
}

func TestMatchScenario(t *testing.T) {
	t.Parallel()
	a := NewSet("awesome")
	b := NewSet("mmost", "awesome")

	require.True(t, Match(a, "awesome"))
	require.True(t, Match(b, "awesome"))
	require.False(t, Match(a, "missing"))
	require.False(t, Match(b, "missing"))

	and := []any{Group{"mmost", "awesome"}}
	require.False(t, Match(a, and))
	require.True(t, Match(b, and))
}

func TestParse(t *testing.T) {
	t.Parallel()
	require.Nil(t, Parse())
	require.Nil(t, Parse("", "  "))
	require.Equal(t, []any{"a", Group{"b", "c"}, Group{"d", "e"}}, Parse("a", "b,c", "d e"))
}

func TestSetIsCaseInsensitiveAndSorted(t *testing.T) {
	t.Parallel()
	s := NewSet("Beta", "alpha", " ", "ALPHA")
	require.Equal(t, 2, s.Len())
	require.True(t, s.Has("BETA"))
	require.Equal(t, []string{"alpha", "beta"}, s.Slice())
	require.Equal(t, "alpha,beta", s.String())
}

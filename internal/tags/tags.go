// Package tags implements target tag sets and the tag expression matcher used
// to select which targets receive a notification.
//
// An expression is an implicit OR of elements. A plain string element matches
// when the target carries that tag; a nested collection element is an AND
// group that matches only when the target carries every tag in it. The literal
// "all" matches every target.
//
//	Match(set, nil)                              // always true
//	Match(set, "devops")                         // devops
//	Match(set, []string{"devops", "sre"})        // devops OR sre
//	Match(set, []any{Group{"devops", "prod"}})   // devops AND prod
package tags

import (
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// All is the expression literal that matches every target.
const All = "all"

// Group is an explicit AND group inside an expression.
type Group []string

// Normalize trims and case-folds a single tag token.
// Returns "" for tokens that carry nothing.
func Normalize(tok string) string {
	tok = strings.TrimSpace(tok)
	if tok == "" {
		return ""
	}
	if isASCII(tok) {
		return strings.ToLower(tok)
	}
	// Casers carry state; never share one between goroutines.
	return cases.Fold().String(tok)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Set is an immutable, case-insensitive set of tags.
// The zero value is an empty set.
type Set struct {
	m map[string]struct{}
}

// NewSet builds a Set from raw tokens. Blank tokens are dropped.
func NewSet(tokens ...string) Set {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if n := Normalize(t); n != "" {
			m[n] = struct{}{}
		}
	}
	return Set{m: m}
}

func (s Set) Len() int { return len(s.m) }

// Has reports whether tok (case-insensitive) is in the set.
func (s Set) Has(tok string) bool {
	if len(s.m) == 0 {
		return false
	}
	_, ok := s.m[Normalize(tok)]
	return ok
}

// ContainsAll reports whether every token is in the set.
// Tokens must already be normalized.
func (s Set) ContainsAll(tokens map[string]struct{}) bool {
	for t := range tokens {
		if _, ok := s.m[t]; !ok {
			return false
		}
	}
	return true
}

// Slice returns the tags as a sorted copy.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s.m))
	for t := range s.m {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

func (s Set) String() string { return strings.Join(s.Slice(), ",") }

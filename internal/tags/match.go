package tags

import (
	"strings"
	"unicode"
)

// Match evaluates expr against the target's tag set.
//
// Accepted shapes:
//   - nil: matches.
//   - string: a single OR token.
//   - []string: OR across tokens.
//   - map[string]struct{}, map[string]bool, Set: OR across the members
//     (false entries of a bool map are skipped).
//   - [][]string, []Group: OR across AND groups.
//   - []any: each element is an OR token (string) or an AND group
//     ([]string, Group, []any, map[string]struct{}, map[string]bool, Set).
//
// Anything else is ignored. Match never panics and has no side effects.
func Match(set Set, expr any) bool {
	switch x := expr.(type) {
	case nil:
		return true
	case string:
		return matchToken(set, x)
	case []string:
		for _, tok := range x {
			if matchToken(set, tok) {
				return true
			}
		}
		return false
	case Group:
		// A bare group is a one-element expression.
		return matchGroup(set, x)
	case map[string]struct{}, map[string]bool, Set:
		for tok := range groupTokens(x) {
			if tok == All || set.Has(tok) {
				return true
			}
		}
		return false
	case [][]string:
		return Match(set, groups(x))
	case []Group:
		return Match(set, groups(x))
	case []any:
		if x == nil {
			return true
		}
		matched := false
		for _, el := range x {
			if s, ok := el.(string); ok {
				if isAll(s) {
					return true
				}
				if !matched && set.Has(s) {
					matched = true
				}
				continue
			}
			// "all" inside any group wins regardless of the rest.
			if groupHasAll(el) {
				return true
			}
			if !matched && matchGroup(set, el) {
				matched = true
			}
		}
		return matched
	default:
		return false
	}
}

func groups[G ~[]string](gs []G) []any {
	if gs == nil {
		return nil
	}
	out := make([]any, len(gs))
	for i, g := range gs {
		out[i] = Group(g)
	}
	return out
}

func matchToken(set Set, tok string) bool {
	if isAll(tok) {
		return true
	}
	return set.Has(tok)
}

func isAll(tok string) bool { return strings.EqualFold(strings.TrimSpace(tok), All) }

// matchGroup reports whether set is a superset of the group's usable tokens.
// Groups with no usable token never match.
func matchGroup(set Set, group any) bool {
	toks := groupTokens(group)
	if len(toks) == 0 {
		return false
	}
	if _, ok := toks[All]; ok {
		return true
	}
	return set.ContainsAll(toks)
}

func groupHasAll(group any) bool {
	_, ok := groupTokens(group)[All]
	return ok
}

// groupTokens coerces an AND group into a normalized, deduplicated token set.
// Non-string members are skipped.
func groupTokens(group any) map[string]struct{} {
	out := map[string]struct{}{}
	add := func(tok string) {
		if n := Normalize(tok); n != "" {
			out[n] = struct{}{}
		}
	}
	switch g := group.(type) {
	case []string:
		for _, t := range g {
			add(t)
		}
	case Group:
		for _, t := range g {
			add(t)
		}
	case []any:
		for _, el := range g {
			if s, ok := el.(string); ok {
				add(s)
			}
		}
	case map[string]struct{}:
		for t := range g {
			add(t)
		}
	case map[string]bool:
		for t, on := range g {
			if on {
				add(t)
			}
		}
	case Set:
		for t := range g.m {
			out[t] = struct{}{}
		}
	}
	return out
}

// Parse turns command-line or config style tag arguments into an expression.
// Each argument is one OR element; an argument containing commas or spaces
// becomes an AND group of its parts. No arguments yields nil (match all).
func Parse(args ...string) []any {
	var out []any
	for _, a := range args {
		parts := strings.FieldsFunc(a, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
		switch len(parts) {
		case 0:
			continue
		case 1:
			out = append(out, parts[0])
		default:
			out = append(out, Group(parts))
		}
	}
	return out
}

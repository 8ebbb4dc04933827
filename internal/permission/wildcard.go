package permission

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/actingweb/actingweb-sub001/pkg/types"
)

// MatchName reports whether an event name matches a rule pattern.
// Patterns are doublestar globs, so property paths can be matched with
// "settings/**" and method families with "admin_*". The wildcard "*"
// matches any single-segment name; "**" matches everything.
// An invalid pattern never matches.
func MatchName(pattern, name string) bool {
	if pattern == "" {
		return false
	}
	if pattern == "**" || pattern == name {
		return true
	}
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}

// matchCategory treats an empty rule category and "*" as any.
func matchCategory(rule string, c types.Category) bool {
	return rule == "" || rule == types.Wildcard || types.Category(rule) == c
}

// matchAny reports whether value matches one of the patterns.
// An empty pattern list matches anything.
func matchAny(patterns []string, value string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if p == types.Wildcard || MatchName(p, value) {
			return true
		}
	}
	return false
}

// ValidatePattern reports whether pattern is a usable rule pattern.
func ValidatePattern(pattern string) bool {
	return pattern != "" && doublestar.ValidatePattern(pattern)
}

package pipeline

import (
	"regexp"
	"strings"
)

// Exclusions lists paths that bypass protection entirely.
type Exclusions struct {
	prefixes []string
	patterns []*regexp.Regexp
}

func NewExclusions(prefixes []string, patterns []*regexp.Regexp) *Exclusions {
	return &Exclusions{prefixes: prefixes, patterns: patterns}
}

// Match reports whether path starts with an excluded prefix or matches an
// excluded pattern.
func (e *Exclusions) Match(path string) bool {
	if e == nil {
		return false
	}
	for _, p := range e.prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	for _, re := range e.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

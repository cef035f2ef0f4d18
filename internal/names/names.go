// Package names normalizes figure names for uniqueness checks.
package names

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// bracketSet holds bracket and symbol characters removed before comparing names
// in addition to every Unicode punctuation and space character.
const bracketSet = "（）()［］[]｛｝{}「」『』〈〉《》【】＜＞<>〈〉"

// Normalize reduces a name to the form used for equality checks.
// The result is never stored or displayed.
func Normalize(name string) string {
	s := norm.NFKC.String(name)
	// Casers are stateful, so each call gets its own.
	s = cases.Fold().String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || strings.ContainsRune(bracketSet, r) {
			return -1
		}
		return r
	}, s)
}

// Equal reports whether two names collide after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Set is a set of normalized names.
type Set map[string]string

// NewSet normalizes names into a set, remembering the first spelling of each.
func NewSet(list ...string) Set {
	s := make(Set, len(list))
	for _, n := range list {
		s.Add(n)
	}
	return s
}

// Add inserts a name.
func (s Set) Add(name string) {
	key := Normalize(name)
	if key == "" {
		return
	}
	if _, ok := s[key]; !ok {
		s[key] = name
	}
}

// Match returns the stored spelling colliding with name, if any.
func (s Set) Match(name string) (string, bool) {
	existing, ok := s[Normalize(name)]
	return existing, ok
}

// Package teams cleans up the optional team labels attached to a match.
package teams

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Key lowercases, strips diacritics, collapses whitespace, then resolves
// through the alias map. Two labels naming the same side share a key.
func Key(s string, aliases map[string]string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(stripDiacritics(s))
	s = collapseWhitespace(s)
	if canonical, ok := aliases[s]; ok {
		return canonical
	}
	return s
}

// Display tidies a label for printing without changing its case. An empty
// label falls back to def.
func Display(s, def string) string {
	s = collapseWhitespace(norm.NFC.String(s))
	if s == "" {
		return def
	}
	return s
}

func stripDiacritics(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range norm.NFD.String(s) {
		if !unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

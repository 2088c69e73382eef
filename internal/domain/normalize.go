package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// NormalizeHumanName trims leading/trailing whitespace and collapses internal whitespace runs.
func NormalizeHumanName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsInvisible reports whether r is a zero-width or formatting artifact that chat
// apps leave behind when text is copied: zero-width space/non-joiner/joiner,
// word joiner, byte order mark and soft hyphen.
func IsInvisible(r rune) bool {
	switch r {
	case '\u200B', '\u200C', '\u200D', '\u2060', '\uFEFF', '\u00AD':
		return true
	}
	return false
}

// IsSeparator reports whether r may precede a list number: any whitespace,
// invisible artifact, or other Unicode format character.
func IsSeparator(r rune) bool {
	return unicode.IsSpace(r) || IsInvisible(r) || unicode.Is(unicode.Cf, r)
}

// StripInvisible removes every IsInvisible rune from s.
func StripInvisible(s string) string {
	out, _, err := transform.String(runes.Remove(runes.Predicate(IsInvisible)), s)
	if err != nil {
		return s
	}
	return out
}

// TrimSpace trims whitespace and byte order marks from both ends of s.
func TrimSpace(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

var displayable = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0020, Hi: 0x007E, Stride: 1},
		{Lo: 0x00C0, Hi: 0x024F, Stride: 1},
		{Lo: 0x1E00, Hi: 0x1EFF, Stride: 1},
	},
}

// DisplayName renders a stored name for presentation: characters outside
// printable ASCII and the Latin letter blocks are dropped, the first letter of
// each space-separated word is upper-cased and the rest lower-cased, and words
// are joined by single spaces. "jessica WILLIAMS" becomes "Jessica Williams";
// "mary-jane" becomes "Mary-jane".
func DisplayName(name string) string {
	keep := runes.Remove(runes.NotIn(displayable))
	upper := cases.Upper(language.Und)
	lower := cases.Lower(language.Und)

	words := strings.Split(TrimSpace(name), " ")
	out := make([]string, 0, len(words))
	for _, w := range words {
		w, _, err := transform.String(keep, w)
		if err != nil || w == "" {
			continue
		}
		_, size := utf8.DecodeRuneInString(w)
		out = append(out, upper.String(w[:size])+lower.String(w[size:]))
	}
	return strings.Join(out, " ")
}

package parser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/simplimarked/signup-api/internal/domain"
)

// SkipReason explains why a line after the title produced no participant.
// Skipped lines are never errors.
type SkipReason string

const (
	SkipNone       SkipReason = ""
	SkipCapacity   SkipReason = "capacity note"
	SkipWaitlist   SkipReason = "waitlist"
	SkipTooShort   SkipReason = "too short"
	SkipUnnumbered SkipReason = "unnumbered"
	SkipEmptyName  SkipReason = "empty name"
)

// Entry is a participant line after numbering and marker extraction.
type Entry struct {
	Seq        string
	Name       string
	Membership domain.MembershipType
}

type skipRule struct {
	reason SkipReason
	match  func(line string) bool
}

// Evaluated in order; the first match wins.
var skipRules = []skipRule{
	{SkipCapacity, containsFold("maximum")},
	{SkipWaitlist, containsFold("waitlist")},
	{SkipTooShort, func(line string) bool { return utf8.RuneCountInString(line) < 2 }},
}

func containsFold(word string) func(string) bool {
	return func(line string) bool {
		return strings.Contains(strings.ToLower(line), word)
	}
}

type markerRule struct {
	membership domain.MembershipType
	pattern    *regexp.Regexp
}

// "(M)*" must be tried before "(M)": the member pattern also matches inside the
// converting marker.
var markerRules = []markerRule{
	{domain.MembershipConverting, regexp.MustCompile(`(?i)\(\s*m\s*\)\s*\*`)},
	{domain.MembershipMember, regexp.MustCompile(`(?i)\(\s*m\s*\)`)},
}

// ClassifyLine applies the skip rules, the numbering requirement and the
// membership markers to one trimmed, non-blank line.
func ClassifyLine(line string) (Entry, SkipReason) {
	for _, r := range skipRules {
		if r.match(line) {
			return Entry{}, r.reason
		}
	}

	seq, rest, ok := splitNumbering(line)
	if !ok {
		return Entry{}, SkipUnnumbered
	}

	membership, rest := extractMembership(domain.StripInvisible(rest))
	name := domain.TrimSpace(rest)
	if name == "" {
		return Entry{}, SkipEmptyName
	}
	return Entry{Seq: seq, Name: name, Membership: membership}, SkipNone
}

// splitNumbering matches: separators, one or more ASCII digits, an optional
// period, optional whitespace, then the remainder.
func splitNumbering(line string) (seq string, rest string, ok bool) {
	s := strings.TrimLeftFunc(line, domain.IsSeparator)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return "", "", false
	}
	rest = strings.TrimPrefix(s[i:], ".")
	return s[:i], domain.TrimSpace(rest), true
}

func extractMembership(s string) (domain.MembershipType, string) {
	for _, r := range markerRules {
		if r.pattern.MatchString(s) {
			return r.membership, r.pattern.ReplaceAllString(s, "")
		}
	}
	return domain.MembershipDropIn, s
}

var titleMarker = regexp.MustCompile(`(?i)^[\s*_~]*(.*?sign-?up)`)

// ExtractTitle returns the sheet label from the first line: the text up to and
// including "Signup"/"Sign-up" without leading emphasis, or the whole line with
// asterisks removed and underscore or tilde emphasis trimmed from its ends.
func ExtractTitle(line string) string {
	line = domain.StripInvisible(line)
	if m := titleMarker.FindStringSubmatch(line); m != nil {
		return domain.TrimSpace(m[1])
	}
	line = strings.ReplaceAll(line, "*", "")
	return strings.TrimFunc(line, func(r rune) bool {
		return r == '_' || r == '~' || unicode.IsSpace(r) || r == '\uFEFF'
	})
}

package domain

import "testing"

func TestStripInvisible(t *testing.T) {
	t.Parallel()

	in := "\u200Bsa\u00ADrah\u200C\u200D\u2060\uFEFF"
	if got := StripInvisible(in); got != "sarah" {
		t.Fatalf("StripInvisible=%q", got)
	}
	if got := StripInvisible("Zoë Ng"); got != "Zoë Ng" {
		t.Fatalf("StripInvisible changed visible text: %q", got)
	}
}

func TestTrimSpace_RemovesBOMAndNBSP(t *testing.T) {
	t.Parallel()

	if got := TrimSpace("\uFEFF\u00A0 1. Ryan \t\r"); got != "1. Ryan" {
		t.Fatalf("TrimSpace=%q", got)
	}
}

func TestIsSeparator(t *testing.T) {
	t.Parallel()

	for _, r := range []rune{' ', '\t', '\u00A0', '\u2060', '\u200B', '\u200E'} {
		if !IsSeparator(r) {
			t.Fatalf("IsSeparator(%U)=false", r)
		}
	}
	for _, r := range []rune{'1', 'a', '.', '*'} {
		if IsSeparator(r) {
			t.Fatalf("IsSeparator(%q)=true", r)
		}
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"jessica WILLIAMS":      "Jessica Williams",
		"  olivia   m ":         "Olivia M",
		"\u00E9mile\u200B zola": "\u00C9mile Zola",
		"ryan \U0001F3D0":       "Ryan",
		"mary-jane":             "Mary-jane",
		"o'BRIEN":               "O'brien",
		"":                      "",
	}
	for in, want := range cases {
		if got := DisplayName(in); got != want {
			t.Fatalf("DisplayName(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestNormalizeHumanName(t *testing.T) {
	t.Parallel()

	if got := NormalizeHumanName("  Alice   Smith "); got != "Alice Smith" {
		t.Fatalf("NormalizeHumanName=%q", got)
	}
}

func TestActorOrDefault(t *testing.T) {
	t.Parallel()

	if got := ActorOrDefault("  "); got != DefaultActor {
		t.Fatalf("ActorOrDefault(blank)=%q", got)
	}
	if got := ActorOrDefault(" Dana "); got != "Dana" {
		t.Fatalf("ActorOrDefault=%q", got)
	}
}

package actions

import "testing"

func TestInferProduct_Patterns(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"Shower with Hibiclens before bed", "Hibiclens"},
		{"Wash using CHG wipes, then dry off", "CHG wipes"},
		{"Apply Sage Cloth after showering", "Sage Cloth"},
		{"Use antibacterial soap; rinse thoroughly", "antibacterial soap"},
		{"Take a regular shower the evening before", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := InferProduct(tc.text); got != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.text, tc.want, got)
		}
	}
}

func TestInferProduct_VocabularyFallback(t *testing.T) {
	// No using/use/with/apply phrasing, but a known product is named.
	got := InferProduct("Scrub skin well. Chlorhexidine is recommended.")
	if got != "Chlorhexidine" {
		t.Errorf("expected title-cased vocabulary match, got %q", got)
	}

	got = InferProduct("rinse thoroughly every evening")
	if got != "" {
		t.Errorf("expected no match, got %q", got)
	}
}

func TestInferProduct_ShortestCandidateWins(t *testing.T) {
	// Both patterns match; the shorter captured name is preferred.
	got := InferProduct("Use antibacterial wash and apply lotion, then rest")
	if got != "lotion" {
		t.Errorf("expected shortest candidate, got %q", got)
	}
}

func TestStripMarkup(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"  spaced   out  ", "spaced out"},
		{"<b>Stop</b> taking <i>aspirin</i>", "Stop taking aspirin"},
		{"<p>No food</p><p>after midnight</p>", "No food after midnight"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := StripMarkup(tc.in); got != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

package timephrase

import (
	"testing"
	"time"
)

func TestParseAnchor_DateAndTime(t *testing.T) {
	anchor, ok := ParseAnchor("2025-03-10", "08:00")
	if !ok {
		t.Fatal("expected anchor to parse")
	}
	want := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if !anchor.Equal(want) {
		t.Errorf("expected %v, got %v", want, anchor)
	}
}

func TestParseAnchor_DateOnlyAnchorsAtMidnight(t *testing.T) {
	anchor, ok := ParseAnchor("2025-03-10", "")
	if !ok {
		t.Fatal("expected anchor to parse")
	}
	if anchor.Hour() != 0 || anchor.Minute() != 0 {
		t.Errorf("expected midnight anchor, got %v", anchor)
	}
}

func TestParseAnchor_Malformed(t *testing.T) {
	if _, ok := ParseAnchor("", "08:00"); ok {
		t.Error("expected missing date to fail")
	}
	if _, ok := ParseAnchor("03/10/2025", ""); ok {
		t.Error("expected non-ISO date to fail")
	}
	if _, ok := ParseAnchor("2025-03-10", "8am"); ok {
		t.Error("expected malformed time to fail")
	}
}

func TestResolve_RelativePhrases(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	cases := []struct {
		phrase string
		want   time.Time
	}{
		{"5 days before surgery", time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)},
		{"five days before surgery", time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC)},
		{"Stop 2 days prior to procedure", time.Date(2025, 3, 8, 8, 0, 0, 0, time.UTC)},
		{"twenty-one days before", time.Date(2025, 2, 17, 8, 0, 0, 0, time.UTC)},
		{"6 hours before surgery", time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)},
		{"two hrs prior", time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)},
		{"the night before surgery", time.Date(2025, 3, 9, 21, 0, 0, 0, time.UTC)},
		{"morning of surgery", time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)},
		{"nothing after midnight", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"day of procedure", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := Resolve(anchor, tc.phrase)
		if !ok {
			t.Errorf("%q: expected resolution", tc.phrase)
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("%q: expected %v, got %v", tc.phrase, tc.want, got)
		}
	}
}

func TestResolve_DaysTakesPrecedenceOverHours(t *testing.T) {
	// A phrase mentioning both resolves on the day rule first.
	anchor := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	got, ok := Resolve(anchor, "3 days before surgery, ideally 12 hours before eating")
	if !ok {
		t.Fatal("expected resolution")
	}
	want := time.Date(2025, 3, 7, 8, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestResolve_Unresolvable(t *testing.T) {
	anchor := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	for _, phrase := range []string{"", "   ", "continue", "when convenient", "several days before"} {
		if _, ok := Resolve(anchor, phrase); ok {
			t.Errorf("%q: expected no resolution", phrase)
		}
	}
}

func TestResolve_ZeroAnchor(t *testing.T) {
	if _, ok := Resolve(time.Time{}, "5 days before"); ok {
		t.Error("expected zero anchor to fail")
	}
}

func TestIsNoChange(t *testing.T) {
	for _, phrase := range []string{"continue", "Continue", " as usual ", "no change"} {
		if !IsNoChange(phrase) {
			t.Errorf("%q: expected no-change", phrase)
		}
	}
	for _, phrase := range []string{"", "stop", "continue until surgery"} {
		if IsNoChange(phrase) {
			t.Errorf("%q: expected not no-change", phrase)
		}
	}
}

func TestParseNumber_Compounds(t *testing.T) {
	cases := map[string]int{
		"7":           7,
		"fourteen":    14,
		"twenty-one":  21,
		"thirty-five": 35,
	}
	for token, want := range cases {
		got, ok := parseNumber(token)
		if !ok || got != want {
			t.Errorf("%q: expected %d, got %d (ok=%v)", token, want, got, ok)
		}
	}
	if _, ok := parseNumber("several"); ok {
		t.Error("expected unknown word to fail")
	}
	if _, ok := parseNumber("twenty-banana"); ok {
		t.Error("expected bad compound to fail")
	}
}

// Package timephrase converts relative perioperative time phrases
// ("5 days before surgery", "night before") into absolute datetimes
// anchored to the surgery date.
package timephrase

import (
	"regexp"
	"strings"
	"time"
)

var numberWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
	"eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18,
	"nineteen": 19, "twenty": 20, "thirty": 30, "forty": 40,
	"fifty": 50, "sixty": 60,
}

var (
	daysBeforeRe  = regexp.MustCompile(`(\d+|[a-zA-Z-]+)\s+days?\s+(before|prior)`)
	hoursBeforeRe = regexp.MustCompile(`(\d+|[a-zA-Z-]+)\s+(hours?|hrs?|hr)\s+(before|prior)`)
	digitsRe      = regexp.MustCompile(`^\d+$`)
)

// ParseAnchor parses the surgery anchor from a date string (YYYY-MM-DD,
// required) and an optional time string (HH:MM). A date without a time
// anchors at midnight. ok is false when the date is missing or malformed.
func ParseAnchor(date, timeOfDay string) (time.Time, bool) {
	if date == "" {
		return time.Time{}, false
	}
	if timeOfDay != "" {
		t, err := time.Parse("2006-01-02 15:04", date+" "+timeOfDay)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Resolve converts a relative phrase into an absolute datetime anchored
// to the surgery anchor. ok is false when the phrase is empty, matches
// no rule, or explicitly means "no change" ("continue", "as usual") —
// the caller decides whether that absence means null or unresolved.
func Resolve(anchor time.Time, phrase string) (time.Time, bool) {
	if anchor.IsZero() {
		return time.Time{}, false
	}
	p := strings.ToLower(strings.TrimSpace(phrase))
	if p == "" {
		return time.Time{}, false
	}

	if m := daysBeforeRe.FindStringSubmatch(p); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return anchor.AddDate(0, 0, -n), true
		}
	}
	if m := hoursBeforeRe.FindStringSubmatch(p); m != nil {
		if n, ok := parseNumber(m[1]); ok {
			return anchor.Add(-time.Duration(n) * time.Hour), true
		}
	}
	if strings.Contains(p, "day of procedure") || p == "day of" || p == "day of surgery" {
		return atTime(anchor, 0, 0), true
	}
	if strings.Contains(p, "night before") {
		return atTime(anchor.AddDate(0, 0, -1), 21, 0), true
	}
	if strings.Contains(p, "morning of") {
		return atTime(anchor, 8, 0), true
	}
	if strings.Contains(p, "after midnight") || p == "midnight" {
		return atTime(anchor, 0, 0), true
	}
	return time.Time{}, false
}

// IsNoChange reports whether a phrase explicitly means "no hold
// required" rather than an unresolved phrase.
func IsNoChange(phrase string) bool {
	switch strings.ToLower(strings.TrimSpace(phrase)) {
	case "continue", "as usual", "no change":
		return true
	}
	return false
}

// parseNumber accepts digits, number words, and simple hyphenated
// compounds like "twenty-one".
func parseNumber(token string) (int, bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return 0, false
	}
	if digitsRe.MatchString(token) {
		n := 0
		for _, r := range token {
			n = n*10 + int(r-'0')
		}
		return n, true
	}
	if a, b, found := strings.Cut(token, "-"); found {
		tens, okA := numberWords[a]
		ones, okB := numberWords[b]
		if okA && okB {
			return tens + ones, true
		}
		return 0, false
	}
	n, ok := numberWords[token]
	return n, ok
}

func atTime(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

package actions

import (
	"regexp"
	"strings"
	"unicode"
)

var productPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:using|use|with)\s+([A-Za-z0-9\-\s]{3,80})`),
	regexp.MustCompile(`(?i)apply\s+([A-Za-z0-9\-\s]{3,80})`),
}

// clauseBoundaryRe marks where a captured product name ends.
var clauseBoundaryRe = regexp.MustCompile(`(?i)[.;,\n]|\b(?:before|after|prior|night|morning|evening|day)\b`)

// knownProducts is a small fixed vocabulary of antiseptic bath products
// used when no pattern matches.
var knownProducts = []string{
	"chlorhexidine", "hibiclens", "antibacterial soap", "antibacterial wash",
	"sage cloth", "surgical scrub",
}

// InferProduct extracts a bath product or medication name from
// instruction text: first by pattern (using/use/with/apply <name> up to
// a clause boundary, shortest candidate wins), then by vocabulary
// substring match. Vocabulary hits are title-cased. Empty when nothing
// matches.
func InferProduct(text string) string {
	if text == "" {
		return ""
	}

	var candidates []string
	for _, re := range productPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		raw := m[1]
		if loc := clauseBoundaryRe.FindStringIndex(raw); loc != nil {
			raw = raw[:loc[0]]
		}
		if cleaned := strings.TrimSpace(raw); cleaned != "" {
			candidates = append(candidates, cleaned)
		}
	}

	if len(candidates) == 0 {
		lower := strings.ToLower(text)
		for _, product := range knownProducts {
			if strings.Contains(lower, product) {
				if isAllLower(product) {
					return titleCase(product)
				}
				return product
			}
		}
		return ""
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if len(c) < len(best) {
			best = c
		}
	}
	return best
}

func isAllLower(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

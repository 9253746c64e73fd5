package guideline

import (
	"sort"
	"strings"

	"github.com/perryops/periaudit/internal/layout"
)

// CollectSections gathers the body text following each heading at
// targetLevel, up to the next heading at equal-or-higher level (or the
// document end), concatenating text across page boundaries. The heading
// line itself and the boundary heading line are excluded from the body.
//
// If headings is nil they are first extracted with the given params.
// Returns an empty list when no heading sits at targetLevel.
func CollectSections(doc *layout.Document, headings []Heading, targetLevel int, p Params) []Section {
	if headings == nil {
		headings = ExtractHeadings(doc, p)
	}
	if len(headings) == 0 {
		return nil
	}

	ordered := make([]Heading, len(headings))
	copy(ordered, headings)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Page != ordered[j].Page {
			return ordered[i].Page < ordered[j].Page
		}
		return ordered[i].Top < ordered[j].Top
	})

	lastPage := len(doc.Pages) - 1
	var sections []Section

	for idx, h := range ordered {
		if h.Level != targetLevel {
			continue
		}

		var boundary *Heading
		for fi := idx + 1; fi < len(ordered); fi++ {
			if ordered[fi].Level <= targetLevel {
				boundary = &ordered[fi]
				break
			}
		}

		startPage := h.Page - 1
		if startPage < 0 {
			startPage = 0
		}
		endPage := lastPage
		if boundary != nil {
			endPage = boundary.Page - 1
		}

		var chunks []string
		for pi := startPage; pi <= endPage && pi < len(doc.Pages); pi++ {
			page := doc.Pages[pi]

			top := 0.0
			if pi == startPage {
				top = h.Bottom + 1
			}
			bottom := page.Height
			if boundary != nil && pi == endPage {
				bottom = boundary.Top - 1
			}
			top = clamp(top, 0, page.Height)
			bottom = clamp(bottom, 0, page.Height)
			if bottom <= top {
				continue
			}

			text := page.ClipText(layout.BBox{X0: 0, Top: top, X1: page.Width, Bottom: bottom})
			text = strings.TrimSpace(text)
			if text != "" {
				chunks = append(chunks, text)
			}
		}

		sections = append(sections, Section{
			Heading: h.Text,
			Page:    h.Page,
			Level:   h.Level,
			Content: strings.TrimSpace(strings.Join(chunks, "\n")),
		})
	}
	return sections
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

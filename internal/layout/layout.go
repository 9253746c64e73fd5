package layout

import (
	"sort"
	"strings"
	"unicode/utf8"
)

// Char is one positioned glyph run on a page. Coordinates are top-origin
// (Top grows downward), matching the extraction heuristics.
type Char struct {
	Text     string
	X0, X1   float64
	Top      float64
	Bottom   float64
	FontName string
	Size     float64
}

// Runes returns the number of visible glyphs in the run.
func (c Char) Runes() int {
	return utf8.RuneCountInString(c.Text)
}

// Page holds the decoded glyph stream of one document page.
type Page struct {
	Number int // 1-based
	Width  float64
	Height float64
	Chars  []Char
}

// Document is an opened, fully decoded guideline document.
type Document struct {
	Path  string
	Pages []Page
}

// BBox is a clipping rectangle in top-origin page coordinates.
type BBox struct {
	X0, Top, X1, Bottom float64
}

// ClipText returns the text of all glyph runs whose vertical center falls
// inside the box, reassembled into lines. Leading/trailing whitespace is
// trimmed and internal whitespace normalized per line.
func (p Page) ClipText(box BBox) string {
	var inside []Char
	for _, c := range p.Chars {
		cy := (c.Top + c.Bottom) / 2
		if cy < box.Top || cy > box.Bottom {
			continue
		}
		cx := (c.X0 + c.X1) / 2
		if cx < box.X0 || cx > box.X1 {
			continue
		}
		inside = append(inside, c)
	}
	if len(inside) == 0 {
		return ""
	}

	// Bucket by rounded baseline, then left-to-right within each line.
	const tol = 2.0
	buckets := map[float64][]Char{}
	for _, c := range inside {
		key := roundTo(c.Top, tol)
		buckets[key] = append(buckets[key], c)
	}
	keys := make([]float64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	var lines []string
	for _, k := range keys {
		runs := buckets[k]
		sort.Slice(runs, func(i, j int) bool { return runs[i].X0 < runs[j].X0 })
		var sb strings.Builder
		for i, r := range runs {
			if i > 0 && r.X0-runs[i-1].X1 > r.Size*0.3 {
				sb.WriteByte(' ')
			}
			sb.WriteString(r.Text)
		}
		line := strings.Join(strings.Fields(sb.String()), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func roundTo(v, tol float64) float64 {
	if tol <= 0 {
		return v
	}
	n := int(v/tol + 0.5)
	return float64(n) * tol
}

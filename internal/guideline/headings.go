package guideline

import (
	"sort"
	"strings"

	"github.com/perryops/periaudit/internal/layout"
)

// line is one reassembled visual text line. Ephemeral: built per page
// and discarded once headings are extracted.
type line struct {
	text       string
	yTop       float64
	yBottom    float64
	x0, x1     float64
	sizeAvg    float64
	glyphs     int
	boldGlyphs int
}

func (ln line) boldRatio() float64 {
	if ln.glyphs == 0 {
		return 0
	}
	return float64(ln.boldGlyphs) / float64(ln.glyphs)
}

// ExtractHeadings classifies bold, visually separated lines outside the
// header/footer bands as headings and infers a hierarchy level per
// heading from font-size bands.
//
// Visual separation is applied as a hard filter: a heading must be the
// first line of its page or sit below a gap larger than GapFactor times
// the page's median inter-line gap. This matches the reference behavior
// and keeps bold runs inside body text out of the heading list.
func ExtractHeadings(doc *layout.Document, p Params) []Heading {
	p = p.withDefaults()

	var out []Heading
	for _, page := range doc.Pages {
		lines := buildLines(page, p)
		if len(lines) == 0 {
			continue
		}
		gap := medianGap(lines)

		for i, ln := range lines {
			n := len(ln.text)
			if n < p.MinLen || n > p.MaxLen {
				continue
			}
			if ln.yTop < page.Height*p.HeaderFrac {
				continue
			}
			if ln.yBottom > page.Height*(1-p.FooterFrac) {
				continue
			}
			if ln.boldRatio() < p.BoldThreshold {
				continue
			}
			if i > 0 && gap > 0 && ln.yTop-lines[i-1].yTop < gap*p.GapFactor {
				continue
			}
			out = append(out, Heading{
				Page:     page.Number,
				Text:     ln.text,
				FontSize: ln.sizeAvg,
				X0:       ln.x0,
				Top:      ln.yTop,
				Bottom:   ln.yBottom,
			})
		}
	}

	if len(out) > 0 {
		inferLevels(out, p)
	}
	return dedupAdjacent(out)
}

// buildLines clusters a page's glyph runs into visual lines by rounding
// the baseline to LineTol, then reconstructs each line left-to-right.
func buildLines(page layout.Page, p Params) []line {
	if len(page.Chars) == 0 {
		return nil
	}

	buckets := map[float64][]layout.Char{}
	for _, c := range page.Chars {
		key := roundTo(c.Top, p.LineTol)
		buckets[key] = append(buckets[key], c)
	}
	keys := make([]float64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	var lines []line
	for _, k := range keys {
		runs := buckets[k]
		sort.Slice(runs, func(i, j int) bool { return runs[i].X0 < runs[j].X0 })

		var sb strings.Builder
		ln := line{yTop: runs[0].Top, yBottom: runs[0].Bottom, x0: runs[0].X0, x1: runs[0].X1}
		var sizeSum float64
		for i, r := range runs {
			if i > 0 && r.X0-runs[i-1].X1 > r.Size*0.3 {
				sb.WriteByte(' ')
			}
			sb.WriteString(r.Text)

			if r.Top < ln.yTop {
				ln.yTop = r.Top
			}
			if r.Bottom > ln.yBottom {
				ln.yBottom = r.Bottom
			}
			if r.X0 < ln.x0 {
				ln.x0 = r.X0
			}
			if r.X1 > ln.x1 {
				ln.x1 = r.X1
			}
			g := r.Runes()
			ln.glyphs += g
			sizeSum += r.Size * float64(g)
			if isBoldFont(r.FontName, p.BoldMarkers) {
				ln.boldGlyphs += g
			}
		}
		ln.text = strings.Join(strings.Fields(sb.String()), " ")
		if ln.text == "" {
			continue
		}
		if ln.glyphs > 0 {
			ln.sizeAvg = sizeSum / float64(ln.glyphs)
		}
		lines = append(lines, ln)
	}
	return lines
}

// isBoldFont reports whether a font name carries a bold-style marker.
func isBoldFont(fontname string, markers []string) bool {
	if fontname == "" {
		return false
	}
	f := strings.ToLower(fontname)
	for _, m := range markers {
		if strings.Contains(f, m) {
			return true
		}
	}
	return false
}

// medianGap computes the median positive vertical gap between successive
// line tops on a page.
func medianGap(lines []line) float64 {
	if len(lines) < 2 {
		return 0
	}
	var gaps []float64
	for i := 1; i < len(lines); i++ {
		g := lines[i].yTop - lines[i-1].yTop
		if g > 0 {
			gaps = append(gaps, g)
		}
	}
	if len(gaps) == 0 {
		return 0
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}

// inferLevels assigns each heading a level from distinct font-size bands,
// largest size first. Headings whose size matches no band, or with no
// usable size at all, get the deepest level.
func inferLevels(headings []Heading, p Params) {
	seen := map[float64]bool{}
	var sizes []float64
	for _, h := range headings {
		if h.FontSize > 0 && !seen[h.FontSize] {
			seen[h.FontSize] = true
			sizes = append(sizes, h.FontSize)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(sizes)))

	var bands []float64
	for _, sz := range sizes {
		distinct := true
		for _, b := range bands {
			if abs(sz-b) <= p.BandTol {
				distinct = false
				break
			}
		}
		if distinct {
			bands = append(bands, sz)
		}
		if len(bands) >= p.MaxLevels {
			break
		}
	}

	for i := range headings {
		headings[i].Level = p.MaxLevels
		if headings[i].FontSize <= 0 {
			continue
		}
		for bi, b := range bands {
			if headings[i].FontSize >= b-p.LevelTol {
				headings[i].Level = bi + 1
				break
			}
		}
	}
}

// dedupAdjacent drops immediately adjacent headings with identical
// (page, text), which overlapping glyph runs can produce.
func dedupAdjacent(headings []Heading) []Heading {
	var out []Heading
	for i, h := range headings {
		if i > 0 && out[len(out)-1].Page == h.Page && out[len(out)-1].Text == h.Text {
			continue
		}
		out = append(out, h)
	}
	return out
}

func roundTo(v, tol float64) float64 {
	if tol <= 0 {
		return v
	}
	n := int(v/tol + 0.5)
	return float64(n) * tol
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

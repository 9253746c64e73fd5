package layout

import (
	"fmt"

	pdflib "github.com/ledongthuc/pdf"
)

// Default page geometry when a page carries no MediaBox (US Letter points).
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// Open decodes a PDF into per-page glyph records. Pages whose content
// stream cannot be decoded are kept with an empty char slice so page
// numbering stays stable.
func Open(path string) (*Document, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	doc := &Document{Path: path}
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			doc.Pages = append(doc.Pages, Page{Number: i, Width: defaultPageWidth, Height: defaultPageHeight})
			continue
		}
		width, height := mediaBox(p.V)
		page := Page{Number: i, Width: width, Height: height}

		content := decodeContent(p)
		for _, t := range content {
			if t.S == "" {
				continue
			}
			// ledongthuc/pdf positions runs in bottom-origin user space;
			// flip to top-origin so header/footer bands read naturally.
			page.Chars = append(page.Chars, Char{
				Text:     t.S,
				X0:       t.X,
				X1:       t.X + t.W,
				Top:      height - t.Y - t.FontSize,
				Bottom:   height - t.Y,
				FontName: t.Font,
				Size:     t.FontSize,
			})
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// decodeContent shields the caller from content-stream panics the
// library raises on malformed operators. A bad page yields no chars.
func decodeContent(p pdflib.Page) (texts []pdflib.Text) {
	defer func() {
		if r := recover(); r != nil {
			texts = nil
		}
	}()
	return p.Content().Text
}

// mediaBox resolves the page MediaBox, walking Parent nodes since the
// attribute is inheritable.
func mediaBox(v pdflib.Value) (width, height float64) {
	for depth := 0; depth < 16 && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if !box.IsNull() && box.Len() == 4 {
			x0 := box.Index(0).Float64()
			y0 := box.Index(1).Float64()
			x1 := box.Index(2).Float64()
			y1 := box.Index(3).Float64()
			if x1 > x0 && y1 > y0 {
				return x1 - x0, y1 - y0
			}
		}
		v = v.Key("Parent")
	}
	return defaultPageWidth, defaultPageHeight
}

// PlainText extracts the whole document text, page texts joined by
// newlines. Used on the report side where layout does not matter.
func PlainText(path string) (string, error) {
	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var out string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		p := reader.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += text
	}
	return out, nil
}

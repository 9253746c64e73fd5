package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/perryops/periaudit/internal/layout"
)

// SupportedExtensions lists report document types this service accepts.
// Guideline documents are PDF-only (heading heuristics need glyph
// layout); the report side only needs plain text.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// IsSupportedExtension checks if a report file extension is supported.
func IsSupportedExtension(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ExtractText pulls plain text from report document bytes. Unreadable
// documents return an error; the caller treats that as an input error
// and aborts the affected operation only.
func ExtractText(r io.Reader, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return extractPDFText(r)
	case ".docx":
		return extractDOCXText(r)
	default:
		return "", fmt.Errorf("unsupported report file type: %s", filepath.Ext(filename))
	}
}

func extractPDFText(r io.Reader) (string, error) {
	// The pdf library needs a seekable file, so spool to a temp file.
	tmp, err := os.CreateTemp("", "periaudit-report-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := layout.PlainText(tmpPath)
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no extractable text in pdf")
	}
	return text, nil
}

func extractDOCXText(r io.Reader) (string, error) {
	tmp, err := os.CreateTemp("", "periaudit-report-*.docx")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return "", fmt.Errorf("seek temp file: %w", err)
	}

	doc, err := docx.Parse(tmp, size)
	tmp.Close()
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var sb strings.Builder
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := paragraphText(para)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(text)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("no extractable text in docx")
	}
	return sb.String(), nil
}

func paragraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}

package api

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/perryops/periaudit/internal/guideline"
	"github.com/perryops/periaudit/internal/layout"
)

// handleGuidelinePreview parses an uploaded guideline synchronously and
// returns its detected headings, the nested outline, and the sections
// that would feed a compliance audit at the target level. Intended for
// tuning extraction knobs against a new guideline document.
func (s *Server) handleGuidelinePreview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	data, filename, err := s.readUpload(r, "guideline")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !strings.EqualFold(filepath.Ext(filename), ".pdf") {
		jsonError(w, "guideline must be a PDF document", http.StatusBadRequest)
		return
	}

	targetLevel := s.cfg.SectionTargetLevel
	if v := r.FormValue("level"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			targetLevel = n
		}
	}

	tmp, err := os.CreateTemp("", "periaudit-preview-*.pdf")
	if err != nil {
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		jsonError(w, "failed to stage upload", http.StatusInternalServerError)
		return
	}
	tmp.Close()

	doc, err := layout.Open(tmpPath)
	if err != nil {
		jsonError(w, "failed to parse guideline: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	params := s.cfg.HeadingParams()
	headings := guideline.ExtractHeadings(doc, params)
	sections := guideline.CollectSections(doc, headings, targetLevel, params)

	type sectionSummary struct {
		Heading string `json:"heading"`
		Page    int    `json:"page"`
		Chars   int    `json:"chars"`
	}
	summaries := make([]sectionSummary, 0, len(sections))
	for _, sec := range sections {
		summaries = append(summaries, sectionSummary{
			Heading: sec.Heading,
			Page:    sec.Page,
			Chars:   len(sec.Content),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"filename":     filename,
		"pages":        len(doc.Pages),
		"headings":     headings,
		"outline":      guideline.Tree(headings),
		"target_level": targetLevel,
		"sections":     summaries,
	})
}

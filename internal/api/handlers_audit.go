package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/perryops/periaudit/internal/pipeline"
	"github.com/perryops/periaudit/internal/report"
)

func (s *Server) handleSubmitAudit(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	guidelineData, guidelineName, err := s.readUpload(r, "guideline")
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !strings.EqualFold(filepath.Ext(guidelineName), ".pdf") {
		jsonError(w, "guideline must be a PDF document", http.StatusBadRequest)
		return
	}

	structured, reportText, err := s.readReportInput(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if structured == nil && reportText == "" {
		jsonError(w, "a report is required: upload a report file or pass report_json", http.StatusBadRequest)
		return
	}

	now := time.Now()
	session := &pipeline.Session{
		ID:                uuid.NewString(),
		Status:            pipeline.StatusQueued,
		Phase:             "queued",
		GuidelineFilename: guidelineName,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	session.SetInput(guidelineData, structured, reportText)

	if err := s.orchestrator.Submit(session); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": session.ID,
		"status":     session.Status,
		"poll_url":   fmt.Sprintf("/api/audits/%s/status", session.ID),
	})
}

// readReportInput extracts the surgery-report input from the form.
// Accepts either report_json (already-structured JSON), an uploaded
// .json file, or an uploaded document whose text the pipeline will
// structure via the model gateway.
func (s *Server) readReportInput(r *http.Request) (*report.Structured, string, error) {
	if raw := r.FormValue("report_json"); raw != "" {
		var structured report.Structured
		if err := json.Unmarshal([]byte(raw), &structured); err != nil {
			return nil, "", fmt.Errorf("report_json is not valid JSON: %w", err)
		}
		return &structured, "", nil
	}

	file, header, err := r.FormFile("report")
	if err != nil {
		if err == http.ErrMissingFile {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("report upload: %w", err)
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".json" {
		var structured report.Structured
		if err := json.NewDecoder(io.LimitReader(file, s.cfg.MaxUploadBytes)).Decode(&structured); err != nil {
			return nil, "", fmt.Errorf("report file is not valid JSON: %w", err)
		}
		return &structured, "", nil
	}

	if !report.IsSupportedExtension(filename) {
		return nil, "", fmt.Errorf("unsupported report type: %s", ext)
	}
	text, err := report.ExtractText(io.LimitReader(file, s.cfg.MaxUploadBytes), filename)
	if err != nil {
		return nil, "", fmt.Errorf("extract report text: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, "", fmt.Errorf("report document contains no extractable text")
	}
	return nil, text, nil
}

// readUpload reads a required multipart file field, enforcing the
// upload size limit.
func (s *Server) readUpload(r *http.Request, field string) ([]byte, string, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%s is required: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s", field)
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", fmt.Errorf("%s exceeds max size (%d bytes)", field, s.cfg.MaxUploadBytes)
	}
	return data, sanitizeFilename(header.Filename), nil
}

func (s *Server) handleAuditStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session := s.orchestrator.GetSession(sessionID)
	if session == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(session.Snapshot())
}

func (s *Server) handleAuditResult(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session := s.orchestrator.GetSession(sessionID)
	if session == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	result := session.Result()
	if result == nil {
		snap := session.Snapshot()
		if snap.Status == pipeline.StatusFailed {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			json.NewEncoder(w).Encode(snap)
			return
		}
		jsonError(w, fmt.Sprintf("session not finished (status: %s)", snap.Status), http.StatusConflict)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"session_id": session.ID,
		"status":     session.Snapshot().Status,
		"result":     result,
	})
}

func (s *Server) handleAuditReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session := s.orchestrator.GetSession(sessionID)
	if session == nil {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	result := session.Result()
	if result == nil {
		jsonError(w, "session not finished", http.StatusConflict)
		return
	}
	html, err := renderResultHTML(result)
	if err != nil {
		jsonError(w, "failed to render report: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

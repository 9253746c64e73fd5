package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/perryops/periaudit/internal/actions"
	"github.com/perryops/periaudit/internal/compliance"
	"github.com/perryops/periaudit/internal/config"
	"github.com/perryops/periaudit/internal/guideline"
	"github.com/perryops/periaudit/internal/layout"
	"github.com/perryops/periaudit/internal/model"
	"github.com/perryops/periaudit/internal/report"
)

// Worker processes a single audit session end to end. Items within a
// session run sequentially; a malformed model response for one item
// cannot corrupt another's result.
type Worker struct {
	remote  model.Gateway // structuring + action generation
	auditGw model.Gateway // compliance auditing
	log     *slog.Logger
	cfg     config.Config
}

func NewWorker(remote, auditGw model.Gateway, log *slog.Logger, cfg config.Config) *Worker {
	return &Worker{remote: remote, auditGw: auditGw, log: log, cfg: cfg}
}

// Process runs the full pipeline for a session: guideline parse,
// optional report structuring, compliance audit, action generation.
// Nothing here is fatal past the affected phase; the worst outcome is a
// partial result plus logged diagnostics.
func (w *Worker) Process(ctx context.Context, session *Session) {
	log := w.log.With("session_id", session.ID)

	// Phase 1: parse the guideline into sections.
	session.SetStatus(StatusParsing, "parsing guideline")
	sections, err := w.parseGuideline(session)
	if err != nil {
		log.Error("guideline parse failed", "error", err)
		session.AddError(fmt.Sprintf("parse: %s", err))
		session.SetStatus(StatusFailed, "parsing guideline")
		return
	}
	log.Info("guideline parsed", "sections", len(sections))

	// Phase 2: structure the report if only raw text was supplied.
	structured := session.structured
	if structured == nil && session.reportText != "" {
		session.SetStatus(StatusStructuring, "structuring report")
		structured, err = report.Structure(ctx, w.remote, session.reportText, log)
		if err != nil {
			var retryable *model.RetryableError
			log.Error("report structuring failed", "error", err, "retryable", errors.As(err, &retryable))
			session.AddError(fmt.Sprintf("structure: %s", err))
			session.SetStatus(StatusFailed, "structuring report")
			return
		}
	}
	if structured == nil {
		session.AddError("no structured report data")
		session.SetStatus(StatusFailed, "structuring report")
		return
	}

	result := &Result{
		PatientInfo:    structured.PatientInfo,
		SurgeryDetails: structured.SurgeryDetails,
		SectionCount:   len(sections),
	}
	partial := false

	// Phase 3: compliance audit.
	session.SetStatus(StatusAuditing, "auditing compliance")
	if len(sections) == 0 {
		log.Warn("no guideline sections at target level, skipping compliance audit")
		session.AddError("no guideline sections found")
		partial = true
	} else {
		auditor := compliance.NewAuditor(w.auditGw, log, w.cfg.SectionMaxChars)
		result.ComplianceReport = auditor.Audit(ctx, structured, sections)
		if result.ComplianceReport != nil {
			log.Info("compliance audit complete", "summary", result.ComplianceReport.ComplianceSummary)
		}
	}

	// Phase 4: patient-facing actions.
	session.SetStatus(StatusGenerating, "generating actions")
	gen := actions.NewGenerator(w.remote, log)
	result.Actions = gen.Generate(ctx, structured)
	log.Info("actions generated", "count", len(result.Actions))

	session.SetResult(result)
	if partial {
		session.SetStatus(StatusPartial, "done")
	} else {
		session.SetStatus(StatusCompleted, "done")
	}
}

// parseGuideline spools the uploaded guideline to a temp file, decodes
// its layout, and collects sections at the configured target level.
func (w *Worker) parseGuideline(session *Session) ([]guideline.Section, error) {
	if len(session.guidelineData) == 0 {
		return nil, fmt.Errorf("no guideline document")
	}
	if !strings.HasSuffix(strings.ToLower(session.GuidelineFilename), ".pdf") {
		return nil, fmt.Errorf("guideline must be a PDF document")
	}

	tmp, err := os.CreateTemp("", "periaudit-guideline-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(session.guidelineData); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	doc, err := layout.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open guideline: %w", err)
	}

	params := w.cfg.HeadingParams()
	headings := guideline.ExtractHeadings(doc, params)
	return guideline.CollectSections(doc, headings, w.cfg.SectionTargetLevel, params), nil
}

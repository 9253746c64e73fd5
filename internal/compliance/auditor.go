// Package compliance audits structured perioperative instructions
// against guideline sections via iterative model calls.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/perryops/periaudit/internal/guideline"
	"github.com/perryops/periaudit/internal/model"
	"github.com/perryops/periaudit/internal/report"
)

// Issue is one flagged non-compliance. OldEntry is the verbatim original
// entry and SuggestedEntry the complete corrected entry in the same shape.
type Issue struct {
	ItemType         string `json:"item_type"`
	Name             string `json:"name"`
	Issue            string `json:"issue,omitempty"`
	SuggestedEntry   any    `json:"suggested_entry"`
	Explanation      string `json:"explanation"`
	OldEntry         any    `json:"old_entry"`
	GuidelineHeading string `json:"guideline_heading,omitempty"`
	GuidelinePage    int    `json:"guideline_page,omitempty"`
}

// Report is the outcome of one audit run.
type Report struct {
	ComplianceSummary string  `json:"compliance_summary"`
	FlaggedItems      []Issue `json:"flagged_items"`
}

// DefaultMaxSectionChars bounds how much of a section body goes into an
// audit prompt.
const DefaultMaxSectionChars = 2000

// Auditor runs the per-item selection/audit loop against one gateway.
type Auditor struct {
	gw              model.Gateway
	log             *slog.Logger
	maxSectionChars int
}

func NewAuditor(gw model.Gateway, log *slog.Logger, maxSectionChars int) *Auditor {
	if log == nil {
		log = slog.Default()
	}
	if maxSectionChars <= 0 {
		maxSectionChars = DefaultMaxSectionChars
	}
	return &Auditor{gw: gw, log: log, maxSectionChars: maxSectionChars}
}

// Audit checks every item in the structured report against the guideline
// sections. Items are processed independently and sequentially; a failed
// or unusable model call skips that item, never the run. Returns nil
// only when inputs are missing.
func (a *Auditor) Audit(ctx context.Context, structured *report.Structured, sections []guideline.Section) *Report {
	if structured == nil || len(sections) == 0 {
		a.log.Warn("compliance audit needs structured data and guideline sections")
		return nil
	}

	summary := headingSummary(sections)
	items := BuildItems(structured)
	flagged := []Issue{}

	for _, item := range items {
		log := a.log.With("item_type", item.ItemType, "name", item.Name)

		ids := a.selectHeadings(ctx, item, summary)
		if len(ids) == 0 {
			log.Info("no relevant headings selected, skipping item")
			continue
		}
		selected := resolveSections(ids, sections)
		if len(selected) == 0 {
			log.Info("selected heading ids resolved to no sections, skipping item")
			continue
		}
		log.Info("headings selected", "ids", ids)

		issues := a.auditItem(ctx, item, selected)
		for _, issue := range issues {
			issue.ItemType = item.ItemType
			issue.Name = item.Name
			issue.OldEntry = item.Details
			if issue.GuidelineHeading == "" {
				issue.GuidelineHeading = selected[0].Heading
			}
			if issue.GuidelinePage == 0 {
				issue.GuidelinePage = selected[0].Page
			}
			flagged = append(flagged, issue)
		}
	}

	return &Report{
		ComplianceSummary: fmt.Sprintf("Processed %d items; flagged %d potential issues.", len(items), len(flagged)),
		FlaggedItems:      flagged,
	}
}

var selectionSchema = map[string]any{
	"type":     "object",
	"required": []any{"selected_heading_ids"},
	"properties": map[string]any{
		"selected_heading_ids": map[string]any{"type": "array"},
	},
}

// selectHeadings asks the model which heading IDs matter for this item.
// Any protocol failure yields an empty list.
func (a *Auditor) selectHeadings(ctx context.Context, item Item, summary string) []string {
	raw, err := a.gw.Generate(ctx, model.Request{
		Prompt:      buildSelectionPrompt(item, summary),
		MaxTokens:   512,
		Temperature: 0.1,
		WantJSON:    true,
	})
	if err != nil {
		a.log.Warn("heading selection call failed", "error", err)
		return nil
	}

	b := model.ExtractJSONRaw(raw)
	if b == nil {
		return nil
	}
	if err := model.ValidateJSONAgainstSchema(selectionSchema, b); err != nil {
		a.log.Warn("heading selection response rejected", "error", err)
		return nil
	}

	var parsed struct {
		SelectedHeadingIDs []any `json:"selected_heading_ids"`
	}
	if !model.ExtractJSON(raw, &parsed) {
		return nil
	}

	var ids []string
	for _, entry := range parsed.SelectedHeadingIDs {
		if s, ok := entry.(string); ok && strings.TrimSpace(s) != "" {
			ids = append(ids, strings.TrimSpace(s))
		}
	}
	return ids
}

// resolveSections maps IDs of the form "H<n>" to sections, discarding
// malformed or out-of-range IDs.
func resolveSections(ids []string, sections []guideline.Section) []guideline.Section {
	var out []guideline.Section
	for _, id := range ids {
		if !strings.HasPrefix(id, "H") {
			continue
		}
		n, err := strconv.Atoi(id[1:])
		if err != nil {
			continue
		}
		idx := n - 1
		if idx < 0 || idx >= len(sections) {
			continue
		}
		out = append(out, sections[idx])
	}
	return out
}

var verdictSchema = map[string]any{
	"type":     "object",
	"required": []any{"is_compliant"},
	"properties": map[string]any{
		"is_compliant": map[string]any{"type": []any{"boolean", "string"}},
		"issues":       map[string]any{"type": "array", "items": map[string]any{"type": "object"}},
	},
}

type rawIssue struct {
	Issue            string `json:"issue"`
	SuggestedEntry   any    `json:"suggested_entry"`
	Explanation      string `json:"explanation"`
	GuidelineHeading string `json:"guideline_heading"`
	GuidelinePage    int    `json:"guideline_page"`
}

// auditItem audits one item against the selected sections' content.
// Compliant verdicts, empty issue lists, and unusable responses all
// yield nothing.
func (a *Auditor) auditItem(ctx context.Context, item Item, selected []guideline.Section) []Issue {
	raw, err := a.gw.Generate(ctx, model.Request{
		Prompt:      buildAuditPrompt(item, sectionContent(selected, a.maxSectionChars)),
		MaxTokens:   1024,
		Temperature: 0.1,
		WantJSON:    true,
	})
	if err != nil {
		a.log.Warn("audit call failed", "error", err)
		return nil
	}

	b := model.ExtractJSONRaw(raw)
	if b == nil {
		a.log.Warn("audit response had no usable JSON", "raw_prefix", truncate(raw, 200))
		return nil
	}
	if err := model.ValidateJSONAgainstSchema(verdictSchema, b); err != nil {
		a.log.Warn("audit verdict rejected", "error", err)
		return nil
	}

	var verdict struct {
		IsCompliant any        `json:"is_compliant"`
		Issues      []rawIssue `json:"issues"`
	}
	if !model.ExtractJSON(raw, &verdict) {
		return nil
	}

	if model.BoolFromAny(verdict.IsCompliant) || len(verdict.Issues) == 0 {
		return nil
	}

	var issues []Issue
	for _, ri := range verdict.Issues {
		issues = append(issues, Issue{
			Issue:            ri.Issue,
			SuggestedEntry:   ri.SuggestedEntry,
			Explanation:      ri.Explanation,
			GuidelineHeading: ri.GuidelineHeading,
			GuidelinePage:    ri.GuidelinePage,
		})
	}
	return issues
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

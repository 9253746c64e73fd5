package api

import (
	"strings"
	"testing"

	"github.com/perryops/periaudit/internal/actions"
	"github.com/perryops/periaudit/internal/compliance"
	"github.com/perryops/periaudit/internal/pipeline"
	"github.com/perryops/periaudit/internal/report"
)

func TestRenderResultHTML(t *testing.T) {
	stop := "2025-03-05T08:00:00"
	med := "Warfarin"
	result := &pipeline.Result{
		SurgeryDetails: report.SurgeryDetails{Procedure: "Hip replacement", Date: "2025-03-10", Time: "08:00"},
		Actions: []actions.ActionItem{
			{Task: actions.TaskMedications, StopTime: &stop, Note: "Stop 5 days before surgery.", Medication: &med},
			{Task: actions.TaskFasting, Note: "Keep fasting as directed."},
		},
		ComplianceReport: &compliance.Report{
			ComplianceSummary: "Processed 2 items; flagged 1 potential issues.",
			FlaggedItems: []compliance.Issue{
				{
					ItemType:         compliance.ItemMedication,
					Name:             "Ibuprofen",
					Issue:            "Continues against a hold directive",
					SuggestedEntry:   map[string]any{"medication": "Ibuprofen", "pre_op_action": "Hold 3 days before surgery"},
					Explanation:      "Guideline requires a 3 day hold.",
					OldEntry:         report.Medication{Medication: "Ibuprofen", PreOpAction: "Continue"},
					GuidelineHeading: "Medication Management",
					GuidelinePage:    3,
				},
			},
		},
		SectionCount: 5,
	}

	html, err := renderResultHTML(result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	page := string(html)

	for _, want := range []string{
		"<html>",
		"Hip replacement",
		"Warfarin",
		"2025-03-05T08:00:00",
		"Ibuprofen",
		"Medication Management",
		"Hold 3 days before surgery",
		"<table>",
	} {
		if !strings.Contains(page, want) {
			t.Errorf("expected rendered page to contain %q", want)
		}
	}
}

func TestRenderResultMarkdown_NilCompliance(t *testing.T) {
	md := renderResultMarkdown(&pipeline.Result{})
	if !strings.Contains(md, "Compliance audit was not performed.") {
		t.Errorf("expected audit-skipped marker, got %q", md)
	}
	if !strings.Contains(md, "No actions generated.") {
		t.Errorf("expected empty-actions marker, got %q", md)
	}
}

func TestMDCell_EscapesTableBreakers(t *testing.T) {
	got := mdCell("a|b\nc")
	if got != "a\\|b c" {
		t.Errorf("unexpected escape: %q", got)
	}
}

func TestFormatEntry(t *testing.T) {
	if got := formatEntry(nil); got != "" {
		t.Errorf("nil: expected empty, got %q", got)
	}
	if got := formatEntry("Hold 3 days"); got != "Hold 3 days" {
		t.Errorf("string: expected passthrough, got %q", got)
	}
	got := formatEntry(map[string]any{"pre_op_action": "Hold"})
	if got != `{"pre_op_action":"Hold"}` {
		t.Errorf("map: expected compact JSON, got %q", got)
	}
	got = formatEntry(report.Medication{Medication: "Aspirin", PreOpAction: "Hold"})
	if !strings.Contains(got, `"medication":"Aspirin"`) {
		t.Errorf("struct: expected marshalled entry, got %q", got)
	}
}

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/perryops/periaudit/internal/pipeline"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// renderResultHTML renders a finished audit as a standalone HTML page.
// The markdown intermediate keeps the layout trivially diffable in
// tests and easy to repurpose for email or chat delivery.
func renderResultHTML(result *pipeline.Result) ([]byte, error) {
	md := renderResultMarkdown(result)

	var body bytes.Buffer
	if err := markdown.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("convert markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Pre-Op Audit Report</title>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

func renderResultMarkdown(result *pipeline.Result) string {
	var sb strings.Builder

	sb.WriteString("# Pre-Operative Audit Report\n\n")

	sb.WriteString("## Surgery\n\n")
	sd := result.SurgeryDetails
	if sd.Procedure != "" {
		fmt.Fprintf(&sb, "- Procedure: %s\n", sd.Procedure)
	}
	if sd.Date != "" {
		fmt.Fprintf(&sb, "- Date: %s\n", sd.Date)
	}
	if sd.Time != "" {
		fmt.Fprintf(&sb, "- Time: %s\n", sd.Time)
	}
	sb.WriteString("\n")

	pi := result.PatientInfo
	if pi.Age != nil || pi.Sex != nil || pi.BMI != nil {
		sb.WriteString("## Patient\n\n")
		if pi.Age != nil {
			fmt.Fprintf(&sb, "- Age: %.0f\n", *pi.Age)
		}
		if pi.Sex != nil {
			fmt.Fprintf(&sb, "- Sex: %s\n", *pi.Sex)
		}
		if pi.BMI != nil {
			fmt.Fprintf(&sb, "- BMI: %.1f\n", *pi.BMI)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Compliance\n\n")
	if cr := result.ComplianceReport; cr != nil {
		fmt.Fprintf(&sb, "%s\n\n", cr.ComplianceSummary)
		if len(cr.FlaggedItems) > 0 {
			sb.WriteString("| Item | Issue | Suggested Entry |\n|---|---|---|\n")
			for _, issue := range cr.FlaggedItems {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n",
					mdCell(issue.Name), mdCell(issue.Issue), mdCell(formatEntry(issue.SuggestedEntry)))
			}
			sb.WriteString("\n")
			for _, issue := range cr.FlaggedItems {
				if issue.Explanation == "" {
					continue
				}
				fmt.Fprintf(&sb, "- **%s** (%s, p.%d): %s\n",
					mdCell(issue.Name), mdCell(issue.GuidelineHeading), issue.GuidelinePage, mdCell(issue.Explanation))
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("Compliance audit was not performed.\n\n")
	}

	sb.WriteString("## Patient Actions\n\n")
	if len(result.Actions) == 0 {
		sb.WriteString("No actions generated.\n")
	} else {
		sb.WriteString("| Task | Stop Time | Note |\n|---|---|---|\n")
		for _, a := range result.Actions {
			task := a.Task
			if a.Medication != nil && *a.Medication != "" {
				task = fmt.Sprintf("%s: %s", a.Task, *a.Medication)
			}
			stop := "—"
			if a.StopTime != nil {
				stop = *a.StopTime
			}
			fmt.Fprintf(&sb, "| %s | %s | %s |\n", mdCell(task), mdCell(stop), mdCell(a.Note))
		}
	}

	return sb.String()
}

// formatEntry flattens a suggested/old entry for display: strings pass
// through, structured payloads render as compact JSON.
func formatEntry(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// mdCell escapes pipes and newlines so cell text cannot break the table.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

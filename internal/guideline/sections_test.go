package guideline

import (
	"strings"
	"testing"
)

func TestCollectSections_BoundaryAtSameLevel(t *testing.T) {
	doc := docOf(pageOf(1,
		runAt("Medication Management", 100, 16, "Helvetica-Bold"),
		runAt("Hold anticoagulants five days", 130, 10, "Helvetica"),
		runAt("before surgery.", 150, 10, "Helvetica"),
		runAt("Fasting", 300, 16, "Helvetica-Bold"),
		runAt("Nothing after midnight.", 330, 10, "Helvetica"),
	))
	headings := []Heading{
		{Page: 1, Text: "Medication Management", Level: 2, Top: 100, Bottom: 116},
		{Page: 1, Text: "Fasting", Level: 2, Top: 300, Bottom: 316},
	}

	sections := CollectSections(doc, headings, 2, DefaultParams())
	if len(sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(sections), sections)
	}

	med := sections[0]
	if med.Heading != "Medication Management" || med.Page != 1 || med.Level != 2 {
		t.Errorf("unexpected section meta: %+v", med)
	}
	if !strings.Contains(med.Content, "Hold anticoagulants") {
		t.Errorf("expected body text, got %q", med.Content)
	}
	if strings.Contains(med.Content, "Fasting") {
		t.Errorf("boundary heading leaked into content: %q", med.Content)
	}
	if strings.Contains(med.Content, "Medication Management") {
		t.Errorf("own heading leaked into content: %q", med.Content)
	}

	if !strings.Contains(sections[1].Content, "Nothing after midnight.") {
		t.Errorf("expected fasting body, got %q", sections[1].Content)
	}
}

func TestCollectSections_CrossPageContent(t *testing.T) {
	doc := docOf(
		pageOf(1,
			runAt("Fasting", 300, 16, "Helvetica-Bold"),
			runAt("Nothing after midnight.", 330, 10, "Helvetica"),
		),
		pageOf(2,
			runAt("Clear fluids allowed.", 50, 10, "Helvetica"),
			runAt("Appendix", 200, 18, "Helvetica-Bold"),
			runAt("Reference tables follow.", 230, 10, "Helvetica"),
		),
	)
	headings := []Heading{
		{Page: 1, Text: "Fasting", Level: 2, Top: 300, Bottom: 316},
		{Page: 2, Text: "Appendix", Level: 1, Top: 200, Bottom: 218},
	}

	sections := CollectSections(doc, headings, 2, DefaultParams())
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d: %+v", len(sections), sections)
	}

	content := sections[0].Content
	if !strings.Contains(content, "Nothing after midnight.") {
		t.Errorf("expected page-1 body, got %q", content)
	}
	if !strings.Contains(content, "Clear fluids allowed.") {
		t.Errorf("expected page-2 continuation, got %q", content)
	}
	if strings.Contains(content, "Appendix") || strings.Contains(content, "Reference tables") {
		t.Errorf("content ran past the boundary heading: %q", content)
	}
}

func TestCollectSections_DeeperHeadingsStayInside(t *testing.T) {
	doc := docOf(pageOf(1,
		runAt("Medication Management", 100, 16, "Helvetica-Bold"),
		runAt("General rules apply.", 130, 10, "Helvetica"),
		runAt("Anticoagulants", 180, 12, "Helvetica-Bold"),
		runAt("Hold warfarin five days before.", 210, 10, "Helvetica"),
	))
	headings := []Heading{
		{Page: 1, Text: "Medication Management", Level: 2, Top: 100, Bottom: 116},
		{Page: 1, Text: "Anticoagulants", Level: 3, Top: 180, Bottom: 192},
	}

	sections := CollectSections(doc, headings, 2, DefaultParams())
	if len(sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(sections))
	}
	content := sections[0].Content
	// A deeper heading is content, not a boundary.
	if !strings.Contains(content, "Anticoagulants") || !strings.Contains(content, "Hold warfarin") {
		t.Errorf("expected subsection text inside parent section, got %q", content)
	}
}

func TestCollectSections_NoTargetLevel(t *testing.T) {
	doc := docOf(pageOf(1,
		runAt("Title", 100, 18, "Helvetica-Bold"),
		runAt("Body text.", 130, 10, "Helvetica"),
	))
	headings := []Heading{
		{Page: 1, Text: "Title", Level: 1, Top: 100, Bottom: 118},
	}
	if sections := CollectSections(doc, headings, 2, DefaultParams()); len(sections) != 0 {
		t.Fatalf("expected no sections, got %d", len(sections))
	}
}

func TestCollectSections_NoHeadings(t *testing.T) {
	doc := docOf(pageOf(1,
		runAt("Body text only.", 130, 10, "Helvetica"),
	))
	if sections := CollectSections(doc, []Heading{}, 2, DefaultParams()); sections != nil {
		t.Fatalf("expected nil, got %+v", sections)
	}
}

package compliance

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/perryops/periaudit/internal/guideline"
)

// headingSummary numbers every available section heading so the model
// can reference them as H1..Hn.
func headingSummary(sections []guideline.Section) string {
	var lines []string
	for i, s := range sections {
		heading := s.Heading
		if heading == "" {
			heading = "(missing heading)"
		}
		lines = append(lines, fmt.Sprintf("- H%d | %s (page %d)", i+1, heading, s.Page))
	}
	return strings.Join(lines, "\n")
}

func buildSelectionPrompt(item Item, summary string) string {
	bundle, _ := json.MarshalIndent(item, "", "  ")
	var sb strings.Builder
	sb.WriteString("You are choosing which guideline headings are relevant for one perioperative instruction.\n")
	sb.WriteString("Instruction JSON:\n")
	sb.Write(bundle)
	sb.WriteString("\n\nAVAILABLE GUIDELINE HEADINGS (IDs and titles):\n")
	sb.WriteString(summary)
	sb.WriteString("\n\nPick ALL relevant heading IDs (you can pick multiple if needed).\n")
	sb.WriteString(`Return only JSON: {"selected_heading_ids": [<ids>]} with the IDs in relevance order.`)
	return sb.String()
}

func buildAuditPrompt(item Item, content string) string {
	bundle, _ := json.MarshalIndent(item, "", "  ")
	var sb strings.Builder
	sb.WriteString("You are a strict medical compliance auditor checking ONE perioperative instruction.\n\n")
	sb.WriteString("INSTRUCTION TO AUDIT:\n")
	sb.Write(bundle)
	sb.WriteString("\n\nGUIDELINE CONTENT:\n")
	sb.WriteString(content)
	sb.WriteString("\n\nCOMPLIANCE RULES (READ CAREFULLY):\n")
	sb.WriteString("1. If instruction says 'Continue' but guideline says 'Hold/Stop', that is NON-COMPLIANT.\n")
	sb.WriteString("2. NSAIDs like ibuprofen, naproxen, aspirin, etc. MUST be held before surgery if guidelines say so.\n")
	sb.WriteString("3. More conservative = COMPLIANT. Less conservative = NON-COMPLIANT.\n\n")
	sb.WriteString("SPECIFIC EXAMPLES:\n")
	sb.WriteString("NON-COMPLIANT: Guideline says 'Hold ibuprofen 3 days before surgery' but instruction says 'Continue ibuprofen'\n")
	sb.WriteString("COMPLIANT: Guideline says 'Hold 4 days' and instruction says 'Hold 4 days'\n")
	sb.WriteString("COMPLIANT: Guideline says 'Hold 2 days' and instruction says 'Hold 3 days' (stricter)\n")
	sb.WriteString("NON-COMPLIANT: Guideline says 'Hold 2 days' but instruction says 'Hold day of' (less strict)\n\n")
	sb.WriteString("YOUR TASK:\n")
	sb.WriteString("Read the instruction and guideline carefully. If the instruction violates the guideline (less safe), return is_compliant=false with issues.\n")
	sb.WriteString("If the instruction matches or exceeds the guideline safety, return is_compliant=true with empty issues.\n\n")
	sb.WriteString("For NON-COMPLIANT items, you MUST provide:\n")
	sb.WriteString("1. The complete corrected entry in the EXACT same format as the original\n")
	sb.WriteString("2. A brief explanation of what changed and why\n\n")
	sb.WriteString("OUTPUT FORMAT (JSON only):\n")
	sb.WriteString("{\n")
	sb.WriteString("  \"is_compliant\": boolean,\n")
	sb.WriteString("  \"issues\": [{\n")
	sb.WriteString("    \"issue\": \"description\",\n")
	sb.WriteString("    \"suggested_entry\": {<complete corrected entry in same format>},\n")
	sb.WriteString("    \"explanation\": \"one line explanation of what changed and why\"\n")
	sb.WriteString("  }]\n")
	sb.WriteString("}\n\n")
	sb.WriteString("JSON OUTPUT:")
	return sb.String()
}

// sectionContent concatenates the selected sections' content under their
// headings, truncating each body to maxChars with an ellipsis marker.
func sectionContent(sections []guideline.Section, maxChars int) string {
	var parts []string
	for _, s := range sections {
		heading := s.Heading
		if heading == "" {
			heading = "Unknown"
		}
		content := s.Content
		if maxChars > 0 && len(content) > maxChars {
			content = strings.TrimRight(content[:maxChars], " \t\n") + "..."
		}
		parts = append(parts, fmt.Sprintf("### %s\n%s", heading, content))
	}
	return strings.Join(parts, "\n\n")
}

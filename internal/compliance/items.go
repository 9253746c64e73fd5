package compliance

import "github.com/perryops/periaudit/internal/report"

// Item types.
const (
	ItemMedication = "medication"
	ItemGeneral    = "general_instruction"
)

// Item is one medication or general instruction being checked against
// guideline content. Built per audit pass and discarded.
type Item struct {
	ItemType string `json:"item_type"`
	Name     string `json:"name"`
	Details  any    `json:"details"`
}

// instructionDetails is the details payload for general-instruction items.
type instructionDetails struct {
	Instruction string `json:"instruction"`
}

// BuildItems flattens a structured report into auditable items:
// medications in document order, then the populated general instruction
// fields in fixed order.
func BuildItems(s *report.Structured) []Item {
	var items []Item
	for _, med := range s.MedicationsInstructions {
		name := med.Medication
		if name == "" {
			name = "Unknown medication"
		}
		items = append(items, Item{ItemType: ItemMedication, Name: name, Details: med})
	}

	general := []struct {
		name, text string
	}{
		{"fasting", s.GeneralPreOpInstructions.Fasting},
		{"bathing", s.GeneralPreOpInstructions.Bathing},
		{"substance_use", s.GeneralPreOpInstructions.SubstanceUse},
	}
	for _, g := range general {
		if g.text == "" {
			continue
		}
		items = append(items, Item{
			ItemType: ItemGeneral,
			Name:     g.name,
			Details:  instructionDetails{Instruction: g.text},
		})
	}
	return items
}

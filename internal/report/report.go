// Package report defines the structured perioperative report consumed
// by the audit and action pipelines, and the ingestion that produces it.
package report

import (
	"encoding/json"
	"time"

	"github.com/perryops/periaudit/internal/timephrase"
)

// PatientInfo is demographic context carried through unchanged.
type PatientInfo struct {
	Age *float64 `json:"age"`
	Sex *string  `json:"sex"`
	BMI *float64 `json:"bmi"`
}

// SurgeryDetails anchors all relative time phrases.
type SurgeryDetails struct {
	Procedure string `json:"procedure"`
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM, optional
}

// Medication is one medication entry. Medication and PreOpAction are the
// known fields; anything else the extraction stage produced is kept in
// Extra and carried verbatim into old_entry/suggested_entry payloads.
type Medication struct {
	Medication  string
	PreOpAction string
	Extra       map[string]any
}

func (m Medication) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	out["medication"] = m.Medication
	out["pre_op_action"] = m.PreOpAction
	return json.Marshal(out)
}

func (m *Medication) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if v, ok := raw["medication"].(string); ok {
		m.Medication = v
	}
	if v, ok := raw["pre_op_action"].(string); ok {
		m.PreOpAction = v
	}
	delete(raw, "medication")
	delete(raw, "pre_op_action")
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// GeneralInstructions are the fixed general pre-op instruction fields.
type GeneralInstructions struct {
	Fasting      string `json:"fasting"`
	Bathing      string `json:"bathing"`
	SubstanceUse string `json:"substance_use"`
}

// Structured is the full structured report input.
type Structured struct {
	PatientInfo              PatientInfo         `json:"patient_info"`
	SurgeryDetails           SurgeryDetails      `json:"surgery_details"`
	MedicationsInstructions  []Medication        `json:"medications_instructions"`
	GeneralPreOpInstructions GeneralInstructions `json:"general_pre_op_instructions"`
}

// Anchor parses the surgery anchor from the report. ok is false when the
// surgery date is missing or malformed.
func (s Structured) Anchor() (time.Time, bool) {
	return timephrase.ParseAnchor(s.SurgeryDetails.Date, s.SurgeryDetails.Time)
}

package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/perryops/periaudit/internal/model"
)

func TestMedication_UnknownFieldsPreserved(t *testing.T) {
	in := []byte(`{"medication": "Metformin 500mg", "pre_op_action": "Hold 1 day before surgery", "frequency": "daily", "route": "oral"}`)

	var med Medication
	if err := json.Unmarshal(in, &med); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if med.Medication != "Metformin 500mg" || med.PreOpAction != "Hold 1 day before surgery" {
		t.Errorf("known fields not extracted: %+v", med)
	}
	if med.Extra["frequency"] != "daily" || med.Extra["route"] != "oral" {
		t.Errorf("extra fields not preserved: %+v", med.Extra)
	}

	out, err := json.Marshal(med)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var roundtrip map[string]any
	if err := json.Unmarshal(out, &roundtrip); err != nil {
		t.Fatalf("unmarshal roundtrip: %v", err)
	}
	for _, key := range []string{"medication", "pre_op_action", "frequency", "route"} {
		if _, ok := roundtrip[key]; !ok {
			t.Errorf("expected %q in marshaled output, got %s", key, out)
		}
	}
}

func TestMedication_NoExtraFields(t *testing.T) {
	var med Medication
	if err := json.Unmarshal([]byte(`{"medication": "Aspirin", "pre_op_action": "Hold"}`), &med); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if med.Extra != nil {
		t.Errorf("expected nil Extra, got %+v", med.Extra)
	}
}

func TestStructured_Anchor(t *testing.T) {
	s := Structured{SurgeryDetails: SurgeryDetails{Date: "2025-03-10", Time: "08:00"}}
	anchor, ok := s.Anchor()
	if !ok {
		t.Fatal("expected anchor")
	}
	want := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	if !anchor.Equal(want) {
		t.Errorf("expected %v, got %v", want, anchor)
	}

	if _, ok := (Structured{}).Anchor(); ok {
		t.Error("expected no anchor without a date")
	}
}

type stubGateway struct {
	resp string
	err  error
}

func (s *stubGateway) Generate(context.Context, model.Request) (string, error) {
	return s.resp, s.err
}

func TestStructure_ParsesFencedOutput(t *testing.T) {
	gw := &stubGateway{resp: "```json\n" + `{
		"patient_info": {"age": 67, "sex": "F", "bmi": 31.2},
		"surgery_details": {"procedure": "Hip replacement", "date": "2025-03-10", "time": "08:00"},
		"medications_instructions": [{"medication": "Warfarin", "pre_op_action": "Hold 5 days before surgery"}],
		"general_pre_op_instructions": {"fasting": "Nothing after midnight", "bathing": "", "substance_use": ""}
	}` + "\n```"}

	s, err := Structure(context.Background(), gw, "raw report text", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.SurgeryDetails.Procedure != "Hip replacement" {
		t.Errorf("unexpected procedure: %q", s.SurgeryDetails.Procedure)
	}
	if s.PatientInfo.Age == nil || *s.PatientInfo.Age != 67 {
		t.Errorf("unexpected age: %v", s.PatientInfo.Age)
	}
	if len(s.MedicationsInstructions) != 1 || s.MedicationsInstructions[0].Medication != "Warfarin" {
		t.Errorf("unexpected medications: %+v", s.MedicationsInstructions)
	}
}

func TestStructure_GatewayErrorPropagates(t *testing.T) {
	gw := &stubGateway{err: &model.RetryableError{StatusCode: 503, Message: "busy"}}
	_, err := Structure(context.Background(), gw, "raw report text", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var retryable *model.RetryableError
	if !errors.As(err, &retryable) {
		t.Errorf("expected retryable error preserved through wrapping, got %v", err)
	}
}

func TestStructure_RejectsNonJSON(t *testing.T) {
	gw := &stubGateway{resp: "I could not find any medical data."}
	if _, err := Structure(context.Background(), gw, "raw report text", nil); err == nil {
		t.Fatal("expected error for non-JSON output")
	}
}

func TestStructure_EmptyText(t *testing.T) {
	if _, err := Structure(context.Background(), &stubGateway{}, "", nil); err == nil {
		t.Fatal("expected error for empty text")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	for _, name := range []string{"report.pdf", "report.PDF", "notes.docx"} {
		if !IsSupportedExtension(name) {
			t.Errorf("%q: expected supported", name)
		}
	}
	for _, name := range []string{"report.txt", "report.doc", "report"} {
		if IsSupportedExtension(name) {
			t.Errorf("%q: expected unsupported", name)
		}
	}
}

// Package actions converts structured report entries into patient-facing
// action records, one model call per item.
package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/perryops/periaudit/internal/model"
	"github.com/perryops/periaudit/internal/report"
	"github.com/perryops/periaudit/internal/timephrase"
)

// Fixed task labels.
const (
	TaskMedications = "Medications"
	TaskFasting     = "Fasting"
	TaskBath        = "Bath"
	TaskSubstances  = "Alcohol and Tobacco"
)

// ActionItem is one patient-facing instruction. A nil StopTime means
// "no change from current practice", never "unknown".
type ActionItem struct {
	Task       string  `json:"task"`
	StopTime   *string `json:"stop_time"`
	Note       string  `json:"note"`
	Medication *string `json:"medication"`
}

const systemPrompt = "You convert short clinical instructions into patient-facing JSON. " +
	"Always reply with a single JSON object containing exactly the keys task, stop_time, and note."

// Generator issues one model prompt per medication and per populated
// general instruction.
type Generator struct {
	gw  model.Gateway
	log *slog.Logger
}

func NewGenerator(gw model.Gateway, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{gw: gw, log: log}
}

// Generate produces action items in insertion order: medications first,
// then general instructions in document order. Items whose model output
// cannot be parsed are logged and dropped, not retried.
func (g *Generator) Generate(ctx context.Context, structured *report.Structured) []ActionItem {
	if structured == nil {
		return nil
	}
	anchor, _ := structured.Anchor()

	actions := []ActionItem{}
	for _, med := range structured.MedicationsInstructions {
		content, err := json.MarshalIndent(med, "", "  ")
		if err != nil {
			continue
		}
		item, ok := g.generateOne(ctx, TaskMedications, string(content), anchor, med.PreOpAction)
		if !ok {
			g.log.Warn("invalid model output for medication action", "medication", med.Medication)
			continue
		}
		if med.Medication != "" {
			name := med.Medication
			item.Medication = &name
		}
		actions = append(actions, item)
	}

	general := []struct {
		key, task, text string
	}{
		{"fasting", TaskFasting, structured.GeneralPreOpInstructions.Fasting},
		{"bathing", TaskBath, structured.GeneralPreOpInstructions.Bathing},
		{"substance_use", TaskSubstances, structured.GeneralPreOpInstructions.SubstanceUse},
	}
	for _, ins := range general {
		if ins.text == "" {
			continue
		}
		content := fmt.Sprintf("Task: %s\nInstruction: %s", ins.key, ins.text)
		item, ok := g.generateOne(ctx, ins.task, content, anchor, ins.text)
		if !ok {
			g.log.Warn("invalid model output for instruction action", "instruction", ins.key)
			continue
		}
		if ins.task == TaskBath && item.Medication == nil {
			product := InferProduct(ins.text)
			if product == "" {
				product = InferProduct(item.Note)
			}
			if product != "" {
				item.Medication = &product
			}
		}
		actions = append(actions, item)
	}
	return actions
}

// generateOne runs one model call and resolves the stop time through the
// fallback chain: model phrase, then the instruction's own phrase, then
// an explicit "no change" synonym forcing null.
func (g *Generator) generateOne(ctx context.Context, task, content string, anchor time.Time, fallbackPhrase string) (ActionItem, bool) {
	raw, err := g.gw.Generate(ctx, model.Request{
		System:      systemPrompt,
		Prompt:      buildPrompt(task, content),
		MaxTokens:   256,
		Temperature: 0.1,
		WantJSON:    true,
	})
	if err != nil {
		g.log.Warn("action generation call failed", "task", task, "error", err)
		return ActionItem{}, false
	}

	var parsed struct {
		Task     string `json:"task"`
		StopTime any    `json:"stop_time"`
		Note     string `json:"note"`
	}
	if !model.ExtractJSON(raw, &parsed) {
		return ActionItem{}, false
	}

	item := ActionItem{Task: task, Note: StripMarkup(parsed.Note)}

	modelPhrase, _ := parsed.StopTime.(string)
	if t, ok := timephrase.Resolve(anchor, modelPhrase); ok {
		item.StopTime = isoPtr(t)
	} else if t, ok := timephrase.Resolve(anchor, fallbackPhrase); ok {
		item.StopTime = isoPtr(t)
	}
	// Unresolved phrases and explicit "continue"-style answers both
	// leave StopTime null.
	return item, true
}

func buildPrompt(task, content string) string {
	return fmt.Sprintf(
		"Return ONLY a JSON object with keys task, stop_time, note. No markdown, no extra text.\n"+
			"- task must be %q.\n"+
			"- stop_time: concise phrase like \"4 days before surgery\"; use null if no change.\n"+
			"- note: Very short notification (no need to mention the drug/shower/fast etc. just mention the time to surgery) \n\n"+
			"Input:\n%s\n\n"+
			"Output: JSON only.",
		task, content)
}

func isoPtr(t time.Time) *string {
	s := t.Format("2006-01-02T15:04:05")
	return &s
}

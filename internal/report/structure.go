package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/perryops/periaudit/internal/model"
)

const structureSystemPrompt = `You are an automated medical information extraction engine. Your sole and exclusive purpose is to analyze medical text and convert it into a perfectly structured JSON object. You must never output any text, explanation, or conversational-style content. Your entire response must be only the valid JSON object based on the user's requested schema. If you cannot find information, you must use null as the value and not invent data.

Field-specific guidelines:
1) medications_instructions (list):
- "medication": drug name (+ dose only if specified, e.g., "Metformin 500mg").
- "pre_op_action": the surgery-related action (e.g., "Hold 7 hours before surgery", "Continue").

Rules:
- "Atenolol - Continue" -> medication="Atenolol", pre_op_action="Continue".
- "Metformin 500mg daily - Hold one day before surgery" -> medication="Metformin", pre_op_action="Hold 1 day before surgery".

2) general_pre_op_instructions:
- "fasting": not eating/drinking instructions
- "bathing": shower/bathing instructions
- "substance_use": smoking/alcohol restrictions

If information is missing, use null. Output must be only the JSON object.`

const structureUserTemplate = `Analyze the following medical report text and extract the relevant information into a JSON object.
The JSON should strictly follow this structure:
{
  "patient_info": {
    "age": "number | null",
    "sex": "string | null",
    "bmi": "number | null"
  },
  "surgery_details": {
    "procedure": "string | null",
    "date": "string (YYYY-MM-DD) | null",
    "time": "string (HH:MM) | null"
  },
  "medications_instructions": [
    {
      "medication": "string | null",
      "pre_op_action": "string | null"
    }
  ],
  "general_pre_op_instructions": {
    "fasting": "string | null",
    "bathing": "string | null",
    "substance_use": "string | null"
  }
}

Report Text:
---
%s
---

JSON Output:
`

// Structure asks the remote gateway to turn raw report text into the
// structured report shape. Model-protocol failures return an error the
// caller logs and treats as "no structured data".
func Structure(ctx context.Context, gw model.Gateway, text string, log *slog.Logger) (*Structured, error) {
	if text == "" {
		return nil, fmt.Errorf("no report text to structure")
	}
	if log == nil {
		log = slog.Default()
	}

	raw, err := gw.Generate(ctx, model.Request{
		System:      structureSystemPrompt,
		Prompt:      fmt.Sprintf(structureUserTemplate, text),
		MaxTokens:   2048,
		Temperature: 0.1,
		TopP:        0.9,
		WantJSON:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("structure report: %w", err)
	}

	b := model.ExtractJSONRaw(raw)
	if b == nil {
		log.Warn("report structuring returned no usable JSON", "raw_prefix", prefix(raw, 200))
		return nil, fmt.Errorf("no usable JSON in model output")
	}

	var s Structured
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("decode structured report: %w", err)
	}
	return &s, nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ExtractJSONRaw recovers a JSON object from model output that may wrap
// it in prose or a markdown code fence. Policy: strip one pair of
// surrounding fence markers (and a leading "json" tag), try a direct
// parse, then scan for the first "{" and take the brace-balanced
// substring. Returns nil when nothing parseable is found.
func ExtractJSONRaw(raw string) []byte {
	t := strings.TrimSpace(raw)
	if t == "" {
		return nil
	}

	if strings.HasPrefix(t, "```") && strings.HasSuffix(t, "```") {
		t = strings.TrimSpace(strings.Trim(t, "`"))
		if len(t) >= 4 && strings.EqualFold(t[:4], "json") {
			t = strings.TrimSpace(t[4:])
		}
	}

	if json.Valid([]byte(t)) {
		return []byte(t)
	}

	start := strings.IndexByte(t, '{')
	if start < 0 {
		return nil
	}
	depth := 0
	for i := start; i < len(t); i++ {
		switch t[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := []byte(t[start : i+1])
				if json.Valid(candidate) {
					return candidate
				}
				return nil
			}
		}
	}
	return nil
}

// ExtractJSON recovers a JSON object from model output and unmarshals it
// into v. Returns false when no usable object is present.
func ExtractJSON(raw string, v any) bool {
	b := ExtractJSONRaw(raw)
	if b == nil {
		return false
	}
	return json.Unmarshal(b, v) == nil
}

// BoolFromAny accepts booleans and the boolean-ish strings "true",
// "yes" and "1" the smaller models tend to emit.
func BoolFromAny(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "1":
			return true
		}
	}
	return false
}

// ValidateJSONAgainstSchema validates data against a JSON-Schema given
// as a generic map.
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

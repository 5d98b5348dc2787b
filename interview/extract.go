package interview

import (
	"encoding/json"
	"strings"
)

// ExtractStructured parses a JSON object out of model output. It tries the
// whole text first, then the outermost brace-delimited span. Nil means the
// caller should fall back to the raw text.
func ExtractStructured(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	if obj, ok := parseObject(raw); ok {
		return obj
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil
	}
	if obj, ok := parseObject(raw[start : end+1]); ok {
		return obj
	}
	return nil
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// InstructionResultFrom maps model output to an InstructionResult, accepting
// snake and camel case keys.
func InstructionResultFrom(raw string) InstructionResult {
	raw = strings.TrimSpace(raw)
	obj := ExtractStructured(raw)

	instruction := firstString(obj, "system_instruction", "systemInstruction")
	if instruction == "" {
		instruction = raw
	}
	return InstructionResult{
		SystemInstruction: instruction,
		QuestionSet:       firstString(obj, "question_set", "questionSet"),
	}
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

package prompt

import (
	"encoding/json"
	"strings"
)

// enhancePayload tolerates both field-name spellings the upstream has used
// for the enhanced prompt, and an improvements value of any JSON shape.
type enhancePayload struct {
	EnhancedPromptSnake string          `json:"enhanced_prompt"`
	EnhancedPromptCamel string          `json:"enhancedPrompt"`
	Improvements        json.RawMessage `json:"improvements"`
}

// parseResult turns the raw upstream text into a validated Result. The text
// is parsed as JSON directly; on failure the first balanced {...} region is
// extracted and parsed instead. Classification:
//   - neither parse succeeds        -> KindMalformedJSON
//   - enhanced prompt missing/empty -> KindIncompleteResult
//   - improvements absent/invalid   -> tolerated, empty list
func parseResult(raw string) (*Result, *Error) {
	var payload enhancePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		recovered := extractBalancedObject(raw)
		if recovered == "" {
			return nil, newError(KindMalformedJSON, "no JSON object in upstream text", err)
		}
		if err := json.Unmarshal([]byte(recovered), &payload); err != nil {
			return nil, newError(KindMalformedJSON, "recovered object did not parse", err)
		}
	}

	enhanced := strings.TrimSpace(payload.EnhancedPromptSnake)
	if enhanced == "" {
		enhanced = strings.TrimSpace(payload.EnhancedPromptCamel)
	}
	if enhanced == "" {
		return nil, newError(KindIncompleteResult, "enhanced prompt field missing or empty", nil)
	}

	return &Result{
		EnhancedPrompt: enhanced,
		Improvements:   decodeImprovements(payload.Improvements),
	}, nil
}

// decodeImprovements never fails: a missing or non-array value yields an
// empty list, and non-string entries are skipped. Upstream ordering is kept.
func decodeImprovements(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		out = append(out, s)
	}
	return out
}

// extractBalancedObject returns the first balanced {...} region of the text,
// or "" when none closes. Braces inside JSON strings are ignored. Leading
// markdown code fences are stripped first since models like to add them.
func extractBalancedObject(raw string) string {
	text := trimCodeFence(raw)
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

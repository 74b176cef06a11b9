// Response parsing shared by all stages. LLMs wrap JSON in markdown fences
// and occasionally prefix a language tag; both are stripped before decoding.
package advisors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanResponse strips triple-backtick fences and a leading language tag
// (```json, ```JSON, or bare ```), then trims whitespace.
func CleanResponse(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// Drop a language tag on the opening fence line.
		if idx := strings.IndexByte(s, '\n'); idx >= 0 {
			first := strings.TrimSpace(s[:idx])
			if len(first) <= 10 && !strings.ContainsAny(first, "{}[]") {
				s = s[idx+1:]
			}
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

// IsNull reports whether the cleaned response is the literal null — a
// legitimate "no output" answer for the crisis stage.
func IsNull(cleaned string) bool {
	return cleaned == "null"
}

// decodeChecked parses cleaned JSON into out after verifying that every
// required top-level field is present. A missing field is a validation
// failure, which callers translate into the stage fallback.
func decodeChecked(cleaned string, required []string, out interface{}) error {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &top); err != nil {
		return fmt.Errorf("parse advisor output: %w", err)
	}
	for _, field := range required {
		if _, ok := top[field]; !ok {
			return fmt.Errorf("missing required field %q", field)
		}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("decode advisor output: %w", err)
	}
	return nil
}

// buildUserMessage renders the fixed wire format every stage uses.
func buildUserMessage(input interface{}) (string, error) {
	data, err := json.MarshalIndent(input, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal stage input: %w", err)
	}
	return fmt.Sprintf("TICK INPUT DATA:\n%s\n\nAnalyze and respond with valid JSON only.", data), nil
}

// truncateRaw bounds raw advisor text retained in the audit log.
func truncateRaw(s string) string {
	const max = 4096
	if len(s) > max {
		return s[:max]
	}
	return s
}

package llm

import (
	"encoding/json"
	"strings"
)

// StripFences removes a surrounding markdown code fence from a model
// response. Models asked for bare JSON without a schema contract sometimes
// wrap it in ```json ... ``` anyway; providers with native structured
// output never hit this path.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// DecodeJSON normalizes a raw response (fence stripping included) and
// unmarshals it into v. Returns *ErrInvalidResponse when the payload is
// not valid JSON.
func DecodeJSON(raw json.RawMessage, v any) error {
	cleaned := StripFences(string(raw))
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	return nil
}

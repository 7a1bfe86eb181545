package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ContractError reports a response that does not match the requested shape.
// Raw holds the unmodified response.
type ContractError struct {
	Raw string
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("model response does not match contract: %v\nraw response: %s", e.Err, e.Raw)
}

func (e *ContractError) Unwrap() error { return e.Err }

// Decode strips markdown code fences from raw and unmarshals the JSON into v.
func Decode(raw string, v any) error {
	clean := StripFences(raw)
	if clean == "" {
		return &ContractError{Raw: raw, Err: errors.New("empty response")}
	}
	if err := json.Unmarshal([]byte(clean), v); err != nil {
		return &ContractError{Raw: raw, Err: fmt.Errorf("unmarshal JSON: %w", err)}
	}
	return nil
}

// StripFences removes a leading ``` or ```json line and a trailing ```.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		idx := strings.Index(s, "\n")
		if idx == -1 {
			return strings.TrimSpace(strings.Trim(s, "`"))
		}
		s = strings.TrimSpace(s[idx+1:])
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func missingKey(raw, key string) error {
	return &ContractError{Raw: raw, Err: fmt.Errorf("missing required key %q", key)}
}

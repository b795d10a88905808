package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalParams converts run parameters to JSON TEXT for storage.
// HTML escaping is disabled and map keys are sorted by encoding/json, so
// the same parameters always produce the same text.
func marshalParams(params map[string]any) (string, error) {
	if len(params) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(params); err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// unmarshalParams is the inverse of marshalParams.
func unmarshalParams(text string) (map[string]any, error) {
	params := map[string]any{}
	if text == "" {
		return params, nil
	}
	if err := json.Unmarshal([]byte(text), &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return params, nil
}

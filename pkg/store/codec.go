package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// encode turns a value into the text stored in Redis.
// Strings and byte slices are stored as-is, anything else as JSON.
func encode(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case json.RawMessage:
		return string(v), nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("marshal value: %w", err)
	}
	return string(data), nil
}

// decode parses stored text back into a structured value when it holds a
// JSON object or array, and returns the raw text otherwise. Scalars such as
// "123" or "true" stay strings so plain text round-trips unchanged.
func decode(raw string) any {
	if !looksStructured(raw) {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}

// decodeInto unmarshals stored text into dst.
func decodeInto(raw string, dst any) error {
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	return nil
}

func looksStructured(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	return trimmed[0] == '{' || trimmed[0] == '['
}

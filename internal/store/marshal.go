package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/decon/internal/ir"
)

// marshalResolved converts the resolved decomposition names to canonical
// JSON TEXT for storage.
func marshalResolved(names []string) (string, error) {
	arr := make([]any, len(names))
	for i, n := range names {
		arr[i] = n
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal resolved: %w", err)
	}
	return string(data), nil
}

// marshalBindings re-encodes bindings as canonical JSON TEXT, so stored
// bytes are identical however the record was built.
func marshalBindings(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "[]", nil
	}
	plain, err := ir.UnmarshalPlain(raw)
	if err != nil {
		return "", fmt.Errorf("marshal bindings: %w", err)
	}
	data, err := ir.MarshalCanonical(plain)
	if err != nil {
		return "", fmt.Errorf("marshal bindings: %w", err)
	}
	return string(data), nil
}

// unmarshalResolved parses canonical JSON TEXT to decomposition names.
func unmarshalResolved(data string) ([]string, error) {
	if data == "" || data == "[]" {
		return []string{}, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal resolved: %w", err)
	}
	return names, nil
}

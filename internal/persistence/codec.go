package persistence

import (
	"encoding/json"
	"fmt"
)

// EncodeValue serializes v as JSON. Documents inside service descriptors
// marshal through their own ordered encoder, so key order survives.
func EncodeValue(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return data, nil
}

// DecodeValue decodes a payload written by EncodeValue into a T. An empty
// payload yields the zero value.
func DecodeValue[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode %T: %w", v, err)
	}
	return v, nil
}

// NormalizeValue returns v as it reads back after an encode/decode cycle:
// numbers become float64, slices []any and structs map[string]any. Values
// that cannot be encoded are returned unchanged.
func NormalizeValue(v any) any {
	if v == nil {
		return nil
	}
	data, err := EncodeValue(v)
	if err != nil {
		return v
	}
	out, err := DecodeValue[any](data)
	if err != nil {
		return v
	}
	return out
}

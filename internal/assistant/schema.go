package assistant

import (
	"encoding/json"
	"fmt"
	"math"
)

// Schema is the subset of JSON Schema used to describe tool parameters.
// It marshals to the shape OpenAI and Anthropic expect.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// ObjectSchema is a shorthand for an object schema with the given properties
func ObjectSchema(props map[string]*Schema, required ...string) *Schema {
	if props == nil {
		props = map[string]*Schema{}
	}
	return &Schema{Type: "object", Properties: props, Required: required}
}

// Validate checks args against the schema: required fields must be present
// and known fields must carry the declared primitive type.
func (s *Schema) Validate(args Args) error {
	if s == nil {
		return nil
	}
	for _, field := range s.Required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}
	for key, value := range args {
		prop, ok := s.Properties[key]
		if !ok || prop == nil {
			continue
		}
		if err := prop.check(value); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}
	return nil
}

func (s *Schema) check(value interface{}) error {
	switch s.Type {
	case "":
		return nil
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if m, ok := value.(map[string]interface{}); ok {
			return s.Validate(m)
		}
	case "array":
		items, ok := value.([]interface{})
		if !ok {
			break
		}
		if s.Items == nil {
			return nil
		}
		for i, item := range items {
			if err := s.Items.check(item); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported schema type %q", s.Type)
	}
	return fmt.Errorf("expected %s but got %T", s.Type, value)
}

func isNumber(value interface{}) bool {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case json.Number:
		_, err := v.Float64()
		return err == nil
	}
	return false
}

func isInteger(value interface{}) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	case json.Number:
		_, err := v.Int64()
		return err == nil
	}
	return false
}

// DecodeArgs converts raw tool arguments into a typed struct
func DecodeArgs(args Args, v interface{}) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToolCall, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToolCall, err)
	}
	return nil
}

// EncodePayload converts a typed tool result into a payload map
func EncodePayload(v interface{}) (Payload, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}

package openapi

import (
	"encoding/json"
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// SchemaMap is an insertion-ordered map of property name to schema.
// Order follows the source document.
type SchemaMap = orderedmap.OrderedMap[string, *Schema]

// NewSchemaMap returns an empty SchemaMap.
func NewSchemaMap() *SchemaMap {
	return orderedmap.New[string, *Schema]()
}

// Schema is the subset of an OpenAPI schema object the editor works with.
type Schema struct {
	Ref         string     `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type        TypeName   `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string     `json:"format,omitempty" yaml:"format,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  *SchemaMap `json:"properties,omitempty" yaml:"properties,omitempty"`
	Items       *Schema    `json:"items,omitempty" yaml:"items,omitempty"`
	Required    []string   `json:"required,omitempty" yaml:"required,omitempty"`
	Enum        []any      `json:"enum,omitempty" yaml:"enum,omitempty"`
	Nullable    bool       `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// TypeName is a schema "type". OpenAPI 3.1 allows a list of types; the
// first non-null entry is kept.
type TypeName string

func (t *TypeName) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = TypeName(single)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("openapi: schema type must be a string or list of strings: %w", err)
	}
	*t = pickType(many)
	return nil
}

func (t *TypeName) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*t = TypeName(value.Value)
		return nil
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*t = pickType(many)
		return nil
	default:
		return fmt.Errorf("openapi: line %d: schema type must be a string or list of strings", value.Line)
	}
}

func pickType(types []string) TypeName {
	for _, name := range types {
		if name != "null" {
			return TypeName(name)
		}
	}
	if len(types) > 0 {
		return TypeName(types[0])
	}
	return ""
}

// TypeOr returns the schema type, or def when the type is unset.
// A typeless schema that declares properties is an object.
func (s *Schema) TypeOr(def string) string {
	if s == nil {
		return def
	}
	if s.Type != "" {
		return string(s.Type)
	}
	if s.Properties != nil {
		return "object"
	}
	return def
}

// IsRequired reports whether name is listed in the schema's required list.
func (s *Schema) IsRequired(name string) bool {
	return s != nil && slices.Contains(s.Required, name)
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Required = slices.Clone(s.Required)
	out.Enum = slices.Clone(s.Enum)
	out.Items = s.Items.Clone()
	if s.Properties != nil {
		out.Properties = NewSchemaMap()
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties.Set(pair.Key, pair.Value.Clone())
		}
	}
	return &out
}

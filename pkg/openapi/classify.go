package openapi

// Kind is the shape of a schema as far as port synthesis and splitting
// are concerned.
type Kind int

const (
	// KindNone is a schema that yields no ports: nil, or without type,
	// properties or reference.
	KindNone Kind = iota
	// KindReference is a "$ref" stand-in that must be resolved first.
	KindReference
	// KindObject is a schema with a properties section.
	KindObject
	// KindArray is an array schema with an items schema.
	KindArray
	// KindPrimitive is any other typed schema, including arrays without items
	// and objects without properties.
	KindPrimitive
)

func (k Kind) String() string {
	switch k {
	case KindReference:
		return "reference"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindPrimitive:
		return "primitive"
	default:
		return "none"
	}
}

// Classify returns the Kind of s. References win over every other field.
func Classify(s *Schema) Kind {
	switch {
	case s == nil:
		return KindNone
	case s.Ref != "":
		return KindReference
	case s.Properties != nil:
		return KindObject
	case s.Type == "array" && s.Items != nil:
		return KindArray
	case s.Type != "":
		return KindPrimitive
	default:
		return KindNone
	}
}

package openapi

import (
	"bytes"
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// ErrEmptyDocument is returned by Parse when the input holds no document.
var ErrEmptyDocument = errors.New("openapi: empty document")

// Methods lists the HTTP methods visited on a path item, in visiting order.
var Methods = []string{"get", "post", "put", "delete", "patch", "options", "head"}

// Document is a parsed OpenAPI 3 description.
//
// The typed fields cover what the editor reads directly. The raw node tree
// is kept alongside so "$ref" pointers can be walked into any section and
// so the document serializes back with its original key order.
type Document struct {
	OpenAPI string                                    `yaml:"openapi"`
	Info    Info                                      `yaml:"info"`
	Paths   *orderedmap.OrderedMap[string, *PathItem] `yaml:"paths"`

	root *yaml.Node
}

type Info struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Version     string `yaml:"version"`
}

// PathItem holds the operations available on a single path.
type PathItem struct {
	Summary     string       `yaml:"summary"`
	Description string       `yaml:"description"`
	Parameters  []*Parameter `yaml:"parameters"`
	Get         *Operation   `yaml:"get"`
	Post        *Operation   `yaml:"post"`
	Put         *Operation   `yaml:"put"`
	Delete      *Operation   `yaml:"delete"`
	Patch       *Operation   `yaml:"patch"`
	Options     *Operation   `yaml:"options"`
	Head        *Operation   `yaml:"head"`
}

// Operation returns the operation for a lower-case method name, or nil.
func (p *PathItem) Operation(method string) *Operation {
	if p == nil {
		return nil
	}
	switch method {
	case "get":
		return p.Get
	case "post":
		return p.Post
	case "put":
		return p.Put
	case "delete":
		return p.Delete
	case "patch":
		return p.Patch
	case "options":
		return p.Options
	case "head":
		return p.Head
	}
	return nil
}

type Operation struct {
	OperationID string       `yaml:"operationId"`
	Summary     string       `yaml:"summary"`
	Description string       `yaml:"description"`
	Tags        []string     `yaml:"tags"`
	Deprecated  bool         `yaml:"deprecated"`
	Parameters  []*Parameter `yaml:"parameters"`
	RequestBody *RequestBody `yaml:"requestBody"`
	Responses   *ResponseMap `yaml:"responses"`
}

// ResponseMap maps a status code (or "default") to its response, in
// document order.
type ResponseMap = orderedmap.OrderedMap[string, *Response]

type Parameter struct {
	Ref         string  `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Name        string  `json:"name,omitempty" yaml:"name,omitempty"`
	In          string  `json:"in,omitempty" yaml:"in,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// MediaTypeMap maps a content type such as "application/json" to its media type.
type MediaTypeMap = orderedmap.OrderedMap[string, *MediaType]

type RequestBody struct {
	Ref         string        `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool          `json:"required,omitempty" yaml:"required,omitempty"`
	Content     *MediaTypeMap `json:"content,omitempty" yaml:"content,omitempty"`
}

type Response struct {
	Ref         string        `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Description string        `json:"description,omitempty" yaml:"description,omitempty"`
	Content     *MediaTypeMap `json:"content,omitempty" yaml:"content,omitempty"`
}

type MediaType struct {
	Schema *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

func (p *Parameter) Clone() *Parameter {
	if p == nil {
		return nil
	}
	out := *p
	out.Schema = p.Schema.Clone()
	return &out
}

func (b *RequestBody) Clone() *RequestBody {
	if b == nil {
		return nil
	}
	out := *b
	out.Content = cloneContent(b.Content)
	return &out
}

func (r *Response) Clone() *Response {
	if r == nil {
		return nil
	}
	out := *r
	out.Content = cloneContent(r.Content)
	return &out
}

// CloneResponses deep-copies a response map, keeping its order.
func CloneResponses(m *ResponseMap) *ResponseMap {
	if m == nil {
		return nil
	}
	out := orderedmap.New[string, *Response]()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, pair.Value.Clone())
	}
	return out
}

func cloneContent(m *MediaTypeMap) *MediaTypeMap {
	if m == nil {
		return nil
	}
	out := orderedmap.New[string, *MediaType]()
	for pair := m.Oldest(); pair != nil; pair = pair.Next() {
		var mt *MediaType
		if pair.Value != nil {
			mt = &MediaType{Schema: pair.Value.Schema.Clone()}
		}
		out.Set(pair.Key, mt)
	}
	return out
}

// JSONContentType is the only media type ports are derived from.
const JSONContentType = "application/json"

// JSONSchema returns the schema of the application/json entry, if any.
func JSONSchema(content *MediaTypeMap) *Schema {
	if content == nil {
		return nil
	}
	mt, ok := content.Get(JSONContentType)
	if !ok || mt == nil {
		return nil
	}
	return mt.Schema
}

// Parse decodes an OpenAPI description from JSON or YAML. It performs no
// validation beyond well-formedness; see Load.
func Parse(data []byte) (*Document, error) {
	root, err := parseNode(data)
	if err != nil {
		return nil, err
	}
	doc := &Document{root: root}
	if err := root.Decode(doc); err != nil {
		return nil, fmt.Errorf("openapi: decode document: %w", err)
	}
	return doc, nil
}

func parseNode(data []byte) (*yaml.Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, ErrEmptyDocument
	}
	// JSON goes through a token decoder so tab indentation and other
	// JSON-only whitespace never reach the YAML scanner.
	if trimmed[0] == '{' {
		n, err := jsonToNode(trimmed)
		if err != nil {
			return nil, fmt.Errorf("openapi: parse json: %w", err)
		}
		return n, nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("openapi: parse yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, ErrEmptyDocument
	}
	if doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("openapi: line %d: document root must be a mapping", doc.Content[0].Line)
	}
	return doc.Content[0], nil
}

// MarshalJSON writes the raw document tree with its original key order.
func (d *Document) MarshalJSON() ([]byte, error) {
	if d == nil || d.root == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	if err := writeJSON(&buf, d.root); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*d = *parsed
	return nil
}

// Title returns info.title.
func (d *Document) Title() string {
	if d == nil {
		return ""
	}
	return d.Info.Title
}

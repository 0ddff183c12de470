// Package splitter decomposes a structured output port into addressable
// sub-fields and materializes chosen ones as new output ports.
package splitter

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/petrijr/flowcraft/pkg/api"
	"github.com/petrijr/flowcraft/pkg/openapi"
)

// ErrPropertyNotFound is returned by Select for a path the tree lacks.
var ErrPropertyNotFound = errors.New("splitter: property not found")

// arrayMarker is the path segment standing for "each element of".
const arrayMarker = "items"

// PropertyNode is one selectable sub-field of a schema.
//
// Path is the full path from the response root, array markers included.
// Name is the dotted property name with array markers left out, so the
// field c of object b is "b.c" and the field id of an array of pets is "id".
type PropertyNode struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Path     []string       `json:"path"`
	Children []PropertyNode `json:"children,omitempty"`
}

// Splitter walks schemas. When Document is set, "$ref" sub-schemas are
// resolved against it; unresolvable ones are left out.
type Splitter struct {
	Document *openapi.Document
}

// ExtractProperties walks schema without a document to resolve against.
func ExtractProperties(schema *openapi.Schema, basePath []string) []PropertyNode {
	return Splitter{}.Extract(schema, basePath)
}

// ForPort lists the sub-fields of an output port.
func (s Splitter) ForPort(port api.OutputPort) []PropertyNode {
	return s.Extract(port.Schema, port.Path)
}

// Extract returns the property tree of schema rooted at basePath. Objects
// yield one node per property; arrays yield a single "items" node whose
// children are the item object's properties. Paths are capped at
// openapi.MaxRefDepth segments.
func (s Splitter) Extract(schema *openapi.Schema, basePath []string) []PropertyNode {
	resolved, ok := s.resolve(schema)
	if !ok {
		return nil
	}
	names := slices.Clone(basePath)
	// An array port's own path ends in the marker; it names no property.
	if openapi.Classify(resolved) == openapi.KindArray && len(names) > 0 && names[len(names)-1] == arrayMarker {
		names = names[:len(names)-1]
	}
	var seen []string
	if schema.Ref != "" {
		seen = []string{schema.Ref}
	}
	return s.extract(resolved, slices.Clone(basePath), names, seen)
}

// extract walks one level. seen holds the references being expanded on the
// current branch; a property pointing back at one of them is kept as a leaf.
func (s Splitter) extract(schema *openapi.Schema, path, names, seen []string) []PropertyNode {
	if len(path) >= openapi.MaxRefDepth {
		return nil
	}

	switch openapi.Classify(schema) {
	case openapi.KindObject:
		var out []PropertyNode
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			prop, ok := s.resolve(pair.Value)
			if !ok {
				continue
			}
			p := append(slices.Clone(path), pair.Key)
			n := append(slices.Clone(names), pair.Key)
			node := PropertyNode{
				Name: strings.Join(n, "."),
				Type: prop.TypeOr("unknown"),
				Path: p,
			}
			if next, ok := descend(seen, pair.Value); ok {
				node.Children = s.extract(prop, p, n, next)
			}
			out = append(out, node)
		}
		return out
	case openapi.KindArray:
		items, ok := s.resolve(schema.Items)
		if !ok {
			return nil
		}
		p := append(slices.Clone(path), arrayMarker)
		name := strings.Join(names, ".")
		if name == "" {
			name = arrayMarker
		}
		node := PropertyNode{
			Name: name,
			Type: items.TypeOr("unknown"),
			Path: p,
		}
		if next, ok := descend(seen, schema.Items); ok {
			node.Children = s.extract(items, p, names, next)
		}
		return []PropertyNode{node}
	}
	return nil
}

func descend(seen []string, schema *openapi.Schema) ([]string, bool) {
	if schema.Ref == "" {
		return seen, true
	}
	if slices.Contains(seen, schema.Ref) {
		return nil, false
	}
	return append(slices.Clone(seen), schema.Ref), true
}

func (s Splitter) resolve(schema *openapi.Schema) (*openapi.Schema, bool) {
	if schema == nil {
		return nil, false
	}
	if schema.Ref == "" {
		return schema, true
	}
	if s.Document == nil {
		return nil, false
	}
	resolved, err := openapi.ResolveSchema(schema, s.Document)
	if err != nil {
		return nil, false
	}
	return resolved, true
}

// Leaves returns the nodes without children, depth first.
func Leaves(nodes []PropertyNode) []PropertyNode {
	var out []PropertyNode
	walk(nodes, func(n PropertyNode) {
		if len(n.Children) == 0 {
			out = append(out, n)
		}
	})
	return out
}

// Select returns the nodes whose Path equals one of paths, in tree order.
// Inner nodes may be selected as well as leaves.
func Select(nodes []PropertyNode, paths [][]string) ([]PropertyNode, error) {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[pathKey(p)] = false
	}

	var out []PropertyNode
	walk(nodes, func(n PropertyNode) {
		key := pathKey(n.Path)
		if found, ok := want[key]; ok && !found {
			want[key] = true
			out = append(out, n)
		}
	})

	for _, p := range paths {
		if !want[pathKey(p)] {
			return nil, fmt.Errorf("%w: %s", ErrPropertyNotFound, strings.Join(p, "."))
		}
	}
	return out, nil
}

func pathKey(p []string) string {
	return strings.Join(p, "\x00")
}

func walk(nodes []PropertyNode, fn func(PropertyNode)) {
	for _, n := range nodes {
		fn(n)
		walk(n.Children, fn)
	}
}

// MaterializeSelected returns a copy of node with one new terminal port per
// selected property appended to the output group at groupIndex. The port at
// itemIndex is left as it was. An empty selection returns an unchanged copy.
// New port ids come from newID, or uuid.NewString when it is nil.
func MaterializeSelected(node api.Node, groupIndex, itemIndex int, selected []PropertyNode, prefix string, newID func() string) (api.Node, error) {
	if groupIndex < 0 || groupIndex >= len(node.Outputs) {
		return api.Node{}, fmt.Errorf("%w: group %d", api.ErrOutputNotFound, groupIndex)
	}
	if itemIndex < 0 || itemIndex >= len(node.Outputs[groupIndex].Items) {
		return api.Node{}, fmt.Errorf("%w: item %d", api.ErrOutputNotFound, itemIndex)
	}

	if newID == nil {
		newID = uuid.NewString
	}

	out := node.Clone()
	group := &out.Outputs[groupIndex]
	for _, leaf := range selected {
		name := leaf.Name
		if prefix != "" {
			name = prefix + "." + leaf.Name
		}
		group.Items = append(group.Items, api.OutputPort{
			ID:     newID(),
			Name:   name,
			Type:   leaf.Type,
			Schema: nil,
			Path:   slices.Clone(leaf.Path),
		})
	}
	return out, nil
}

// ParsePaths reads comma or newline separated dotted paths such as
// "owner.address.city, items.id".
func ParsePaths(s string) [][]string {
	var out [][]string
	for _, field := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' }) {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		out = append(out, strings.Split(field, "."))
	}
	return out
}

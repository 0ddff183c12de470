package openapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MaxRefDepth bounds how many "$ref" hops a single resolution may take, and
// how deep the splitter descends into nested schemas.
const MaxRefDepth = 32

var (
	ErrRefNotFound     = errors.New("openapi: reference not found")
	ErrCyclicReference = errors.New("openapi: cyclic reference")
)

// RefError reports the reference that failed to resolve.
type RefError struct {
	Ref string
	Err error
}

func (e *RefError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Ref)
}

func (e *RefError) Unwrap() error { return e.Err }

// Lookup walks a local JSON pointer ("#/components/schemas/Pet") over the raw
// document tree and returns the node it names. The result is not
// dereferenced; see Resolve for that.
func (d *Document) Lookup(ref string) (*yaml.Node, error) {
	if d == nil || d.root == nil {
		return nil, &RefError{Ref: ref, Err: ErrRefNotFound}
	}
	segments, ok := pointerSegments(ref)
	if !ok {
		return nil, &RefError{Ref: ref, Err: ErrRefNotFound}
	}
	cur := d.root
	for _, seg := range segments {
		cur = deref(cur)
		next := child(cur, seg)
		if next == nil {
			return nil, &RefError{Ref: ref, Err: ErrRefNotFound}
		}
		cur = next
	}
	return deref(cur), nil
}

func pointerSegments(ref string) ([]string, bool) {
	if ref == "#" {
		return nil, true
	}
	if !strings.HasPrefix(ref, "#/") {
		return nil, false
	}
	raw := strings.Split(ref[2:], "/")
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		seg = strings.ReplaceAll(seg, "~1", "/")
		seg = strings.ReplaceAll(seg, "~0", "~")
		out = append(out, seg)
	}
	return out, true
}

// deref follows YAML aliases.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func child(n *yaml.Node, key string) *yaml.Node {
	if n == nil {
		return nil
	}
	switch n.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				return n.Content[i+1]
			}
		}
	case yaml.SequenceNode:
		idx, err := strconv.Atoi(key)
		if err != nil || idx < 0 || idx >= len(n.Content) {
			return nil
		}
		return n.Content[idx]
	}
	return nil
}

// refOf returns the "$ref" value of a mapping node, if it has one.
func refOf(n *yaml.Node) (string, bool) {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return "", false
	}
	ref := child(n, "$ref")
	if ref == nil || ref.Kind != yaml.ScalarNode {
		return "", false
	}
	return ref.Value, true
}

// resolveNode follows a chain of references starting at ref until it lands
// on a node that is not itself a reference.
func (d *Document) resolveNode(ref string) (*yaml.Node, error) {
	seen := make(map[string]struct{})
	for depth := 0; ; depth++ {
		if _, dup := seen[ref]; dup || depth >= MaxRefDepth {
			return nil, &RefError{Ref: ref, Err: ErrCyclicReference}
		}
		seen[ref] = struct{}{}

		n, err := d.Lookup(ref)
		if err != nil {
			return nil, err
		}
		next, ok := refOf(n)
		if !ok {
			return n, nil
		}
		ref = next
	}
}

// ResolveInto resolves ref and decodes the target fragment into out.
func (d *Document) ResolveInto(ref string, out any) error {
	n, err := d.resolveNode(ref)
	if err != nil {
		return err
	}
	if err := n.Decode(out); err != nil {
		return fmt.Errorf("openapi: decode %s: %w", ref, err)
	}
	return nil
}

// Resolve returns the schema a reference points at, following nested
// references. Failures are *RefError values wrapping ErrRefNotFound or
// ErrCyclicReference.
func Resolve(ref string, doc *Document) (*Schema, error) {
	var s Schema
	if err := doc.ResolveInto(ref, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ResolveSchema returns s itself when it is not a reference, and the
// resolved target otherwise.
func ResolveSchema(s *Schema, doc *Document) (*Schema, error) {
	if s == nil || s.Ref == "" {
		return s, nil
	}
	return Resolve(s.Ref, doc)
}

// ResolveParameter dereferences a "$ref" parameter.
func ResolveParameter(p *Parameter, doc *Document) (*Parameter, error) {
	if p == nil || p.Ref == "" {
		return p, nil
	}
	var out Parameter
	if err := doc.ResolveInto(p.Ref, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveRequestBody dereferences a "$ref" request body.
func ResolveRequestBody(b *RequestBody, doc *Document) (*RequestBody, error) {
	if b == nil || b.Ref == "" {
		return b, nil
	}
	var out RequestBody
	if err := doc.ResolveInto(b.Ref, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveResponse dereferences a "$ref" response.
func ResolveResponse(r *Response, doc *Document) (*Response, error) {
	if r == nil || r.Ref == "" {
		return r, nil
	}
	var out Response
	if err := doc.ResolveInto(r.Ref, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

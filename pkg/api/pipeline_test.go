package api

import (
	"errors"
	"testing"

	"github.com/petrijr/flowcraft/pkg/openapi"
)

func TestCompatible(t *testing.T) {
	cases := []struct {
		source, target string
		want           bool
	}{
		{"string", "string", true},
		{"integer", "string", false},
		{"object", "string", true},
		{"object", "array", true},
		{"array", "array", true},
		{"array", "string", false},
		{"array", "object", false},
		{"string", "object", false},
	}
	for _, c := range cases {
		if got := Compatible(c.source, c.target); got != c.want {
			t.Fatalf("Compatible(%q, %q) = %v, want %v", c.source, c.target, got, c.want)
		}
	}
}

func TestEdgeRejectedError_UnwrapsToSentinel(t *testing.T) {
	var err error = &EdgeRejectedError{SourceType: "array", TargetType: "string"}
	if !errors.Is(err, ErrIncompatibleTypes) {
		t.Fatalf("expected errors.Is(ErrIncompatibleTypes)")
	}
	if !IsRejection(err) {
		t.Fatalf("expected IsRejection to be true")
	}
	if IsRejection(ErrPortConnected) {
		t.Fatalf("expected IsRejection to be false for other errors")
	}
}

func TestNode_PortLookup(t *testing.T) {
	n := Node{
		Inputs: []InputPort{{ID: "i1", Name: "petId"}},
		Outputs: []OutputGroup{
			{StatusCode: "200", Items: []OutputPort{{ID: "o1", Name: "id"}}},
			{StatusCode: "404", Items: []OutputPort{{ID: "o2", Name: "message"}}},
		},
	}

	if p, ok := n.Input("i1"); !ok || p.Name != "petId" {
		t.Fatalf("expected input i1")
	}
	if _, ok := n.Input("o1"); ok {
		t.Fatalf("output id must not match an input")
	}
	if p, ok := n.Output("o2"); !ok || p.Name != "message" {
		t.Fatalf("expected output o2 in second group")
	}
	if _, ok := n.Output("missing"); ok {
		t.Fatalf("expected miss")
	}
}

func TestNode_CloneIsDeep(t *testing.T) {
	props := openapi.NewSchemaMap()
	props.Set("id", &openapi.Schema{Type: "integer"})
	n := Node{
		ID:     "n1",
		Inputs: []InputPort{{ID: "i1", Value: []string{"a", "b"}}},
		Outputs: []OutputGroup{{StatusCode: "200", Items: []OutputPort{{
			ID: "o1", Schema: &openapi.Schema{Type: "object", Properties: props}, Path: []string{"pet"},
		}}}},
		Endpoint: &OperationDescriptor{Path: "/pets", Parameters: []openapi.Parameter{{Name: "limit"}}},
	}

	cp := n.Clone()
	cp.Inputs[0].Value.([]string)[0] = "changed"
	cp.Outputs[0].Items[0].Path[0] = "changed"
	cp.Outputs[0].Items[0].Schema.Properties.Delete("id")
	cp.Endpoint.Parameters[0].Name = "changed"

	if n.Inputs[0].Value.([]string)[0] != "a" {
		t.Fatalf("input value shared")
	}
	if n.Outputs[0].Items[0].Path[0] != "pet" {
		t.Fatalf("output path shared")
	}
	if n.Outputs[0].Items[0].Schema.Properties.Len() != 1 {
		t.Fatalf("output schema shared")
	}
	if n.Endpoint.Parameters[0].Name != "limit" {
		t.Fatalf("endpoint shared")
	}
}

func TestPipeline_CloneNormalizesEmptyCollections(t *testing.T) {
	p := Pipeline{ID: "p1"}
	cp := p.Clone()
	if cp.Edges == nil || cp.GlobalVariables == nil || cp.Inputs == nil || cp.Nodes == nil {
		t.Fatalf("expected non-nil collections, got %+v", cp)
	}
}

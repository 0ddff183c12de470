package arazzo

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/petrijr/flowcraft/pkg/api"
)

func samplePipeline() api.Pipeline {
	return api.Pipeline{
		ID:          "wf-1",
		Name:        "Adopt a pet",
		Description: "List pets then fetch one.",
		Nodes: []api.Node{
			{
				ID: "in", Kind: api.NodePipelineInput, Label: "limit",
				Outputs: []api.OutputGroup{{StatusCode: "input", Items: []api.OutputPort{{ID: "in-out", Name: "limit", Type: "integer"}}}},
			},
			{
				ID: "list", Kind: api.NodeCall, Label: "GET /pets",
				Endpoint: &api.OperationDescriptor{Method: "get", Path: "/pets"},
				Inputs:   []api.InputPort{{ID: "list-limit", Name: "limit", Type: "integer", Connected: true, Value: 5}},
				Outputs:  []api.OutputGroup{{StatusCode: "200", Items: []api.OutputPort{{ID: "list-items", Name: "items", Type: "array"}}}},
			},
			{
				ID: "show", Kind: api.NodeCall, Label: "GET /pets/{petId}",
				Endpoint: &api.OperationDescriptor{Method: "get", Path: "/pets/{petId}"},
				Inputs: []api.InputPort{
					{ID: "show-id", Name: "petId", Type: "string", Value: "42"},
					{ID: "show-trace", Name: "X-Trace", Type: "string", Value: ""},
					{ID: "show-flag", Name: "verbose", Type: "boolean", Value: false},
				},
				Outputs: []api.OutputGroup{
					{StatusCode: "200", Items: []api.OutputPort{{ID: "show-name", Name: "name", Type: "string"}}},
					{StatusCode: "404", Items: []api.OutputPort{{ID: "show-msg", Name: "message", Type: "string"}}},
				},
			},
			{
				ID: "out", Kind: api.NodePipelineOutput, Label: "petName",
				Inputs: []api.InputPort{{ID: "out-in", Name: "petName", Type: "string"}},
			},
		},
		Edges: []api.Edge{
			{ID: "e1", SourceNodeID: "in", TargetNodeID: "list", SourcePortID: "in-out", TargetPortID: "list-limit"},
			{ID: "e2", SourceNodeID: "list", TargetNodeID: "out", SourcePortID: "list-items", TargetPortID: "out-in"},
			{ID: "e3", SourceNodeID: "list", TargetNodeID: "show", SourcePortID: "list-items", TargetPortID: "show-id"},
		},
		Inputs:  []api.PipelineIO{{ID: "io-in", Name: "limit", Type: "integer", Description: "page size"}},
		Outputs: []api.PipelineIO{{ID: "io-out", Name: "petName", Type: "string"}},
	}
}

func TestFromPipeline_Envelope(t *testing.T) {
	doc := FromPipeline(samplePipeline())

	if doc.Version != "1.0.0" || doc.Info.Version != "1.0.0" {
		t.Fatalf("unexpected versions: %q / %q", doc.Version, doc.Info.Version)
	}
	if doc.Info.Title != "Adopt a pet" || doc.Info.Description != "List pets then fetch one." {
		t.Fatalf("unexpected info: %+v", doc.Info)
	}
	if doc.Workflow.ID != "wf-1" {
		t.Fatalf("unexpected workflow id %q", doc.Workflow.ID)
	}

	var keys []string
	for pair := doc.Workflow.Steps.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if strings.Join(keys, ",") != "in,list,show,out" {
		t.Fatalf("steps must follow node order, got %v", keys)
	}

	in := doc.Workflow.Inputs.Value("limit")
	if in == nil || in.Schema.Type != "integer" || in.Description != "page size" || in.Required == nil || *in.Required {
		t.Fatalf("unexpected workflow input: %+v", in)
	}
}

func TestFromPipeline_DefaultTitleAndOmittedIO(t *testing.T) {
	doc := FromPipeline(api.Pipeline{ID: "p"})

	if doc.Info.Title != DefaultTitle {
		t.Fatalf("expected default title, got %q", doc.Info.Title)
	}

	data, err := doc.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var raw map[string]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := raw["workflow"]["inputs"]; ok {
		t.Fatalf("inputs key must be omitted when the pipeline declares none")
	}
	if _, ok := raw["workflow"]["outputs"]; ok {
		t.Fatalf("outputs key must be omitted when the pipeline declares none")
	}
}

func TestFromPipeline_StepsTypesAndValues(t *testing.T) {
	doc := FromPipeline(samplePipeline())
	steps := doc.Workflow.Steps

	if s := steps.Value("in"); s.Type != StepInput || s.Operation != nil || s.Inputs != nil {
		t.Fatalf("unexpected input step: %+v", s)
	}
	if s := steps.Value("out"); s.Type != StepOutput || s.Outputs != nil {
		t.Fatalf("unexpected output step: %+v", s)
	}

	list := steps.Value("list")
	if list.Type != StepOperation || list.Operation == nil || list.Operation.Method != "get" || list.Operation.Path != "/pets" {
		t.Fatalf("unexpected list step: %+v", list)
	}
	if got := list.Inputs.Value("limit"); got != "limit" {
		t.Fatalf("connected input must export its name, got %v", got)
	}

	show := steps.Value("show")
	if show.Name != "GET /pets/{petId}" {
		t.Fatalf("step name should be the node label, got %q", show.Name)
	}
	if got := show.Inputs.Value("petId"); got != "42" {
		t.Fatalf("expected manual value, got %v", got)
	}
	if got := show.Inputs.Value("X-Trace"); got != "X-Trace" {
		t.Fatalf("empty value must export the name, got %v", got)
	}
	if got := show.Inputs.Value("verbose"); got != false {
		t.Fatalf("false is a value, got %v", got)
	}
	if show.Outputs.Len() != 2 || show.Outputs.Value("message").Schema.Type != "string" {
		t.Fatalf("outputs must be flattened across groups, got %d", show.Outputs.Len())
	}
	if show.Outputs.Value("name").Required != nil {
		t.Fatalf("step outputs carry no required flag")
	}
}

func TestFromPipeline_NextIsLastWriteWins(t *testing.T) {
	doc := FromPipeline(samplePipeline())
	steps := doc.Workflow.Steps

	if got := steps.Value("in").Next; got != "list" {
		t.Fatalf("expected in -> list, got %q", got)
	}
	if got := steps.Value("list").Next; got != "show" {
		t.Fatalf("expected the last edge to win (show), got %q", got)
	}
	if got := steps.Value("out").Next; got != "" {
		t.Fatalf("sink step must have no next, got %q", got)
	}
}

func TestFromPipeline_TolerantOfCycles(t *testing.T) {
	p := samplePipeline()
	p.Edges = append(p.Edges, api.Edge{ID: "e4", SourceNodeID: "show", TargetNodeID: "list"})

	doc := FromPipeline(p)
	if doc.Workflow.Steps.Value("show").Next != "list" {
		t.Fatalf("expected back edge to be exported")
	}
}

func TestDocument_JSONAndYAMLRoundTrip(t *testing.T) {
	doc := FromPipeline(samplePipeline())

	data, err := doc.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	if strings.Index(string(data), `"in"`) > strings.Index(string(data), `"out"`) {
		t.Fatalf("JSON steps out of order")
	}
	back, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode JSON failed: %v", err)
	}
	if back.Workflow.Steps.Len() != 4 || back.Workflow.Steps.Value("list").Next != "show" {
		t.Fatalf("JSON round trip lost steps")
	}

	y, err := doc.ToYAML()
	if err != nil {
		t.Fatalf("ToYAML failed: %v", err)
	}
	if !strings.HasPrefix(string(y), "version: 1.0.0\n") {
		t.Fatalf("unexpected YAML prefix: %.40q", y)
	}
	back, err = Decode(y)
	if err != nil {
		t.Fatalf("Decode YAML failed: %v", err)
	}
	first := back.Workflow.Steps.Oldest()
	if first == nil || first.Key != "in" || first.Value.Type != StepInput {
		t.Fatalf("YAML round trip lost step order")
	}
}

func TestDecode_RejectsBadShape(t *testing.T) {
	cases := []string{
		`{"info": {"title": "t", "version": "1"}, "workflow": {"id": "w", "steps": {}}}`,
		`{"version": "1.0.0", "info": {"title": "t", "version": "1"}, "workflow": {"id": "w"}}`,
		`{"version": "1.0.0", "info": {"title": "t", "version": "1"}, "workflow": {"id": "w", "steps": {"a": {"name": "a", "type": "branch"}}}}`,
		`{"version": "1.0.0", "info": {"title": "t", "version": "1"}, "workflow": {"id": "w", "steps": {"a": {"name": "a", "type": "operation", "next": "zz"}}}}`,
	}
	for i, c := range cases {
		if _, err := Decode([]byte(c)); !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("case %d: expected ErrInvalidDocument, got %v", i, err)
		}
	}
}

package arazzo

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/petrijr/flowcraft/pkg/api"
)

// FromPipeline builds the workflow document for p. The pipeline is only
// read.
//
// Each step's next pointer is the target of the last edge leaving its node,
// in edge order: the format allows a single successor per step.
func FromPipeline(p api.Pipeline) *Document {
	title := p.Name
	if title == "" {
		title = DefaultTitle
	}

	steps := orderedmap.New[string, *Step]()
	for _, node := range p.Nodes {
		steps.Set(node.ID, stepFor(node))
	}

	next := make(map[string]string, len(p.Edges))
	for _, e := range p.Edges {
		next[e.SourceNodeID] = e.TargetNodeID
	}
	for pair := steps.Oldest(); pair != nil; pair = pair.Next() {
		if target, ok := next[pair.Key]; ok {
			pair.Value.Next = target
		}
	}

	return &Document{
		Version: Version,
		Info: Info{
			Title:       title,
			Description: p.Description,
			Version:     Version,
		},
		Workflow: Workflow{
			ID:      p.ID,
			Steps:   steps,
			Inputs:  workflowParams(p.Inputs),
			Outputs: workflowParams(p.Outputs),
		},
	}
}

func stepFor(node api.Node) *Step {
	step := &Step{
		ID:   node.ID,
		Name: node.Label,
		Type: stepType(node.Kind),
	}
	if node.Kind == api.NodeCall && node.Endpoint != nil {
		step.Operation = &Operation{Method: node.Endpoint.Method, Path: node.Endpoint.Path}
	}

	if len(node.Inputs) > 0 {
		step.Inputs = orderedmap.New[string, any]()
		for _, in := range node.Inputs {
			step.Inputs.Set(in.Name, inputValue(in))
		}
	}

	for _, group := range node.Outputs {
		for _, out := range group.Items {
			if step.Outputs == nil {
				step.Outputs = orderedmap.New[string, *Parameter]()
			}
			step.Outputs.Set(out.Name, &Parameter{Schema: TypeSchema{Type: out.Type}})
		}
	}
	return step
}

func stepType(kind api.NodeKind) StepType {
	switch kind {
	case api.NodePipelineInput:
		return StepInput
	case api.NodePipelineOutput:
		return StepOutput
	default:
		return StepOperation
	}
}

// inputValue is the manually set value, or the port name standing in as a
// reference when the port is wired or has no value.
func inputValue(in api.InputPort) any {
	if in.Connected || in.Value == nil {
		return in.Name
	}
	if s, ok := in.Value.(string); ok && s == "" {
		return in.Name
	}
	return in.Value
}

func workflowParams(ios []api.PipelineIO) *ParameterMap {
	if len(ios) == 0 {
		return nil
	}
	out := orderedmap.New[string, *Parameter]()
	for _, io := range ios {
		required := false
		out.Set(io.Name, &Parameter{
			Description: io.Description,
			Schema:      TypeSchema{Type: io.Type},
			Required:    &required,
		})
	}
	return out
}

package api

import (
	"maps"
	"slices"
	"time"

	"github.com/petrijr/flowcraft/pkg/openapi"
)

// ServiceDescriptor is a registered API description.
type ServiceDescriptor struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Document    *openapi.Document `json:"document"`
}

// OperationDescriptor is one (path, method) pair of a registered service.
type OperationDescriptor struct {
	ServiceID   string               `json:"serviceId"`
	Path        string               `json:"path"`
	Method      string               `json:"method"`
	OperationID string               `json:"operationId,omitempty"`
	Summary     string               `json:"summary,omitempty"`
	Description string               `json:"description,omitempty"`
	Parameters  []openapi.Parameter  `json:"parameters,omitempty"`
	RequestBody *openapi.RequestBody `json:"requestBody,omitempty"`
	Responses   *openapi.ResponseMap `json:"responses,omitempty"`
}

// Clone returns a deep copy of the descriptor.
func (o *OperationDescriptor) Clone() *OperationDescriptor {
	if o == nil {
		return nil
	}
	out := *o
	out.Parameters = make([]openapi.Parameter, 0, len(o.Parameters))
	for i := range o.Parameters {
		out.Parameters = append(out.Parameters, *o.Parameters[i].Clone())
	}
	if len(o.Parameters) == 0 {
		out.Parameters = nil
	}
	out.RequestBody = o.RequestBody.Clone()
	out.Responses = openapi.CloneResponses(o.Responses)
	return &out
}

type NodeKind string

const (
	NodeCall           NodeKind = "call"
	NodePipelineInput  NodeKind = "pipelineInput"
	NodePipelineOutput NodeKind = "pipelineOutput"
)

// Location says where an input value travels in the HTTP request.
type Location string

const (
	LocationPath   Location = "path"
	LocationQuery  Location = "query"
	LocationHeader Location = "header"
	LocationBody   Location = "body"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InputPort is a typed connection point that receives a value.
//
// Connected is true iff exactly one edge targets the port. While it is
// connected the wired value supersedes Value.
type InputPort struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Value     any      `json:"value,omitempty"`
	Required  bool     `json:"required"`
	Connected bool     `json:"connected"`
	Location  Location `json:"location,omitempty"`
}

// OutputPort is a typed value produced by a node. A nil Schema marks a
// terminal port that cannot be split further.
type OutputPort struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Schema *openapi.Schema `json:"schema"`
	Path   []string        `json:"path"`
}

// OutputGroup holds the ports produced by one response status code.
type OutputGroup struct {
	StatusCode string       `json:"statusCode"`
	Items      []OutputPort `json:"items"`
}

type Node struct {
	ID           string               `json:"id"`
	Kind         NodeKind             `json:"kind"`
	Position     Position             `json:"position"`
	Label        string               `json:"label"`
	Endpoint     *OperationDescriptor `json:"endpoint,omitempty"`
	PipelineIOID string               `json:"pipelineIoId,omitempty"`
	Inputs       []InputPort          `json:"inputs"`
	Outputs      []OutputGroup        `json:"outputs"`
}

// Input returns the input port with the given id.
func (n *Node) Input(portID string) (*InputPort, bool) {
	for i := range n.Inputs {
		if n.Inputs[i].ID == portID {
			return &n.Inputs[i], true
		}
	}
	return nil, false
}

// Output scans every output group for the port with the given id.
func (n *Node) Output(portID string) (*OutputPort, bool) {
	for g := range n.Outputs {
		for i := range n.Outputs[g].Items {
			if n.Outputs[g].Items[i].ID == portID {
				return &n.Outputs[g].Items[i], true
			}
		}
	}
	return nil, false
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Endpoint = n.Endpoint.Clone()
	out.Inputs = make([]InputPort, len(n.Inputs))
	for i, in := range n.Inputs {
		in.Value = cloneValue(in.Value)
		out.Inputs[i] = in
	}
	out.Outputs = make([]OutputGroup, len(n.Outputs))
	for g, group := range n.Outputs {
		items := make([]OutputPort, len(group.Items))
		for i, port := range group.Items {
			port.Schema = port.Schema.Clone()
			port.Path = slices.Clone(port.Path)
			items[i] = port
		}
		out.Outputs[g] = OutputGroup{StatusCode: group.StatusCode, Items: items}
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		return slices.Clone(t)
	case map[string]any:
		return maps.Clone(t)
	}
	return v
}

type Edge struct {
	ID           string `json:"id"`
	SourceNodeID string `json:"sourceNodeId"`
	TargetNodeID string `json:"targetNodeId"`
	SourcePortID string `json:"sourcePortId"`
	TargetPortID string `json:"targetPortId"`
}

// PipelineIO is a declared pipeline-level input or output.
type PipelineIO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Value       any    `json:"value,omitempty"`
}

type Pipeline struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description,omitempty"`
	Nodes           []Node         `json:"nodes"`
	Edges           []Edge         `json:"edges"`
	Inputs          []PipelineIO   `json:"inputs"`
	Outputs         []PipelineIO   `json:"outputs"`
	GlobalVariables map[string]any `json:"globalVariables"`
	SavedAt         *time.Time     `json:"savedAt,omitempty"`
}

// Clone returns a deep copy of the pipeline.
func (p Pipeline) Clone() Pipeline {
	out := p
	out.Nodes = make([]Node, len(p.Nodes))
	for i, n := range p.Nodes {
		out.Nodes[i] = n.Clone()
	}
	out.Edges = slices.Clone(p.Edges)
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	out.Inputs = cloneIO(p.Inputs)
	out.Outputs = cloneIO(p.Outputs)
	out.GlobalVariables = maps.Clone(p.GlobalVariables)
	if out.GlobalVariables == nil {
		out.GlobalVariables = map[string]any{}
	}
	if p.SavedAt != nil {
		at := *p.SavedAt
		out.SavedAt = &at
	}
	return out
}

func cloneIO(in []PipelineIO) []PipelineIO {
	out := make([]PipelineIO, len(in))
	for i, io := range in {
		io.Value = cloneValue(io.Value)
		out[i] = io
	}
	return out
}

// Draft is an uncommitted input value, keyed by port id.
type Draft struct {
	NodeID string `json:"nodeId"`
	PortID string `json:"portId"`
	Value  any    `json:"value"`
}

// NodePatch is a shallow merge applied by UpdateNode. Nil fields are left
// unchanged.
type NodePatch struct {
	Label    *string
	Position *Position
	Inputs   []InputPort
	Outputs  []OutputGroup
	Endpoint *OperationDescriptor
}

package api

import "context"

// Editor is the pipeline editing session API. Every method is serialized:
// operations observe each other in call order.
type Editor interface {
	// AddService validates and registers an API description, then persists
	// the service registry. Validation failures are *ValidationError values
	// and leave the registry untouched.
	AddService(ctx context.Context, name, description string, data []byte) (ServiceDescriptor, error)

	// RemoveService unregisters a service and removes every call node built
	// from it.
	RemoveService(ctx context.Context, id string) error

	Services() []ServiceDescriptor
	Service(id string) (ServiceDescriptor, bool)

	// Endpoints lists the operations of a registered service in document
	// order.
	Endpoints(serviceID string) ([]OperationDescriptor, error)

	// AddNode appends a node as-is, assigning an id when it has none.
	AddNode(node Node) Node
	AddCallNode(endpoint OperationDescriptor) (Node, error)
	AddPipelineInputNode(ioID string) (Node, error)
	AddPipelineOutputNode(ioID string) (Node, error)

	// RemoveNode removes the node and every edge touching it.
	RemoveNode(id string) bool
	UpdateNode(id string, patch NodePatch) bool

	// AddEdge wires an output port to an input port. An incompatible pair
	// yields *EdgeRejectedError and no change.
	AddEdge(sourceNodeID, targetNodeID, sourcePortID, targetPortID string) (Edge, error)
	RemoveEdge(id string) bool

	AddPipelineInput(io PipelineIO) PipelineIO
	UpdatePipelineInput(id string, io PipelineIO) bool
	RemovePipelineInput(id string) bool
	AddPipelineOutput(io PipelineIO) PipelineIO
	UpdatePipelineOutput(id string, io PipelineIO) bool
	RemovePipelineOutput(id string) bool

	// PromoteOutputToPipelineOutput declares a pipeline output typed after
	// an existing output port. No node or edge is created.
	PromoteOutputToPipelineOutput(nodeID, portID, name string) (PipelineIO, error)

	// SplitOutput appends the selected sub-fields of an output port to the
	// port's group. Each path is a property path relative to the port.
	SplitOutput(nodeID string, groupIndex, itemIndex int, paths [][]string, prefix string) (Node, error)

	StageInputValue(nodeID, portID string, value any) error
	Draft(portID string) (Draft, bool)
	CommitDraft(portID string) error
	DiscardDraft(portID string) bool

	SetPipelineName(name string)
	SetPipelineDescription(description string)
	SetGlobalVariable(key string, value any)
	RemoveGlobalVariable(key string) bool

	Node(id string) (Node, bool)
	Nodes() []Node
	Edges() []Edge
	Pipeline() Pipeline

	// Save persists a snapshot of the whole pipeline, overwriting any
	// previous one. A non-empty name replaces the pipeline name.
	Save(ctx context.Context, name string) (Pipeline, error)

	// Load replaces the in-memory pipeline with the persisted snapshot.
	// It returns nil, nil when nothing has been saved yet.
	Load(ctx context.Context) (*Pipeline, error)
}

// Package api contains the core building blocks shared by the flowcraft
// pipeline editor: the graph data model, the Editor interface, the error
// values it returns, and the observer hooks used for logging and metrics.
//
// Most users interact with the higher-level flowcraft package, which
// re-exports selected types and constructors from this package. The api
// package is intended for custom integrations (alternative front ends,
// observers, persistence adapters) and for contributors extending the
// editor itself.
//
// # Concepts
//
// A Pipeline is a directed graph of Nodes joined by Edges.
//
//   - Call nodes are synthesized from an OperationDescriptor of a
//     registered ServiceDescriptor. Their InputPorts come from path, query
//     and header parameters and from the JSON request body; their
//     OutputGroups come from the JSON responses, one group per status code.
//   - Pipeline input and output nodes stand for declared PipelineIO values.
//
// Ports are referenced by id. An Edge joins one OutputPort to one
// InputPort; an input port is Connected iff exactly one edge targets it.
//
// # Connections
//
// Compatible decides whether an output may feed an input: equal types, an
// "object" source (accepted by any input), or array to array. Rejections
// are returned as *EdgeRejectedError, which unwraps to ErrIncompatibleTypes,
// and are also reported to the Observer.
//
// # Observability
//
// The Observer interface receives editor lifecycle callbacks. Ready-made
// implementations are LoggingObserver (log/slog), BasicMetrics (atomic
// counters) and NoopObserver; NewCompositeObserver fans out to several.
package api

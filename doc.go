// Package flowcraft is an embeddable editing core for visual HTTP request
// pipelines built from OpenAPI 3 descriptions.
//
// Users register API descriptions, drop one node per operation onto a
// graph, wire response fields into request parameters and export the result
// as an Arazzo-shaped workflow document. Flowcraft holds that session state,
// validates every connection and persists the pipeline to one of several
// backends. It draws nothing itself: a UI, a CLI or an agent drives it
// through the Editor interface.
//
// # Core Concepts
//
//  1. Editor
//  2. Services and endpoints
//  3. Nodes, ports and edges
//  4. Splitting and promotion
//  5. Export
//
// # Editor
//
// An Editor is one editing session. All of its methods are serialized, so
// operations observe each other in call order and the graph invariants hold
// between any two calls:
//   - an input port is marked connected exactly when one edge targets it
//   - an edge only joins ports whose types are compatible
//   - removing a node removes every edge touching it
//
// Editors can be backed by different storage systems:
//
//   - In-memory (non-durable, best for tests)
//   - SQLite (embedded durability, see NewSQLiteBundle for edit history)
//   - Postgres
//   - Redis
//   - MongoDB
//   - Neo4j
//
// With EditorConfig.AutoSave set, the pipeline is written after every
// change; failures are reported to the Observer instead of the caller.
//
// # Services and endpoints
//
// AddService validates a JSON or YAML description with kin-openapi before
// it is registered. Endpoints lists its operations in document order with
// parameters and responses resolved, so callers never see a $ref.
//
// # Nodes, ports and edges
//
// A call node has one input port per path, query or header parameter and
// per top-level request body property, and one output group per response
// status code. AddEdge rejects a connection whose source type cannot feed
// the target with *EdgeRejectedError; object sources feed anything.
//
// # Splitting and promotion
//
// SplitOutput exposes nested fields of an object or array response as
// ports of their own, for example "owner.address.city".
// PromoteOutputToPipelineOutput declares a pipeline output typed after a
// port.
//
// # Export
//
// Export, ExportJSON and ExportYAML render the current pipeline as a
// workflow document whose steps are keyed by node id.
//
// For a declarative way to set up a pipeline see PipelineBuilder. For
// examples, see the /examples directory.
package flowcraft

package api

import "time"

// EventType identifies an editor history event.
type EventType string

const (
	EventNodeAdded   EventType = "node.added"
	EventNodeRemoved EventType = "node.removed"

	EventEdgeAdded    EventType = "edge.added"
	EventEdgeRemoved  EventType = "edge.removed"
	EventEdgeRejected EventType = "edge.rejected"

	EventServiceAdded   EventType = "service.added"
	EventServiceRemoved EventType = "service.removed"

	EventPipelineSaved  EventType = "pipeline.saved"
	EventPipelineLoaded EventType = "pipeline.loaded"
	EventPersistFailed  EventType = "persist.failed"
)

// EditorEvent is a minimal append-only history record for audit/debugging.
type EditorEvent struct {
	Seq  int64
	At   time.Time
	Type EventType

	// Subject is the id of the node, edge, service or pipeline involved.
	Subject string

	// Small, human-oriented details (e.g. a label or an error string).
	// Keep this low-volume: do NOT dump documents here.
	Detail string
}

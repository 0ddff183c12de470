package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/petrijr/flowcraft/pkg/api"
)

// EventStore is an append-only history store for editor events.
//
// ListEvents with an empty subject returns every event in append order.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.EditorEvent) error
	ListEvents(ctx context.Context, subject string) ([]api.EditorEvent, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.EditorEvent) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, subject string) ([]api.EditorEvent, error) {
	return nil, nil
}

// EventRecorder is an Observer that writes each notification to an
// EventStore. Append failures are dropped; history is best effort.
type EventRecorder struct {
	Events EventStore
	Now    func() time.Time
}

func NewEventRecorder(events EventStore) *EventRecorder {
	return &EventRecorder{Events: events, Now: time.Now}
}

var _ api.Observer = (*EventRecorder)(nil)

func (r *EventRecorder) record(ctx context.Context, typ api.EventType, subject, detail string) {
	at := time.Now()
	if r.Now != nil {
		at = r.Now()
	}
	_ = r.Events.AppendEvent(ctx, api.EditorEvent{
		At:      at,
		Type:    typ,
		Subject: subject,
		Detail:  detail,
	})
}

func (r *EventRecorder) OnNodeAdded(ctx context.Context, node api.Node) {
	r.record(ctx, api.EventNodeAdded, node.ID, node.Label)
}

func (r *EventRecorder) OnNodeRemoved(ctx context.Context, node api.Node) {
	r.record(ctx, api.EventNodeRemoved, node.ID, node.Label)
}

func (r *EventRecorder) OnEdgeAdded(ctx context.Context, edge api.Edge) {
	r.record(ctx, api.EventEdgeAdded, edge.ID, edge.SourceNodeID+" -> "+edge.TargetNodeID)
}

func (r *EventRecorder) OnEdgeRemoved(ctx context.Context, edge api.Edge) {
	r.record(ctx, api.EventEdgeRemoved, edge.ID, edge.SourceNodeID+" -> "+edge.TargetNodeID)
}

func (r *EventRecorder) OnEdgeRejected(ctx context.Context, err *api.EdgeRejectedError) {
	r.record(ctx, api.EventEdgeRejected, err.TargetNodeID, fmt.Sprintf("%s -> %s", err.SourceType, err.TargetType))
}

func (r *EventRecorder) OnServiceAdded(ctx context.Context, svc api.ServiceDescriptor) {
	r.record(ctx, api.EventServiceAdded, svc.ID, svc.Name)
}

func (r *EventRecorder) OnServiceRemoved(ctx context.Context, svc api.ServiceDescriptor) {
	r.record(ctx, api.EventServiceRemoved, svc.ID, svc.Name)
}

// OnServicesLoaded records nothing: loading the registry is not an edit.
func (r *EventRecorder) OnServicesLoaded(ctx context.Context, services []api.ServiceDescriptor) {}

func (r *EventRecorder) OnPipelineSaved(ctx context.Context, p api.Pipeline, d time.Duration) {
	r.record(ctx, api.EventPipelineSaved, p.ID, p.Name)
}

func (r *EventRecorder) OnPipelineLoaded(ctx context.Context, p api.Pipeline) {
	r.record(ctx, api.EventPipelineLoaded, p.ID, p.Name)
}

func (r *EventRecorder) OnPersistFailed(ctx context.Context, op string, err error) {
	r.record(ctx, api.EventPersistFailed, op, err.Error())
}

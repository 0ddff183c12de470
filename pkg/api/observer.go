package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the editor for logging and metrics.
//
// Callbacks run while the editor holds its lock, so implementations must be
// fast and must not call back into the editor.
type Observer interface {
	// OnNodeAdded is called after a node is appended to the graph.
	OnNodeAdded(ctx context.Context, node Node)

	// OnNodeRemoved is called after a node and its incident edges are gone.
	OnNodeRemoved(ctx context.Context, node Node)

	OnEdgeAdded(ctx context.Context, edge Edge)
	OnEdgeRemoved(ctx context.Context, edge Edge)

	// OnEdgeRejected is called when AddEdge refuses a connection because
	// the port types are incompatible.
	OnEdgeRejected(ctx context.Context, err *EdgeRejectedError)

	OnServiceAdded(ctx context.Context, svc ServiceDescriptor)
	OnServiceRemoved(ctx context.Context, svc ServiceDescriptor)

	// OnServicesLoaded is called once when a session starts with the
	// registry read back from persistence. It is not followed by
	// OnServiceAdded for those services.
	OnServicesLoaded(ctx context.Context, services []ServiceDescriptor)

	// OnPipelineSaved is called after a snapshot reached the persistence
	// gateway. d is the time the write took.
	OnPipelineSaved(ctx context.Context, p Pipeline, d time.Duration)
	OnPipelineLoaded(ctx context.Context, p Pipeline)

	// OnPersistFailed reports a persistence error that could not be
	// returned to a caller, such as a failed autosave.
	OnPersistFailed(ctx context.Context, op string, err error)
}

// NoopObserver is an Observer that does nothing.
// It is used as the default when no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnNodeAdded(ctx context.Context, node Node)                         {}
func (NoopObserver) OnNodeRemoved(ctx context.Context, node Node)                       {}
func (NoopObserver) OnEdgeAdded(ctx context.Context, edge Edge)                         {}
func (NoopObserver) OnEdgeRemoved(ctx context.Context, edge Edge)                       {}
func (NoopObserver) OnEdgeRejected(ctx context.Context, err *EdgeRejectedError)         {}
func (NoopObserver) OnServiceAdded(ctx context.Context, svc ServiceDescriptor)          {}
func (NoopObserver) OnServiceRemoved(ctx context.Context, svc ServiceDescriptor)        {}
func (NoopObserver) OnServicesLoaded(ctx context.Context, services []ServiceDescriptor) {}
func (NoopObserver) OnPipelineSaved(ctx context.Context, p Pipeline, d time.Duration)   {}
func (NoopObserver) OnPipelineLoaded(ctx context.Context, p Pipeline)                   {}
func (NoopObserver) OnPersistFailed(ctx context.Context, op string, err error)          {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnNodeAdded(ctx context.Context, node Node) {
	for _, o := range c.observers {
		o.OnNodeAdded(ctx, node)
	}
}

func (c *CompositeObserver) OnNodeRemoved(ctx context.Context, node Node) {
	for _, o := range c.observers {
		o.OnNodeRemoved(ctx, node)
	}
}

func (c *CompositeObserver) OnEdgeAdded(ctx context.Context, edge Edge) {
	for _, o := range c.observers {
		o.OnEdgeAdded(ctx, edge)
	}
}

func (c *CompositeObserver) OnEdgeRemoved(ctx context.Context, edge Edge) {
	for _, o := range c.observers {
		o.OnEdgeRemoved(ctx, edge)
	}
}

func (c *CompositeObserver) OnEdgeRejected(ctx context.Context, err *EdgeRejectedError) {
	for _, o := range c.observers {
		o.OnEdgeRejected(ctx, err)
	}
}

func (c *CompositeObserver) OnServiceAdded(ctx context.Context, svc ServiceDescriptor) {
	for _, o := range c.observers {
		o.OnServiceAdded(ctx, svc)
	}
}

func (c *CompositeObserver) OnServiceRemoved(ctx context.Context, svc ServiceDescriptor) {
	for _, o := range c.observers {
		o.OnServiceRemoved(ctx, svc)
	}
}

func (c *CompositeObserver) OnServicesLoaded(ctx context.Context, services []ServiceDescriptor) {
	for _, o := range c.observers {
		o.OnServicesLoaded(ctx, services)
	}
}

func (c *CompositeObserver) OnPipelineSaved(ctx context.Context, p Pipeline, d time.Duration) {
	for _, o := range c.observers {
		o.OnPipelineSaved(ctx, p, d)
	}
}

func (c *CompositeObserver) OnPipelineLoaded(ctx context.Context, p Pipeline) {
	for _, o := range c.observers {
		o.OnPipelineLoaded(ctx, p)
	}
}

func (c *CompositeObserver) OnPersistFailed(ctx context.Context, op string, err error) {
	for _, o := range c.observers {
		o.OnPersistFailed(ctx, op, err)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs editor events using the
// provided slog.Logger. If logger is nil, slog.Default() is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnNodeAdded(ctx context.Context, node Node) {
	o.Logger.DebugContext(ctx, "node_added",
		slog.String("node_id", node.ID),
		slog.String("kind", string(node.Kind)),
		slog.String("label", node.Label),
	)
}

func (o *LoggingObserver) OnNodeRemoved(ctx context.Context, node Node) {
	o.Logger.DebugContext(ctx, "node_removed",
		slog.String("node_id", node.ID),
		slog.String("label", node.Label),
	)
}

func (o *LoggingObserver) OnEdgeAdded(ctx context.Context, edge Edge) {
	o.Logger.DebugContext(ctx, "edge_added",
		slog.String("edge_id", edge.ID),
		slog.String("source", edge.SourceNodeID+":"+edge.SourcePortID),
		slog.String("target", edge.TargetNodeID+":"+edge.TargetPortID),
	)
}

func (o *LoggingObserver) OnEdgeRemoved(ctx context.Context, edge Edge) {
	o.Logger.DebugContext(ctx, "edge_removed",
		slog.String("edge_id", edge.ID),
	)
}

func (o *LoggingObserver) OnEdgeRejected(ctx context.Context, err *EdgeRejectedError) {
	o.Logger.WarnContext(ctx, "edge_rejected",
		slog.String("source", err.SourceNodeID+":"+err.SourcePortID),
		slog.String("source_type", err.SourceType),
		slog.String("target", err.TargetNodeID+":"+err.TargetPortID),
		slog.String("target_type", err.TargetType),
	)
}

func (o *LoggingObserver) OnServiceAdded(ctx context.Context, svc ServiceDescriptor) {
	o.Logger.InfoContext(ctx, "service_added",
		slog.String("service_id", svc.ID),
		slog.String("service", svc.Name),
	)
}

func (o *LoggingObserver) OnServiceRemoved(ctx context.Context, svc ServiceDescriptor) {
	o.Logger.InfoContext(ctx, "service_removed",
		slog.String("service_id", svc.ID),
		slog.String("service", svc.Name),
	)
}

func (o *LoggingObserver) OnServicesLoaded(ctx context.Context, services []ServiceDescriptor) {
	o.Logger.InfoContext(ctx, "services_loaded",
		slog.Int("services", len(services)),
	)
}

func (o *LoggingObserver) OnPipelineSaved(ctx context.Context, p Pipeline, d time.Duration) {
	o.Logger.InfoContext(ctx, "pipeline_saved",
		slog.String("pipeline_id", p.ID),
		slog.String("pipeline", p.Name),
		slog.Int("nodes", len(p.Nodes)),
		slog.Int("edges", len(p.Edges)),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnPipelineLoaded(ctx context.Context, p Pipeline) {
	o.Logger.InfoContext(ctx, "pipeline_loaded",
		slog.String("pipeline_id", p.ID),
		slog.String("pipeline", p.Name),
	)
}

func (o *LoggingObserver) OnPersistFailed(ctx context.Context, op string, err error) {
	o.Logger.ErrorContext(ctx, "persist_failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate save durations.
// It implements Observer, and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	nodesAdded        atomic.Int64
	nodesRemoved      atomic.Int64
	edgesAdded        atomic.Int64
	edgesRemoved      atomic.Int64
	edgesRejected     atomic.Int64
	saves             atomic.Int64
	persistFailures   atomic.Int64
	totalSaveDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	NodesAdded   int64
	NodesRemoved int64
	LiveNodes    int64

	EdgesAdded    int64
	EdgesRemoved  int64
	EdgesRejected int64
	LiveEdges     int64

	Saves           int64
	PersistFailures int64
	AvgSaveDuration time.Duration
}

func (m *BasicMetrics) OnNodeAdded(ctx context.Context, node Node) {
	m.nodesAdded.Add(1)
}

func (m *BasicMetrics) OnNodeRemoved(ctx context.Context, node Node) {
	m.nodesRemoved.Add(1)
}

func (m *BasicMetrics) OnEdgeAdded(ctx context.Context, edge Edge) {
	m.edgesAdded.Add(1)
}

func (m *BasicMetrics) OnEdgeRemoved(ctx context.Context, edge Edge) {
	m.edgesRemoved.Add(1)
}

func (m *BasicMetrics) OnEdgeRejected(ctx context.Context, err *EdgeRejectedError) {
	m.edgesRejected.Add(1)
}

func (m *BasicMetrics) OnPipelineSaved(ctx context.Context, p Pipeline, d time.Duration) {
	m.saves.Add(1)
	m.totalSaveDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnPersistFailed(ctx context.Context, op string, err error) {
	m.persistFailures.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	nodesAdded := m.nodesAdded.Load()
	nodesRemoved := m.nodesRemoved.Load()
	edgesAdded := m.edgesAdded.Load()
	edgesRemoved := m.edgesRemoved.Load()
	saves := m.saves.Load()
	totalNs := m.totalSaveDuration.Load()

	var avg time.Duration
	if saves > 0 {
		avg = time.Duration(totalNs / saves)
	}

	return BasicMetricsSnapshot{
		NodesAdded:      nodesAdded,
		NodesRemoved:    nodesRemoved,
		LiveNodes:       nodesAdded - nodesRemoved,
		EdgesAdded:      edgesAdded,
		EdgesRemoved:    edgesRemoved,
		EdgesRejected:   m.edgesRejected.Load(),
		LiveEdges:       edgesAdded - edgesRemoved,
		Saves:           saves,
		PersistFailures: m.persistFailures.Load(),
		AvgSaveDuration: avg,
	}
}

// Package metrics exports editor activity as Prometheus metrics.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/petrijr/flowcraft/pkg/api"
)

var (
	// FlowcraftNodes tracks the live node count per node kind
	FlowcraftNodes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flowcraft_nodes",
			Help: "Nodes currently in the pipeline",
		},
		[]string{"kind"},
	)

	FlowcraftEdges = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowcraft_edges",
			Help: "Edges currently in the pipeline",
		},
	)

	// FlowcraftEdgeRejectedTotal counts refused connections by type pair
	FlowcraftEdgeRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_edge_rejected_total",
			Help: "Connections refused for incompatible port types",
		},
		[]string{"source_type", "target_type"},
	)

	FlowcraftServices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "flowcraft_services",
			Help: "Registered API descriptions",
		},
	)

	// FlowcraftSaveSeconds tracks how long pipeline writes take
	FlowcraftSaveSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flowcraft_save_seconds",
			Help:    "Duration of pipeline saves",
			Buckets: prometheus.DefBuckets,
		},
	)

	FlowcraftPersistFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flowcraft_persist_failures_total",
			Help: "Persistence errors by operation",
		},
		[]string{"op"},
	)
)

func init() {
	prometheus.MustRegister(FlowcraftNodes)
	prometheus.MustRegister(FlowcraftEdges)
	prometheus.MustRegister(FlowcraftEdgeRejectedTotal)
	prometheus.MustRegister(FlowcraftServices)
	prometheus.MustRegister(FlowcraftSaveSeconds)
	prometheus.MustRegister(FlowcraftPersistFailuresTotal)
}

// Observer feeds the package collectors. Gauges assume a single editor per
// process; OnServicesLoaded and OnPipelineLoaded reset them from what a
// session starts with.
type Observer struct{}

var _ api.Observer = Observer{}

func (Observer) OnNodeAdded(_ context.Context, n api.Node) {
	FlowcraftNodes.WithLabelValues(string(n.Kind)).Inc()
}

func (Observer) OnNodeRemoved(_ context.Context, n api.Node) {
	FlowcraftNodes.WithLabelValues(string(n.Kind)).Dec()
}

func (Observer) OnEdgeAdded(context.Context, api.Edge)   { FlowcraftEdges.Inc() }
func (Observer) OnEdgeRemoved(context.Context, api.Edge) { FlowcraftEdges.Dec() }

func (Observer) OnEdgeRejected(_ context.Context, err *api.EdgeRejectedError) {
	FlowcraftEdgeRejectedTotal.WithLabelValues(err.SourceType, err.TargetType).Inc()
}

func (Observer) OnServiceAdded(context.Context, api.ServiceDescriptor)   { FlowcraftServices.Inc() }
func (Observer) OnServiceRemoved(context.Context, api.ServiceDescriptor) { FlowcraftServices.Dec() }

func (Observer) OnServicesLoaded(_ context.Context, services []api.ServiceDescriptor) {
	FlowcraftServices.Set(float64(len(services)))
}

func (Observer) OnPipelineSaved(_ context.Context, _ api.Pipeline, d time.Duration) {
	FlowcraftSaveSeconds.Observe(d.Seconds())
}

func (Observer) OnPipelineLoaded(_ context.Context, p api.Pipeline) {
	FlowcraftNodes.Reset()
	for _, n := range p.Nodes {
		FlowcraftNodes.WithLabelValues(string(n.Kind)).Inc()
	}
	FlowcraftEdges.Set(float64(len(p.Edges)))
}

func (Observer) OnPersistFailed(_ context.Context, op string, _ error) {
	FlowcraftPersistFailuresTotal.WithLabelValues(op).Inc()
}

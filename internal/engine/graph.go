package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/petrijr/flowcraft/internal/persistence"
	"github.com/petrijr/flowcraft/pkg/api"
)

// AddNode appends a copy of node. A missing or already used node or port id
// is replaced with a fresh one. Inputs start unconnected since no edge
// targets them yet.
func (s *storeImpl) AddNode(node api.Node) api.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := node.Clone()
	if n.ID == "" || s.nodeIndex(n.ID) >= 0 {
		n.ID = s.newID()
	}
	if n.Kind == "" {
		n.Kind = api.NodeCall
	}
	s.assignPortIDs(&n)
	for i := range n.Inputs {
		n.Inputs[i].Connected = false
		n.Inputs[i].Value = persistence.NormalizeValue(n.Inputs[i].Value)
	}
	return s.appendNode(n)
}

// assignPortIDs gives every port of n an id that is not empty, not repeated
// within n and not used by any other node. Ports that already satisfy this
// keep their id so edges to them survive.
func (s *storeImpl) assignPortIDs(n *api.Node) {
	used := make(map[string]struct{})
	for _, other := range s.pipeline.Nodes {
		if other.ID == n.ID {
			continue
		}
		for _, in := range other.Inputs {
			used[in.ID] = struct{}{}
		}
		for _, g := range other.Outputs {
			for _, out := range g.Items {
				used[out.ID] = struct{}{}
			}
		}
	}
	claim := func(id string) string {
		if _, taken := used[id]; id == "" || taken {
			id = s.newID()
		}
		used[id] = struct{}{}
		return id
	}
	for i := range n.Inputs {
		n.Inputs[i].ID = claim(n.Inputs[i].ID)
	}
	for g := range n.Outputs {
		for i := range n.Outputs[g].Items {
			n.Outputs[g].Items[i].ID = claim(n.Outputs[g].Items[i].ID)
		}
	}
}

func (s *storeImpl) AddCallNode(endpoint api.OperationDescriptor) (api.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.registry.Get(endpoint.ServiceID)
	if !ok {
		return api.Node{}, fmt.Errorf("%w: %s", api.ErrServiceNotFound, endpoint.ServiceID)
	}
	return s.appendNode(s.synth.CallNode(endpoint, svc.Document)), nil
}

func (s *storeImpl) AddPipelineInputNode(ioID string) (api.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := ioIndex(s.pipeline.Inputs, ioID)
	if i < 0 {
		return api.Node{}, fmt.Errorf("%w: input %s", api.ErrPipelineIONotFound, ioID)
	}
	return s.appendNode(s.synth.InputNode(s.pipeline.Inputs[i])), nil
}

func (s *storeImpl) AddPipelineOutputNode(ioID string) (api.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := ioIndex(s.pipeline.Outputs, ioID)
	if i < 0 {
		return api.Node{}, fmt.Errorf("%w: output %s", api.ErrPipelineIONotFound, ioID)
	}
	return s.appendNode(s.synth.OutputNode(s.pipeline.Outputs[i])), nil
}

func (s *storeImpl) appendNode(n api.Node) api.Node {
	if n.Inputs == nil {
		n.Inputs = []api.InputPort{}
	}
	if n.Outputs == nil {
		n.Outputs = []api.OutputGroup{}
	}
	s.pipeline.Nodes = append(s.pipeline.Nodes, n)
	s.observer.OnNodeAdded(context.Background(), n.Clone())
	s.changed()
	return n.Clone()
}

func (s *storeImpl) RemoveNode(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.removeNode(context.Background(), id) {
		return false
	}
	s.changed()
	return true
}

// removeNode drops incident edges first so their targets are unlocked, then
// the node and any drafts on its ports.
func (s *storeImpl) removeNode(ctx context.Context, id string) bool {
	i := s.nodeIndex(id)
	if i < 0 {
		return false
	}
	for j := len(s.pipeline.Edges) - 1; j >= 0; j-- {
		e := s.pipeline.Edges[j]
		if e.SourceNodeID == id || e.TargetNodeID == id {
			s.removeEdgeAt(ctx, j)
		}
	}

	removed := s.pipeline.Nodes[i]
	s.pipeline.Nodes = slices.Delete(s.pipeline.Nodes, i, i+1)
	for portID, d := range s.drafts {
		if d.NodeID == id {
			delete(s.drafts, portID)
		}
	}
	s.observer.OnNodeRemoved(ctx, removed)
	return true
}

// UpdateNode shallow-merges patch. Edges whose ports no longer exist are
// removed and connected flags are recomputed from the remaining edges.
func (s *storeImpl) UpdateNode(id string, patch api.NodePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.node(id)
	if !ok {
		return false
	}
	if patch.Label != nil {
		n.Label = *patch.Label
	}
	if patch.Position != nil {
		n.Position = *patch.Position
	}
	if patch.Endpoint != nil {
		n.Endpoint = patch.Endpoint.Clone()
	}
	if patch.Inputs != nil || patch.Outputs != nil {
		merged := api.Node{Inputs: patch.Inputs, Outputs: patch.Outputs}.Clone()
		if patch.Inputs != nil {
			n.Inputs = merged.Inputs
			for k := range n.Inputs {
				n.Inputs[k].Value = persistence.NormalizeValue(n.Inputs[k].Value)
			}
		}
		if patch.Outputs != nil {
			n.Outputs = merged.Outputs
		}
		s.assignPortIDs(n)
	}

	ctx := context.Background()
	for j := len(s.pipeline.Edges) - 1; j >= 0; j-- {
		e := s.pipeline.Edges[j]
		if !s.edgeEndpointsExist(e) {
			s.removeEdgeAt(ctx, j)
		}
	}

	for k := range n.Inputs {
		port := &n.Inputs[k]
		port.Connected = slices.ContainsFunc(s.pipeline.Edges, func(e api.Edge) bool {
			return e.TargetNodeID == id && e.TargetPortID == port.ID
		})
		if port.Connected {
			delete(s.drafts, port.ID)
		}
	}
	for portID, d := range s.drafts {
		if d.NodeID != id {
			continue
		}
		if _, ok := n.Input(portID); !ok {
			delete(s.drafts, portID)
		}
	}

	s.changed()
	return true
}

func (s *storeImpl) edgeEndpointsExist(e api.Edge) bool {
	src, ok := s.node(e.SourceNodeID)
	if !ok {
		return false
	}
	if _, ok := src.Output(e.SourcePortID); !ok {
		return false
	}
	tgt, ok := s.node(e.TargetNodeID)
	if !ok {
		return false
	}
	_, ok = tgt.Input(e.TargetPortID)
	return ok
}

// AddEdge wires sourcePortID (an output of sourceNodeID) to targetPortID (an
// input of targetNodeID). Cycles are allowed.
func (s *storeImpl) AddEdge(sourceNodeID, targetNodeID, sourcePortID, targetPortID string) (api.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.node(sourceNodeID)
	if !ok {
		return api.Edge{}, fmt.Errorf("%w: %s", api.ErrNodeNotFound, sourceNodeID)
	}
	tgt, ok := s.node(targetNodeID)
	if !ok {
		return api.Edge{}, fmt.Errorf("%w: %s", api.ErrNodeNotFound, targetNodeID)
	}
	out, ok := src.Output(sourcePortID)
	if !ok {
		return api.Edge{}, fmt.Errorf("%w: output %s on node %s", api.ErrPortNotFound, sourcePortID, sourceNodeID)
	}
	in, ok := tgt.Input(targetPortID)
	if !ok {
		return api.Edge{}, fmt.Errorf("%w: input %s on node %s", api.ErrPortNotFound, targetPortID, targetNodeID)
	}

	ctx := context.Background()
	if !api.Compatible(out.Type, in.Type) {
		rej := &api.EdgeRejectedError{
			SourceNodeID: sourceNodeID,
			SourcePortID: sourcePortID,
			SourceType:   out.Type,
			TargetNodeID: targetNodeID,
			TargetPortID: targetPortID,
			TargetType:   in.Type,
		}
		s.observer.OnEdgeRejected(ctx, rej)
		return api.Edge{}, rej
	}
	if in.Connected {
		return api.Edge{}, fmt.Errorf("%w: %s", api.ErrPortConnected, targetPortID)
	}

	edge := api.Edge{
		ID:           s.newID(),
		SourceNodeID: sourceNodeID,
		TargetNodeID: targetNodeID,
		SourcePortID: sourcePortID,
		TargetPortID: targetPortID,
	}
	s.pipeline.Edges = append(s.pipeline.Edges, edge)
	in.Connected = true
	delete(s.drafts, targetPortID)

	s.observer.OnEdgeAdded(ctx, edge)
	s.changed()
	return edge, nil
}

func (s *storeImpl) RemoveEdge(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.edgeIndex(id)
	if i < 0 {
		return false
	}
	s.removeEdgeAt(context.Background(), i)
	s.changed()
	return true
}

// removeEdgeAt clears connected on exactly the edge's target port.
func (s *storeImpl) removeEdgeAt(ctx context.Context, i int) {
	e := s.pipeline.Edges[i]
	s.pipeline.Edges = slices.Delete(s.pipeline.Edges, i, i+1)
	if tgt, ok := s.node(e.TargetNodeID); ok {
		if in, ok := tgt.Input(e.TargetPortID); ok {
			in.Connected = false
		}
	}
	s.observer.OnEdgeRemoved(ctx, e)
}

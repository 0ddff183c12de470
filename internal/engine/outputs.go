package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/petrijr/flowcraft/internal/persistence"
	"github.com/petrijr/flowcraft/internal/splitter"
	"github.com/petrijr/flowcraft/pkg/api"
)

func (s *storeImpl) AddPipelineInput(io api.PipelineIO) api.PipelineIO {
	s.mu.Lock()
	defer s.mu.Unlock()

	io = s.declare(io, s.pipeline.Inputs)
	s.pipeline.Inputs = append(s.pipeline.Inputs, io)
	s.changed()
	return io
}

func (s *storeImpl) AddPipelineOutput(io api.PipelineIO) api.PipelineIO {
	s.mu.Lock()
	defer s.mu.Unlock()

	io = s.declare(io, s.pipeline.Outputs)
	s.pipeline.Outputs = append(s.pipeline.Outputs, io)
	s.changed()
	return io
}

func (s *storeImpl) declare(io api.PipelineIO, existing []api.PipelineIO) api.PipelineIO {
	if io.ID == "" || ioIndex(existing, io.ID) >= 0 {
		io.ID = s.newID()
	}
	io.Value = persistence.NormalizeValue(io.Value)
	return io
}

// UpdatePipelineInput replaces the declaration, keeping its id. Nodes built
// from it are left as they are.
func (s *storeImpl) UpdatePipelineInput(id string, io api.PipelineIO) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateIO(s.pipeline.Inputs, id, io)
}

func (s *storeImpl) UpdatePipelineOutput(id string, io api.PipelineIO) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateIO(s.pipeline.Outputs, id, io)
}

func (s *storeImpl) updateIO(ios []api.PipelineIO, id string, io api.PipelineIO) bool {
	i := ioIndex(ios, id)
	if i < 0 {
		return false
	}
	io.ID = id
	io.Value = persistence.NormalizeValue(io.Value)
	ios[i] = io
	s.changed()
	return true
}

// RemovePipelineInput also removes the input nodes built from it.
func (s *storeImpl) RemovePipelineInput(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := ioIndex(s.pipeline.Inputs, id)
	if i < 0 {
		return false
	}
	s.pipeline.Inputs = slices.Delete(s.pipeline.Inputs, i, i+1)
	s.removeIONodes(api.NodePipelineInput, id)
	s.changed()
	return true
}

func (s *storeImpl) RemovePipelineOutput(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := ioIndex(s.pipeline.Outputs, id)
	if i < 0 {
		return false
	}
	s.pipeline.Outputs = slices.Delete(s.pipeline.Outputs, i, i+1)
	s.removeIONodes(api.NodePipelineOutput, id)
	s.changed()
	return true
}

func (s *storeImpl) removeIONodes(kind api.NodeKind, ioID string) {
	var doomed []string
	for _, n := range s.pipeline.Nodes {
		if n.Kind == kind && n.PipelineIOID == ioID {
			doomed = append(doomed, n.ID)
		}
	}
	for _, id := range doomed {
		s.removeNode(context.Background(), id)
	}
}

// PromoteOutputToPipelineOutput declares a pipeline output typed after the
// port. An empty name falls back to the port name.
func (s *storeImpl) PromoteOutputToPipelineOutput(nodeID, portID, name string) (api.PipelineIO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.node(nodeID)
	if !ok {
		return api.PipelineIO{}, fmt.Errorf("%w: %s", api.ErrNodeNotFound, nodeID)
	}
	port, ok := n.Output(portID)
	if !ok {
		return api.PipelineIO{}, fmt.Errorf("%w: output %s on node %s", api.ErrPortNotFound, portID, nodeID)
	}
	if name == "" {
		name = port.Name
	}

	io := api.PipelineIO{
		ID:          s.newID(),
		Name:        name,
		Type:        port.Type,
		Description: "Promoted from " + n.Label,
	}
	s.pipeline.Outputs = append(s.pipeline.Outputs, io)
	s.changed()
	return io, nil
}

// SplitOutput resolves paths against the port's property tree and appends
// the matching sub-fields to the port's group. Paths are relative to the
// port: for an array port they start with the "items" marker.
func (s *storeImpl) SplitOutput(nodeID string, groupIndex, itemIndex int, paths [][]string, prefix string) (api.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.nodeIndex(nodeID)
	if i < 0 {
		return api.Node{}, fmt.Errorf("%w: %s", api.ErrNodeNotFound, nodeID)
	}
	n := &s.pipeline.Nodes[i]
	if groupIndex < 0 || groupIndex >= len(n.Outputs) {
		return api.Node{}, fmt.Errorf("%w: group %d", api.ErrOutputNotFound, groupIndex)
	}
	if itemIndex < 0 || itemIndex >= len(n.Outputs[groupIndex].Items) {
		return api.Node{}, fmt.Errorf("%w: item %d", api.ErrOutputNotFound, itemIndex)
	}
	port := n.Outputs[groupIndex].Items[itemIndex]

	full := make([][]string, 0, len(paths))
	for _, p := range paths {
		full = append(full, append(slices.Clone(port.Path), p...))
	}

	sp := splitter.Splitter{Document: s.documentFor(n)}
	selected, err := splitter.Select(sp.ForPort(port), full)
	if err != nil {
		return api.Node{}, err
	}
	if len(selected) == 0 {
		return n.Clone(), nil
	}

	updated, err := splitter.MaterializeSelected(*n, groupIndex, itemIndex, selected, prefix, s.newID)
	if err != nil {
		return api.Node{}, err
	}
	s.pipeline.Nodes[i] = updated
	s.changed()
	return updated.Clone(), nil
}

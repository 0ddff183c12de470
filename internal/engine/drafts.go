package engine

import (
	"fmt"
	"strings"

	"github.com/petrijr/flowcraft/internal/persistence"
	"github.com/petrijr/flowcraft/pkg/api"
)

// StageInputValue records an uncommitted value for an input port. Wired
// ports take their value from the edge and cannot be staged.
func (s *storeImpl) StageInputValue(nodeID, portID string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.node(nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrNodeNotFound, nodeID)
	}
	port, ok := n.Input(portID)
	if !ok {
		return fmt.Errorf("%w: input %s on node %s", api.ErrPortNotFound, portID, nodeID)
	}
	if port.Connected {
		return fmt.Errorf("%w: %s", api.ErrPortConnected, portID)
	}
	s.drafts[portID] = api.Draft{NodeID: nodeID, PortID: portID, Value: value}
	return nil
}

func (s *storeImpl) Draft(portID string) (api.Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[portID]
	return d, ok
}

// CommitDraft writes the staged value into the port. A string staged on an
// array port becomes one element per non-blank line.
func (s *storeImpl) CommitDraft(portID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drafts[portID]
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrDraftNotFound, portID)
	}
	delete(s.drafts, portID)

	n, ok := s.node(d.NodeID)
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrNodeNotFound, d.NodeID)
	}
	port, ok := n.Input(portID)
	if !ok {
		return fmt.Errorf("%w: input %s on node %s", api.ErrPortNotFound, portID, d.NodeID)
	}
	if port.Connected {
		return fmt.Errorf("%w: %s", api.ErrPortConnected, portID)
	}

	port.Value = persistence.NormalizeValue(coerce(port.Type, d.Value))
	s.changed()
	return nil
}

func (s *storeImpl) DiscardDraft(portID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts[portID]; !ok {
		return false
	}
	delete(s.drafts, portID)
	return true
}

func coerce(portType string, v any) any {
	text, ok := v.(string)
	if portType != "array" || !ok {
		return v
	}
	lines := []string{}
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

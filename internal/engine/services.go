package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/petrijr/flowcraft/internal/synth"
	"github.com/petrijr/flowcraft/pkg/api"
	"github.com/petrijr/flowcraft/pkg/openapi"
)

// AddService validates outside the lock; registration and the registry
// flush happen under it. A failed flush unregisters the service again.
func (s *storeImpl) AddService(ctx context.Context, name, description string, data []byte) (api.ServiceDescriptor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return api.ServiceDescriptor{}, api.ErrServiceNameRequired
	}

	doc, err := openapi.Load(ctx, data, s.validator)
	if err != nil {
		return api.ServiceDescriptor{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	svc := api.ServiceDescriptor{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		Document:    doc,
	}
	s.registry.Add(svc)

	if err := s.gateway.SaveServices(ctx, s.registry.List()); err != nil {
		s.registry.Remove(svc.ID)
		s.observer.OnPersistFailed(ctx, "save_services", err)
		return api.ServiceDescriptor{}, fmt.Errorf("persist services: %w", err)
	}

	s.observer.OnServiceAdded(ctx, svc)
	return svc, nil
}

// RemoveService also removes every call node built from the service.
func (s *storeImpl) RemoveService(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	svc, ok := s.registry.Remove(id)
	if !ok {
		return fmt.Errorf("%w: %s", api.ErrServiceNotFound, id)
	}

	var doomed []string
	for _, n := range s.pipeline.Nodes {
		if n.Kind == api.NodeCall && n.Endpoint != nil && n.Endpoint.ServiceID == id {
			doomed = append(doomed, n.ID)
		}
	}
	for _, nodeID := range doomed {
		s.removeNode(ctx, nodeID)
	}

	s.observer.OnServiceRemoved(ctx, svc)

	err := s.gateway.SaveServices(ctx, s.registry.List())
	if len(doomed) > 0 {
		s.changed()
	}
	if err != nil {
		s.observer.OnPersistFailed(ctx, "save_services", err)
		return fmt.Errorf("persist services: %w", err)
	}
	return nil
}

func (s *storeImpl) Services() []api.ServiceDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.List()
}

func (s *storeImpl) Service(id string) (api.ServiceDescriptor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.registry.Get(id)
}

func (s *storeImpl) Endpoints(serviceID string) ([]api.OperationDescriptor, error) {
	s.mu.Lock()
	svc, ok := s.registry.Get(serviceID)
	s.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", api.ErrServiceNotFound, serviceID)
	}
	return synth.Extract(svc.ID, svc.Document, s.logger), nil
}

// documentFor returns the description a call node was built from, or nil.
func (s *storeImpl) documentFor(n *api.Node) *openapi.Document {
	if n.Endpoint == nil {
		return nil
	}
	svc, ok := s.registry.Get(n.Endpoint.ServiceID)
	if !ok {
		return nil
	}
	return svc.Document
}

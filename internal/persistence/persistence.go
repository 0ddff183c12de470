package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/flowcraft/pkg/api"
)

// Gateway gives typed access to the pipeline snapshot and the service
// registry on top of any DocumentStore.
type Gateway struct {
	Store DocumentStore
}

// NewGateway wraps store. A nil store means an in-memory one.
func NewGateway(store DocumentStore) *Gateway {
	if store == nil {
		store = NewInMemoryStore()
	}
	return &Gateway{Store: store}
}

// SavePipeline overwrites the stored pipeline wholesale.
func (g *Gateway) SavePipeline(ctx context.Context, p api.Pipeline) error {
	data, err := EncodeValue(p)
	if err != nil {
		return err
	}
	return g.Store.Put(ctx, KeyPipeline, data)
}

// LoadPipeline returns nil, nil when no pipeline has been saved.
func (g *Gateway) LoadPipeline(ctx context.Context) (*api.Pipeline, error) {
	data, err := g.Store.Get(ctx, KeyPipeline)
	if errors.Is(err, ErrDocumentNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p, err := DecodeValue[api.Pipeline](data)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *Gateway) SaveServices(ctx context.Context, services []api.ServiceDescriptor) error {
	if services == nil {
		services = []api.ServiceDescriptor{}
	}
	data, err := EncodeValue(services)
	if err != nil {
		return err
	}
	return g.Store.Put(ctx, KeyServices, data)
}

// LoadServices returns an empty registry when none has been saved.
func (g *Gateway) LoadServices(ctx context.Context) ([]api.ServiceDescriptor, error) {
	data, err := g.Store.Get(ctx, KeyServices)
	if errors.Is(err, ErrDocumentNotFound) {
		return []api.ServiceDescriptor{}, nil
	}
	if err != nil {
		return nil, err
	}
	return DecodeValue[[]api.ServiceDescriptor](data)
}

// Clear removes both the pipeline and the registry.
func (g *Gateway) Clear(ctx context.Context) error {
	if err := g.Store.Delete(ctx, KeyPipeline); err != nil {
		return err
	}
	return g.Store.Delete(ctx, KeyServices)
}

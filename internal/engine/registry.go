package engine

import (
	"slices"

	"github.com/petrijr/flowcraft/pkg/api"
)

// serviceRegistry keeps services in registration order. It is not
// goroutine-safe; the store's mutex guards it.
type serviceRegistry struct {
	services []api.ServiceDescriptor
}

func newServiceRegistry(services []api.ServiceDescriptor) *serviceRegistry {
	return &serviceRegistry{services: slices.Clone(services)}
}

func (r *serviceRegistry) Add(svc api.ServiceDescriptor) {
	r.services = append(r.services, svc)
}

func (r *serviceRegistry) Get(id string) (api.ServiceDescriptor, bool) {
	i := r.index(id)
	if i < 0 {
		return api.ServiceDescriptor{}, false
	}
	return r.services[i], true
}

// Remove drops the service and reports what was removed.
func (r *serviceRegistry) Remove(id string) (api.ServiceDescriptor, bool) {
	i := r.index(id)
	if i < 0 {
		return api.ServiceDescriptor{}, false
	}
	svc := r.services[i]
	r.services = slices.Delete(r.services, i, i+1)
	return svc, true
}

// List returns a copy. Documents are shared; they are never mutated after
// parsing.
func (r *serviceRegistry) List() []api.ServiceDescriptor {
	out := slices.Clone(r.services)
	if out == nil {
		out = []api.ServiceDescriptor{}
	}
	return out
}

func (r *serviceRegistry) index(id string) int {
	return slices.IndexFunc(r.services, func(s api.ServiceDescriptor) bool { return s.ID == id })
}

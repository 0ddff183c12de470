package engine

import (
	"fmt"
	"strings"

	"github.com/petrijr/flowcraft/pkg/api"
)

// FindEndpoint picks an operation of a registered service by operationId
// or by "METHOD /path".
func FindEndpoint(ed api.Editor, serviceID, ref string) (api.OperationDescriptor, error) {
	eps, err := ed.Endpoints(serviceID)
	if err != nil {
		return api.OperationDescriptor{}, err
	}
	ref = strings.TrimSpace(ref)
	method, path, isRoute := strings.Cut(ref, " ")
	for _, ep := range eps {
		if ep.OperationID != "" && ep.OperationID == ref {
			return ep, nil
		}
		if isRoute && strings.EqualFold(ep.Method, method) && ep.Path == strings.TrimSpace(path) {
			return ep, nil
		}
	}
	return api.OperationDescriptor{}, fmt.Errorf("%w: %s in service %s", api.ErrEndpointNotFound, ref, serviceID)
}

// OutputIndex locates an output port by id, returning its group and item
// indexes as SplitOutput expects them.
func OutputIndex(n api.Node, portID string) (int, int, bool) {
	for g, group := range n.Outputs {
		for i, p := range group.Items {
			if p.ID == portID {
				return g, i, true
			}
		}
	}
	return -1, -1, false
}

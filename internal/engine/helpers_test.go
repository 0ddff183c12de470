package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"
	"testing"

	"github.com/petrijr/flowcraft/pkg/api"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sequentialIDs() func() string {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	}
}

func newTestStore(t *testing.T, cfg Config) *storeImpl {
	t.Helper()
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	if cfg.NewID == nil {
		cfg.NewID = sequentialIDs()
	}
	return newStore(cfg)
}

func petstoreBytes(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/petstore.yaml")
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return data
}

// withPetstore registers the fixture and returns its endpoints by
// operationId.
func withPetstore(t *testing.T, s api.Editor) (api.ServiceDescriptor, map[string]api.OperationDescriptor) {
	t.Helper()

	svc, err := s.AddService(context.Background(), "Petstore", "fixture", petstoreBytes(t))
	if err != nil {
		t.Fatalf("AddService failed: %v", err)
	}
	eps, err := s.Endpoints(svc.ID)
	if err != nil {
		t.Fatalf("Endpoints failed: %v", err)
	}
	byOp := make(map[string]api.OperationDescriptor, len(eps))
	for _, ep := range eps {
		byOp[ep.OperationID] = ep
	}
	return svc, byOp
}

func mustCallNode(t *testing.T, s api.Editor, ep api.OperationDescriptor) api.Node {
	t.Helper()
	n, err := s.AddCallNode(ep)
	if err != nil {
		t.Fatalf("AddCallNode(%s) failed: %v", ep.OperationID, err)
	}
	return n
}

func inputNamed(t *testing.T, n api.Node, name string) api.InputPort {
	t.Helper()
	for _, in := range n.Inputs {
		if in.Name == name {
			return in
		}
	}
	t.Fatalf("node %s has no input %q", n.Label, name)
	return api.InputPort{}
}

func outputNamed(t *testing.T, n api.Node, name string) api.OutputPort {
	t.Helper()
	for _, g := range n.Outputs {
		for _, p := range g.Items {
			if p.Name == name {
				return p
			}
		}
	}
	t.Fatalf("node %s has no output %q", n.Label, name)
	return api.OutputPort{}
}

// connectedCount checks the connected flag against the edge list for every
// input in the pipeline.
func assertConnectedInvariant(t *testing.T, s api.Editor) {
	t.Helper()
	p := s.Pipeline()
	for _, n := range p.Nodes {
		for _, in := range n.Inputs {
			count := 0
			for _, e := range p.Edges {
				if e.TargetNodeID == n.ID && e.TargetPortID == in.ID {
					count++
				}
			}
			if in.Connected != (count == 1) || count > 1 {
				t.Fatalf("port %s/%s: connected=%v with %d edges", n.Label, in.Name, in.Connected, count)
			}
		}
	}
}

package engine

import (
	"errors"
	"testing"

	"github.com/petrijr/flowcraft/pkg/api"
)

func TestFindEndpoint(t *testing.T) {
	s := newTestStore(t, Config{})
	svc, _ := withPetstore(t, s)

	byID, err := FindEndpoint(s, svc.ID, "showPetById")
	if err != nil || byID.Path != "/pets/{petId}" {
		t.Fatalf("lookup by operationId failed: %+v, %v", byID, err)
	}
	byRoute, err := FindEndpoint(s, svc.ID, "DELETE /pets/{petId}")
	if err != nil || byRoute.OperationID != "deletePet" {
		t.Fatalf("lookup by route failed: %+v, %v", byRoute, err)
	}

	if _, err := FindEndpoint(s, svc.ID, "feedPet"); !errors.Is(err, api.ErrEndpointNotFound) {
		t.Fatalf("expected ErrEndpointNotFound, got %v", err)
	}
	if _, err := FindEndpoint(s, "ghost", "listPets"); !errors.Is(err, api.ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestOutputIndex(t *testing.T) {
	n := api.Node{Outputs: []api.OutputGroup{
		{StatusCode: "200", Items: []api.OutputPort{{ID: "a"}}},
		{StatusCode: "400", Items: []api.OutputPort{{ID: "b"}, {ID: "c"}}},
	}}
	if g, i, ok := OutputIndex(n, "c"); !ok || g != 1 || i != 1 {
		t.Fatalf("unexpected index %d/%d", g, i)
	}
	if _, _, ok := OutputIndex(n, "z"); ok {
		t.Fatalf("missing port must be a miss")
	}
}

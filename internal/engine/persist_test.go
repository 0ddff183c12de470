package engine

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"sync"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/petrijr/flowcraft/internal/persistence"
	"github.com/petrijr/flowcraft/pkg/api"
)

var errBackendDown = errors.New("backend down")

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte) error   { return errBackendDown }
func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, errBackendDown }
func (failingStore) Delete(context.Context, string) error        { return errBackendDown }

func failingGateway() *persistence.Gateway {
	return persistence.NewGateway(failingStore{})
}

func TestLoad_NothingSaved(t *testing.T) {
	s := newTestStore(t, Config{})
	p, err := s.Load(context.Background())
	if err != nil || p != nil {
		t.Fatalf("expected nil, nil; got %v, %v", p, err)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	metrics := &api.BasicMetrics{}
	s := newTestStore(t, Config{Observer: metrics})
	ctx := context.Background()
	_, eps := withPetstore(t, s)

	create := mustCallNode(t, s, eps["createPet"])
	list := mustCallNode(t, s, eps["listPets"])
	if _, err := s.AddEdge(create.ID, list.ID, outputNamed(t, create, "id").ID, inputNamed(t, list, "limit").ID); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	saved, err := s.Save(ctx, "Adoption")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.Name != "Adoption" || saved.SavedAt == nil {
		t.Fatalf("unexpected snapshot: %+v", saved)
	}
	if s.Pipeline().Name != "Adoption" {
		t.Fatalf("name must be applied to the session")
	}

	// Diverge, then restore.
	s.RemoveNode(list.ID)
	tag := inputNamed(t, create, "tag").ID
	if err := s.StageInputValue(create.ID, tag, "x"); err != nil {
		t.Fatalf("StageInputValue failed: %v", err)
	}

	loaded, err := s.Load(ctx)
	if err != nil || loaded == nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded.Nodes) != 2 || len(loaded.Edges) != 1 {
		t.Fatalf("unexpected pipeline: %d nodes, %d edges", len(loaded.Nodes), len(loaded.Edges))
	}
	if _, ok := s.Draft(tag); ok {
		t.Fatalf("Load must drop drafts")
	}
	got, _ := s.Node(list.ID)
	if !inputNamed(t, got, "limit").Connected {
		t.Fatalf("connected flag must survive the round trip")
	}
	assertConnectedInvariant(t, s)

	if metrics.Snapshot().Saves != 1 {
		t.Fatalf("save must reach the observer")
	}
}

func TestSaveLoad_PipelineIsDeepEqual(t *testing.T) {
	ctx := context.Background()
	gw := persistence.NewGateway(nil)
	s := newTestStore(t, Config{Gateway: gw})
	_, eps := withPetstore(t, s)

	s.SetPipelineDescription("typed values")
	s.SetGlobalVariable("retries", 3)
	s.SetGlobalVariable("regions", []string{"eu", "us"})
	s.AddPipelineInput(api.PipelineIO{Name: "count", Type: "integer", Value: 5})
	s.AddPipelineOutput(api.PipelineIO{Name: "pet", Type: "object"})

	create := mustCallNode(t, s, eps["createPet"])
	fixed := mustCallNode(t, s, eps["listPets"])
	wired := mustCallNode(t, s, eps["listPets"])
	if _, err := s.AddEdge(create.ID, wired.ID, outputNamed(t, create, "id").ID, inputNamed(t, wired, "limit").ID); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	limit := inputNamed(t, fixed, "limit").ID
	if err := s.StageInputValue(fixed.ID, limit, 5); err != nil {
		t.Fatalf("StageInputValue failed: %v", err)
	}
	if err := s.CommitDraft(limit); err != nil {
		t.Fatalf("CommitDraft failed: %v", err)
	}

	got, _ := s.Node(fixed.ID)
	if v := inputNamed(t, got, "limit").Value; v != float64(5) {
		t.Fatalf("committed value must already be in stored form, got %T %v", v, v)
	}

	if _, err := s.Save(ctx, "Typed"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	want := s.Pipeline()

	reopened, err := Open(ctx, Config{Gateway: gw, Logger: quietLogger(), NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := reopened.Pipeline(); !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip changed the pipeline:\n got %+v\nwant %+v", got, want)
	}
}

func TestSave_FailureLeavesSessionUntouched(t *testing.T) {
	metrics := &api.BasicMetrics{}
	s := newTestStore(t, Config{Gateway: failingGateway(), Observer: metrics})
	s.SetPipelineName("Draft")

	if _, err := s.Save(context.Background(), "Final"); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
	p := s.Pipeline()
	if p.Name != "Draft" || p.SavedAt != nil {
		t.Fatalf("failed save must not change the session: %+v", p)
	}
	if metrics.Snapshot().PersistFailures != 1 {
		t.Fatalf("failure must reach the observer")
	}
	if _, err := s.Load(context.Background()); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestAutoSave_WritesAfterMutations(t *testing.T) {
	gw := persistence.NewGateway(nil)
	s := newTestStore(t, Config{Gateway: gw, AutoSave: true})
	ctx := context.Background()

	n := s.AddNode(api.Node{Label: "a"})
	p, err := gw.LoadPipeline(ctx)
	if err != nil || p == nil || len(p.Nodes) != 1 {
		t.Fatalf("autosave did not write the node: %v, %v", p, err)
	}

	s.RemoveNode(n.ID)
	p, _ = gw.LoadPipeline(ctx)
	if len(p.Nodes) != 0 {
		t.Fatalf("autosave did not write the removal")
	}
}

func TestAutoSave_FailureIsReportedNotReturned(t *testing.T) {
	metrics := &api.BasicMetrics{}
	s := newTestStore(t, Config{Gateway: failingGateway(), AutoSave: true, Observer: metrics})

	s.AddNode(api.Node{Label: "a"})
	s.SetPipelineName("x")

	if len(s.Nodes()) != 1 || s.Pipeline().Name != "x" {
		t.Fatalf("mutations must apply despite flush failures")
	}
	if metrics.Snapshot().PersistFailures != 2 {
		t.Fatalf("expected 2 persist failures, got %d", metrics.Snapshot().PersistFailures)
	}
}

func TestOpen_HydratesRegistryAndPipeline(t *testing.T) {
	ctx := context.Background()
	gw := persistence.NewGateway(nil)

	first := newTestStore(t, Config{Gateway: gw})
	svc, eps := withPetstore(t, first)
	mustCallNode(t, first, eps["showPetById"])
	if _, err := first.Save(ctx, "saved"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	second, err := Open(ctx, Config{Gateway: gw, Logger: quietLogger(), NewID: sequentialIDs()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if second.Pipeline().Name != "saved" || len(second.Nodes()) != 1 {
		t.Fatalf("pipeline not hydrated: %+v", second.Pipeline())
	}
	restored, ok := second.Service(svc.ID)
	if !ok || restored.Name != "Petstore" {
		t.Fatalf("registry not hydrated")
	}
	again, err := second.Endpoints(svc.ID)
	if err != nil || len(again) != 4 {
		t.Fatalf("endpoints must be recoverable from the stored description: %d, %v", len(again), err)
	}

	if _, err := Open(ctx, Config{Gateway: failingGateway()}); !errors.Is(err, errBackendDown) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

type serviceCounter struct {
	api.NoopObserver
	loaded []string
}

func (c *serviceCounter) OnServicesLoaded(_ context.Context, services []api.ServiceDescriptor) {
	for _, svc := range services {
		c.loaded = append(c.loaded, svc.ID)
	}
}

func TestOpen_ReportsLoadedServices(t *testing.T) {
	ctx := context.Background()
	gw := persistence.NewGateway(nil)
	first := newTestStore(t, Config{Gateway: gw})
	svc, _ := withPetstore(t, first)

	obs := &serviceCounter{}
	if _, err := Open(ctx, Config{Gateway: gw, Observer: obs, Logger: quietLogger()}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(obs.loaded) != 1 || obs.loaded[0] != svc.ID {
		t.Fatalf("expected the stored service to be reported, got %v", obs.loaded)
	}
}

func TestOpen_EmptyBackend(t *testing.T) {
	ed, err := Open(context.Background(), Config{Logger: quietLogger()})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if len(ed.Services()) != 0 || len(ed.Nodes()) != 0 || ed.Pipeline().ID == "" {
		t.Fatalf("expected an empty session with an id")
	}
}

func TestSQLiteEditor_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	cfg := Config{Logger: quietLogger(), AutoSave: true}
	ed, err := NewSQLiteEditor(ctx, db, cfg)
	if err != nil {
		t.Fatalf("NewSQLiteEditor failed: %v", err)
	}
	svc, eps := withPetstore(t, ed)
	mustCallNode(t, ed, eps["deletePet"])

	reopened, err := NewSQLiteEditor(ctx, db, cfg)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if len(reopened.Nodes()) != 1 {
		t.Fatalf("autosaved node missing after reopen")
	}
	if _, ok := reopened.Service(svc.ID); !ok {
		t.Fatalf("service missing after reopen")
	}
}

func TestConcurrentMutations(t *testing.T) {
	metrics := &api.BasicMetrics{}
	s := newTestStore(t, Config{Observer: metrics, AutoSave: true})

	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n := s.AddNode(api.Node{
					Label:  "n",
					Inputs: []api.InputPort{{ID: "", Name: "in", Type: "string"}},
				})
				_ = s.Pipeline()
				if i%5 == 0 {
					s.RemoveNode(n.ID)
				}
			}
		}()
	}
	wg.Wait()

	want := workers * (perWorker - perWorker/5)
	if got := len(s.Nodes()); got != want {
		t.Fatalf("expected %d nodes, got %d", want, got)
	}
	snap := metrics.Snapshot()
	if snap.NodesAdded != workers*perWorker || snap.LiveNodes != int64(want) {
		t.Fatalf("unexpected metrics: %+v", snap)
	}
}

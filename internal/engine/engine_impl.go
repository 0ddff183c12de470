package engine

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/petrijr/flowcraft/internal/arazzo"
	"github.com/petrijr/flowcraft/internal/persistence"
	"github.com/petrijr/flowcraft/internal/synth"
	"github.com/petrijr/flowcraft/pkg/api"
	"github.com/petrijr/flowcraft/pkg/openapi"
)

// DefaultFlushTimeout bounds an autosave flush.
const DefaultFlushTimeout = 5 * time.Second

// storeImpl is the in-process graph store behind api.Editor.
//
// Every exported method holds mu for its whole duration, persistence calls
// included, so operations are totally ordered. Observers are notified with
// mu held and must not call back into the store.
type storeImpl struct {
	mu sync.Mutex

	gateway   *persistence.Gateway
	observer  api.Observer
	validator openapi.Validator
	logger    *slog.Logger
	synth     *synth.Synthesizer
	newID     func() string

	autoSave     bool
	flushTimeout time.Duration

	pipeline api.Pipeline
	registry *serviceRegistry
	drafts   map[string]api.Draft
}

var _ api.Editor = (*storeImpl)(nil)

// Config describes how to construct a store.
type Config struct {
	// Gateway persists the pipeline and the service registry. Nil means an
	// in-memory gateway.
	Gateway *persistence.Gateway

	Observer api.Observer

	// Validator checks descriptions passed to AddService. Nil means
	// openapi.KinValidator.
	Validator openapi.Validator

	// Logger receives reference resolution warnings. Nil means
	// slog.Default().
	Logger *slog.Logger

	// AutoSave flushes the pipeline after every mutating operation.
	AutoSave     bool
	FlushTimeout time.Duration

	// NewID mints node, port, edge and declaration ids. Nil means
	// uuid.NewString.
	NewID func() string
}

// NewEditorWithConfig creates an empty session. It does not read the
// gateway; use Open to hydrate from persisted state.
func NewEditorWithConfig(cfg Config) api.Editor {
	return newStore(cfg)
}

// NewEditor returns an empty session persisting through gw.
func NewEditor(gw *persistence.Gateway) api.Editor {
	return newStore(Config{Gateway: gw})
}

// NewInMemoryEditor returns a session backed entirely by memory.
func NewInMemoryEditor() api.Editor {
	return newStore(Config{})
}

// NewInMemoryEditorWithObserver returns an in-memory session reporting to obs.
func NewInMemoryEditorWithObserver(obs api.Observer) api.Editor {
	return newStore(Config{Observer: obs})
}

// Open creates a session and hydrates it from the gateway: the service
// registry always, the pipeline when one has been saved.
func Open(ctx context.Context, cfg Config) (api.Editor, error) {
	s := newStore(cfg)

	services, err := s.gateway.LoadServices(ctx)
	if err != nil {
		return nil, err
	}
	s.registry = newServiceRegistry(services)
	s.observer.OnServicesLoaded(ctx, s.registry.List())

	p, err := s.gateway.LoadPipeline(ctx)
	if err != nil {
		return nil, err
	}
	if p != nil {
		s.pipeline = p.Clone()
		s.observer.OnPipelineLoaded(ctx, s.pipeline.Clone())
	}
	return s, nil
}

func newStore(cfg Config) *storeImpl {
	obs := cfg.Observer
	if obs == nil {
		obs = api.NoopObserver{}
	}
	gw := cfg.Gateway
	if gw == nil {
		gw = persistence.NewGateway(nil)
	}
	v := cfg.Validator
	if v == nil {
		v = openapi.KinValidator{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	flush := cfg.FlushTimeout
	if flush <= 0 {
		flush = DefaultFlushTimeout
	}

	sy := synth.New(logger)
	sy.NewID = newID

	return &storeImpl{
		gateway:      gw,
		observer:     obs,
		validator:    v,
		logger:       logger,
		synth:        sy,
		newID:        newID,
		autoSave:     cfg.AutoSave,
		flushTimeout: flush,
		pipeline:     emptyPipeline(newID()),
		registry:     newServiceRegistry(nil),
		drafts:       make(map[string]api.Draft),
	}
}

func emptyPipeline(id string) api.Pipeline {
	return api.Pipeline{
		ID:              id,
		Nodes:           []api.Node{},
		Edges:           []api.Edge{},
		Inputs:          []api.PipelineIO{},
		Outputs:         []api.PipelineIO{},
		GlobalVariables: map[string]any{},
	}
}

// Export projects the session's current pipeline into a workflow document.
func Export(ed api.Editor) *arazzo.Document {
	return arazzo.FromPipeline(ed.Pipeline())
}

// changed runs after every successful mutation. With autosave on it writes
// the pipeline; failures go to the observer only.
func (s *storeImpl) changed() {
	if !s.autoSave {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.flushTimeout)
	defer cancel()

	if err := s.gateway.SavePipeline(ctx, s.pipeline.Clone()); err != nil {
		s.observer.OnPersistFailed(ctx, "autosave", err)
	}
}

// ---- lookups (mu held) ----

func (s *storeImpl) nodeIndex(id string) int {
	return slices.IndexFunc(s.pipeline.Nodes, func(n api.Node) bool { return n.ID == id })
}

func (s *storeImpl) node(id string) (*api.Node, bool) {
	i := s.nodeIndex(id)
	if i < 0 {
		return nil, false
	}
	return &s.pipeline.Nodes[i], true
}

func (s *storeImpl) edgeIndex(id string) int {
	return slices.IndexFunc(s.pipeline.Edges, func(e api.Edge) bool { return e.ID == id })
}

func ioIndex(ios []api.PipelineIO, id string) int {
	return slices.IndexFunc(ios, func(io api.PipelineIO) bool { return io.ID == id })
}

// ---- queries ----

func (s *storeImpl) Node(id string) (api.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.node(id)
	if !ok {
		return api.Node{}, false
	}
	return n.Clone(), true
}

func (s *storeImpl) Nodes() []api.Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]api.Node, len(s.pipeline.Nodes))
	for i, n := range s.pipeline.Nodes {
		out[i] = n.Clone()
	}
	return out
}

func (s *storeImpl) Edges() []api.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := slices.Clone(s.pipeline.Edges)
	if out == nil {
		out = []api.Edge{}
	}
	return out
}

func (s *storeImpl) Pipeline() api.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pipeline.Clone()
}

// ---- metadata ----

func (s *storeImpl) SetPipelineName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pipeline.Name = name
	s.changed()
}

func (s *storeImpl) SetPipelineDescription(description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pipeline.Description = description
	s.changed()
}

func (s *storeImpl) SetGlobalVariable(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pipeline.GlobalVariables == nil {
		s.pipeline.GlobalVariables = map[string]any{}
	}
	s.pipeline.GlobalVariables[key] = persistence.NormalizeValue(value)
	s.changed()
}

func (s *storeImpl) RemoveGlobalVariable(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pipeline.GlobalVariables[key]; !ok {
		return false
	}
	delete(s.pipeline.GlobalVariables, key)
	s.changed()
	return true
}

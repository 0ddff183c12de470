package engine

import (
	"context"
	"time"

	"github.com/petrijr/flowcraft/pkg/api"
)

// Save writes a snapshot of the pipeline. Name and SavedAt are applied to
// the session only once the write succeeded.
func (s *storeImpl) Save(ctx context.Context, name string) (api.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	snap := s.pipeline.Clone()
	if name != "" {
		snap.Name = name
	}
	at := start.UTC()
	snap.SavedAt = &at

	if err := s.gateway.SavePipeline(ctx, snap); err != nil {
		s.observer.OnPersistFailed(ctx, "save", err)
		return api.Pipeline{}, err
	}

	s.pipeline.Name = snap.Name
	s.pipeline.SavedAt = &at
	s.observer.OnPipelineSaved(ctx, snap, time.Since(start))
	return snap.Clone(), nil
}

// Load replaces the session's pipeline with the saved one and drops every
// draft. It returns nil, nil when nothing has been saved.
func (s *storeImpl) Load(ctx context.Context) (*api.Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.gateway.LoadPipeline(ctx)
	if err != nil {
		s.observer.OnPersistFailed(ctx, "load", err)
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	s.pipeline = p.Clone()
	if s.pipeline.ID == "" {
		s.pipeline.ID = s.newID()
	}
	clear(s.drafts)

	s.observer.OnPipelineLoaded(ctx, s.pipeline.Clone())
	out := s.pipeline.Clone()
	return &out, nil
}

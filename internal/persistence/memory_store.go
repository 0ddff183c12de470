package persistence

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/petrijr/flowcraft/pkg/api"
)

// InMemoryStore is a goroutine-safe DocumentStore backed by a map.
type InMemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		docs: make(map[string][]byte),
	}
}

var _ DocumentStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.docs[key] = slices.Clone(data)
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.docs[key]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return slices.Clone(data), nil
}

func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.docs, key)
	return nil
}

// InMemoryEventStore keeps editor history in a slice.
type InMemoryEventStore struct {
	mu     sync.Mutex
	seq    int64
	events []api.EditorEvent
}

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

var _ EventStore = (*InMemoryEventStore)(nil)

func (s *InMemoryEventStore) AppendEvent(ctx context.Context, ev api.EditorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ev.Seq = s.seq
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, subject string) ([]api.EditorEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []api.EditorEvent
	for _, ev := range s.events {
		if subject == "" || ev.Subject == subject {
			out = append(out, ev)
		}
	}
	return out, nil
}

package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// exerciseDocumentStore checks the behaviour every DocumentStore shares.
// Keys are namespaced by prefix so suites can share a backend.
func exerciseDocumentStore(t *testing.T, store DocumentStore, prefix string) {
	t.Helper()
	r := require.New(t)
	ctx := context.Background()
	key := prefix + "doc"

	_, err := store.Get(ctx, key)
	r.True(errors.Is(err, ErrDocumentNotFound), "expected ErrDocumentNotFound, got %v", err)

	r.NoError(store.Put(ctx, key, []byte(`{"v":1}`)))
	got, err := store.Get(ctx, key)
	r.NoError(err)
	r.JSONEq(`{"v":1}`, string(got))

	r.NoError(store.Put(ctx, key, []byte(`{"v":2}`)))
	got, err = store.Get(ctx, key)
	r.NoError(err)
	r.JSONEq(`{"v":2}`, string(got), "Put must overwrite")

	r.NoError(store.Put(ctx, prefix+"other", []byte(`[]`)))
	r.NoError(store.Delete(ctx, key))
	_, err = store.Get(ctx, key)
	r.True(errors.Is(err, ErrDocumentNotFound), "expected ErrDocumentNotFound after Delete, got %v", err)

	other, err := store.Get(ctx, prefix+"other")
	r.NoError(err)
	r.Equal(`[]`, string(other), "Delete must not touch other keys")

	r.NoError(store.Delete(ctx, prefix+"missing"), "Delete of a missing key is not an error")
}

// exerciseGateway round-trips a pipeline and a registry through store.
func exerciseGateway(t *testing.T, store DocumentStore) {
	t.Helper()
	r := require.New(t)
	ctx := context.Background()
	gw := NewGateway(store)
	r.NoError(gw.Clear(ctx))

	p, err := gw.LoadPipeline(ctx)
	r.NoError(err)
	r.Nil(p, "nothing saved yet")

	svcs, err := gw.LoadServices(ctx)
	r.NoError(err)
	r.Empty(svcs)

	want := samplePipeline()
	r.NoError(gw.SavePipeline(ctx, want))
	r.NoError(gw.SaveServices(ctx, sampleServices(t)))

	got, err := gw.LoadPipeline(ctx)
	r.NoError(err)
	r.NotNil(got)
	r.Equal(want.ID, got.ID)
	r.Equal(want.Name, got.Name)
	r.Len(got.Nodes, len(want.Nodes))
	r.Equal(want.Edges, got.Edges)
	r.True(got.Nodes[1].Inputs[0].Connected)
	r.Equal([]string{"items"}, got.Nodes[0].Outputs[0].Items[0].Path)

	loaded, err := gw.LoadServices(ctx)
	r.NoError(err)
	r.Len(loaded, 1)
	r.Equal("Petstore", loaded[0].Name)
	r.NotNil(loaded[0].Document)

	var paths []string
	for pair := loaded[0].Document.Paths.Oldest(); pair != nil; pair = pair.Next() {
		paths = append(paths, pair.Key)
	}
	r.Equal([]string{"/zebras", "/ants"}, paths, "path order must survive persistence")
}

package flowcraft

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petrijr/flowcraft/pkg/api"
	"github.com/stretchr/testify/require"
)

// TestSQLiteBundle_DurableAcrossRestart checks that an autosaved pipeline and
// its edit history survive a simulated process restart.
func TestSQLiteBundle_DurableAcrossRestart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPath := filepath.Join(t.TempDir(), "flowcraft_bundle.db")
	dsn := "file:" + dbPath + "?_journal=WAL"
	petstore, err := os.ReadFile("testdata/petstore.yaml")
	require.NoError(t, err)

	// --- Phase 1: build a small pipeline with autosave on.

	db1, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db1.SetMaxOpenConns(1)

	bundle1, err := NewSQLiteBundle(ctx, db1, EditorConfig{AutoSave: true})
	require.NoError(t, err)

	built, err := NewPipeline("Adopt").
		Service("pets", "Petstore", petstore).
		Call("create", "pets", "createPet").
		Call("list", "pets", "listPets").
		Connect("create.id", "list.limit").
		Build(ctx, bundle1.Editor)
	require.NoError(t, err)

	history, err := bundle1.History(ctx, "")
	require.NoError(t, err)
	require.NotEmpty(t, history)

	nodeEvents, err := bundle1.History(ctx, built.Nodes["list"].ID)
	require.NoError(t, err)
	require.Len(t, nodeEvents, 1)
	require.Equal(t, api.EventNodeAdded, nodeEvents[0].Type)

	require.NoError(t, db1.Close())

	// --- Phase 2: reopen and find everything in place.

	db2, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db2.SetMaxOpenConns(1)
	defer db2.Close()

	bundle2, err := NewSQLiteBundle(ctx, db2, EditorConfig{})
	require.NoError(t, err)

	p := bundle2.Editor.Pipeline()
	require.Equal(t, "Adopt", p.Name)
	require.Len(t, p.Nodes, 2)
	require.Len(t, p.Edges, 1)
	require.Len(t, bundle2.Editor.Services(), 1)

	before := len(history)
	bundle2.Editor.RemoveEdge(p.Edges[0].ID)
	after, err := bundle2.History(ctx, "")
	require.NoError(t, err)
	require.Greater(t, len(after), before, "new events append to the same history")
}

package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/petrijr/flowcraft/pkg/api"
)

func newTestSQLiteDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	// A :memory: database is per connection.
	db.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

func newTestSQLiteStore(t *testing.T) *SQLiteDocumentStore {
	t.Helper()

	store, err := NewSQLiteDocumentStore(newTestSQLiteDB(t))
	if err != nil {
		t.Fatalf("NewSQLiteDocumentStore failed: %v", err)
	}
	return store
}

func TestSQLiteDocumentStore_DocumentContract(t *testing.T) {
	exerciseDocumentStore(t, newTestSQLiteStore(t), "sqlite:")
}

func TestSQLiteDocumentStore_Gateway(t *testing.T) {
	exerciseGateway(t, newTestSQLiteStore(t))
}

func TestSQLiteDocumentStore_SchemaIsIdempotent(t *testing.T) {
	db := newTestSQLiteDB(t)
	first, err := NewSQLiteDocumentStore(db)
	if err != nil {
		t.Fatalf("first init failed: %v", err)
	}
	if err := first.Put(context.Background(), "k", []byte("1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	second, err := NewSQLiteDocumentStore(db)
	if err != nil {
		t.Fatalf("second init failed: %v", err)
	}
	got, err := second.Get(context.Background(), "k")
	if err != nil || string(got) != "1" {
		t.Fatalf("data lost across init: %q, %v", got, err)
	}
}

func TestSQLiteEventStore_AppendAndList(t *testing.T) {
	db := newTestSQLiteDB(t)
	store, err := NewSQLiteEventStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteEventStore failed: %v", err)
	}
	ctx := context.Background()
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	for _, ev := range []api.EditorEvent{
		{At: at, Type: api.EventServiceAdded, Subject: "svc", Detail: "Petstore"},
		{At: at, Type: api.EventNodeAdded, Subject: "n1", Detail: "GET /pets"},
		{Type: api.EventNodeRemoved, Subject: "n1"},
	} {
		if err := store.AppendEvent(ctx, ev); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	all, err := store.ListEvents(ctx, "")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 events, got %d", len(all))
	}
	if all[0].Seq >= all[1].Seq || !all[0].At.Equal(at) || all[0].Detail != "Petstore" {
		t.Fatalf("unexpected first event: %+v", all[0])
	}
	if all[2].At.IsZero() {
		t.Fatalf("missing At must be stamped")
	}

	n1, err := store.ListEvents(ctx, "n1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(n1) != 2 || n1[0].Type != api.EventNodeAdded || n1[1].Type != api.EventNodeRemoved {
		t.Fatalf("unexpected n1 history: %+v", n1)
	}
}

package flowcraft

import (
	"context"
	"database/sql"

	"github.com/petrijr/flowcraft/internal/persistence"
)

// SQLiteBundle is an editor plus its edit history, both stored in the same
// SQLite database.
type SQLiteBundle struct {
	Editor Editor

	events persistence.EventStore
}

// NewSQLiteBundle opens a durable session on db and records every editor
// event in an editor_events table next to the documents. cfg.Observer, if
// set, still receives all callbacks.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:flowcraft.db?_journal=WAL")
//	bundle, err := flowcraft.NewSQLiteBundle(ctx, db, flowcraft.EditorConfig{AutoSave: true})
//	// edit through bundle.Editor
//	history, _ := bundle.History(ctx, "")
func NewSQLiteBundle(ctx context.Context, db *sql.DB, cfg EditorConfig) (*SQLiteBundle, error) {
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	cfg.Observer = NewCompositeObserver(cfg.Observer, persistence.NewEventRecorder(events))

	ed, err := NewSQLiteEditor(ctx, db, cfg)
	if err != nil {
		return nil, err
	}
	return &SQLiteBundle{Editor: ed, events: events}, nil
}

// History lists recorded events for subject, or all events when subject is
// empty, oldest first.
func (b *SQLiteBundle) History(ctx context.Context, subject string) ([]EditorEvent, error) {
	return b.events.ListEvents(ctx, subject)
}

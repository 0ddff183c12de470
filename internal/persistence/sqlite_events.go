package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/flowcraft/pkg/api"
)

// SQLiteEventStore stores editor events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS editor_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_editor_events_subject ON editor_events(subject, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.EditorEvent) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO editor_events (at, type, subject, detail)
		VALUES (?, ?, ?, ?)`,
		at.UnixNano(),
		string(ev.Type),
		ev.Subject,
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, subject string) ([]api.EditorEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, at, type, subject, detail
		FROM editor_events
		WHERE ? = '' OR subject = ?
		ORDER BY id ASC`, subject, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.EditorEvent
	for rows.Next() {
		var (
			seq    int64
			atN    int64
			typ    string
			subj   string
			detail string
		)
		if err := rows.Scan(&seq, &atN, &typ, &subj, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.EditorEvent{
			Seq:     seq,
			At:      time.Unix(0, atN),
			Type:    api.EventType(typ),
			Subject: subj,
			Detail:  detail,
		})
	}
	return out, rows.Err()
}

package usage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists usage events in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed creates) the usage database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open usage database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate usage database: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event TEXT NOT NULL,
		pseudonym_id TEXT NOT NULL,
		detail TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_usage_event ON usage_events(event);
	CREATE INDEX IF NOT EXISTS idx_usage_pseudonym ON usage_events(pseudonym_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveEvent appends one event row. detail is a JSON object or "".
func (s *Store) SaveEvent(ctx context.Context, event, pseudonymID, detail string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_events (event, pseudonym_id, detail, created_at) VALUES (?, ?, ?, ?)`,
		event, pseudonymID, detail, time.Now().UTC())
	return err
}

// EventRecord is a row from the usage_events table.
type EventRecord struct {
	ID          int64
	Event       string
	PseudonymID string
	Detail      string
	CreatedAt   time.Time
}

// RecentEvents returns up to limit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event, pseudonym_id, COALESCE(detail, ''), created_at
		 FROM usage_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []EventRecord
	for rows.Next() {
		var r EventRecord
		if err := rows.Scan(&r.ID, &r.Event, &r.PseudonymID, &r.Detail, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// CountByEvent returns how many times each event name was recorded.
func (s *Store) CountByEvent(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT event, COUNT(*) FROM usage_events GROUP BY event`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var event string
		var n int
		if err := rows.Scan(&event, &n); err != nil {
			return nil, err
		}
		counts[event] = n
	}

	return counts, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Package history keeps an append-only log of generation calls in a
// SQLite database. It exists purely for reporting: nothing in the
// pipeline reads it back.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one recorded generation call.
type Entry struct {
	ID         string
	CreatedAt  time.Time
	Mode       string // generate, batch, script, podcast
	Voice      string
	Speed      float64
	TextLength int
	Duration   time.Duration
	OutputPath string
}

// Store is a SQLite-backed history log.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// Open creates or opens the history database at path, creating parent
// directories as needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS generations (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    mode TEXT NOT NULL,
    voice TEXT NOT NULL,
    speed REAL NOT NULL,
    text_length INTEGER NOT NULL,
    duration_ms INTEGER NOT NULL,
    output_path TEXT
);
CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at);
`
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Record appends one entry. A zero ID or CreatedAt is filled in.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations(id, created_at, mode, voice, speed, text_length, duration_ms, output_path)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.CreatedAt, e.Mode, e.Voice, e.Speed, e.TextLength, e.Duration.Milliseconds(), e.OutputPath)
	if err != nil {
		return fmt.Errorf("record generation: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, mode, voice, speed, text_length, duration_ms, output_path
		 FROM generations ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			durationMS int64
		)
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.Mode, &e.Voice, &e.Speed, &e.TextLength, &durationMS, &e.OutputPath); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Package store keeps an embedded audit log of compile requests —
// compile ID, source hash, timestamp, result, error message if any, and
// emitted assembly line count — queryable via `toycc history`.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no cgo
)

const schema = `
CREATE TABLE IF NOT EXISTS compiles (
	compile_id   TEXT PRIMARY KEY,
	source_hash  TEXT NOT NULL,
	started_at   TIMESTAMP NOT NULL,
	result       TEXT NOT NULL,
	error        TEXT,
	asm_lines    INTEGER NOT NULL
);
`

// Record is one row of the compile audit log.
type Record struct {
	CompileID  string
	SourceHash string
	StartedAt  time.Time
	Result     string // "ok" or "error"
	Error      string
	AsmLines   int
}

// Store wraps a sqlite-backed audit log. Grounded on the teacher's
// pkg/database.SQLiteDB (sql.Open("sqlite", dsn), single-connection pool
// since SQLite serializes writes anyway), narrowed to the one table a
// compile history needs instead of the teacher's general-purpose query
// surface.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures the compiles table exists. path may be ":memory:".
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: pinging %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one compile audit entry. A record with a duplicate
// CompileID replaces the prior one, in case a caller retries recording
// after a transient error.
func (s *Store) Record(ctx context.Context, rec Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO compiles (compile_id, source_hash, started_at, result, error, asm_lines)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(compile_id) DO UPDATE SET
			source_hash = excluded.source_hash,
			started_at  = excluded.started_at,
			result      = excluded.result,
			error       = excluded.error,
			asm_lines   = excluded.asm_lines
	`, rec.CompileID, rec.SourceHash, rec.StartedAt, rec.Result, nullableString(rec.Error), rec.AsmLines)
	if err != nil {
		return fmt.Errorf("store: recording compile %s: %w", rec.CompileID, err)
	}
	return nil
}

// History returns the most recent limit compile records, newest first.
func (s *Store) History(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT compile_id, source_hash, started_at, result, COALESCE(error, ''), asm_lines
		FROM compiles
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: querying history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.CompileID, &r.SourceHash, &r.StartedAt, &r.Result, &r.Error, &r.AsmLines); err != nil {
			return nil, fmt.Errorf("store: scanning history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Package requestlog persists a per-translation audit trail to SQLite or
// Postgres. Writes are best effort: the service logs and continues when an
// insert fails.
package requestlog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Entry records one translation attempt.
type Entry struct {
	TraceID    string
	Tier       string
	Model      string
	SourceLang string
	TargetLang string
	TextChars  int
	Cached     bool
	ErrorMsg   string
	LatencyMS  int64
	CreatedAt  time.Time
}

// Writer persists audit entries.
type Writer interface {
	Write(ctx context.Context, entry Entry) error
	Close() error
}

// NoopWriter ignores all writes; used when the audit log is disabled.
type NoopWriter struct{}

func (NoopWriter) Write(_ context.Context, _ Entry) error { return nil }
func (NoopWriter) Close() error                           { return nil }

// SQLWriter persists entries via database/sql.
type SQLWriter struct {
	db      *sql.DB
	dialect string
}

// NewSQLiteWriter opens (or creates) a SQLite-backed writer at dsn.
func NewSQLiteWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "linguagw-translations.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite audit log: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "sqlite"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// NewPostgresWriter opens a Postgres-backed writer.
func NewPostgresWriter(dsn string) (*SQLWriter, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres audit log: %w", err)
	}
	w := &SQLWriter{db: db, dialect: "postgres"}
	if err := w.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *SQLWriter) init() error {
	if err := w.db.Ping(); err != nil {
		return fmt.Errorf("ping %s audit log: %w", w.dialect, err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS translation_logs (
	id INTEGER PRIMARY KEY,
	trace_id TEXT,
	tier TEXT NOT NULL,
	model TEXT,
	source_lang TEXT,
	target_lang TEXT,
	text_chars INTEGER NOT NULL,
	cached INTEGER NOT NULL,
	error_message TEXT,
	latency_ms INTEGER NOT NULL,
	created_at TIMESTAMP NOT NULL
);`
	if w.dialect == "postgres" {
		ddl = `
CREATE TABLE IF NOT EXISTS translation_logs (
	id BIGSERIAL PRIMARY KEY,
	trace_id TEXT,
	tier TEXT NOT NULL,
	model TEXT,
	source_lang TEXT,
	target_lang TEXT,
	text_chars INTEGER NOT NULL,
	cached BOOLEAN NOT NULL,
	error_message TEXT,
	latency_ms INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);`
	}

	if _, err := w.db.Exec(ddl); err != nil {
		return fmt.Errorf("initialize audit log schema: %w", err)
	}
	return nil
}

// Write inserts one entry.
func (w *SQLWriter) Write(ctx context.Context, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `INSERT INTO translation_logs(trace_id, tier, model, source_lang, target_lang, text_chars, cached, error_message, latency_ms, created_at)
	VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if w.dialect == "postgres" {
		query = `INSERT INTO translation_logs(trace_id, tier, model, source_lang, target_lang, text_chars, cached, error_message, latency_ms, created_at)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	}

	_, err := w.db.ExecContext(ctx, query,
		entry.TraceID, entry.Tier, entry.Model, entry.SourceLang, entry.TargetLang,
		entry.TextChars, entry.Cached, entry.ErrorMsg, entry.LatencyMS, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("write audit log entry: %w", err)
	}
	return nil
}

// Count returns the number of stored entries; used by tests and the CLI.
func (w *SQLWriter) Count(ctx context.Context) (int, error) {
	var n int
	if err := w.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM translation_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit log entries: %w", err)
	}
	return n, nil
}

// Close releases the underlying database handle.
func (w *SQLWriter) Close() error {
	return w.db.Close()
}

// Package audit provides SQLite-backed persistence for rejection
// events. Rejections are the security-relevant outcomes of validation;
// accepted values are never recorded. Events carry a digest of the
// offending value rather than the value itself, so the audit trail
// never stores attacker-controlled content verbatim.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Event is one recorded rejection.
type Event struct {
	// ID is a UUID assigned by the caller.
	ID string `json:"id"`

	// Time is when the rejection happened, UTC.
	Time time.Time `json:"time"`

	// Kind is the field kind name ("name", "tool_name", ...).
	Kind string `json:"kind"`

	// Field is the caller-supplied field label.
	Field string `json:"field"`

	// Signal is the rejection signal.
	Signal string `json:"signal"`

	// Reason is the rendered rejection text.
	Reason string `json:"reason"`

	// ValueDigest is the xxhash hex digest of the rejected raw value.
	ValueDigest string `json:"value_digest"`

	// Findings is the comma-joined sanitizer finding kinds, empty for
	// non-sanitizer rejections.
	Findings string `json:"findings,omitempty"`
}

// Store records and queries rejection events.
type Store interface {
	Record(ctx context.Context, event Event) error
	Recent(ctx context.Context, limit int) ([]Event, error)
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS rejections (
	id           TEXT PRIMARY KEY,
	ts           INTEGER NOT NULL,
	kind         TEXT NOT NULL,
	field        TEXT NOT NULL,
	signal       TEXT NOT NULL,
	reason       TEXT NOT NULL,
	value_digest TEXT NOT NULL,
	findings     TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_rejections_ts ON rejections(ts);
CREATE INDEX IF NOT EXISTS idx_rejections_signal ON rejections(signal);
`

// Config configures the SQLite store.
type Config struct {
	// Path is the database file path.
	Path string

	// RetentionDays is how long events are kept (default 30).
	RetentionDays int

	// BusyTimeout is how long to wait on a locked database (default 5s).
	BusyTimeout time.Duration
}

// SQLiteStore implements Store on a single SQLite database file with
// WAL mode enabled.
type SQLiteStore struct {
	db            *sql.DB
	retentionDays int
	logger        *slog.Logger
}

// NewSQLiteStore opens (or creates) the database, enables WAL mode,
// applies the schema, and purges events past retention.
func NewSQLiteStore(cfg Config, logger *slog.Logger) (*SQLiteStore, error) {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	// A single writer connection sidesteps SQLITE_BUSY under
	// concurrent rejections.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply audit schema: %w", err)
	}

	s := &SQLiteStore{
		db:            db,
		retentionDays: cfg.RetentionDays,
		logger:        logger,
	}

	if purged, err := s.PurgeExpired(context.Background()); err != nil {
		logger.Warn("audit retention purge failed", "error", err)
	} else if purged > 0 {
		logger.Info("purged expired audit events", "events", purged)
	}

	logger.Info("audit store opened", "path", cfg.Path, "retention_days", cfg.RetentionDays)
	return s, nil
}

// Record inserts one rejection event.
func (s *SQLiteStore) Record(ctx context.Context, event Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rejections (id, ts, kind, field, signal, reason, value_digest, findings)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Time.UTC().UnixMilli(), event.Kind, event.Field,
		event.Signal, event.Reason, event.ValueDigest, event.Findings,
	)
	if err != nil {
		return fmt.Errorf("failed to record rejection: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, kind, field, signal, reason, value_digest, findings
		 FROM rejections ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejections: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts int64
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Field, &e.Signal, &e.Reason, &e.ValueDigest, &e.Findings); err != nil {
			return nil, fmt.Errorf("failed to scan rejection: %w", err)
		}
		e.Time = time.UnixMilli(ts).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// PurgeExpired deletes events older than the retention window and
// returns how many were removed.
func (s *SQLiteStore) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -s.retentionDays).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM rejections WHERE ts < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// NopStore discards all events. Used when the audit trail is disabled.
type NopStore struct{}

// Record implements Store.
func (NopStore) Record(context.Context, Event) error { return nil }

// Recent implements Store.
func (NopStore) Recent(context.Context, int) ([]Event, error) { return nil, nil }

// Close implements Store.
func (NopStore) Close() error { return nil }

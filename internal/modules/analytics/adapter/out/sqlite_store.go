package out

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"pagetrack/internal/modules/analytics/domain"
	analyticsout "pagetrack/internal/modules/analytics/port/out"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/sqlitedb"
	"pagetrack/internal/platform/tx"
)

const analyticsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
  id TEXT PRIMARY KEY,
  document_id TEXT NOT NULL,
  started_at TEXT NOT NULL,
  payload TEXT NOT NULL CHECK (json_valid(payload))
);
CREATE INDEX IF NOT EXISTS idx_sessions_document ON sessions(document_id);
CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);
CREATE TABLE IF NOT EXISTS document_stats (
  id TEXT PRIMARY KEY,
  payload TEXT NOT NULL CHECK (json_valid(payload))
);
CREATE TABLE IF NOT EXISTS daily_summaries (
  id TEXT PRIMARY KEY,
  payload TEXT NOT NULL CHECK (json_valid(payload))
);
CREATE TABLE IF NOT EXISTS global (
  id TEXT PRIMARY KEY,
  payload TEXT NOT NULL CHECK (json_valid(payload))
);
`

type SQLiteStore struct {
	tx.SQLManager
	sessions *sqliteCollection[domain.SessionRecord]
	docs     *sqliteCollection[domain.DocumentStats]
	daily    *sqliteCollection[domain.DailyReadingSummary]
	global   *sqliteCollection[domain.GlobalAnalytics]
}

// NewSQLiteStore migrates the analytics tables on db. Failures are
// apperrors.ErrStoreUnavailable so callers can fall back to memory.
func NewSQLiteStore(ctx context.Context, db *sql.DB) (analyticsout.Store, error) {
	if err := sqlitedb.Exec(ctx, db, analyticsSchema); err != nil {
		return nil, err
	}
	return &SQLiteStore{
		SQLManager: tx.SQLManager{DB: db},
		sessions: newSQLiteCollection(db, domain.CollectionSessions,
			func(s domain.SessionRecord) string { return s.ID },
			indexColumn[domain.SessionRecord]{index: domain.IndexDocumentID, column: "document_id", value: func(s domain.SessionRecord) any { return s.DocumentID }},
			indexColumn[domain.SessionRecord]{index: "startedAt", column: "started_at", value: func(s domain.SessionRecord) any { return s.StartedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00") }},
		),
		docs: newSQLiteCollection(db, domain.CollectionDocumentStats,
			func(s domain.DocumentStats) string { return s.DocumentID }),
		daily: newSQLiteCollection(db, domain.CollectionDailySummaries,
			func(s domain.DailyReadingSummary) string { return s.Date }),
		global: newSQLiteCollection(db, domain.CollectionGlobal,
			func(g domain.GlobalAnalytics) string { return g.ID }),
	}, nil
}

func (s *SQLiteStore) Sessions() analyticsout.Collection[domain.SessionRecord] { return s.sessions }
func (s *SQLiteStore) DocumentStats() analyticsout.Collection[domain.DocumentStats] {
	return s.docs
}
func (s *SQLiteStore) DailySummaries() analyticsout.Collection[domain.DailyReadingSummary] {
	return s.daily
}
func (s *SQLiteStore) Global() analyticsout.Collection[domain.GlobalAnalytics] { return s.global }

type indexColumn[T any] struct {
	index  string
	column string
	value  func(T) any
}

type sqliteCollection[T any] struct {
	db      *sql.DB
	table   string
	key     func(T) string
	indexes []indexColumn[T]
	upsert  string
}

func newSQLiteCollection[T any](db *sql.DB, table string, key func(T) string, indexes ...indexColumn[T]) *sqliteCollection[T] {
	cols := []string{"id"}
	updates := []string{}
	for _, idx := range indexes {
		cols = append(cols, idx.column)
		updates = append(updates, fmt.Sprintf("%s=excluded.%s", idx.column, idx.column))
	}
	cols = append(cols, "payload")
	updates = append(updates, "payload=excluded.payload")
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	upsert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(id) DO UPDATE SET %s",
		table, strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))
	return &sqliteCollection[T]{db: db, table: table, key: key, indexes: indexes, upsert: upsert}
}

func (c *sqliteCollection[T]) Get(ctx context.Context, key string) (T, error) {
	var zero T
	var payload string
	row := tx.From(ctx, c.db).QueryRowContext(ctx, fmt.Sprintf("SELECT payload FROM %s WHERE id = ?", c.table), key)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return zero, apperrors.ErrNotFound
		}
		return zero, apperrors.ReadFailed(c.table, "get", err)
	}
	var record T
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return zero, apperrors.ReadFailed(c.table, "decode", err)
	}
	return record, nil
}

func (c *sqliteCollection[T]) Put(ctx context.Context, record T) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return apperrors.WriteFailed(c.table, "encode", err)
	}
	args := []any{c.key(record)}
	for _, idx := range c.indexes {
		args = append(args, idx.value(record))
	}
	args = append(args, string(payload))
	if _, err := tx.From(ctx, c.db).ExecContext(ctx, c.upsert, args...); err != nil {
		return apperrors.WriteFailed(c.table, "put", err)
	}
	return nil
}

func (c *sqliteCollection[T]) GetAll(ctx context.Context) ([]T, error) {
	return c.query(ctx, "get all", fmt.Sprintf("SELECT payload FROM %s ORDER BY id", c.table))
}

func (c *sqliteCollection[T]) GetAllByIndex(ctx context.Context, index, value string) ([]T, error) {
	for _, idx := range c.indexes {
		if idx.index == index {
			return c.query(ctx, "get by index", fmt.Sprintf("SELECT payload FROM %s WHERE %s = ? ORDER BY id", c.table, idx.column), value)
		}
	}
	return nil, fmt.Errorf("%w: %s has no index %q", apperrors.ErrInvalidInput, c.table, index)
}

func (c *sqliteCollection[T]) query(ctx context.Context, op, stmt string, args ...any) ([]T, error) {
	rows, err := tx.From(ctx, c.db).QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, apperrors.ReadFailed(c.table, op, err)
	}
	defer rows.Close()
	out := []T{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, apperrors.ReadFailed(c.table, op, err)
		}
		var record T
		if err := json.Unmarshal([]byte(payload), &record); err != nil {
			return nil, apperrors.ReadFailed(c.table, "decode", err)
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ReadFailed(c.table, op, err)
	}
	return out, nil
}

package out

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pagetrack/internal/modules/position/domain"
	positionout "pagetrack/internal/modules/position/port/out"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/sqlitedb"
	"pagetrack/internal/platform/tx"
)

const table = "last_positions"

type SQLiteStore struct {
	txm tx.SQLManager
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, db *sql.DB) (positionout.Store, error) {
	const ddl = `
CREATE TABLE IF NOT EXISTS last_positions (
  document_id TEXT PRIMARY KEY,
  page INTEGER NOT NULL CHECK (page >= 1),
  updated_at TEXT NOT NULL
);
`
	if err := sqlitedb.Exec(ctx, db, ddl); err != nil {
		return nil, err
	}
	return &SQLiteStore{txm: tx.SQLManager{DB: db}, db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context, documentID string) (domain.Position, error) {
	var (
		pos       = domain.Position{DocumentID: documentID}
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `SELECT page, updated_at FROM last_positions WHERE document_id = ?`, documentID).Scan(&pos.Page, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Position{}, apperrors.ErrNotFound
		}
		return domain.Position{}, apperrors.ReadFailed(table, "load", err)
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		pos.UpdatedAt = ts
	}
	return pos, nil
}

func (s *SQLiteStore) SaveAll(ctx context.Context, positions []domain.Position) error {
	const stmt = `
INSERT INTO last_positions (document_id, page, updated_at)
VALUES (?, ?, ?)
ON CONFLICT(document_id) DO UPDATE SET
  page=excluded.page,
  updated_at=excluded.updated_at;
`
	return s.txm.Within(ctx, func(ctx context.Context) error {
		for _, pos := range positions {
			if _, err := tx.From(ctx, s.db).ExecContext(ctx, stmt, pos.DocumentID, pos.Page, pos.UpdatedAt.UTC().Format(time.RFC3339Nano)); err != nil {
				return apperrors.WriteFailed(table, "save", err)
			}
		}
		return nil
	})
}

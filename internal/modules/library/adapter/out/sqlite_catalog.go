package out

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pagetrack/internal/modules/library/domain"
	libraryout "pagetrack/internal/modules/library/port/out"
	apperrors "pagetrack/internal/platform/errors"
	"pagetrack/internal/platform/sqlitedb"
)

const table = "documents"

// Fixed-width timestamps keep ORDER BY added_at chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type SQLiteCatalog struct {
	db *sql.DB
}

func NewSQLiteCatalog(ctx context.Context, db *sql.DB) (libraryout.CatalogStore, error) {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL,
  path TEXT NOT NULL UNIQUE,
  kind TEXT NOT NULL,
  page_count INTEGER NOT NULL CHECK (page_count >= 1),
  added_at TEXT NOT NULL,
  updated_at TEXT NOT NULL
);
`
	if err := sqlitedb.Exec(ctx, db, ddl); err != nil {
		return nil, err
	}
	return &SQLiteCatalog{db: db}, nil
}

func (s *SQLiteCatalog) Upsert(ctx context.Context, doc domain.Document) error {
	const stmt = `
INSERT INTO documents (id, title, slug, path, kind, page_count, added_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title,
  slug=excluded.slug,
  path=excluded.path,
  kind=excluded.kind,
  page_count=excluded.page_count,
  updated_at=excluded.updated_at;
`
	_, err := s.db.ExecContext(ctx, stmt,
		doc.ID,
		doc.Title,
		doc.Slug,
		doc.Path,
		string(doc.Kind),
		doc.PageCount,
		doc.AddedAt.UTC().Format(timeLayout),
		doc.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return apperrors.WriteFailed(table, "upsert", err)
	}
	return nil
}

const selectColumns = `SELECT id, title, slug, path, kind, page_count, added_at, updated_at FROM documents`

func (s *SQLiteCatalog) FindByID(ctx context.Context, id string) (domain.Document, error) {
	return s.findOne(ctx, selectColumns+` WHERE id = ?`, id)
}

func (s *SQLiteCatalog) FindByPath(ctx context.Context, path string) (domain.Document, error) {
	return s.findOne(ctx, selectColumns+` WHERE path = ?`, path)
}

func (s *SQLiteCatalog) List(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` ORDER BY added_at`)
	if err != nil {
		return nil, apperrors.ReadFailed(table, "list", err)
	}
	defer rows.Close()

	var out []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, apperrors.ReadFailed(table, "list", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.ReadFailed(table, "list", err)
	}
	return out, nil
}

func (s *SQLiteCatalog) findOne(ctx context.Context, query string, arg string) (domain.Document, error) {
	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, apperrors.ErrNotFound
		}
		return domain.Document{}, apperrors.ReadFailed(table, "get", err)
	}
	return doc, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (domain.Document, error) {
	var (
		doc              domain.Document
		kind             string
		added, updatedAt string
	)
	if err := row.Scan(&doc.ID, &doc.Title, &doc.Slug, &doc.Path, &kind, &doc.PageCount, &added, &updatedAt); err != nil {
		return domain.Document{}, err
	}
	doc.Kind = domain.Kind(kind)
	doc.AddedAt, _ = time.Parse(timeLayout, added)
	doc.UpdatedAt, _ = time.Parse(timeLayout, updatedAt)
	return doc, nil
}

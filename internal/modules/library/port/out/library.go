package out

import (
	"context"

	"pagetrack/internal/modules/library/domain"
)

// CatalogStore returns apperrors.ErrNotFound for unknown ids and paths.
type CatalogStore interface {
	Upsert(ctx context.Context, document domain.Document) error
	FindByID(ctx context.Context, id string) (domain.Document, error)
	FindByPath(ctx context.Context, path string) (domain.Document, error)
	List(ctx context.Context) ([]domain.Document, error)
}

type PageCounter interface {
	CountPages(ctx context.Context, path string, kind domain.Kind) (int, error)
}

// NoteWriter mirrors catalog entries into the vault. Optional.
type NoteWriter interface {
	Write(ctx context.Context, document domain.Document) (string, error)
}

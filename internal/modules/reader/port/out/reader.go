package out

import (
	"context"

	"pagetrack/internal/modules/reader/domain"
)

type TextReader interface {
	Read(ctx context.Context, path string) (string, error)
}

type PDFReader interface {
	CountPages(ctx context.Context, path string) (int, error)
	ReadPage(ctx context.Context, path string, page int) (string, error)
}

type DocumentResolver interface {
	Resolve(ctx context.Context, documentID string) (domain.DocumentRef, error)
}

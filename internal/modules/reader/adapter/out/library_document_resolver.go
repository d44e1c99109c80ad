package out

import (
	"context"

	libraryin "pagetrack/internal/modules/library/port/in"
	"pagetrack/internal/modules/reader/domain"
	readerout "pagetrack/internal/modules/reader/port/out"
)

type LibraryDocumentResolver struct {
	library libraryin.Usecase
}

func NewLibraryDocumentResolver(library libraryin.Usecase) readerout.DocumentResolver {
	return &LibraryDocumentResolver{library: library}
}

func (a *LibraryDocumentResolver) Resolve(ctx context.Context, documentID string) (domain.DocumentRef, error) {
	doc, err := a.library.GetDocument(ctx, documentID)
	if err != nil {
		return domain.DocumentRef{}, err
	}
	return domain.DocumentRef{ID: doc.ID, Title: doc.Title, Path: doc.Path, Kind: doc.Kind}, nil
}

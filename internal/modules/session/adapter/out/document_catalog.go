package out

import (
	"context"

	libraryin "pagetrack/internal/modules/library/port/in"
	sessionout "pagetrack/internal/modules/session/port/out"
)

type DocumentCatalog struct {
	library libraryin.Usecase
}

func NewDocumentCatalog(library libraryin.Usecase) sessionout.DocumentCatalog {
	return &DocumentCatalog{library: library}
}

func (c *DocumentCatalog) Resolve(ctx context.Context, documentID string) (sessionout.DocumentRef, error) {
	doc, err := c.library.GetDocument(ctx, documentID)
	if err != nil {
		return sessionout.DocumentRef{}, err
	}
	return sessionout.DocumentRef{ID: doc.ID, Title: doc.Title, PageCount: doc.PageCount}, nil
}

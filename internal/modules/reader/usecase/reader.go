package usecase

import (
	"context"

	"pagetrack/internal/modules/reader/dto"
	readerin "pagetrack/internal/modules/reader/port/in"
	readerout "pagetrack/internal/modules/reader/port/out"
	"pagetrack/internal/modules/reader/service"
)

type Interactor struct {
	svc      *service.ReaderService
	resolver readerout.DocumentResolver
}

func NewInteractor(svc *service.ReaderService, resolver readerout.DocumentResolver) readerin.Usecase {
	return &Interactor{svc: svc, resolver: resolver}
}

func (i *Interactor) OpenPage(ctx context.Context, input dto.OpenPageInput) (dto.PageOutput, error) {
	doc, err := i.resolver.Resolve(ctx, input.DocumentID)
	if err != nil {
		return dto.PageOutput{}, err
	}
	page, err := i.svc.ReadPage(ctx, doc.Path, doc.Kind, input.Page)
	if err != nil {
		return dto.PageOutput{}, err
	}
	return dto.PageOutput{
		DocumentID: doc.ID,
		Title:      doc.Title,
		Kind:       doc.Kind,
		Page:       page.Number,
		TotalPages: page.Total,
		Text:       page.Text,
	}, nil
}

type Counter struct {
	svc *service.ReaderService
}

func NewCounter(svc *service.ReaderService) readerin.Counter {
	return &Counter{svc: svc}
}

func (c *Counter) CountPages(ctx context.Context, input dto.CountPagesInput) (int, error) {
	return c.svc.CountPages(ctx, input.Path, input.Kind)
}

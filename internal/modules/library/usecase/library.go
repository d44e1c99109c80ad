package usecase

import (
	"context"

	"pagetrack/internal/modules/library/domain"
	"pagetrack/internal/modules/library/dto"
	libraryin "pagetrack/internal/modules/library/port/in"
	"pagetrack/internal/modules/library/service"
)

type Interactor struct {
	svc *service.CatalogService
}

func NewInteractor(svc *service.CatalogService) libraryin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) AddDocument(ctx context.Context, input dto.AddDocumentInput) (dto.DocumentOutput, error) {
	doc, notePath, err := i.svc.AddDocument(ctx, input.Path, input.Title)
	if err != nil {
		return dto.DocumentOutput{}, err
	}
	out := toOutput(doc)
	out.NotePath = notePath
	return out, nil
}

func (i *Interactor) ListDocuments(ctx context.Context) ([]dto.DocumentOutput, error) {
	docs, err := i.svc.ListDocuments(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DocumentOutput, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toOutput(doc))
	}
	return out, nil
}

func (i *Interactor) GetDocument(ctx context.Context, id string) (dto.DocumentOutput, error) {
	doc, err := i.svc.GetDocument(ctx, id)
	if err != nil {
		return dto.DocumentOutput{}, err
	}
	return toOutput(doc), nil
}

func (i *Interactor) Refresh(ctx context.Context) (dto.RefreshOutput, error) {
	checked, updated, failed, err := i.svc.Refresh(ctx)
	if err != nil {
		return dto.RefreshOutput{}, err
	}
	return dto.RefreshOutput{Checked: checked, Updated: updated, Failed: failed}, nil
}

func toOutput(doc domain.Document) dto.DocumentOutput {
	return dto.DocumentOutput{
		ID:        doc.ID,
		Title:     doc.Title,
		Path:      doc.Path,
		Kind:      string(doc.Kind),
		PageCount: doc.PageCount,
		AddedAt:   doc.AddedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

package in

import (
	"context"

	"pagetrack/internal/modules/library/dto"
)

type Usecase interface {
	AddDocument(ctx context.Context, input dto.AddDocumentInput) (dto.DocumentOutput, error)
	ListDocuments(ctx context.Context) ([]dto.DocumentOutput, error)
	GetDocument(ctx context.Context, id string) (dto.DocumentOutput, error)
	Refresh(ctx context.Context) (dto.RefreshOutput, error)
}

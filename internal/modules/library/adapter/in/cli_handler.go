package in

import (
	"context"

	"pagetrack/internal/modules/library/dto"
	libraryin "pagetrack/internal/modules/library/port/in"
)

type CLIHandler struct {
	usecase libraryin.Usecase
}

func NewCLIHandler(usecase libraryin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Add(ctx context.Context, path, title string) (dto.DocumentOutput, error) {
	return h.usecase.AddDocument(ctx, dto.AddDocumentInput{Path: path, Title: title})
}

func (h CLIHandler) List(ctx context.Context) ([]dto.DocumentOutput, error) {
	return h.usecase.ListDocuments(ctx)
}

func (h CLIHandler) Get(ctx context.Context, id string) (dto.DocumentOutput, error) {
	return h.usecase.GetDocument(ctx, id)
}

func (h CLIHandler) Refresh(ctx context.Context) (dto.RefreshOutput, error) {
	return h.usecase.Refresh(ctx)
}

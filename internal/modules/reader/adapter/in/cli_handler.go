package in

import (
	"context"

	"pagetrack/internal/modules/reader/dto"
	readerin "pagetrack/internal/modules/reader/port/in"
)

type CLIHandler struct {
	usecase readerin.Usecase
}

func NewCLIHandler(usecase readerin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Page(ctx context.Context, documentID string, page int) (dto.PageOutput, error) {
	return h.usecase.OpenPage(ctx, dto.OpenPageInput{DocumentID: documentID, Page: page})
}

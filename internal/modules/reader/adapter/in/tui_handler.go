package in

import (
	"context"

	"pagetrack/internal/modules/reader/dto"
	readerin "pagetrack/internal/modules/reader/port/in"
)

type TUIHandler struct {
	usecase readerin.Usecase
}

func NewTUIHandler(usecase readerin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) OpenPage(ctx context.Context, documentID string, page int) (dto.PageOutput, error) {
	return h.usecase.OpenPage(ctx, dto.OpenPageInput{DocumentID: documentID, Page: page})
}

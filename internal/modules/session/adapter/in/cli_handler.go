package in

import (
	"context"

	sessiondto "pagetrack/internal/modules/session/dto"
	sessionin "pagetrack/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Open(ctx context.Context, documentID string, page int) (sessiondto.OpenOutput, error) {
	return h.usecase.OpenDocument(ctx, sessiondto.OpenInput{DocumentID: documentID, Page: page})
}

func (h CLIHandler) Close(ctx context.Context) (sessiondto.FlushOutput, error) {
	return h.usecase.CloseDocument(ctx)
}

func (h CLIHandler) Shutdown(ctx context.Context) (sessiondto.FlushOutput, error) {
	return h.usecase.Shutdown(ctx)
}

package in

import (
	"context"

	"pagetrack/internal/modules/sink/dto"
	sinkin "pagetrack/internal/modules/sink/port/in"
)

type CLIHandler struct {
	usecase sinkin.Usecase
}

func NewCLIHandler(usecase sinkin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) List(ctx context.Context) ([]dto.SinkInfo, error) {
	return h.usecase.List(ctx)
}

func (h CLIHandler) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return h.usecase.Doctor(ctx)
}

package in

import (
	"context"

	"pagetrack/internal/modules/analytics/dto"
	analyticsin "pagetrack/internal/modules/analytics/port/in"
)

type CLIHandler struct {
	usecase analyticsin.Usecase
}

func NewCLIHandler(usecase analyticsin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Dashboard(ctx context.Context, recent int) (dto.DashboardOutput, error) {
	return h.usecase.GetDashboard(ctx, dto.DashboardInput{Recent: recent})
}

func (h CLIHandler) DocumentStats(ctx context.Context, documentID string) (dto.DocumentStatsOutput, error) {
	return h.usecase.GetDocumentStats(ctx, documentID)
}

func (h CLIHandler) Sessions(ctx context.Context, documentID string) ([]dto.SessionOutput, error) {
	return h.usecase.ListSessions(ctx, documentID)
}

package in

import (
	"context"

	"pagetrack/internal/modules/analytics/dto"
)

type Usecase interface {
	RecordSession(ctx context.Context, input dto.RecordSessionInput) (dto.RecordOutput, error)
	GetDashboard(ctx context.Context, input dto.DashboardInput) (dto.DashboardOutput, error)
	GetDocumentStats(ctx context.Context, documentID string) (dto.DocumentStatsOutput, error)
	ListSessions(ctx context.Context, documentID string) ([]dto.SessionOutput, error)
}

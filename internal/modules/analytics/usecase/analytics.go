package usecase

import (
	"context"
	"strconv"
	"strings"

	"pagetrack/internal/modules/analytics/domain"
	"pagetrack/internal/modules/analytics/dto"
	analyticsin "pagetrack/internal/modules/analytics/port/in"
	"pagetrack/internal/modules/analytics/service"
	apperrors "pagetrack/internal/platform/errors"
)

type Interactor struct {
	engine    *service.AggregationService
	dashboard *service.DashboardService
}

func NewInteractor(engine *service.AggregationService, dashboard *service.DashboardService) analyticsin.Usecase {
	return &Interactor{engine: engine, dashboard: dashboard}
}

func (i *Interactor) RecordSession(ctx context.Context, input dto.RecordSessionInput) (dto.RecordOutput, error) {
	endedAt := input.EndedAt
	record := domain.SessionRecord{
		ID:               input.ID,
		LogicalSessionID: input.LogicalSessionID,
		Chunk:            input.Chunk,
		DocumentID:       input.DocumentID,
		StartedAt:        input.StartedAt,
		EndedAt:          &endedAt,
		TotalDurationMs:  input.TotalDurationMs,
		PagesRead:        input.PagesRead,
		PageHistory:      make([]domain.PageDwell, 0, len(input.PageHistory)),
		AvgTimePerPageMs: input.AvgTimePerPageMs,
		FastestPageMs:    input.FastestPageMs,
		SlowestPageMs:    input.SlowestPageMs,
	}
	if input.EndedAt.IsZero() {
		record.EndedAt = nil
	}
	for _, p := range input.PageHistory {
		record.PageHistory = append(record.PageHistory, domain.PageDwell{Page: p.Page, DurationMs: p.DurationMs, VisitCount: p.VisitCount})
	}
	applied, err := i.engine.Record(ctx, record)
	if err != nil {
		return dto.RecordOutput{}, err
	}
	return dto.RecordOutput{SessionID: record.ID, Applied: applied}, nil
}

func (i *Interactor) GetDashboard(ctx context.Context, input dto.DashboardInput) (dto.DashboardOutput, error) {
	board, err := i.dashboard.Dashboard(ctx, input.Recent)
	if err != nil {
		return dto.DashboardOutput{}, err
	}
	out := dto.DashboardOutput{
		TotalLifetimeReadingMs: board.Global.TotalLifetimeReadingMs,
		TotalLifetimePagesRead: board.Global.TotalLifetimePagesRead,
		TotalLifetimeSessions:  board.Global.TotalLifetimeSessions,
		LongestSessionMs:       board.Global.LongestSessionMs,
		CurrentStreak:          board.Global.CurrentStreak,
		LongestStreak:          board.Global.LongestStreak,
		LastActiveDate:         board.Global.LastActiveDate,
		WeeklyMinutes:          board.WeeklyMinutes,
		Today: dto.DailySummaryOutput{
			Date:               board.Today.Date,
			TotalReadingTimeMs: board.Today.TotalReadingTimeMs,
			TotalPagesRead:     board.Today.TotalPagesRead,
			SessionCount:       board.Today.SessionCount,
			DocumentsRead:      append([]string(nil), board.Today.DocumentsRead...),
		},
		Documents:      make([]dto.DocumentStatsOutput, 0, len(board.Documents)),
		RecentSessions: make([]dto.SessionOutput, 0, len(board.RecentSessions)),
		Degraded:       board.Degraded,
	}
	for _, stats := range board.Documents {
		out.Documents = append(out.Documents, toStatsOutput(stats))
	}
	for _, session := range board.RecentSessions {
		out.RecentSessions = append(out.RecentSessions, toSessionOutput(session))
	}
	return out, nil
}

func (i *Interactor) GetDocumentStats(ctx context.Context, documentID string) (dto.DocumentStatsOutput, error) {
	if strings.TrimSpace(documentID) == "" {
		return dto.DocumentStatsOutput{}, apperrors.ErrInvalidInput
	}
	stats, err := i.dashboard.DocumentStats(ctx, documentID)
	if err != nil {
		return dto.DocumentStatsOutput{}, err
	}
	return toStatsOutput(stats), nil
}

func (i *Interactor) ListSessions(ctx context.Context, documentID string) ([]dto.SessionOutput, error) {
	if strings.TrimSpace(documentID) == "" {
		return nil, apperrors.ErrInvalidInput
	}
	sessions, err := i.dashboard.SessionsForDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SessionOutput, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, toSessionOutput(session))
	}
	return out, nil
}

func toStatsOutput(stats domain.DocumentStats) dto.DocumentStatsOutput {
	out := dto.DocumentStatsOutput{
		DocumentID:           stats.DocumentID,
		TotalReadingTimeMs:   stats.TotalReadingTimeMs,
		TotalSessionCount:    stats.TotalSessionCount,
		TotalPagesRead:       stats.TotalPagesRead,
		UniquePagesRead:      stats.UniquePagesRead,
		AvgSessionDurationMs: stats.AvgSessionDurationMs,
		AvgTimePerPageMs:     stats.AvgTimePerPageMs,
		PageHeatmap:          make(map[int]int64, len(stats.PageHeatmap)),
	}
	if stats.FirstReadAt != nil {
		out.FirstReadAt = *stats.FirstReadAt
	}
	if stats.LastReadAt != nil {
		out.LastReadAt = *stats.LastReadAt
	}
	for key, ms := range stats.PageHeatmap {
		page, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		out.PageHeatmap[page] = ms
	}
	return out
}

func toSessionOutput(session domain.SessionRecord) dto.SessionOutput {
	out := dto.SessionOutput{
		ID:               session.ID,
		LogicalSessionID: session.LogicalSessionID,
		DocumentID:       session.DocumentID,
		StartedAt:        session.StartedAt,
		TotalDurationMs:  session.TotalDurationMs,
		PagesRead:        session.PagesRead,
		PageHistory:      make([]dto.PageDwell, 0, len(session.PageHistory)),
		AvgTimePerPageMs: session.AvgTimePerPageMs,
		FastestPageMs:    session.FastestPageMs,
		SlowestPageMs:    session.SlowestPageMs,
	}
	if session.EndedAt != nil {
		out.EndedAt = *session.EndedAt
	}
	for _, p := range session.PageHistory {
		out.PageHistory = append(out.PageHistory, dto.PageDwell{Page: p.Page, DurationMs: p.DurationMs, VisitCount: p.VisitCount})
	}
	return out
}

package out

import (
	"context"

	analyticsdto "pagetrack/internal/modules/analytics/dto"
	analyticsin "pagetrack/internal/modules/analytics/port/in"
	"pagetrack/internal/modules/session/domain"
	sessionout "pagetrack/internal/modules/session/port/out"
)

type AnalyticsAggregator struct {
	analytics analyticsin.Usecase
}

func NewAnalyticsAggregator(analytics analyticsin.Usecase) sessionout.Aggregator {
	return &AnalyticsAggregator{analytics: analytics}
}

func (a *AnalyticsAggregator) Record(ctx context.Context, session domain.ReadingSession) (bool, error) {
	history := make([]analyticsdto.PageDwell, 0, len(session.PageHistory))
	for _, p := range session.PageHistory {
		history = append(history, analyticsdto.PageDwell{Page: p.Page, DurationMs: p.DurationMs, VisitCount: p.VisitCount})
	}
	out, err := a.analytics.RecordSession(ctx, analyticsdto.RecordSessionInput{
		ID:               session.ID,
		LogicalSessionID: session.LogicalID,
		Chunk:            session.Chunk,
		DocumentID:       session.DocumentID,
		StartedAt:        session.StartedAt,
		EndedAt:          session.EndedAt,
		TotalDurationMs:  session.TotalDurationMs,
		PagesRead:        session.PagesRead,
		PageHistory:      history,
		AvgTimePerPageMs: session.AvgTimePerPageMs,
		FastestPageMs:    session.FastestPageMs,
		SlowestPageMs:    session.SlowestPageMs,
	})
	if err != nil {
		return false, err
	}
	return out.Applied, nil
}

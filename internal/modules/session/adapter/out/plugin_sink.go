package out

import (
	"context"

	"pagetrack/internal/modules/session/domain"
	sessionout "pagetrack/internal/modules/session/port/out"
	sinkdto "pagetrack/internal/modules/sink/dto"
	sinkin "pagetrack/internal/modules/sink/port/in"
)

// PluginSink hands finalized chunks to the out-of-process sinks.
type PluginSink struct {
	sinks sinkin.Usecase
}

func NewPluginSink(sinks sinkin.Usecase) sessionout.SessionSink {
	return &PluginSink{sinks: sinks}
}

func (p *PluginSink) Deliver(ctx context.Context, session domain.ReadingSession) error {
	pages := make([]sinkdto.PageDwell, 0, len(session.PageHistory))
	for _, page := range session.PageHistory {
		pages = append(pages, sinkdto.PageDwell{Page: page.Page, DurationMs: page.DurationMs, VisitCount: page.VisitCount})
	}
	_, err := p.sinks.Deliver(ctx, sinkdto.DeliverInput{
		ID:               session.ID,
		LogicalSessionID: session.LogicalID,
		Chunk:            session.Chunk,
		DocumentID:       session.DocumentID,
		DocumentTitle:    session.DocumentTitle,
		StartedAt:        session.StartedAt,
		EndedAt:          session.EndedAt,
		TotalDurationMs:  session.TotalDurationMs,
		PagesRead:        session.PagesRead,
		AvgTimePerPageMs: session.AvgTimePerPageMs,
		FastestPageMs:    session.FastestPageMs,
		SlowestPageMs:    session.SlowestPageMs,
		Pages:            pages,
	})
	return err
}

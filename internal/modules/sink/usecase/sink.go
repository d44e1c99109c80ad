package usecase

import (
	"context"

	"pagetrack/internal/modules/sink/domain"
	"pagetrack/internal/modules/sink/dto"
	sinkin "pagetrack/internal/modules/sink/port/in"
	"pagetrack/internal/modules/sink/service"
)

type Interactor struct {
	svc *service.SinkService
}

func NewInteractor(svc *service.SinkService) sinkin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) List(ctx context.Context) ([]dto.SinkInfo, error) {
	return i.svc.List(ctx)
}

func (i *Interactor) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	return i.svc.Doctor(ctx)
}

// Deliver returns the per-sink outcome and, when any sink failed, an error
// joining every failure.
func (i *Interactor) Deliver(ctx context.Context, input dto.DeliverInput) (dto.DeliverOutput, error) {
	delivered, failed, err := i.svc.Deliver(ctx, toSession(input))
	if err != nil {
		return dto.DeliverOutput{}, err
	}
	out := dto.DeliverOutput{Delivered: delivered}
	if len(failed) > 0 {
		out.Failed = make(map[string]string, len(failed))
		for name, ferr := range failed {
			out.Failed[name] = ferr.Error()
		}
	}
	return out, service.JoinFailures(failed)
}

func (i *Interactor) Close() error {
	return i.svc.Close()
}

func toSession(input dto.DeliverInput) domain.Session {
	pages := make([]domain.PageDwell, 0, len(input.Pages))
	for _, p := range input.Pages {
		pages = append(pages, domain.PageDwell{Page: p.Page, DurationMs: p.DurationMs, VisitCount: p.VisitCount})
	}
	return domain.Session{
		ID:               input.ID,
		LogicalSessionID: input.LogicalSessionID,
		Chunk:            input.Chunk,
		DocumentID:       input.DocumentID,
		DocumentTitle:    input.DocumentTitle,
		StartedAt:        input.StartedAt,
		EndedAt:          input.EndedAt,
		TotalDurationMs:  input.TotalDurationMs,
		PagesRead:        input.PagesRead,
		AvgTimePerPageMs: input.AvgTimePerPageMs,
		FastestPageMs:    input.FastestPageMs,
		SlowestPageMs:    input.SlowestPageMs,
		Pages:            pages,
	}
}

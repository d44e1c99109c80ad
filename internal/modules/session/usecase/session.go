package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"pagetrack/internal/modules/session/domain"
	sessiondto "pagetrack/internal/modules/session/dto"
	sessionin "pagetrack/internal/modules/session/port/in"
	sessionout "pagetrack/internal/modules/session/port/out"
	"pagetrack/internal/modules/session/service"
	apperrors "pagetrack/internal/platform/errors"
)

type Interactor struct {
	recorder  *service.Recorder
	catalog   sessionout.DocumentCatalog
	positions sessionout.PositionCache
	logger    *slog.Logger

	mu         sync.Mutex
	totalPages int
}

func NewInteractor(recorder *service.Recorder, catalog sessionout.DocumentCatalog, positions sessionout.PositionCache, logger *slog.Logger) sessionin.Usecase {
	return &Interactor{recorder: recorder, catalog: catalog, positions: positions, logger: logger}
}

func (i *Interactor) OpenDocument(ctx context.Context, input sessiondto.OpenInput) (sessiondto.OpenOutput, error) {
	if input.DocumentID == "" {
		return sessiondto.OpenOutput{}, fmt.Errorf("%w: document id is required", apperrors.ErrInvalidInput)
	}
	if input.Page < 0 {
		return sessiondto.OpenOutput{}, fmt.Errorf("%w: page must be >= 1", apperrors.ErrInvalidInput)
	}
	ref := sessionout.DocumentRef{ID: input.DocumentID, Title: input.DocumentID}
	if i.catalog != nil {
		resolved, err := i.catalog.Resolve(ctx, input.DocumentID)
		if err != nil {
			return sessiondto.OpenOutput{}, err
		}
		ref = resolved
	}

	page := input.Page
	if ref.PageCount > 0 && page > ref.PageCount {
		return sessiondto.OpenOutput{}, fmt.Errorf("%w: page %d beyond last page %d", apperrors.ErrInvalidInput, page, ref.PageCount)
	}
	if page == 0 {
		// The document may have shrunk since the position was saved.
		page = i.recall(ctx, ref.ID)
		if ref.PageCount > 0 && page > ref.PageCount {
			page = ref.PageCount
		}
	}

	live, previous, err := i.recorder.Open(ctx, ref.ID, ref.Title, page)
	i.mu.Lock()
	i.totalPages = ref.PageCount
	i.mu.Unlock()
	i.remember(ctx, ref.ID, live.CurrentPage)

	out := sessiondto.OpenOutput{Live: i.toLive(live)}
	if previous.Outcome != "" {
		prev := toFlush(previous)
		out.Previous = &prev
	}
	return out, err
}

func (i *Interactor) ReportPageChange(ctx context.Context, page int) (sessiondto.LiveStatsOutput, error) {
	i.mu.Lock()
	total := i.totalPages
	i.mu.Unlock()
	if total > 0 && page > total {
		return sessiondto.LiveStatsOutput{}, fmt.Errorf("%w: page %d beyond last page %d", apperrors.ErrInvalidInput, page, total)
	}
	if err := i.recorder.ChangePage(page); err != nil {
		return sessiondto.LiveStatsOutput{}, err
	}
	live := i.recorder.Live()
	i.remember(ctx, live.DocumentID, live.CurrentPage)
	return i.toLive(live), nil
}

func (i *Interactor) ReportActivity(context.Context) error {
	i.recorder.Activity()
	return nil
}

func (i *Interactor) SetActive(context.Context) (sessiondto.LiveStatsOutput, error) {
	if err := i.recorder.Resume(); err != nil {
		return sessiondto.LiveStatsOutput{}, err
	}
	return i.toLive(i.recorder.Live()), nil
}

func (i *Interactor) SetPaused(ctx context.Context) (sessiondto.FlushOutput, error) {
	return i.flush(ctx, domain.TriggerPause)
}

func (i *Interactor) SetFocus(ctx context.Context, focused bool) (sessiondto.FlushOutput, error) {
	res, err := i.recorder.Focus(ctx, focused)
	return toFlush(res), err
}

func (i *Interactor) GetLiveStats(context.Context) (sessiondto.LiveStatsOutput, error) {
	return i.toLive(i.recorder.Live()), nil
}

func (i *Interactor) Flush(ctx context.Context, trigger string) (sessiondto.FlushOutput, error) {
	t, err := domain.ParseTrigger(trigger)
	if err != nil {
		return sessiondto.FlushOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return i.flush(ctx, t)
}

func (i *Interactor) CloseDocument(ctx context.Context) (sessiondto.FlushOutput, error) {
	return i.flush(ctx, domain.TriggerClose)
}

func (i *Interactor) Shutdown(ctx context.Context) (sessiondto.FlushOutput, error) {
	res, err := i.recorder.Shutdown(ctx)
	return toFlush(res), err
}

func (i *Interactor) flush(ctx context.Context, trigger domain.Trigger) (sessiondto.FlushOutput, error) {
	res, err := i.recorder.Flush(ctx, trigger)
	return toFlush(res), err
}

func (i *Interactor) recall(ctx context.Context, documentID string) int {
	if i.positions == nil {
		return 1
	}
	page, err := i.positions.Recall(ctx, documentID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			i.logger.Warn("recall last position", "document_id", documentID, "error", err)
		}
		return 1
	}
	return max(page, 1)
}

func (i *Interactor) remember(ctx context.Context, documentID string, page int) {
	if i.positions == nil || documentID == "" {
		return
	}
	if err := i.positions.Remember(ctx, documentID, page); err != nil {
		i.logger.Warn("remember last position", "document_id", documentID, "page", page, "error", err)
	}
}

func (i *Interactor) toLive(live domain.LiveStats) sessiondto.LiveStatsOutput {
	out := sessiondto.LiveStatsOutput{
		State:            string(live.State),
		PauseReason:      string(live.PauseReason),
		DocumentID:       live.DocumentID,
		DocumentTitle:    live.DocumentTitle,
		SessionID:        live.LogicalID,
		CurrentPage:      live.CurrentPage,
		ElapsedMs:        live.ElapsedMs,
		PagesRead:        live.PagesRead,
		AvgTimePerPageMs: live.AvgTimePerPageMs,
		PersistedChunks:  live.PersistedChunks,
		PageHistory:      make([]sessiondto.PageDwell, 0, len(live.PageHistory)),
	}
	if live.State != domain.StateIdle {
		i.mu.Lock()
		out.TotalPages = i.totalPages
		i.mu.Unlock()
	}
	for _, p := range live.PageHistory {
		out.PageHistory = append(out.PageHistory, sessiondto.PageDwell{Page: p.Page, DurationMs: p.DurationMs, VisitCount: p.VisitCount})
	}
	return out
}

func toFlush(res service.FlushResult) sessiondto.FlushOutput {
	return sessiondto.FlushOutput{
		Trigger:    string(res.Trigger),
		Outcome:    string(res.Outcome),
		SessionID:  res.Session.ID,
		DocumentID: res.Session.DocumentID,
		StartedAt:  res.Session.StartedAt,
		EndedAt:    res.Session.EndedAt,
		DurationMs: res.Session.TotalDurationMs,
		PagesRead:  res.Session.PagesRead,
		Coalesced:  res.Coalesced,
	}
}

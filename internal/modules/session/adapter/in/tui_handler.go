package in

import (
	"context"

	sessiondto "pagetrack/internal/modules/session/dto"
	sessionin "pagetrack/internal/modules/session/port/in"
)

// TUIHandler is what the reader view drives: navigation, input activity,
// the pause toggle and focus changes.
type TUIHandler struct {
	usecase sessionin.Usecase
}

func NewTUIHandler(usecase sessionin.Usecase) TUIHandler {
	return TUIHandler{usecase: usecase}
}

func (h TUIHandler) Open(ctx context.Context, documentID string, page int) (sessiondto.OpenOutput, error) {
	return h.usecase.OpenDocument(ctx, sessiondto.OpenInput{DocumentID: documentID, Page: page})
}

func (h TUIHandler) GoToPage(ctx context.Context, page int) (sessiondto.LiveStatsOutput, error) {
	return h.usecase.ReportPageChange(ctx, page)
}

func (h TUIHandler) Activity(ctx context.Context) error {
	return h.usecase.ReportActivity(ctx)
}

// TogglePause pauses an active session and resumes a paused one.
func (h TUIHandler) TogglePause(ctx context.Context) (sessiondto.LiveStatsOutput, *sessiondto.FlushOutput, error) {
	live, err := h.usecase.GetLiveStats(ctx)
	if err != nil {
		return sessiondto.LiveStatsOutput{}, nil, err
	}
	if live.State == "paused" {
		live, err = h.usecase.SetActive(ctx)
		return live, nil, err
	}
	flushed, flushErr := h.usecase.SetPaused(ctx)
	live, err = h.usecase.GetLiveStats(ctx)
	if err != nil {
		return live, &flushed, err
	}
	return live, &flushed, flushErr
}

func (h TUIHandler) Focus(ctx context.Context, focused bool) (sessiondto.FlushOutput, error) {
	return h.usecase.SetFocus(ctx, focused)
}

func (h TUIHandler) Live(ctx context.Context) (sessiondto.LiveStatsOutput, error) {
	return h.usecase.GetLiveStats(ctx)
}

func (h TUIHandler) Close(ctx context.Context) (sessiondto.FlushOutput, error) {
	return h.usecase.CloseDocument(ctx)
}

// Save persists the elapsed time without leaving the active state.
func (h TUIHandler) Save(ctx context.Context) (sessiondto.FlushOutput, error) {
	return h.usecase.Flush(ctx, "autosave")
}

func (h TUIHandler) Pause(ctx context.Context) (sessiondto.FlushOutput, error) {
	return h.usecase.SetPaused(ctx)
}

func (h TUIHandler) Resume(ctx context.Context) (sessiondto.LiveStatsOutput, error) {
	return h.usecase.SetActive(ctx)
}

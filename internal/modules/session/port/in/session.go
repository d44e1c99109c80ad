package in

import (
	"context"

	"pagetrack/internal/modules/session/dto"
)

// Usecase drives the reading session of the single foreground document.
// Flush-producing calls return a non-nil error only as an advisory: the state
// transition has already happened when a store failure is reported.
type Usecase interface {
	OpenDocument(ctx context.Context, input dto.OpenInput) (dto.OpenOutput, error)
	ReportPageChange(ctx context.Context, page int) (dto.LiveStatsOutput, error)
	ReportActivity(ctx context.Context) error
	SetActive(ctx context.Context) (dto.LiveStatsOutput, error)
	SetPaused(ctx context.Context) (dto.FlushOutput, error)
	SetFocus(ctx context.Context, focused bool) (dto.FlushOutput, error)
	GetLiveStats(ctx context.Context) (dto.LiveStatsOutput, error)
	Flush(ctx context.Context, trigger string) (dto.FlushOutput, error)
	CloseDocument(ctx context.Context) (dto.FlushOutput, error)
	Shutdown(ctx context.Context) (dto.FlushOutput, error)
}

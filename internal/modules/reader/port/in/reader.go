package in

import (
	"context"

	"pagetrack/internal/modules/reader/dto"
)

type Usecase interface {
	OpenPage(ctx context.Context, input dto.OpenPageInput) (dto.PageOutput, error)
}

// Counter is split from Usecase so the catalog can count pages without
// depending on document resolution.
type Counter interface {
	CountPages(ctx context.Context, input dto.CountPagesInput) (int, error)
}

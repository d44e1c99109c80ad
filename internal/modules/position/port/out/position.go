package out

import (
	"context"

	"pagetrack/internal/modules/position/domain"
)

// Store returns apperrors.ErrNotFound from Load when nothing was saved yet.
type Store interface {
	Load(ctx context.Context, documentID string) (domain.Position, error)
	SaveAll(ctx context.Context, positions []domain.Position) error
}

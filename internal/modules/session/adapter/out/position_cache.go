package out

import (
	"context"

	positionin "pagetrack/internal/modules/position/port/in"
	sessionout "pagetrack/internal/modules/session/port/out"
)

type PositionCache struct {
	positions positionin.Usecase
}

func NewPositionCache(positions positionin.Usecase) sessionout.PositionCache {
	return &PositionCache{positions: positions}
}

func (c *PositionCache) Recall(ctx context.Context, documentID string) (int, error) {
	return c.positions.Recall(ctx, documentID)
}

func (c *PositionCache) Remember(ctx context.Context, documentID string, page int) error {
	return c.positions.Remember(ctx, documentID, page)
}

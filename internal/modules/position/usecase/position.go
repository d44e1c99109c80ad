package usecase

import (
	"context"

	positionin "pagetrack/internal/modules/position/port/in"
	"pagetrack/internal/modules/position/service"
)

type Interactor struct {
	cache *service.Cache
}

func NewInteractor(cache *service.Cache) positionin.Usecase {
	return &Interactor{cache: cache}
}

func (i *Interactor) Remember(_ context.Context, documentID string, page int) error {
	return i.cache.Remember(documentID, page)
}

func (i *Interactor) Recall(ctx context.Context, documentID string) (int, error) {
	return i.cache.Recall(ctx, documentID)
}

func (i *Interactor) Flush(ctx context.Context) error {
	return i.cache.Flush(ctx)
}

package out

import (
	"context"

	"pagetrack/internal/modules/analytics/domain"
	"pagetrack/internal/platform/tx"
)

// Collection is one named keyed collection of the analytics store. Get returns
// apperrors.ErrNotFound when the key is absent; every other failure is an
// *apperrors.StoreError.
type Collection[T any] interface {
	Get(ctx context.Context, key string) (T, error)
	Put(ctx context.Context, record T) error
	GetAll(ctx context.Context) ([]T, error)
	GetAllByIndex(ctx context.Context, index, value string) ([]T, error)
}

type Store interface {
	tx.Manager
	Sessions() Collection[domain.SessionRecord]
	DocumentStats() Collection[domain.DocumentStats]
	DailySummaries() Collection[domain.DailyReadingSummary]
	Global() Collection[domain.GlobalAnalytics]
}
